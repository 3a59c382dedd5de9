package team

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macae/internal/integrations"
	"macae/internal/settings"
)

const retailTeam = `
name: Retail Customer Success Team
description: Analyzes customer satisfaction and churn
agents:
  - name: CustomerDataAgent
    description: Queries the retail lakehouse
    use_fabric: true
    workspace_id: ws1
    artifact_id: art1
    fabric_connection_id: conn1
  - name: OrderDataAgent
    use_search: true
  - name: AnalysisRecommendationAgent
    use_mcp: true
`

func TestLoad(t *testing.T) {
	tm, err := Load([]byte(retailTeam))
	require.NoError(t, err)
	assert.Equal(t, "Retail Customer Success Team", tm.Name)
	require.Len(t, tm.Agents, 3)

	a, ok := tm.Agent("CustomerDataAgent")
	require.True(t, ok)
	assert.True(t, a.UseFabric)
	assert.Equal(t, integrations.FabricSource{
		Name:               "CustomerDataAgent",
		UseFabric:          true,
		WorkspaceID:        "ws1",
		ArtifactID:         "art1",
		FabricConnectionID: "conn1",
	}, a.FabricSource())

	b, ok := tm.Agent("OrderDataAgent")
	require.True(t, ok)
	assert.False(t, b.UseFabric)
	assert.Empty(t, b.WorkspaceID)

	_, ok = tm.Agent("Nobody")
	assert.False(t, ok)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"missing name", "agents:\n  - name: a\n", "missing required field: name"},
		{"no agents", "name: t\n", "agents must be a non-empty list"},
		{"unnamed agent", "name: t\nagents:\n  - use_mcp: true\n", "missing required field: agents[0].name"},
		{"duplicate agent", "name: t\nagents:\n  - name: a\n  - name: a\n", "agents[1].name duplicates agents[0].name"},
		{"unknown key", "name: t\nuse_bing: true\nagents:\n  - name: a\n", "yaml parse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load([]byte(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.yaml")
	require.NoError(t, os.WriteFile(path, []byte(retailTeam), 0o600))

	tm, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, tm.Agents, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	tm, err := Load([]byte(retailTeam))
	require.NoError(t, err)

	p := settings.Map{
		settings.MCPServerEndpoint:    "https://mcp.example.com/mcp",
		settings.MCPServerName:        "MacaeMcpServer",
		settings.MCPServerDescription: "Retail tools",
		settings.AzureTenantID:        "tenant-1",
		settings.AzureClientID:        "client-1",
		settings.SearchConnectionName: "search-conn",
		settings.SearchIndexName:      "retail-index",
		settings.SearchEndpoint:       "https://search.example.com",
	}

	res, err := tm.Resolve(p)
	require.NoError(t, err)
	require.Len(t, res, 3)

	require.NotNil(t, res[0].Fabric)
	assert.Equal(t, "https://api.fabric.microsoft.com/v1/workspaces/ws1/aiskills/art1/aiassistant/openai", res[0].Fabric.FullEndpointURL())
	assert.Nil(t, res[0].MCP)
	assert.Nil(t, res[0].Search)

	require.NotNil(t, res[1].Search)
	assert.Equal(t, "retail-index", res[1].Search.IndexName)
	assert.Nil(t, res[1].Fabric)

	require.NotNil(t, res[2].MCP)
	assert.Equal(t, "MacaeMcpServer", res[2].MCP.Name)
	assert.NoError(t, res[2].Err())
}

func TestResolve_Failures(t *testing.T) {
	tm, err := Load([]byte(`
name: t
agents:
  - name: Broken
    use_fabric: true
    workspace_id: ws1
  - name: NeedsMCP
    use_mcp: true
  - name: Plain
`))
	require.NoError(t, err)

	res, err := tm.Resolve(settings.Map{})
	require.Error(t, err)
	assert.ErrorIs(t, err, integrations.ErrConfiguration)
	assert.Contains(t, err.Error(), "Broken")
	assert.Contains(t, err.Error(), "MCPConfig")

	require.Len(t, res, 3)
	assert.Nil(t, res[0].Fabric)
	var cerr *integrations.ConfigurationError
	require.True(t, errors.As(res[0].Err(), &cerr))
	assert.Equal(t, []string{"artifact_id", "fabric_connection_id"}, cerr.Missing)

	assert.Nil(t, res[1].MCP)
	assert.Error(t, res[1].Err())

	assert.NoError(t, res[2].Err())
}
