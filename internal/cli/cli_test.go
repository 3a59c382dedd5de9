package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macae/internal/integrations"
	"macae/internal/settings"
	"macae/internal/team"
)

const teamYAML = `
name: Retail Customer Success Team
agents:
  - name: CustomerDataAgent
    use_fabric: true
    workspace_id: ws1
    artifact_id: art1
    fabric_connection_id: conn1
  - name: OrderDataAgent
    use_search: true
  - name: AnalysisRecommendationAgent
    use_mcp: true
    use_fabric: true
    workspace_id: ws2
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(settings.DatabaseURL, "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTeam(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "team.yaml")
	require.NoError(t, os.WriteFile(p, []byte(teamYAML), 0o600))
	return p
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"ingest"}, {"report"}, {"summary"}, {"tables"},
		{"files", "check"}, {"files", "fetch"},
		{"db", "init"}, {"db", "runs"},
		{"config", "check"},
		{"agent", "list"}, {"agent", "fabric-url"},
		{"mcp", "serve"}, {"mcp", "tools"},
	} {
		c, rest, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Empty(t, rest)
		assert.Equal(t, path[len(path)-1], c.Name())
	}
	for _, f := range []string{"dsn", "env-file", "log-level", "log-format"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(f), f)
	}
}

func TestReportList(t *testing.T) {
	out, err := run(t, "report", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "churn-reasons")
	assert.Contains(t, out, "Loyalty Benefit Engagement by Tier")
}

func TestReportUnknown(t *testing.T) {
	_, err := run(t, "report", "revenue")
	assert.ErrorContains(t, err, `unknown report "revenue"`)
}

func TestStoreCommandsNeedDSN(t *testing.T) {
	for _, args := range [][]string{{"tables"}, {"summary"}, {"db", "runs"}, {"ingest"}} {
		_, err := run(t, args...)
		assert.ErrorContains(t, err, "missing --dsn", args)
	}
}

func TestInvalidLogFormat(t *testing.T) {
	_, err := run(t, "--log-format", "xml", "report", "--list")
	assert.ErrorContains(t, err, "text or json")
}

func TestAgentFabricURL(t *testing.T) {
	p := writeTeam(t)

	out, err := run(t, "agent", "fabric-url", "--team", p, "--agent", "CustomerDataAgent")
	require.NoError(t, err)
	assert.Equal(t, "https://api.fabric.microsoft.com/v1/workspaces/ws1/aiskills/art1/aiassistant/openai\n", out)

	_, err = run(t, "agent", "fabric-url", "--team", p, "--agent", "OrderDataAgent")
	assert.ErrorContains(t, err, "does not use Fabric")

	_, err = run(t, "agent", "fabric-url", "--team", p, "--agent", "AnalysisRecommendationAgent")
	assert.True(t, errors.Is(err, integrations.ErrConfiguration))
	assert.ErrorContains(t, err, "missing required fields: artifact_id, fabric_connection_id")

	_, err = run(t, "agent", "fabric-url", "--team", p, "--agent", "Nobody")
	assert.ErrorContains(t, err, `agent "Nobody" not found`)
}

func TestAgentList(t *testing.T) {
	out, err := run(t, "agent", "list", "--team", writeTeam(t))
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "OrderDataAgent"`)
}

func TestCheckEnv(t *testing.T) {
	var buf bytes.Buffer
	err := checkEnv(&buf, settings.Map{
		settings.SearchConnectionName: "conn",
		settings.SearchEndpoint:       "https://search.example.net",
		settings.SearchIndexName:      "retail",
	})
	require.Error(t, err)
	var cfgErr *integrations.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "MCPConfig", cfgErr.Config)
	assert.Equal(t, "MCPConfig: error\nSearchConfig: ok\n  (no API key, credential auth)\n", buf.String())
}

func TestCheckTeam(t *testing.T) {
	tm, err := team.Load([]byte(teamYAML))
	require.NoError(t, err)

	var buf bytes.Buffer
	err = checkTeam(&buf, tm, settings.Map{
		settings.MCPServerEndpoint:    "https://mcp.example.net/mcp",
		settings.MCPServerName:        "retail",
		settings.MCPServerDescription: "retail tools",
		settings.AzureTenantID:        "tenant",
		settings.AzureClientID:        "client",
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "SearchConfig")
	assert.ErrorContains(t, err, "AnalysisRecommendationAgent")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 4)
	assert.Regexp(t, `^CustomerDataAgent\s+-\s+-\s+ok\s+ok$`, string(lines[1]))
	assert.Regexp(t, `^OrderDataAgent\s+-\s+missing\s+-\s+error$`, string(lines[2]))
	assert.Regexp(t, `^AnalysisRecommendationAgent\s+ok\s+-\s+missing\s+error$`, string(lines[3]))
}

func TestFilesCheck(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "store_visit_history.csv"), []byte("VisitID\nV1\n"), 0o600))

	out, err := run(t, "files", "check", "--files", dir)
	require.Error(t, err)
	assert.ErrorContains(t, err, "customer_service_interactions.json")
	assert.Contains(t, out, filepath.Join(dir, "store_visit_history.csv"))
}
