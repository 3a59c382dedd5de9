package integrations

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macae/internal/settings"
)

func mcpSettings() settings.Map {
	return settings.Map{
		settings.MCPServerEndpoint:    "https://mcp.example.com/mcp",
		settings.MCPServerName:        "MacaeMcpServer",
		settings.MCPServerDescription: "Retail tools",
		settings.AzureTenantID:        "tenant-1",
		settings.AzureClientID:        "client-1",
	}
}

func searchSettings() settings.Map {
	return settings.Map{
		settings.SearchConnectionName: "search-conn",
		settings.SearchIndexName:      "retail-index",
		settings.SearchEndpoint:       "https://search.example.com",
	}
}

func TestMCPConfigFromEnv(t *testing.T) {
	cfg, err := MCPConfigFromEnv(mcpSettings())
	require.NoError(t, err)
	assert.Equal(t, MCPConfig{
		URL:         "https://mcp.example.com/mcp",
		Name:        "MacaeMcpServer",
		Description: "Retail tools",
		TenantID:    "tenant-1",
		ClientID:    "client-1",
	}, cfg)
}

func TestMCPConfigFromEnv_EachFieldRequired(t *testing.T) {
	for key := range mcpSettings() {
		t.Run(key, func(t *testing.T) {
			m := mcpSettings()
			delete(m, key)

			cfg, err := MCPConfigFromEnv(m)
			require.Error(t, err)
			assert.Equal(t, MCPConfig{}, cfg)

			var cerr *ConfigurationError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, "MCPConfig", cerr.Config)
			assert.Equal(t, []string{key}, cerr.Missing)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Contains(t, err.Error(), "MCPConfig")
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestMCPConfigFromEnv_AllMissing(t *testing.T) {
	_, err := MCPConfigFromEnv(settings.Map{})
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Len(t, cerr.Missing, 5)
}

func TestSearchConfigFromEnv(t *testing.T) {
	t.Run("without api key", func(t *testing.T) {
		cfg, err := SearchConfigFromEnv(searchSettings())
		require.NoError(t, err)
		assert.Equal(t, "search-conn", cfg.ConnectionName)
		assert.Equal(t, "retail-index", cfg.IndexName)
		assert.Equal(t, "https://search.example.com", cfg.Endpoint)
		assert.Equal(t, "", cfg.APIKey)
		assert.False(t, cfg.HasAPIKey())
	})

	t.Run("with api key", func(t *testing.T) {
		m := searchSettings()
		m[settings.SearchAPIKey] = "secret"
		cfg, err := SearchConfigFromEnv(m)
		require.NoError(t, err)
		assert.Equal(t, "secret", cfg.APIKey)
		assert.True(t, cfg.HasAPIKey())
	})

	for key := range searchSettings() {
		t.Run("missing "+key, func(t *testing.T) {
			m := searchSettings()
			m[settings.SearchAPIKey] = "secret"
			m[key] = ""

			_, err := SearchConfigFromEnv(m)
			var cerr *ConfigurationError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, "SearchConfig", cerr.Config)
			assert.Equal(t, []string{key}, cerr.Missing)
		})
	}
}

func TestFabricConfigFromAgent(t *testing.T) {
	t.Run("disabled yields no configuration", func(t *testing.T) {
		cfg, err := FabricConfigFromAgent(FabricSource{Name: "ChatAgent"})
		assert.NoError(t, err)
		assert.Nil(t, cfg)

		cfg, err = FabricConfigFromAgent(FabricSource{
			Name:               "ChatAgent",
			WorkspaceID:        "ws1",
			ArtifactID:         "art1",
			FabricConnectionID: "conn1",
		})
		assert.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("enabled with all fields", func(t *testing.T) {
		cfg, err := FabricConfigFromAgent(FabricSource{
			Name:               "CustomerDataAgent",
			UseFabric:          true,
			WorkspaceID:        "ws1",
			ArtifactID:         "art1",
			FabricConnectionID: "conn1",
		})
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, FabricConfig{
			FabricConnectionID: "conn1",
			WorkspaceID:        "ws1",
			ArtifactID:         "art1",
			EndpointURL:        DefaultFabricEndpointURL,
		}, *cfg)
	})

	t.Run("enabled with missing fields", func(t *testing.T) {
		cfg, err := FabricConfigFromAgent(FabricSource{
			Name:        "CustomerDataAgent",
			UseFabric:   true,
			WorkspaceID: "ws1",
		})
		assert.Nil(t, cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Contains(t, err.Error(), "CustomerDataAgent")
		assert.Contains(t, err.Error(), "artifact_id")
		assert.Contains(t, err.Error(), "fabric_connection_id")
		assert.NotContains(t, err.Error(), "workspace_id")

		var cerr *ConfigurationError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "CustomerDataAgent", cerr.Owner)
		assert.Equal(t, []string{"artifact_id", "fabric_connection_id"}, cerr.Missing)
	})
}

func TestFabricConfig_FullEndpointURL(t *testing.T) {
	cfg := &FabricConfig{WorkspaceID: "ws1", ArtifactID: "art1", EndpointURL: DefaultFabricEndpointURL}
	want := "https://api.fabric.microsoft.com/v1/workspaces/ws1/aiskills/art1/aiassistant/openai"
	assert.Equal(t, want, cfg.FullEndpointURL())
	assert.Equal(t, cfg.FullEndpointURL(), cfg.FullEndpointURL())

	custom := &FabricConfig{WorkspaceID: "w", ArtifactID: "a", EndpointURL: "https://fabric.test/v2"}
	assert.Equal(t, "https://fabric.test/v2/workspaces/w/aiskills/a/aiassistant/openai", custom.FullEndpointURL())
}

func TestConfigurationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	mcpKeys := []string{
		settings.MCPServerEndpoint,
		settings.MCPServerName,
		settings.MCPServerDescription,
		settings.AzureTenantID,
		settings.AzureClientID,
	}

	properties.Property("populated MCP settings are returned verbatim", prop.ForAll(
		func(url, name, desc, tenant, client string) bool {
			cfg, err := MCPConfigFromEnv(settings.Map{
				settings.MCPServerEndpoint:    url,
				settings.MCPServerName:        name,
				settings.MCPServerDescription: desc,
				settings.AzureTenantID:        tenant,
				settings.AzureClientID:        client,
			})
			return err == nil && cfg == MCPConfig{URL: url, Name: name, Description: desc, TenantID: tenant, ClientID: client}
		},
		gen.Identifier(), gen.Identifier(), gen.Identifier(), gen.Identifier(), gen.Identifier(),
	))

	properties.Property("omitting any single MCP setting fails", prop.ForAll(
		func(value string, omit int) bool {
			m := settings.Map{}
			for _, k := range mcpKeys {
				m[k] = value
			}
			delete(m, mcpKeys[omit])
			_, err := MCPConfigFromEnv(m)
			return errors.Is(err, ErrConfiguration)
		},
		gen.Identifier(), gen.IntRange(0, len(mcpKeys)-1),
	))

	properties.Property("disabled fabric agents never yield a config", prop.ForAll(
		func(ws, art, conn string) bool {
			cfg, err := FabricConfigFromAgent(FabricSource{Name: "a", WorkspaceID: ws, ArtifactID: art, FabricConnectionID: conn})
			return cfg == nil && err == nil
		},
		gen.AlphaString(), gen.AlphaString(), gen.AlphaString(),
	))

	properties.Property("enabled fabric agents fail exactly when an identifier is empty", prop.ForAll(
		func(ws, art, conn string) bool {
			cfg, err := FabricConfigFromAgent(FabricSource{Name: "a", UseFabric: true, WorkspaceID: ws, ArtifactID: art, FabricConnectionID: conn})
			if ws == "" || art == "" || conn == "" {
				return cfg == nil && errors.Is(err, ErrConfiguration)
			}
			return err == nil && cfg.WorkspaceID == ws && cfg.ArtifactID == art && cfg.FabricConnectionID == conn
		},
		gen.OneGenOf(gen.Const(""), gen.Identifier()),
		gen.OneGenOf(gen.Const(""), gen.Identifier()),
		gen.OneGenOf(gen.Const(""), gen.Identifier()),
	))

	properties.Property("endpoint URL derivation is deterministic", prop.ForAll(
		func(ws, art string) bool {
			cfg := &FabricConfig{WorkspaceID: ws, ArtifactID: art, EndpointURL: DefaultFabricEndpointURL}
			return cfg.FullEndpointURL() == cfg.FullEndpointURL() &&
				cfg.FullEndpointURL() == DefaultFabricEndpointURL+"/workspaces/"+ws+"/aiskills/"+art+"/aiassistant/openai"
		},
		gen.Identifier(), gen.Identifier(),
	))

	properties.TestingRun(t)
}
