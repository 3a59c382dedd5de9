package integrations

import "macae/internal/settings"

// MCPConfig holds the settings needed to connect to an MCP server.
type MCPConfig struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TenantID    string `json:"tenant_id"`
	ClientID    string `json:"client_id"`
}

// MCPConfigFromEnv builds an MCPConfig from p. All five settings are required.
func MCPConfigFromEnv(p settings.Provider) (MCPConfig, error) {
	cfg := MCPConfig{
		URL:         p.Get(settings.MCPServerEndpoint),
		Name:        p.Get(settings.MCPServerName),
		Description: p.Get(settings.MCPServerDescription),
		TenantID:    p.Get(settings.AzureTenantID),
		ClientID:    p.Get(settings.AzureClientID),
	}
	if m := missing(
		field{settings.MCPServerEndpoint, cfg.URL},
		field{settings.MCPServerName, cfg.Name},
		field{settings.MCPServerDescription, cfg.Description},
		field{settings.AzureTenantID, cfg.TenantID},
		field{settings.AzureClientID, cfg.ClientID},
	); len(m) > 0 {
		return MCPConfig{}, &ConfigurationError{Config: "MCPConfig", Missing: m}
	}
	return cfg, nil
}
