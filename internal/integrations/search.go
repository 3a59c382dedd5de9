package integrations

import "macae/internal/settings"

// SearchConfig holds the settings needed to query an AI search index.
// APIKey is optional; an empty key means the connection's own credentials are used.
type SearchConfig struct {
	ConnectionName string `json:"connection_name"`
	Endpoint       string `json:"endpoint"`
	IndexName      string `json:"index_name"`
	APIKey         string `json:"-"`
}

func SearchConfigFromEnv(p settings.Provider) (SearchConfig, error) {
	cfg := SearchConfig{
		ConnectionName: p.Get(settings.SearchConnectionName),
		IndexName:      p.Get(settings.SearchIndexName),
		Endpoint:       p.Get(settings.SearchEndpoint),
		APIKey:         p.Get(settings.SearchAPIKey),
	}
	if m := missing(
		field{settings.SearchConnectionName, cfg.ConnectionName},
		field{settings.SearchIndexName, cfg.IndexName},
		field{settings.SearchEndpoint, cfg.Endpoint},
	); len(m) > 0 {
		return SearchConfig{}, &ConfigurationError{Config: "SearchConfig", Missing: m}
	}
	return cfg, nil
}

// HasAPIKey reports whether key-based auth is configured.
func (c SearchConfig) HasAPIKey() bool { return c.APIKey != "" }
