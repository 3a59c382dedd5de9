package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Recognized setting keys.
const (
	MCPServerEndpoint    = "MCP_SERVER_ENDPOINT"
	MCPServerName        = "MCP_SERVER_NAME"
	MCPServerDescription = "MCP_SERVER_DESCRIPTION"
	AzureTenantID        = "AZURE_TENANT_ID"
	AzureClientID        = "AZURE_CLIENT_ID"

	SearchConnectionName = "AZURE_AI_SEARCH_CONNECTION_NAME"
	SearchIndexName      = "AZURE_AI_SEARCH_INDEX_NAME"
	SearchEndpoint       = "AZURE_AI_SEARCH_ENDPOINT"
	SearchAPIKey         = "AZURE_AI_SEARCH_API_KEY"

	DatabaseURL    = "DATABASE_URL"
	LogLevel       = "LOG_LEVEL"
	LogFormat      = "LOG_FORMAT"
	LakehouseFiles = "LAKEHOUSE_FILES_DIR"
)

// Provider is a read-only source of string settings. An unset key reads as "".
type Provider interface {
	Get(key string) string
}

// Env reads settings from the process environment.
type Env struct{}

func (Env) Get(key string) string { return os.Getenv(key) }

// Map is an in-memory Provider.
type Map map[string]string

func (m Map) Get(key string) string { return m[key] }

// GetOr returns the value for key, or def when it is empty.
func GetOr(p Provider, key, def string) string {
	if v := p.Get(key); v != "" {
		return v
	}
	return def
}

// LoadEnvFiles populates the process environment from dotenv files.
// Variables already present in the environment win. With no paths, ".env" in the
// working directory is loaded when it exists.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}
