package integrations

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration matches every *ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports that a configuration value could not be built because
// required settings are missing. The dependent client must not be constructed.
type ConfigurationError struct {
	Config  string   // variant name, e.g. "MCPConfig"
	Owner   string   // owning agent name, set for FabricConfig only
	Missing []string // names of the empty settings or fields
}

func (e *ConfigurationError) Error() string {
	if e.Config == "FabricConfig" {
		return fmt.Sprintf("agent '%s' has use_fabric=true but missing required fields: %s",
			e.Owner, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: missing required environment variables: %s",
		e.Config, strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// field pairs a setting name with the value read for it.
type field struct {
	name  string
	value string
}

// missing returns the names of the empty fields, in order.
func missing(fields ...field) []string {
	var out []string
	for _, f := range fields {
		if f.value == "" {
			out = append(out, f.name)
		}
	}
	return out
}
