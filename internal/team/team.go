package team

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"macae/internal/integrations"
	"macae/internal/settings"
)

// Team is an agent team definition.
type Team struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Agents      []Agent `yaml:"agents" json:"agents"`
}

// Agent is one member of a team. Integration flags default to false and
// identifiers to "" when omitted.
type Agent struct {
	Name               string `yaml:"name" json:"name"`
	Description        string `yaml:"description,omitempty" json:"description,omitempty"`
	SystemMessage      string `yaml:"system_message,omitempty" json:"system_message,omitempty"`
	UseMCP             bool   `yaml:"use_mcp,omitempty" json:"use_mcp,omitempty"`
	UseSearch          bool   `yaml:"use_search,omitempty" json:"use_search,omitempty"`
	UseFabric          bool   `yaml:"use_fabric,omitempty" json:"use_fabric,omitempty"`
	WorkspaceID        string `yaml:"workspace_id,omitempty" json:"workspace_id,omitempty"`
	ArtifactID         string `yaml:"artifact_id,omitempty" json:"artifact_id,omitempty"`
	FabricConnectionID string `yaml:"fabric_connection_id,omitempty" json:"fabric_connection_id,omitempty"`
}

func (a Agent) FabricSource() integrations.FabricSource {
	return integrations.FabricSource{
		Name:               a.Name,
		UseFabric:          a.UseFabric,
		WorkspaceID:        a.WorkspaceID,
		ArtifactID:         a.ArtifactID,
		FabricConnectionID: a.FabricConnectionID,
	}
}

// LoadFile reads and validates a team YAML file.
func LoadFile(path string) (*Team, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(b)
}

// Load parses a team YAML document. Unknown keys are rejected.
func Load(b []byte) (*Team, error) {
	var t Team
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("yaml parse: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("missing required field: name")
	}
	if len(t.Agents) == 0 {
		return fmt.Errorf("agents must be a non-empty list")
	}
	seen := make(map[string]int, len(t.Agents))
	for i, a := range t.Agents {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("missing required field: agents[%d].name", i)
		}
		if j, ok := seen[a.Name]; ok {
			return fmt.Errorf("agents[%d].name duplicates agents[%d].name (%s)", i, j, a.Name)
		}
		seen[a.Name] = i
	}
	return nil
}

// Agent returns the agent named name.
func (t *Team) Agent(name string) (Agent, bool) {
	for _, a := range t.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return Agent{}, false
}

// Resolution is the set of integration configs built for one agent.
// A nil config means the agent does not use that integration or it failed to build.
type Resolution struct {
	Agent  string                     `json:"agent"`
	MCP    *integrations.MCPConfig    `json:"mcp,omitempty"`
	Search *integrations.SearchConfig `json:"search,omitempty"`
	Fabric *integrations.FabricConfig `json:"fabric,omitempty"`
	Errors []error                    `json:"-"`
}

func (r Resolution) Err() error { return errors.Join(r.Errors...) }

// Resolve builds every agent's integration configs. Environment-sourced configs are
// read from p at most once. The returned error joins every agent's failures.
func (t *Team) Resolve(p settings.Provider) ([]Resolution, error) {
	var (
		mcpOnce, searchOnce bool
		mcpCfg              integrations.MCPConfig
		searchCfg           integrations.SearchConfig
		mcpErr, searchErr   error
	)

	out := make([]Resolution, 0, len(t.Agents))
	var errs []error
	for _, a := range t.Agents {
		r := Resolution{Agent: a.Name}
		if a.UseMCP {
			if !mcpOnce {
				mcpCfg, mcpErr = integrations.MCPConfigFromEnv(p)
				mcpOnce = true
			}
			if mcpErr != nil {
				r.Errors = append(r.Errors, fmt.Errorf("agent %s: %w", a.Name, mcpErr))
			} else {
				c := mcpCfg
				r.MCP = &c
			}
		}
		if a.UseSearch {
			if !searchOnce {
				searchCfg, searchErr = integrations.SearchConfigFromEnv(p)
				searchOnce = true
			}
			if searchErr != nil {
				r.Errors = append(r.Errors, fmt.Errorf("agent %s: %w", a.Name, searchErr))
			} else {
				c := searchCfg
				r.Search = &c
			}
		}
		fc, err := integrations.FabricConfigFromAgent(a.FabricSource())
		if err != nil {
			r.Errors = append(r.Errors, err)
		}
		r.Fabric = fc
		errs = append(errs, r.Errors...)
		out = append(out, r)
	}
	return out, errors.Join(errs...)
}
