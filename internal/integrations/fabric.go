package integrations

import "fmt"

// DefaultFabricEndpointURL is the Fabric REST base used when none is configured.
const DefaultFabricEndpointURL = "https://api.fabric.microsoft.com/v1"

// FabricSource is the part of an agent record that controls the Fabric data agent
// integration. UseFabric defaults to false and the identifiers default to "".
type FabricSource struct {
	Name               string
	UseFabric          bool
	WorkspaceID        string
	ArtifactID         string
	FabricConnectionID string
}

// FabricConfig points an agent at a Fabric data agent (AI skill).
type FabricConfig struct {
	FabricConnectionID string `json:"fabric_connection_id"`
	WorkspaceID        string `json:"workspace_id"`
	ArtifactID         string `json:"artifact_id"`
	EndpointURL        string `json:"endpoint_url"`
}

// FabricConfigFromAgent derives a FabricConfig from an agent record.
//
// It returns nil, nil when the agent does not use Fabric. When UseFabric is set,
// every identifier must be non-empty, otherwise a *ConfigurationError naming the agent
// and the empty fields is returned.
func FabricConfigFromAgent(src FabricSource) (*FabricConfig, error) {
	if !src.UseFabric {
		return nil, nil
	}
	if m := missing(
		field{"workspace_id", src.WorkspaceID},
		field{"artifact_id", src.ArtifactID},
		field{"fabric_connection_id", src.FabricConnectionID},
	); len(m) > 0 {
		return nil, &ConfigurationError{Config: "FabricConfig", Owner: src.Name, Missing: m}
	}
	return &FabricConfig{
		FabricConnectionID: src.FabricConnectionID,
		WorkspaceID:        src.WorkspaceID,
		ArtifactID:         src.ArtifactID,
		EndpointURL:        DefaultFabricEndpointURL,
	}, nil
}

// FullEndpointURL returns the OpenAI-compatible assistant endpoint of the data agent.
func (c *FabricConfig) FullEndpointURL() string {
	return fmt.Sprintf("%s/workspaces/%s/aiskills/%s/aiassistant/openai", c.EndpointURL, c.WorkspaceID, c.ArtifactID)
}
