package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"macae/internal/integrations"
	"macae/internal/lakehouse"
	"macae/internal/store"
	"macae/internal/team"
)

var errNoLakehouse = errors.New("lakehouse is not configured")

// ReportOutput is the result of the lakehouse.report tool.
type ReportOutput struct {
	Name    string     `json:"name"`
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// EndpointOutput is the result of the fabric.endpoint tool.
type EndpointOutput struct {
	EndpointURL     string `json:"endpoint_url"`
	FullEndpointURL string `json:"full_endpoint_url"`
}

// TeamOutput is the result of the team.validate tool.
type TeamOutput struct {
	Name   string   `json:"name"`
	Agents []string `json:"agents"`
}

func (s *Server) callTool(ctx context.Context, name string, args json.RawMessage) (any, error) {
	switch name {
	case "lakehouse.tables":
		if s.lakehouse == nil {
			return nil, errNoLakehouse
		}
		tables, err := s.lakehouse.ListTables(ctx)
		if err != nil {
			return nil, err
		}
		counts, err := lakehouse.Summarize(ctx, s.lakehouse, tables)
		if err != nil {
			return nil, err
		}
		return map[string][]store.TableCount{"tables": counts}, nil

	case "lakehouse.report":
		var in struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(args, &in); err != nil || in.Name == "" {
			return nil, fmt.Errorf("missing name")
		}
		r, ok := lakehouse.FindReport(in.Name)
		if !ok {
			return nil, fmt.Errorf("unknown report: %s", in.Name)
		}
		if s.lakehouse == nil {
			return nil, errNoLakehouse
		}
		res, err := s.lakehouse.Query(ctx, r.SQL)
		if err != nil {
			return nil, err
		}
		return ReportOutput{Name: r.Name, Title: r.Title, Columns: res.Columns, Rows: lakehouse.StringRows(res)}, nil

	case "fabric.endpoint":
		var in struct {
			WorkspaceID        string `json:"workspace_id"`
			ArtifactID         string `json:"artifact_id"`
			FabricConnectionID string `json:"fabric_connection_id"`
		}
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		cfg, err := integrations.FabricConfigFromAgent(integrations.FabricSource{
			Name:               "mcp",
			UseFabric:          true,
			WorkspaceID:        in.WorkspaceID,
			ArtifactID:         in.ArtifactID,
			FabricConnectionID: in.FabricConnectionID,
		})
		if err != nil {
			return nil, err
		}
		return EndpointOutput{EndpointURL: cfg.EndpointURL, FullEndpointURL: cfg.FullEndpointURL()}, nil

	case "team.validate":
		var in struct {
			ConfigYAML string `json:"config_yaml"`
		}
		if err := json.Unmarshal(args, &in); err != nil || in.ConfigYAML == "" {
			return nil, fmt.Errorf("missing config_yaml")
		}
		t, err := team.Load([]byte(in.ConfigYAML))
		if err != nil {
			return nil, err
		}
		out := TeamOutput{Name: t.Name}
		for _, a := range t.Agents {
			out.Agents = append(out.Agents, a.Name)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}
