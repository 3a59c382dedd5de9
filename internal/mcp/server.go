package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"macae/internal/store"
)

// Minimal JSON-RPC 2.0 handler that supports:
// - initialize
// - tools/list
// - tools/call
//
// Tools expose the lakehouse tables, the fixed reports and the Fabric endpoint
// derivation to agents that speak MCP over plain HTTP.

// Lakehouse is the read side of the table store used by the tools.
type Lakehouse interface {
	Query(ctx context.Context, sql string, args ...any) (*store.Result, error)
	CountRows(ctx context.Context, table string) (int64, error)
	ListTables(ctx context.Context) ([]string, error)
}

type ServerOptions struct {
	Name      string
	Lakehouse Lakehouse // optional; lakehouse tools fail without it
	Log       logrus.FieldLogger
}

type Server struct {
	name      string
	lakehouse Lakehouse
	log       logrus.FieldLogger
	tools     []Tool
}

type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

func NewServer(opts ServerOptions) *Server {
	name := opts.Name
	if name == "" {
		name = "macae"
	}
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	tools := []Tool{
		{
			Name:        "lakehouse.tables",
			Description: "List lakehouse tables with their row counts.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
		},
		{
			Name:        "lakehouse.report",
			Description: "Run one of the fixed lakehouse reports by name.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`),
		},
		{
			Name:        "fabric.endpoint",
			Description: "Derive the Fabric data agent endpoint for a workspace and artifact.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"workspace_id":{"type":"string"},"artifact_id":{"type":"string"},"fabric_connection_id":{"type":"string"}},"required":["workspace_id","artifact_id","fabric_connection_id"]}`),
		},
		{
			Name:        "team.validate",
			Description: "Validate a team configuration (YAML or JSON).",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"config_yaml":{"type":"string"}},"required":["config_yaml"]}`),
		},
	}
	return &Server{name: name, lakehouse: opts.Lakehouse, log: log, tools: tools}
}

// Tools returns the advertised tool list.
func (s *Server) Tools() []Tool { return s.tools }

type rpcReq struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResp struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

const (
	codeParse          = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req rpcReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, rpcResp{JSONRPC: "2.0", ID: nil, Error: &RPCError{Code: codeParse, Message: "invalid JSON"}})
		return
	}
	log := s.log.WithField("method", req.Method)

	switch req.Method {
	case "initialize":
		writeJSON(w, rpcResp{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{
			"server": map[string]any{
				"name":    s.name,
				"version": "0.1",
			},
			"capabilities": map[string]any{
				"tools": true,
			},
			"time": time.Now().UTC().Format(time.RFC3339),
		}})
		return

	case "tools/list":
		writeJSON(w, rpcResp{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{"tools": s.tools}})
		return

	case "tools/call":
		var p struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal(req.Params, &p); err != nil || p.Name == "" {
			writeJSON(w, rpcResp{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: codeInvalidParams, Message: "invalid params"}})
			return
		}

		log = log.WithField("tool", p.Name)
		res, err := s.callTool(r.Context(), p.Name, p.Arguments)
		if err != nil {
			log.WithError(err).Warn("tool call failed")
			writeJSON(w, rpcResp{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: codeToolFailed, Message: err.Error()}})
			return
		}
		log.Debug("tool call")
		writeJSON(w, rpcResp{JSONRPC: "2.0", ID: req.ID, Result: res})
		return
	default:
		writeJSON(w, rpcResp{JSONRPC: "2.0", ID: req.ID, Error: &RPCError{Code: codeMethodNotFound, Message: "method not found"}})
		return
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
