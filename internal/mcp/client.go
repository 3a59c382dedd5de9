package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"macae/internal/integrations"
)

type Client struct {
	BaseURL string
	Name    string
	HTTP    *http.Client
}

// NewClient builds a client for the server described by cfg.
func NewClient(cfg integrations.MCPConfig) *Client {
	return &Client{
		BaseURL: cfg.URL,
		Name:    cfg.Name,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// ServerInfo is the identity returned by initialize.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (c *Client) Initialize(ctx context.Context) (ServerInfo, error) {
	var out struct {
		Server ServerInfo `json:"server"`
	}
	if err := c.do(ctx, "initialize", nil, &out); err != nil {
		return ServerInfo{}, err
	}
	return out.Server, nil
}

func (c *Client) ToolsList(ctx context.Context) ([]Tool, error) {
	var out struct {
		Tools []Tool `json:"tools"`
	}
	if err := c.do(ctx, "tools/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Tools, nil
}

// CallTool invokes a tool and decodes its result into out when out is non-nil.
func (c *Client) CallTool(ctx context.Context, name string, args any, out any) error {
	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	return c.do(ctx, "tools/call", params, out)
}

func (c *Client) do(ctx context.Context, method string, params any, out any) error {
	req := map[string]any{"jsonrpc": "2.0", "id": uuid.NewString(), "method": method}
	if params != nil {
		req["params"] = params
	}
	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := c.call(ctx, req, &resp); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%s: %w", method, resp.Error)
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}

func (c *Client) call(ctx context.Context, req any, out any) error {
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(b))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.Name != "" {
		httpReq.Header.Set("User-Agent", c.Name)
	}
	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("http %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
