package toolprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"goa.design/conductor/tools"
)

// ProtocolVersion is the MCP protocol version sent during initialize.
const ProtocolVersion = "2024-11-05"

type (
	// RemoteOptions configures a remote tool server client.
	RemoteOptions struct {
		// Name identifies the server in logs and errors.
		Name string
		// Endpoint is the JSON-RPC HTTP endpoint.
		Endpoint string
		// Client overrides the default HTTP client.
		Client *http.Client
		// CacheTTL bounds how long the tools/list result is reused.
		// Zero selects five minutes.
		CacheTTL time.Duration
	}

	// Remote lists and calls tools on an MCP-style JSON-RPC tool server.
	Remote struct {
		name     string
		endpoint string
		client   *http.Client
		ttl      time.Duration
		id       uint64

		mu       sync.Mutex
		cached   []tools.Tool
		fetched  time.Time
		now      func() time.Time
		initOnce sync.Once
		initErr  error
	}

	rpcRequest struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		ID      uint64 `json:"id"`
		Params  any    `json:"params"`
	}

	rpcResponse struct {
		JSONRPC string          `json:"jsonrpc"`
		Result  json.RawMessage `json:"result"`
		Error   *rpcError       `json:"error"`
		ID      uint64          `json:"id"`
	}

	rpcError struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}

	toolsListResult struct {
		Tools []struct {
			Name        string          `json:"name"`
			Description string          `json:"description"`
			InputSchema json.RawMessage `json:"inputSchema"`
		} `json:"tools"`
	}

	toolsCallResult struct {
		Content []contentItem `json:"content"`
		IsError bool          `json:"isError"`
	}

	contentItem struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	}
)

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewRemote builds a remote tool server client. The initialize handshake is
// performed lazily on first use.
func NewRemote(opts RemoteOptions) (*Remote, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("remote tool server endpoint is required")
	}
	name := opts.Name
	if name == "" {
		name = opts.Endpoint
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Remote{
		name:     name,
		endpoint: opts.Endpoint,
		client:   client,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Tools lists the server's tools, caching the result for the configured TTL.
// Each returned tool proxies its invocations back to the server.
func (r *Remote) Tools(ctx context.Context) ([]tools.Tool, error) {
	if err := r.initialize(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	if r.cached != nil && r.now().Sub(r.fetched) < r.ttl {
		cached := r.cached
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	var listed toolsListResult
	if err := r.call(ctx, "tools/list", map[string]any{}, &listed); err != nil {
		return nil, fmt.Errorf("tool server %s: list tools: %w", r.name, err)
	}
	set := make([]tools.Tool, 0, len(listed.Tools))
	for _, def := range listed.Tools {
		name := def.Name
		set = append(set, tools.Tool{
			Name:        name,
			Description: def.Description,
			InputSchema: def.InputSchema,
			Invoke: func(ctx context.Context, args json.RawMessage) (any, error) {
				return r.callTool(ctx, name, args)
			},
		})
	}
	r.mu.Lock()
	r.cached = set
	r.fetched = r.now()
	r.mu.Unlock()
	return set, nil
}

func (r *Remote) initialize(ctx context.Context) error {
	r.initOnce.Do(func() {
		payload := map[string]any{
			"protocolVersion": ProtocolVersion,
			"clientInfo": map[string]any{
				"name":    "conductor",
				"version": "dev",
			},
		}
		if err := r.call(ctx, "initialize", payload, nil); err != nil {
			r.initErr = fmt.Errorf("tool server %s: initialize: %w", r.name, err)
		}
	})
	return r.initErr
}

// callTool invokes tools/call and normalizes the first content item: JSON
// text decodes to its value, anything else is returned as a string.
func (r *Remote) callTool(ctx context.Context, tool string, args json.RawMessage) (any, error) {
	params := map[string]any{
		"name":      tool,
		"arguments": args,
	}
	var result toolsCallResult
	if err := r.call(ctx, "tools/call", params, &result); err != nil {
		return nil, fmt.Errorf("tool server %s: call %s: %w", r.name, tool, err)
	}
	if len(result.Content) == 0 {
		return nil, fmt.Errorf("tool server %s: tool %s returned no content", r.name, tool)
	}
	item := result.Content[0]
	text := ""
	if item.Text != nil {
		text = *item.Text
	}
	if result.IsError {
		return tools.Fail("%s", text), nil
	}
	if json.Valid([]byte(text)) {
		var value any
		if err := json.Unmarshal([]byte(text), &value); err == nil {
			return value, nil
		}
	}
	return text, nil
}

func (r *Remote) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		ID:      atomic.AddUint64(&r.id, 1),
		Params:  params,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rpc status %d", resp.StatusCode)
	}
	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return err
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil && rpcResp.Result != nil {
		return json.Unmarshal(rpcResp.Result, result)
	}
	return nil
}
