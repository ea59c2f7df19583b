// Copyright (c) Microsoft. All rights reserved.

// Package mcp connects agents to Model Context Protocol servers and hosts
// small MCP servers, using the official MCP Go SDK.
//
// A [StreamableHTTPTool] talks to a remote server over the streamable HTTP
// transport and exposes each remote tool as an [agentframework.Tool]:
//
//	weather := mcp.NewStreamableHTTPTool("Weather", "http://localhost:8001/mcp")
//	if err := weather.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer weather.Close()
//	agent := agentframework.NewAgent(client, agentframework.WithTools(weather.Tools()...))
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// ErrConnect is returned when the MCP server cannot be reached or the
// session cannot be initialized.
var ErrConnect = errors.New("mcp: connect")

// ErrNotConnected is returned when tools are used before [StreamableHTTPTool.Connect].
var ErrNotConnected = errors.New("mcp: not connected")

const clientVersion = "1.0.0"

type toolConfig struct {
	allowed    map[string]bool
	headers    http.Header
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a [StreamableHTTPTool].
type Option func(*toolConfig)

// WithAllowedTools restricts the exposed tools to the given names.
func WithAllowedTools(names ...string) Option {
	return func(c *toolConfig) {
		if c.allowed == nil {
			c.allowed = make(map[string]bool, len(names))
		}
		for _, n := range names {
			c.allowed[n] = true
		}
	}
}

// WithHeader adds a header to every request sent to the server.
func WithHeader(key, value string) Option {
	return func(c *toolConfig) { c.headers.Add(key, value) }
}

// WithHTTPClient sets the HTTP client used by the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *toolConfig) { c.httpClient = hc }
}

// WithTimeout bounds listing tools and each tool call.
func WithTimeout(d time.Duration) Option {
	return func(c *toolConfig) { c.timeout = d }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *toolConfig) { c.logger = l }
}

// StreamableHTTPTool is a tool source backed by a remote MCP server.
type StreamableHTTPTool struct {
	name string
	url  string
	cfg  toolConfig

	mu      sync.Mutex
	session *sdk.ClientSession
	tools   []af.Tool
}

// NewStreamableHTTPTool creates a tool source for the MCP server at url.
// Name identifies the server in logs and errors.
func NewStreamableHTTPTool(name, url string, opts ...Option) *StreamableHTTPTool {
	cfg := toolConfig{headers: make(http.Header), logger: slog.Default()}
	for _, o := range opts {
		o(&cfg)
	}
	return &StreamableHTTPTool{name: name, url: url, cfg: cfg}
}

// Name returns the server name.
func (t *StreamableHTTPTool) Name() string { return t.name }

// URL returns the server endpoint.
func (t *StreamableHTTPTool) URL() string { return t.url }

// Connect opens the session and loads the server's tool list.
func (t *StreamableHTTPTool) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session != nil {
		return nil
	}

	client := sdk.NewClient(&sdk.Implementation{Name: t.name + "-client", Version: clientVersion}, nil)
	transport := &sdk.StreamableClientTransport{
		Endpoint:   t.url,
		HTTPClient: t.httpClient(),
	}
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("%w: %s at %s: %w", ErrConnect, t.name, t.url, err)
	}

	listCtx, cancel := t.withTimeout(ctx)
	defer cancel()
	tools, err := t.loadTools(listCtx, session)
	if err != nil {
		_ = session.Close()
		return fmt.Errorf("%w: %s: list tools: %w", ErrConnect, t.name, err)
	}

	t.session = session
	t.tools = tools
	t.cfg.logger.DebugContext(ctx, "mcp server connected", "server", t.name, "url", t.url, "tools", len(tools))
	return nil
}

// Tools returns the remote tools as agent tools. It is empty before Connect.
func (t *StreamableHTTPTool) Tools() []af.Tool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]af.Tool(nil), t.tools...)
}

// Close ends the session. It is safe to call more than once.
func (t *StreamableHTTPTool) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return nil
	}
	err := t.session.Close()
	t.session = nil
	t.tools = nil
	return err
}

func (t *StreamableHTTPTool) loadTools(ctx context.Context, session *sdk.ClientSession) ([]af.Tool, error) {
	var out []af.Tool
	params := &sdk.ListToolsParams{}
	for {
		res, err := session.ListTools(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, rt := range res.Tools {
			if t.cfg.allowed != nil && !t.cfg.allowed[rt.Name] {
				continue
			}
			schema, err := inputSchema(rt)
			if err != nil {
				return nil, fmt.Errorf("tool %q: %w", rt.Name, err)
			}
			name := rt.Name
			out = append(out, af.NewTool(name, rt.Description, schema,
				func(ctx context.Context, args json.RawMessage) (any, error) {
					return t.call(ctx, name, args)
				}))
		}
		if res.NextCursor == "" {
			return out, nil
		}
		params = &sdk.ListToolsParams{Cursor: res.NextCursor}
	}
}

func inputSchema(rt *sdk.Tool) (json.RawMessage, error) {
	if rt.InputSchema == nil {
		return json.RawMessage(`{"type":"object","properties":{}}`), nil
	}
	b, err := json.Marshal(rt.InputSchema)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// call runs a remote tool and joins its text content.
func (t *StreamableHTTPTool) call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	t.mu.Lock()
	session := t.session
	t.mu.Unlock()
	if session == nil {
		return nil, &af.ToolError{ToolName: name, Message: ErrNotConnected.Error(), Err: ErrNotConnected}
	}

	arguments := map[string]any{}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &arguments); err != nil {
			return nil, &af.ToolError{ToolName: name, Message: "invalid arguments: " + err.Error(), Err: af.ErrToolExecution}
		}
	}

	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	res, err := session.CallTool(ctx, &sdk.CallToolParams{Name: name, Arguments: arguments})
	if err != nil {
		return nil, &af.ToolError{ToolName: name, Message: err.Error(), Err: fmt.Errorf("%w: %w", af.ErrToolExecution, err)}
	}

	text := resultText(res)
	if res.IsError {
		return nil, &af.ToolError{ToolName: name, Message: text, Err: af.ErrToolExecution}
	}
	return text, nil
}

func resultText(res *sdk.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*sdk.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	if len(parts) == 0 && res.StructuredContent != nil {
		if b, err := json.Marshal(res.StructuredContent); err == nil {
			return string(b)
		}
	}
	return strings.Join(parts, "\n")
}

func (t *StreamableHTTPTool) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.cfg.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, t.cfg.timeout)
}

func (t *StreamableHTTPTool) httpClient() *http.Client {
	base := t.cfg.httpClient
	if base == nil {
		base = http.DefaultClient
	}
	if len(t.cfg.headers) == 0 {
		return base
	}
	hc := *base
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = headerTransport{headers: t.cfg.headers, next: next}
	return &hc
}

type headerTransport struct {
	headers http.Header
	next    http.RoundTripper
}

func (h headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, vs := range h.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return h.next.RoundTrip(req)
}
