// Copyright (c) Microsoft. All rights reserved.

package mcp

import (
	"context"
	"log/slog"
	"net/http"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server is an MCP server whose tools return plain text.
type Server struct {
	server *sdk.Server
	logger *slog.Logger
}

// NewServer creates a server announcing itself as name/version.
func NewServer(name, version string) *Server {
	return &Server{
		server: sdk.NewServer(&sdk.Implementation{Name: name, Version: version}, nil),
		logger: slog.Default(),
	}
}

// AddTool registers a tool. The input schema is inferred from In: exported
// fields with json tags become properties, fields without omitempty are
// required, and a jsonschema tag sets the property description. An error from
// fn is reported to the caller as a tool error result.
func AddTool[In any](s *Server, name, description string, fn func(ctx context.Context, in In) (string, error)) {
	sdk.AddTool(s.server, &sdk.Tool{Name: name, Description: description},
		func(ctx context.Context, req *sdk.CallToolRequest, in In) (*sdk.CallToolResult, any, error) {
			text, err := fn(ctx, in)
			if err != nil {
				s.logger.WarnContext(ctx, "mcp tool failed", "tool", name, "error", err)
				return &sdk.CallToolResult{
					IsError: true,
					Content: []sdk.Content{&sdk.TextContent{Text: err.Error()}},
				}, nil, nil
			}
			s.logger.DebugContext(ctx, "mcp tool called", "tool", name)
			return &sdk.CallToolResult{
				Content: []sdk.Content{&sdk.TextContent{Text: text}},
			}, nil, nil
		})
}

// Handler returns the streamable HTTP handler serving this server.
func (s *Server) Handler() http.Handler {
	return sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server { return s.server }, nil)
}
