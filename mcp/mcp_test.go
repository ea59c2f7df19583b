// Copyright (c) Microsoft. All rights reserved.

package mcp_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/mcp"
)

type cityArgs struct {
	City string `json:"city" jsonschema:"the city name"`
}

func newWeatherServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := mcp.NewServer("Weather", "1.0.0")
	mcp.AddTool(s, "get_weather", "Get the weather for a city",
		func(ctx context.Context, in cityArgs) (string, error) {
			if in.City == "Atlantis" {
				return "", errors.New("unknown city")
			}
			return "Sunny in " + in.City, nil
		})
	mcp.AddTool(s, "list_cities", "List supported cities",
		func(ctx context.Context, in struct{}) (string, error) {
			return "Seattle, Berlin", nil
		})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func connect(t *testing.T, url string, opts ...mcp.Option) *mcp.StreamableHTTPTool {
	t.Helper()
	tool := mcp.NewStreamableHTTPTool("Weather", url, opts...)
	require.NoError(t, tool.Connect(context.Background()))
	t.Cleanup(func() { _ = tool.Close() })
	return tool
}

func toolNamed(tools []af.Tool, name string) af.Tool {
	for _, tl := range tools {
		if tl.Name() == name {
			return tl
		}
	}
	return nil
}

func TestStreamableHTTPTool_ListsTools(t *testing.T) {
	srv := newWeatherServer(t)
	tool := connect(t, srv.URL)

	tools := tool.Tools()
	require.Len(t, tools, 2)

	weather := toolNamed(tools, "get_weather")
	require.NotNil(t, weather)
	assert.Equal(t, "Get the weather for a city", weather.Description())

	var schema map[string]any
	require.NoError(t, json.Unmarshal(weather.Parameters(), &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Contains(t, schema["properties"], "city")
}

func TestStreamableHTTPTool_Invoke(t *testing.T) {
	srv := newWeatherServer(t)
	tool := connect(t, srv.URL, mcp.WithTimeout(5*time.Second))

	weather := toolNamed(tool.Tools(), "get_weather")
	require.NotNil(t, weather)

	out, err := weather.Invoke(context.Background(), json.RawMessage(`{"city":"Seattle"}`))
	require.NoError(t, err)
	assert.Equal(t, "Sunny in Seattle", out)
}

func TestStreamableHTTPTool_ToolErrorResult(t *testing.T) {
	srv := newWeatherServer(t)
	tool := connect(t, srv.URL)

	weather := toolNamed(tool.Tools(), "get_weather")
	_, err := weather.Invoke(context.Background(), json.RawMessage(`{"city":"Atlantis"}`))
	require.Error(t, err)

	var toolErr *af.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "get_weather", toolErr.ToolName)
	assert.Contains(t, toolErr.Message, "unknown city")
	assert.ErrorIs(t, err, af.ErrToolExecution)
}

func TestStreamableHTTPTool_AllowedTools(t *testing.T) {
	srv := newWeatherServer(t)
	tool := connect(t, srv.URL, mcp.WithAllowedTools("list_cities"))

	tools := tool.Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, "list_cities", tools[0].Name())
}

func TestStreamableHTTPTool_SendsHeaders(t *testing.T) {
	s := mcp.NewServer("Echo", "1.0.0")
	mcp.AddTool(s, "noop", "Does nothing", func(ctx context.Context, in struct{}) (string, error) { return "ok", nil })
	handler := s.Handler()

	var sawKey atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") == "secret" {
			sawKey.Store(true)
		}
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	connect(t, srv.URL, mcp.WithHeader("X-Api-Key", "secret"))
	assert.True(t, sawKey.Load())
}

func TestStreamableHTTPTool_ConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tool := mcp.NewStreamableHTTPTool("User", url, mcp.WithTimeout(2*time.Second))
	err := tool.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, mcp.ErrConnect)
	assert.Empty(t, tool.Tools())
}

func TestStreamableHTTPTool_CloseIsIdempotent(t *testing.T) {
	srv := newWeatherServer(t)
	tool := mcp.NewStreamableHTTPTool("Weather", srv.URL)
	require.NoError(t, tool.Connect(context.Background()))
	assert.NoError(t, tool.Close())
	assert.NoError(t, tool.Close())
	assert.Empty(t, tool.Tools())
}
