// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/samples/internal/modelclient"
)

// timeZoneModel asks for Seattle's time zone, then repeats the tool result.
type timeZoneModel struct{}

func (timeZoneModel) Response(context.Context, []af.Message, *af.ChatOptions) (*af.ChatResponse, error) {
	return nil, errors.New("not supported")
}

func (timeZoneModel) StreamResponse(ctx context.Context, msgs []af.Message, _ *af.ChatOptions) (*af.ResponseStream[af.ChatResponseUpdate], error) {
	var result string
	for _, m := range msgs {
		for _, c := range m.Contents {
			if r, ok := c.(*af.FunctionResultContent); ok {
				result, _ = r.Result.(string)
			}
		}
	}
	return af.NewResponseStream(ctx, func(ctx context.Context, ch chan<- af.ChatResponseUpdate) error {
		if result == "" {
			ch <- af.ChatResponseUpdate{
				Role:         af.RoleAssistant,
				Contents:     af.Contents{&af.FunctionCallContent{CallID: "tz", Name: "get_time_zone", Arguments: `{"location":"Seattle"}`}},
				FinishReason: af.FinishReasonToolCalls,
			}
			return nil
		}
		ch <- af.ChatResponseUpdate{Role: af.RoleAssistant, Contents: af.Contents{&af.TextContent{Text: "Seattle uses " + result}}}
		return nil
	}), nil
}

func TestHandler_RunsServerTool(t *testing.T) {
	h := newHandler(&modelclient.Model{Client: timeZoneModel{}}, slog.Default())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/",
		strings.NewReader(`{"threadId":"t1","runId":"r1","messages":[{"id":"m1","role":"user","content":"Time zone of Seattle?"}]}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `"type":"RUN_STARTED"`)
	assert.Contains(t, body, `"toolCallName":"get_time_zone"`)
	assert.Contains(t, body, `"type":"TOOL_CALL_RESULT"`)
	assert.Contains(t, body, "Seattle uses Pacific Time")
	assert.Contains(t, body, `"type":"RUN_FINISHED"`)
}

func TestHandler_RejectsGet(t *testing.T) {
	h := newHandler(&modelclient.Model{Client: timeZoneModel{}}, slog.Default())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
