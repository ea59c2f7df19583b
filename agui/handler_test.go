// Copyright (c) Microsoft. All rights reserved.

package agui

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// streamClient streams one scripted turn per model call and records the
// messages each call received.
type streamClient struct {
	mu    sync.Mutex
	turns [][]af.ChatResponseUpdate
	err   error
	calls [][]af.Message
	tools [][]string
}

func (c *streamClient) Response(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
	return nil, errors.New("not supported")
}

func (c *streamClient) StreamResponse(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ResponseStream[af.ChatResponseUpdate], error) {
	c.mu.Lock()
	n := len(c.calls)
	c.calls = append(c.calls, append([]af.Message(nil), msgs...))
	var names []string
	if opts != nil {
		for _, t := range opts.Tools {
			names = append(names, t.Name())
		}
	}
	c.tools = append(c.tools, names)
	c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	turn := c.turns[min(n, len(c.turns)-1)]
	return af.NewResponseStream(ctx, func(ctx context.Context, ch chan<- af.ChatResponseUpdate) error {
		for _, u := range turn {
			select {
			case ch <- u:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}), nil
}

func textTurn(chunks ...string) []af.ChatResponseUpdate {
	var out []af.ChatResponseUpdate
	for _, c := range chunks {
		out = append(out, af.ChatResponseUpdate{Role: af.RoleAssistant, Contents: af.Contents{&af.TextContent{Text: c}}})
	}
	out = append(out, af.ChatResponseUpdate{Role: af.RoleAssistant, FinishReason: af.FinishReasonStop})
	return out
}

func callTurn(id, name, args string) []af.ChatResponseUpdate {
	return []af.ChatResponseUpdate{{
		Role:         af.RoleAssistant,
		Contents:     af.Contents{&af.FunctionCallContent{CallID: id, Name: name, Arguments: args}},
		FinishReason: af.FinishReasonToolCalls,
	}}
}

func post(t *testing.T, h http.Handler, body string) []Event {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var events []Event
	sc := bufio.NewScanner(rec.Body)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e))
		events = append(events, e)
	}
	return events
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestHandler_TextRun(t *testing.T) {
	client := &streamClient{turns: [][]af.ChatResponseUpdate{textTurn("Hello", " there")}}
	h := NewHandler(af.NewAgent(client, af.WithName("AGUIAssistant")))

	events := post(t, h, `{"threadId":"t1","runId":"r1","messages":[{"id":"u1","role":"user","content":"hi"}]}`)

	assert.Equal(t, []EventType{
		EventRunStarted,
		EventTextMessageStart,
		EventTextMessageContent,
		EventTextMessageContent,
		EventTextMessageEnd,
		EventRunFinished,
	}, types(events))
	assert.Equal(t, "t1", events[0].ThreadID)
	assert.Equal(t, "r1", events[0].RunID)
	assert.Equal(t, "Hello", events[2].Delta)
	assert.Equal(t, events[1].MessageID, events[4].MessageID)
	assert.NotEmpty(t, events[1].MessageID)
}

func TestHandler_ServerToolResultStreamed(t *testing.T) {
	tz := af.NewTypedTool("get_time_zone", "time zone", func(ctx context.Context, a struct {
		Location string `json:"location"`
	}) (any, error) {
		return "Pacific Time (PT), UTC-8", nil
	})
	client := &streamClient{turns: [][]af.ChatResponseUpdate{
		callTurn("c1", "get_time_zone", `{"location":"Seattle"}`),
		textTurn("Seattle is on Pacific Time."),
	}}
	h := NewHandler(af.NewAgent(client, af.WithTools(tz)))

	events := post(t, h, `{"threadId":"t1","runId":"r1","messages":[{"id":"u1","role":"user","content":"time zone of Seattle?"}]}`)

	assert.Equal(t, []EventType{
		EventRunStarted,
		EventToolCallStart,
		EventToolCallArgs,
		EventToolCallEnd,
		EventToolCallResult,
		EventTextMessageStart,
		EventTextMessageContent,
		EventTextMessageEnd,
		EventRunFinished,
	}, types(events))
	assert.Equal(t, "get_time_zone", events[1].ToolCallName)
	assert.Equal(t, `{"location":"Seattle"}`, events[2].Delta)
	assert.Equal(t, "c1", events[4].ToolCallID)
	assert.Equal(t, "Pacific Time (PT), UTC-8", events[4].Content)
}

func TestHandler_ClientToolRoundTrip(t *testing.T) {
	client := &streamClient{turns: [][]af.ChatResponseUpdate{
		callTurn("c1", "get_weather", `{"location":"Paris"}`),
		textTurn("It is sunny in Paris."),
	}}
	h := NewHandler(af.NewAgent(client))

	first := post(t, h, `{
		"threadId":"t1","runId":"r1",
		"messages":[{"id":"u1","role":"user","content":"weather in Paris?"}],
		"tools":[{"name":"get_weather","description":"weather","parameters":{"type":"object","properties":{"location":{"type":"string"}}}}]
	}`)
	assert.Equal(t, []EventType{
		EventRunStarted, EventToolCallStart, EventToolCallArgs, EventToolCallEnd, EventRunFinished,
	}, types(first))
	assert.Equal(t, []string{"get_weather"}, client.tools[0])
	parent := first[1].ParentMessageID

	// The client executed the tool and resends the whole history.
	second := post(t, h, `{
		"threadId":"t1","runId":"r2",
		"messages":[
			{"id":"u1","role":"user","content":"weather in Paris?"},
			{"id":"`+parent+`","role":"assistant","toolCalls":[{"id":"c1","type":"function","function":{"name":"get_weather","arguments":"{\"location\":\"Paris\"}"}}]},
			{"id":"tr1","role":"tool","toolCallId":"c1","content":"sunny"}
		],
		"tools":[{"name":"get_weather","description":"weather"}]
	}`)
	assert.Contains(t, types(second), EventTextMessageContent)

	require.Len(t, client.calls, 2)
	history := client.calls[1]
	var users, calls, results int
	for _, m := range history {
		for _, c := range m.Contents {
			switch c := c.(type) {
			case *af.TextContent:
				if m.Role == af.RoleUser {
					users++
				}
			case *af.FunctionCallContent:
				calls++
			case *af.FunctionResultContent:
				results++
				assert.Equal(t, "c1", c.CallID)
			}
		}
	}
	assert.Equal(t, 1, users, "user message must not be replayed")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, results)
}

func TestHandler_RunError(t *testing.T) {
	client := &streamClient{err: &af.ServiceError{StatusCode: 500, Message: "upstream down", Err: af.ErrService}}
	h := NewHandler(af.NewAgent(client))

	events := post(t, h, `{"threadId":"t1","messages":[{"role":"user","content":"hi"}]}`)
	require.Len(t, events, 2)
	assert.Equal(t, EventRunStarted, events[0].Type)
	assert.NotEmpty(t, events[0].RunID)
	assert.Equal(t, EventRunError, events[1].Type)
	assert.Contains(t, events[1].Message, "upstream down")
}

func TestHandler_RejectsBadRequests(t *testing.T) {
	h := NewHandler(af.NewAgent(&streamClient{}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInputMessage_ContentParts(t *testing.T) {
	m := InputMessage{Role: "developer", Content: json.RawMessage(`[{"type":"text","text":"be "},{"type":"image"},{"type":"text","text":"brief"}]`)}
	msg, ok := m.toMessage()
	require.True(t, ok)
	assert.Equal(t, af.RoleSystem, msg.Role)
	assert.Equal(t, "be brief", msg.Text())
}

func TestHandler_ContextAndThreadSession(t *testing.T) {
	client := &streamClient{turns: [][]af.ChatResponseUpdate{textTurn("ok")}}
	agent := af.NewAgent(client, af.WithInstructions("Be brief."))
	var threads []string
	h := NewHandler(agent, WithSessionFactory(func(threadID string) *af.Session {
		threads = append(threads, threadID)
		return agent.NewSession(af.WithSessionID(threadID))
	}))

	body := `{"threadId":"t9","messages":[{"id":"u1","role":"user","content":"where am I?"}],
		"context":[{"description":"Current page","value":"/weather/berlin"},{"description":"Empty","value":" "}]}`
	post(t, h, body)
	post(t, h, `{"threadId":"t9","messages":[{"id":"u2","role":"user","content":"thanks"}]}`)

	assert.Equal(t, []string{"t9"}, threads)
	assert.Equal(t, "t9", h.threads["t9"].session.ID())

	require.Len(t, client.calls, 2)
	system := client.calls[0][0]
	assert.Equal(t, af.RoleSystem, system.Role)
	assert.Equal(t, "Be brief.\nContext provided by the client application:\n- Current page: /weather/berlin", system.Text())
	assert.Equal(t, "Be brief.", client.calls[1][0].Text())
}

func TestHandler_RetryAfterFailedRun(t *testing.T) {
	client := &streamClient{err: errors.New("backend down")}
	h := NewHandler(af.NewAgent(client))
	body := `{"threadId":"t1","messages":[{"id":"u1","role":"user","content":"weather in Oslo?"}]}`

	failed := post(t, h, body)
	assert.Equal(t, EventRunError, failed[len(failed)-1].Type)

	client.err = nil
	client.turns = [][]af.ChatResponseUpdate{textTurn("Cold and clear.")}
	retried := post(t, h, body)
	assert.Equal(t, EventRunFinished, retried[len(retried)-1].Type)

	require.Len(t, client.calls, 2)
	require.Len(t, client.calls[1], 1, "the retried turn must reach the model")
	assert.Equal(t, "weather in Oslo?", client.calls[1][0].Text())

	// Once the run succeeded the turn is recorded and not replayed.
	post(t, h, `{"threadId":"t1","messages":[{"id":"u1","role":"user","content":"weather in Oslo?"},{"id":"u2","role":"user","content":"and tomorrow?"}]}`)
	require.Len(t, client.calls, 3)
	var users []string
	for _, m := range client.calls[2] {
		if m.Role == af.RoleUser {
			users = append(users, m.Text())
		}
	}
	assert.Equal(t, []string{"weather in Oslo?", "and tomorrow?"}, users)
}

func TestHandler_EvictsIdleThreads(t *testing.T) {
	client := &streamClient{turns: [][]af.ChatResponseUpdate{textTurn("ok")}}
	h := NewHandler(af.NewAgent(client), WithThreadTTL(time.Minute))
	clock := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return clock }

	post(t, h, `{"threadId":"old","messages":[{"id":"u1","role":"user","content":"hi"}]}`)
	clock = clock.Add(30 * time.Second)
	post(t, h, `{"threadId":"recent","messages":[{"id":"u1","role":"user","content":"hi"}]}`)
	assert.Len(t, h.threads, 2)

	clock = clock.Add(45 * time.Second)
	post(t, h, `{"threadId":"new","messages":[{"id":"u1","role":"user","content":"hi"}]}`)
	assert.NotContains(t, h.threads, "old")
	assert.Contains(t, h.threads, "recent")
	assert.Contains(t, h.threads, "new")

	// An evicted thread starts over from what the client resends.
	post(t, h, `{"threadId":"old","messages":[{"id":"u1","role":"user","content":"hi"}]}`)
	last := client.calls[len(client.calls)-1]
	require.Len(t, last, 1)
	assert.Equal(t, "hi", last[0].Text())
}
