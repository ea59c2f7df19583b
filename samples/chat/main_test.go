// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/samples/internal/console"
	"github.com/jochenvw/agent-framework-samples/samples/internal/modelclient"
)

// clockClient asks for get_time in Berlin, then repeats the tool result.
type clockClient struct {
	seen []int
}

func (c *clockClient) Response(ctx context.Context, msgs []af.Message, _ *af.ChatOptions) (*af.ChatResponse, error) {
	c.seen = append(c.seen, len(msgs))
	last := msgs[len(msgs)-1]
	if last.Role == af.RoleTool {
		result := last.Contents[0].(*af.FunctionResultContent).Result
		return &af.ChatResponse{
			Messages: []af.Message{af.NewAssistantMessage(fmt.Sprintf("It is %v in Berlin.", result))},
			Usage:    af.UsageDetails{InputTokens: 12, OutputTokens: 5, TotalTokens: 17},
		}, nil
	}
	call := &af.FunctionCallContent{CallID: "c1", Name: "get_time", Arguments: `{"zone":"Europe/Berlin"}`}
	return &af.ChatResponse{
		Messages:     []af.Message{{Role: af.RoleAssistant, Contents: af.Contents{call}}},
		FinishReason: af.FinishReasonToolCalls,
	}, nil
}

func (c *clockClient) StreamResponse(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ResponseStream[af.ChatResponseUpdate], error) {
	return af.NewResponseStream(ctx, func(ctx context.Context, ch chan<- af.ChatResponseUpdate) error {
		for _, word := range strings.Fields("streamed reply") {
			ch <- af.ChatResponseUpdate{Role: af.RoleAssistant, Contents: af.Contents{&af.TextContent{Text: word + " "}}}
		}
		return nil
	}), nil
}

func fixedNow() time.Time { return time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC) }

func TestChat_ToolTurnAndStreaming(t *testing.T) {
	client := &clockClient{}
	agent := newAgent(&modelclient.Model{Client: client}, slog.Default(), fixedNow)

	var out bytes.Buffer
	in := strings.NewReader("what time is it in Berlin?\n\nstream hello\nquit\nnever read\n")
	chat(context.Background(), agent, console.New(in, &out))

	got := out.String()
	assert.Contains(t, got, "Assistant: It is 12:30:00 PM in Berlin.")
	assert.Contains(t, got, "[tokens: 12 in, 5 out]")
	assert.Contains(t, got, "Assistant: streamed reply \n")
	// system and user, then again with the call and its result
	assert.Equal(t, []int{2, 4}, client.seen)
}

func TestTimeTool(t *testing.T) {
	tool := timeTool(fixedNow)
	tests := []struct {
		args string
		want string
	}{
		{`{"zone":"Asia/Tokyo"}`, "07:30:00 PM"},
		{`{}`, "Sunday, June 1, 2025 10:30:00 AM UTC"},
		{`{"zone":"Mars/Olympus"}`, "Sorry, I couldn't find the timezone for that location."},
	}
	for _, tt := range tests {
		got, err := tool.Invoke(context.Background(), []byte(tt.args))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.args)
	}
}
