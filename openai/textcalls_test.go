// Copyright (c) Microsoft. All rights reserved.

package openai_test

import (
	"context"
	"testing"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
	"github.com/jochenvw/agent-framework-samples/openai"
)

func textReply(text string) af.ChatHandler {
	return func(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
		return &af.ChatResponse{Messages: []af.Message{af.NewAssistantMessage(text)}}, nil
	}
}

func TestTextToolCallMiddleware_ConvertsCalls(t *testing.T) {
	handler := openai.TextToolCallMiddleware(nil)(textReply("```json\n[{\"get_weather\": {\"location\": \"Seattle\"}}, {\"get_time\": {}}]\n```"))

	resp, err := handler(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.FinishReason != af.FinishReasonToolCalls {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	contents := resp.Messages[0].Contents
	if len(contents) != 2 {
		t.Fatalf("contents = %d, want 2", len(contents))
	}
	fc, ok := contents[0].(*af.FunctionCallContent)
	if !ok {
		t.Fatalf("content = %T", contents[0])
	}
	if fc.Name != "get_weather" || fc.Arguments != `{"location":"Seattle"}` {
		t.Errorf("call = %+v", fc)
	}
	if fc.CallID == "" || fc.CallID == contents[1].(*af.FunctionCallContent).CallID {
		t.Errorf("call ids must be unique, got %q", fc.CallID)
	}
}

func TestTextToolCallMiddleware_LeavesProseAlone(t *testing.T) {
	for _, text := range []string{
		"The weather in Seattle is sunny.",
		"[1, 2, 3]",
		`[{"a": {}, "b": {}}]`,
	} {
		handler := openai.TextToolCallMiddleware(nil)(textReply(text))
		resp, err := handler(context.Background(), nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if resp.Text() != text {
			t.Errorf("text %q was rewritten to %+v", text, resp.Messages[0].Contents)
		}
	}
}
