// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"testing"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		msg  af.Message
		role af.Role
	}{
		{af.NewUserMessage("x"), af.RoleUser},
		{af.NewAssistantMessage("x"), af.RoleAssistant},
		{af.NewSystemMessage("x"), af.RoleSystem},
	}
	for _, tt := range tests {
		if tt.msg.Role != tt.role || tt.msg.Text() != "x" {
			t.Errorf("got %s %q, want %s", tt.msg.Role, tt.msg.Text(), tt.role)
		}
	}

	m := af.NewToolMessage("call-1", map[string]int{"temp": 22})
	fr, ok := m.Contents[0].(*af.FunctionResultContent)
	if m.Role != af.RoleTool || !ok || fr.CallID != "call-1" {
		t.Errorf("tool message = %+v", m)
	}
}

func TestMessage_TextAndFunctionCalls(t *testing.T) {
	m := af.Message{Role: af.RoleAssistant, Contents: af.Contents{
		&af.TextContent{Text: "Checking "},
		&af.FunctionCallContent{CallID: "a", Name: "get_weather"},
		&af.TextContent{Text: "now"},
		&af.FunctionCallContent{CallID: "b", Name: "get_time"},
	}}
	if got := m.Text(); got != "Checking now" {
		t.Errorf("Text = %q", got)
	}
	calls := m.FunctionCalls()
	if len(calls) != 2 || calls[0].CallID != "a" || calls[1].Name != "get_time" {
		t.Errorf("FunctionCalls = %+v", calls)
	}
	user := af.NewUserMessage("hi")
	if calls := user.FunctionCalls(); calls != nil {
		t.Errorf("user message calls = %v", calls)
	}
}

func TestPrependInstructions(t *testing.T) {
	msgs := []af.Message{af.NewUserMessage("hi")}

	got := af.PrependInstructions(msgs, "Be helpful")
	if len(got) != 2 || got[0].Role != af.RoleSystem || got[0].Text() != "Be helpful" {
		t.Errorf("with instructions: %+v", got)
	}
	if got := af.PrependInstructions(msgs, ""); len(got) != 1 {
		t.Errorf("empty instructions added a message: %+v", got)
	}
	withSystem := []af.Message{af.NewSystemMessage("existing"), af.NewUserMessage("hi")}
	if got := af.PrependInstructions(withSystem, "new"); len(got) != 2 || got[0].Text() != "existing" {
		t.Errorf("existing system message replaced: %+v", got)
	}
}
