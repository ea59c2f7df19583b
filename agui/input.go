// Copyright (c) Microsoft. All rights reserved.

package agui

import (
	"encoding/json"
	"fmt"
	"strings"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// RunAgentInput is the request body of an AG-UI run.
type RunAgentInput struct {
	ThreadID       string          `json:"threadId"`
	RunID          string          `json:"runId"`
	Messages       []InputMessage  `json:"messages"`
	Tools          []InputTool     `json:"tools,omitempty"`
	State          json.RawMessage `json:"state,omitempty"`
	Context        []ContextEntry  `json:"context,omitempty"`
	ForwardedProps json.RawMessage `json:"forwardedProps,omitempty"`
}

// ContextEntry is a piece of application state the client shares with the
// agent, such as the page the user is looking at.
type ContextEntry struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}

// contextInstructions renders the client context as extra instructions for
// one run.
func contextInstructions(entries []ContextEntry) string {
	var b strings.Builder
	for _, e := range entries {
		if strings.TrimSpace(e.Value) == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString("Context provided by the client application:")
		}
		fmt.Fprintf(&b, "\n- %s: %s", e.Description, e.Value)
	}
	return b.String()
}

// InputMessage is a message in the client's history.
type InputMessage struct {
	ID         string          `json:"id,omitempty"`
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content,omitempty"`
	ToolCalls  []InputToolCall `json:"toolCalls,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
}

// InputToolCall is a tool call recorded on an assistant message.
type InputToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// InputTool is a tool the client executes itself.
type InputTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// text returns the message content. Content is either a string or a list of
// typed parts of which only text parts are kept.
func (m InputMessage) text() string {
	if len(m.Content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.Content, &s); err == nil {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(m.Content, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// toMessage converts a client message. ok is false for messages that carry
// nothing the model can use.
func (m InputMessage) toMessage() (af.Message, bool) {
	text := m.text()
	switch m.Role {
	case "tool":
		if m.ToolCallID == "" {
			return af.Message{}, false
		}
		msg := af.NewToolMessage(m.ToolCallID, text)
		msg.MessageID = m.ID
		return msg, true
	case "assistant":
		msg := af.Message{Role: af.RoleAssistant, MessageID: m.ID}
		if text != "" {
			msg.Contents = append(msg.Contents, &af.TextContent{Text: text})
		}
		for _, tc := range m.ToolCalls {
			msg.Contents = append(msg.Contents, &af.FunctionCallContent{
				CallID:    tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		return msg, len(msg.Contents) > 0
	case "system", "developer":
		if text == "" {
			return af.Message{}, false
		}
		msg := af.NewSystemMessage(text)
		msg.MessageID = m.ID
		return msg, true
	default:
		if text == "" {
			return af.Message{}, false
		}
		msg := af.NewUserMessage(text)
		msg.MessageID = m.ID
		return msg, true
	}
}

// clientTools turns client-declared tools into declaration-only tools: the
// model may call them, and the call is handed back to the client.
func clientTools(in []InputTool) []af.Tool {
	tools := make([]af.Tool, 0, len(in))
	for _, t := range in {
		if t.Name == "" {
			continue
		}
		params := t.Parameters
		if len(params) == 0 {
			params = json.RawMessage(`{"type":"object","properties":{}}`)
		}
		tools = append(tools, af.NewTool(t.Name, t.Description, params, nil, af.WithDeclarationOnly()))
	}
	return tools
}
