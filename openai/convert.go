// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"encoding/json"
	"strings"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// newRequest builds the request body. model is used when opts names none.
func newRequest(messages []af.Message, opts *af.ChatOptions, model string) *completionRequest {
	req := &completionRequest{Model: model, Messages: toWireMessages(messages)}
	if opts == nil {
		return req
	}
	if opts.ModelID != "" {
		req.Model = opts.ModelID
	}
	req.Temperature = opts.Temperature
	req.TopP = opts.TopP
	req.MaxTokens = opts.MaxTokens
	req.Stop = opts.Stop
	req.Seed = opts.Seed
	req.FrequencyPenalty = opts.FrequencyPenalty
	req.PresencePenalty = opts.PresencePenalty
	req.ResponseFormat = opts.ResponseFormat
	req.User = opts.User
	req.Store = opts.Store
	req.Metadata = opts.Metadata
	for _, t := range opts.Tools {
		req.Tools = append(req.Tools, wireTool{
			Type:     "function",
			Function: wireToolFunction{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()},
		})
	}
	if len(req.Tools) > 0 {
		req.ToolChoice = toolChoice(opts.ToolChoice)
	}
	return req
}

func toWireMessages(messages []af.Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case af.RoleTool:
			// One wire message per result; the API has no batched form.
			for _, c := range m.Contents {
				if r, ok := c.(*af.FunctionResultContent); ok {
					out = append(out, wireMessage{Role: "tool", ToolCallID: r.CallID, Content: resultString(r)})
				}
			}
		case af.RoleAssistant:
			if wm, ok := assistantMessage(m); ok {
				out = append(out, wm)
			}
		default:
			if content := userContent(m.Contents); content != nil {
				out = append(out, wireMessage{Role: string(m.Role), Name: m.AuthorName, Content: content})
			}
		}
	}
	return out
}

// assistantMessage keeps text and function calls. Approval requests and
// reasoning are not sent back, so a message made only of those is dropped.
func assistantMessage(m af.Message) (wireMessage, bool) {
	wm := wireMessage{Role: "assistant", Name: m.AuthorName}
	var text strings.Builder
	for _, c := range m.Contents {
		switch c := c.(type) {
		case *af.TextContent:
			text.WriteString(c.Text)
		case *af.FunctionCallContent:
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:       c.CallID,
				Type:     "function",
				Function: wireFunction{Name: c.Name, Arguments: c.Arguments},
			})
		}
	}
	if text.Len() > 0 {
		wm.Content = text.String()
	}
	return wm, wm.Content != nil || len(wm.ToolCalls) > 0
}

// userContent returns a plain string for a single text item and typed parts
// otherwise. Images are passed by URL, data URIs included.
func userContent(cs af.Contents) any {
	var parts []wirePart
	for _, c := range cs {
		switch c := c.(type) {
		case *af.TextContent:
			parts = append(parts, wirePart{Type: "text", Text: c.Text})
		case *af.DataContent:
			parts = append(parts, wirePart{Type: "image_url", ImageURL: &wireImageURL{URL: c.URI}})
		case *af.URIContent:
			parts = append(parts, wirePart{Type: "image_url", ImageURL: &wireImageURL{URL: c.URI}})
		}
	}
	switch {
	case len(parts) == 0:
		return nil
	case len(parts) == 1 && parts[0].Type == "text":
		return parts[0].Text
	}
	return parts
}

func resultString(r *af.FunctionResultContent) string {
	if s, ok := r.Result.(string); ok {
		return s
	}
	b, err := json.Marshal(r.Result)
	if err != nil {
		return "error: result is not serializable"
	}
	return string(b)
}

func toolChoice(tc af.ToolChoice) any {
	if name, ok := strings.CutPrefix(string(tc), "function:"); ok {
		return map[string]any{"type": "function", "function": map[string]string{"name": name}}
	}
	if tc == "" {
		return nil
	}
	return string(tc)
}

// fromCompletion converts the first choice of a response.
func fromCompletion(c *completion) *af.ChatResponse {
	resp := &af.ChatResponse{ResponseID: c.ID, ModelID: c.Model, Usage: c.Usage.details(), Raw: c}
	if len(c.Choices) == 0 {
		return resp
	}
	choice := c.Choices[0]
	resp.FinishReason = finishReason(choice.FinishReason)

	role := af.Role(choice.Message.Role)
	if role == "" {
		role = af.RoleAssistant
	}
	msg := af.Message{Role: role, MessageID: c.ID, Contents: choice.Message.contents()}
	for _, tc := range choice.Message.ToolCalls {
		msg.Contents = append(msg.Contents, &af.FunctionCallContent{
			CallID:    tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	resp.Messages = []af.Message{msg}
	return resp
}

// contents returns the text parts of a reply. A refusal is reported as text
// so the caller sees why the model declined.
func (r *wireReply) contents() af.Contents {
	var cs af.Contents
	if r.ReasoningContent != nil && *r.ReasoningContent != "" {
		cs = append(cs, &af.TextReasoningContent{Text: *r.ReasoningContent})
	}
	if r.Content != nil && *r.Content != "" {
		cs = append(cs, &af.TextContent{Text: *r.Content})
	}
	if r.Refusal != nil && *r.Refusal != "" {
		cs = append(cs, &af.TextContent{Text: *r.Refusal})
	}
	return cs
}

func (u *wireUsage) details() af.UsageDetails {
	if u == nil {
		return af.UsageDetails{}
	}
	return af.UsageDetails{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalTokens:  u.TotalTokens,
	}
}

func finishReason(s string) af.FinishReason {
	switch s {
	case "stop":
		return af.FinishReasonStop
	case "length":
		return af.FinishReasonLength
	case "tool_calls", "function_call":
		return af.FinishReasonToolCalls
	case "content_filter":
		return af.FinishReasonContentFilter
	}
	return af.FinishReason(s)
}
