// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"cmp"
	"strings"
)

// ChatResponse is what a [ChatClient] returns for a non-streaming call.
type ChatResponse struct {
	Messages     []Message
	ResponseID   string
	ModelID      string
	CreatedAt    string
	FinishReason FinishReason
	Usage        UsageDetails
	Raw          any
}

// Text joins the text of every message.
func (r *ChatResponse) Text() string { return joinText(r.Messages) }

// ChatResponseUpdate is one streamed chunk from a [ChatClient].
type ChatResponseUpdate struct {
	Contents     Contents
	Role         Role
	MessageID    string
	ResponseID   string
	ModelID      string
	FinishReason FinishReason
	Usage        UsageDetails
	Raw          any
}

func (u *ChatResponseUpdate) Text() string { return u.Contents.text() }

// AgentResponse is the result of [Agent.Run]. Messages holds everything the
// run produced in order: assistant function calls, tool results, approval
// requests and the final assistant text.
type AgentResponse struct {
	Messages   []Message
	ResponseID string
	AgentID    string
	Usage      UsageDetails
	Raw        any
}

func (r *AgentResponse) Text() string { return joinText(r.Messages) }

// UserInputRequests returns the approval requests the run stopped on. Answer
// them with [NewApprovalResponse] in the next run on the same session.
func (r *AgentResponse) UserInputRequests() []*ApprovalRequestContent {
	var reqs []*ApprovalRequestContent
	for _, m := range r.Messages {
		reqs = append(reqs, m.Contents.approvalRequests()...)
	}
	return reqs
}

// AgentResponseUpdate is one streamed chunk from an agent or a workflow
// exposed as an agent. AuthorName tells participants apart.
type AgentResponseUpdate struct {
	Contents   Contents
	Role       Role
	AgentID    string
	AuthorName string
	MessageID  string
	ResponseID string
	Usage      UsageDetails
	Raw        any
}

func (u *AgentResponseUpdate) Text() string { return u.Contents.text() }

func (u *AgentResponseUpdate) UserInputRequests() []*ApprovalRequestContent {
	return u.Contents.approvalRequests()
}

func (cs Contents) approvalRequests() []*ApprovalRequestContent {
	var reqs []*ApprovalRequestContent
	for _, c := range cs {
		if ar, ok := c.(*ApprovalRequestContent); ok {
			reqs = append(reqs, ar)
		}
	}
	return reqs
}

func (cs Contents) text() string {
	var b strings.Builder
	for _, c := range cs {
		if tc, ok := c.(*TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func joinText(msgs []Message) string {
	var b strings.Builder
	for i := range msgs {
		b.WriteString(msgs[i].Contents.text())
	}
	return b.String()
}

// messageBuilder folds streamed chunks back into messages. A chunk whose
// role, message id or author differs from the open message starts a new one.
type messageBuilder struct {
	done    []Message
	pending Contents
	cur     *Message
}

func (b *messageBuilder) add(role Role, messageID, author string, cs Contents) {
	if len(cs) == 0 {
		return
	}
	if b.cur != nil && b.starts(role, messageID, author) {
		b.close()
	}
	if b.cur == nil {
		if role == "" {
			role = RoleAssistant
		}
		b.cur = &Message{Role: role, MessageID: messageID, AuthorName: author}
	} else if b.cur.MessageID == "" {
		b.cur.MessageID = messageID
	}
	b.pending = append(b.pending, cs...)
}

func (b *messageBuilder) starts(role Role, messageID, author string) bool {
	return (role != "" && role != b.cur.Role) ||
		(messageID != "" && b.cur.MessageID != "" && messageID != b.cur.MessageID) ||
		(author != "" && author != b.cur.AuthorName)
}

func (b *messageBuilder) close() {
	if b.cur == nil {
		return
	}
	b.cur.Contents = coalesce(b.pending)
	b.done = append(b.done, *b.cur)
	b.cur, b.pending = nil, nil
}

func (b *messageBuilder) messages() []Message {
	b.close()
	return b.done
}

// coalesce joins adjacent text deltas, and adjacent reasoning deltas, into
// single items. Everything else keeps its position.
func coalesce(cs Contents) Contents {
	out := make(Contents, 0, len(cs))
	for _, c := range cs {
		if len(out) > 0 {
			switch cur := c.(type) {
			case *TextContent:
				if prev, ok := out[len(out)-1].(*TextContent); ok {
					out[len(out)-1] = &TextContent{Text: prev.Text + cur.Text}
					continue
				}
			case *TextReasoningContent:
				if prev, ok := out[len(out)-1].(*TextReasoningContent); ok {
					out[len(out)-1] = &TextReasoningContent{Text: prev.Text + cur.Text}
					continue
				}
			}
		}
		out = append(out, c)
	}
	return out
}

// ChatResponseFromUpdates assembles the streamed updates of one model call.
func ChatResponseFromUpdates(updates []ChatResponseUpdate) *ChatResponse {
	resp := &ChatResponse{}
	var mb messageBuilder
	for _, u := range updates {
		mb.add(u.Role, u.MessageID, "", u.Contents)
		resp.ResponseID = cmp.Or(u.ResponseID, resp.ResponseID)
		resp.ModelID = cmp.Or(u.ModelID, resp.ModelID)
		if u.FinishReason != "" {
			resp.FinishReason = u.FinishReason
		}
		resp.Usage.Add(u.Usage)
	}
	resp.Messages = mb.messages()
	return resp
}

// AgentResponseFromUpdates assembles the streamed updates of one agent run.
// Updates from different authors become separate messages.
func AgentResponseFromUpdates(updates []AgentResponseUpdate) *AgentResponse {
	resp := &AgentResponse{}
	var mb messageBuilder
	for _, u := range updates {
		mb.add(u.Role, u.MessageID, u.AuthorName, u.Contents)
		resp.AgentID = cmp.Or(u.AgentID, resp.AgentID)
		resp.ResponseID = cmp.Or(u.ResponseID, resp.ResponseID)
		resp.Usage.Add(u.Usage)
	}
	resp.Messages = mb.messages()
	return resp
}
