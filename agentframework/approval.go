// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"

	"github.com/google/uuid"
)

// resolveApprovals rewrites a conversation that carries approval responses
// into one the model can consume. Approval requests become function calls,
// approval responses are removed, and every answered call gets a tool result:
// the tool output when approved, [RejectedToolResult] otherwise. Requests that
// were never answered are dropped.
//
// Calls that already have a result in the history are not invoked again.
// The returned produced slice holds the messages created here so they can be
// reported and persisted with the run.
func (l *functionLoop) resolveApprovals(ctx context.Context, messages []Message) (resolved, produced []Message, err error) {
	responses := make(map[string]*ApprovalResponseContent)
	var order []string
	answered := make(map[string]bool)
	for _, m := range messages {
		for _, c := range m.Contents {
			switch v := c.(type) {
			case *ApprovalResponseContent:
				if _, seen := responses[v.CallID]; !seen {
					order = append(order, v.CallID)
				}
				responses[v.CallID] = v
			case *FunctionResultContent:
				answered[v.CallID] = true
			}
		}
	}
	if len(responses) == 0 {
		return messages, nil, nil
	}

	// Rewrite requests into calls and strip responses, remembering where each
	// call now lives.
	located := make(map[string]int)
	for _, m := range messages {
		kept := make(Contents, 0, len(m.Contents))
		for _, c := range m.Contents {
			switch v := c.(type) {
			case *ApprovalResponseContent:
				continue
			case *ApprovalRequestContent:
				if _, ok := responses[v.CallID]; !ok {
					continue
				}
				kept = append(kept, v.FunctionCall())
				located[v.CallID] = len(resolved)
			case *FunctionCallContent:
				if _, ok := responses[v.CallID]; ok {
					located[v.CallID] = len(resolved)
				}
				kept = append(kept, c)
			default:
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			continue
		}
		m.Contents = kept
		resolved = append(resolved, m)
	}

	inserts := make(map[int][]Message)
	var trailing []Message
	for _, id := range order {
		if answered[id] {
			continue
		}
		resp := responses[id]
		result, err := l.approvalResult(ctx, resp)
		if err != nil {
			return nil, nil, err
		}
		toolMsg := NewToolMessage(id, result)

		idx, ok := located[id]
		if !ok {
			call := Message{
				Role:      RoleAssistant,
				MessageID: uuid.NewString(),
				Contents:  Contents{&FunctionCallContent{CallID: id, Name: resp.Name, Arguments: resp.Arguments}},
			}
			trailing = append(trailing, call, toolMsg)
			produced = append(produced, call, toolMsg)
			continue
		}
		inserts[idx] = append(inserts[idx], toolMsg)
		produced = append(produced, toolMsg)
	}

	// Tool results must follow the assistant message holding the call and any
	// tool messages already answering its siblings.
	if len(inserts) > 0 {
		out := make([]Message, 0, len(resolved)+len(produced))
		pendingIdx := -1
		for i, m := range resolved {
			if pendingIdx >= 0 && m.Role != RoleTool {
				out = append(out, inserts[pendingIdx]...)
				pendingIdx = -1
			}
			out = append(out, m)
			if _, ok := inserts[i]; ok {
				if pendingIdx >= 0 {
					out = append(out, inserts[pendingIdx]...)
				}
				pendingIdx = i
			}
		}
		if pendingIdx >= 0 {
			out = append(out, inserts[pendingIdx]...)
		}
		resolved = out
	}
	resolved = append(resolved, trailing...)
	return resolved, produced, nil
}

func (l *functionLoop) approvalResult(ctx context.Context, resp *ApprovalResponseContent) (any, error) {
	if !resp.Approved {
		l.logger.DebugContext(ctx, "tool call rejected", "tool", resp.Name, "call_id", resp.CallID)
		return RejectedToolResult, nil
	}
	tool, ok := l.tools[resp.Name]
	if !ok {
		l.logger.WarnContext(ctx, "approved tool not available", "tool", resp.Name)
		return unknownToolResult, nil
	}
	return l.invoke(ctx, tool, resp.FunctionCall())
}

// FunctionCall returns the function call the response refers to.
func (c *ApprovalResponseContent) FunctionCall() *FunctionCallContent {
	return &FunctionCallContent{CallID: c.CallID, Name: c.Name, Arguments: c.Arguments}
}
