// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// textCallPattern matches a reply made only of a JSON array of single-key
// objects, optionally inside a ```json fence.
var textCallPattern = regexp.MustCompile("(?s)^\\s*(?:`{3}(?:json)?\\s*)?\\[\\s*\\{.*\\}\\s*\\](?:\\s*`{3})?\\s*$")

// TextToolCallMiddleware returns a [af.ChatMiddleware] for local runtimes
// that answer tool requests with plain text such as
//
//	[{"get_weather": {"location": "Seattle"}}]
//
// instead of structured tool_calls. Matching assistant replies are rewritten
// into [af.FunctionCallContent] so the agent's invocation loop runs the tools.
// Install it on the agent, not the client, so it also sees streamed turns.
func TextToolCallMiddleware(logger *slog.Logger) af.ChatMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next af.ChatHandler) af.ChatHandler {
		return func(ctx context.Context, messages []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
			resp, err := next(ctx, messages, opts)
			if err != nil || resp == nil {
				return resp, err
			}

			for i := range resp.Messages {
				msg := &resp.Messages[i]
				if msg.Role != af.RoleAssistant || !textOnly(msg.Contents) {
					continue
				}
				text := strings.TrimSpace(msg.Text())
				if !textCallPattern.MatchString(text) {
					continue
				}

				calls, err := parseTextToolCalls(text)
				if err != nil {
					logger.DebugContext(ctx, "text is not a tool call list", "error", err)
					continue
				}
				if len(calls) == 0 {
					continue
				}

				logger.DebugContext(ctx, "converted text to tool calls", "count", len(calls))
				msg.Contents = make(af.Contents, len(calls))
				for j, c := range calls {
					msg.Contents[j] = c
				}
				resp.FinishReason = af.FinishReasonToolCalls
			}
			return resp, nil
		}
	}
}

func textOnly(cs af.Contents) bool {
	if len(cs) == 0 {
		return false
	}
	for _, c := range cs {
		if c.Type() != af.ContentTypeText {
			return false
		}
	}
	return true
}

// parseTextToolCalls decodes [{"name": {args}}, ...] into function calls.
func parseTextToolCalls(text string) ([]*af.FunctionCallContent, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}

	calls := make([]*af.FunctionCallContent, 0, len(entries))
	for i, entry := range entries {
		if len(entry) != 1 {
			return nil, fmt.Errorf("tool call %d: expected 1 key, got %d", i, len(entry))
		}
		for name, args := range entry {
			compact, err := json.Marshal(args)
			if err != nil {
				return nil, fmt.Errorf("tool call %d (%s): invalid args: %w", i, name, err)
			}
			calls = append(calls, &af.FunctionCallContent{
				CallID:    "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24],
				Name:      name,
				Arguments: string(compact),
			})
		}
	}
	return calls, nil
}
