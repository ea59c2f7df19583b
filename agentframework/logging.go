// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// LoggingMiddleware logs the start and outcome of every run. A nil logger
// uses slog.Default().
func LoggingMiddleware(logger *slog.Logger) AgentMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next AgentHandler) AgentHandler {
		return func(ctx context.Context, req *AgentRequest) (*AgentResponse, error) {
			log := logger.With("agent", req.AgentName, "streaming", req.Streaming)
			log.InfoContext(ctx, "agent run started", "messages", len(req.Messages))
			start := time.Now()

			resp, err := next(ctx, req)
			if err != nil {
				log.ErrorContext(ctx, "agent run failed", "duration", time.Since(start), "error", err)
				return nil, err
			}
			attrs := []any{
				"duration", time.Since(start),
				"messages", len(resp.Messages),
			}
			if !resp.Usage.IsZero() {
				attrs = append(attrs, "input_tokens", resp.Usage.InputTokens, "output_tokens", resp.Usage.OutputTokens)
			}
			if n := len(resp.UserInputRequests()); n > 0 {
				attrs = append(attrs, "approval_requests", n)
			}
			log.InfoContext(ctx, "agent run completed", attrs...)
			return resp, nil
		}
	}
}

// FunctionLoggingMiddleware logs every tool invocation at debug level and
// failures at warn level.
func FunctionLoggingMiddleware(logger *slog.Logger) FunctionMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next FunctionHandler) FunctionHandler {
		return func(ctx context.Context, tool Tool, args json.RawMessage) (any, error) {
			start := time.Now()
			result, err := next(ctx, tool, args)
			if err != nil {
				logger.WarnContext(ctx, "tool failed", "tool", tool.Name(), "duration", time.Since(start), "error", err)
				return result, err
			}
			logger.DebugContext(ctx, "tool invoked", "tool", tool.Name(), "arguments", string(args), "duration", time.Since(start))
			return result, nil
		}
	}
}
