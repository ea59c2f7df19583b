// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"encoding/json"
)

// AgentRequest is the input of one agent run as seen by [AgentMiddleware].
type AgentRequest struct {
	AgentName string
	Messages  []Message
	Session   *Session
	Options   *ChatOptions
	Streaming bool
}

// AgentHandler runs an agent request.
type AgentHandler func(ctx context.Context, req *AgentRequest) (*AgentResponse, error)

// AgentMiddleware wraps a whole run. A middleware may return without calling
// next to short-circuit the run.
type AgentMiddleware func(next AgentHandler) AgentHandler

// ChatHandler makes one model call.
type ChatHandler func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)

// ChatMiddleware wraps every model call of a run.
type ChatMiddleware func(next ChatHandler) ChatHandler

// FunctionHandler invokes a tool.
type FunctionHandler func(ctx context.Context, tool Tool, args json.RawMessage) (any, error)

// FunctionMiddleware wraps every tool invocation of a run, including calls
// invoked after an approval.
type FunctionMiddleware func(next FunctionHandler) FunctionHandler

// chain wraps h so that mws[0] is the outermost layer.
func chain[H any, M ~func(H) H](h H, mws []M) H {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
