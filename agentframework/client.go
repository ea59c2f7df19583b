// Copyright (c) Microsoft. All rights reserved.

package agentframework

import "context"

// ChatClient is a model backend. The openai and anthropic packages provide
// implementations; tests usually supply their own.
type ChatClient interface {
	Response(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)
	StreamResponse(ctx context.Context, messages []Message, opts *ChatOptions) (*ResponseStream[ChatResponseUpdate], error)
}

// UsageDetails counts the tokens of one or more model calls.
type UsageDetails struct {
	InputTokens  int `json:"inputTokenCount,omitempty"`
	OutputTokens int `json:"outputTokenCount,omitempty"`
	TotalTokens  int `json:"totalTokenCount,omitempty"`
}

// Add accumulates other into u.
func (u *UsageDetails) Add(other UsageDetails) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// IsZero reports whether no tokens were counted.
func (u UsageDetails) IsZero() bool { return u == UsageDetails{} }
