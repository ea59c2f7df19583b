// Copyright (c) Microsoft. All rights reserved.

// Package anthropic provides a [agentframework.ChatClient] backed by the
// Anthropic Messages API through the official Go SDK.
//
//	client := anthropic.New(os.Getenv("ANTHROPIC_API_KEY"),
//	    anthropic.WithModel("claude-sonnet-4-5"),
//	)
//	agent := agentframework.NewAgent(client)
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

const defaultMaxTokens = 4096

// Client implements [af.ChatClient] for Claude models.
type Client struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

var _ af.ChatClient = (*Client)(nil)

type clientConfig struct {
	model      string
	maxTokens  int64
	reqOptions []option.RequestOption
}

// Option configures a [Client].
type Option func(*clientConfig)

// WithModel sets the default model, e.g. "claude-sonnet-4-5".
func WithModel(model string) Option {
	return func(c *clientConfig) { c.model = model }
}

// WithMaxTokens sets the output token limit used when [af.ChatOptions]
// does not carry one. The Messages API requires a limit on every request.
func WithMaxTokens(n int) Option {
	return func(c *clientConfig) { c.maxTokens = int64(n) }
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.reqOptions = append(c.reqOptions, option.WithBaseURL(url)) }
}

// WithHTTPClient provides a custom http.Client for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) { c.reqOptions = append(c.reqOptions, option.WithHTTPClient(hc)) }
}

// WithRequestOptions passes SDK request options through unchanged.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(c *clientConfig) { c.reqOptions = append(c.reqOptions, opts...) }
}

// New creates a Claude [Client] authenticated with apiKey.
func New(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{maxTokens: defaultMaxTokens}
	for _, o := range opts {
		o(cfg)
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, cfg.reqOptions...)
	return &Client{
		client:    sdk.NewClient(reqOpts...),
		model:     cfg.model,
		maxTokens: cfg.maxTokens,
	}
}

// Response sends a non-streaming Messages request.
func (c *Client) Response(ctx context.Context, messages []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
	params, err := c.buildParams(messages, opts)
	if err != nil {
		return nil, err
	}
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}
	resp := parseMessage(msg)
	resp.Raw = msg
	return resp, nil
}

// StreamResponse sends a streaming Messages request. Text deltas are
// forwarded as they arrive; tool calls, usage and the stop reason follow in
// a final update once the message is complete.
func (c *Client) StreamResponse(ctx context.Context, messages []af.Message, opts *af.ChatOptions) (*af.ResponseStream[af.ChatResponseUpdate], error) {
	params, err := c.buildParams(messages, opts)
	if err != nil {
		return nil, err
	}

	return af.NewResponseStream(ctx, func(ctx context.Context, ch chan<- af.ChatResponseUpdate) error {
		stream := c.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		send := func(u af.ChatResponseUpdate) error {
			select {
			case ch <- u:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var message sdk.Message
		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				return fmt.Errorf("%w: accumulate stream: %v", af.ErrInvalidResponse, err)
			}

			switch ev := event.AsAny().(type) {
			case sdk.MessageStartEvent:
				if err := send(af.ChatResponseUpdate{
					Role:       af.RoleAssistant,
					ResponseID: ev.Message.ID,
					ModelID:    string(ev.Message.Model),
				}); err != nil {
					return err
				}
			case sdk.ContentBlockDeltaEvent:
				if delta, ok := ev.Delta.AsAny().(sdk.TextDelta); ok && delta.Text != "" {
					if err := send(af.ChatResponseUpdate{
						Role:     af.RoleAssistant,
						Contents: af.Contents{&af.TextContent{Text: delta.Text}},
					}); err != nil {
						return err
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			return mapError(err)
		}

		final := parseMessage(&message)
		var calls af.Contents
		for _, m := range final.Messages {
			for _, content := range m.Contents {
				if content.Type() == af.ContentTypeFunctionCall {
					calls = append(calls, content)
				}
			}
		}
		return send(af.ChatResponseUpdate{
			Role:         af.RoleAssistant,
			Contents:     calls,
			ResponseID:   final.ResponseID,
			ModelID:      final.ModelID,
			FinishReason: final.FinishReason,
			Usage:        final.Usage,
		})
	}), nil
}

// mapError converts SDK API errors into framework service errors.
func mapError(err error) error {
	var apiErr *sdk.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", af.ErrService, err)
	}
	svcErr := &af.ServiceError{
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Error(),
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		svcErr.Err = af.ErrAuth
	case http.StatusBadRequest:
		svcErr.Err = af.ErrInvalidRequest
	default:
		svcErr.Err = af.ErrService
	}
	return svcErr
}
