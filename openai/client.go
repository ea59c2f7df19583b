// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client is a Chat Completions client. Create one with [New].
type Client struct {
	baseURL    string
	apiVersion string
	model      string
	headers    http.Header
	auth       authorizer
	hc         *http.Client
	logger     *slog.Logger
	respond    af.ChatHandler
}

var _ af.ChatClient = (*Client)(nil)

// Option configures a [Client].
type Option func(*Client)

// WithAPIKey authenticates with an OpenAI key sent as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.auth = bearerKey(key)
		}
	}
}

// WithAzureAPIKey authenticates with an Azure OpenAI resource key.
func WithAzureAPIKey(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.auth = azureKey(key)
		}
	}
}

// WithAzureCredential authenticates with Microsoft Entra ID tokens from cred.
func WithAzureCredential(cred azcore.TokenCredential) Option {
	return func(c *Client) { c.auth = newEntraToken(cred) }
}

// WithBaseURL replaces https://api.openai.com/v1. Requests go to
// <base>/chat/completions.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithAPIVersion adds the api-version query parameter Azure OpenAI requires.
func WithAPIVersion(v string) Option {
	return func(c *Client) { c.apiVersion = v }
}

// WithModel sets the model used when [af.ChatOptions] names none.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHeader sets a header on every request, e.g. OpenAI-Organization.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithChatMiddleware wraps non-streaming calls. The first middleware is the
// outermost.
func WithChatMiddleware(mws ...af.ChatMiddleware) Option {
	return func(c *Client) {
		for i := len(mws) - 1; i >= 0; i-- {
			c.respond = mws[i](c.respond)
		}
	}
}

// New creates a client. Without an authentication option requests are sent
// unauthenticated, which is what local runtimes expect.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		headers: make(http.Header),
		auth:    noAuth{},
		hc:      http.DefaultClient,
		logger:  slog.Default(),
	}
	c.respond = c.complete
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response sends messages and waits for the whole completion.
func (c *Client) Response(ctx context.Context, messages []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
	return c.respond(ctx, messages, opts)
}

func (c *Client) complete(ctx context.Context, messages []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
	req := newRequest(messages, opts, c.model)
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out completion
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode completion: %v", af.ErrInvalidResponse, err)
	}
	return fromCompletion(&out), nil
}

// StreamResponse sends messages and streams the completion as it is
// generated. Usage arrives with the last update.
func (c *Client) StreamResponse(ctx context.Context, messages []af.Message, opts *af.ChatOptions) (*af.ResponseStream[af.ChatResponseUpdate], error) {
	req := newRequest(messages, opts, c.model)
	req.Stream = true
	req.StreamOptions = &streamOptions{IncludeUsage: true}
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	dec := &streamDecoder{logger: c.logger}
	return af.NewResponseStream(ctx, func(ctx context.Context, ch chan<- af.ChatResponseUpdate) error {
		defer resp.Body.Close()
		return dec.decode(ctx, resp.Body, ch)
	}), nil
}

// post sends body to the completions endpoint. A non-2xx status is returned
// as an [af.ServiceError].
func (c *Client) post(ctx context.Context, body *completionRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", af.ErrInvalidRequest, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", af.ErrInvalidRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if body.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	if err := c.auth.authorize(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %v", af.ErrAuth, err)
	}
	for k, vs := range c.headers {
		req.Header[k] = vs
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &af.ServiceError{Message: err.Error(), Err: af.ErrService}
	}
	c.logger.DebugContext(ctx, "chat completion",
		"model", body.Model,
		"messages", len(body.Messages),
		"tools", len(body.Tools),
		"stream", body.Stream,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		return nil, serviceError(resp)
	}
	return resp, nil
}

func (c *Client) endpoint() string {
	u := c.baseURL + "/chat/completions"
	if c.apiVersion != "" {
		u += "?" + url.Values{"api-version": {c.apiVersion}}.Encode()
	}
	return u
}
