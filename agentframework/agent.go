// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
)

// Agent pairs a [ChatClient] with instructions, tools and middleware, and
// runs the function calling loop on every request.
//
//	agent := agentframework.NewAgent(client,
//	    agentframework.WithName("assistant"),
//	    agentframework.WithInstructions("You are helpful."),
//	    agentframework.WithTools(weatherTool),
//	)
type Agent struct {
	id           string
	name         string
	description  string
	client       ChatClient
	instructions string
	tools        []Tool
	options      *ChatOptions
	newStore     func() MessageStore
	invocation   InvocationConfig
	logger       *slog.Logger

	agentMiddleware    []AgentMiddleware
	chatMiddleware     []ChatMiddleware
	functionMiddleware []FunctionMiddleware
}

// AgentOption configures an [Agent].
type AgentOption func(*Agent)

func WithName(name string) AgentOption {
	return func(a *Agent) { a.name = name }
}

func WithDescription(desc string) AgentOption {
	return func(a *Agent) { a.description = desc }
}

// WithInstructions sets the system prompt. Instructions given per run are
// appended to it.
func WithInstructions(instructions string) AgentOption {
	return func(a *Agent) { a.instructions = instructions }
}

// WithTools adds tools offered on every run.
func WithTools(tools ...Tool) AgentOption {
	return func(a *Agent) { a.tools = append(a.tools, tools...) }
}

// WithDefaultOptions sets the options every run starts from.
func WithDefaultOptions(opts *ChatOptions) AgentOption {
	return func(a *Agent) { a.options = opts }
}

// WithMessageStoreFactory sets how history stores are created for sessions
// that have none. Defaults to [NewInMemoryStore].
func WithMessageStoreFactory(f func() MessageStore) AgentOption {
	return func(a *Agent) { a.newStore = f }
}

func WithAgentMiddleware(mws ...AgentMiddleware) AgentOption {
	return func(a *Agent) { a.agentMiddleware = append(a.agentMiddleware, mws...) }
}

func WithChatMiddleware(mws ...ChatMiddleware) AgentOption {
	return func(a *Agent) { a.chatMiddleware = append(a.chatMiddleware, mws...) }
}

func WithFunctionMiddleware(mws ...FunctionMiddleware) AgentOption {
	return func(a *Agent) { a.functionMiddleware = append(a.functionMiddleware, mws...) }
}

// WithInvocationConfig replaces [DefaultInvocationConfig]. Zero limits keep
// their defaults.
func WithInvocationConfig(cfg InvocationConfig) AgentOption {
	return func(a *Agent) { a.invocation = cfg }
}

// WithLogger sets the logger for the agent's own diagnostics. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) AgentOption {
	return func(a *Agent) { a.logger = l }
}

// NewAgent creates an agent backed by client.
func NewAgent(client ChatClient, opts ...AgentOption) *Agent {
	a := &Agent{
		id:         uuid.NewString(),
		client:     client,
		invocation: DefaultInvocationConfig(),
		newStore:   func() MessageStore { return NewInMemoryStore() },
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) ID() string          { return a.id }
func (a *Agent) Name() string        { return a.name }
func (a *Agent) Description() string { return a.description }

// NewSession returns an empty session using the agent's store factory.
// opts are applied after the store is set.
func (a *Agent) NewSession(opts ...SessionOption) *Session {
	return NewSession(append([]SessionOption{WithSessionStore(a.newStore())}, opts...)...)
}

// RunOption configures one call of [Agent.Run] or [Agent.RunStream].
type RunOption func(*runConfig)

type runConfig struct {
	session *Session
	tools   []Tool
	options *ChatOptions
}

// WithSession continues the conversation held by s. The run's input and
// output are added to it once the run succeeds.
func WithSession(s *Session) RunOption {
	return func(c *runConfig) { c.session = s }
}

// WithRunTools offers extra tools for this run only. A run tool replaces an
// agent tool of the same name.
func WithRunTools(tools ...Tool) RunOption {
	return func(c *runConfig) { c.tools = append(c.tools, tools...) }
}

// WithRunOptions overrides the agent's default options for this run.
func WithRunOptions(opts *ChatOptions) RunOption {
	return func(c *runConfig) { c.options = opts }
}

// Run answers messages and returns everything the run produced.
func (a *Agent) Run(ctx context.Context, messages []Message, opts ...RunOption) (*AgentResponse, error) {
	return a.run(ctx, messages, newRunConfig(opts), nil)
}

// RunStream is Run with incremental output. Text is forwarded as the model
// produces it; function calls, tool results and approval requests arrive as
// whole updates between model turns.
func (a *Agent) RunStream(ctx context.Context, messages []Message, opts ...RunOption) (*AgentResponseStream, error) {
	cfg := newRunConfig(opts)
	stream := NewResponseStream(ctx, func(ctx context.Context, sink chan<- AgentResponseUpdate) error {
		_, err := a.run(ctx, messages, cfg, sink)
		return err
	})
	return NewAgentResponseStream(stream), nil
}

func newRunConfig(opts []RunOption) *runConfig {
	cfg := &runConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (a *Agent) run(ctx context.Context, messages []Message, cfg *runConfig, sink chan<- AgentResponseUpdate) (*AgentResponse, error) {
	handler := chain(a.handler(cfg, sink), a.agentMiddleware)
	return handler(ctx, &AgentRequest{
		AgentName: a.name,
		Messages:  messages,
		Session:   cfg.session,
		Options:   cfg.options,
		Streaming: sink != nil,
	})
}

// chatOptions resolves the options of one run: agent defaults, then the
// request's options; agent tools, then request tools, then run tools.
func (a *Agent) chatOptions(req *AgentRequest, cfg *runConfig) *ChatOptions {
	opts := MergeChatOptions(a.options, req.Options)
	tools := mergeTools(slices.Clone(a.tools), opts.Tools)
	opts.Tools = mergeTools(tools, cfg.tools)
	opts.Instructions = joinInstructions(a.instructions, opts.Instructions)
	return opts
}

func (a *Agent) history(ctx context.Context, session *Session) ([]Message, error) {
	if session == nil {
		return nil, nil
	}
	store := session.Store()
	if store == nil {
		return nil, nil
	}
	msgs, err := store.ListMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", session.ID(), err)
	}
	return msgs, nil
}

func (a *Agent) handler(cfg *runConfig, sink chan<- AgentResponseUpdate) AgentHandler {
	return func(ctx context.Context, req *AgentRequest) (*AgentResponse, error) {
		opts := a.chatOptions(req, cfg)
		history, err := a.history(ctx, req.Session)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecution, err)
		}
		messages := PrependInstructions(append(history, req.Messages...), opts.Instructions)

		a.logger.DebugContext(ctx, "agent run",
			"agent_id", a.id,
			"agent_name", a.name,
			"messages", len(messages),
			"tools", len(opts.Tools),
			"streaming", sink != nil,
		)

		loop := newFunctionLoop(a.turn(sink), opts.Tools, a.invocation, a.functionMiddleware, a.logger)
		if sink != nil {
			loop.emit = func(m Message) {
				_ = a.send(ctx, sink, AgentResponseUpdate{
					Contents:   m.Contents,
					Role:       m.Role,
					AuthorName: m.AuthorName,
					MessageID:  m.MessageID,
				})
			}
		}

		messages, resolved, err := loop.resolveApprovals(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecution, err)
		}
		loop.publish(resolved...)

		chatResp, err := loop.run(ctx, messages, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecution, err)
		}

		produced := append(resolved, chatResp.Messages...)
		for i := range produced {
			if produced[i].Role == RoleAssistant && produced[i].AuthorName == "" {
				produced[i].AuthorName = a.name
			}
		}
		if req.Session != nil {
			store := req.Session.storeOrInit(a.newStore)
			if err := store.AddMessages(ctx, append(slices.Clone(req.Messages), produced...)); err != nil {
				a.logger.WarnContext(ctx, "failed to update session", "session_id", req.Session.ID(), "error", err)
			}
		}

		return &AgentResponse{
			Messages:   produced,
			ResponseID: chatResp.ResponseID,
			AgentID:    a.id,
			Usage:      chatResp.Usage,
			Raw:        chatResp.Raw,
		}, nil
	}
}

// turn returns the model call for one iteration wrapped in the chat
// middleware. With a sink the call streams and forwards visible content as
// it arrives.
func (a *Agent) turn(sink chan<- AgentResponseUpdate) ChatHandler {
	handler := ChatHandler(a.client.Response)
	if sink != nil {
		handler = a.streamingTurn(sink)
	}
	return chain(handler, a.chatMiddleware)
}

func (a *Agent) streamingTurn(sink chan<- AgentResponseUpdate) ChatHandler {
	return func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error) {
		stream, err := a.client.StreamResponse(ctx, messages, opts)
		if err != nil {
			return nil, err
		}
		defer stream.Close()

		messageID := uuid.NewString()
		var updates []ChatResponseUpdate
		for u, err := range stream.All(ctx) {
			if err != nil {
				return nil, err
			}
			if u.MessageID == "" {
				u.MessageID = messageID
			}
			if u.Role == "" {
				u.Role = RoleAssistant
			}
			updates = append(updates, u)

			// The loop reports function calls once they are complete.
			visible := slices.DeleteFunc(slices.Clone(u.Contents), func(c Content) bool {
				return c.Type() == ContentTypeFunctionCall
			})
			if len(visible) == 0 && u.Usage.IsZero() {
				continue
			}
			if err := a.send(ctx, sink, AgentResponseUpdate{
				Contents:   visible,
				Role:       u.Role,
				MessageID:  u.MessageID,
				ResponseID: u.ResponseID,
				Usage:      u.Usage,
				Raw:        u.Raw,
			}); err != nil {
				return nil, err
			}
		}
		return ChatResponseFromUpdates(updates), nil
	}
}

func (a *Agent) send(ctx context.Context, sink chan<- AgentResponseUpdate, u AgentResponseUpdate) error {
	u.AgentID = a.id
	if u.AuthorName == "" && u.Role == RoleAssistant {
		u.AuthorName = a.name
	}
	select {
	case sink <- u:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
