// Copyright (c) Microsoft. All rights reserved.

// Package agui serves an [agentframework.Agent] over the AG-UI protocol: a
// client POSTs a RunAgentInput and receives the run as Server-Sent Events.
//
//	agent := agentframework.NewAgent(client, agentframework.WithTools(getTimeZone))
//	http.Handle("/", agui.NewHandler(agent))
//
// Tools declared by the client are offered to the model for the duration of a
// run. When the model calls one, the call is streamed back and the run ends so
// the client can execute it and send the result in its next request.
package agui

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// Option configures a [Handler].
type Option func(*Handler)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithSessionFactory sets how the session of a new thread is created.
// Defaults to the agent's NewSession with the thread id as session id.
func WithSessionFactory(f func(threadID string) *af.Session) Option {
	return func(h *Handler) { h.newSession = f }
}

// WithThreadTTL sets how long an idle thread and its session are kept.
// Zero or less keeps threads for the life of the handler. Defaults to
// [DefaultThreadTTL].
func WithThreadTTL(d time.Duration) Option {
	return func(h *Handler) { h.ttl = d }
}

// DefaultThreadTTL is how long an idle thread is kept by default.
const DefaultThreadTTL = 30 * time.Minute

// Handler is an http.Handler for AG-UI runs against one agent. Threads idle
// for longer than the thread TTL are dropped with their session; a client
// that comes back later starts from the history it resends.
type Handler struct {
	agent      *af.Agent
	logger     *slog.Logger
	newSession func(threadID string) *af.Session
	ttl        time.Duration
	now        func() time.Time

	mu      sync.Mutex
	threads map[string]*thread
}

// thread is the server side of an AG-UI thread. The client resends the full
// history on every run; known tracks what the session already holds so only
// new messages are passed to the agent.
type thread struct {
	mu      sync.Mutex
	session *af.Session
	known   ids

	active   int       // runs holding the thread, guarded by Handler.mu
	lastUsed time.Time // guarded by Handler.mu
}

// ids are the message and tool call ids a thread has recorded.
type ids struct {
	seen    map[string]bool // message ids
	calls   map[string]bool // tool call ids
	results map[string]bool // tool call ids that have a result
}

func newIDs() ids {
	return ids{seen: map[string]bool{}, calls: map[string]bool{}, results: map[string]bool{}}
}

func (x ids) merge(o ids) {
	maps.Copy(x.seen, o.seen)
	maps.Copy(x.calls, o.calls)
	maps.Copy(x.results, o.results)
}

// NewHandler creates a Handler for agent.
func NewHandler(agent *af.Agent, opts ...Option) *Handler {
	h := &Handler{
		agent:   agent,
		logger:  slog.Default(),
		ttl:     DefaultThreadTTL,
		now:     time.Now,
		threads: make(map[string]*thread),
	}
	h.newSession = func(threadID string) *af.Session {
		return agent.NewSession(af.WithSessionID(threadID))
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// acquire returns the thread for id, creating it if needed, and marks it in
// use until release. Idle threads past the TTL are evicted on the way.
func (h *Handler) acquire(id string) *thread {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.evictIdle()
	t, ok := h.threads[id]
	if !ok {
		t = &thread{session: h.newSession(id), known: newIDs()}
		h.threads[id] = t
	}
	t.active++
	return t
}

func (h *Handler) release(t *thread) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t.active--
	t.lastUsed = h.now()
}

func (h *Handler) evictIdle() {
	if h.ttl <= 0 {
		return
	}
	cutoff := h.now().Add(-h.ttl)
	for id, t := range h.threads {
		if t.active == 0 && t.lastUsed.Before(cutoff) {
			delete(h.threads, id)
			h.logger.Debug("agui thread evicted", "thread_id", id)
		}
	}
}

// ServeHTTP handles one AG-UI run.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var in RunAgentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if in.ThreadID == "" {
		in.ThreadID = uuid.NewString()
	}
	if in.RunID == "" {
		in.RunID = uuid.NewString()
	}

	ctx := r.Context()
	t := h.acquire(in.ThreadID)
	defer h.release(t)
	t.mu.Lock()
	defer t.mu.Unlock()

	sse := newSSEWriter(w)
	if err := sse.send(Event{Type: EventRunStarted, ThreadID: in.ThreadID, RunID: in.RunID}); err != nil {
		return
	}

	// Ids are recorded only once the run succeeds; after a failure the
	// client resends the same messages.
	pending := newIDs()
	messages := t.newMessages(in.Messages, pending)
	h.logger.DebugContext(ctx, "agui run started",
		"thread_id", in.ThreadID,
		"run_id", in.RunID,
		"new_messages", len(messages),
		"client_tools", len(in.Tools),
		"context_entries", len(in.Context),
	)

	if err := h.run(ctx, t, sse, messages, in, pending); err != nil {
		h.logger.WarnContext(ctx, "agui run failed", "thread_id", in.ThreadID, "run_id", in.RunID, "error", err)
		_ = sse.send(Event{Type: EventRunError, Message: err.Error()})
		return
	}
	t.known.merge(pending)
	_ = sse.send(Event{Type: EventRunFinished, ThreadID: in.ThreadID, RunID: in.RunID})
}

// newMessages converts the part of the client history the thread has not
// seen yet and notes its ids in pending.
func (t *thread) newMessages(in []InputMessage, pending ids) []af.Message {
	var out []af.Message
	for _, m := range in {
		if m.ID != "" && (t.known.seen[m.ID] || pending.seen[m.ID]) {
			continue
		}
		if m.Role == "tool" && (t.known.results[m.ToolCallID] || pending.results[m.ToolCallID]) {
			continue
		}
		if m.Role == "assistant" && m.text() == "" && len(m.ToolCalls) > 0 && t.knownCalls(m.ToolCalls, pending) {
			continue
		}
		if m.ID != "" {
			pending.seen[m.ID] = true
		}
		msg, ok := m.toMessage()
		if !ok {
			continue
		}
		for _, c := range msg.Contents {
			switch c := c.(type) {
			case *af.FunctionCallContent:
				pending.calls[c.CallID] = true
			case *af.FunctionResultContent:
				pending.results[c.CallID] = true
			}
		}
		out = append(out, msg)
	}
	return out
}

func (t *thread) knownCalls(calls []InputToolCall, pending ids) bool {
	for _, c := range calls {
		if !t.known.calls[c.ID] && !pending.calls[c.ID] {
			return false
		}
	}
	return true
}

func (h *Handler) run(ctx context.Context, t *thread, sse *sseWriter, messages []af.Message, in RunAgentInput, pending ids) error {
	opts := []af.RunOption{
		af.WithSession(t.session),
		af.WithRunTools(clientTools(in.Tools)...),
	}
	if instructions := contextInstructions(in.Context); instructions != "" {
		opts = append(opts, af.WithRunOptions(&af.ChatOptions{Instructions: instructions}))
	}
	stream, err := h.agent.RunStream(ctx, messages, opts...)
	if err != nil {
		return err
	}
	defer stream.Close()

	ev := eventWriter{sse: sse, ids: pending}
	for u, err := range stream.All(ctx) {
		if err != nil {
			return err
		}
		if err := ev.update(u); err != nil {
			return err
		}
	}
	return ev.closeText()
}

// eventWriter maps agent updates onto AG-UI events.
type eventWriter struct {
	sse    *sseWriter
	ids    ids
	textID string
}

func (e *eventWriter) update(u af.AgentResponseUpdate) error {
	if u.MessageID != "" {
		e.ids.seen[u.MessageID] = true
	}
	for _, c := range u.Contents {
		var err error
		switch c := c.(type) {
		case *af.TextContent:
			err = e.text(u.MessageID, c.Text)
		case *af.FunctionCallContent:
			err = e.toolCall(u.MessageID, c)
		case *af.FunctionResultContent:
			err = e.toolResult(u.MessageID, c)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *eventWriter) text(messageID, delta string) error {
	if delta == "" {
		return nil
	}
	if messageID == "" {
		messageID = e.textID
	}
	if e.textID != messageID || messageID == "" {
		if err := e.closeText(); err != nil {
			return err
		}
		if messageID == "" {
			messageID = uuid.NewString()
		}
		e.textID = messageID
		if err := e.sse.send(Event{Type: EventTextMessageStart, MessageID: messageID, Role: "assistant"}); err != nil {
			return err
		}
	}
	return e.sse.send(Event{Type: EventTextMessageContent, MessageID: messageID, Delta: delta})
}

func (e *eventWriter) closeText() error {
	if e.textID == "" {
		return nil
	}
	id := e.textID
	e.textID = ""
	return e.sse.send(Event{Type: EventTextMessageEnd, MessageID: id})
}

func (e *eventWriter) toolCall(parentID string, c *af.FunctionCallContent) error {
	if err := e.closeText(); err != nil {
		return err
	}
	e.ids.calls[c.CallID] = true
	if err := e.sse.send(Event{
		Type:            EventToolCallStart,
		ToolCallID:      c.CallID,
		ToolCallName:    c.Name,
		ParentMessageID: parentID,
	}); err != nil {
		return err
	}
	if c.Arguments != "" {
		if err := e.sse.send(Event{Type: EventToolCallArgs, ToolCallID: c.CallID, Delta: c.Arguments}); err != nil {
			return err
		}
	}
	return e.sse.send(Event{Type: EventToolCallEnd, ToolCallID: c.CallID})
}

func (e *eventWriter) toolResult(messageID string, c *af.FunctionResultContent) error {
	if err := e.closeText(); err != nil {
		return err
	}
	e.ids.results[c.CallID] = true
	if messageID == "" {
		messageID = uuid.NewString()
	}
	return e.sse.send(Event{
		Type:       EventToolCallResult,
		MessageID:  messageID,
		ToolCallID: c.CallID,
		Content:    resultText(c.Result),
		Role:       "tool",
	})
}

func resultText(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
