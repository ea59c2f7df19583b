// Copyright (c) Microsoft. All rights reserved.

// Package server exposes an agent, or a workflow wrapped as one, over HTTP:
// a health check, an agent card, a simple /invoke endpoint and the A2A
// JSON-RPC methods message/send and tasks/get.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// Runner is anything that runs like an agent.
type Runner interface {
	Name() string
	Description() string
	Run(ctx context.Context, messages []af.Message, opts ...af.RunOption) (*af.AgentResponse, error)
}

// sessionRunner is a Runner that keeps conversation state across calls.
type sessionRunner interface {
	NewSession(opts ...af.SessionOption) *af.Session
}

// InvokeRequest is the JSON body for POST /invoke.
type InvokeRequest struct {
	Input          string         `json:"input"`
	ConversationID string         `json:"conversationId,omitempty"`
	Context        map[string]any `json:"context,omitempty"`
}

// InvokeResponse is the JSON body returned from POST /invoke.
type InvokeResponse struct {
	Output         string          `json:"output"`
	ConversationID string          `json:"conversationId,omitempty"`
	Messages       []OutputMessage `json:"messages,omitempty"`
}

// OutputMessage is one authored message of a run's output.
type OutputMessage struct {
	Author string `json:"author,omitempty"`
	Text   string `json:"text"`
}

// Option configures a Server.
type Option func(*Server)

// WithAPIKey requires "Authorization: Bearer <key>" on /invoke and message/send.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// WithMetrics serves h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithBaseURL fixes the URL advertised in the agent card. By default it is
// derived from the request and its X-Forwarded-* headers.
func WithBaseURL(u string) Option {
	return func(s *Server) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithVersion sets the version advertised in the agent card.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithSessionTTL sets how long the session of an idle conversation is kept.
// Zero or less keeps sessions for the life of the server. Defaults to
// [DefaultSessionTTL].
func WithSessionTTL(d time.Duration) Option {
	return func(s *Server) { s.ttl = d }
}

// DefaultSessionTTL is how long an idle conversation is kept by default.
const DefaultSessionTTL = 30 * time.Minute

// Server is the HTTP handler for one Runner. Conversations unused for
// longer than the session TTL are forgotten; the next request with that id
// starts a new session.
type Server struct {
	runner  Runner
	apiKey  string
	baseURL string
	version string
	metrics http.Handler
	logger  *slog.Logger
	mux     *http.ServeMux
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*conversation
}

type conversation struct {
	session  *af.Session
	lastUsed time.Time
}

// New creates a Server for runner.
func New(runner Runner, opts ...Option) *Server {
	s := &Server{
		runner:   runner,
		version:  "1.0.0",
		logger:   slog.Default(),
		mux:      http.NewServeMux(),
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		sessions: make(map[string]*conversation),
	}
	for _, o := range opts {
		o(s)
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /.well-known/agent.json", s.handleAgentCard)
	s.mux.HandleFunc("GET /.well-known/agent-card.json", s.handleAgentCard)
	s.mux.HandleFunc("POST /invoke", s.handleInvoke)
	s.mux.HandleFunc("POST /{$}", s.handleA2A)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.DebugContext(r.Context(), "http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	return Serve(ctx, addr, s)
}

// Serve serves h on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AgentCard is the A2A agent card.
type AgentCard struct {
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	URL                string         `json:"url"`
	Version            string         `json:"version"`
	Capabilities       map[string]any `json:"capabilities"`
	DefaultInputModes  []string       `json:"defaultInputModes"`
	DefaultOutputModes []string       `json:"defaultOutputModes"`
	Skills             []AgentSkill   `json:"skills"`
	Authentication     map[string]any `json:"authentication"`
}

// AgentSkill is a skill entry of an AgentCard.
type AgentSkill struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleAgentCard(w http.ResponseWriter, r *http.Request) {
	schemes := []map[string]any{}
	if s.apiKey != "" {
		schemes = append(schemes, map[string]any{"scheme": "bearer"})
	}
	name := s.runner.Name()
	writeJSON(w, http.StatusOK, AgentCard{
		Name:               name,
		Description:        s.runner.Description(),
		URL:                s.resolveBaseURL(r) + "/",
		Version:            s.version,
		Capabilities:       map[string]any{"streaming": false},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills:             []AgentSkill{{ID: strings.ToLower(name), Name: name, Description: s.runner.Description()}},
		Authentication:     map[string]any{"schemes": schemes},
	})
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.authorized(r) {
		s.logger.WarnContext(ctx, "unauthorized invoke", "remote", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "input is required"})
		return
	}

	resp, err := s.run(ctx, req)
	if err != nil {
		s.logger.ErrorContext(ctx, "invoke failed", "conversation_id", req.ConversationID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "agent execution failed"})
		return
	}

	msgs := outputMessages(resp)
	writeJSON(w, http.StatusOK, InvokeResponse{
		Output:         outputText(msgs),
		ConversationID: req.ConversationID,
		Messages:       msgs,
	})
}

// run executes one turn. A non-empty conversation id reuses its session when
// the runner keeps sessions. Request context becomes extra instructions.
func (s *Server) run(ctx context.Context, req InvokeRequest) (*af.AgentResponse, error) {
	var opts []af.RunOption
	if session := s.session(req.ConversationID); session != nil {
		opts = append(opts, af.WithSession(session))
	}
	if instructions := contextInstructions(req.Context); instructions != "" {
		opts = append(opts, af.WithRunOptions(&af.ChatOptions{Instructions: instructions}))
	}
	return s.runner.Run(ctx, []af.Message{af.NewUserMessage(req.Input)}, opts...)
}

// contextInstructions lists the request context as key: value lines, sorted
// by key.
func contextInstructions(c map[string]any) string {
	if len(c) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Request context:")
	for _, k := range slices.Sorted(maps.Keys(c)) {
		fmt.Fprintf(&b, "\n%s: %v", k, c[k])
	}
	return b.String()
}

func (s *Server) session(id string) *af.Session {
	sr, ok := s.runner.(sessionRunner)
	if !ok {
		return nil
	}
	if id == "" {
		return sr.NewSession()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.ttl > 0 {
		for cid, c := range s.sessions {
			if now.Sub(c.lastUsed) > s.ttl {
				delete(s.sessions, cid)
			}
		}
	}
	c, ok := s.sessions[id]
	if !ok {
		c = &conversation{session: sr.NewSession(af.WithSessionID(id))}
		s.sessions[id] = c
	}
	c.lastUsed = now
	return c.session
}

func (s *Server) authorized(r *http.Request) bool {
	return s.apiKey == "" || bearer(r) == s.apiKey
}

func bearer(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return token
}

// outputMessages keeps the assistant messages that carry text.
func outputMessages(resp *af.AgentResponse) []OutputMessage {
	var out []OutputMessage
	for i := range resp.Messages {
		m := &resp.Messages[i]
		if m.Role != af.RoleAssistant {
			continue
		}
		if text := strings.TrimSpace(m.Text()); text != "" {
			out = append(out, OutputMessage{Author: m.AuthorName, Text: text})
		}
	}
	return out
}

// outputText joins the messages, labelling each with its author when more
// than one author contributed.
func outputText(msgs []OutputMessage) string {
	authors := make(map[string]bool)
	for _, m := range msgs {
		authors[m.Author] = true
	}
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		if len(authors) > 1 && m.Author != "" {
			parts[i] = fmt.Sprintf("%s: %s", m.Author, m.Text)
		} else {
			parts[i] = m.Text
		}
	}
	return strings.Join(parts, "\n\n")
}

func (s *Server) resolveBaseURL(r *http.Request) string {
	if s.baseURL != "" {
		return s.baseURL
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Warn("write response", "error", err)
	}
}

func newMessageID() string { return uuid.NewString() }
