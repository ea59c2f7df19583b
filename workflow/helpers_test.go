// Copyright (c) Microsoft. All rights reserved.

package workflow_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// scripted is a participant whose answer is computed from the request.
type scripted struct {
	name  string
	desc  string
	reply func(ctx context.Context, msgs []af.Message) (string, error)

	mu    sync.Mutex
	calls [][]af.Message
}

func newScripted(name string, reply func(ctx context.Context, msgs []af.Message) (string, error)) *scripted {
	return &scripted{name: name, desc: name + " agent", reply: reply}
}

func fixed(name, answer string) *scripted {
	return newScripted(name, func(context.Context, []af.Message) (string, error) { return answer, nil })
}

func (s *scripted) Name() string        { return s.name }
func (s *scripted) Description() string { return s.desc }

func (s *scripted) record(msgs []af.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, append([]af.Message(nil), msgs...))
}

func (s *scripted) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *scripted) lastCall() []af.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return nil
	}
	return s.calls[len(s.calls)-1]
}

func (s *scripted) Run(ctx context.Context, msgs []af.Message, _ ...af.RunOption) (*af.AgentResponse, error) {
	s.record(msgs)
	text, err := s.reply(ctx, msgs)
	if err != nil {
		return nil, err
	}
	return &af.AgentResponse{
		Messages: []af.Message{af.NewAssistantMessage(text)},
		Usage:    af.UsageDetails{InputTokens: 1, OutputTokens: 1, TotalTokens: 2},
	}, nil
}

func (s *scripted) RunStream(ctx context.Context, msgs []af.Message, _ ...af.RunOption) (*af.AgentResponseStream, error) {
	s.record(msgs)
	id := uuid.NewString()
	return af.NewAgentResponseStream(af.NewResponseStream(ctx, func(ctx context.Context, ch chan<- af.AgentResponseUpdate) error {
		text, err := s.reply(ctx, msgs)
		if err != nil {
			return err
		}
		select {
		case ch <- af.AgentResponseUpdate{
			Role:      af.RoleAssistant,
			MessageID: id,
			Contents:  af.Contents{&af.TextContent{Text: text}},
			Usage:     af.UsageDetails{InputTokens: 1, OutputTokens: 1, TotalTokens: 2},
		}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})), nil
}

func lastText(msgs []af.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Text()
}
