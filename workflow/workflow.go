// Copyright (c) Microsoft. All rights reserved.

// Package workflow composes agents into multi-agent workflows.
//
// Two orchestration patterns are provided:
//
//   - [ConcurrentBuilder] fans the same input out to every participant in
//     parallel and aggregates their answers.
//   - [MagenticBuilder] lets a manager agent plan, pick the next speaker each
//     round, detect stalls and produce the final answer.
//
// A workflow runs to completion with [Workflow.Run] or emits [Event] values
// as it progresses with [Workflow.RunStream]. [AsAgent] wraps a workflow so
// it can be used anywhere an agent is expected.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// Participant is an agent a workflow can route work to.
// [*agentframework.Agent] satisfies it, as does the agent returned by [AsAgent].
type Participant interface {
	Name() string
	Description() string
	Run(ctx context.Context, messages []af.Message, opts ...af.RunOption) (*af.AgentResponse, error)
	RunStream(ctx context.Context, messages []af.Message, opts ...af.RunOption) (*af.AgentResponseStream, error)
}

// Workflow is a runnable multi-agent composition.
type Workflow interface {
	Name() string
	Description() string
	Run(ctx context.Context, messages []af.Message) (*Result, error)
	RunStream(ctx context.Context, messages []af.Message) (*af.ResponseStream[Event], error)
}

// EventType identifies the kind of [Event].
type EventType string

const (
	// EventOrchestrator carries a message from the orchestrating manager.
	EventOrchestrator EventType = "orchestrator"
	// EventAgentDelta carries one streaming update from a participant.
	EventAgentDelta EventType = "agent_delta"
	// EventAgentResponse carries a participant's complete response.
	EventAgentResponse EventType = "agent_response"
	// EventOutput carries the workflow's final output. It is the last event
	// of a successful run.
	EventOutput EventType = "output"
)

// OrchestratorKind classifies orchestrator events.
type OrchestratorKind string

const (
	KindPlan        OrchestratorKind = "plan"
	KindLedger      OrchestratorKind = "ledger"
	KindInstruction OrchestratorKind = "instruction"
	KindReset       OrchestratorKind = "reset"
	KindFinal       OrchestratorKind = "final"
)

// Event is something that happened during a workflow run. Which fields are
// set depends on Type.
type Event struct {
	Type   EventType
	Source string

	Kind    OrchestratorKind // EventOrchestrator
	Message *af.Message      // EventOrchestrator
	Ledger  *ProgressLedger  // EventOrchestrator with KindLedger

	Update   *af.AgentResponseUpdate // EventAgentDelta
	Response *af.AgentResponse       // EventAgentResponse

	Output []af.Message // EventOutput
}

// Result is the outcome of [Workflow.Run].
type Result struct {
	Outputs []af.Message
	Events  []Event
}

// Text returns the concatenated text of the output messages.
func (r *Result) Text() string {
	var b strings.Builder
	for _, m := range r.Outputs {
		b.WriteString(m.Text())
	}
	return b.String()
}

type emitFunc func(Event) error

// executor runs a workflow body, reporting progress through emit and
// returning the output messages.
type executor func(ctx context.Context, input []af.Message, emit emitFunc) ([]af.Message, error)

func collect(ctx context.Context, exec executor, input []af.Message) (*Result, error) {
	var (
		mu  sync.Mutex
		res Result
	)
	out, err := exec(ctx, input, func(e Event) error {
		mu.Lock()
		res.Events = append(res.Events, e)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Outputs = out
	res.Events = append(res.Events, Event{Type: EventOutput, Output: out})
	return &res, nil
}

func stream(ctx context.Context, exec executor, input []af.Message) *af.ResponseStream[Event] {
	return af.NewResponseStream(ctx, func(ctx context.Context, ch chan<- Event) error {
		emit := func(e Event) error {
			select {
			case ch <- e:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		out, err := exec(ctx, input, emit)
		if err != nil {
			return err
		}
		return emit(Event{Type: EventOutput, Output: out})
	})
}

// invoke runs one participant in streaming mode, forwarding its updates.
func invoke(ctx context.Context, p Participant, messages []af.Message, emit emitFunc) (*af.AgentResponse, error) {
	s, err := p.RunStream(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParticipant, p.Name(), err)
	}
	defer s.Close()

	for {
		u, ok, err := s.Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParticipant, p.Name(), err)
		}
		if !ok {
			break
		}
		if u.AuthorName == "" {
			u.AuthorName = p.Name()
		}
		if err := emit(Event{Type: EventAgentDelta, Source: p.Name(), Update: &u}); err != nil {
			return nil, err
		}
	}

	resp, err := s.FinalResponse(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParticipant, p.Name(), err)
	}
	if err := emit(Event{Type: EventAgentResponse, Source: p.Name(), Response: resp}); err != nil {
		return nil, err
	}
	return resp, nil
}

// finalAssistant returns the last assistant message with text, tagged with
// the author name. ok is false when the response holds no such message.
func finalAssistant(resp *af.AgentResponse, author string) (af.Message, bool) {
	if resp == nil {
		return af.Message{}, false
	}
	for i := len(resp.Messages) - 1; i >= 0; i-- {
		m := resp.Messages[i]
		if m.Role != af.RoleAssistant || m.Text() == "" {
			continue
		}
		return af.Message{
			Role:       af.RoleAssistant,
			AuthorName: author,
			MessageID:  m.MessageID,
			Contents:   af.Contents{&af.TextContent{Text: m.Text()}},
		}, true
	}
	return af.Message{}, false
}

func validateParticipants(ps []Participant) error {
	if len(ps) == 0 {
		return ErrNoParticipants
	}
	seen := make(map[string]bool, len(ps))
	for _, p := range ps {
		if p == nil || p.Name() == "" {
			return fmt.Errorf("%w: participants need a name", ErrInvalidWorkflow)
		}
		if seen[p.Name()] {
			return fmt.Errorf("%w: %q", ErrDuplicateParticipant, p.Name())
		}
		seen[p.Name()] = true
	}
	return nil
}
