// Copyright (c) Microsoft. All rights reserved.

package workflow

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// ParticipantResult is one participant's answer in a concurrent run.
type ParticipantResult struct {
	Name     string
	Response *af.AgentResponse
}

// Aggregator turns the input and the participants' answers, in participant
// order, into the workflow output.
type Aggregator func(ctx context.Context, input []af.Message, results []ParticipantResult) ([]af.Message, error)

// ConcurrentBuilder configures a workflow that sends the same input to all
// participants at once.
//
//	wf, err := workflow.NewConcurrentBuilder().
//	    Participants(researcher, marketer, legal).
//	    Build()
type ConcurrentBuilder struct {
	name         string
	description  string
	participants []Participant
	aggregator   Aggregator
}

// NewConcurrentBuilder returns an empty builder.
func NewConcurrentBuilder() *ConcurrentBuilder {
	return &ConcurrentBuilder{name: "ConcurrentWorkflow"}
}

// Name sets the workflow name.
func (b *ConcurrentBuilder) Name(name string) *ConcurrentBuilder {
	b.name = name
	return b
}

// Description sets the workflow description.
func (b *ConcurrentBuilder) Description(desc string) *ConcurrentBuilder {
	b.description = desc
	return b
}

// Participants appends participants. Their order is the output order.
func (b *ConcurrentBuilder) Participants(ps ...Participant) *ConcurrentBuilder {
	b.participants = append(b.participants, ps...)
	return b
}

// WithAggregator replaces [DefaultAggregator].
func (b *ConcurrentBuilder) WithAggregator(fn Aggregator) *ConcurrentBuilder {
	b.aggregator = fn
	return b
}

// Build validates the configuration.
func (b *ConcurrentBuilder) Build() (*ConcurrentWorkflow, error) {
	if err := validateParticipants(b.participants); err != nil {
		return nil, err
	}
	agg := b.aggregator
	if agg == nil {
		agg = DefaultAggregator
	}
	return &ConcurrentWorkflow{
		name:         b.name,
		description:  b.description,
		participants: append([]Participant(nil), b.participants...),
		aggregator:   agg,
	}, nil
}

// ConcurrentWorkflow runs its participants in parallel.
type ConcurrentWorkflow struct {
	name         string
	description  string
	participants []Participant
	aggregator   Aggregator
}

var _ Workflow = (*ConcurrentWorkflow)(nil)

func (w *ConcurrentWorkflow) Name() string        { return w.name }
func (w *ConcurrentWorkflow) Description() string { return w.description }

// Participants returns the participants in output order.
func (w *ConcurrentWorkflow) Participants() []Participant {
	return append([]Participant(nil), w.participants...)
}

// Run executes the workflow and returns the aggregated output.
func (w *ConcurrentWorkflow) Run(ctx context.Context, messages []af.Message) (*Result, error) {
	return collect(ctx, w.execute, messages)
}

// RunStream executes the workflow, emitting participant updates as they
// arrive. Updates from different participants interleave.
func (w *ConcurrentWorkflow) RunStream(ctx context.Context, messages []af.Message) (*af.ResponseStream[Event], error) {
	return stream(ctx, w.execute, messages), nil
}

func (w *ConcurrentWorkflow) execute(ctx context.Context, input []af.Message, emit emitFunc) ([]af.Message, error) {
	results := make([]ParticipantResult, len(w.participants))

	// The first failure cancels the remaining participants.
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range w.participants {
		g.Go(func() error {
			resp, err := invoke(gctx, p, cloneMessages(input), emit)
			if err != nil {
				return err
			}
			results[i] = ParticipantResult{Name: p.Name(), Response: resp}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.WarnContext(ctx, "concurrent workflow failed", "workflow", w.name, "error", err)
		return nil, err
	}

	slog.DebugContext(ctx, "concurrent workflow completed", "workflow", w.name, "participants", len(results))
	return w.aggregator(ctx, input, results)
}

// DefaultAggregator returns the user messages of the input followed by each
// participant's final assistant message, tagged with the participant name.
// Participants that produced no assistant text are skipped.
func DefaultAggregator(_ context.Context, input []af.Message, results []ParticipantResult) ([]af.Message, error) {
	var out []af.Message
	for _, m := range input {
		if m.Role == af.RoleUser {
			out = append(out, m)
		}
	}
	for _, r := range results {
		if m, ok := finalAssistant(r.Response, r.Name); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func cloneMessages(msgs []af.Message) []af.Message {
	return append([]af.Message(nil), msgs...)
}
