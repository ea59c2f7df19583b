// Copyright (c) Microsoft. All rights reserved.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

// ledgerAttempts is how often the manager is asked for a progress ledger
// before a malformed answer fails the run.
const ledgerAttempts = 3

// MagenticOptions bounds a Magentic run. Zero fields take the values from
// [DefaultMagenticOptions]. A negative MaxStallCount or MaxResetCount means
// none: with MaxResetCount < 0 the first stall past the limit ends the run
// instead of resetting the plan.
type MagenticOptions struct {
	// MaxRoundCount caps the number of participant turns.
	MaxRoundCount int
	// MaxStallCount is how many consecutive stalled rounds are tolerated
	// before the plan is reset.
	MaxStallCount int
	// MaxResetCount is how many resets are allowed before the run ends.
	MaxResetCount int
}

// DefaultMagenticOptions returns the limits used for unset options.
func DefaultMagenticOptions() MagenticOptions {
	return MagenticOptions{MaxRoundCount: 20, MaxStallCount: 3, MaxResetCount: 2}
}

func (o MagenticOptions) withDefaults() MagenticOptions {
	d := DefaultMagenticOptions()
	if o.MaxRoundCount <= 0 {
		o.MaxRoundCount = d.MaxRoundCount
	}
	o.MaxStallCount = limit(o.MaxStallCount, d.MaxStallCount)
	o.MaxResetCount = limit(o.MaxResetCount, d.MaxResetCount)
	return o
}

func limit(v, def int) int {
	switch {
	case v == 0:
		return def
	case v < 0:
		return 0
	}
	return v
}

// MagenticBuilder configures a manager-led workflow.
//
//	wf, err := workflow.NewMagenticBuilder().
//	    Participants(usersAgent, managerAgent, chefAgent).
//	    WithManager(orchestrator, workflow.MagenticOptions{MaxRoundCount: 20, MaxStallCount: 4, MaxResetCount: 1}).
//	    Build()
type MagenticBuilder struct {
	name         string
	description  string
	participants []Participant
	manager      Participant
	opts         MagenticOptions
	logger       *slog.Logger
}

// NewMagenticBuilder returns an empty builder.
func NewMagenticBuilder() *MagenticBuilder {
	return &MagenticBuilder{name: "MagenticWorkflow"}
}

// Name sets the workflow name.
func (b *MagenticBuilder) Name(name string) *MagenticBuilder {
	b.name = name
	return b
}

// Description sets the workflow description.
func (b *MagenticBuilder) Description(desc string) *MagenticBuilder {
	b.description = desc
	return b
}

// Participants appends team members the manager can route work to.
func (b *MagenticBuilder) Participants(ps ...Participant) *MagenticBuilder {
	b.participants = append(b.participants, ps...)
	return b
}

// WithManager sets the orchestrating agent and the run limits. The manager
// plans, writes progress ledgers and the final answer; it should not carry
// tools of its own.
func (b *MagenticBuilder) WithManager(manager Participant, opts MagenticOptions) *MagenticBuilder {
	b.manager = manager
	b.opts = opts
	return b
}

// WithLogger sets the logger. Defaults to slog.Default().
func (b *MagenticBuilder) WithLogger(l *slog.Logger) *MagenticBuilder {
	b.logger = l
	return b
}

// Build validates the configuration.
func (b *MagenticBuilder) Build() (*MagenticWorkflow, error) {
	if err := validateParticipants(b.participants); err != nil {
		return nil, err
	}
	if b.manager == nil {
		return nil, ErrNoManager
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]Participant, len(b.participants))
	for _, p := range b.participants {
		byName[p.Name()] = p
	}
	return &MagenticWorkflow{
		name:         b.name,
		description:  b.description,
		participants: append([]Participant(nil), b.participants...),
		byName:       byName,
		manager:      b.manager,
		opts:         b.opts.withDefaults(),
		logger:       logger,
	}, nil
}

// MagenticWorkflow is a manager-led multi-agent workflow.
type MagenticWorkflow struct {
	name         string
	description  string
	participants []Participant
	byName       map[string]Participant
	manager      Participant
	opts         MagenticOptions
	logger       *slog.Logger
}

var _ Workflow = (*MagenticWorkflow)(nil)

func (w *MagenticWorkflow) Name() string        { return w.name }
func (w *MagenticWorkflow) Description() string { return w.description }

// Options returns the effective run limits.
func (w *MagenticWorkflow) Options() MagenticOptions { return w.opts }

// Participants returns the team members in registration order.
func (w *MagenticWorkflow) Participants() []Participant {
	return append([]Participant(nil), w.participants...)
}

// Run executes the workflow and returns the manager's final answer.
func (w *MagenticWorkflow) Run(ctx context.Context, messages []af.Message) (*Result, error) {
	return collect(ctx, w.execute, messages)
}

// RunStream executes the workflow, emitting orchestrator messages and
// participant updates as they happen.
func (w *MagenticWorkflow) RunStream(ctx context.Context, messages []af.Message) (*af.ResponseStream[Event], error) {
	return stream(ctx, w.execute, messages), nil
}

// magenticRun holds the state of one execution.
type magenticRun struct {
	w    *MagenticWorkflow
	emit emitFunc

	input        []af.Message
	task         string
	facts        string
	plan         string
	conversation []af.Message

	round, stalls, resets int
}

func (w *MagenticWorkflow) execute(ctx context.Context, input []af.Message, emit emitFunc) ([]af.Message, error) {
	r := &magenticRun{w: w, emit: emit, input: input, task: taskText(input)}
	if r.task == "" {
		return nil, fmt.Errorf("%w: empty task", ErrInvalidWorkflow)
	}

	if err := r.initialPlan(ctx); err != nil {
		return nil, err
	}

	for {
		if r.round >= w.opts.MaxRoundCount {
			w.logger.InfoContext(ctx, "magentic round limit reached", "rounds", r.round)
			return r.finalAnswer(ctx)
		}
		r.round++

		ledger, err := r.progressLedger(ctx)
		if err != nil {
			return nil, err
		}
		if ledger.IsRequestSatisfied.Answer {
			w.logger.DebugContext(ctx, "magentic request satisfied", "round", r.round)
			return r.finalAnswer(ctx)
		}

		speaker := strings.TrimSpace(ledger.NextSpeaker.Answer)
		next, known := w.byName[speaker]
		if !known {
			w.logger.WarnContext(ctx, "magentic manager chose an unknown speaker", "speaker", speaker)
		}

		if !known || !ledger.IsProgressBeingMade.Answer || ledger.IsInLoop.Answer {
			r.stalls++
		} else if r.stalls > 0 {
			r.stalls--
		}

		if r.stalls > w.opts.MaxStallCount {
			r.resets++
			if r.resets > w.opts.MaxResetCount {
				w.logger.InfoContext(ctx, "magentic reset limit reached", "resets", r.resets-1)
				return r.finalAnswer(ctx)
			}
			if err := r.reset(ctx); err != nil {
				return nil, err
			}
			continue
		}
		if !known {
			continue
		}

		if err := r.delegate(ctx, next, ledger.InstructionOrQuestion.Answer); err != nil {
			return nil, err
		}
	}
}

// initialPlan gathers facts and a plan and seeds the conversation with the task
// ledger.
func (r *magenticRun) initialPlan(ctx context.Context) error {
	factsQ := af.NewUserMessage(fmt.Sprintf(taskFactsPrompt, r.task))
	facts, err := r.ask(ctx, []af.Message{factsQ})
	if err != nil {
		return err
	}
	plan, err := r.ask(ctx, []af.Message{
		factsQ,
		af.NewAssistantMessage(facts),
		af.NewUserMessage(fmt.Sprintf(taskPlanPrompt, teamDescription(r.w.participants))),
	})
	if err != nil {
		return err
	}
	r.facts, r.plan = facts, plan
	return r.seed(ctx, KindPlan)
}

func (r *magenticRun) seed(ctx context.Context, kind OrchestratorKind) error {
	ledger := r.managerMessage(fmt.Sprintf(taskLedgerPrompt, r.task, teamDescription(r.w.participants), r.facts, r.plan))
	r.conversation = append(cloneMessages(r.input), ledger)
	return r.emit(Event{Type: EventOrchestrator, Source: r.w.manager.Name(), Kind: kind, Message: &ledger})
}

// progressLedger asks the manager to assess progress, retrying malformed
// answers.
func (r *magenticRun) progressLedger(ctx context.Context) (*ProgressLedger, error) {
	names := teamNames(r.w.participants)
	prompt := af.NewUserMessage(fmt.Sprintf(progressLedgerPrompt, r.task, teamDescription(r.w.participants), names, names))
	msgs := append(cloneMessages(r.conversation), prompt)

	var lastErr error
	for attempt := 1; attempt <= ledgerAttempts; attempt++ {
		text, err := r.ask(ctx, msgs)
		if err != nil {
			return nil, err
		}
		ledger, err := parseProgressLedger(text)
		if err == nil {
			msg := r.managerMessage(text)
			if err := r.emit(Event{Type: EventOrchestrator, Source: r.w.manager.Name(), Kind: KindLedger, Message: &msg, Ledger: ledger}); err != nil {
				return nil, err
			}
			return ledger, nil
		}
		lastErr = err
		r.w.logger.WarnContext(ctx, "magentic progress ledger rejected", "attempt", attempt, "error", err)
	}
	return nil, fmt.Errorf("%w: %w after %d attempts", ErrManager, lastErr, ledgerAttempts)
}

// reset refreshes facts and plan from what was learned and restarts the
// conversation.
func (r *magenticRun) reset(ctx context.Context) error {
	r.w.logger.InfoContext(ctx, "magentic reset", "reset", r.resets, "round", r.round)
	r.stalls = 0

	facts, err := r.ask(ctx, append(cloneMessages(r.conversation),
		af.NewUserMessage(fmt.Sprintf(updateFactsPrompt, r.task, r.facts))))
	if err != nil {
		return err
	}
	plan, err := r.ask(ctx, append(cloneMessages(r.conversation),
		af.NewUserMessage(fmt.Sprintf(updatePlanPrompt, teamDescription(r.w.participants)))))
	if err != nil {
		return err
	}
	r.facts, r.plan = facts, plan
	return r.seed(ctx, KindReset)
}

// delegate hands the instruction to a participant and records its answer.
func (r *magenticRun) delegate(ctx context.Context, p Participant, instruction string) error {
	msg := r.managerMessage(instruction)
	if err := r.emit(Event{Type: EventOrchestrator, Source: r.w.manager.Name(), Kind: KindInstruction, Message: &msg}); err != nil {
		return err
	}
	r.conversation = append(r.conversation, msg)

	// The participant receives the instruction as the latest user turn.
	request := append(cloneMessages(r.conversation[:len(r.conversation)-1]), af.Message{
		Role:       af.RoleUser,
		AuthorName: r.w.manager.Name(),
		Contents:   af.Contents{&af.TextContent{Text: instruction}},
	})
	resp, err := invoke(ctx, p, request, r.emit)
	if err != nil {
		return err
	}
	if answer, ok := finalAssistant(resp, p.Name()); ok {
		r.conversation = append(r.conversation, answer)
	}
	return nil
}

func (r *magenticRun) finalAnswer(ctx context.Context) ([]af.Message, error) {
	text, err := r.ask(ctx, append(cloneMessages(r.conversation),
		af.NewUserMessage(fmt.Sprintf(finalAnswerPrompt, r.task))))
	if err != nil {
		return nil, err
	}
	final := r.managerMessage(text)
	if err := r.emit(Event{Type: EventOrchestrator, Source: r.w.manager.Name(), Kind: KindFinal, Message: &final}); err != nil {
		return nil, err
	}
	return []af.Message{final}, nil
}

func (r *magenticRun) ask(ctx context.Context, msgs []af.Message) (string, error) {
	resp, err := r.w.manager.Run(ctx, msgs)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrManager, err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func (r *magenticRun) managerMessage(text string) af.Message {
	return af.Message{
		Role:       af.RoleAssistant,
		AuthorName: r.w.manager.Name(),
		MessageID:  uuid.NewString(),
		Contents:   af.Contents{&af.TextContent{Text: text}},
	}
}

func taskText(msgs []af.Message) string {
	var parts []string
	for _, m := range msgs {
		if m.Role == af.RoleUser {
			if t := strings.TrimSpace(m.Text()); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, "\n")
}
