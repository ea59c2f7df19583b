// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// InvocationConfig bounds the function calling loop of a run.
type InvocationConfig struct {
	// MaxIterations caps the model calls of one run. Default 40.
	MaxIterations int

	// MaxConsecutiveErrors aborts the run after this many failed tool calls
	// in a row. Default 3.
	MaxConsecutiveErrors int

	// TerminateOnUnknown fails the run when the model calls a tool it was
	// not given, instead of answering with an error result.
	TerminateOnUnknown bool

	// IncludeDetailedErrors sends the tool's error text to the model rather
	// than a generic message.
	IncludeDetailedErrors bool
}

// DefaultInvocationConfig returns the defaults.
func DefaultInvocationConfig() InvocationConfig {
	return InvocationConfig{MaxIterations: 40, MaxConsecutiveErrors: 3}
}

func (c InvocationConfig) withDefaults() InvocationConfig {
	d := DefaultInvocationConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.MaxConsecutiveErrors <= 0 {
		c.MaxConsecutiveErrors = d.MaxConsecutiveErrors
	}
	return c
}

const (
	unknownToolResult = "error: unknown tool"
	toolErrorResult   = "error invoking tool"
	toolLimitResult   = "error: tool invocation limit reached"
)

// functionLoop alternates model turns and tool calls until the model answers
// without calls, a call needs approval or belongs to the caller, or a limit
// is hit. A loop serves a single run.
type functionLoop struct {
	turn    ChatHandler
	config  InvocationConfig
	tools   map[string]Tool
	invoker FunctionHandler
	logger  *slog.Logger

	// emit receives what the turn handler did not stream itself: function
	// calls, tool results and approval requests. Nil for non-streaming runs.
	emit func(Message)

	invocations map[string]int
	failures    int
}

func newFunctionLoop(turn ChatHandler, tools []Tool, config InvocationConfig, mws []FunctionMiddleware, logger *slog.Logger) *functionLoop {
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
	}
	var invoke FunctionHandler = func(ctx context.Context, t Tool, args json.RawMessage) (any, error) {
		return t.Invoke(ctx, args)
	}
	return &functionLoop{
		turn:        turn,
		config:      config.withDefaults(),
		tools:       byName,
		invoker:     chain(invoke, mws),
		logger:      logger,
		invocations: make(map[string]int),
	}
}

func (l *functionLoop) publish(msgs ...Message) {
	if l.emit == nil {
		return
	}
	for _, m := range msgs {
		if len(m.Contents) > 0 {
			l.emit(m)
		}
	}
}

// run executes the loop. The response holds every message produced over all
// turns, with usage summed.
func (l *functionLoop) run(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error) {
	out := &ChatResponse{}
	for range l.config.MaxIterations {
		resp, err := l.turn(ctx, messages, opts)
		if err != nil {
			return nil, err
		}
		out.ResponseID = resp.ResponseID
		out.ModelID = resp.ModelID
		out.FinishReason = resp.FinishReason
		out.Raw = resp.Raw
		out.Usage.Add(resp.Usage)

		var calls []*FunctionCallContent
		for i := range resp.Messages {
			calls = append(calls, resp.Messages[i].FunctionCalls()...)
		}
		if len(calls) == 0 {
			out.Messages = append(out.Messages, resp.Messages...)
			return out, nil
		}

		b, err := l.invokeCalls(ctx, calls)
		if err != nil {
			return nil, err
		}
		assistant := withoutCalls(resp.Messages, b.pending)
		out.Messages = append(out.Messages, assistant...)
		out.Messages = append(out.Messages, b.results...)
		l.publish(callsOnly(assistant)...)
		l.publish(b.results...)

		if len(b.pending) > 0 {
			approval := approvalMessage(b.pending)
			out.Messages = append(out.Messages, approval)
			l.publish(approval)
			return out, nil
		}
		if b.handOff {
			return out, nil
		}
		messages = append(messages, assistant...)
		messages = append(messages, b.results...)
	}
	return nil, fmt.Errorf("%w (%d)", ErrIterationLimit, l.config.MaxIterations)
}

// batch is the outcome of one round of function calls.
type batch struct {
	results []Message
	// pending calls wait for approval.
	pending []*FunctionCallContent
	// handOff is set when a declaration-only tool was called.
	handOff bool
}

func (l *functionLoop) invokeCalls(ctx context.Context, calls []*FunctionCallContent) (batch, error) {
	var b batch
	for _, call := range calls {
		tool, ok := l.tools[call.Name]
		switch {
		case !ok:
			if l.config.TerminateOnUnknown {
				return b, fmt.Errorf("%w %q", ErrUnknownTool, call.Name)
			}
			l.logger.WarnContext(ctx, "unknown tool called", "tool", call.Name)
			if err := l.recordFailure(); err != nil {
				return b, err
			}
			b.results = append(b.results, NewToolMessage(call.CallID, unknownToolResult))
		case tool.Approval() == ApprovalAlways:
			b.pending = append(b.pending, call)
		case tool.DeclarationOnly():
			b.handOff = true
		default:
			result, err := l.invoke(ctx, tool, call)
			if err != nil {
				return b, err
			}
			b.results = append(b.results, NewToolMessage(call.CallID, result))
		}
	}
	return b, nil
}

// invoke runs one call through the function middleware. Failures turn into
// error results for the model until MaxConsecutiveErrors is reached.
func (l *functionLoop) invoke(ctx context.Context, tool Tool, call *FunctionCallContent) (any, error) {
	if lim, ok := tool.(invocationLimiter); ok && lim.MaxInvocations() > 0 && l.invocations[tool.Name()] >= lim.MaxInvocations() {
		l.logger.WarnContext(ctx, "tool invocation limit reached", "tool", tool.Name(), "limit", lim.MaxInvocations())
		return toolLimitResult, nil
	}
	l.invocations[tool.Name()]++

	result, err := l.invoker(ctx, tool, json.RawMessage(call.Arguments))
	if err == nil {
		l.failures = 0
		return result, nil
	}
	l.logger.WarnContext(ctx, "tool invocation failed", "tool", call.Name, "error", err, "consecutive_errors", l.failures+1)
	if err := l.recordFailure(); err != nil {
		return nil, err
	}
	if l.config.IncludeDetailedErrors {
		return err.Error(), nil
	}
	return toolErrorResult, nil
}

func (l *functionLoop) recordFailure() error {
	l.failures++
	if l.failures >= l.config.MaxConsecutiveErrors {
		return fmt.Errorf("%w: %d consecutive tool errors", ErrToolExecution, l.failures)
	}
	return nil
}

func approvalMessage(calls []*FunctionCallContent) Message {
	m := Message{Role: RoleAssistant, MessageID: uuid.NewString()}
	for _, c := range calls {
		m.Contents = append(m.Contents, &ApprovalRequestContent{CallID: c.CallID, Name: c.Name, Arguments: c.Arguments})
	}
	return m
}

// withoutCalls removes the given calls from msgs, dropping messages left
// empty.
func withoutCalls(msgs []Message, drop []*FunctionCallContent) []Message {
	if len(drop) == 0 {
		return msgs
	}
	ids := make(map[string]bool, len(drop))
	for _, c := range drop {
		ids[c.CallID] = true
	}
	var out []Message
	for _, m := range msgs {
		kept := make(Contents, 0, len(m.Contents))
		for _, c := range m.Contents {
			if fc, ok := c.(*FunctionCallContent); ok && ids[fc.CallID] {
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) > 0 {
			m.Contents = kept
			out = append(out, m)
		}
	}
	return out
}

// callsOnly keeps the function calls of msgs. Streaming runs have already
// sent the text.
func callsOnly(msgs []Message) []Message {
	var out []Message
	for _, m := range msgs {
		if calls := m.FunctionCalls(); len(calls) > 0 {
			cs := make(Contents, len(calls))
			for i, c := range calls {
				cs[i] = c
			}
			out = append(out, Message{Role: m.Role, MessageID: m.MessageID, AuthorName: m.AuthorName, Contents: cs})
		}
	}
	return out
}
