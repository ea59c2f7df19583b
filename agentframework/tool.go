// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"bytes"
	"context"
	"encoding/json"
)

// ApprovalMode says whether a call needs a human decision before it runs.
type ApprovalMode string

const (
	ApprovalNever  ApprovalMode = "never"
	ApprovalAlways ApprovalMode = "always"
)

// Tool is a function the model can call.
type Tool interface {
	Name() string
	Description() string
	// Parameters is the JSON Schema of the arguments object.
	Parameters() json.RawMessage
	Invoke(ctx context.Context, args json.RawMessage) (any, error)
	// DeclarationOnly tools are offered to the model but never invoked by
	// the agent; a call to one ends the run and is left to the caller.
	DeclarationOnly() bool
	Approval() ApprovalMode
}

// invocationLimiter is implemented by tools that may only be called a
// limited number of times per run.
type invocationLimiter interface {
	MaxInvocations() int
}

// FunctionTool is a [Tool] backed by a Go function.
type FunctionTool struct {
	name            string
	description     string
	parameters      json.RawMessage
	fn              func(ctx context.Context, args json.RawMessage) (any, error)
	declarationOnly bool
	approval        ApprovalMode
	maxInvocations  int
}

// ToolOption configures a [FunctionTool].
type ToolOption func(*FunctionTool)

// WithApprovalMode sets the tool's approval mode.
func WithApprovalMode(m ApprovalMode) ToolOption {
	return func(t *FunctionTool) { t.approval = m }
}

// WithApprovalRequired is WithApprovalMode(ApprovalAlways).
func WithApprovalRequired() ToolOption { return WithApprovalMode(ApprovalAlways) }

// WithDeclarationOnly marks the tool declaration-only.
func WithDeclarationOnly() ToolOption {
	return func(t *FunctionTool) { t.declarationOnly = true }
}

// WithMaxInvocations caps how often the tool runs within one agent run.
// Calls past the cap are answered with an error result instead of running.
// n <= 0 means no cap.
func WithMaxInvocations(n int) ToolOption {
	return func(t *FunctionTool) { t.maxInvocations = n }
}

// NewTool creates a tool from a JSON Schema and a handler receiving the raw
// arguments. fn may be nil for declaration-only tools.
func NewTool(name, description string, parameters json.RawMessage, fn func(ctx context.Context, args json.RawMessage) (any, error), opts ...ToolOption) *FunctionTool {
	t := &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
		approval:    ApprovalNever,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewTypedTool creates a tool whose schema is generated from Args (see
// [GenerateSchema]) and whose handler receives the decoded arguments. Empty
// or null arguments decode to the zero Args.
func NewTypedTool[Args any](name, description string, fn func(ctx context.Context, args Args) (any, error), opts ...ToolOption) *FunctionTool {
	decode := func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args Args
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
			if err := json.Unmarshal(trimmed, &args); err != nil {
				return nil, &ToolError{ToolName: name, Message: "invalid arguments: " + err.Error(), Err: ErrToolExecution}
			}
		}
		return fn(ctx, args)
	}
	return NewTool(name, description, GenerateSchema[Args](), decode, opts...)
}

func (t *FunctionTool) Name() string                { return t.name }
func (t *FunctionTool) Description() string         { return t.description }
func (t *FunctionTool) Parameters() json.RawMessage { return t.parameters }
func (t *FunctionTool) DeclarationOnly() bool       { return t.declarationOnly }
func (t *FunctionTool) Approval() ApprovalMode      { return t.approval }
func (t *FunctionTool) MaxInvocations() int         { return t.maxInvocations }

// Invoke runs the handler.
func (t *FunctionTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	if t.fn == nil {
		return nil, &ToolError{ToolName: t.name, Message: "no handler", Err: ErrToolExecution}
	}
	return t.fn(ctx, args)
}
