// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"errors"
	"fmt"
)

// Errors returned by agents and clients. Match them with errors.Is; the
// concrete [ServiceError] and [ToolError] carry details for errors.As.
var (
	ErrAgent     = errors.New("agent error")
	ErrExecution = fmt.Errorf("%w: execution", ErrAgent)

	// ErrIterationLimit ends a run whose model keeps calling tools past
	// InvocationConfig.MaxIterations.
	ErrIterationLimit = errors.New("iteration limit reached")

	ErrService         = errors.New("service error")
	ErrAuth            = fmt.Errorf("%w: authentication", ErrService)
	ErrContentFilter   = fmt.Errorf("%w: content filter", ErrService)
	ErrInvalidRequest  = fmt.Errorf("%w: invalid request", ErrService)
	ErrInvalidResponse = fmt.Errorf("%w: invalid response", ErrService)

	ErrTool          = errors.New("tool error")
	ErrToolExecution = fmt.Errorf("%w: execution", ErrTool)
	ErrUnknownTool   = fmt.Errorf("%w: unknown tool", ErrTool)
)

// ServiceError is a failed call to a model backend.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	msg := "service error"
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" %d", e.StatusCode)
	}
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	return msg + ": " + e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ToolError is a failed tool invocation.
type ToolError struct {
	ToolName string
	Message  string
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q: %s", e.ToolName, e.Message)
}

func (e *ToolError) Unwrap() error { return e.Err }
