// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"errors"
	"fmt"
	"testing"

	af "github.com/jochenvw/agent-framework-samples/agentframework"
)

func TestErrorHierarchy(t *testing.T) {
	tests := []struct {
		err, target error
		want        bool
	}{
		{af.ErrExecution, af.ErrAgent, true},
		{af.ErrAuth, af.ErrService, true},
		{af.ErrContentFilter, af.ErrService, true},
		{af.ErrInvalidRequest, af.ErrService, true},
		{af.ErrInvalidResponse, af.ErrService, true},
		{af.ErrToolExecution, af.ErrTool, true},
		{af.ErrUnknownTool, af.ErrTool, true},
		{af.ErrIterationLimit, af.ErrAgent, false},
		{af.ErrAgent, af.ErrService, false},
		{af.ErrTool, af.ErrAgent, false},
	}
	for _, tt := range tests {
		if got := errors.Is(tt.err, tt.target); got != tt.want {
			t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.want)
		}
	}
}

func TestServiceError(t *testing.T) {
	tests := []struct {
		err  *af.ServiceError
		want string
	}{
		{&af.ServiceError{StatusCode: 429, Code: "rate_limit_exceeded", Message: "slow down", Err: af.ErrService},
			"service error 429 (rate_limit_exceeded): slow down"},
		{&af.ServiceError{StatusCode: 401, Message: "bad key", Err: af.ErrAuth},
			"service error 401: bad key"},
		{&af.ServiceError{Message: "connection refused", Err: af.ErrService},
			"service error: connection refused"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
		wrapped := fmt.Errorf("%w: %w", af.ErrExecution, tt.err)
		var svc *af.ServiceError
		if !errors.As(wrapped, &svc) || svc.StatusCode != tt.err.StatusCode {
			t.Errorf("errors.As lost the service error in %v", wrapped)
		}
		if !errors.Is(wrapped, af.ErrService) {
			t.Errorf("%v should match ErrService", wrapped)
		}
	}
}

func TestToolError(t *testing.T) {
	err := &af.ToolError{ToolName: "get_weather", Message: "API timeout", Err: af.ErrToolExecution}
	if err.Error() != `tool "get_weather": API timeout` {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, af.ErrTool) {
		t.Error("ToolError should match ErrTool")
	}
	var te *af.ToolError
	if !errors.As(fmt.Errorf("run: %w", err), &te) || te.ToolName != "get_weather" {
		t.Errorf("errors.As = %+v", te)
	}
}
