// Copyright (c) Microsoft. All rights reserved.

package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflow is the base error for workflow failures.
	ErrWorkflow = errors.New("workflow error")

	// ErrInvalidWorkflow indicates a builder was misconfigured.
	ErrInvalidWorkflow = fmt.Errorf("%w: invalid workflow", ErrWorkflow)

	// ErrNoParticipants indicates a builder was given no participants.
	ErrNoParticipants = fmt.Errorf("%w: no participants", ErrInvalidWorkflow)

	// ErrDuplicateParticipant indicates two participants share a name.
	ErrDuplicateParticipant = fmt.Errorf("%w: duplicate participant", ErrInvalidWorkflow)

	// ErrNoManager indicates a Magentic workflow was built without a manager.
	ErrNoManager = fmt.Errorf("%w: no manager", ErrInvalidWorkflow)

	// ErrParticipant wraps a failure reported by a participant.
	ErrParticipant = fmt.Errorf("%w: participant failed", ErrWorkflow)

	// ErrManager wraps a failure of the Magentic manager, including a
	// progress ledger that stayed malformed after all attempts.
	ErrManager = fmt.Errorf("%w: manager failed", ErrWorkflow)
)
