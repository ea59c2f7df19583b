// Copyright (c) Microsoft. All rights reserved.

package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// LedgerItem is one answered question of a progress ledger.
type LedgerItem[T any] struct {
	Reason string `json:"reason"`
	Answer T      `json:"answer"`
}

// ProgressLedger is the manager's assessment after each round.
type ProgressLedger struct {
	IsRequestSatisfied    LedgerItem[bool]   `json:"is_request_satisfied"`
	IsInLoop              LedgerItem[bool]   `json:"is_in_loop"`
	IsProgressBeingMade   LedgerItem[bool]   `json:"is_progress_being_made"`
	NextSpeaker           LedgerItem[string] `json:"next_speaker"`
	InstructionOrQuestion LedgerItem[string] `json:"instruction_or_question"`
}

var ledgerKeys = []string{
	"is_request_satisfied",
	"is_in_loop",
	"is_progress_being_made",
	"next_speaker",
	"instruction_or_question",
}

var errMalformedLedger = errors.New("malformed progress ledger")

// parseProgressLedger extracts the ledger JSON object from the manager's
// reply. The reply may wrap the object in prose or a code fence.
func parseProgressLedger(text string) (*ProgressLedger, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in reply", errMalformedLedger)
	}
	raw := []byte(text[start : end+1])

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedLedger, err)
	}
	for _, k := range ledgerKeys {
		if _, ok := fields[k]; !ok {
			return nil, fmt.Errorf("%w: missing %q", errMalformedLedger, k)
		}
	}

	var ledger ProgressLedger
	if err := json.Unmarshal(raw, &ledger); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedLedger, err)
	}
	if !ledger.IsRequestSatisfied.Answer && strings.TrimSpace(ledger.NextSpeaker.Answer) == "" {
		return nil, fmt.Errorf("%w: next_speaker is empty", errMalformedLedger)
	}
	return &ledger, nil
}
