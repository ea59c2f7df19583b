// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"slices"
	"sync"
)

// MessageStore holds the history of a [Session].
type MessageStore interface {
	// ListMessages returns the stored messages, oldest first.
	ListMessages(ctx context.Context) ([]Message, error)
	AddMessages(ctx context.Context, msgs []Message) error
}

// InMemoryStore is a MessageStore that lives as long as the process. It is
// safe for concurrent use.
type InMemoryStore struct {
	mu       sync.Mutex
	messages []Message
}

func NewInMemoryStore() *InMemoryStore { return &InMemoryStore{} }

func (s *InMemoryStore) ListMessages(context.Context) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages), nil
}

func (s *InMemoryStore) AddMessages(_ context.Context, msgs []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
	return nil
}

// Len returns the number of stored messages.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
