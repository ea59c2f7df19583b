// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"sync"

	"github.com/google/uuid"
)

// Session is a conversation thread. Passing the same session to several runs
// gives the model the history of the earlier ones. A session without a store
// gets one on its first successful run.
type Session struct {
	id string

	mu    sync.Mutex
	store MessageStore
}

// SessionOption configures a [Session].
type SessionOption func(*Session)

// WithSessionStore keeps the session's history in store.
func WithSessionStore(store MessageStore) SessionOption {
	return func(s *Session) { s.store = store }
}

// WithSessionID sets the id instead of generating one.
func WithSessionID(id string) SessionOption {
	return func(s *Session) { s.id = id }
}

// NewSession creates a session with a random id.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{id: uuid.NewString()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Store returns the history store, nil before the first run of a session
// created without one.
func (s *Session) Store() MessageStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// storeOrInit returns the store, installing the one made by newStore when
// there is none yet.
func (s *Session) storeOrInit(newStore func() MessageStore) MessageStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		s.store = newStore()
	}
	return s.store
}
