// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"iter"
	"sync"
)

// ResponseStream is a pull iterator over values produced by a goroutine.
// Close must be called when the caller stops reading early.
type ResponseStream[T any] struct {
	items  <-chan T
	err    error // set by the producer before items is closed
	cancel context.CancelFunc
	once   sync.Once
}

// NewResponseStream runs producer in its own goroutine. Values sent on ch
// are returned by Next; the error producer returns ends the stream. ch is
// closed when producer returns.
func NewResponseStream[T any](ctx context.Context, producer func(ctx context.Context, ch chan<- T) error) *ResponseStream[T] {
	ctx, cancel := context.WithCancel(ctx)
	items := make(chan T, 1)
	s := &ResponseStream[T]{items: items, cancel: cancel}
	go func() {
		defer close(items)
		s.err = producer(ctx, items)
	}()
	return s
}

// Next returns the next value. ok is false once the stream is exhausted, in
// which case err is the producer's error, if any.
func (s *ResponseStream[T]) Next(ctx context.Context) (val T, ok bool, err error) {
	select {
	case <-ctx.Done():
		return val, false, ctx.Err()
	case v, open := <-s.items:
		if !open {
			return val, false, s.err
		}
		return v, true, nil
	}
}

// All ranges over the remaining values. A failure is yielded once, with the
// zero value, as the final pair.
func (s *ResponseStream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, ok, err := s.Next(ctx)
			if err != nil {
				yield(v, err)
				return
			}
			if !ok || !yield(v, nil) {
				return
			}
		}
	}
}

// Collect drains the stream. Values read before a failure are returned with
// the error.
func (s *ResponseStream[T]) Collect(ctx context.Context) ([]T, error) {
	var items []T
	for v, err := range s.All(ctx) {
		if err != nil {
			return items, err
		}
		items = append(items, v)
	}
	return items, nil
}

// Close stops the producer and waits for it to return. It is safe to call
// more than once.
func (s *ResponseStream[T]) Close() error {
	s.once.Do(func() {
		s.cancel()
		for range s.items {
		}
	})
	return nil
}

// AgentResponseStream is the stream returned by [Agent.RunStream]. It
// remembers the updates it has handed out so the merged response can be
// built at the end.
type AgentResponseStream struct {
	stream  *ResponseStream[AgentResponseUpdate]
	updates []AgentResponseUpdate
}

// NewAgentResponseStream wraps a raw update stream.
func NewAgentResponseStream(stream *ResponseStream[AgentResponseUpdate]) *AgentResponseStream {
	return &AgentResponseStream{stream: stream}
}

// Next returns the next update.
func (s *AgentResponseStream) Next(ctx context.Context) (AgentResponseUpdate, bool, error) {
	u, ok, err := s.stream.Next(ctx)
	if ok {
		s.updates = append(s.updates, u)
	}
	return u, ok, err
}

// All ranges over the remaining updates like [ResponseStream.All].
func (s *AgentResponseStream) All(ctx context.Context) iter.Seq2[AgentResponseUpdate, error] {
	return func(yield func(AgentResponseUpdate, error) bool) {
		for {
			u, ok, err := s.Next(ctx)
			if err != nil {
				yield(u, err)
				return
			}
			if !ok || !yield(u, nil) {
				return
			}
		}
	}
}

// FinalResponse reads the rest of the stream and merges every update seen,
// including those already returned by Next.
func (s *AgentResponseStream) FinalResponse(ctx context.Context) (*AgentResponse, error) {
	for {
		_, ok, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return AgentResponseFromUpdates(s.updates), nil
		}
	}
}

func (s *AgentResponseStream) Close() error { return s.stream.Close() }
