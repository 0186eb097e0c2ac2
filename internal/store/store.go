// Package store provides a single-writer state container. Actions are applied
// one at a time on a dedicated goroutine and every successful action publishes
// a new immutable snapshot to subscribers.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrClosed is returned for actions dispatched after the store stopped
var ErrClosed = errors.New("store is closed")

// Action is a named state transition. Apply receives the current snapshot and
// returns the next one; side effects must be finished before it returns.
// Apply must not dispatch to the same store and wait, the worker would deadlock.
type Action[S any] struct {
	Name  string
	Apply func(ctx context.Context, state S) (S, error)
	// Catch is invoked with the error when Apply fails
	Catch func(err error)
}

type job[S any] struct {
	action Action[S]
	done   chan error
}

// Store serializes actions over a state of type S
type Store[S any] struct {
	ctx context.Context

	queueMu sync.Mutex
	queue   []job[S]
	wake    chan struct{}
	closed  bool

	stateMu sync.RWMutex
	state   S

	subsMu sync.Mutex
	subs   map[int]chan S
	nextID int

	stopped chan struct{}
}

// New starts a store holding initial. The worker stops when ctx is done and
// every queued action then fails with ErrClosed.
func New[S any](ctx context.Context, initial S) *Store[S] {
	s := &Store[S]{
		ctx:     ctx,
		wake:    make(chan struct{}, 1),
		state:   initial,
		subs:    make(map[int]chan S),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

// DispatchAsync enqueues an action in program order without waiting for it.
// The returned channel receives the action's outcome exactly once.
func (s *Store[S]) DispatchAsync(action Action[S]) <-chan error {
	done := make(chan error, 1)

	s.queueMu.Lock()
	if s.closed {
		s.queueMu.Unlock()
		done <- ErrClosed
		return done
	}
	s.queue = append(s.queue, job[S]{action: action, done: done})
	s.queueMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return done
}

// Dispatch enqueues an action and waits until it was applied
func (s *Store[S]) Dispatch(ctx context.Context, action Action[S]) error {
	done := s.DispatchAsync(action)
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the latest published snapshot
func (s *Store[S]) State() S {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Subscribe returns a channel receiving snapshots, starting with the current
// one. Slow readers only see the latest snapshot.
func (s *Store[S]) Subscribe() (<-chan S, func()) {
	ch := make(chan S, 1)
	ch <- s.State()

	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subsMu.Unlock()

	return ch, func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Done is closed once the worker stopped
func (s *Store[S]) Done() <-chan struct{} {
	return s.stopped
}

func (s *Store[S]) run() {
	defer close(s.stopped)
	for {
		j, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.ctx.Done():
				s.shutdown()
				return
			}
		}
		if s.ctx.Err() != nil {
			j.done <- ErrClosed
			s.shutdown()
			return
		}
		j.done <- s.apply(j.action)
	}
}

func (s *Store[S]) next() (job[S], bool) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if len(s.queue) == 0 {
		return job[S]{}, false
	}
	j := s.queue[0]
	s.queue[0] = job[S]{}
	s.queue = s.queue[1:]
	return j, true
}

func (s *Store[S]) shutdown() {
	s.queueMu.Lock()
	s.closed = true
	pending := s.queue
	s.queue = nil
	s.queueMu.Unlock()

	for _, j := range pending {
		j.done <- ErrClosed
	}
}

func (s *Store[S]) apply(action Action[S]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action %s panicked: %v", action.Name, r)
		}
		if err != nil {
			slog.Error("Store action failed", "action", action.Name, "error", err)
			if action.Catch != nil {
				action.Catch(err)
			}
		}
	}()

	next, err := action.Apply(s.ctx, s.State())
	if err != nil {
		return err
	}

	s.stateMu.Lock()
	s.state = next
	s.stateMu.Unlock()
	s.publish(next)
	return nil
}

func (s *Store[S]) publish(state S) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		// Replace an unread snapshot with the newer one
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}
