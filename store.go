// Package barsync keeps external system state (compositor, audio server,
// peripherals) in sync and broadcasts every change to any number of
// consumers.
//
// The building block is [Store]: a single-writer, multi-reader container
// that applies messages to its state with a pure [Reducer], one at a time,
// and delivers each resulting snapshot to every subscriber.
package barsync

import (
	"context"
	"sync"
)

// Reducer applies one message to the previous state and returns the next
// state. It must not mutate maps or slices reachable from the previous
// state, since subscribers may still hold them.
type Reducer[S any, M any] func(state S, msg M) S

// Option configures a [Store].
type Option[S any, M any] func(*Store[S, M])

// WithHook registers a function that runs on the store goroutine after
// each message is reduced and before the next one. Hooks may call
// [Store.Emit].
func WithHook[S any, M any](hook func(msg M)) Option[S, M] {
	return func(s *Store[S, M]) {
		s.hooks = append(s.hooks, hook)
	}
}

// WithSubscriberBuffer bounds the queue of each subscriber. When a slow
// subscriber has n pending snapshots the oldest one is dropped. Zero (the
// default) means unbounded.
func WithSubscriberBuffer[S any, M any](n int) Option[S, M] {
	return func(s *Store[S, M]) {
		if n > 0 {
			s.bufSize = n
		}
	}
}

// Store holds one instance of S. It is safe for concurrent use.
type Store[S any, M any] struct {
	reduce  Reducer[S, M]
	hooks   []func(M)
	bufSize int

	// inbox
	qmu   sync.Mutex
	queue []M
	wake  chan struct{}
	done  chan struct{}
	once  sync.Once

	// state and subscribers
	mu     sync.RWMutex
	state  S
	subs   map[uint64]*subscriber[S]
	nextID uint64
}

// New creates a store with the initial state and starts the goroutine that
// owns it.
func New[S any, M any](initial S, reduce Reducer[S, M], opts ...Option[S, M]) *Store[S, M] {
	s := &Store[S, M]{
		reduce: reduce,
		state:  initial,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		subs:   make(map[uint64]*subscriber[S]),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.loop()

	return s
}

// Emit enqueues a message. It never blocks and may be called from any
// goroutine, including hooks running on the store goroutine. Messages are
// reduced in the order they were emitted.
func (s *Store[S, M]) Emit(msg M) {
	s.qmu.Lock()
	select {
	case <-s.done:
		s.qmu.Unlock()
		return
	default:
	}
	s.queue = append(s.queue, msg)
	s.qmu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Subscribe registers a consumer. The returned channel receives every
// state produced after this call, in order, until ctx is done, at which
// point it is closed.
func (s *Store[S, M]) Subscribe(ctx context.Context) <-chan S {
	sub := newSubscriber[S](s.bufSize)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	s.mu.Unlock()

	go func() {
		sub.run(ctx, s.done)
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}()

	return sub.out
}

// State returns the current state.
func (s *Store[S, M]) State() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Close stops the store goroutine and closes every subscriber channel.
// Messages emitted afterwards are discarded.
func (s *Store[S, M]) Close() {
	s.once.Do(func() {
		s.qmu.Lock()
		close(s.done)
		s.queue = nil
		s.qmu.Unlock()
	})
}

func (s *Store[S, M]) next() (msg M, ok bool) {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	if len(s.queue) == 0 {
		return msg, false
	}
	msg = s.queue[0]
	var zero M
	s.queue[0] = zero
	s.queue = s.queue[1:]
	return msg, true
}

func (s *Store[S, M]) loop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			msg, ok := s.next()
			if !ok {
				break
			}
			s.apply(msg)

			select {
			case <-s.done:
				return
			default:
			}
		}
	}
}

func (s *Store[S, M]) apply(msg M) {
	s.mu.Lock()
	s.state = s.reduce(s.state, msg)
	state := s.state
	for _, sub := range s.subs {
		sub.push(state)
	}
	s.mu.Unlock()

	for _, hook := range s.hooks {
		hook(msg)
	}
}

type subscriber[S any] struct {
	mu      sync.Mutex
	pending []S
	limit   int
	wake    chan struct{}
	out     chan S
}

func newSubscriber[S any](limit int) *subscriber[S] {
	return &subscriber[S]{
		limit: limit,
		wake:  make(chan struct{}, 1),
		out:   make(chan S),
	}
}

func (sub *subscriber[S]) push(state S) {
	sub.mu.Lock()
	if sub.limit > 0 && len(sub.pending) >= sub.limit {
		sub.pending = sub.pending[1:]
	}
	sub.pending = append(sub.pending, state)
	sub.mu.Unlock()

	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

func (sub *subscriber[S]) pop() (state S, ok bool) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.pending) == 0 {
		return state, false
	}
	state = sub.pending[0]
	sub.pending = sub.pending[1:]
	return state, true
}

func (sub *subscriber[S]) run(ctx context.Context, done <-chan struct{}) {
	defer close(sub.out)

	for {
		state, ok := sub.pop()
		if !ok {
			select {
			case <-sub.wake:
				continue
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}

		select {
		case sub.out <- state:
		case <-ctx.Done():
			return
		case <-done:
			return
		}
	}
}
