// Package busconn shares a bus connection that is established once, by
// whoever owns it, with the tasks that need it.
package busconn

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	DefaultTimeout = 5 * time.Second
	PollInterval   = 25 * time.Millisecond
)

var ErrTimeout = errors.New("timed out waiting for bus connection")

// Handle holds a value that is set at most once and read many times.
type Handle[T any] struct {
	mu  sync.RWMutex
	v   T
	set bool
}

// Set stores v. Only the first call has any effect; it reports whether v
// was stored.
func (h *Handle[T]) Set(v T) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.set {
		return false
	}
	h.v = v
	h.set = true
	return true
}

// Get returns the value, if already set.
func (h *Handle[T]) Get() (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.v, h.set
}

// Wait polls every [PollInterval] until the value is set. It gives up with
// [ErrTimeout] after timeout, or with the context error when ctx is done.
func (h *Handle[T]) Wait(ctx context.Context, timeout time.Duration) (T, error) {
	if v, ok := h.Get(); ok {
		return v, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if v, ok := h.Get(); ok {
				return v, nil
			}
		case <-timer.C:
			var zero T
			return zero, ErrTimeout
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}
