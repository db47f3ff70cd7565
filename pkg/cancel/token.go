// Package cancel turns OS interrupts into a cooperative stop request that
// long-running steps poll between units of work.
package cancel

import (
	"sync"
	"sync/atomic"
)

// Token is a one-way stop flag shared between the signal handler and the
// goroutine doing the work. The zero value is not usable; use New.
type Token struct {
	requested atomic.Bool
	once      sync.Once
	done      chan struct{}
	reason    atomic.Value
}

// New creates a token with no stop requested
func New() *Token {
	return &Token{done: make(chan struct{})}
}

// RequestExit asks every observer to stop at its next checkpoint.
// Calling it more than once is harmless; the first reason is kept.
func (t *Token) RequestExit(reason string) {
	t.once.Do(func() {
		t.reason.Store(reason)
		t.requested.Store(true)
		close(t.done)
	})
}

// ShouldExit reports whether a stop was requested
func (t *Token) ShouldExit() bool {
	return t.requested.Load()
}

// Done is closed once a stop is requested
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Reason returns the reason given to the first RequestExit call
func (t *Token) Reason() string {
	if r, ok := t.reason.Load().(string); ok {
		return r
	}
	return ""
}
