// Package control provides low-level coordination primitives for the
// parallel search engine. This package contains internal utilities for
// broadcasting commands to a fixed pool of worker goroutines and for
// signalling search-state changes back to the engine without busy-waiting.
package control

import "sync"

// Gate blocks a group of goroutines behind a shared barrier that can be
// closed and reopened by a single controller. It replaces the pattern of
// a controller-held mutex that workers acquire and immediately release:
// that pattern is not expressible with sync.Mutex (unlock from another
// goroutine), so the gate swaps a channel that waiters block on instead.
//
// A Gate starts open. Close and Open must only be called by the
// controlling goroutine; Wait may be called by any number of workers.
type Gate struct {
	mu     sync.Mutex
	closed chan struct{} // non-nil while the gate is closed
}

// NewGate creates an open gate.
func NewGate() *Gate {
	return &Gate{}
}

// Close shuts the gate. Subsequent Wait calls block until Open.
// Closing an already closed gate is a no-op.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed == nil {
		g.closed = make(chan struct{})
	}
}

// Open releases every goroutine blocked in Wait and lets future Wait
// calls pass through until the next Close.
func (g *Gate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed != nil {
		close(g.closed)
		g.closed = nil
	}
}

// Wait blocks while the gate is closed and returns immediately otherwise.
func (g *Gate) Wait() {
	g.mu.Lock()
	ch := g.closed
	g.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

// Event is a binary signal in the style of a one-permit semaphore:
// Signal records that something happened, Wait consumes one recorded
// signal or blocks until the next one. Multiple Signal calls between
// two Waits collapse into a single wakeup, which is exactly the
// semantics the engine's search-event protocol needs: the waiter
// re-checks shared state after every wakeup anyway.
type Event struct {
	ch chan struct{}
}

// NewEvent creates an event with no pending signal.
func NewEvent() *Event {
	return &Event{ch: make(chan struct{}, 1)}
}

// Signal records the event. Never blocks.
func (e *Event) Signal() {
	select {
	case e.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until a signal has been recorded and consumes it.
func (e *Event) Wait() {
	<-e.ch
}

// WaitChan exposes the signal channel so callers can select on the
// event together with a context or timer.
func (e *Event) WaitChan() <-chan struct{} {
	return e.ch
}
