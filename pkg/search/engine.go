package search

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gitrdm/goseek/internal/control"
)

// command is the value broadcast from the engine to all workers.
type command int32

const (
	// cmdWait parks workers behind the gate between Next calls.
	cmdWait command = iota
	// cmdWork lets workers expand, backtrack, and steal.
	cmdWork
	// cmdTerminate makes workers deregister and exit.
	cmdTerminate
)

// Searcher is the common surface of Engine and RestartEngine; the two
// are interchangeable wherever a Searcher is expected.
type Searcher interface {
	// Next returns the next solution, or (nil, nil) once the search is
	// exhausted or stopped. After returning (nil, nil) it keeps doing
	// so. A context error is returned if ctx is cancelled while
	// waiting; the search remains usable afterwards.
	Next(ctx context.Context) (Node, error)
	// Statistics returns the aggregated search statistics.
	Statistics() Statistics
	// Stopped reports whether the stop predicate ended the search.
	Stopped() bool
	// Shutdown terminates and joins all workers. Idempotent. No other
	// method may be called afterwards.
	Shutdown()
}

// Engine is the parallel depth-first search engine. It owns a fixed
// pool of worker goroutines created at construction and joined at
// Shutdown; worker 0 starts with the root, everyone else starts idle
// and steals. Engine methods are not safe for concurrent Next calls;
// a single consumer drives the search.
type Engine struct {
	opt     Options
	workers []*worker

	// Broadcast machinery: the command register and the gate that
	// WAIT-commanded workers block on.
	cmd  atomic.Int32
	gate *control.Gate

	// Search state, guarded by mu. The event is raised whenever the
	// state changes such that a blocked Next must re-check; the
	// needs-signal predicate is evaluated before each change.
	mu         sync.Mutex
	queue      []Node // FIFO solution queue, unbounded
	busy       int
	hasStopped bool
	event      *control.Event

	// Termination: every worker decrements the group on terminate.
	wg       sync.WaitGroup
	shutdown sync.Once
}

var _ Searcher = (*Engine)(nil)

// NewEngine constructs an engine over root and starts its workers,
// parked until the first Next call. The engine takes ownership of
// root. Configuration errors are reported before any goroutine starts.
func NewEngine(root Node, opt *Options) (*Engine, error) {
	if root == nil {
		return nil, ErrNilRoot
	}
	if opt != nil && opt.Threads < 0 {
		return nil, ErrNoThreads
	}
	return newEngine(root, opt.normalize()), nil
}

// newEngine builds and starts an engine from normalized options.
func newEngine(root Node, opt Options) *Engine {
	e := &Engine{
		opt:   opt,
		gate:  control.NewGate(),
		event: control.NewEvent(),
	}
	e.workers = make([]*worker, opt.Threads)
	// The first worker gets the entire search tree.
	e.workers[0] = newWorker(e, 0, root)
	for i := 1; i < opt.Threads; i++ {
		e.workers[i] = newWorker(e, i, nil)
	}

	// All workers start parked; busy accounting starts at the full
	// pool and drains as workers without work report idle.
	e.block()
	e.busy = opt.Threads
	e.wg.Add(opt.Threads)
	for _, w := range e.workers {
		go w.run()
	}

	opt.Logger.Debug("engine started",
		"threads", opt.Threads,
		"clone_distance", opt.CloneDistance,
		"adaptive_distance", opt.AdaptiveDistance)
	return e
}

// block parks all workers behind the gate.
func (e *Engine) block() {
	e.cmd.Store(int32(cmdWait))
	e.gate.Close()
}

// release broadcasts c and opens the gate.
func (e *Engine) release(c command) {
	e.cmd.Store(int32(c))
	e.gate.Open()
}

// needsSignal is the raise condition for the search event: a blocked
// Next is waiting iff no solution is queued, workers are still busy,
// and the search has not stopped. Callers evaluate it under mu
// immediately before a state change that could make it false; only
// then is a wakeup emitted. This avoids redundant wakeups without ever
// losing one.
func (e *Engine) needsSignal() bool {
	return len(e.queue) == 0 && e.busy > 0 && !e.hasStopped
}

// solution enqueues a solved node found by a worker.
func (e *Engine) solution(n Node) {
	e.mu.Lock()
	raise := e.needsSignal()
	e.queue = append(e.queue, n)
	e.mu.Unlock()
	if raise {
		e.event.Signal()
	}
}

// idle records that a worker ran out of work. The last worker to go
// idle signals exhaustion.
func (e *Engine) idle() {
	e.mu.Lock()
	raise := e.needsSignal()
	e.busy--
	exhausted := e.busy == 0
	e.mu.Unlock()
	if raise && exhausted {
		e.event.Signal()
	}
}

// markBusy records that a thief is about to resume with stolen work. It
// is called before the stolen node is handed over, so the counter never
// transiently under-counts.
func (e *Engine) markBusy() {
	e.mu.Lock()
	e.busy++
	e.mu.Unlock()
}

// stop records that a worker tripped the stop predicate. The flag is
// global and sticky for the lifetime of this engine.
func (e *Engine) stop() {
	e.mu.Lock()
	raise := e.needsSignal()
	e.hasStopped = true
	e.mu.Unlock()
	if raise {
		e.event.Signal()
	}
	e.opt.Logger.Debug("search stopped by predicate")
}

// terminated is each worker's deregistration on cmdTerminate.
func (e *Engine) terminated() {
	e.wg.Done()
}

// Next returns the next solution in discovery order, or (nil, nil)
// once the search space is exhausted or the stop predicate fired.
// Queued solutions are drained even after a stop. While solutions are
// pending delivery the workers stay parked; work only proceeds while a
// Next call is blocked waiting.
func (e *Engine) Next(ctx context.Context) (Node, error) {
	e.mu.Lock()
	if len(e.queue) > 0 {
		n := e.popLocked()
		e.mu.Unlock()
		return n, nil
	}
	// Explicit zero check: exhaustion is busy == 0, nothing else.
	if e.busy == 0 || e.hasStopped {
		e.mu.Unlock()
		return nil, nil
	}
	e.mu.Unlock()

	e.release(cmdWork)
	for {
		// A pending signal may predate this call with its solution
		// already delivered, so every wakeup re-checks the state.
		select {
		case <-e.event.WaitChan():
		case <-ctx.Done():
			e.block()
			return nil, ctx.Err()
		}
		e.mu.Lock()
		if len(e.queue) > 0 {
			n := e.popLocked()
			e.mu.Unlock()
			e.block()
			return n, nil
		}
		if e.busy == 0 || e.hasStopped {
			e.mu.Unlock()
			e.block()
			return nil, nil
		}
		e.mu.Unlock()
	}
}

// popLocked removes the oldest queued solution. Caller holds mu.
func (e *Engine) popLocked() Node {
	n := e.queue[0]
	e.queue[0] = nil
	e.queue = e.queue[1:]
	return n
}

// Statistics returns the sum of all workers' statistics. Safe to call
// at any time; counters are monotone so a concurrent snapshot is
// internally consistent enough for stop predicates and reporting.
func (e *Engine) Statistics() Statistics {
	var st Statistics
	for _, w := range e.workers {
		st.Add(w.stats.snapshot())
	}
	return st
}

// WorkerStatistics returns each worker's own counters, index-aligned
// with the pool. The sum equals Statistics up to concurrent updates.
func (e *Engine) WorkerStatistics() []Statistics {
	sts := make([]Statistics, len(e.workers))
	for i, w := range e.workers {
		sts[i] = w.stats.snapshot()
	}
	return sts
}

// Stopped reports whether any worker tripped the stop predicate.
func (e *Engine) Stopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasStopped
}

// NoGoods summarizes the exhausted regions recorded on the workers'
// remaining paths, bounded by maxDepth committed choices from the
// root. Must only be called after Shutdown; the restart layer uses it
// to seed the next attempt. maxDepth <= 0 yields nothing.
func (e *Engine) NoGoods(maxDepth int) []NoGood {
	if maxDepth <= 0 {
		return nil
	}
	var ngs []NoGood
	for _, w := range e.workers {
		ngs = append(ngs, w.noGoods(maxDepth)...)
	}
	return ngs
}

// Shutdown broadcasts termination and joins all worker goroutines.
func (e *Engine) Shutdown() {
	e.shutdown.Do(func() {
		e.release(cmdTerminate)
		e.wg.Wait()
		e.opt.Logger.Debug("engine shut down")
	})
}
