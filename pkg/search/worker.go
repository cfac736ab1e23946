package search

import (
	"sync"
	"sync/atomic"
	"time"
)

// idleSleep is how long an idle worker sleeps between steal rounds that
// found no work.
const idleSleep = time.Millisecond

// workerStats are the per-worker counters. They are plain atomics so
// the engine can aggregate them at any time without touching the
// worker's path lock; the stop predicate is evaluated against the
// aggregate on every expansion step.
type workerStats struct {
	nodes     atomic.Uint64
	fails     atomic.Uint64
	solutions atomic.Uint64
	depth     atomic.Uint64
	memory    atomic.Uint64
}

// snapshot returns the counters as Statistics.
func (ws *workerStats) snapshot() Statistics {
	return Statistics{
		Nodes:     ws.nodes.Load(),
		Fails:     ws.fails.Load(),
		Solutions: ws.solutions.Load(),
		Depth:     ws.depth.Load(),
		Memory:    ws.memory.Load(),
	}
}

func (ws *workerStats) maxDepth(d uint64) {
	for {
		old := ws.depth.Load()
		if d <= old || ws.depth.CompareAndSwap(old, d) {
			return
		}
	}
}

// worker runs one goroutine of the engine's pool. It owns a path and
// an optional current node; both are guarded by the worker's private
// lock, which a thief holds briefly during a steal.
type worker struct {
	engine *Engine
	id     int

	m    sync.Mutex
	path Path
	cur  Node
	// prefix is the committed-choice sequence from the global root to
	// this worker's path root. Empty for worker 0; set on every steal
	// adoption.
	prefix []Step
	// d is the recomputation distance: frames since the last snapshot.
	d int
	// idle is true while the worker holds no node and an empty path.
	// Atomic so thieves can check it without taking the lock.
	idle atomic.Bool

	stats workerStats
}

// newWorker creates a worker. Only worker 0 receives the root; it is
// evaluated once here so that a failed root counts as an ordinary
// failure before the search starts.
func newWorker(e *Engine, id int, root Node) *worker {
	w := &worker{engine: e, id: id}
	if root != nil {
		if root.Status() == Failed {
			w.stats.fails.Add(1)
		} else {
			w.cur = root
		}
	}
	return w
}

// run is the worker goroutine: it re-reads the engine's broadcast
// command before every step.
func (w *worker) run() {
	e := w.engine
	for {
		switch command(e.cmd.Load()) {
		case cmdWait:
			e.gate.Wait()
		case cmdTerminate:
			e.terminated()
			return
		case cmdWork:
			w.step()
		}
	}
}

// step performs one state-machine transition: steal when idle, check
// the stop predicate and expand when holding a node, otherwise
// backtrack via recomputation.
func (w *worker) step() {
	e := w.engine

	w.m.Lock()
	switch {
	case w.idle.Load():
		w.m.Unlock()
		w.find()

	case w.cur != nil:
		if e.opt.Stop != nil && e.opt.Stop(e.Statistics()) {
			// Cooperative stop: release the node and go idle-terminal
			// for this run. The abandoned subtree must not be
			// summarized as exhausted.
			w.cur = nil
			w.path.MarkIncomplete()
			w.idle.Store(true)
			w.m.Unlock()
			e.stop()
			return
		}
		w.expand()

	default:
		// No node: move the path to its next pending alternative.
		if !w.path.Next() {
			w.idle.Store(true)
			w.m.Unlock()
			e.idle()
			return
		}
		w.cur = w.path.Recompute(&w.d, e.opt.AdaptiveDistance)
		w.stats.memory.Store(uint64(w.path.Snapshots()))
		w.m.Unlock()
	}
}

// expand evaluates the current node and dispatches on its status.
// Called with w.m held; releases it.
func (w *worker) expand() {
	e := w.engine
	w.stats.nodes.Add(1)

	switch w.cur.Status() {
	case Failed:
		w.stats.fails.Add(1)
		w.cur = nil
		w.m.Unlock()

	case Solved:
		s := w.cur
		w.cur = nil
		w.stats.solutions.Add(1)
		w.m.Unlock()
		e.solution(s)

	case Branching:
		cp := w.cur.Describe()
		w.path.Push(w.cur, cp, &w.d, e.opt.CloneDistance)
		w.cur.Commit(cp, 0)
		w.stats.maxDepth(uint64(w.path.Size()))
		w.stats.memory.Store(uint64(w.path.Snapshots()))
		w.m.Unlock()
	}
}

// find scans the sibling workers round-robin for work to steal. On
// success the worker adopts the stolen node and resumes; otherwise it
// sleeps briefly and retries on the next cycle. Once the engine has
// stopped, idle workers stay idle instead of stealing new work.
func (w *worker) find() {
	e := w.engine
	if e.Stopped() {
		time.Sleep(idleSleep)
		return
	}
	for _, v := range e.workers {
		if v == w {
			continue
		}
		if n, prefix, ok := v.steal(); ok {
			w.m.Lock()
			w.idle.Store(false)
			w.cur = n
			w.prefix = prefix
			w.d = 0
			w.path.Reset()
			w.stats.memory.Store(0)
			w.m.Unlock()
			e.opt.Logger.Debug("stole work", "thief", w.id, "victim", v.id, "depth", len(prefix))
			return
		}
	}
	time.Sleep(idleSleep)
}

// steal hands over a subtree of this worker's path to a thief, or
// returns ok == false if there is none. The engine's busy counter is
// incremented before the stolen node becomes visible to the thief, so
// busy accounting never transiently under-counts.
func (w *worker) steal() (Node, []Step, bool) {
	// Quick unlocked check: idle workers have nothing to give. If the
	// worker becomes busy again it will be probed on a later round.
	if w.idle.Load() {
		return nil, nil, false
	}
	w.m.Lock()
	defer w.m.Unlock()
	if w.idle.Load() || w.engine.Stopped() {
		return nil, nil, false
	}
	n, steps, ok := w.path.Steal()
	if !ok {
		return nil, nil, false
	}
	prefix := make([]Step, 0, len(w.prefix)+len(steps))
	prefix = append(prefix, w.prefix...)
	prefix = append(prefix, steps...)
	w.engine.markBusy()
	return n, prefix, true
}

// noGoods summarizes this worker's remaining path. Only called once
// the worker goroutine has terminated.
func (w *worker) noGoods(maxDepth int) []NoGood {
	w.m.Lock()
	defer w.m.Unlock()
	return w.path.NoGoods(w.prefix, maxDepth)
}
