package search

import "context"

// RestartEngine wraps the parallel engine with restart-based search:
// each attempt runs under a fail budget drawn from the cutoff
// sequence, and when an attempt is cut off its exhausted regions are
// summarized as no-goods and replayed onto a fresh clone of the master
// for the next attempt. A RestartEngine is a drop-in Searcher.
type RestartEngine struct {
	opt Options

	// master is the pristine root; every attempt runs on a fresh
	// clone (the slave) so the master is never mutated.
	master Node
	child  *Engine
	rstop  *restartStop

	nogoods []NoGood
	// last delivered solution, cloned for RestartInfo. Only kept when
	// the master can actually consume it.
	lastSolution Node

	// acc accumulates statistics of finished attempts; the live
	// child's statistics are added on top.
	acc      Statistics
	restarts uint64

	// done latches the terminal state: either the global stop fired
	// (stopped true) or some attempt exhausted the full space.
	done    bool
	stopped bool
}

var _ Searcher = (*RestartEngine)(nil)

// NewRestartEngine constructs a restart engine over root. The options
// must carry a cutoff sequence; this is validated before any thread
// starts or node is touched. A root that is already failed is
// remembered permanently: every Next returns (nil, nil).
func NewRestartEngine(root Node, opt *Options) (*RestartEngine, error) {
	if root == nil {
		return nil, ErrNilRoot
	}
	if opt != nil && opt.Threads < 0 {
		return nil, ErrNoThreads
	}
	o := opt.normalize()
	if o.Cutoff == nil {
		return nil, ErrNoCutoff
	}

	re := &RestartEngine{opt: o}
	if root.Status() == Failed {
		re.acc.Fails = 1
		re.done = true
		return re, nil
	}
	re.master = root
	re.startAttempt(nil)
	return re, nil
}

// startAttempt clones a slave from the master, seeds it with the
// accumulated no-goods and the last solution (nil for the initial
// attempt), and builds a child engine with the next fail budget.
func (re *RestartEngine) startAttempt(last Node) {
	slave := re.master.Clone()
	if rn, ok := slave.(RestartNode); ok {
		rn.Slave(RestartInfo{
			Restart:  re.restarts,
			Solution: last,
			NoGoods:  re.nogoods,
		})
	}
	re.rstop = &restartStop{
		global: re.opt.Stop,
		budget: re.opt.Cutoff.Next(),
		base:   re.acc,
	}
	childOpt := re.opt
	childOpt.Stop = re.rstop.stop
	re.child = newEngine(slave, childOpt)
	re.opt.Logger.Debug("restart attempt started",
		"restart", re.restarts,
		"fail_budget", re.rstop.budget,
		"nogoods", len(re.nogoods))
}

// Next delegates to the current attempt. A delivered solution is
// returned as-is; the engine does not auto-advance to a restart until
// the caller asks for the next solution. When an attempt ends without
// a solution, Next either latches the terminal state (global stop, or
// full exhaustion) or starts the next attempt and retries.
func (re *RestartEngine) Next(ctx context.Context) (Node, error) {
	for {
		if re.done {
			return nil, nil
		}
		n, err := re.child.Next(ctx)
		if err != nil {
			return nil, err
		}
		if n != nil {
			if _, ok := re.master.(RestartNode); ok {
				re.lastSolution = n.Clone()
			}
			return n, nil
		}

		// The attempt is over; quiesce it before reading its paths.
		cutOff := re.child.Stopped()
		re.child.Shutdown()
		re.acc.Add(re.child.Statistics())

		if re.rstop.tripped.Load() {
			re.done = true
			re.stopped = true
			re.child = nil
			return nil, nil
		}
		if !cutOff {
			// The attempt ran to exhaustion: together with the
			// no-goods it started from, the whole space is finished.
			re.done = true
			re.child = nil
			return nil, nil
		}

		re.nogoods = append(re.nogoods, re.child.NoGoods(re.opt.NoGoodDepth)...)
		re.restarts++
		re.startAttempt(re.lastSolution)
	}
}

// Statistics returns the totals over all attempts, including the live
// one. Restarts counts completed restart cycles.
func (re *RestartEngine) Statistics() Statistics {
	st := re.acc
	if re.child != nil {
		st.Add(re.child.Statistics())
	}
	st.Restarts = re.restarts
	return st
}

// Stopped reports whether the global stop predicate ended the search.
// Per-attempt cutoffs do not count: they are internal to the restart
// strategy.
func (re *RestartEngine) Stopped() bool {
	return re.stopped
}

// NoGoods returns the accumulated no-good set.
func (re *RestartEngine) NoGoods() []NoGood {
	return re.nogoods
}

// Shutdown terminates the live attempt, if any. Idempotent.
func (re *RestartEngine) Shutdown() {
	if re.child != nil {
		re.child.Shutdown()
		re.acc.Add(re.child.Statistics())
		re.child = nil
	}
}
