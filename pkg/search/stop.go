package search

import (
	"sync/atomic"
	"time"
)

// Stop is a cooperative stop predicate. Workers evaluate it against
// their engine's aggregated statistics between node expansions; once it
// returns true the engine's stop flag is set and stays set for the rest
// of the run. A nil Stop never stops.
//
// The predicate must be safe to call from multiple goroutines and
// should be cheap: it runs once per expansion step.
type Stop func(Statistics) bool

// NodeStop stops once at least limit nodes have been expanded.
func NodeStop(limit uint64) Stop {
	return func(st Statistics) bool {
		return st.Nodes >= limit
	}
}

// FailStop stops once at least limit failures have been recorded.
func FailStop(limit uint64) Stop {
	return func(st Statistics) bool {
		return st.Fails >= limit
	}
}

// DepthStop stops once any worker's path has reached depth limit.
func DepthStop(limit uint64) Stop {
	return func(st Statistics) bool {
		return st.Depth >= limit
	}
}

// MemoryStop stops once at least limit node snapshots are retained
// across all paths.
func MemoryStop(limit uint64) Stop {
	return func(st Statistics) bool {
		return st.Memory >= limit
	}
}

// TimeStop stops once the wall clock has advanced d past the moment
// TimeStop was called.
func TimeStop(d time.Duration) Stop {
	deadline := time.Now().Add(d)
	return func(Statistics) bool {
		return time.Now().After(deadline)
	}
}

// Or combines stop predicates: the result stops as soon as any of them
// does. Nil entries are ignored; Or() returns nil.
func Or(stops ...Stop) Stop {
	var active []Stop
	for _, s := range stops {
		if s != nil {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return nil
	}
	if len(active) == 1 {
		return active[0]
	}
	return func(st Statistics) bool {
		for _, s := range active {
			if s(st) {
				return true
			}
		}
		return false
	}
}

// restartStop composes the caller's global stop predicate with the
// per-attempt fail budget drawn from the cutoff sequence. The restart
// layer needs to tell the two apart after an attempt dies: a tripped
// global predicate ends the whole search, a tripped budget triggers
// the next restart. The budget is judged on the attempt's own
// failures, the global predicate on the totals across all attempts,
// so base carries the statistics accumulated before this attempt.
type restartStop struct {
	global  Stop
	budget  uint64
	base    Statistics
	tripped atomic.Bool // global predicate fired, sticky
}

func (rs *restartStop) stop(st Statistics) bool {
	if rs.global != nil {
		total := rs.base
		total.Add(st)
		if rs.global(total) {
			rs.tripped.Store(true)
			return true
		}
	}
	return st.Fails >= rs.budget
}
