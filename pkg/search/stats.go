package search

// Statistics aggregates the counters maintained during a search. Engine
// and RestartEngine report the sum over all workers (and, for restarts,
// over all attempts); each worker additionally keeps its own copy so the
// totals can be cross-checked.
type Statistics struct {
	// Nodes is the number of nodes whose status was evaluated.
	Nodes uint64
	// Fails is the number of nodes that evaluated to Failed.
	Fails uint64
	// Solutions is the number of solved nodes delivered to the queue.
	Solutions uint64
	// Depth is the maximum path depth reached.
	Depth uint64
	// Memory counts node snapshots currently retained on paths. It is
	// the quantity bounded by the clone-distance policy, not bytes.
	Memory uint64
	// Restarts is the number of completed restart cycles. Always zero
	// for a plain Engine.
	Restarts uint64
}

// Add accumulates other into s. Counters are summed except Depth, which
// takes the maximum.
func (s *Statistics) Add(other Statistics) {
	s.Nodes += other.Nodes
	s.Fails += other.Fails
	s.Solutions += other.Solutions
	if other.Depth > s.Depth {
		s.Depth = other.Depth
	}
	s.Memory += other.Memory
	s.Restarts += other.Restarts
}
