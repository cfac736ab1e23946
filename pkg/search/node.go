// Package search implements a parallel depth-first search engine over an
// opaque node capability, with work stealing between a fixed pool of
// worker goroutines, bounded-memory backtracking through adaptive
// recomputation, and an optional restart layer that retries cut-off
// searches with progressively relaxed budgets while reusing no-goods
// learned from earlier attempts.
//
// # Architecture Overview
//
// The engine never looks inside a node. Everything it needs is the Node
// capability below:
//
//	Node (opaque solver state):
//	  - Status() classifies the node: failed, solved, or branching
//	  - Clone() produces a deep, independent copy
//	  - Commit(cp, alt) mutates the node along one alternative
//	  - Describe() yields the branching alternatives as a Choicepoint
//
// Each worker owns a private Path of frames from the root to its current
// node. Frames store a cloned snapshot only every CloneDistance levels;
// backtracking between snapshots replays committed choices forward from
// the nearest ancestor snapshot. Idle workers steal the shallowest frame
// with untried alternatives from a sibling, which hands over the largest
// possible subtree.
//
// A concrete Node implementation backed by a SAT solver lives in
// pkg/cnf; the engine itself is solver-agnostic.
package search

// Status classifies a node after propagation.
type Status int

const (
	// Branching means the node has unresolved alternatives and must be
	// split via Describe and Commit.
	Branching Status = iota
	// Solved means the node is a solution with no pending branchings.
	Solved
	// Failed means the node is inconsistent and the subtree below it is
	// empty. Failures surfaced during node construction are treated the
	// same as failures found during search.
	Failed
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case Branching:
		return "branching"
	case Solved:
		return "solved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Choicepoint is an immutable description of the alternatives available
// at a branching node. The engine only ever reads the alternative count;
// the meaning of each alternative is private to the Node implementation
// that created the choicepoint.
type Choicepoint interface {
	// Alternatives returns the number of alternatives, at least 1.
	Alternatives() int
}

// Node is the capability the search engine consumes. A Node is owned by
// exactly one worker at a time; ownership transfers during a steal and
// when a solved node is delivered through Engine.Next. Implementations
// need no internal locking as long as Clone produces fully independent
// copies.
type Node interface {
	// Status evaluates the node (running whatever propagation the
	// implementation performs) and classifies the result.
	Status() Status

	// Clone returns a deep, independent copy of the node. The copy and
	// the original may afterwards be mutated concurrently by different
	// workers.
	Clone() Node

	// Commit mutates the node along alternative alt of cp, consuming
	// that alternative. cp must have been produced by Describe on this
	// node or on a node this one was cloned from at the same tree
	// position, and 0 <= alt < cp.Alternatives().
	Commit(cp Choicepoint, alt int)

	// Describe returns the choicepoint for a Branching node. Calling
	// Describe on a non-branching node is implementation-defined.
	Describe() Choicepoint
}

// Step is one committed choice: alternative Alt of choicepoint Choice.
type Step struct {
	Choice Choicepoint
	Alt    int
}

// NoGood records a prefix of committed choices whose subtree has been
// fully explored without finding further solutions. The restart layer
// accumulates no-goods across attempts and replays them onto each fresh
// slave so later attempts skip already-exhausted regions.
type NoGood struct {
	Steps []Step
}

// RestartInfo is handed to a fresh slave node at the start of every
// restart attempt.
type RestartInfo struct {
	// Restart is the zero-based number of the attempt being started.
	Restart uint64
	// Solution is the last solution delivered by a previous attempt, or
	// nil if none has been found yet.
	Solution Node
	// NoGoods are all no-goods accumulated so far, oldest first.
	NoGoods []NoGood
}

// RestartNode is the optional extension of Node consumed by the restart
// layer. Nodes that do not implement it still work with RestartEngine;
// they simply cannot prune re-exploration across attempts.
type RestartNode interface {
	Node

	// Slave is invoked once on each fresh working clone before an
	// attempt starts. Implementations typically post the no-goods as
	// additional constraints.
	Slave(info RestartInfo)
}
