package search

import (
	"fmt"
	"math/rand"
	"sort"
	"sync/atomic"
)

// The tests drive the engine with a scripted in-memory search tree:
// every node of the tree is either an inner node with children or a
// leaf that is solved or failed. Leaves carry labels so tests can
// compare solution multisets across worker counts, and atomic visit
// counters so stealing tests can check that every leaf is expanded
// exactly once.

// tree is the immutable scripted tree shared by all node clones.
type tree struct {
	kids   []*tree
	solved bool // leaf kind; ignored for inner nodes
	label  string
	visits atomic.Int64
}

// leaf creates a solved or failed leaf.
func leaf(solved bool, label string) *tree {
	return &tree{solved: solved, label: label}
}

// branch creates an inner node.
func branch(kids ...*tree) *tree {
	return &tree{kids: kids}
}

// treeChoice is the choicepoint at an inner node. It carries the tree
// position so commits replay correctly on any clone.
type treeChoice struct {
	t *tree
}

func (c *treeChoice) Alternatives() int {
	return len(c.t.kids)
}

// treeNode is the Node implementation over a scripted tree.
type treeNode struct {
	t *tree
}

func newTreeNode(t *tree) *treeNode {
	return &treeNode{t: t}
}

func (n *treeNode) Status() Status {
	if len(n.t.kids) > 0 {
		return Branching
	}
	n.t.visits.Add(1)
	if n.t.solved {
		return Solved
	}
	return Failed
}

func (n *treeNode) Clone() Node {
	return &treeNode{t: n.t}
}

func (n *treeNode) Describe() Choicepoint {
	return &treeChoice{t: n.t}
}

func (n *treeNode) Commit(cp Choicepoint, alt int) {
	n.t = cp.(*treeChoice).t.kids[alt]
}

// walk applies fn to every leaf of t.
func walk(t *tree, fn func(*tree)) {
	if len(t.kids) == 0 {
		fn(t)
		return
	}
	for _, k := range t.kids {
		walk(k, fn)
	}
}

// solutionLabels returns the sorted labels of all solved leaves.
func solutionLabels(t *tree) []string {
	var labels []string
	walk(t, func(l *tree) {
		if l.solved {
			labels = append(labels, l.label)
		}
	})
	sort.Strings(labels)
	return labels
}

// countLeaves returns the total number of leaves.
func countLeaves(t *tree) int {
	n := 0
	walk(t, func(*tree) { n++ })
	return n
}

// randomTree builds a reproducible random tree: inner nodes get 2 or 3
// children, leaves are solved with the given probability. Labels
// enumerate the leaves left to right.
func randomTree(rng *rand.Rand, depth int, solvedProb float64) *tree {
	next := 0
	var build func(d int) *tree
	build = func(d int) *tree {
		if d == 0 || rng.Float64() < 0.15 {
			next++
			return leaf(rng.Float64() < solvedProb, fmt.Sprintf("s%d", next))
		}
		n := 2 + rng.Intn(2)
		kids := make([]*tree, n)
		for i := range kids {
			kids[i] = build(d - 1)
		}
		return branch(kids...)
	}
	// Force a branching root so every engine configuration has work.
	kids := make([]*tree, 3)
	for i := range kids {
		kids[i] = build(depth - 1)
	}
	return branch(kids...)
}

// scenarioTree is the canonical three-alternative root: the first
// alternative fails, the second holds one solution, the third two.
func scenarioTree() *tree {
	return branch(
		leaf(false, "dead"),
		leaf(true, "s2"),
		branch(
			leaf(true, "s3a"),
			leaf(true, "s3b"),
		),
	)
}

// completeFailTree builds a complete binary tree of the given depth
// whose leaves all fail; used by stop-predicate tests that need a
// search guaranteed not to finish early.
func completeFailTree(depth int) *tree {
	if depth == 0 {
		return leaf(false, "")
	}
	return branch(completeFailTree(depth-1), completeFailTree(depth-1))
}
