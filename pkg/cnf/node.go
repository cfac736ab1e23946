package cnf

import (
	"strconv"
	"strings"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"

	"github.com/gitrdm/goseek/pkg/search"
)

// choice is the binary choicepoint over one variable: alternative 0
// sets it true, alternative 1 sets it false.
type choice struct {
	v z.Var
}

// Alternatives returns 2.
func (c *choice) Alternatives() int {
	return 2
}

// lit returns the literal committed by alternative alt.
func (c *choice) lit(alt int) z.Lit {
	if alt == 0 {
		return c.v.Pos()
	}
	return c.v.Neg()
}

// Node enumerates the models of a formula as a search tree: each level
// fixes the next variable, gini decides whether the partial assignment
// can still be extended to a model. A node failing on first evaluation
// (unsatisfiable formula) is ordinary search failure.
//
// Node implements search.RestartNode: no-goods learned by the restart
// layer are posted as blocking clauses, and across restarts the solver
// keeps pruning exhausted regions.
type Node struct {
	f *Formula
	// blocked are the no-good clauses posted by Slave, shared by all
	// nodes cloned from the same slave.
	blocked [][]z.Lit
	// trail is the committed partial assignment, one literal per level.
	trail []z.Lit
	// g is this node's private solver, lazily built on first Status
	// and duplicated on Clone.
	g *gini.Gini

	evaluated bool
	status    search.Status
}

var _ search.RestartNode = (*Node)(nil)

// NewNode creates the root node for enumerating models of f.
func NewNode(f *Formula) *Node {
	return &Node{f: f}
}

// solver returns this node's gini instance, building it on demand.
func (n *Node) solver() *gini.Gini {
	if n.g == nil {
		g := gini.NewVc(n.f.Vars(), n.f.Clauses()+len(n.blocked))
		for _, clause := range n.f.clauses {
			for _, m := range clause {
				g.Add(m)
			}
			g.Add(z.LitNull)
		}
		for _, clause := range n.blocked {
			for _, m := range clause {
				g.Add(m)
			}
			g.Add(z.LitNull)
		}
		n.g = g
	}
	return n.g
}

// Status evaluates the partial assignment: Failed if it cannot be
// extended to a model, Solved once every variable is fixed, Branching
// otherwise. The result is cached until the next Commit.
func (n *Node) Status() search.Status {
	if n.evaluated {
		return n.status
	}
	g := n.solver()
	g.Assume(n.trail...)
	switch g.Solve() {
	case -1:
		n.status = search.Failed
	default:
		if len(n.trail) == n.f.Vars() {
			n.status = search.Solved
		} else {
			n.status = search.Branching
		}
	}
	n.evaluated = true
	return n.status
}

// Clone returns an independent copy. The formula and blocking clauses
// stay shared (both are immutable); the trail and the solver state are
// duplicated.
func (n *Node) Clone() search.Node {
	c := &Node{
		f:         n.f,
		blocked:   n.blocked,
		trail:     append([]z.Lit(nil), n.trail...),
		evaluated: n.evaluated,
		status:    n.status,
	}
	if n.g != nil {
		c.g = n.g.Copy()
	}
	return c
}

// Describe returns the choicepoint over the next unfixed variable.
func (n *Node) Describe() search.Choicepoint {
	return &choice{v: z.Var(len(n.trail) + 1)}
}

// Commit extends the trail along alternative alt of cp.
func (n *Node) Commit(cp search.Choicepoint, alt int) {
	c := cp.(*choice)
	n.trail = append(n.trail, c.lit(alt))
	n.evaluated = false
}

// Slave posts the accumulated no-goods as blocking clauses on a fresh
// restart slave: an exhausted choice prefix l1 ∧ ... ∧ lk becomes the
// clause ¬l1 ∨ ... ∨ ¬lk.
func (n *Node) Slave(info search.RestartInfo) {
	for _, ng := range info.NoGoods {
		clause := make([]z.Lit, 0, len(ng.Steps))
		for _, step := range ng.Steps {
			c, ok := step.Choice.(*choice)
			if !ok {
				return
			}
			clause = append(clause, c.lit(step.Alt).Not())
		}
		n.blocked = append(n.blocked, clause)
	}
	// Any previously built solver misses the new clauses.
	n.g = nil
	n.evaluated = false
}

// Model returns the assignment of a Solved node as values indexed by
// variable, with index 0 unused.
func (n *Node) Model() []bool {
	vals := make([]bool, n.f.Vars()+1)
	for _, m := range n.trail {
		vals[m.Var()] = m.IsPos()
	}
	return vals
}

// String renders the trail in DIMACS literal notation, for logs and
// tests.
func (n *Node) String() string {
	parts := make([]string, len(n.trail))
	for i, m := range n.trail {
		parts[i] = strconv.Itoa(m.Dimacs())
	}
	return strings.Join(parts, " ")
}
