// Package cnf provides a search node over propositional formulas in
// conjunctive normal form, backed by the gini SAT solver. It plays the
// role of the constraint engine behind the search core's node
// capability: enumerating the models of a formula becomes a parallel
// tree search where every branch fixes the next variable to true or
// false and gini prunes unsatisfiable subtrees.
//
// The package also understands no-goods: across restarts, exhausted
// choice prefixes are posted back onto fresh nodes as blocking
// clauses, so later attempts never re-enter those regions.
package cnf

import (
	"fmt"
	"io"

	"github.com/go-air/gini/dimacs"
	"github.com/go-air/gini/z"
)

// Formula is an immutable CNF problem: clauses over variables
// 1..Vars. A formula is shared by every node derived from it and must
// not be modified once a node exists.
type Formula struct {
	vars    int
	clauses [][]z.Lit
}

// NewFormula creates an empty formula over vars variables.
func NewFormula(vars int) *Formula {
	if vars < 0 {
		vars = 0
	}
	return &Formula{vars: vars}
}

// Vars returns the number of variables.
func (f *Formula) Vars() int {
	return f.vars
}

// Clauses returns the number of clauses.
func (f *Formula) Clauses() int {
	return len(f.clauses)
}

// Add appends a clause given as DIMACS-style non-zero ints: positive
// for a variable, negative for its negation. Variables outside 1..Vars
// grow the formula.
func (f *Formula) Add(lits ...int) *Formula {
	clause := make([]z.Lit, 0, len(lits))
	for _, d := range lits {
		if d == 0 {
			continue
		}
		v := d
		if v < 0 {
			v = -v
		}
		if v > f.vars {
			f.vars = v
		}
		clause = append(clause, z.Dimacs2Lit(d))
	}
	f.clauses = append(f.clauses, clause)
	return f
}

// cnfReader collects clauses from a DIMACS stream.
type cnfReader struct {
	f      *Formula
	clause []z.Lit
}

func (r *cnfReader) Init(v, c int) {
	if v > r.f.vars {
		r.f.vars = v
	}
	if c > 0 {
		r.f.clauses = make([][]z.Lit, 0, c)
	}
}

func (r *cnfReader) Add(m z.Lit) {
	if m == z.LitNull {
		clause := make([]z.Lit, len(r.clause))
		copy(clause, r.clause)
		r.f.clauses = append(r.f.clauses, clause)
		r.clause = r.clause[:0]
		return
	}
	if v := int(m.Var()); v > r.f.vars {
		r.f.vars = v
	}
	r.clause = append(r.clause, m)
}

func (r *cnfReader) Eof() {
	if len(r.clause) > 0 {
		clause := make([]z.Lit, len(r.clause))
		copy(clause, r.clause)
		r.f.clauses = append(r.f.clauses, clause)
		r.clause = r.clause[:0]
	}
}

// ParseDIMACS reads a formula in DIMACS CNF format.
func ParseDIMACS(rd io.Reader) (*Formula, error) {
	f := NewFormula(0)
	vis := &cnfReader{f: f}
	if err := dimacs.ReadCnf(rd, vis); err != nil {
		return nil, fmt.Errorf("cnf: parsing dimacs: %w", err)
	}
	return f, nil
}
