package cnf

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrdm/goseek/pkg/search"
)

// satisfies reports whether the assignment, indexed by variable,
// satisfies every clause of f.
func satisfies(f *Formula, model []bool) bool {
	for _, clause := range f.clauses {
		sat := false
		for _, m := range clause {
			if model[m.Var()] == m.IsPos() {
				sat = true
				break
			}
		}
		if !sat {
			return false
		}
	}
	return true
}

// bruteForceModels enumerates all models of f by exhaustive
// assignment, rendered in the same trail notation as Node.String and
// sorted.
func bruteForceModels(f *Formula) []string {
	n := f.Vars()
	var out []string
	for mask := 0; mask < 1<<n; mask++ {
		model := make([]bool, n+1)
		for v := 1; v <= n; v++ {
			model[v] = mask&(1<<(v-1)) != 0
		}
		if !satisfies(f, model) {
			continue
		}
		parts := make([]string, n)
		for v := 1; v <= n; v++ {
			d := v
			if !model[v] {
				d = -v
			}
			parts[v-1] = strconv.Itoa(d)
		}
		out = append(out, strings.Join(parts, " "))
	}
	sort.Strings(out)
	return out
}

// enumerate drains a searcher over f's node and returns the sorted
// trail strings of the delivered solutions.
func enumerate(t *testing.T, s search.Searcher) []string {
	t.Helper()
	var got []string
	for {
		n, err := s.Next(context.Background())
		require.NoError(t, err)
		if n == nil {
			sort.Strings(got)
			return got
		}
		got = append(got, n.(*Node).String())
	}
}

func TestNodeStatus_Unsatisfiable(t *testing.T) {
	n := NewNode(NewFormula(1).Add(1).Add(-1))
	assert.Equal(t, search.Failed, n.Status())
}

func TestNodeStatus_NoVariables(t *testing.T) {
	// A formula over zero variables with no clauses has exactly the
	// empty model.
	n := NewNode(NewFormula(0))
	assert.Equal(t, search.Solved, n.Status())
}

func TestNodeCommit(t *testing.T) {
	f := NewFormula(1)

	n := NewNode(f)
	require.Equal(t, search.Branching, n.Status())
	cp := n.Describe()
	require.Equal(t, 2, cp.Alternatives())

	n.Commit(cp, 0)
	assert.Equal(t, search.Solved, n.Status())
	assert.True(t, n.Model()[1])
	assert.Equal(t, "1", n.String())

	m := NewNode(f)
	m.Commit(m.Describe(), 1)
	assert.Equal(t, search.Solved, m.Status())
	assert.False(t, m.Model()[1])
	assert.Equal(t, "-1", m.String())
}

func TestNodeClone_Independent(t *testing.T) {
	n := NewNode(NewFormula(2).Add(1, 2))
	require.Equal(t, search.Branching, n.Status())

	c := n.Clone().(*Node)
	c.Commit(c.Describe(), 1)
	c.Commit(c.Describe(), 1)
	assert.Equal(t, search.Failed, c.Status())

	// The original is untouched by work on the clone.
	assert.Empty(t, n.trail)
	assert.Equal(t, search.Branching, n.Status())
}

func TestEngine_EnumeratesModels(t *testing.T) {
	f := NewFormula(3).Add(1, 2).Add(-1, 3)
	want := bruteForceModels(f)
	require.NotEmpty(t, want)

	for _, threads := range []int{1, 2, 4} {
		t.Run(fmt.Sprintf("threads=%d", threads), func(t *testing.T) {
			e, err := search.NewEngine(NewNode(f), &search.Options{
				Threads:       threads,
				CloneDistance: 2,
			})
			require.NoError(t, err)
			defer e.Shutdown()

			assert.Equal(t, want, enumerate(t, e))
			assert.Equal(t, uint64(len(want)), e.Statistics().Solutions)
		})
	}
}

func TestEngine_EnumeratesParsedFormula(t *testing.T) {
	f, err := ParseDIMACS(strings.NewReader("p cnf 2 2\n1 2 0\n-1 -2 0\n"))
	require.NoError(t, err)

	e, err := search.NewEngine(NewNode(f), &search.Options{Threads: 2})
	require.NoError(t, err)
	defer e.Shutdown()

	assert.Equal(t, []string{"-1 2", "1 -2"}, enumerate(t, e))
}

func TestNodeSlave_BlocksNoGoodRegions(t *testing.T) {
	// Four models over two free variables; blocking the prefix x1=true
	// must cut the enumeration down to the x1=false half.
	n := NewNode(NewFormula(2))
	n.Slave(search.RestartInfo{
		NoGoods: []search.NoGood{
			{Steps: []search.Step{{Choice: &choice{v: 1}, Alt: 0}}},
		},
	})

	e, err := search.NewEngine(n, &search.Options{Threads: 1})
	require.NoError(t, err)
	defer e.Shutdown()

	assert.Equal(t, []string{"-1 -2", "-1 2"}, enumerate(t, e))
}

// TestRestartEngine_CompleteUnderNoGoods drives a restart search with
// a tight fail budget over a formula whose models are known, checking
// that repeated attempts with posted blocking clauses still deliver
// every model.
func TestRestartEngine_CompleteUnderNoGoods(t *testing.T) {
	f := NewFormula(4).Add(1, 2).Add(-1, -2).Add(3, 4)
	want := bruteForceModels(f)
	require.NotEmpty(t, want)

	re, err := search.NewRestartEngine(NewNode(f), &search.Options{
		Threads:     2,
		Cutoff:      search.NewGeometricCutoff(1, 2),
		NoGoodDepth: 3,
	})
	require.NoError(t, err)
	defer re.Shutdown()

	// A cut-off attempt may re-deliver a model a later attempt finds
	// again; the set of distinct models must be exactly the brute
	// force one.
	seen := map[string]bool{}
	for _, s := range enumerate(t, re) {
		seen[s] = true
	}
	got := make([]string, 0, len(seen))
	for s := range seen {
		got = append(got, s)
	}
	sort.Strings(got)

	assert.Equal(t, want, got)
	assert.NotZero(t, re.Statistics().Restarts, "the one-fail budget must cut the first attempt off")
	assert.False(t, re.Stopped())
}
