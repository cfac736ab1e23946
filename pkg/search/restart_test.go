package search

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRestartEngine_ConfigErrors(t *testing.T) {
	_, err := NewRestartEngine(nil, &Options{Cutoff: NewConstantCutoff(10)})
	assert.ErrorIs(t, err, ErrNilRoot)

	_, err = NewRestartEngine(newTreeNode(scenarioTree()), &Options{Threads: 1})
	assert.ErrorIs(t, err, ErrNoCutoff,
		"a restart engine without a cutoff sequence must fail fast")

	_, err = NewRestartEngine(newTreeNode(scenarioTree()), &Options{
		Threads: -1,
		Cutoff:  NewConstantCutoff(10),
	})
	assert.ErrorIs(t, err, ErrNoThreads)
}

func TestRestartEngine_FailedRoot(t *testing.T) {
	re, err := NewRestartEngine(newTreeNode(leaf(false, "")), &Options{
		Threads: 1,
		Cutoff:  NewConstantCutoff(10),
	})
	require.NoError(t, err)
	defer re.Shutdown()

	for i := 0; i < 3; i++ {
		n, err := re.Next(context.Background())
		require.NoError(t, err)
		assert.Nil(t, n, "a failed root is remembered permanently")
	}
	assert.False(t, re.Stopped())
	assert.Equal(t, uint64(1), re.Statistics().Fails)
}

// TestRestartEngine_ExhaustionBeforeCutoff is the restart progress
// property: when the space is fully explored before the first cutoff
// triggers, the restart layer finishes in its first attempt and every
// later Next returns none without building further attempts.
func TestRestartEngine_ExhaustionBeforeCutoff(t *testing.T) {
	re, err := NewRestartEngine(newTreeNode(scenarioTree()), &Options{
		Threads: 1,
		Cutoff:  NewConstantCutoff(1 << 30),
	})
	require.NoError(t, err)
	defer re.Shutdown()

	assert.Equal(t, []string{"s2", "s3a", "s3b"}, drain(t, re))

	for i := 0; i < 3; i++ {
		n, err := re.Next(context.Background())
		require.NoError(t, err)
		assert.Nil(t, n)
	}
	assert.Zero(t, re.Statistics().Restarts, "no restart may be started")
	assert.False(t, re.Stopped(), "exhaustion is not a stop")
}

// TestRestartEngine_CutoffForcesRestarts runs with a tight initial
// fail budget so several attempts are needed before the growing budget
// lets a run finish. The solution set must still be complete.
func TestRestartEngine_CutoffForcesRestarts(t *testing.T) {
	root := randomTree(rand.New(rand.NewSource(42)), 7, 0.2)
	want := solutionLabels(root)

	re, err := NewRestartEngine(newTreeNode(root), &Options{
		Threads:     2,
		Cutoff:      NewGeometricCutoff(2, 2),
		NoGoodDepth: 4,
	})
	require.NoError(t, err)
	defer re.Shutdown()

	// Without no-good support in the node, attempts may re-deliver
	// solutions found by earlier cut-off attempts; compare sets.
	seen := map[string]bool{}
	for _, label := range drain(t, re) {
		seen[label] = true
	}
	got := make([]string, 0, len(seen))
	for label := range seen {
		got = append(got, label)
	}
	sort.Strings(got)

	assert.Equal(t, want, got)
	assert.NotZero(t, re.Statistics().Restarts, "the tight budget must force restarts")
	assert.False(t, re.Stopped())
}

func TestRestartEngine_GlobalStop(t *testing.T) {
	re, err := NewRestartEngine(newTreeNode(completeFailTree(12)), &Options{
		Threads: 2,
		Stop:    NodeStop(50),
		Cutoff:  NewLubyCutoff(10),
	})
	require.NoError(t, err)
	defer re.Shutdown()

	n, err := re.Next(context.Background())
	require.NoError(t, err)
	require.Nil(t, n)

	assert.True(t, re.Stopped(), "the global predicate ends the whole search")
	n, err = re.Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, n)
}

// TestRestartEngine_StatisticsAccumulate checks that statistics carry
// across attempts instead of resetting with each child engine.
func TestRestartEngine_StatisticsAccumulate(t *testing.T) {
	root := randomTree(rand.New(rand.NewSource(11)), 7, 0.2)

	re, err := NewRestartEngine(newTreeNode(root), &Options{
		Threads: 1,
		Cutoff:  NewGeometricCutoff(2, 2),
	})
	require.NoError(t, err)
	drain(t, re)
	re.Shutdown()

	st := re.Statistics()
	require.NotZero(t, st.Restarts)
	assert.Greater(t, st.Nodes, uint64(countLeaves(root)),
		"re-exploration across attempts must be visible in the totals")
}
