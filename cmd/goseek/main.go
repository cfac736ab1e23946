// Command goseek runs parallel depth-first search over constraint
// problems from the command line. It ships two demonstration problem
// classes: model enumeration for DIMACS CNF formulas and the n-queens
// puzzle.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitrdm/goseek/pkg/search"
)

var (
	rootCmd = &cobra.Command{
		Use:   "goseek",
		Short: "Parallel depth-first search with work stealing and restarts",
		Long: `goseek explores constraint search trees with a pool of worker
goroutines that steal work from each other, using hybrid copying and
recomputation to keep memory bounded. Searches can optionally run
under a restart strategy with no-good learning.`,
		SilenceUsage: true,
	}

	flagThreads          int
	flagCloneDistance    int
	flagAdaptiveDistance int
	flagLogLevel         string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&flagThreads, "threads", "t", 0, "worker goroutines (0 = one per CPU)")
	pf.IntVar(&flagCloneDistance, "clone-distance", search.DefaultCloneDistance,
		"frames between node snapshots on a search path")
	pf.IntVar(&flagAdaptiveDistance, "adaptive-distance", search.DefaultAdaptiveDistance,
		"re-cloning stride during recomputation")
	pf.StringVar(&flagLogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

// buildOptions translates the shared flags into engine options.
func buildOptions() (*search.Options, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flagLogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", flagLogLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	return &search.Options{
		Threads:          flagThreads,
		CloneDistance:    flagCloneDistance,
		AdaptiveDistance: flagAdaptiveDistance,
		Logger:           logger,
	}, nil
}

// printStatistics renders the final search totals on stderr so they
// never mix with the solution stream on stdout.
func printStatistics(st search.Statistics, stopped bool) {
	fmt.Fprintf(os.Stderr, "nodes=%d fails=%d solutions=%d depth=%d restarts=%d",
		st.Nodes, st.Fails, st.Solutions, st.Depth, st.Restarts)
	if stopped {
		fmt.Fprint(os.Stderr, " (stopped)")
	}
	fmt.Fprintln(os.Stderr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
