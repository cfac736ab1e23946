package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitrdm/goseek/pkg/search"
)

var (
	queensCmd = &cobra.Command{
		Use:   "queens",
		Short: "Solve the n-queens puzzle",
		Long: `Places n queens on an n by n board so that no two attack each
other, searching column by column with one worker pool. By default the
first solution is printed; --all enumerates every solution.`,
		RunE: runQueens,
	}

	flagBoardSize int
	flagAll       bool
)

func init() {
	fl := queensCmd.Flags()
	fl.IntVarP(&flagBoardSize, "size", "n", 8, "board size")
	fl.BoolVar(&flagAll, "all", false, "enumerate all solutions instead of the first")
	rootCmd.AddCommand(queensCmd)
}

// queensChoice branches over the row of the next column.
type queensChoice struct {
	n int
}

func (c *queensChoice) Alternatives() int {
	return c.n
}

// queensNode assigns one queen per column, left to right. rows[i] is
// the row of the queen in column i.
type queensNode struct {
	n    int
	rows []int
}

func newQueensNode(n int) *queensNode {
	return &queensNode{n: n}
}

func (q *queensNode) Status() search.Status {
	// Only the most recent placement can introduce a conflict.
	last := len(q.rows) - 1
	if last >= 0 {
		r := q.rows[last]
		for col, row := range q.rows[:last] {
			d := last - col
			if row == r || row == r+d || row == r-d {
				return search.Failed
			}
		}
	}
	if len(q.rows) == q.n {
		return search.Solved
	}
	return search.Branching
}

func (q *queensNode) Clone() search.Node {
	return &queensNode{n: q.n, rows: append([]int(nil), q.rows...)}
}

func (q *queensNode) Describe() search.Choicepoint {
	return &queensChoice{n: q.n}
}

func (q *queensNode) Commit(cp search.Choicepoint, alt int) {
	q.rows = append(q.rows, alt)
}

// Board renders the placement as ASCII art.
func (q *queensNode) Board() string {
	var b strings.Builder
	for r := 0; r < q.n; r++ {
		for c := 0; c < q.n; c++ {
			if c < len(q.rows) && q.rows[c] == r {
				b.WriteByte('Q')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func runQueens(cmd *cobra.Command, args []string) error {
	if flagBoardSize < 1 {
		return fmt.Errorf("board size must be positive, got %d", flagBoardSize)
	}

	opt, err := buildOptions()
	if err != nil {
		return err
	}
	e, err := search.NewEngine(newQueensNode(flagBoardSize), opt)
	if err != nil {
		return err
	}
	defer e.Shutdown()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	found := 0
	for {
		n, err := e.Next(ctx)
		if err != nil || n == nil {
			break
		}
		found++
		if flagAll {
			fmt.Printf("solution %d:\n%s\n", found, n.(*queensNode).Board())
		} else {
			fmt.Print(n.(*queensNode).Board())
			break
		}
	}
	if found == 0 {
		fmt.Printf("no solution for n=%d\n", flagBoardSize)
	}

	printStatistics(e.Statistics(), e.Stopped())
	return nil
}
