package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitrdm/goseek/pkg/cnf"
	"github.com/gitrdm/goseek/pkg/search"
)

var (
	dimacsCmd = &cobra.Command{
		Use:   "dimacs [file]",
		Short: "Enumerate the models of a DIMACS CNF formula",
		Long: `Reads a formula in DIMACS CNF format (from the file argument, or
stdin when the argument is "-" or absent) and enumerates its models in
parallel, one model per line in DIMACS literal notation.

With --cutoff the search runs under a restart strategy: each attempt
gets a fail budget from the cutoff sequence, and exhausted regions are
carried forward as blocking clauses.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDimacs,
	}

	flagMaxModels   int
	flagNodeBudget  uint64
	flagFailBudget  uint64
	flagCutoff      string
	flagNoGoodDepth int
)

func init() {
	fl := dimacsCmd.Flags()
	fl.IntVarP(&flagMaxModels, "max-models", "m", 0, "stop after this many models (0 = all)")
	fl.Uint64Var(&flagNodeBudget, "node-budget", 0, "stop after exploring this many nodes (0 = unlimited)")
	fl.Uint64Var(&flagFailBudget, "fail-budget", 0, "stop after this many failures (0 = unlimited)")
	fl.StringVar(&flagCutoff, "cutoff", "",
		"restart cutoff sequence: const:N, geom:BASE,FACTOR or luby:SCALE (empty = no restarts)")
	fl.IntVar(&flagNoGoodDepth, "nogood-depth", 8, "path depth up to which no-goods are recorded (0 = off)")
	rootCmd.AddCommand(dimacsCmd)
}

// parseCutoff builds a cutoff sequence from its flag notation.
func parseCutoff(spec string) (search.Cutoff, error) {
	kind, arg, _ := strings.Cut(spec, ":")
	switch kind {
	case "const":
		n, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cutoff %q: %w", spec, err)
		}
		return search.NewConstantCutoff(n), nil
	case "geom":
		base, factor, ok := strings.Cut(arg, ",")
		if !ok {
			return nil, fmt.Errorf("cutoff %q: want geom:BASE,FACTOR", spec)
		}
		b, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cutoff %q: %w", spec, err)
		}
		f, err := strconv.ParseFloat(factor, 64)
		if err != nil {
			return nil, fmt.Errorf("cutoff %q: %w", spec, err)
		}
		return search.NewGeometricCutoff(b, f), nil
	case "luby":
		s, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cutoff %q: %w", spec, err)
		}
		return search.NewLubyCutoff(s), nil
	default:
		return nil, fmt.Errorf("cutoff %q: unknown kind %q", spec, kind)
	}
}

func openInput(args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(args[0])
}

func runDimacs(cmd *cobra.Command, args []string) error {
	in, err := openInput(args)
	if err != nil {
		return err
	}
	defer in.Close()

	f, err := cnf.ParseDIMACS(in)
	if err != nil {
		return err
	}

	opt, err := buildOptions()
	if err != nil {
		return err
	}
	var stops []search.Stop
	if flagNodeBudget > 0 {
		stops = append(stops, search.NodeStop(flagNodeBudget))
	}
	if flagFailBudget > 0 {
		stops = append(stops, search.FailStop(flagFailBudget))
	}
	if len(stops) > 0 {
		opt.Stop = search.Or(stops...)
	}

	var s search.Searcher
	if flagCutoff != "" {
		cutoff, err := parseCutoff(flagCutoff)
		if err != nil {
			return err
		}
		opt.Cutoff = cutoff
		opt.NoGoodDepth = flagNoGoodDepth
		s, err = search.NewRestartEngine(cnf.NewNode(f), opt)
		if err != nil {
			return err
		}
	} else {
		s, err = search.NewEngine(cnf.NewNode(f), opt)
		if err != nil {
			return err
		}
	}
	defer s.Shutdown()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	// Restarts without no-good support would re-deliver models; the
	// cnf node does support them, but a cut-off attempt can still
	// rediscover a model inside a region it had not exhausted.
	seen := map[string]bool{}
	models := 0
	for flagMaxModels == 0 || models < flagMaxModels {
		n, err := s.Next(ctx)
		if err != nil {
			break
		}
		if n == nil {
			break
		}
		m := n.(*cnf.Node).String()
		if seen[m] {
			continue
		}
		seen[m] = true
		models++
		fmt.Println(m)
	}

	printStatistics(s.Statistics(), s.Stopped())
	return nil
}
