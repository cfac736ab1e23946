package search

import (
	"errors"
	"io"
	"log/slog"
	"runtime"
)

// Configuration errors reported by NewEngine and NewRestartEngine.
// They are returned before any worker goroutine starts or any node is
// touched.
var (
	// ErrNilRoot is returned when the root node is nil.
	ErrNilRoot = errors.New("search: root node is nil")
	// ErrNoThreads is returned for a negative thread count. Zero is
	// valid and means one worker per CPU.
	ErrNoThreads = errors.New("search: negative thread count")
	// ErrNoCutoff is returned when a restart engine is requested
	// without a cutoff sequence.
	ErrNoCutoff = errors.New("search: restart engine requires a cutoff sequence")
)

// Default distances, matching the conventional defaults of
// recomputation-based solvers.
const (
	// DefaultCloneDistance is the default maximum number of frames
	// between two node snapshots on a path.
	DefaultCloneDistance = 8
	// DefaultAdaptiveDistance is the default re-cloning stride during
	// recomputation.
	DefaultAdaptiveDistance = 2
)

// Options configures an Engine or RestartEngine.
type Options struct {
	// Threads is the number of worker goroutines. Zero defaults to
	// runtime.NumCPU(); negative values are rejected at construction.
	Threads int

	// CloneDistance (c_d) bounds how many frames a path may stretch
	// between two full node snapshots. Larger values save memory and
	// increase the cost of backtracking. If 0 or negative, defaults to
	// DefaultCloneDistance. A value of 1 snapshots every frame
	// (no recomputation ever happens).
	CloneDistance int

	// AdaptiveDistance (a_d) is the stride at which recomputation
	// re-clones intermediate snapshots, bounding the cost of the next
	// backtrack through the same region. If 0 or negative, defaults to
	// DefaultAdaptiveDistance.
	AdaptiveDistance int

	// Stop is the cooperative stop predicate, evaluated by each worker
	// between node expansions. Nil means the search only ends by
	// exhaustion.
	Stop Stop

	// Cutoff supplies per-restart fail budgets. Required by
	// NewRestartEngine, ignored by NewEngine.
	Cutoff Cutoff

	// NoGoodDepth bounds the path depth up to which exhausted choice
	// prefixes are extracted as no-goods when a restart attempt ends.
	// 0 disables no-good extraction.
	NoGoodDepth int

	// Logger receives level-gated lifecycle and steal events. Nil
	// discards everything.
	Logger *slog.Logger
}

// DefaultOptions returns the default engine configuration: one worker
// per CPU, default distances, no stop predicate, no restarts.
func DefaultOptions() *Options {
	return &Options{
		Threads:          runtime.NumCPU(),
		CloneDistance:    DefaultCloneDistance,
		AdaptiveDistance: DefaultAdaptiveDistance,
	}
}

// normalize fills defaults into a copy of o. A nil receiver yields the
// defaults.
func (o *Options) normalize() Options {
	var opt Options
	if o != nil {
		opt = *o
	}
	if opt.Threads <= 0 {
		opt.Threads = runtime.NumCPU()
	}
	if opt.CloneDistance <= 0 {
		opt.CloneDistance = DefaultCloneDistance
	}
	if opt.AdaptiveDistance <= 0 {
		opt.AdaptiveDistance = DefaultAdaptiveDistance
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opt
}
