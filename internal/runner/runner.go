// Package runner executes the build matrix: one toolchain invocation per
// target, scheduled in matrix order onto a bounded worker pool, with a join
// barrier before control returns to the caller. One worker reproduces the
// strictly sequential reference behavior; more workers build independent
// targets concurrently.
package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/orinsid/relforge/internal/ctxlog"
	"github.com/orinsid/relforge/internal/matrix"
	"github.com/orinsid/relforge/internal/toolchain"
)

// Options configure a run.
type Options struct {
	// Workers bounds build concurrency. Values below 1 mean 1.
	Workers int

	// KeepGoing builds every target and reports all outcomes, instead of
	// cancelling outstanding work at the first failure.
	KeepGoing bool

	// Timeout bounds each individual build; a build that exceeds it fails.
	// Zero disables the limit.
	Timeout time.Duration

	// DryRun logs each build command without executing anything.
	DryRun bool
}

// Runner schedules matrix targets onto a pool of build workers.
type Runner struct {
	tc   toolchain.Toolchain
	opts Options
}

// New creates a Runner for the given toolchain.
func New(tc toolchain.Toolchain, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{tc: tc, opts: opts}
}

// job pairs a target with its matrix position, so each worker writes its
// result to a distinct slice index and no locking is needed.
type job struct {
	pos    int
	target matrix.Target
}

// Run builds every target in the matrix and returns one Result per target,
// in matrix order. It returns only after every scheduled build has quiesced,
// so collection never overlaps building. The returned error identifies every
// failed target and wraps the first real failure as the root cause; a nil
// error means every target was built.
func (r *Runner) Run(ctx context.Context, m *matrix.Matrix) ([]Result, error) {
	logger := ctxlog.FromContext(ctx)

	if err := m.Validate(); err != nil {
		return nil, err
	}

	results := make([]Result, m.Len())

	// Targets are independent, so the whole matrix is queued up front.
	jobs := make(chan job, m.Len())
	for i, target := range m.Targets {
		jobs <- job{pos: i, target: target}
	}
	close(jobs)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug("Starting build workers.", "workers", r.opts.Workers, "targets", m.Len())

	var wg sync.WaitGroup
	wg.Add(r.opts.Workers)
	for i := 0; i < r.opts.Workers; i++ {
		go func(workerID int) {
			defer wg.Done()
			r.worker(runCtx, workerID, jobs, results, cancel)
		}(i)
	}

	wg.Wait()

	return results, r.sweep(ctx, results)
}

// sweep walks the completed results, logs every failure, and derives the
// run's error. Skipped targets are symptoms of an abort, not causes, so the
// root cause is always the first real build failure in matrix order.
func (r *Runner) sweep(ctx context.Context, results []Result) error {
	logger := ctxlog.FromContext(ctx)

	var failed []string
	var rootCause error
	skipped := 0

	for _, res := range results {
		switch res.Status {
		case StatusFailed:
			logger.Error("Target failed.", "target", res.Target.ID(), "error", res.Err)
			failed = append(failed, res.Target.ID())
			if rootCause == nil {
				rootCause = res.Err
			}
		case StatusSkipped:
			skipped++
		}
	}

	if rootCause != nil {
		return fmt.Errorf("build matrix failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}

	// No build failed but targets were skipped: the run context was
	// cancelled from outside, typically by a signal.
	if skipped > 0 {
		return fmt.Errorf("%w: %d target(s) never built", ErrSkipped, skipped)
	}

	return nil
}
