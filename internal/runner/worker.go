package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/orinsid/relforge/internal/ctxlog"
	"github.com/orinsid/relforge/internal/matrix"
)

// worker drains the job channel. Once the run context is cancelled, the
// remaining jobs are drained as skipped so every matrix entry still gets a
// result and the WaitGroup barrier is reached.
func (r *Runner) worker(ctx context.Context, workerID int, jobs <-chan job, results []Result, cancel context.CancelFunc) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for j := range jobs {
		workerLogger := logger.With("workerID", workerID, "target", j.target.ID())

		if ctx.Err() != nil {
			workerLogger.Debug("Skipping target, run already aborted.")
			results[j.pos] = Result{
				Target: j.target,
				Status: StatusSkipped,
				Err:    fmt.Errorf("%w: run aborted before this target was built", ErrSkipped),
			}
			continue
		}

		workerLogger.Debug("Worker picked up target.")
		results[j.pos] = r.buildOne(ctx, j.target)

		if results[j.pos].Status == StatusFailed && !r.opts.KeepGoing {
			cancel()
		}
	}

	logger.Debug("Worker finished.", "workerID", workerID)
}

// buildOne runs a single toolchain invocation and classifies the outcome.
// A build interrupted by run-level cancellation is skipped, not failed: the
// abort's root cause lies elsewhere.
func (r *Runner) buildOne(ctx context.Context, target matrix.Target) Result {
	logger := ctxlog.FromContext(ctx)

	if r.opts.DryRun {
		logger.Info("Would build target.", "target", target.ID(), "command", r.tc.Describe(target))
		return Result{Target: target, Status: StatusBuilt}
	}

	buildCtx := ctx
	if r.opts.Timeout > 0 {
		var cancelBuild context.CancelFunc
		buildCtx, cancelBuild = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancelBuild()
	}

	logger.Info("Building target.", "target", target.ID(), "profile", target.Profile)
	start := time.Now()
	output, err := r.tc.Build(buildCtx, target)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("Build interrupted.", "target", target.ID(), "duration", duration)
			return Result{
				Target:   target,
				Status:   StatusSkipped,
				Output:   output,
				Duration: duration,
				Err:      fmt.Errorf("%w: interrupted by run abort", ErrSkipped),
			}
		}

		logger.Error("Build failed.", "target", target.ID(), "duration", duration, "error", err)
		return Result{
			Target:   target,
			Status:   StatusFailed,
			Output:   output,
			Duration: duration,
			Err:      fmt.Errorf("%w: %w", ErrBuildFailed, err),
		}
	}

	logger.Info("Built target.", "target", target.ID(), "duration", duration)
	return Result{
		Target:     target,
		Status:     StatusBuilt,
		BinaryPath: r.tc.BinaryPath(target),
		Output:     output,
		Duration:   duration,
	}
}
