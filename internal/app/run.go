package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/orinsid/relforge/internal/collect"
	"github.com/orinsid/relforge/internal/ctxlog"
	"github.com/orinsid/relforge/internal/ledger"
	"github.com/orinsid/relforge/internal/matrix"
	"github.com/orinsid/relforge/internal/paths"
	"github.com/orinsid/relforge/internal/runner"
	"github.com/orinsid/relforge/internal/toolchain"
)

// Run executes one full release build: load the matrix, build every target,
// record the run in the ledger, and collect the artifacts.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	tc, err := a.resolveToolchain()
	if err != nil {
		return err
	}

	m, err := a.loadMatrix(ctx)
	if err != nil {
		return err
	}

	var store *ledger.Store
	if !a.config.NoLedger {
		store, err = a.openLedger()
		if err != nil {
			return err
		}
		defer store.DB.Close()
	}

	// A retry narrows what gets built, never what gets collected: the
	// release is complete only when every target of the full matrix has
	// an artifact, and the previously built ones are already on disk.
	full := m
	if a.config.RetryFailed {
		m, err = a.retrySubset(ctx, store, m)
		if err != nil {
			return err
		}
		if m.Len() == 0 {
			a.logger.Info("Nothing to retry, the latest run built every target.")
			return nil
		}
	}

	policy := "fail-fast"
	if a.config.KeepGoing {
		policy = "keep-going"
	}

	// A dry run reads the ledger (for --retry-failed) but never writes
	// it: nothing was built, so there is no outcome to record.
	recording := store != nil && !a.config.DryRun

	var runID string
	if recording {
		runID, err = store.CreateRun(ctx, policy, tc.Name())
		if err != nil {
			return fmt.Errorf("failed to record run start: %w", err)
		}
	}

	a.logger.Info("🚀 Starting build matrix.",
		"targets", m.Len(),
		"workers", a.config.Workers,
		"policy", policy,
	)
	r := runner.New(tc, runner.Options{
		Workers:   a.config.Workers,
		KeepGoing: a.config.KeepGoing,
		Timeout:   a.config.Timeout,
		DryRun:    a.config.DryRun,
	})
	results, runErr := r.Run(ctx, m)

	if recording {
		// Record even an aborted run, otherwise --retry-failed has
		// nothing to resume from after an interrupt.
		if err := a.recordRun(context.WithoutCancel(ctx), store, runID, results); err != nil {
			a.logger.Error("Failed to record run history.", "error", err)
			if runErr == nil {
				// A build failure is the more useful root cause; only
				// surface the ledger when the builds themselves were fine.
				runErr = err
			}
		}
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("🏁 Build matrix finished.", "targets", m.Len())

	if a.config.DryRun {
		a.logger.Info("Dry run, skipping artifact collection.")
		return nil
	}

	collector := collect.New(a.config.Out)
	mappings, err := collector.Collect(ctx, full, tc)
	if err != nil {
		return fmt.Errorf("artifact collection failed: %w", err)
	}
	a.logger.Info("Release artifacts collected.",
		"dir", collector.OutDir(),
		"count", len(mappings),
	)

	return nil
}

// resolveToolchain returns the injected toolchain or constructs the real
// cargo one, discovering the workspace root if none was configured.
func (a *App) resolveToolchain() (toolchain.Toolchain, error) {
	if a.tc != nil {
		return a.tc, nil
	}

	cargo, err := toolchain.NewCargo(a.config.CargoBin, a.config.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to locate cargo workspace: %w", err)
	}
	a.logger.Debug("Cargo workspace located.", "root", cargo.Root())
	return cargo, nil
}

// loadMatrix returns the configured HCL matrix, or the compiled-in default
// when no path was given.
func (a *App) loadMatrix(ctx context.Context) (*matrix.Matrix, error) {
	if a.config.MatrixPath == "" {
		m := matrix.DefaultMatrix()
		a.logger.Debug("Using the compiled-in build matrix.", "targets", m.Len())
		return m, nil
	}

	m, err := matrix.Load(ctx, a.config.MatrixPath)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Build matrix loaded.", "path", a.config.MatrixPath, "targets", m.Len())
	return m, nil
}

// openLedger opens the run ledger, creating the database and its parent
// directory on first use.
func (a *App) openLedger() (*ledger.Store, error) {
	path := a.config.LedgerPath
	if path == "" {
		path = paths.LedgerFile()
	}

	if err := os.MkdirAll(filepath.Dir(path), paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	db, err := ledger.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	a.logger.Debug("Run ledger open.", "path", path)

	return &ledger.Store{DB: db}, nil
}

// retrySubset narrows the matrix to the targets the latest recorded run did
// not build.
func (a *App) retrySubset(ctx context.Context, store *ledger.Store, m *matrix.Matrix) (*matrix.Matrix, error) {
	if store == nil {
		return nil, errors.New("--retry-failed needs the run ledger, which is disabled")
	}

	last, err := store.LatestRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot determine which targets to retry: %w", err)
	}
	ids, err := store.UnbuiltTargetIDs(ctx, last.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot determine which targets to retry: %w", err)
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	subset := m.Filter(func(t matrix.Target) bool {
		_, ok := wanted[t.ID()]
		return ok
	})

	a.logger.Info("Retrying the unbuilt targets of the latest run.",
		"run", last.ID,
		"targets", subset.Len(),
	)
	return subset, nil
}

// recordRun persists every per-target outcome and closes out the run row.
func (a *App) recordRun(ctx context.Context, store *ledger.Store, runID string, results []runner.Result) error {
	for i, res := range results {
		if err := store.RecordResult(ctx, runID, i, res); err != nil {
			return fmt.Errorf("failed to record outcome for %s: %w", res.Target.ID(), err)
		}
	}
	if err := store.FinishRun(ctx, runID, results); err != nil {
		return fmt.Errorf("failed to finish run record: %w", err)
	}
	return nil
}
