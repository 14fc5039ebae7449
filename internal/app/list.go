package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/orinsid/relforge/internal/ctxlog"
	"github.com/orinsid/relforge/internal/ledger"
)

// ListTargets prints every target of the active matrix with its artifact
// name, in matrix order.
func (a *App) ListTargets(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	m, err := a.loadMatrix(ctx)
	if err != nil {
		return err
	}

	for _, t := range m.Targets {
		fmt.Fprintf(a.outW, "%-44s -> %s\n", t.ID(), t.DestName())
	}
	return nil
}

// ListRuns prints the most recent ledger runs, newest first, with their
// per-target tallies.
func (a *App) ListRuns(ctx context.Context, limit int) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	if a.config.NoLedger {
		return errors.New("the run ledger is disabled")
	}
	store, err := a.openLedger()
	if err != nil {
		return err
	}
	defer store.DB.Close()

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.outW, "no runs recorded yet")
		return nil
	}

	for _, run := range runs {
		fmt.Fprintf(a.outW, "%.8s  %s  %-9s  %-10s  built=%d failed=%d skipped=%d\n",
			run.ID,
			run.StartedAt.Format(time.RFC3339),
			run.Status,
			run.Policy,
			run.Built,
			run.Failed,
			run.Skipped,
		)
	}
	return nil
}

// ShowLatestRun prints the latest run's per-target outcomes in build order.
func (a *App) ShowLatestRun(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	if a.config.NoLedger {
		return errors.New("the run ledger is disabled")
	}
	store, err := a.openLedger()
	if err != nil {
		return err
	}
	defer store.DB.Close()

	run, err := store.LatestRun(ctx)
	if err != nil {
		if errors.Is(err, ledger.ErrNoRuns) {
			fmt.Fprintln(a.outW, "no runs recorded yet")
			return nil
		}
		return err
	}
	targets, err := store.Targets(ctx, run.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.outW, "run %.8s  %s  %s\n", run.ID, run.StartedAt.Format(time.RFC3339), run.Status)
	for _, rt := range targets {
		fmt.Fprintf(a.outW, "  %-44s %-8s %6dms", rt.ID(), rt.Status, rt.Duration.Milliseconds())
		if rt.Detail != "" {
			fmt.Fprintf(a.outW, "  %s", rt.Detail)
		}
		fmt.Fprintln(a.outW)
	}
	return nil
}
