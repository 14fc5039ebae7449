package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/orinsid/relforge/internal/runner"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

var (
	// ErrNotFound reports a run ID with no ledger row.
	ErrNotFound = errors.New("run not found in ledger")

	// ErrNoRuns reports an empty ledger where history was required.
	ErrNoRuns = errors.New("ledger has no recorded runs")
)

// Run is one orchestrator invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is still open
	Policy     string
	Toolchain  string
	Status     string
	Built      int
	Failed     int
	Skipped    int
}

// RunTarget is one target outcome within a run, at its matrix position.
type RunTarget struct {
	RunID    string
	Position int
	Project  string
	Triple   string
	Profile  string
	Status   string
	Detail   string
	Duration time.Duration
}

// ID returns the "<project>@<triple>" identity of the recorded target,
// matching matrix.Target.ID for the same entry.
func (rt RunTarget) ID() string {
	return rt.Project + "@" + rt.Triple
}

// Store persists runs and their per-target outcomes.
type Store struct {
	DB *sql.DB
}

// CreateRun inserts a new run in the running state and returns its ID.
func (s *Store) CreateRun(ctx context.Context, policy, toolchainName string) (string, error) {
	id := uuid.NewString()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, policy, toolchain, status)
		 VALUES (?, ?, ?, ?, ?)`,
		id, time.Now().UnixMilli(), policy, toolchainName, RunRunning,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// RecordResult stores one target outcome at its matrix position.
func (s *Store) RecordResult(ctx context.Context, runID string, position int, res runner.Result) error {
	detail := ""
	if res.Err != nil {
		detail = res.Err.Error()
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO run_targets (run_id, position, project, triple, profile, status, detail, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, position, res.Target.Project, res.Target.Triple.Full(), res.Target.Profile,
		string(res.Status), detail, res.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run target: %w", err)
	}
	return nil
}

// FinishRun seals a run with its final status and outcome counts.
func (s *Store) FinishRun(ctx context.Context, runID string, results []runner.Result) error {
	var built, failed, skipped int
	for _, res := range results {
		switch res.Status {
		case runner.StatusBuilt:
			built++
		case runner.StatusFailed:
			failed++
		case runner.StatusSkipped:
			skipped++
		}
	}

	status := RunSucceeded
	if failed > 0 || skipped > 0 {
		status = RunFailed
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, built = ?, failed = ?, skipped = ?
		 WHERE id = ?`,
		time.Now().UnixMilli(), status, built, failed, skipped, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run %q: %w", runID, ErrNotFound)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, policy, toolchain, status, built, failed, skipped`

// LatestRun returns the most recently started run. Ties on the start
// timestamp fall back to insertion order.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`,
	)
	run, err := scanRun(row)
	if errors.Is(err, ErrNotFound) {
		return run, ErrNoRuns
	}
	return run, err
}

// ListRuns returns up to limit runs, most recent first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Targets returns a run's recorded outcomes in matrix position order.
func (s *Store) Targets(ctx context.Context, runID string) ([]RunTarget, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT run_id, position, project, triple, profile, status, detail, duration_ms
		 FROM run_targets WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run targets: %w", err)
	}
	defer rows.Close()

	var targets []RunTarget
	for rows.Next() {
		var rt RunTarget
		var durationMS int64
		if err := rows.Scan(&rt.RunID, &rt.Position, &rt.Project, &rt.Triple, &rt.Profile, &rt.Status, &rt.Detail, &durationMS); err != nil {
			return nil, fmt.Errorf("scan run target: %w", err)
		}
		rt.Duration = time.Duration(durationMS) * time.Millisecond
		targets = append(targets, rt)
	}
	return targets, rows.Err()
}

// UnbuiltTargetIDs returns the identities of the run's targets that did not
// end built, in matrix position order. This is the retry-failed subset.
func (s *Store) UnbuiltTargetIDs(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT project, triple FROM run_targets
		 WHERE run_id = ? AND status != ? ORDER BY position`,
		runID, string(runner.StatusBuilt),
	)
	if err != nil {
		return nil, fmt.Errorf("list unbuilt targets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var project, triple string
		if err := rows.Scan(&project, &triple); err != nil {
			return nil, fmt.Errorf("scan unbuilt target: %w", err)
		}
		ids = append(ids, project+"@"+triple)
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var startedAt int64
	var finishedAt sql.NullInt64
	err := s.Scan(&run.ID, &startedAt, &finishedAt, &run.Policy, &run.Toolchain,
		&run.Status, &run.Built, &run.Failed, &run.Skipped)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, ErrNotFound
		}
		return run, fmt.Errorf("scan run: %w", err)
	}

	run.StartedAt = time.UnixMilli(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = time.UnixMilli(finishedAt.Int64)
	}
	return run, nil
}
