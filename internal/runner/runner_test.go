package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/orinsid/relforge/internal/ctxlog"
	"github.com/orinsid/relforge/internal/matrix"
	"github.com/orinsid/relforge/internal/toolchain/toolchaintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quietCtx returns a context whose logger discards everything, keeping test
// output readable.
func quietCtx() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

// testMatrix builds a matrix of geph4-client targets for the given triples.
func testMatrix(t *testing.T, triples ...string) *matrix.Matrix {
	t.Helper()

	targets := make([]matrix.Target, 0, len(triples))
	for _, triple := range triples {
		targets = append(targets, matrix.Target{
			Project: "geph4-client",
			Triple:  matrix.MustParseTriple(triple),
			Profile: "release",
			Locked:  true,
		})
	}

	m, err := matrix.New(targets)
	require.NoError(t, err)
	return m
}

func TestRun_AllTargetsSucceed(t *testing.T) {
	// --- Arrange ---
	fake := toolchaintest.New(t.TempDir())
	m := testMatrix(t,
		"x86_64-unknown-linux-musl",
		"x86_64-pc-windows-gnu",
		"x86_64-apple-darwin",
	)
	r := New(fake, Options{})

	// --- Act ---
	results, err := r.Run(quietCtx(), m)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, res := range results {
		assert.Equal(t, m.Targets[i].ID(), res.Target.ID(), "results must be in matrix order")
		assert.Equal(t, StatusBuilt, res.Status)
		assert.NoError(t, res.Err)
		require.NotEmpty(t, res.BinaryPath)
		assert.FileExists(t, res.BinaryPath)
	}
}

func TestRun_FailFastStopsAtFirstFailure(t *testing.T) {
	// --- Arrange ---
	fake := toolchaintest.New(t.TempDir())
	m := testMatrix(t,
		"x86_64-unknown-linux-musl",
		"aarch64-unknown-linux-musl",
		"x86_64-pc-windows-gnu",
		"x86_64-apple-darwin",
	)
	fake.FailTargets[m.Targets[1].ID()] = errors.New("linker not found")
	r := New(fake, Options{Workers: 1})

	// --- Act ---
	results, err := r.Run(quietCtx(), m)

	// --- Assert ---
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBuildFailed)
	assert.Contains(t, err.Error(), m.Targets[1].ID())

	// No build is invoked after the failing target.
	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, m.Targets[0].ID(), calls[0].ID())
	assert.Equal(t, m.Targets[1].ID(), calls[1].ID())

	assert.Equal(t, StatusBuilt, results[0].Status)
	assert.Equal(t, StatusFailed, results[1].Status)
	assert.ErrorIs(t, results[1].Err, ErrBuildFailed)
	assert.Equal(t, StatusSkipped, results[2].Status)
	assert.ErrorIs(t, results[2].Err, ErrSkipped)
	assert.Equal(t, StatusSkipped, results[3].Status)
}

func TestRun_KeepGoingBuildsEverything(t *testing.T) {
	// --- Arrange ---
	fake := toolchaintest.New(t.TempDir())
	m := testMatrix(t,
		"x86_64-unknown-linux-musl",
		"aarch64-unknown-linux-musl",
		"x86_64-pc-windows-gnu",
	)
	fake.FailTargets[m.Targets[0].ID()] = errors.New("cross toolchain missing")
	r := New(fake, Options{Workers: 1, KeepGoing: true})

	// --- Act ---
	results, err := r.Run(quietCtx(), m)

	// --- Assert ---
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBuildFailed)

	// Every target was still attempted.
	assert.Len(t, fake.Calls(), 3)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Equal(t, StatusBuilt, results[1].Status)
	assert.Equal(t, StatusBuilt, results[2].Status)
}

func TestRun_KeepGoingReportsEveryFailure(t *testing.T) {
	// --- Arrange ---
	fake := toolchaintest.New(t.TempDir())
	m := testMatrix(t,
		"x86_64-unknown-linux-musl",
		"aarch64-unknown-linux-musl",
		"x86_64-pc-windows-gnu",
	)
	fake.FailTargets[m.Targets[0].ID()] = errors.New("first failure")
	fake.FailTargets[m.Targets[2].ID()] = errors.New("second failure")
	r := New(fake, Options{Workers: 1, KeepGoing: true})

	// --- Act ---
	_, err := r.Run(quietCtx(), m)

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), m.Targets[0].ID())
	assert.Contains(t, err.Error(), m.Targets[2].ID())
	// The root cause is the first failure in matrix order.
	assert.Contains(t, err.Error(), "first failure")
}

func TestRun_BoundedConcurrency(t *testing.T) {
	// --- Arrange ---
	fake := toolchaintest.New(t.TempDir())
	m := testMatrix(t,
		"x86_64-unknown-linux-musl",
		"aarch64-unknown-linux-musl",
		"armv7-unknown-linux-musleabihf",
		"i686-unknown-linux-musl",
		"x86_64-pc-windows-gnu",
		"x86_64-apple-darwin",
	)

	// The first two builds block until both are in flight, proving the pool
	// actually runs two builds concurrently; the pool size proves it never
	// runs more.
	var arrived atomic.Int32
	gate := make(chan struct{})
	fake.OnBuild = func(matrix.Target) {
		if arrived.Add(1) == 2 {
			close(gate)
		}
		<-gate
	}
	r := New(fake, Options{Workers: 2})

	// --- Act ---
	results, err := r.Run(quietCtx(), m)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, results, 6)
	assert.Equal(t, 2, fake.MaxInFlight())
}

func TestRun_TimeoutFailsBuild(t *testing.T) {
	// --- Arrange ---
	fake := toolchaintest.New(t.TempDir())
	fake.BuildDelay = 5 * time.Second
	m := testMatrix(t, "x86_64-unknown-linux-musl")
	r := New(fake, Options{Workers: 1, Timeout: 20 * time.Millisecond})

	// --- Act ---
	results, err := r.Run(quietCtx(), m)

	// --- Assert ---
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBuildFailed)
	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
}

func TestRun_ExternalCancellationSkipsEverything(t *testing.T) {
	// --- Arrange ---
	fake := toolchaintest.New(t.TempDir())
	m := testMatrix(t, "x86_64-unknown-linux-musl", "x86_64-pc-windows-gnu")
	r := New(fake, Options{Workers: 1})

	ctx, cancel := context.WithCancel(quietCtx())
	cancel()

	// --- Act ---
	results, err := r.Run(ctx, m)

	// --- Assert ---
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSkipped)
	assert.Empty(t, fake.Calls())
	for _, res := range results {
		assert.Equal(t, StatusSkipped, res.Status)
	}
}

func TestRun_DryRunExecutesNothing(t *testing.T) {
	// --- Arrange ---
	root := t.TempDir()
	fake := toolchaintest.New(root)
	m := testMatrix(t, "x86_64-unknown-linux-musl", "x86_64-pc-windows-gnu")
	r := New(fake, Options{DryRun: true})

	// --- Act ---
	results, err := r.Run(quietCtx(), m)

	// --- Assert ---
	require.NoError(t, err)
	assert.Empty(t, fake.Calls(), "a dry run must not invoke the toolchain")

	for _, res := range results {
		assert.Equal(t, StatusBuilt, res.Status)
		assert.Empty(t, res.BinaryPath)
	}

	_, statErr := os.Stat(filepath.Join(root, "target"))
	assert.True(t, os.IsNotExist(statErr), "a dry run must not write build outputs")
}

func TestRun_EmptyMatrixIsRejected(t *testing.T) {
	fake := toolchaintest.New(t.TempDir())
	r := New(fake, Options{})

	_, err := r.Run(quietCtx(), &matrix.Matrix{})

	require.Error(t, err)
	assert.ErrorIs(t, err, matrix.ErrNoTargets)
}
