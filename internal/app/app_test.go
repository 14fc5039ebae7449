package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orinsid/relforge/internal/ledger"
	"github.com/orinsid/relforge/internal/runner"
	"github.com/orinsid/relforge/internal/toolchain/toolchaintest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoTargetMatrix is the smallest cross-platform release: one Linux and one
// Windows build of the same project.
const twoTargetMatrix = `
project "geph4-client" {
  target "x86_64-linux-musl" {}
  target "x86_64-windows-gnu" {}
}
`

// testEnv bundles an App wired to a fake toolchain with the config its run
// will use, so tests can construct follow-up Apps over the same state.
type testEnv struct {
	cfg  *Config
	fake *toolchaintest.Fake
	app  *App
}

// newTestEnv writes the given matrix to disk and builds an App around it.
// The override hook mutates the Config before the App is constructed.
func newTestEnv(t *testing.T, matrixHCL string, override func(*Config)) *testEnv {
	t.Helper()

	dir := t.TempDir()
	matrixPath := filepath.Join(dir, "relforge.hcl")
	require.NoError(t, os.WriteFile(matrixPath, []byte(matrixHCL), 0o644))

	cfg := &Config{
		MatrixPath: matrixPath,
		Out:        filepath.Join(dir, "OUTPUT"),
		Workers:    1,
		LedgerPath: filepath.Join(dir, "ledger.db"),
		LogLevel:   "error",
	}
	if override != nil {
		override(cfg)
	}

	fake := toolchaintest.New(dir)
	return &testEnv{
		cfg:  cfg,
		fake: fake,
		app:  New(io.Discard, cfg, fake),
	}
}

// openStore opens the on-disk ledger a finished run left behind.
func openStore(t *testing.T, path string) *ledger.Store {
	t.Helper()

	db, err := ledger.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &ledger.Store{DB: db}
}

func TestRun_BuildsTheMatrixAndCollectsArtifacts(t *testing.T) {
	// --- Arrange ---
	env := newTestEnv(t, twoTargetMatrix, nil)

	// --- Act ---
	err := env.app.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)

	entries, err := os.ReadDir(env.cfg.Out)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.Equal(t, []string{
		"SHA256SUMS",
		"geph4-client-linux-amd64",
		"geph4-client-windows-amd64.exe",
	}, names)

	store := openStore(t, env.cfg.LedgerPath)
	run, err := store.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ledger.RunSucceeded, run.Status)
	assert.Equal(t, 2, run.Built)
	assert.Equal(t, "fake", run.Toolchain)
}

func TestRun_FailFastLeavesNoOutputDirectory(t *testing.T) {
	// --- Arrange ---
	env := newTestEnv(t, twoTargetMatrix, nil)
	env.fake.FailTargets["geph4-client@x86_64-unknown-linux-musl"] = errors.New("exit status 101")

	// --- Act ---
	err := env.app.Run(context.Background())

	// --- Assert ---
	require.Error(t, err)
	assert.ErrorIs(t, err, runner.ErrBuildFailed)
	assert.NoDirExists(t, env.cfg.Out, "a failed run must not produce a release directory")

	store := openStore(t, env.cfg.LedgerPath)
	run, err := store.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ledger.RunFailed, run.Status)
	assert.Equal(t, 0, run.Built)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, 1, run.Skipped)
}

func TestRun_DryRunExecutesAndRecordsNothing(t *testing.T) {
	// --- Arrange ---
	env := newTestEnv(t, twoTargetMatrix, func(cfg *Config) {
		cfg.DryRun = true
	})

	// --- Act ---
	err := env.app.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Empty(t, env.fake.Calls())
	assert.NoDirExists(t, env.cfg.Out)

	store := openStore(t, env.cfg.LedgerPath)
	_, err = store.LatestRun(context.Background())
	assert.ErrorIs(t, err, ledger.ErrNoRuns, "a dry run must not be recorded")
}

func TestRun_RetryFailedRebuildsOnlyTheUnbuiltTargets(t *testing.T) {
	// --- Arrange: a keep-going run where the Windows build fails. ---
	env := newTestEnv(t, twoTargetMatrix, func(cfg *Config) {
		cfg.KeepGoing = true
	})
	env.fake.FailTargets["geph4-client@x86_64-pc-windows-gnu"] = errors.New("exit status 101")

	err := env.app.Run(context.Background())
	require.ErrorIs(t, err, runner.ErrBuildFailed)
	require.Len(t, env.fake.Calls(), 2)
	require.NoDirExists(t, env.cfg.Out)

	// --- Act: retry with the failure fixed. ---
	delete(env.fake.FailTargets, "geph4-client@x86_64-pc-windows-gnu")
	env.cfg.RetryFailed = true
	env.cfg.KeepGoing = false
	retryApp := New(io.Discard, env.cfg, env.fake)

	err = retryApp.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	calls := env.fake.Calls()
	require.Len(t, calls, 3, "only the failed target builds again")
	assert.Equal(t, "geph4-client@x86_64-pc-windows-gnu", calls[2].ID())

	// Collection spans the full matrix: the Linux artifact from the first
	// run completes the release.
	assert.FileExists(t, filepath.Join(env.cfg.Out, "geph4-client-linux-amd64"))
	assert.FileExists(t, filepath.Join(env.cfg.Out, "geph4-client-windows-amd64.exe"))
	assert.FileExists(t, filepath.Join(env.cfg.Out, "SHA256SUMS"))

	store := openStore(t, env.cfg.LedgerPath)
	run, err := store.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ledger.RunSucceeded, run.Status)
	assert.Equal(t, 1, run.Built)
}

func TestRun_RetryFailedNeedsAPriorRun(t *testing.T) {
	// --- Arrange ---
	env := newTestEnv(t, twoTargetMatrix, func(cfg *Config) {
		cfg.RetryFailed = true
	})

	// --- Act ---
	err := env.app.Run(context.Background())

	// --- Assert ---
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrNoRuns)
	assert.Empty(t, env.fake.Calls())
}

func TestRun_RetryFailedWithNothingLeftIsANoOp(t *testing.T) {
	// --- Arrange: a fully successful run. ---
	env := newTestEnv(t, twoTargetMatrix, nil)
	require.NoError(t, env.app.Run(context.Background()))

	// --- Act ---
	env.cfg.RetryFailed = true
	retryApp := New(io.Discard, env.cfg, env.fake)
	err := retryApp.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Len(t, env.fake.Calls(), 2, "nothing builds again")

	store := openStore(t, env.cfg.LedgerPath)
	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1, "a no-op retry records no run")
}

func TestRun_RetryFailedConflictsWithNoLedger(t *testing.T) {
	// --- Arrange ---
	env := newTestEnv(t, twoTargetMatrix, func(cfg *Config) {
		cfg.NoLedger = true
		cfg.RetryFailed = true
	})

	// --- Act ---
	err := env.app.Run(context.Background())

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger")
	assert.Empty(t, env.fake.Calls())
}

func TestRun_NoLedgerWritesNoDatabase(t *testing.T) {
	// --- Arrange ---
	env := newTestEnv(t, twoTargetMatrix, func(cfg *Config) {
		cfg.NoLedger = true
	})

	// --- Act ---
	err := env.app.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.NoFileExists(t, env.cfg.LedgerPath)
	assert.FileExists(t, filepath.Join(env.cfg.Out, "SHA256SUMS"))
}

func TestListTargets_PrintsTheDefaultMatrix(t *testing.T) {
	// --- Arrange ---
	var buf bytes.Buffer
	a := New(&buf, &Config{LogLevel: "error"}, nil)

	// --- Act ---
	err := a.ListTargets(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "geph4-client@x86_64-unknown-linux-musl")
	assert.Contains(t, out, "-> geph4-client-linux-amd64\n")
	assert.Contains(t, out, "-> geph4-client-windows-amd64.exe\n")
	assert.Contains(t, out, "-> geph4-client-macos-amd64\n")
	assert.Len(t, strings.Split(strings.TrimRight(out, "\n"), "\n"), 6)
}

func TestListRuns_PrintsRecordedTallies(t *testing.T) {
	// --- Arrange ---
	env := newTestEnv(t, twoTargetMatrix, nil)
	require.NoError(t, env.app.Run(context.Background()))

	// --- Act ---
	var buf bytes.Buffer
	lister := New(&buf, env.cfg, env.fake)
	err := lister.ListRuns(context.Background(), 10)

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "succeeded")
	assert.Contains(t, buf.String(), "built=2 failed=0 skipped=0")
}

func TestListRuns_EmptyLedger(t *testing.T) {
	// --- Arrange ---
	env := newTestEnv(t, twoTargetMatrix, nil)

	// --- Act ---
	var buf bytes.Buffer
	lister := New(&buf, env.cfg, env.fake)
	err := lister.ListRuns(context.Background(), 10)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "no runs recorded yet\n", buf.String())
}

func TestShowLatestRun_PrintsPerTargetOutcomes(t *testing.T) {
	// --- Arrange ---
	env := newTestEnv(t, twoTargetMatrix, func(cfg *Config) {
		cfg.KeepGoing = true
	})
	env.fake.FailTargets["geph4-client@x86_64-pc-windows-gnu"] = errors.New("exit status 101")
	require.Error(t, env.app.Run(context.Background()))

	// --- Act ---
	var buf bytes.Buffer
	shower := New(&buf, env.cfg, env.fake)
	err := shower.ShowLatestRun(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "geph4-client@x86_64-unknown-linux-musl")
	assert.Contains(t, out, "geph4-client@x86_64-pc-windows-gnu")
	assert.Contains(t, out, "exit status 101")
}

func TestClean_RemovesTheOutputDirectory(t *testing.T) {
	// --- Arrange ---
	env := newTestEnv(t, twoTargetMatrix, nil)
	require.NoError(t, env.app.Run(context.Background()))
	require.DirExists(t, env.cfg.Out)

	// --- Act ---
	err := env.app.Clean(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.NoDirExists(t, env.cfg.Out)
}
