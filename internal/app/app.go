// Package app wires the matrix, toolchain, runner, ledger, and collector
// into the release pipeline. It owns the application lifecycle: load the
// matrix, build every target, record the outcome, collect the artifacts.
package app

import (
	"io"
	"log/slog"
	"time"

	"github.com/orinsid/relforge/internal/toolchain"
)

// Config holds all the necessary configuration for an App instance to run.
// The CLI layer populates it from flags; tests populate it directly.
type Config struct {
	// MatrixPath points at an .hcl file or a directory of them. Empty
	// selects the compiled-in default matrix.
	MatrixPath string

	// Root is the cargo workspace root. Empty triggers upward discovery
	// from the current directory.
	Root string

	// Out is the directory release artifacts are collected into.
	Out string

	// CargoBin overrides the cargo executable name, e.g. "cross".
	CargoBin string

	Workers     int
	KeepGoing   bool
	RetryFailed bool
	DryRun      bool

	// Timeout bounds a single target's build. Zero means no limit.
	Timeout time.Duration

	// LedgerPath locates the run ledger database. Empty uses the XDG
	// default. NoLedger disables run history entirely.
	LedgerPath string
	NoLedger   bool

	LogFormat string
	LogLevel  string
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	tc     toolchain.Toolchain
}

// New is the constructor for the main application. It returns an App with
// its own isolated logger. A nil toolchain means cargo, located at run time
// from the configured workspace root; tests pass a fake instead.
func New(outW io.Writer, config *Config, tc toolchain.Toolchain) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		config: config,
		tc:     tc,
	}
}

// Logger returns the application's isolated logger. This is primarily for
// testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
