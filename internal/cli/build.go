package cli

import (
	"context"
	"os"
	"time"

	"github.com/orinsid/relforge/internal/app"
)

// BuildCmd is the 'relforge build' command, also the default when no
// subcommand is named.
type BuildCmd struct {
	Matrix string `arg:"" optional:"" help:"Build matrix HCL file or directory (compiled-in matrix when omitted)." type:"path" placeholder:"PATH"`

	Workers     int           `short:"j" default:"1" help:"Number of concurrent builds."`
	KeepGoing   bool          `short:"k" help:"Attempt every target even after a failure."`
	RetryFailed bool          `help:"Build only what the latest recorded run did not build."`
	DryRun      bool          `short:"n" help:"Log the build plan without invoking the toolchain."`
	Timeout     time.Duration `default:"1h" help:"Per-target build timeout (0 disables)."`
	Cargo       string        `help:"Cargo executable to invoke, e.g. cross." placeholder:"BIN"`
}

// Run executes the build command.
func (c *BuildCmd) Run(ctx context.Context) error {
	cfg := appConfig(c.Matrix)
	cfg.CargoBin = c.Cargo
	cfg.Workers = c.Workers
	cfg.KeepGoing = c.KeepGoing
	cfg.RetryFailed = c.RetryFailed
	cfg.DryRun = c.DryRun
	cfg.Timeout = c.Timeout

	return app.New(os.Stdout, cfg, nil).Run(ctx)
}
