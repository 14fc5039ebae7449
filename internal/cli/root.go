package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/orinsid/relforge/internal/app"
)

// RootCmd is the root of the relforge command tree.
var RootCmd struct {
	Root      string `help:"Cargo workspace root (discovered upward from the cwd when unset)." placeholder:"DIR"`
	Out       string `short:"o" default:"OUTPUT" help:"Directory release artifacts are collected into." placeholder:"DIR"`
	Ledger    string `help:"Run ledger database path (defaults to the XDG data dir)." placeholder:"FILE"`
	NoLedger  bool   `help:"Disable run history."`
	LogLevel  string `default:"info" enum:"debug,info,warn,error" help:"Log level (${enum})."`
	LogFormat string `default:"text" enum:"text,json" help:"Log format (${enum})."`

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Build every matrix target and collect the release artifacts."`
	Targets TargetsCmd `cmd:"" help:"List the targets of the build matrix."`
	Runs    RunsCmd    `cmd:"" help:"List recorded runs."`
	Clean   CleanCmd   `cmd:"" help:"Remove the artifact output directory."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// Execute parses arguments and runs the selected subcommand.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name("relforge"),
		kong.Description("Cross-compiles a cargo workspace for a matrix of release targets\nand collects the binaries under deterministic names."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	return kongCtx.Run()
}

// appConfig assembles the configuration shared by every subcommand.
func appConfig(matrixPath string) *app.Config {
	return &app.Config{
		MatrixPath: matrixPath,
		Root:       RootCmd.Root,
		Out:        RootCmd.Out,
		LedgerPath: RootCmd.Ledger,
		NoLedger:   RootCmd.NoLedger,
		LogFormat:  RootCmd.LogFormat,
		LogLevel:   RootCmd.LogLevel,
	}
}
