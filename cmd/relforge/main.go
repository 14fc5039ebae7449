package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/orinsid/relforge/internal/cli"
)

// main is the entrypoint for the relforge release builder.
func main() {
	// Use a minimal logger until the app configures the real one.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
