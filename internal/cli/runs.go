package cli

import (
	"context"
	"os"

	"github.com/orinsid/relforge/internal/app"
)

// RunsCmd is the 'relforge runs' command.
type RunsCmd struct {
	Latest bool `help:"Show the latest run's per-target outcomes instead of the run list."`
	Limit  int  `default:"10" help:"Number of runs to list."`
}

// Run prints recorded run history from the ledger.
func (c *RunsCmd) Run(ctx context.Context) error {
	a := app.New(os.Stdout, appConfig(""), nil)
	if c.Latest {
		return a.ShowLatestRun(ctx)
	}
	return a.ListRuns(ctx, c.Limit)
}
