package cli

import (
	"context"
	"os"

	"github.com/orinsid/relforge/internal/app"
)

// CleanCmd is the 'relforge clean' command.
type CleanCmd struct{}

// Run removes the artifact output directory.
func (c *CleanCmd) Run(ctx context.Context) error {
	return app.New(os.Stdout, appConfig(""), nil).Clean(ctx)
}
