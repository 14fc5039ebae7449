package cli

import (
	"context"
	"os"

	"github.com/orinsid/relforge/internal/app"
)

// TargetsCmd is the 'relforge targets' command.
type TargetsCmd struct {
	Matrix string `arg:"" optional:"" help:"Build matrix HCL file or directory (compiled-in matrix when omitted)." type:"path" placeholder:"PATH"`
}

// Run lists every target of the active matrix with its artifact name.
func (c *TargetsCmd) Run(ctx context.Context) error {
	return app.New(os.Stdout, appConfig(c.Matrix), nil).ListTargets(ctx)
}
