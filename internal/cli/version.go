package cli

import (
	"context"
	"fmt"

	"github.com/orinsid/relforge/internal/buildinfo"
)

// VersionCmd is the 'relforge version' command.
type VersionCmd struct{}

// Run prints the build's version, commit, and platform.
func (c *VersionCmd) Run(ctx context.Context) error {
	fmt.Println(buildinfo.String())
	return nil
}
