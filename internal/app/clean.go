package app

import (
	"context"
	"fmt"
	"os"
)

// Clean removes the artifact output directory and everything in it. The
// cargo target/ directory is left alone; cargo owns its own cache.
func (a *App) Clean(ctx context.Context) error {
	if err := os.RemoveAll(a.config.Out); err != nil {
		return fmt.Errorf("failed to clean %s: %w", a.config.Out, err)
	}
	a.logger.Info("Output directory removed.", "dir", a.config.Out)
	return nil
}
