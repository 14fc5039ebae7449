// Package collect gathers the binaries of a fully built matrix into a single
// flat output directory under target-qualified names, and writes a SHA256SUMS
// manifest next to them. It never runs over a partially built matrix; the
// caller enforces that precondition.
package collect

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/orinsid/relforge/internal/ctxlog"
	"github.com/orinsid/relforge/internal/fsutil"
	"github.com/orinsid/relforge/internal/matrix"
	"github.com/orinsid/relforge/internal/paths"
	"github.com/orinsid/relforge/internal/toolchain"
)

// ManifestName is the checksum manifest written into the output directory.
const ManifestName = "SHA256SUMS"

// Mapping pairs one target with its artifact's source and destination paths.
// Both are pure functions of the target, computed on demand during
// collection.
type Mapping struct {
	Target matrix.Target
	Source string
	Dest   string
}

// Collector copies built artifacts into one output directory.
type Collector struct {
	out string
}

// New returns a Collector writing into the out directory.
func New(out string) *Collector {
	return &Collector{out: out}
}

// OutDir returns the output directory the collector writes into.
func (c *Collector) OutDir() string {
	return c.out
}

// Collect copies every target's binary from its toolchain path into the
// output directory. Every mapping is attempted even when some fail, and all
// failures are reported together: the builds already succeeded, so complete
// diagnostics beat stopping at the first mismatch. Destinations are
// overwritten in place, which makes a repeated collection converge on an
// identical directory. The checksum manifest is written only when every
// mapping succeeded.
func (c *Collector) Collect(ctx context.Context, m *matrix.Matrix, tc toolchain.Toolchain) ([]Mapping, error) {
	logger := ctxlog.FromContext(ctx)

	if err := os.MkdirAll(c.out, paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: creating output directory %s: %w", ErrFilesystem, c.out, err)
	}

	mappings := make([]Mapping, 0, m.Len())
	var errs []error

	for _, target := range m.Targets {
		mapping := Mapping{
			Target: target,
			Source: tc.BinaryPath(target),
			Dest:   filepath.Join(c.out, target.DestName()),
		}

		if _, err := os.Stat(mapping.Source); err != nil {
			if os.IsNotExist(err) {
				logger.Error("Expected artifact missing.", "target", target.ID(), "path", mapping.Source)
				errs = append(errs, fmt.Errorf("%w: %s expected at %s", ErrMissingArtifact, target.ID(), mapping.Source))
			} else {
				errs = append(errs, fmt.Errorf("%w: stat %s: %w", ErrFilesystem, mapping.Source, err))
			}
			continue
		}

		if err := fsutil.CopyFile(mapping.Source, mapping.Dest); err != nil {
			logger.Error("Failed to copy artifact.", "target", target.ID(), "error", err)
			errs = append(errs, fmt.Errorf("%w: copying %s: %w", ErrFilesystem, target.ID(), err))
			continue
		}

		logger.Info("Collected artifact.", "target", target.ID(), "dest", mapping.Dest)
		mappings = append(mappings, mapping)
	}

	if err := errors.Join(errs...); err != nil {
		return mappings, err
	}

	if err := c.writeManifest(ctx, mappings); err != nil {
		return mappings, err
	}

	return mappings, nil
}

// writeManifest writes the SHA256SUMS file in matrix order, in the format
// sha256sum(1) verifies.
func (c *Collector) writeManifest(ctx context.Context, mappings []Mapping) error {
	var buf bytes.Buffer
	for _, mapping := range mappings {
		sum, err := fileSHA256(mapping.Dest)
		if err != nil {
			return fmt.Errorf("%w: hashing %s: %w", ErrFilesystem, mapping.Dest, err)
		}
		fmt.Fprintf(&buf, "%s  %s\n", sum, filepath.Base(mapping.Dest))
	}

	manifest := filepath.Join(c.out, ManifestName)
	if err := os.WriteFile(manifest, buf.Bytes(), paths.DefaultFileMode); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrFilesystem, manifest, err)
	}

	ctxlog.FromContext(ctx).Info("Wrote checksum manifest.", "path", manifest, "artifacts", len(mappings))
	return nil
}

// fileSHA256 returns the lowercase hex SHA-256 of the file's contents.
func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
