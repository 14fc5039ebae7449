// Package toolchain abstracts the external build capability: something that,
// given a matrix target, produces an executable at a path the toolchain alone
// determines. The orchestrator's only contract with it is "build target T,
// then a binary exists at BinaryPath(T)".
package toolchain

import (
	"context"

	"github.com/orinsid/relforge/internal/matrix"
)

// Toolchain is the contract between the runner and an external compiler
// driver. Implementations own the output-path convention; callers never guess
// where a binary landed.
type Toolchain interface {
	// Name identifies the toolchain in logs and the run ledger.
	Name() string

	// Describe returns the full command line Build would execute for the
	// target. Dry runs and failure logs print it verbatim.
	Describe(target matrix.Target) string

	// BinaryPath returns the path where a successful build of the target
	// leaves its executable. It is a pure function of the target, so
	// missing-artifact errors can be diagnosed deterministically.
	BinaryPath(target matrix.Target) string

	// Build compiles the target, blocking until the toolchain exits. The
	// returned output is the combined stdout and stderr of the invocation
	// and is populated on failure too. Cancelling ctx kills the build.
	Build(ctx context.Context, target matrix.Target) (output string, err error)
}
