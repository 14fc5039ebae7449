package runner

import (
	"time"

	"github.com/orinsid/relforge/internal/matrix"
)

// Status classifies the outcome of one matrix entry.
type Status string

const (
	// StatusBuilt means the toolchain reported success for the target.
	StatusBuilt Status = "built"

	// StatusFailed means the toolchain invocation failed or timed out.
	StatusFailed Status = "failed"

	// StatusSkipped means the target was never built because the run was
	// aborted first.
	StatusSkipped Status = "skipped"
)

// Result is the outcome of one target's build.
type Result struct {
	Target matrix.Target
	Status Status

	// BinaryPath is where the toolchain left the executable. Set only when
	// Status is StatusBuilt and the build actually ran (not a dry run).
	BinaryPath string

	// Output is the combined toolchain output of the invocation.
	Output string

	Duration time.Duration

	// Err explains a failed or skipped outcome; nil for built targets.
	Err error
}
