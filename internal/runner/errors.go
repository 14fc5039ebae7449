package runner

import "errors"

var (
	// ErrBuildFailed reports a toolchain invocation that returned failure
	// or timed out.
	ErrBuildFailed = errors.New("build failed")

	// ErrSkipped marks a target that was never built because the run was
	// aborted first, by an earlier failure or by cancellation.
	ErrSkipped = errors.New("build skipped")
)
