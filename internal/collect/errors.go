package collect

import "errors"

var (
	// ErrMissingArtifact reports a binary that a successful build should
	// have produced but that is absent at its expected toolchain path.
	ErrMissingArtifact = errors.New("expected artifact missing")

	// ErrFilesystem reports a failed directory creation, copy, or write in
	// the output directory.
	ErrFilesystem = errors.New("file system operation failed")
)
