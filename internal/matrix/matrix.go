package matrix

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTargets reports a matrix with nothing to build.
	ErrNoTargets = errors.New("build matrix contains no targets")

	// ErrDuplicateDest reports two targets whose artifacts would collect to
	// the same destination file name.
	ErrDuplicateDest = errors.New("duplicate destination name in build matrix")
)

// Matrix is the ordered set of targets for one run.
type Matrix struct {
	Targets []Target
}

// New builds a validated Matrix from an ordered target list.
func New(targets []Target) (*Matrix, error) {
	m := &Matrix{Targets: targets}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that the matrix is non-empty and that no two targets would
// collect to the same destination name. Two triples that differ only in ABI
// share a destination name, which would make the collector overwrite one
// artifact with the other.
func (m *Matrix) Validate() error {
	if len(m.Targets) == 0 {
		return ErrNoTargets
	}

	seen := make(map[string]Target, len(m.Targets))
	for _, t := range m.Targets {
		dest := t.DestName()
		if prev, ok := seen[dest]; ok {
			return fmt.Errorf("%w: %s and %s both map to %q", ErrDuplicateDest, prev.ID(), t.ID(), dest)
		}
		seen[dest] = t
	}

	return nil
}

// Len returns the number of targets.
func (m *Matrix) Len() int {
	return len(m.Targets)
}

// Filter returns a new matrix containing, in original order, only the targets
// the keep function accepts. The result is not revalidated: filtering cannot
// introduce duplicates, and an empty result is a meaningful "nothing left to
// do" answer for callers such as retry selection.
func (m *Matrix) Filter(keep func(Target) bool) *Matrix {
	out := &Matrix{}
	for _, t := range m.Targets {
		if keep(t) {
			out.Targets = append(out.Targets, t)
		}
	}
	return out
}
