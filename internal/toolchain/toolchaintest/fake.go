// Package toolchaintest provides a deterministic in-memory Toolchain for
// tests. It "builds" by writing a small file at the same path convention
// cargo uses, records every invocation, and can be scripted to fail or to
// report success without producing a binary.
package toolchaintest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/orinsid/relforge/internal/matrix"
)

// Fake is a scripted Toolchain. Configure the exported fields before the run
// starts; they must not be mutated while builds are in flight.
type Fake struct {
	root string

	// FailTargets maps target IDs to the build error they should report.
	FailTargets map[string]error

	// SkipWrite lists target IDs that report success without writing a
	// binary, to simulate a toolchain path-convention mismatch.
	SkipWrite map[string]bool

	// BuildDelay stretches every build, for scheduling-order tests.
	BuildDelay time.Duration

	// OnBuild, when set, is called at the start of every build.
	OnBuild func(target matrix.Target)

	mu          sync.Mutex
	calls       []matrix.Target
	inFlight    int
	maxInFlight int
}

// New returns a Fake that writes its binaries under root.
func New(root string) *Fake {
	return &Fake{
		root:        root,
		FailTargets: make(map[string]error),
		SkipWrite:   make(map[string]bool),
	}
}

// Name identifies this toolchain.
func (f *Fake) Name() string {
	return "fake"
}

// Describe returns a stable pseudo command line for the target.
func (f *Fake) Describe(target matrix.Target) string {
	return fmt.Sprintf("fakecargo build -p %s --target %s", target.Project, target.Triple.Full())
}

// BinaryPath mirrors cargo's output convention under the fake's root.
func (f *Fake) BinaryPath(target matrix.Target) string {
	dir := target.Profile
	if dir == "" {
		dir = "release"
	}
	return filepath.Join(f.root, "target", target.Triple.Full(), dir, target.Project+target.Triple.ExeSuffix())
}

// Build records the invocation and then behaves as scripted: fail, succeed
// without writing, or write a deterministic binary at BinaryPath.
func (f *Fake) Build(ctx context.Context, target matrix.Target) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, target)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.OnBuild != nil {
		f.OnBuild(target)
	}

	if f.BuildDelay > 0 {
		select {
		case <-time.After(f.BuildDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}

	if err, ok := f.FailTargets[target.ID()]; ok {
		return "error[E0308]: mismatched types", err
	}

	if f.SkipWrite[target.ID()] {
		return "Finished `release` profile [optimized] target(s)", nil
	}

	path := f.BinaryPath(target)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte("fake binary: "+target.ID()+"\n"), 0o755); err != nil {
		return "", err
	}

	return "Finished `release` profile [optimized] target(s)", nil
}

// Calls returns the Build invocations observed so far, in call order.
func (f *Fake) Calls() []matrix.Target {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]matrix.Target, len(f.calls))
	copy(out, f.calls)
	return out
}

// MaxInFlight returns the highest number of concurrently running builds
// observed.
func (f *Fake) MaxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}
