package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/orinsid/relforge/internal/ctxlog"
	"github.com/orinsid/relforge/internal/matrix"
)

// tailLines is how many trailing output lines a build error carries. Cargo
// prints the actual compile error last, after pages of progress noise.
const tailLines = 20

// Cargo drives `cargo build` against a Rust workspace.
type Cargo struct {
	bin  string // cargo executable, usually plain "cargo"
	root string // workspace root, the directory holding the top-level Cargo.toml
}

// NewCargo returns a Cargo toolchain rooted at the given workspace directory.
// When root is empty, the workspace is discovered by walking up from the
// current directory until a Cargo.toml is found.
func NewCargo(bin, root string) (*Cargo, error) {
	if bin == "" {
		bin = "cargo"
	}

	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root, err = FindWorkspaceRoot(cwd)
		if err != nil {
			return nil, err
		}
	}

	return &Cargo{bin: bin, root: root}, nil
}

// FindWorkspaceRoot walks up from start until it finds a directory containing
// a Cargo.toml, and returns that directory.
func FindWorkspaceRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "Cargo.toml")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no Cargo.toml found in %s or any parent directory", start)
		}
		dir = parent
	}
}

// Name identifies this toolchain.
func (c *Cargo) Name() string {
	return "cargo"
}

// Root returns the workspace root the toolchain builds in.
func (c *Cargo) Root() string {
	return c.root
}

// Describe returns the command line Build would run for the target.
func (c *Cargo) Describe(target matrix.Target) string {
	return c.bin + " " + strings.Join(buildArgs(target), " ")
}

// BinaryPath returns cargo's output location for the target:
// <root>/target/<triple>/<profile-dir>/<project>[.exe].
func (c *Cargo) BinaryPath(target matrix.Target) string {
	return filepath.Join(
		c.root,
		"target",
		target.Triple.Full(),
		profileDir(target.Profile),
		target.Project+target.Triple.ExeSuffix(),
	)
}

// Build runs cargo for the target and captures its combined output. A
// non-zero exit becomes an error carrying the output tail; a cancelled
// context kills the process and surfaces the context error instead.
func (c *Cargo) Build(ctx context.Context, target matrix.Target) (string, error) {
	logger := ctxlog.FromContext(ctx)

	args := buildArgs(target)
	logger.Debug("Invoking cargo", "dir", c.root, "args", args)

	cmd := exec.CommandContext(ctx, c.bin, args...)
	cmd.Dir = c.root
	cmd.Env = mergedEnv(target.Env)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	output := out.String()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return output, fmt.Errorf("cargo build for %s: %w", target.ID(), ctxErr)
		}
		if tail := outputTail(output, tailLines); tail != "" {
			return output, fmt.Errorf("cargo build for %s: %w\n%s", target.ID(), err, tail)
		}
		return output, fmt.Errorf("cargo build for %s: %w", target.ID(), err)
	}

	return output, nil
}

// buildArgs constructs the cargo argument list for one target.
func buildArgs(target matrix.Target) []string {
	args := []string{"build", "-p", target.Project}

	switch target.Profile {
	case "", "release":
		args = append(args, "--release")
	default:
		args = append(args, "--profile", target.Profile)
	}

	if target.Locked {
		args = append(args, "--locked")
	}

	args = append(args, "--target", target.Triple.Full())
	args = append(args, target.Flags...)

	return args
}

// profileDir maps a cargo profile to its directory under target/. Cargo
// writes the "dev" profile to "debug"; every other profile uses its own name.
func profileDir(profile string) string {
	switch profile {
	case "", "release":
		return "release"
	case "dev":
		return "debug"
	default:
		return profile
	}
}

// mergedEnv overlays the target's environment settings on the parent process
// environment, in sorted key order so invocations are reproducible. A nil
// return makes exec.Cmd inherit the parent environment untouched.
func mergedEnv(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}

	env := os.Environ()
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}
	return env
}

// outputTail returns the last n lines of the toolchain output.
func outputTail(output string, n int) string {
	trimmed := strings.TrimRight(output, "\n")
	if trimmed == "" {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
