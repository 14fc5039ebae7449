// Package buildinfo exposes version metadata stamped into the binary at link
// time. Release pipelines set the variables below via -ldflags; local builds
// leave them empty and report themselves as such.
package buildinfo

import (
	"fmt"
	"runtime"
	"strings"
)

// String used for variables the build pipeline did not stamp.
const undefined = "(undefined)"

var (
	version   = "" // Release version (e.g., "1.4.0")
	gitCommit = "" // Git commit hash (e.g., "a1b2c3d4")
)

// Version returns the stamped release version with any "v" prefix stripped,
// or "(undefined)" when the binary was built without linker flags.
func Version() string {
	v := strings.TrimSpace(version)
	if v == "" {
		return undefined
	}
	return strings.TrimPrefix(strings.ToLower(v), "v")
}

// GitCommit returns the stamped commit hash, or "(undefined)" when unset.
func GitCommit() string {
	c := strings.TrimSpace(gitCommit)
	if c == "" {
		return undefined
	}
	return c
}

// IsLocal reports whether this is a local build. Pipeline builds stamp both
// the version and the commit hash.
func IsLocal() bool {
	return strings.TrimSpace(version) == "" || strings.TrimSpace(gitCommit) == ""
}

// String returns a one-line version description suitable for --version
// output, formatted as "<version> <commit> [<os>/<arch>]".
func String() string {
	if IsLocal() {
		return fmt.Sprintf("(local) [%s/%s]", runtime.GOOS, runtime.GOARCH)
	}
	return fmt.Sprintf("%s %s [%s/%s]", Version(), GitCommit(), runtime.GOOS, runtime.GOARCH)
}
