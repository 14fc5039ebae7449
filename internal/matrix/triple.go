package matrix

import (
	"fmt"
	"strings"
)

// Triple is a parsed target triple. The canonical rustc spelling is
// <arch>-<vendor>-<os>[-<abi>]; the ABI part is absent for darwin targets.
type Triple struct {
	Arch   string
	Vendor string
	OS     string
	ABI    string
}

// Operating systems we know how to label and default a vendor for.
var defaultVendorByOS = map[string]string{
	"linux":   "unknown",
	"windows": "pc",
	"darwin":  "apple",
}

// Human-readable labels used in destination file names.
var (
	osLabels = map[string]string{
		"linux":   "linux",
		"windows": "windows",
		"darwin":  "macos",
	}
	archLabels = map[string]string{
		"x86_64":  "amd64",
		"aarch64": "arm64",
		"i686":    "i386",
		"armv7":   "armv7",
	}
)

// ParseTriple parses a target triple in either the full rustc form
// ("x86_64-unknown-linux-musl", "x86_64-apple-darwin") or the three-part
// shorthand that omits the vendor ("x86_64-linux-musl", "x86_64-windows-gnu").
// The shorthand is detected by its second component naming a known operating
// system; the vendor is then filled in from the OS default.
func ParseTriple(s string) (Triple, error) {
	parts := strings.Split(s, "-")
	for _, p := range parts {
		if p == "" {
			return Triple{}, fmt.Errorf("invalid target triple %q: empty component", s)
		}
	}

	switch len(parts) {
	case 3:
		// "x86_64-linux-musl" (shorthand) vs "x86_64-apple-darwin" (full).
		if _, isOS := defaultVendorByOS[parts[1]]; isOS {
			return Triple{
				Arch:   parts[0],
				Vendor: defaultVendorByOS[parts[1]],
				OS:     parts[1],
				ABI:    parts[2],
			}, nil
		}
		if _, isOS := defaultVendorByOS[parts[2]]; isOS {
			return Triple{Arch: parts[0], Vendor: parts[1], OS: parts[2]}, nil
		}
		return Triple{}, fmt.Errorf("invalid target triple %q: unknown operating system", s)
	case 4:
		if _, isOS := defaultVendorByOS[parts[2]]; !isOS {
			return Triple{}, fmt.Errorf("invalid target triple %q: unknown operating system %q", s, parts[2])
		}
		return Triple{Arch: parts[0], Vendor: parts[1], OS: parts[2], ABI: parts[3]}, nil
	default:
		return Triple{}, fmt.Errorf("invalid target triple %q: expected 3 or 4 components, got %d", s, len(parts))
	}
}

// MustParseTriple is ParseTriple for compiled-in triples that are known good.
func MustParseTriple(s string) Triple {
	t, err := ParseTriple(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Full returns the normalized rustc spelling of the triple. This is the
// string handed to the toolchain and the directory name the toolchain uses
// for its output.
func (t Triple) Full() string {
	if t.ABI == "" {
		return t.Arch + "-" + t.Vendor + "-" + t.OS
	}
	return t.Arch + "-" + t.Vendor + "-" + t.OS + "-" + t.ABI
}

// String returns the normalized spelling, so triples log cleanly.
func (t Triple) String() string {
	return t.Full()
}

// OSLabel returns the human-readable operating system label used in
// destination file names ("linux", "windows", "macos"). Unrecognized systems
// fall back to the raw OS component.
func (t Triple) OSLabel() string {
	if label, ok := osLabels[t.OS]; ok {
		return label
	}
	return t.OS
}

// ArchLabel returns the human-readable architecture label used in destination
// file names ("amd64", "arm64", "i386", "armv7"). Unrecognized architectures
// fall back to the raw component.
func (t Triple) ArchLabel() string {
	if label, ok := archLabels[t.Arch]; ok {
		return label
	}
	return t.Arch
}

// ExeSuffix returns ".exe" for Windows-family triples and "" otherwise.
func (t Triple) ExeSuffix() string {
	if t.OS == "windows" {
		return ".exe"
	}
	return ""
}
