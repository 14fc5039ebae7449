package matrix

// Target is one entry of the build matrix: a single project built for a
// single triple under a single profile. Targets are immutable once loaded.
type Target struct {
	// Project is the workspace member to build (cargo -p argument).
	Project string

	// Triple identifies the cross-compilation target.
	Triple Triple

	// Profile selects the cargo profile ("release" in every shipping
	// matrix; "dev" and custom profiles are honored for completeness).
	Profile string

	// Locked pins dependency versions to the lock file (--locked).
	Locked bool

	// Flags are extra arguments appended to the build invocation.
	Flags []string

	// Env are environment overrides for the build process, typically
	// linker or cross-toolchain settings for this triple.
	Env map[string]string
}

// DestName returns the collected artifact's file name,
// "<project>-<os-label>-<arch-label>[.exe]". It is a pure function of the
// target, so the same target always collects to the same name.
func (t Target) DestName() string {
	return t.Project + "-" + t.Triple.OSLabel() + "-" + t.Triple.ArchLabel() + t.Triple.ExeSuffix()
}

// ID returns the stable "<project>@<triple>" identity used in logs and the
// run ledger.
func (t Target) ID() string {
	return t.Project + "@" + t.Triple.Full()
}
