package matrix

// DefaultMatrix returns the compiled-in matrix: the geph4-client shipping
// targets, in release order. A bare invocation with no configuration file
// builds exactly this set.
func DefaultMatrix() *Matrix {
	return &Matrix{Targets: []Target{
		{
			Project: "geph4-client",
			Triple:  MustParseTriple("x86_64-unknown-linux-musl"),
			Profile: "release",
			Locked:  true,
		},
		{
			Project: "geph4-client",
			Triple:  MustParseTriple("aarch64-unknown-linux-musl"),
			Profile: "release",
			Locked:  true,
		},
		{
			Project: "geph4-client",
			Triple:  MustParseTriple("armv7-unknown-linux-musleabihf"),
			Profile: "release",
			Locked:  true,
		},
		{
			Project: "geph4-client",
			Triple:  MustParseTriple("i686-unknown-linux-musl"),
			Profile: "release",
			Locked:  true,
		},
		{
			Project: "geph4-client",
			Triple:  MustParseTriple("x86_64-pc-windows-gnu"),
			Profile: "release",
			Locked:  true,
		},
		{
			Project: "geph4-client",
			Triple:  MustParseTriple("x86_64-apple-darwin"),
			Profile: "release",
			Locked:  true,
		},
	}}
}
