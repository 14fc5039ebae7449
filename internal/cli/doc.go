// Command-line surface for the relforge release builder.
//
// A bare invocation is equivalent to `relforge build`: build every target
// of the matrix, then collect the artifacts. Subcommands:
//
//	build     Build every matrix target and collect the release artifacts.
//	targets   List the targets of the build matrix.
//	runs      List recorded runs.
//	clean     Remove the artifact output directory.
//	version   Show version information.
//
// Global flags select the workspace, output directory, ledger, and log
// shape; build flags control concurrency and failure policy.
package cli
