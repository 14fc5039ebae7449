// Package matrix provides the in-memory model of a release build matrix: the
// ordered list of (project, target triple, profile) combinations one run will
// build, plus the naming rules that turn a triple into artifact file names.
//
// # Core Concepts
//
//   - Triple: a parsed rustc target triple (architecture, vendor, operating
//     system, ABI). Parsing accepts both the full four-part spelling and the
//     common three-part shorthand, and normalization back to the full spelling
//     is a pure function, so path and name derivation is deterministic.
//
//   - Target: one entry of the matrix. Immutable after load; carries the
//     project to build, the triple, the cargo profile, and optional per-target
//     flags and environment overrides.
//
//   - Matrix: the ordered Target sequence for one run. Order is significant:
//     the runner schedules targets in matrix order and artifact manifests are
//     written in matrix order.
//
// A matrix comes from one of two places: the compiled-in default
// (DefaultMatrix), or one or more .hcl files loaded with Load. Both produce
// the same validated model, so everything downstream is indifferent to the
// source.
package matrix
