// Package diff computes the typed change operations that converge a room's
// observed state toward its declared spec.
//
// The engine is a pure function: no I/O, no failure modes beyond treating
// malformed input as empty collections. Its output ordering is part of the
// contract (adds before updates before removes, each class sorted by
// identifier) so that repeated runs against unchanged input yield
// byte-identical diffs.
package diff
