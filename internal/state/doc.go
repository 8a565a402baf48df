// Package state persists the per-target seen-id sets that make
// notifications idempotent across process restarts.
//
// It currently supports:
//   - File driver (one JSON record per target, atomic replace-on-write)
//   - Optional SQLite driver (build with -tags sqlite)
package state
