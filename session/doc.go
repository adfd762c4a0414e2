// Package session provides the session model, the single-writer Handle that owns
// a live session's token fields, and Redis-backed snapshot persistence for
// rehydrating sessions across process restarts.
//
// # Ownership model
//
// A [Session] is pure data. Mutable live state is held by a [Handle]: all reads go
// through [Handle.Snapshot] (a consistent copy), and token-field writes go through
// [Handle.Replace] and [Handle.Clear], which only the refresh coordinator and the
// login/logout paths are expected to call. There is no ambient shared token state.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Session] model. It does
// NOT talk to the identity provider, interpret JWT tokens, or make gating decisions —
// those responsibilities belong to the Manager.
//
// # What this package must NOT do
//
//   - Import goSession, jwt, or provider (no upward imports).
//   - Perform network calls other than Redis snapshot persistence.
//   - Refresh or invalidate credentials on its own.
package session
