// Package goSession manages credential lifecycles against a remote identity
// provider: it owns token state, coalesces concurrent refreshes into a
// single provider call, gates requests against an ordered route policy, and
// retries API calls exactly once after a token rejection.
//
// The package is designed for concurrent server workloads: Manager methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Manager], [Builder],
// [Config], and value types (Decision, MetricsSnapshot, AuditEvent, etc.).
// Session state lives in session/, provider I/O in provider/, local token
// verification in jwt/, and HTTP glue in middleware/.
//
// # What this package must NOT do
//
//   - Expose redis clients or provider wire details in its public API.
//   - Perform I/O outside of Manager methods (construction via Builder is
//     allocation-only until Build).
//   - Let more than one provider refresh run per session at a time.
//
// # Performance contract
//
// EnsureValid is the hot path. While the access token is inside its
// validity window it must complete with one snapshot read and no provider
// or redis round-trips. Authorize never performs I/O at all.
package goSession
