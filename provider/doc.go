// Package provider is the HTTP client for the upstream identity provider.
// It owns credential exchange (login, signup, refresh, logout, profile
// lookup) and maps provider responses onto typed grants and errors the
// session core can reason about.
//
// # Architecture boundaries
//
// This package talks to exactly one remote surface: the provider's auth
// endpoints. It performs no token verification, no caching, and no retry
// logic. Higher layers decide what a failed exchange means for a session.
//
// # What this package must NOT do
//
//   - Import goSession or session (no upward imports).
//   - Store or mutate session state.
//   - Retry requests; the client transport owns retry policy.
//   - Interpret HTTP 401 beyond reporting it as an [*APIError].
package provider
