// Package middleware adapts the goSession route gate to net/http. Guard
// resolves the request's session, asks the manager for a decision, and
// translates it into pass-through, redirect, or 403.
//
// # Architecture boundaries
//
// This package is glue only. It contains no policy; every decision comes
// from [goSession.Manager.Authorize]. Session resolution is pluggable via
// [SessionSource] so servers can carry sessions in bearer tokens, cookies,
// or their own registries.
//
// # What this package must NOT do
//
//   - Refresh tokens or call the provider.
//   - Inspect paths or roles itself.
package middleware
