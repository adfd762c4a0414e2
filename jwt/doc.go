// Package jwt verifies provider-issued access tokens locally so the request
// gate and middleware can check a Bearer credential without a network
// round-trip, and extracts the claims (subject, role, session ID, expiry)
// the session lifecycle relies on.
//
// # Architecture boundaries
//
// This package wraps github.com/golang-jwt/jwt/v5 behind a small [Manager].
// It does NOT mint production tokens — the identity provider owns issuance;
// [Manager.CreateAccess] exists for tests and local development stubs.
//
// # What this package must NOT do
//
//   - Import goSession, session, or provider (no upward imports).
//   - Perform I/O of any kind.
//   - Make authorization decisions; it only reports claims.
package jwt
