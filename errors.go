package goSession

import "errors"

var (
	// ErrSessionExpired means the session can no longer be made valid;
	// the caller must send the user back through login.
	ErrSessionExpired = errors.New("session expired")
	// ErrRefreshTokenMissing means the access token lapsed and no refresh
	// token is available to heal the session.
	ErrRefreshTokenMissing = errors.New("refresh token missing")
	// ErrRefreshRejected means the provider refused the refresh token;
	// the local session has been cleared.
	ErrRefreshRejected = errors.New("refresh rejected")
	// ErrProviderUnavailable means the provider could not be reached or
	// answered with a server error; the session is left untouched.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrForbidden means the session's role does not satisfy the route
	// policy for the requested path.
	ErrForbidden = errors.New("forbidden")
	// ErrNotAuthenticated means an operation requiring a live session was
	// attempted with none.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidCredentials means the provider rejected a login or signup.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMFARequired means the provider demands a second factor before it
	// will issue tokens. Use errors.As with [*MFAError] for the challenge.
	ErrMFARequired = errors.New("mfa required")
	// ErrSessionNotFound means no snapshot exists for the given session ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSnapshotsDisabled means the manager was built without a redis
	// client and cannot rehydrate sessions.
	ErrSnapshotsDisabled = errors.New("session snapshots disabled")
	// ErrLocalVerifyDisabled means the manager was built without local
	// token verification; configure JWT.VerifyLocally to use it.
	ErrLocalVerifyDisabled = errors.New("local token verification disabled")
	// ErrManagerNotReady means the manager was not built or already closed.
	ErrManagerNotReady = errors.New("manager not initialized")
)
