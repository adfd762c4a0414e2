package session

import "sync"

// Handle is the exclusive owner of a live [Session]. All reads are consistent
// snapshots; token-field writes are serialized through Replace and Clear.
//
// Replace and Clear are intended to be called only by the Manager's refresh
// coordinator and login/logout paths. Gating and transport code must read
// through Snapshot and never retain pointers into the underlying session.
type Handle struct {
	mu   sync.RWMutex
	sess Session
}

// NewHandle wraps a session value in a single-writer [Handle].
func NewHandle(sess Session) *Handle {
	return &Handle{sess: sess}
}

// Snapshot returns a consistent copy of the current session state.
// Partial writes are never visible.
func (h *Handle) Snapshot() Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sess
}

// Replace installs a freshly minted access token and expiry. An empty
// refreshToken keeps the previous refresh credential (providers are allowed
// to skip rotation on refresh).
func (h *Handle) Replace(accessToken, refreshToken string, expiresAt int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sess.AccessToken = accessToken
	h.sess.AccessExpiresAt = expiresAt
	if refreshToken != "" {
		h.sess.RefreshToken = refreshToken
	}
}

// Clear wipes all credential fields, leaving identity fields intact so
// audit events emitted after teardown can still name the principal.
func (h *Handle) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sess.AccessToken = ""
	h.sess.RefreshToken = ""
	h.sess.AccessExpiresAt = 0
}
