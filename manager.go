package goSession

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/provider"
	"github.com/MrEthical07/goSession/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Manager owns session lifecycle: credential exchange with the provider,
// single-flight refresh, route gating, and observability. Build one with
// [New] and share it across goroutines.
type Manager struct {
	config   Config
	provider *provider.Client
	tokens   *jwt.Manager
	store    *session.Store
	gate     *gate
	metrics  *Metrics
	audit    *auditDispatcher
	group    singleflight.Group
	closed   atomic.Bool
}

// MFAError reports that the provider demands a second factor. It unwraps
// to [ErrMFARequired] and carries the challenge to answer.
type MFAError struct {
	Challenge provider.MFAChallenge
}

func (e *MFAError) Error() string {
	return fmt.Sprintf("mfa required: challenge %s via %s", e.Challenge.ChallengeID, e.Challenge.Method)
}

func (e *MFAError) Unwrap() error { return ErrMFARequired }

// Login exchanges credentials for a new session. When the provider demands
// a second factor the returned error is an [*MFAError]; repeat the login
// with the OTP filled in.
func (m *Manager) Login(ctx context.Context, creds provider.Credentials) (*session.Handle, error) {
	if m == nil || m.closed.Load() {
		return nil, ErrManagerNotReady
	}

	grant, err := m.provider.Login(ctx, creds)
	if err != nil {
		mapped := mapCredentialError(err)
		m.metrics.Inc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", "", "", mapped, nil)
		return nil, mapped
	}

	if grant.MFARequired != nil {
		m.metrics.Inc(MetricLoginMFARequired)
		m.emitAudit(ctx, auditEventLoginMFARequired, false, grant.User.ID, "", "", ErrMFARequired, func() map[string]string {
			return map[string]string{"method": grant.MFARequired.Method}
		})
		return nil, &MFAError{Challenge: *grant.MFARequired}
	}

	h := m.adoptGrant(ctx, grant)
	snap := h.Snapshot()

	m.metrics.Inc(MetricLoginSuccess)
	m.metrics.Inc(MetricSessionCreated)
	m.emitAudit(ctx, auditEventLoginSuccess, true, snap.SubjectID, snap.ID, "", nil, nil)

	return h, nil
}

// Signup creates an account at the provider and returns its first session.
func (m *Manager) Signup(ctx context.Context, input provider.SignupInput) (*session.Handle, error) {
	if m == nil || m.closed.Load() {
		return nil, ErrManagerNotReady
	}

	grant, err := m.provider.Signup(ctx, input)
	if err != nil {
		mapped := mapCredentialError(err)
		m.metrics.Inc(MetricSignupFailure)
		m.emitAudit(ctx, auditEventSignupFailure, false, "", "", "", mapped, nil)
		return nil, mapped
	}

	h := m.adoptGrant(ctx, grant)
	snap := h.Snapshot()

	m.metrics.Inc(MetricSignupSuccess)
	m.metrics.Inc(MetricSessionCreated)
	m.emitAudit(ctx, auditEventSignupSuccess, true, snap.SubjectID, snap.ID, "", nil, nil)

	return h, nil
}

// Logout revokes the refresh token at the provider and clears the local
// session. The local clear happens even when revocation fails; the error
// then reports the provider problem.
func (m *Manager) Logout(ctx context.Context, h *session.Handle) error {
	if m == nil || m.closed.Load() {
		return ErrManagerNotReady
	}

	snap := h.Snapshot()

	var revokeErr error
	if snap.RefreshToken != "" {
		revokeErr = m.provider.Logout(ctx, snap.RefreshToken)
	}

	h.Clear()
	if m.store != nil {
		_ = m.store.Delete(ctx, snap.ID)
	}

	m.metrics.Inc(MetricLogout)
	m.metrics.Inc(MetricSessionCleared)
	m.emitAudit(ctx, auditEventLogout, revokeErr == nil, snap.SubjectID, snap.ID, "", revokeErr, nil)

	if revokeErr != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, revokeErr)
	}
	return nil
}

// Rehydrate restores a session handle from its redis snapshot, typically
// after a process restart.
func (m *Manager) Rehydrate(ctx context.Context, sessionID string) (*session.Handle, error) {
	if m == nil || m.closed.Load() {
		return nil, ErrManagerNotReady
	}
	if m.store == nil {
		return nil, ErrSnapshotsDisabled
	}

	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		m.metrics.Inc(MetricRehydrateFailure)
		if errors.Is(err, redis.Nil) {
			m.emitAudit(ctx, auditEventRehydrateFailure, false, "", sessionID, "", ErrSessionNotFound, nil)
			return nil, ErrSessionNotFound
		}
		m.emitAudit(ctx, auditEventRehydrateFailure, false, "", sessionID, "", err, nil)
		return nil, err
	}

	// Confirm the snapshot against the provider before handing the handle
	// out. A rejected access token is not fatal while the refresh credential
	// remains; the session just starts stale and heals on first use. Already
	// expired snapshots skip the round-trip for the same reason.
	if sess.AccessToken != "" && sess.ValidAt(time.Now(), m.config.Session.ExpirySkew) {
		user, meErr := m.provider.Me(ctx, sess.AccessToken)
		switch {
		case meErr == nil:
			if user.ID != "" {
				sess.SubjectID = user.ID
			}
			if user.Role != "" {
				sess.Role = session.ParseRole(user.Role)
			}
		case isAuthRejection(meErr):
			sess.AccessToken = ""
			sess.AccessExpiresAt = 0
		default:
			m.metrics.Inc(MetricRehydrateFailure)
			m.emitAudit(ctx, auditEventRehydrateFailure, false, sess.SubjectID, sess.ID, "", meErr, nil)
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, meErr)
		}
	}

	m.metrics.Inc(MetricRehydrateSuccess)
	m.emitAudit(ctx, auditEventRehydrateSuccess, true, sess.SubjectID, sess.ID, "", nil, nil)

	return session.NewHandle(*sess), nil
}

// Authorize runs the route policy for path against a session snapshot and
// records the outcome. The decision itself depends only on the snapshot
// and the path.
func (m *Manager) Authorize(ctx context.Context, path string, sess session.Session) Decision {
	d := m.gate.Authorize(path, sess)

	switch d.Kind {
	case DecisionAllow:
		m.metrics.Inc(MetricGateAllow)
	case DecisionRedirect:
		m.metrics.Inc(MetricGateRedirect)
		m.emitAudit(ctx, auditEventGateRedirect, false, sess.SubjectID, sess.ID, path, nil, func() map[string]string {
			return map[string]string{"target": d.Target}
		})
	case DecisionDeny:
		m.metrics.Inc(MetricGateDeny)
		m.emitAudit(ctx, auditEventGateDeny, false, sess.SubjectID, sess.ID, path, ErrForbidden, nil)
	}

	return d
}

// VerifyAccess verifies a raw access token locally and returns its claims.
// Requires JWT.VerifyLocally in the configuration.
func (m *Manager) VerifyAccess(token string) (*jwt.AccessClaims, error) {
	if m == nil || m.closed.Load() {
		return nil, ErrManagerNotReady
	}
	if m.tokens == nil {
		return nil, ErrLocalVerifyDisabled
	}

	claims, err := m.tokens.ParseAccess(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	return claims, nil
}

// HealthStatus reports availability of the manager's external state.
type HealthStatus struct {
	RedisAvailable bool
	RedisLatency   time.Duration
}

// Health probes the snapshot store. Without a configured store the zero
// status is returned; there is nothing to check.
func (m *Manager) Health(ctx context.Context) HealthStatus {
	if m == nil || m.store == nil {
		return HealthStatus{}
	}

	latency, err := m.store.Ping(ctx)
	return HealthStatus{
		RedisAvailable: err == nil,
		RedisLatency:   latency,
	}
}

// MetricsSnapshot exposes current metric values for exporters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}, Histograms: map[MetricID][]uint64{}}
	}
	return m.metrics.Snapshot()
}

// AuditDropped reports how many audit events were shed under pressure.
func (m *Manager) AuditDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.audit.Dropped()
}

// Close drains and stops the audit pipeline. The manager rejects all
// operations afterwards.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	if m.closed.CompareAndSwap(false, true) {
		m.audit.Close()
	}
}

// adoptGrant turns a provider grant into an owned session handle and
// persists its snapshot when a store is configured.
func (m *Manager) adoptGrant(ctx context.Context, grant *provider.Grant) *session.Handle {
	role := grant.User.Role
	if role == "" && m.tokens != nil {
		if claims, err := m.tokens.ParseAccess(grant.AccessToken); err == nil {
			role = claims.Role
		}
	}

	sess := session.Session{
		ID:              uuid.NewString(),
		SubjectID:       grant.User.ID,
		Role:            session.ParseRole(role),
		AccessToken:     grant.AccessToken,
		RefreshToken:    grant.RefreshToken,
		AccessExpiresAt: m.grantExpiry(grant),
		CreatedAt:       time.Now().Unix(),
	}

	m.persistSnapshot(ctx, sess)

	return session.NewHandle(sess)
}

// isAuthRejection reports whether the provider definitively refused the
// presented credential, as opposed to being unable to answer.
func isAuthRejection(err error) bool {
	var apiErr *provider.APIError
	return errors.As(err, &apiErr) &&
		(apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden)
}

func mapCredentialError(err error) error {
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusUnauthorized,
			apiErr.Status == http.StatusForbidden,
			apiErr.Status == http.StatusBadRequest,
			apiErr.Status == http.StatusConflict:
			return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		case apiErr.Status >= 500:
			return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
	}

	var tErr *provider.TransportError
	if errors.As(err, &tErr) {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	return err
}
