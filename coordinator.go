package goSession

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/MrEthical07/goSession/provider"
	"github.com/MrEthical07/goSession/session"
)

// fallbackAccessTTL is assumed when the provider reports no expiry and the
// token carries no readable exp claim. Without it a grant would look
// permanently stale and refresh on every call.
const fallbackAccessTTL = 15 * time.Minute

// EnsureValid returns a session snapshot whose access token is usable right
// now, refreshing through the provider when needed. Concurrent callers on
// the same session share a single refresh flight; exactly one provider call
// happens no matter how many callers arrive during it.
//
// A canceled ctx abandons only that caller's wait. The refresh itself runs
// detached under the configured refresh timeout so the remaining waiters
// still get a result.
func (m *Manager) EnsureValid(ctx context.Context, h *session.Handle) (session.Session, error) {
	if m == nil || m.closed.Load() {
		return session.Session{}, ErrManagerNotReady
	}

	start := time.Now()
	defer func() {
		m.metrics.Observe(MetricEnsureLatency, time.Since(start))
	}()

	snap := h.Snapshot()
	if snap.ValidAt(time.Now(), m.config.Session.ExpirySkew) {
		m.metrics.Inc(MetricRefreshSkipped)
		return snap, nil
	}

	return m.refresh(ctx, h, snap.AccessToken)
}

// refresh funnels all callers for one session through a single flight.
// staleToken is the access token the caller observed; the flight winner
// uses it to detect that someone already swapped in a fresh token.
func (m *Manager) refresh(ctx context.Context, h *session.Handle, staleToken string) (session.Session, error) {
	key := h.Snapshot().ID

	ch := m.group.DoChan(key, func() (interface{}, error) {
		return m.runRefresh(ctx, h, staleToken)
	})

	select {
	case res := <-ch:
		if res.Shared {
			m.metrics.Inc(MetricRefreshDeduped)
		}
		if res.Err != nil {
			return session.Session{}, res.Err
		}
		return res.Val.(session.Session), nil
	case <-ctx.Done():
		// Only this caller gives up; the flight keeps running for the rest.
		return session.Session{}, ctx.Err()
	}
}

// runRefresh executes exactly once per flight. callerCtx is used only for
// audit context values; the provider exchange runs on a detached context.
func (m *Manager) runRefresh(callerCtx context.Context, h *session.Handle, staleToken string) (session.Session, error) {
	snap := h.Snapshot()

	// A previous flight may have refreshed while this caller queued.
	if snap.AccessToken != "" && snap.AccessToken != staleToken &&
		snap.ValidAt(time.Now(), m.config.Session.ExpirySkew) {
		return snap, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.config.Session.RefreshTimeout)
	defer cancel()

	if snap.RefreshToken == "" {
		h.Clear()
		if m.store != nil {
			_ = m.store.Delete(ctx, snap.ID)
		}
		m.metrics.Inc(MetricRefreshFailure)
		m.metrics.Inc(MetricSessionCleared)
		m.emitAudit(callerCtx, auditEventSessionExpired, false, snap.SubjectID, snap.ID, "", ErrRefreshTokenMissing, nil)
		return session.Session{}, ErrRefreshTokenMissing
	}

	grant, err := m.provider.Refresh(ctx, snap.RefreshToken)
	if err != nil {
		if isAuthRejection(err) {
			h.Clear()
			if m.store != nil {
				_ = m.store.Delete(ctx, snap.ID)
			}
			m.metrics.Inc(MetricRefreshRejected)
			m.metrics.Inc(MetricSessionCleared)
			m.emitAudit(callerCtx, auditEventRefreshRejected, false, snap.SubjectID, snap.ID, "", ErrRefreshRejected, nil)
			return session.Session{}, fmt.Errorf("%w: %v", ErrRefreshRejected, err)
		}

		// Transport failures and provider 5xx leave the session untouched;
		// the tokens may still work once the provider recovers.
		m.metrics.Inc(MetricRefreshFailure)
		m.emitAudit(callerCtx, auditEventRefreshFailure, false, snap.SubjectID, snap.ID, "", ErrProviderUnavailable, nil)
		return session.Session{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	h.Replace(grant.AccessToken, grant.RefreshToken, m.grantExpiry(grant))
	next := h.Snapshot()
	m.persistSnapshot(ctx, next)

	m.metrics.Inc(MetricRefreshSuccess)
	m.emitAudit(callerCtx, auditEventRefreshSuccess, true, next.SubjectID, next.ID, "", nil, nil)

	return next, nil
}

// grantExpiry resolves the access expiry for a grant: the provider's
// expires_in when present, the token's own exp claim when verification is
// configured, otherwise a conservative fallback.
func (m *Manager) grantExpiry(grant *provider.Grant) int64 {
	now := time.Now()

	if grant.ExpiresIn > 0 {
		return now.Add(time.Duration(grant.ExpiresIn) * time.Second).Unix()
	}

	if m.tokens != nil {
		if claims, err := m.tokens.ParseAccess(grant.AccessToken); err == nil && claims.ExpiresAt != nil {
			return claims.ExpiresAt.Unix()
		}
	}

	log.Print("goSession: grant carried no expiry, assuming fallback TTL")
	return now.Add(fallbackAccessTTL).Unix()
}

func (m *Manager) persistSnapshot(ctx context.Context, sess session.Session) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, sess, m.config.Session.SnapshotTTL); err != nil {
		log.Printf("goSession: snapshot save failed: %v", err)
	}
}
