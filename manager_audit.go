package goSession

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess     = "login_success"
	auditEventLoginFailure     = "login_failure"
	auditEventLoginMFARequired = "login_mfa_required"
	auditEventSignupSuccess    = "signup_success"
	auditEventSignupFailure    = "signup_failure"
	auditEventRefreshSuccess   = "refresh_success"
	auditEventRefreshRejected  = "refresh_rejected"
	auditEventRefreshFailure   = "refresh_failure"
	auditEventGateRedirect     = "gate_redirect"
	auditEventGateDeny         = "gate_deny"
	auditEventLogout           = "logout"
	auditEventRehydrateSuccess = "rehydrate_success"
	auditEventRehydrateFailure = "rehydrate_failure"
	auditEventSessionExpired   = "session_expired"
)

// AuditErrorCode is the compact error label attached to failed audit events.
type AuditErrorCode string

const (
	auditErrSessionExpired      AuditErrorCode = "session_expired"
	auditErrRefreshMissing      AuditErrorCode = "refresh_token_missing"
	auditErrRefreshRejected     AuditErrorCode = "refresh_rejected"
	auditErrProviderUnavailable AuditErrorCode = "provider_unavailable"
	auditErrForbidden           AuditErrorCode = "forbidden"
	auditErrNotAuthenticated    AuditErrorCode = "not_authenticated"
	auditErrInvalidCredentials  AuditErrorCode = "invalid_credentials"
	auditErrMFARequired         AuditErrorCode = "mfa_required"
	auditErrSessionNotFound     AuditErrorCode = "session_not_found"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (m *Manager) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subjectID string,
	sessionID string,
	path string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m == nil || m.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		SubjectID: subjectID,
		SessionID: sessionID,
		Path:      path,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	m.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrRefreshTokenMissing):
		return auditErrRefreshMissing
	case errors.Is(err, ErrRefreshRejected):
		return auditErrRefreshRejected
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrProviderUnavailable):
		return auditErrProviderUnavailable
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrNotAuthenticated
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrMFARequired):
		return auditErrMFARequired
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSnapshotsDisabled):
		return auditErrSessionNotFound
	default:
		return auditErrInternal
	}
}
