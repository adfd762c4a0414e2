// Package internaldefs holds the shared metric name table for the
// Prometheus and OTel exporters so both surfaces stay in lockstep.
package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef binds a metric ID to its exported name and help text.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram metric ID to its exported name and help text.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful login exchanges."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Failed login exchanges."},
	{ID: goSession.MetricLoginMFARequired, Name: "gosession_login_mfa_required_total", Help: "Logins halted pending a second factor."},
	{ID: goSession.MetricSignupSuccess, Name: "gosession_signup_success_total", Help: "Successful signup exchanges."},
	{ID: goSession.MetricSignupFailure, Name: "gosession_signup_failure_total", Help: "Failed signup exchanges."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Successful token refreshes."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Refreshes that failed without invalidating the session."},
	{ID: goSession.MetricRefreshRejected, Name: "gosession_refresh_rejected_total", Help: "Refresh tokens the provider rejected."},
	{ID: goSession.MetricRefreshDeduped, Name: "gosession_refresh_deduped_total", Help: "Refresh requests coalesced into a shared flight."},
	{ID: goSession.MetricRefreshSkipped, Name: "gosession_refresh_skipped_total", Help: "EnsureValid calls answered from the still-valid token."},
	{ID: goSession.MetricGateAllow, Name: "gosession_gate_allow_total", Help: "Requests the route gate allowed."},
	{ID: goSession.MetricGateRedirect, Name: "gosession_gate_redirect_total", Help: "Requests the route gate redirected."},
	{ID: goSession.MetricGateDeny, Name: "gosession_gate_deny_total", Help: "Requests the route gate denied."},
	{ID: goSession.MetricTransportRetry, Name: "gosession_transport_retry_total", Help: "API calls retried after a 401."},
	{ID: goSession.MetricTransportError, Name: "gosession_transport_error_total", Help: "API calls that failed at the transport layer."},
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Created sessions."},
	{ID: goSession.MetricSessionCleared, Name: "gosession_session_cleared_total", Help: "Cleared sessions."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Logout operations."},
	{ID: goSession.MetricRehydrateSuccess, Name: "gosession_rehydrate_success_total", Help: "Sessions restored from snapshots."},
	{ID: goSession.MetricRehydrateFailure, Name: "gosession_rehydrate_failure_total", Help: "Failed snapshot restorations."},
}

var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricEnsureLatency, Name: "gosession_ensure_latency_seconds", Help: "EnsureValid latency histogram."},
}

var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// Prometheus histograms expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
