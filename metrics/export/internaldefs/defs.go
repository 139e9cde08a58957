// Package internaldefs holds the metric name definitions shared by
// exporter implementations, so every exporter publishes identical names
// and bucket boundaries.
package internaldefs

import (
	"github.com/adminkit/authengine"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   authengine.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for export.
type HistogramDef struct {
	ID   authengine.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authengine.MetricLoginSuccess, Name: "authengine_login_success_total", Help: "Successful login attempts."},
	{ID: authengine.MetricLoginFailure, Name: "authengine_login_failure_total", Help: "Failed login attempts."},
	{ID: authengine.MetricLoginThrottled, Name: "authengine_login_throttled_total", Help: "Throttled login attempts."},
	{ID: authengine.MetricAccountLockout, Name: "authengine_account_lockout_total", Help: "Accounts locked after repeated failures."},
	{ID: authengine.MetricRefreshSuccess, Name: "authengine_refresh_success_total", Help: "Successful refresh exchanges."},
	{ID: authengine.MetricRefreshFailure, Name: "authengine_refresh_failure_total", Help: "Failed refresh exchanges."},
	{ID: authengine.MetricRefreshReuseDetected, Name: "authengine_refresh_reuse_detected_total", Help: "Rotated refresh tokens presented again."},
	{ID: authengine.MetricLogout, Name: "authengine_logout_total", Help: "Single-session logouts."},
	{ID: authengine.MetricLogoutAll, Name: "authengine_logout_all_total", Help: "All-session logouts."},
	{ID: authengine.MetricAuthorizeSuccess, Name: "authengine_authorize_success_total", Help: "Authorized requests."},
	{ID: authengine.MetricAuthorizeDenied, Name: "authengine_authorize_denied_total", Help: "Denied requests."},
	{ID: authengine.MetricPasswordChangeSuccess, Name: "authengine_password_change_success_total", Help: "Successful password changes."},
	{ID: authengine.MetricPasswordChangeRejected, Name: "authengine_password_change_rejected_total", Help: "Rejected password changes."},
	{ID: authengine.MetricPasswordResetRequest, Name: "authengine_password_reset_request_total", Help: "Password reset requests."},
	{ID: authengine.MetricPasswordResetConfirmSuccess, Name: "authengine_password_reset_confirm_success_total", Help: "Successful reset confirmations."},
	{ID: authengine.MetricPasswordResetConfirmFailure, Name: "authengine_password_reset_confirm_failure_total", Help: "Failed reset confirmations."},
	{ID: authengine.MetricEmailVerificationRequest, Name: "authengine_email_verification_request_total", Help: "Email verification requests."},
	{ID: authengine.MetricEmailVerificationSuccess, Name: "authengine_email_verification_success_total", Help: "Successful email verifications."},
	{ID: authengine.MetricEmailVerificationFailure, Name: "authengine_email_verification_failure_total", Help: "Failed email verifications."},
	{ID: authengine.MetricAccountCreated, Name: "authengine_account_created_total", Help: "Created accounts."},
	{ID: authengine.MetricAccountDuplicate, Name: "authengine_account_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: authengine.MetricAccountStatusChange, Name: "authengine_account_status_change_total", Help: "Administrative status changes."},
	{ID: authengine.MetricRegistryUnavailable, Name: "authengine_registry_unavailable_total", Help: "Operations denied because the revocation registry was unreachable."},
	{ID: authengine.MetricStoreUnavailable, Name: "authengine_store_unavailable_total", Help: "Operations denied because the credential store was unreachable."},
}

var HistogramDefs = []HistogramDef{
	{ID: authengine.MetricAuthorizeLatency, Name: "authengine_authorize_latency_seconds", Help: "Authorize latency histogram."},
}

// HistogramBounds are the le label values of the engine's fixed bucket
// boundaries (5, 10, 25, 50, 100, 250, 500 ms, +Inf) in seconds.
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

// HistogramBoundSuffix mirrors HistogramBounds in metric-name form for
// exporters that cannot carry labels.
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

// CumulativeBuckets converts per-bucket counts into the cumulative form
// histogram consumers expect; the last element is the total sample count.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
