package internaldefs

import (
	authcore "github.com/lernhub/authcore"
)

// CounterDef defines a public type used by authcore APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by authcore APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the authentication core.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Successful login completions."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Failed login attempts."},
	{ID: authcore.MetricLoginDisabledAccount, Name: "authcore_login_disabled_account_total", Help: "Logins rejected on disabled accounts."},
	{ID: authcore.MetricMFARequired, Name: "authcore_mfa_required_total", Help: "Login flows requiring an OTP step-up."},
	{ID: authcore.MetricMFASuccess, Name: "authcore_mfa_success_total", Help: "Completed OTP step-up verifications."},
	{ID: authcore.MetricMFAFailure, Name: "authcore_mfa_failure_total", Help: "Failed OTP step-up verifications."},
	{ID: authcore.MetricOTPIssued, Name: "authcore_otp_issued_total", Help: "Issued OTP challenges."},
	{ID: authcore.MetricOTPResent, Name: "authcore_otp_resent_total", Help: "Resent OTP challenges."},
	{ID: authcore.MetricOTPCooldownHit, Name: "authcore_otp_cooldown_hit_total", Help: "OTP sends denied by the resend cooldown."},
	{ID: authcore.MetricOTPInvalidCode, Name: "authcore_otp_invalid_code_total", Help: "OTP verifications with a wrong code."},
	{ID: authcore.MetricOTPExpired, Name: "authcore_otp_expired_total", Help: "OTP verifications against expired challenges."},
	{ID: authcore.MetricOTPAttemptsExceeded, Name: "authcore_otp_attempts_exceeded_total", Help: "OTP verifications denied by the attempt cap."},
	{ID: authcore.MetricOTPDeliveryFailure, Name: "authcore_otp_delivery_failure_total", Help: "OTP messages that failed to deliver."},
	{ID: authcore.MetricRegistrationSuccess, Name: "authcore_registration_success_total", Help: "Successful account registrations."},
	{ID: authcore.MetricRegistrationDuplicate, Name: "authcore_registration_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: authcore.MetricPasswordResetRequest, Name: "authcore_password_reset_request_total", Help: "Password reset requests."},
	{ID: authcore.MetricPasswordResetSuccess, Name: "authcore_password_reset_success_total", Help: "Completed password resets."},
	{ID: authcore.MetricPasswordResetFailure, Name: "authcore_password_reset_failure_total", Help: "Failed password resets."},
	{ID: authcore.MetricPasswordChangeSuccess, Name: "authcore_password_change_success_total", Help: "Successful password changes."},
	{ID: authcore.MetricPasswordChangeInvalidCurrent, Name: "authcore_password_change_invalid_current_total", Help: "Password changes with a wrong current password."},
	{ID: authcore.MetricPasswordPolicyRejected, Name: "authcore_password_policy_rejected_total", Help: "Passwords rejected by the composition policy."},
	{ID: authcore.MetricInstructorProvisioned, Name: "authcore_instructor_provisioned_total", Help: "Provisioned instructor accounts."},
}

// HistogramDefs is an exported constant or variable used by the authentication core.
var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricOTPVerifyLatency, Name: "authcore_otp_verify_latency_seconds", Help: "OTP verification latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the authentication core.
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

// HistogramBoundSuffix is an exported constant or variable used by the authentication core.
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

// NormalizeBuckets copies a raw bucket slice into the fixed exporter shape.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into cumulative form.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
