package authcore

import (
	"context"
	"errors"
	"time"
)

const (
	auditActionLogin                = "Login"
	auditActionLoginOTPVerified     = "Login (OTP Verified)"
	auditActionLoginOTPResent       = "Login (OTP Resent)"
	auditActionRegistrationOTP      = "Registration (OTP Requested)"
	auditActionRegistration         = "Registration"
	auditActionPasswordResetRequest = "Password Reset (Requested)"
	auditActionPasswordResetVerify  = "Password Reset (OTP Verified)"
	auditActionPasswordReset        = "Password Reset"
	auditActionPasswordChange       = "Password Change"
	auditActionInstructorProvision  = "Instructor Provisioned"
)

// AuditErrorCode defines a public type used by authcore APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalidInput       AuditErrorCode = "invalid_input"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrAccountDisabled    AuditErrorCode = "account_disabled"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrCooldown           AuditErrorCode = "otp_cooldown"
	auditErrOTPNotFound        AuditErrorCode = "otp_not_found"
	auditErrOTPExpired         AuditErrorCode = "otp_expired"
	auditErrAttemptsExceeded   AuditErrorCode = "otp_attempts_exceeded"
	auditErrOTPInvalidCode     AuditErrorCode = "otp_invalid_code"
	auditErrOTPEmailMismatch   AuditErrorCode = "otp_email_mismatch"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrDelivery           AuditErrorCode = "delivery_failed"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	action string,
	success bool,
	targetID string,
	targetEmail string,
	err error,
	detailsBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var details map[string]string
	if detailsBuilder != nil {
		details = detailsBuilder()
	}

	actor := actorFromContext(ctx)

	event := AuditEvent{
		Timestamp:   time.Now().UTC(),
		Action:      action,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		ActorRole:   string(actor.Role),
		TargetID:    targetID,
		TargetEmail: targetEmail,
		IP:          clientIPFromContext(ctx),
		Success:     success,
		Details:     details,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return auditErrInvalidInput
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrAccountDisabled):
		return auditErrAccountDisabled
	case errors.Is(err, ErrEmailAlreadyRegistered),
		errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrProviderDuplicate):
		return auditErrDuplicate
	case errors.Is(err, ErrOTPCooldown):
		return auditErrCooldown
	case errors.Is(err, ErrOTPNotFound):
		return auditErrOTPNotFound
	case errors.Is(err, ErrOTPExpired):
		return auditErrOTPExpired
	case errors.Is(err, ErrOTPAttemptsExceeded):
		return auditErrAttemptsExceeded
	case errors.Is(err, ErrOTPInvalidCode):
		return auditErrOTPInvalidCode
	case errors.Is(err, ErrOTPEmailMismatch):
		return auditErrOTPEmailMismatch
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrNotifierDelivery):
		return auditErrDelivery
	case errors.Is(err, ErrOTPUnavailable),
		errors.Is(err, ErrEngineNotReady):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
