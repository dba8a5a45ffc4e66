package authcore

import (
	"context"
)

// RequestPasswordReset issues a reset challenge for a known account.
// Unknown addresses are reported as not found rather than masked.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (*OTPChallengeInfo, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidInput
	}

	user, err := e.userProvider.GetUserByEmail(email)
	if err != nil {
		e.emitAudit(ctx, auditActionPasswordResetRequest, false, "", email, ErrUserNotFound, nil)
		return nil, ErrUserNotFound
	}
	if !user.Active {
		e.emitAudit(ctx, auditActionPasswordResetRequest, false, user.UserID, user.Email, ErrAccountDisabled, nil)
		return nil, ErrAccountDisabled
	}

	challenge, err := e.issueOTP(ctx, PurposeResetPassword, email)
	if err != nil {
		e.emitAudit(ctx, auditActionPasswordResetRequest, false, user.UserID, email, err, nil)
		return nil, err
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditActionPasswordResetRequest, true, user.UserID, email, nil, nil)

	return challenge, nil
}

// ResendPasswordResetOTP replaces the pending reset challenge with a fresh
// one, subject to the resend cooldown.
func (e *Engine) ResendPasswordResetOTP(ctx context.Context, email string) (*OTPChallengeInfo, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidInput
	}

	user, err := e.userProvider.GetUserByEmail(email)
	if err != nil {
		e.emitAudit(ctx, auditActionPasswordResetRequest, false, "", email, ErrUserNotFound, nil)
		return nil, ErrUserNotFound
	}
	if !user.Active {
		e.emitAudit(ctx, auditActionPasswordResetRequest, false, user.UserID, user.Email, ErrAccountDisabled, nil)
		return nil, ErrAccountDisabled
	}

	challenge, err := e.issueOTP(ctx, PurposeResetPassword, email)
	if err != nil {
		e.emitAudit(ctx, auditActionPasswordResetRequest, false, user.UserID, email, err, nil)
		return nil, err
	}

	e.metricInc(MetricOTPResent)
	e.emitAudit(ctx, auditActionPasswordResetRequest, true, user.UserID, email, nil, func() map[string]string {
		return map[string]string{
			"resend": "true",
		}
	})

	return challenge, nil
}

// VerifyPasswordResetOTP checks a reset code without consuming the
// challenge, letting a client confirm the code before collecting the new
// password. Wrong codes still count against the attempt budget.
func (e *Engine) VerifyPasswordResetOTP(ctx context.Context, otpID, code string) error {
	record, err := e.verifyOTP(ctx, PurposeResetPassword, otpID, code, false)
	if err != nil {
		var email string
		if record != nil {
			email = record.Email
		}
		e.emitAudit(ctx, auditActionPasswordResetVerify, false, "", email, err, nil)
		return err
	}

	e.emitAudit(ctx, auditActionPasswordResetVerify, true, "", record.Email, nil, nil)
	return nil
}

// ResetPasswordWithOTP re-verifies the reset code, consumes the challenge,
// and installs the new password. The consume makes a replay of the same
// otpID observably not-found.
func (e *Engine) ResetPasswordWithOTP(ctx context.Context, otpID, code, newPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if err := e.checkPasswordPolicy(newPassword); err != nil {
		return err
	}

	record, err := e.verifyOTP(ctx, PurposeResetPassword, otpID, code, true)
	if err != nil {
		e.metricInc(MetricPasswordResetFailure)
		var email string
		if record != nil {
			email = record.Email
		}
		e.emitAudit(ctx, auditActionPasswordReset, false, "", email, err, nil)
		return err
	}

	user, err := e.userProvider.GetUserByEmail(record.Email)
	if err != nil {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditActionPasswordReset, false, "", record.Email, ErrUserNotFound, nil)
		return ErrUserNotFound
	}

	hash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditActionPasswordReset, false, user.UserID, user.Email, err, nil)
		return err
	}
	newPassword = ""

	if err := e.userProvider.UpdatePasswordHash(user.UserID, hash, true); err != nil {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditActionPasswordReset, false, user.UserID, user.Email, err, func() map[string]string {
			return map[string]string{
				"reason": "update_hash_failed",
			}
		})
		return err
	}

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditActionPasswordReset, true, user.UserID, user.Email, nil, nil)

	return nil
}
