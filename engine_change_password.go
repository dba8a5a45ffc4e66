package authcore

import (
	"context"
	"fmt"
)

// ChangePassword rotates the password for an authenticated account after
// re-verifying the current one. A successful change clears the
// must-change-password flag set by instructor provisioning.
func (e *Engine) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if userID == "" || currentPassword == "" || newPassword == "" {
		return ErrInvalidInput
	}

	user, err := e.userProvider.GetUserByID(userID)
	if err != nil {
		e.emitAudit(ctx, auditActionPasswordChange, false, userID, "", ErrUserNotFound, nil)
		return ErrUserNotFound
	}
	if !user.Active {
		e.emitAudit(ctx, auditActionPasswordChange, false, user.UserID, user.Email, ErrAccountDisabled, nil)
		return ErrAccountDisabled
	}

	ok, err := e.passwordHash.Verify(currentPassword, user.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricPasswordChangeInvalidCurrent)
		e.emitAudit(ctx, auditActionPasswordChange, false, user.UserID, user.Email, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "current_password_mismatch",
			}
		})
		return ErrInvalidCredentials
	}

	if err := e.checkPasswordPolicy(newPassword); err != nil {
		e.emitAudit(ctx, auditActionPasswordChange, false, user.UserID, user.Email, err, nil)
		return err
	}

	hash, err := e.passwordHash.Hash(newPassword)
	if err != nil {
		e.emitAudit(ctx, auditActionPasswordChange, false, user.UserID, user.Email, err, nil)
		return err
	}
	currentPassword = ""
	newPassword = ""

	if err := e.userProvider.UpdatePasswordHash(user.UserID, hash, true); err != nil {
		e.emitAudit(ctx, auditActionPasswordChange, false, user.UserID, user.Email, err, func() map[string]string {
			return map[string]string{
				"reason": "update_hash_failed",
			}
		})
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditActionPasswordChange, true, user.UserID, user.Email, nil, nil)

	return nil
}

func (e *Engine) checkPasswordPolicy(candidate string) error {
	if e.policy == nil {
		return ErrEngineNotReady
	}
	if err := e.policy.Check(candidate); err != nil {
		e.metricInc(MetricPasswordPolicyRejected)
		return fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}
	return nil
}
