package authcore

import (
	"context"
	"log"
	"time"
)

// Login authenticates an identifier/password pair.
//
// When the account's MFA window has lapsed the result carries MFARequired
// with a fresh challenge instead of the user, and the caller must complete
// VerifyLoginOTP. Credentials are always checked before the account's
// enabled flag so a disabled response never leaks whether the password was
// right.
func (e *Engine) Login(ctx context.Context, identifier, pass string) (*LoginResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if identifier == "" || pass == "" {
		return nil, ErrInvalidInput
	}

	user, err := e.userProvider.GetUserByIdentifier(identifier)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditActionLogin, false, "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
				"reason":     "user_not_found",
			}
		})
		return nil, ErrInvalidCredentials
	}

	ok, err := e.passwordHash.Verify(pass, user.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditActionLogin, false, user.UserID, user.Email, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
				"reason":     "password_mismatch",
			}
		})
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		e.metricInc(MetricLoginDisabledAccount)
		e.emitAudit(ctx, auditActionLogin, false, user.UserID, user.Email, ErrAccountDisabled, nil)
		return nil, ErrAccountDisabled
	}

	if e.config.Password.UpgradeOnLogin {
		if needsUpgrade, err := e.passwordHash.NeedsUpgrade(user.PasswordHash); err == nil && needsUpgrade {
			if upgradedHash, err := e.passwordHash.Hash(pass); err == nil {
				// Rehash update is best-effort and must not block successful login.
				if err := e.userProvider.UpdatePasswordHash(user.UserID, upgradedHash, false); err != nil {
					log.Print("authcore: password hash upgrade update failed")
				}
			} else {
				log.Print("authcore: password hash upgrade generation failed")
			}
		}
	}
	pass = ""

	if e.mfaDue(user, time.Now()) {
		challenge, err := e.issueOTP(ctx, PurposeLoginMFA, user.Email)
		if err != nil {
			e.emitAudit(ctx, auditActionLogin, false, user.UserID, user.Email, err, func() map[string]string {
				return map[string]string{
					"reason": "mfa_challenge_issue_failed",
				}
			})
			return nil, err
		}

		e.metricInc(MetricMFARequired)
		e.emitAudit(ctx, auditActionLogin, true, user.UserID, user.Email, nil, func() map[string]string {
			return map[string]string{
				"mfa_required": "true",
			}
		})

		return &LoginResult{
			MFARequired: true,
			Challenge:   challenge,
		}, nil
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditActionLogin, true, user.UserID, user.Email, nil, nil)

	return &LoginResult{User: sanitizeUser(user)}, nil
}

// VerifyLoginOTP completes a step-up login by consuming the challenge and
// refreshing the account's MFA timestamp.
func (e *Engine) VerifyLoginOTP(ctx context.Context, otpID, code string) (*LoginResult, error) {
	record, err := e.verifyOTP(ctx, PurposeLoginMFA, otpID, code, true)
	if err != nil {
		e.metricInc(MetricMFAFailure)
		var email string
		if record != nil {
			email = record.Email
		}
		e.emitAudit(ctx, auditActionLoginOTPVerified, false, "", email, err, nil)
		return nil, err
	}

	user, err := e.userProvider.GetUserByEmail(record.Email)
	if err != nil {
		e.metricInc(MetricMFAFailure)
		e.emitAudit(ctx, auditActionLoginOTPVerified, false, "", record.Email, ErrUserNotFound, nil)
		return nil, ErrUserNotFound
	}
	if !user.Active {
		e.metricInc(MetricMFAFailure)
		e.emitAudit(ctx, auditActionLoginOTPVerified, false, user.UserID, user.Email, ErrAccountDisabled, nil)
		return nil, ErrAccountDisabled
	}

	now := time.Now()
	if err := e.userProvider.UpdateMFAVerifiedAt(ctx, user.UserID, now); err != nil {
		e.metricInc(MetricMFAFailure)
		e.emitAudit(ctx, auditActionLoginOTPVerified, false, user.UserID, user.Email, err, func() map[string]string {
			return map[string]string{
				"reason": "mfa_timestamp_update_failed",
			}
		})
		return nil, err
	}
	user.MFALastVerifiedAt = &now

	e.metricInc(MetricMFASuccess)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditActionLoginOTPVerified, true, user.UserID, user.Email, nil, nil)

	return &LoginResult{User: sanitizeUser(user)}, nil
}

// ResendLoginOTP replaces any pending login challenge for the account with a
// fresh one, subject to the resend cooldown.
func (e *Engine) ResendLoginOTP(ctx context.Context, email string) (*OTPChallengeInfo, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidInput
	}

	user, err := e.userProvider.GetUserByEmail(email)
	if err != nil {
		e.emitAudit(ctx, auditActionLoginOTPResent, false, "", email, ErrUserNotFound, nil)
		return nil, ErrUserNotFound
	}
	if !user.Active {
		e.emitAudit(ctx, auditActionLoginOTPResent, false, user.UserID, user.Email, ErrAccountDisabled, nil)
		return nil, ErrAccountDisabled
	}

	challenge, err := e.issueOTP(ctx, PurposeLoginMFA, email)
	if err != nil {
		e.emitAudit(ctx, auditActionLoginOTPResent, false, user.UserID, email, err, nil)
		return nil, err
	}

	e.metricInc(MetricOTPResent)
	e.emitAudit(ctx, auditActionLoginOTPResent, true, user.UserID, email, nil, nil)

	return challenge, nil
}

func (e *Engine) mfaDue(user UserRecord, now time.Time) bool {
	if user.MFALastVerifiedAt == nil {
		return true
	}
	return now.Sub(*user.MFALastVerifiedAt) >= e.config.MFA.ReverifyInterval
}
