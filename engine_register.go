package authcore

import (
	"context"
	"errors"
	"strings"
)

// RequestRegistrationOTP starts an email-verified signup. Duplicate email
// and username are rejected before any cooldown is consumed or any message
// sent, so a taken address never burns the caller's resend budget.
func (e *Engine) RequestRegistrationOTP(ctx context.Context, input RegistrationInput) (*OTPChallengeInfo, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	input.Email = normalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	if err := validateRegistrationInput(input); err != nil {
		return nil, err
	}
	if err := e.checkPasswordPolicy(input.Password); err != nil {
		return nil, err
	}
	if err := e.checkRegistrationAvailable(input.Email, input.Username); err != nil {
		e.metricInc(MetricRegistrationDuplicate)
		e.emitAudit(ctx, auditActionRegistrationOTP, false, "", input.Email, err, nil)
		return nil, err
	}

	challenge, err := e.issueOTP(ctx, PurposeRegister, input.Email)
	if err != nil {
		e.emitAudit(ctx, auditActionRegistrationOTP, false, "", input.Email, err, nil)
		return nil, err
	}

	e.emitAudit(ctx, auditActionRegistrationOTP, true, "", input.Email, nil, func() map[string]string {
		return map[string]string{
			"username": input.Username,
		}
	})

	return challenge, nil
}

// ResendRegistrationOTP issues a fresh signup challenge for email, subject
// to the same duplicate check and cooldown as the initial request.
func (e *Engine) ResendRegistrationOTP(ctx context.Context, email string) (*OTPChallengeInfo, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidInput
	}

	if _, err := e.userProvider.GetUserByEmail(email); err == nil {
		e.metricInc(MetricRegistrationDuplicate)
		e.emitAudit(ctx, auditActionRegistrationOTP, false, "", email, ErrEmailAlreadyRegistered, nil)
		return nil, ErrEmailAlreadyRegistered
	}

	challenge, err := e.issueOTP(ctx, PurposeRegister, email)
	if err != nil {
		e.emitAudit(ctx, auditActionRegistrationOTP, false, "", email, err, nil)
		return nil, err
	}

	e.metricInc(MetricOTPResent)
	e.emitAudit(ctx, auditActionRegistrationOTP, true, "", email, nil, nil)

	return challenge, nil
}

// VerifyAndRegister consumes a signup challenge and creates the account.
//
// The challenge's bound email must match the submitted profile before the
// code is even compared, so a code for one address can never register
// another. Availability is re-checked after the consume; the remaining
// window between that check and CreateUser is closed by the provider's own
// uniqueness errors.
func (e *Engine) VerifyAndRegister(ctx context.Context, input RegistrationInput, otpID, code string) (*SanitizedUser, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	input.Email = normalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	if err := validateRegistrationInput(input); err != nil {
		return nil, err
	}
	if err := e.checkPasswordPolicy(input.Password); err != nil {
		return nil, err
	}

	record, err := e.peekOTP(ctx, PurposeRegister, otpID)
	if err != nil {
		e.emitAudit(ctx, auditActionRegistration, false, "", input.Email, err, nil)
		return nil, err
	}
	if record.Email != input.Email {
		e.emitAudit(ctx, auditActionRegistration, false, "", input.Email, ErrOTPEmailMismatch, nil)
		return nil, ErrOTPEmailMismatch
	}

	if _, err := e.verifyOTP(ctx, PurposeRegister, otpID, code, true); err != nil {
		e.emitAudit(ctx, auditActionRegistration, false, "", input.Email, err, nil)
		return nil, err
	}

	if err := e.checkRegistrationAvailable(input.Email, input.Username); err != nil {
		e.metricInc(MetricRegistrationDuplicate)
		e.emitAudit(ctx, auditActionRegistration, false, "", input.Email, err, nil)
		return nil, err
	}

	hash, err := e.passwordHash.Hash(input.Password)
	if err != nil {
		e.emitAudit(ctx, auditActionRegistration, false, "", input.Email, err, nil)
		return nil, err
	}
	input.Password = ""

	user, err := e.userProvider.CreateUser(ctx, CreateUserInput{
		Email:        input.Email,
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		DateOfBirth:  input.DateOfBirth,
		Gender:       input.Gender,
		Phone:        input.Phone,
		PasswordHash: hash,
		Role:         RoleUser,
		Active:       true,
	})
	if err != nil {
		if errors.Is(err, ErrProviderDuplicate) {
			e.metricInc(MetricRegistrationDuplicate)
			e.emitAudit(ctx, auditActionRegistration, false, "", input.Email, ErrEmailAlreadyRegistered, nil)
			return nil, ErrEmailAlreadyRegistered
		}
		e.emitAudit(ctx, auditActionRegistration, false, "", input.Email, err, nil)
		return nil, err
	}

	e.metricInc(MetricRegistrationSuccess)
	e.emitAudit(ctx, auditActionRegistration, true, user.UserID, user.Email, nil, func() map[string]string {
		return map[string]string{
			"username": user.Username,
		}
	})

	return sanitizeUser(user), nil
}

func (e *Engine) checkRegistrationAvailable(email, username string) error {
	if _, err := e.userProvider.GetUserByEmail(email); err == nil {
		return ErrEmailAlreadyRegistered
	}
	if _, err := e.userProvider.GetUserByIdentifier(username); err == nil {
		return ErrUsernameTaken
	}
	return nil
}

func validateRegistrationInput(input RegistrationInput) error {
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return ErrInvalidInput
	}
	if input.Username == "" || input.Password == "" {
		return ErrInvalidInput
	}
	return nil
}
