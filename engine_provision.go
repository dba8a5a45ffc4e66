package authcore

import (
	"context"
	"errors"
	"strings"
)

// ProvisionInstructor creates an instructor account with an out-of-band
// temporary password. The account is created active with
// MustChangePassword set; the flag clears on the first password change or
// reset. Intended for admin callers, with the acting admin carried through
// [WithActor] for the audit trail.
func (e *Engine) ProvisionInstructor(ctx context.Context, input ProvisionInstructorInput) (*SanitizedUser, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	input.Email = normalizeEmail(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	if input.Email == "" || !strings.Contains(input.Email, "@") || input.Username == "" {
		return nil, ErrInvalidInput
	}
	if err := e.checkPasswordPolicy(input.TempPassword); err != nil {
		return nil, err
	}

	if err := e.checkRegistrationAvailable(input.Email, input.Username); err != nil {
		e.emitAudit(ctx, auditActionInstructorProvision, false, "", input.Email, err, nil)
		return nil, err
	}

	hash, err := e.passwordHash.Hash(input.TempPassword)
	if err != nil {
		e.emitAudit(ctx, auditActionInstructorProvision, false, "", input.Email, err, nil)
		return nil, err
	}
	input.TempPassword = ""

	user, err := e.userProvider.CreateUser(ctx, CreateUserInput{
		Email:              input.Email,
		Username:           input.Username,
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		Phone:              input.Phone,
		PasswordHash:       hash,
		Role:               RoleInstructor,
		Active:             true,
		MustChangePassword: true,
	})
	if err != nil {
		if errors.Is(err, ErrProviderDuplicate) {
			e.emitAudit(ctx, auditActionInstructorProvision, false, "", input.Email, ErrEmailAlreadyRegistered, nil)
			return nil, ErrEmailAlreadyRegistered
		}
		e.emitAudit(ctx, auditActionInstructorProvision, false, "", input.Email, err, nil)
		return nil, err
	}

	e.metricInc(MetricInstructorProvisioned)
	e.emitAudit(ctx, auditActionInstructorProvision, true, user.UserID, user.Email, nil, func() map[string]string {
		return map[string]string{
			"username": user.Username,
		}
	})

	return sanitizeUser(user), nil
}
