package authcore

import (
	"context"
	"time"
)

// Role identifies the platform-level role of an account.
type Role string

const (
	// RoleUser is an exported constant or variable used by the authentication core.
	RoleUser Role = "user"
	// RoleInstructor is an exported constant or variable used by the authentication core.
	RoleInstructor Role = "instructor"
	// RoleAdmin is an exported constant or variable used by the authentication core.
	RoleAdmin Role = "admin"
)

// Gender is the self-reported gender field carried on user profiles.
type Gender string

const (
	// GenderMale is an exported constant or variable used by the authentication core.
	GenderMale Gender = "male"
	// GenderFemale is an exported constant or variable used by the authentication core.
	GenderFemale Gender = "female"
	// GenderOther is an exported constant or variable used by the authentication core.
	GenderOther Gender = "other"
	// GenderUndisclosed is an exported constant or variable used by the authentication core.
	GenderUndisclosed Gender = "prefer_not_to_say"
)

// OTPPurpose partitions OTP challenges by use-case so the same email can hold
// independent concurrent verification contexts.
type OTPPurpose string

const (
	// PurposeLoginMFA is an exported constant or variable used by the authentication core.
	PurposeLoginMFA OTPPurpose = "login_mfa"
	// PurposeRegister is an exported constant or variable used by the authentication core.
	PurposeRegister OTPPurpose = "register"
	// PurposeResetPassword is an exported constant or variable used by the authentication core.
	PurposeResetPassword OTPPurpose = "reset_password"
)

func (p OTPPurpose) valid() bool {
	switch p {
	case PurposeLoginMFA, PurposeRegister, PurposeResetPassword:
		return true
	default:
		return false
	}
}

// UserProvider is the primary interface that callers must implement to
// integrate authcore with their user database. It covers credential lookup,
// account creation, password updates, and the MFA re-verification timestamp.
type UserProvider interface {
	GetUserByIdentifier(identifier string) (UserRecord, error)
	GetUserByEmail(email string) (UserRecord, error)
	GetUserByID(userID string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdatePasswordHash(userID, newHash string, clearMustChangePassword bool) error
	UpdateMFAVerifiedAt(ctx context.Context, userID string, at time.Time) error
}

// UserRecord is the full account record returned by [UserProvider].
// It carries the credential hash, role, active flag, and MFA state.
type UserRecord struct {
	UserID             string
	Email              string
	Username           string
	FirstName          string
	LastName           string
	DateOfBirth        string
	Gender             Gender
	Phone              string
	PasswordHash       string
	Role               Role
	Active             bool
	MustChangePassword bool
	MFALastVerifiedAt  *time.Time
}

// CreateUserInput is the input for [UserProvider.CreateUser].
type CreateUserInput struct {
	Email              string
	Username           string
	FirstName          string
	LastName           string
	DateOfBirth        string
	Gender             Gender
	Phone              string
	PasswordHash       string
	Role               Role
	Active             bool
	MustChangePassword bool
}

// SanitizedUser is the outward projection of a [UserRecord]. It never
// carries the password hash.
type SanitizedUser struct {
	UserID             string     `json:"id"`
	Email              string     `json:"email"`
	Username           string     `json:"username"`
	FirstName          string     `json:"firstName,omitempty"`
	LastName           string     `json:"lastName,omitempty"`
	DateOfBirth        string     `json:"dateOfBirth,omitempty"`
	Gender             Gender     `json:"gender,omitempty"`
	Phone              string     `json:"phone,omitempty"`
	Role               Role       `json:"role"`
	Active             bool       `json:"active"`
	MustChangePassword bool       `json:"mustChangePassword"`
	MFALastVerifiedAt  *time.Time `json:"mfaLastVerifiedAt,omitempty"`
}

func sanitizeUser(u UserRecord) *SanitizedUser {
	return &SanitizedUser{
		UserID:             u.UserID,
		Email:              u.Email,
		Username:           u.Username,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		DateOfBirth:        u.DateOfBirth,
		Gender:             u.Gender,
		Phone:              u.Phone,
		Role:               u.Role,
		Active:             u.Active,
		MustChangePassword: u.MustChangePassword,
		MFALastVerifiedAt:  u.MFALastVerifiedAt,
	}
}

// OTPChallengeInfo is the caller-visible projection of a freshly issued
// challenge: the id needed to complete the exchange, a masked delivery
// target, and the absolute expiry.
type OTPChallengeInfo struct {
	OTPID       string    `json:"otpId"`
	Email       string    `json:"email"`
	MaskedEmail string    `json:"maskedEmail"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// LoginResult is returned by [Engine.Login] and [Engine.VerifyLoginOTP].
// It includes the sanitized user when authentication completes, or MFA
// challenge metadata when a step-up code is required.
type LoginResult struct {
	User *SanitizedUser

	MFARequired bool
	Challenge   *OTPChallengeInfo
}

// RegistrationInput is the profile payload supplied to
// [Engine.VerifyAndRegister] alongside the OTP code.
type RegistrationInput struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      Gender `json:"gender"`
	Phone       string `json:"phone"`
}

// ProvisionInstructorInput is the input for [Engine.ProvisionInstructor].
// TempPassword is issued out of band; the created account carries
// MustChangePassword=true until the first password change or reset.
type ProvisionInstructorInput struct {
	Email        string
	Username     string
	TempPassword string
	FirstName    string
	LastName     string
	Phone        string
}
