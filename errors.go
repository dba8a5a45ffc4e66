package authcore

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInput is an exported constant or variable used by the authentication core.
	ErrInvalidInput = errors.New("missing or malformed input")
	// ErrInvalidCredentials is an exported constant or variable used by the authentication core.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is an exported constant or variable used by the authentication core.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountDisabled is an exported constant or variable used by the authentication core.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrEmailAlreadyRegistered is an exported constant or variable used by the authentication core.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrUsernameTaken is an exported constant or variable used by the authentication core.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrOTPCooldown is an exported constant or variable used by the authentication core.
	ErrOTPCooldown = errors.New("otp resend cooldown active")
	// ErrOTPNotFound is an exported constant or variable used by the authentication core.
	ErrOTPNotFound = errors.New("otp challenge not found")
	// ErrOTPExpired is an exported constant or variable used by the authentication core.
	ErrOTPExpired = errors.New("otp challenge expired")
	// ErrOTPAttemptsExceeded is an exported constant or variable used by the authentication core.
	ErrOTPAttemptsExceeded = errors.New("otp attempts exceeded")
	// ErrOTPInvalidCode is an exported constant or variable used by the authentication core.
	ErrOTPInvalidCode = errors.New("invalid otp code")
	// ErrOTPEmailMismatch is an exported constant or variable used by the authentication core.
	ErrOTPEmailMismatch = errors.New("email does not match otp challenge")
	// ErrPasswordPolicy is an exported constant or variable used by the authentication core.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrNotifierDelivery is an exported constant or variable used by the authentication core.
	ErrNotifierDelivery = errors.New("otp delivery failed")
	// ErrOTPUnavailable is an exported constant or variable used by the authentication core.
	ErrOTPUnavailable = errors.New("otp backend unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the authentication core.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrProviderDuplicate is an exported constant or variable used by the authentication core.
	ErrProviderDuplicate = errors.New("provider duplicate identifier")
)

// CooldownError reports how long the caller must wait before the next OTP
// send for the same (email, purpose). It unwraps to [ErrOTPCooldown].
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("otp resend cooldown active, retry in %ds", e.SecondsRemaining())
}

func (e *CooldownError) Unwrap() error {
	return ErrOTPCooldown
}

// SecondsRemaining rounds the wait up to whole seconds for client display.
func (e *CooldownError) SecondsRemaining() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// InvalidCodeError reports a failed code comparison along with how many
// attempts the challenge has left. It unwraps to [ErrOTPInvalidCode].
type InvalidCodeError struct {
	AttemptsRemaining int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid otp code, %d attempts remaining", e.AttemptsRemaining)
}

func (e *InvalidCodeError) Unwrap() error {
	return ErrOTPInvalidCode
}
