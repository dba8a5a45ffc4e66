package authcore

import (
	"context"
	"fmt"
)

// Notifier delivers out-of-band messages carrying OTP codes. Implementations
// must be safe for concurrent use; the engine calls Send synchronously and
// surfaces delivery failure to the caller.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NoOpNotifier discards every message. Useful for tests and for deployments
// that deliver codes through an external pipeline.
type NoOpNotifier struct{}

// Send implements Notifier and always succeeds.
func (NoOpNotifier) Send(ctx context.Context, to, subject, body string) error {
	return nil
}

func otpMessageSubject(purpose OTPPurpose) string {
	switch purpose {
	case PurposeLoginMFA:
		return "Your sign-in verification code"
	case PurposeRegister:
		return "Confirm your email address"
	case PurposeResetPassword:
		return "Your password reset code"
	default:
		return "Your verification code"
	}
}

func otpMessageBody(purpose OTPPurpose, code string, expiryMinutes int) string {
	var action string
	switch purpose {
	case PurposeLoginMFA:
		action = "finish signing in"
	case PurposeRegister:
		action = "confirm your registration"
	case PurposeResetPassword:
		action = "reset your password"
	default:
		action = "continue"
	}
	return fmt.Sprintf(
		"Use the code %s to %s. It expires in %d minutes.\r\n\r\nIf you did not request this code, you can ignore this message.",
		code, action, expiryMinutes,
	)
}
