package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lernhub/authcore/internal"
)

// issueOTP creates and delivers a fresh challenge for (email, purpose).
//
// Respecting the resend cooldown happens before any work; a live cooldown
// returns a CooldownError carrying the remaining wait. Delivery failure
// surfaces as ErrNotifierDelivery after the challenge is already persisted,
// so the caller may retry through the resend path once the cooldown lapses.
func (e *Engine) issueOTP(ctx context.Context, purpose OTPPurpose, email string) (*OTPChallengeInfo, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	email = normalizeEmail(email)

	remaining, err := e.otpStore.CooldownRemaining(ctx, purpose, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPUnavailable, err)
	}
	if remaining > 0 {
		e.metricInc(MetricOTPCooldownHit)
		return nil, &CooldownError{RetryAfter: remaining}
	}

	code, err := internal.NewOTPCode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPUnavailable, err)
	}
	salt, err := internal.NewOTPSalt()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPUnavailable, err)
	}

	now := time.Now()
	expiresAt := now.Add(e.config.OTP.Expiry)
	otpID := uuid.NewString()

	record := &otpChallengeRecord{
		Email:      email,
		Purpose:    purpose,
		Salt:       salt,
		CodeHash:   internal.HashOTPCode(salt, code),
		ExpiresAt:  expiresAt.Unix(),
		LastSentAt: now.Unix(),
	}

	if err := e.otpStore.Create(ctx, otpID, record, e.config.OTP.Expiry, otpResendCooldown); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPUnavailable, err)
	}

	e.metricInc(MetricOTPIssued)

	subject := otpMessageSubject(purpose)
	body := otpMessageBody(purpose, code, int(e.config.OTP.Expiry.Minutes()))
	if err := e.notifier.Send(ctx, email, subject, body); err != nil {
		e.metricInc(MetricOTPDeliveryFailure)
		return nil, fmt.Errorf("%w: %v", ErrNotifierDelivery, err)
	}

	return &OTPChallengeInfo{
		OTPID:       otpID,
		Email:       email,
		MaskedEmail: MaskEmail(email),
		ExpiresAt:   expiresAt,
	}, nil
}

// verifyOTP checks a submitted code against a stored challenge and maps the
// ledger's outcome onto the public error surface.
func (e *Engine) verifyOTP(ctx context.Context, purpose OTPPurpose, otpID, code string, consume bool) (*otpChallengeRecord, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if otpID == "" || code == "" {
		return nil, ErrInvalidInput
	}

	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricOTPVerifyLatency, time.Since(start))
		}()
	}

	record, err := e.otpStore.Verify(ctx, purpose, otpID, code, e.config.OTP.MaxAttempts, consume)
	if err != nil {
		return record, e.mapOTPStoreError(err, record)
	}
	return record, nil
}

// peekOTP applies validity checks without touching the code or mutating the
// challenge. Used where the challenge's bound email must be inspected before
// the code comparison runs.
func (e *Engine) peekOTP(ctx context.Context, purpose OTPPurpose, otpID string) (*otpChallengeRecord, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if otpID == "" {
		return nil, ErrInvalidInput
	}

	record, err := e.otpStore.Peek(ctx, purpose, otpID, e.config.OTP.MaxAttempts)
	if err != nil {
		return nil, e.mapOTPStoreError(err, nil)
	}
	return record, nil
}

func (e *Engine) mapOTPStoreError(err error, record *otpChallengeRecord) error {
	switch {
	case errors.Is(err, errOTPStoreNotFound):
		return ErrOTPNotFound
	case errors.Is(err, errOTPStoreExpired):
		e.metricInc(MetricOTPExpired)
		return ErrOTPExpired
	case errors.Is(err, errOTPStoreAttemptsExceeded):
		e.metricInc(MetricOTPAttemptsExceeded)
		return ErrOTPAttemptsExceeded
	case errors.Is(err, errOTPStoreCodeMismatch):
		e.metricInc(MetricOTPInvalidCode)
		remaining := 0
		if record != nil {
			remaining = e.config.OTP.MaxAttempts - int(record.Attempts)
			if remaining < 0 {
				remaining = 0
			}
		}
		return &InvalidCodeError{AttemptsRemaining: remaining}
	default:
		return fmt.Errorf("%w: %v", ErrOTPUnavailable, err)
	}
}
