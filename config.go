package authcore

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// resend cooldown is deliberately a fixed constant, not configuration:
// every purpose shares the same 60-second window between sends.
const otpResendCooldown = 60 * time.Second

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	OTP      OTPConfig
	MFA      MFAConfig
	Password PasswordConfig
	SMTP     SMTPConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig defines a public type used by authcore APIs.
//
// OTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OTPConfig struct {
	Expiry      time.Duration
	MaxAttempts int
}

/*
====================================
MFA CONFIG
====================================
*/

// MFAConfig defines a public type used by authcore APIs.
//
// MFAConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MFAConfig struct {
	ReverifyInterval time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by authcore APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool

	MinLength    int
	SpecialChars string
}

/*
====================================
SMTP CONFIG
====================================
*/

// SMTPConfig defines a public type used by authcore APIs.
//
// SMTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
	TLSMode  string // "auto" (default), "starttls", "ssl", "none"
}

// AuditConfig defines a public type used by authcore APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by authcore APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration: 10-minute OTP expiry,
// 3 verification attempts, a 15-day MFA re-verification interval, and the
// standard Argon2id cost parameters.
func DefaultConfig() Config {
	return Config{
		OTP: OTPConfig{
			Expiry:      10 * time.Minute,
			MaxAttempts: 3,
		},
		MFA: MFAConfig{
			ReverifyInterval: 15 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
			MinLength:      8,
			SpecialChars:   "!@#$%^&*",
		},
		SMTP: SMTPConfig{
			TLSMode: "auto",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// ConfigFromEnv loads DefaultConfig overridden by environment variables.
// A .env file in the working directory is honored when present.
//
// Recognized variables: OTP_EXPIRY_MINUTES, OTP_MAX_ATTEMPTS,
// MFA_REVERIFY_DAYS, SMTP_HOST, SMTP_PORT, SMTP_FROM, SMTP_USERNAME,
// SMTP_PASSWORD, SMTP_TLS_MODE.
func ConfigFromEnv() Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if v, err := strconv.Atoi(os.Getenv("OTP_EXPIRY_MINUTES")); err == nil && v > 0 {
		cfg.OTP.Expiry = time.Duration(v) * time.Minute
	}
	if v, err := strconv.Atoi(os.Getenv("OTP_MAX_ATTEMPTS")); err == nil && v > 0 {
		cfg.OTP.MaxAttempts = v
	}
	if v, err := strconv.Atoi(os.Getenv("MFA_REVERIFY_DAYS")); err == nil && v > 0 {
		cfg.MFA.ReverifyInterval = time.Duration(v) * 24 * time.Hour
	}

	cfg.SMTP.Host = os.Getenv("SMTP_HOST")
	if v, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && v > 0 {
		cfg.SMTP.Port = v
	}
	cfg.SMTP.From = os.Getenv("SMTP_FROM")
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	if v := os.Getenv("SMTP_TLS_MODE"); v != "" {
		cfg.SMTP.TLSMode = v
	}

	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// OTP
	if c.OTP.Expiry <= 0 {
		return errors.New("OTP Expiry must be > 0")
	}
	if c.OTP.Expiry > time.Hour {
		return errors.New("OTP Expiry must be <= 1h")
	}
	if c.OTP.Expiry <= otpResendCooldown {
		return errors.New("OTP Expiry must exceed the resend cooldown")
	}
	if c.OTP.MaxAttempts <= 0 {
		return errors.New("OTP MaxAttempts must be > 0")
	}
	if c.OTP.MaxAttempts > 5 {
		return errors.New("OTP MaxAttempts must be <= 5")
	}

	// MFA
	if c.MFA.ReverifyInterval <= 0 {
		return errors.New("MFA ReverifyInterval must be > 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 8 {
		return errors.New("Password MinLength must be >= 8")
	}
	if c.Password.SpecialChars == "" {
		return errors.New("Password SpecialChars must not be empty")
	}

	// SMTP mode only matters when a host is set; the engine itself is
	// notifier-agnostic and never dials SMTP directly.
	if c.SMTP.Host != "" {
		switch c.SMTP.TLSMode {
		case "", "auto", "starttls", "ssl", "none":
			// valid
		default:
			return errors.New("SMTP TLSMode must be auto, starttls, ssl, or none")
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			return errors.New("SMTP Port must be between 1 and 65535")
		}
		if c.SMTP.From == "" {
			return errors.New("SMTP From is required when SMTP Host is set")
		}
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
