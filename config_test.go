package authcore

import (
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig should validate: %v", err)
	}

	if cfg.OTP.Expiry != 10*time.Minute {
		t.Fatalf("unexpected OTP expiry %v", cfg.OTP.Expiry)
	}
	if cfg.OTP.MaxAttempts != 3 {
		t.Fatalf("unexpected max attempts %d", cfg.OTP.MaxAttempts)
	}
	if cfg.MFA.ReverifyInterval != 15*24*time.Hour {
		t.Fatalf("unexpected reverify interval %v", cfg.MFA.ReverifyInterval)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"zero otp expiry", func(cfg *Config) { cfg.OTP.Expiry = 0 }},
		{"otp expiry above 1h", func(cfg *Config) { cfg.OTP.Expiry = 2 * time.Hour }},
		{"otp expiry below cooldown", func(cfg *Config) { cfg.OTP.Expiry = 30 * time.Second }},
		{"zero max attempts", func(cfg *Config) { cfg.OTP.MaxAttempts = 0 }},
		{"max attempts above 5", func(cfg *Config) { cfg.OTP.MaxAttempts = 6 }},
		{"zero reverify interval", func(cfg *Config) { cfg.MFA.ReverifyInterval = 0 }},
		{"argon memory too low", func(cfg *Config) { cfg.Password.Memory = 1024 }},
		{"salt too short", func(cfg *Config) { cfg.Password.SaltLength = 8 }},
		{"key too short", func(cfg *Config) { cfg.Password.KeyLength = 8 }},
		{"min length below 8", func(cfg *Config) { cfg.Password.MinLength = 6 }},
		{"empty special chars", func(cfg *Config) { cfg.Password.SpecialChars = "" }},
		{"bad tls mode", func(cfg *Config) {
			cfg.SMTP.Host = "mail.example.com"
			cfg.SMTP.Port = 587
			cfg.SMTP.From = "noreply@example.com"
			cfg.SMTP.TLSMode = "plaintext"
		}},
		{"smtp host without from", func(cfg *Config) {
			cfg.SMTP.Host = "mail.example.com"
			cfg.SMTP.Port = 587
		}},
		{"smtp bad port", func(cfg *Config) {
			cfg.SMTP.Host = "mail.example.com"
			cfg.SMTP.Port = 70000
			cfg.SMTP.From = "noreply@example.com"
		}},
		{"audit enabled zero buffer", func(cfg *Config) {
			cfg.Audit.Enabled = true
			cfg.Audit.BufferSize = 0
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTP_EXPIRY_MINUTES", "5")
	t.Setenv("OTP_MAX_ATTEMPTS", "4")
	t.Setenv("MFA_REVERIFY_DAYS", "30")
	t.Setenv("SMTP_HOST", "mail.example.com")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SMTP_FROM", "noreply@example.com")
	t.Setenv("SMTP_USERNAME", "mailer")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("SMTP_TLS_MODE", "ssl")

	cfg := ConfigFromEnv()

	if cfg.OTP.Expiry != 5*time.Minute {
		t.Fatalf("unexpected expiry %v", cfg.OTP.Expiry)
	}
	if cfg.OTP.MaxAttempts != 4 {
		t.Fatalf("unexpected max attempts %d", cfg.OTP.MaxAttempts)
	}
	if cfg.MFA.ReverifyInterval != 30*24*time.Hour {
		t.Fatalf("unexpected reverify interval %v", cfg.MFA.ReverifyInterval)
	}
	if cfg.SMTP.Host != "mail.example.com" || cfg.SMTP.Port != 465 || cfg.SMTP.TLSMode != "ssl" {
		t.Fatalf("unexpected SMTP config %+v", cfg.SMTP)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("env config should validate: %v", err)
	}
}

func TestConfigFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("OTP_EXPIRY_MINUTES", "not-a-number")
	t.Setenv("OTP_MAX_ATTEMPTS", "-3")

	cfg := ConfigFromEnv()

	if cfg.OTP.Expiry != 10*time.Minute {
		t.Fatalf("expected default expiry, got %v", cfg.OTP.Expiry)
	}
	if cfg.OTP.MaxAttempts != 3 {
		t.Fatalf("expected default max attempts, got %d", cfg.OTP.MaxAttempts)
	}
}
