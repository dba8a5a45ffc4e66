package password

import (
	"errors"
	"fmt"
	"strings"
)

// Policy enforces the platform's password composition rules: a minimum
// length and at least one character from the configured special set.
// Passwords are checked as raw bytes, no Unicode normalization.
type Policy struct {
	minLength    int
	specialChars string
}

// NewPolicy builds a Policy. Non-positive minLength falls back to 8 and an
// empty special set falls back to "!@#$%^&*".
func NewPolicy(minLength int, specialChars string) *Policy {
	if minLength <= 0 {
		minLength = 8
	}
	if specialChars == "" {
		specialChars = "!@#$%^&*"
	}
	return &Policy{
		minLength:    minLength,
		specialChars: specialChars,
	}
}

// Check reports why a candidate password violates the policy, or nil.
func (p *Policy) Check(candidate string) error {
	if len(candidate) < p.minLength {
		return fmt.Errorf("password must be at least %d characters", p.minLength)
	}
	if !strings.ContainsAny(candidate, p.specialChars) {
		return errors.New("password must contain at least one special character")
	}
	return nil
}
