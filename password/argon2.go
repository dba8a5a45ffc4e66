package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidHash reports a stored hash that is not a well-formed
	// argon2id PHC string.
	ErrInvalidHash = errors.New("password: invalid argon2id hash")
	// ErrIncompatibleVersion reports a stored hash produced by an argon2
	// version this build cannot verify.
	ErrIncompatibleVersion = errors.New("password: incompatible argon2 version")
	// ErrPasswordTooShort reports plaintext below the minimum byte length.
	ErrPasswordTooShort = errors.New("password: plaintext shorter than 8 bytes")
	// ErrPasswordTooLong reports plaintext above the configured byte cap.
	ErrPasswordTooLong = errors.New("password: plaintext exceeds length cap")
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	minPlainBytes         = 8
	phcPrefix             = "$argon2id$"
)

// DefaultMaxPasswordBytes caps hashing input when Config.MaxPasswordBytes
// is left zero. Unbounded input would let a caller burn Argon2 work on
// megabyte passwords.
const DefaultMaxPasswordBytes = 1024

// Config defines a public type used by authcore APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// MaxPasswordBytes bounds accepted plaintext length. Zero applies
	// DefaultMaxPasswordBytes.
	MaxPasswordBytes int
}

// Argon2 hashes and verifies passwords as argon2id PHC strings. A single
// instance is safe for concurrent use.
type Argon2 struct {
	config Config
}

// NewArgon2 describes the newargon2 operation and its observable behavior.
//
// NewArgon2 may return an error when input validation, dependency calls, or security checks fail.
// NewArgon2 does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewArgon2(cfg Config) (*Argon2, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, errors.New("password memory must be >= 8192 KB")
	case cfg.Time < 1:
		return nil, errors.New("password time must be >= 1")
	case cfg.Parallelism < 1:
		return nil, errors.New("password parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return nil, errors.New("password salt length must be >= 16")
	case cfg.KeyLength < minKeyLength:
		return nil, errors.New("password key length must be >= 16")
	}
	if cfg.MaxPasswordBytes <= 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}
	return &Argon2{config: cfg}, nil
}

// Hash derives an argon2id digest from plain and returns it in PHC string
// form, embedding the parameters and a fresh random salt.
func (a *Argon2) Hash(plain string) (string, error) {
	// Raw string bytes exactly as provided, no Unicode normalization.
	if len(plain) < minPlainBytes {
		return "", ErrPasswordTooShort
	}
	if len(plain) > a.config.MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(plain), salt,
		a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	var b strings.Builder
	fmt.Fprintf(&b, "%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		phcPrefix, argon2.Version,
		a.config.Memory, a.config.Time, a.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
	return b.String(), nil
}

// Verify reports whether plain matches the stored PHC hash. The comparison
// runs in constant time over the derived keys.
func (a *Argon2) Verify(plain string, encoded string) (bool, error) {
	if len(plain) > a.config.MaxPasswordBytes {
		return false, ErrPasswordTooLong
	}

	params, salt, key, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(plain), salt,
		params.time, params.memory, params.parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// NeedsUpgrade reports whether encoded was produced with weaker parameters
// than the instance is configured with, so callers can rehash on the next
// successful verify.
func (a *Argon2) NeedsUpgrade(encoded string) (bool, error) {
	params, _, key, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}
	if a.config.Memory > params.memory || a.config.Time > params.time {
		return true, nil
	}
	if a.config.Parallelism > params.parallelism {
		return true, nil
	}
	return a.config.KeyLength != uint32(len(key)), nil
}

type phcParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
}

func decodePHC(encoded string) (phcParams, []byte, []byte, error) {
	var params phcParams

	rest, ok := strings.CutPrefix(encoded, phcPrefix)
	if !ok {
		return params, nil, nil, ErrInvalidHash
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 4 {
		return params, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil {
		return params, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return params, nil, nil, ErrIncompatibleVersion
	}

	var parallelism uint
	if _, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d",
		&params.memory, &params.time, &parallelism); err != nil {
		return params, nil, nil, ErrInvalidHash
	}
	if params.memory < minMemoryKB || params.time < 1 || parallelism < 1 || parallelism > 255 {
		return params, nil, nil, ErrInvalidHash
	}
	params.parallelism = uint8(parallelism)

	salt, err := base64.RawStdEncoding.DecodeString(fields[2])
	if err != nil || len(salt) < int(minSaltLength) {
		return params, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(fields[3])
	if err != nil || len(key) == 0 {
		return params, nil, nil, ErrInvalidHash
	}
	return params, salt, key, nil
}
