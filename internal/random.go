package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"strconv"
)

const (
	// OTPSaltSize is the number of random bytes mixed into each code hash.
	OTPSaltSize = 16

	otpCodeMin  = 100000
	otpCodeSpan = 900000
)

// NewOTPCode returns a 6-digit numeric code drawn uniformly from
// 100000-999999.
func NewOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpCodeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(otpCodeMin+n.Int64(), 10), nil
}

// NewOTPSalt returns fresh random salt bytes for a single challenge.
func NewOTPSalt() ([OTPSaltSize]byte, error) {
	var salt [OTPSaltSize]byte
	_, err := rand.Read(salt[:])
	return salt, err
}

// HashOTPCode computes the salted digest stored in place of the plaintext
// code. The same function is used at issuance and verification.
func HashOTPCode(salt [OTPSaltSize]byte, code string) [32]byte {
	h := sha256.New()
	h.Write(salt[:])
	h.Write([]byte(code))

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
