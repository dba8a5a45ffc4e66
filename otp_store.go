package authcore

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lernhub/authcore/internal"
)

const (
	otpRecordKeyPrefix   = "aoc"
	otpLatestKeyPrefix   = "aol"
	otpCooldownKeyPrefix = "aocd"
	otpRecordVersionV1   = 1
)

var (
	errOTPStoreNotFound         = errors.New("otp record not found")
	errOTPStoreExpired          = errors.New("otp record expired")
	errOTPStoreAttemptsExceeded = errors.New("otp record attempts exceeded")
	errOTPStoreCodeMismatch     = errors.New("otp code mismatch")
	errOTPStoreRedisUnavailable = errors.New("otp redis unavailable")
)

// otpChallengeRecord is the at-rest form of a single challenge. The code
// itself is never stored, only a per-challenge salted digest.
type otpChallengeRecord struct {
	Email      string
	Purpose    OTPPurpose
	Salt       [internal.OTPSaltSize]byte
	CodeHash   [32]byte
	ExpiresAt  int64
	LastSentAt int64
	Attempts   uint16
}

// otpChallengeStore is the Redis-backed OTP ledger. Record keys expire with
// the challenge, so garbage collection is the TTL itself; the latest-pointer
// key per (email, purpose) is what enforces at most one live challenge.
type otpChallengeStore struct {
	redis *redis.Client
}

func newOTPChallengeStore(redisClient *redis.Client) *otpChallengeStore {
	return &otpChallengeStore{redis: redisClient}
}

func (s *otpChallengeStore) recordKey(purpose OTPPurpose, otpID string) string {
	return otpRecordKeyPrefix + ":" + string(purpose) + ":" + otpID
}

func (s *otpChallengeStore) latestKey(purpose OTPPurpose, email string) string {
	return otpLatestKeyPrefix + ":" + string(purpose) + ":" + email
}

func (s *otpChallengeStore) cooldownKey(purpose OTPPurpose, email string) string {
	return otpCooldownKeyPrefix + ":" + string(purpose) + ":" + email
}

// CooldownRemaining reports how long until the next send is permitted for
// (email, purpose). Zero means no cooldown is active.
func (s *otpChallengeStore) CooldownRemaining(ctx context.Context, purpose OTPPurpose, email string) (time.Duration, error) {
	d, err := s.redis.PTTL(ctx, s.cooldownKey(purpose, email)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errOTPStoreRedisUnavailable, err)
	}
	if d <= 0 {
		return 0, nil
	}
	return d, nil
}

// Create persists a new challenge, superseding any prior live challenge for
// the same (email, purpose) and arming the resend cooldown.
//
// The supersede is read-then-delete, not transactional: two concurrent
// creates can both pass and both write, but the latest-pointer overwrite
// means only one challenge stays resolvable, which fails safe.
func (s *otpChallengeStore) Create(
	ctx context.Context,
	otpID string,
	record *otpChallengeRecord,
	ttl, cooldown time.Duration,
) error {
	encoded, err := encodeOTPChallengeRecord(record)
	if err != nil {
		return err
	}

	latest := s.latestKey(record.Purpose, record.Email)

	prior, err := s.redis.Get(ctx, latest).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", errOTPStoreRedisUnavailable, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if prior != "" {
			pipe.Del(ctx, s.recordKey(record.Purpose, prior))
		}
		pipe.Set(ctx, s.recordKey(record.Purpose, otpID), encoded, ttl)
		pipe.Set(ctx, latest, otpID, ttl)
		pipe.Set(ctx, s.cooldownKey(record.Purpose, record.Email), "1", cooldown)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errOTPStoreRedisUnavailable, err)
	}

	return nil
}

// Peek fetches a challenge and applies the validity checks that precede any
// code comparison: missing or wrong-purpose records report not-found, then
// expiry, then the attempt cap. The record is never mutated.
func (s *otpChallengeStore) Peek(
	ctx context.Context,
	purpose OTPPurpose,
	otpID string,
	maxAttempts int,
) (*otpChallengeRecord, error) {
	data, err := s.redis.Get(ctx, s.recordKey(purpose, otpID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errOTPStoreNotFound
		}
		return nil, fmt.Errorf("%w: %v", errOTPStoreRedisUnavailable, err)
	}

	record, err := decodeOTPChallengeRecord(data)
	if err != nil {
		return nil, err
	}
	if record.Purpose != purpose {
		return nil, errOTPStoreNotFound
	}
	if time.Now().Unix() >= record.ExpiresAt {
		return nil, errOTPStoreExpired
	}
	if int(record.Attempts) >= maxAttempts {
		return nil, errOTPStoreAttemptsExceeded
	}

	return record, nil
}

// Verify runs the full code check against a stored challenge.
//
// Check order: not-found, expired, attempts exceeded, then code comparison.
// A maxed-out challenge rejects without incrementing further. On mismatch
// the attempt counter is persisted and the updated record returned alongside
// errOTPStoreCodeMismatch. On match with consume=true the record is deleted,
// making replays observably not-found; with consume=false nothing is
// written, leaving the challenge live for a later consuming call.
func (s *otpChallengeStore) Verify(
	ctx context.Context,
	purpose OTPPurpose,
	otpID string,
	code string,
	maxAttempts int,
	consume bool,
) (*otpChallengeRecord, error) {
	const maxRetries = 4
	key := s.recordKey(purpose, otpID)

	for i := 0; i < maxRetries; i++ {
		var matched *otpChallengeRecord
		var mismatched *otpChallengeRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeOTPChallengeRecord(data)
			if err != nil {
				return err
			}
			if record.Purpose != purpose {
				return errOTPStoreNotFound
			}

			now := time.Now()
			if now.Unix() >= record.ExpiresAt {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return errOTPStoreExpired
			}

			if int(record.Attempts) >= maxAttempts {
				return errOTPStoreAttemptsExceeded
			}

			providedHash := internal.HashOTPCode(record.Salt, code)
			if subtle.ConstantTimeCompare(record.CodeHash[:], providedHash[:]) != 1 {
				record.Attempts++

				ttl := time.Until(time.Unix(record.ExpiresAt, 0))
				if ttl <= 0 {
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					if err != nil {
						return err
					}
					return errOTPStoreExpired
				}

				updated, err := encodeOTPChallengeRecord(record)
				if err != nil {
					return err
				}

				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				})
				if err != nil {
					return err
				}

				mismatched = record
				return errOTPStoreCodeMismatch
			}

			if consume {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
			}

			matched = record
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return nil, errOTPStoreNotFound
			case errors.Is(err, errOTPStoreNotFound),
				errors.Is(err, errOTPStoreExpired),
				errors.Is(err, errOTPStoreAttemptsExceeded):
				return nil, err
			case errors.Is(err, errOTPStoreCodeMismatch):
				return mismatched, err
			default:
				return nil, fmt.Errorf("%w: %v", errOTPStoreRedisUnavailable, err)
			}
		}

		return matched, nil
	}

	return nil, errOTPStoreNotFound
}

func encodeOTPChallengeRecord(record *otpChallengeRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(otpRecordVersionV1)

	purposeByte, ok := otpPurposeToByte(record.Purpose)
	if !ok {
		return nil, errors.New("invalid otp record purpose")
	}
	buf.WriteByte(purposeByte)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.LastSentAt); err != nil {
		return nil, err
	}

	if len(record.Email) > 65535 {
		return nil, errors.New("otp record email too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.Email))); err != nil {
		return nil, err
	}
	buf.WriteString(record.Email)
	buf.Write(record.Salt[:])
	buf.Write(record.CodeHash[:])

	return buf.Bytes(), nil
}

func decodeOTPChallengeRecord(data []byte) (*otpChallengeRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != otpRecordVersionV1 {
		return nil, errors.New("invalid otp record version")
	}

	purposeByte, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	purpose, ok := otpPurposeFromByte(purposeByte)
	if !ok {
		return nil, errors.New("invalid otp record purpose")
	}

	record := &otpChallengeRecord{Purpose: purpose}

	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.LastSentAt); err != nil {
		return nil, err
	}

	var emailLen uint16
	if err := binary.Read(reader, binary.BigEndian, &emailLen); err != nil {
		return nil, err
	}

	email := make([]byte, emailLen)
	if _, err := io.ReadFull(reader, email); err != nil {
		return nil, err
	}
	record.Email = string(email)

	if _, err := io.ReadFull(reader, record.Salt[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}

func otpPurposeToByte(p OTPPurpose) (byte, bool) {
	switch p {
	case PurposeLoginMFA:
		return 1, true
	case PurposeRegister:
		return 2, true
	case PurposeResetPassword:
		return 3, true
	default:
		return 0, false
	}
}

func otpPurposeFromByte(b byte) (OTPPurpose, bool) {
	switch b {
	case 1:
		return PurposeLoginMFA, true
	case 2:
		return PurposeRegister, true
	case 3:
		return PurposeResetPassword, true
	default:
		return "", false
	}
}
