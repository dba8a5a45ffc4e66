package password

import (
	"errors"
	"strings"
	"testing"
)

func testHasher(t *testing.T, cfg Config) *Argon2 {
	t.Helper()
	h, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	return h
}

func baseConfig() Config {
	return Config{Memory: 65536, Time: 3, Parallelism: 2, SaltLength: 16, KeyLength: 32}
}

func TestHashVerifyRoundtrip(t *testing.T) {
	h := testHasher(t, baseConfig())

	encoded, err := h.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=65536,t=3,p=2$") {
		t.Fatalf("unexpected PHC prefix: %s", encoded)
	}

	ok, err := h.Verify("P@ssw0rd-Ascii", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password did not verify")
	}

	ok, err = h.Verify("p@ssw0rd-ascii", encoded)
	if err != nil {
		t.Fatalf("Verify wrong: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestHashSaltsAreUnique(t *testing.T) {
	h := testHasher(t, baseConfig())

	a, err := h.Hash("same-plaintext")
	if err != nil {
		t.Fatalf("Hash a: %v", err)
	}
	b, err := h.Hash("same-plaintext")
	if err != nil {
		t.Fatalf("Hash b: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same plaintext were identical")
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	weak := []Config{
		{Memory: 1024, Time: 3, Parallelism: 2, SaltLength: 16, KeyLength: 32},
		{Memory: 65536, Time: 0, Parallelism: 2, SaltLength: 16, KeyLength: 32},
		{Memory: 65536, Time: 3, Parallelism: 0, SaltLength: 16, KeyLength: 32},
		{Memory: 65536, Time: 3, Parallelism: 2, SaltLength: 8, KeyLength: 32},
		{Memory: 65536, Time: 3, Parallelism: 2, SaltLength: 16, KeyLength: 8},
	}
	for i, cfg := range weak {
		if _, err := NewArgon2(cfg); err == nil {
			t.Errorf("config %d: weak parameters accepted", i)
		}
	}
}

func TestHashLengthBounds(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxPasswordBytes = 64
	h := testHasher(t, cfg)

	if _, err := h.Hash("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("short plaintext: got %v, want ErrPasswordTooShort", err)
	}
	if _, err := h.Hash(strings.Repeat("a", 65)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("65-byte plaintext: got %v, want ErrPasswordTooLong", err)
	}

	atCap := strings.Repeat("b", 64)
	encoded, err := h.Hash(atCap)
	if err != nil {
		t.Fatalf("plaintext at cap rejected: %v", err)
	}
	if ok, err := h.Verify(atCap, encoded); err != nil || !ok {
		t.Fatalf("Verify at cap: ok=%v err=%v", ok, err)
	}
	if _, err := h.Verify(strings.Repeat("c", 65), encoded); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("Verify over cap: got %v, want ErrPasswordTooLong", err)
	}
}

func TestDefaultLengthCap(t *testing.T) {
	h := testHasher(t, baseConfig()) // MaxPasswordBytes zero

	if _, err := h.Hash(strings.Repeat("d", DefaultMaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("over default cap: got %v, want ErrPasswordTooLong", err)
	}
	if _, err := h.Hash(strings.Repeat("e", DefaultMaxPasswordBytes)); err != nil {
		t.Fatalf("at default cap: %v", err)
	}
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	h := testHasher(t, baseConfig())

	good, err := h.Hash("well-formed-input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	cases := map[string]string{
		"not phc":           "plainly-not-a-hash",
		"wrong algorithm":   strings.Replace(good, "argon2id", "argon2i", 1),
		"missing fields":    "$argon2id$v=19$m=65536,t=3,p=2",
		"garbage params":    strings.Replace(good, "m=65536,t=3,p=2", "m=what", 1),
		"weak stored m":     strings.Replace(good, "m=65536", "m=512", 1),
		"bad salt encoding": strings.Replace(good, "$m=65536,t=3,p=2$", "$m=65536,t=3,p=2$!!!$", 1),
	}
	for name, mangled := range cases {
		if _, err := h.Verify("well-formed-input", mangled); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("%s: got %v, want ErrInvalidHash", name, err)
		}
	}

	stale := strings.Replace(good, "$v=19$", "$v=18$", 1)
	if _, err := h.Verify("well-formed-input", stale); !errors.Is(err, ErrIncompatibleVersion) {
		t.Errorf("old version: got %v, want ErrIncompatibleVersion", err)
	}
}

func TestNeedsUpgrade(t *testing.T) {
	old := testHasher(t, Config{Memory: 32768, Time: 2, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	current := testHasher(t, baseConfig())

	legacy, err := old.Hash("migrating-user-pw")
	if err != nil {
		t.Fatalf("Hash legacy: %v", err)
	}
	fresh, err := current.Hash("migrating-user-pw")
	if err != nil {
		t.Fatalf("Hash fresh: %v", err)
	}

	if up, err := current.NeedsUpgrade(legacy); err != nil || !up {
		t.Fatalf("legacy hash: up=%v err=%v, want upgrade", up, err)
	}
	if up, err := current.NeedsUpgrade(fresh); err != nil || up {
		t.Fatalf("fresh hash: up=%v err=%v, want no upgrade", up, err)
	}
	if _, err := current.NeedsUpgrade("mangled"); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("mangled hash: got %v, want ErrInvalidHash", err)
	}
}
