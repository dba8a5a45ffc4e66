package authcore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/lernhub/authcore/password"
)

type mockUserProvider struct {
	users      map[string]UserRecord
	byEmail    map[string]string
	byUsername map[string]string
	updateErr  error
	createErr  error
	mfaErr     error
	mu         sync.Mutex

	getByIdentifierCalls int
	getByEmailCalls      int
	getByIDCalls         int
	createCalls          int
	updatePasswordCalls  int
	updateMFACalls       int
}

func (m *mockUserProvider) GetUserByIdentifier(identifier string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByIdentifierCalls++

	if userID, ok := m.byEmail[identifier]; ok {
		return m.users[userID], nil
	}
	if userID, ok := m.byUsername[identifier]; ok {
		return m.users[userID], nil
	}
	return UserRecord{}, errors.New("not found")
}

func (m *mockUserProvider) GetUserByEmail(email string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByEmailCalls++

	userID, ok := m.byEmail[email]
	if !ok {
		return UserRecord{}, errors.New("not found")
	}
	return m.users[userID], nil
}

func (m *mockUserProvider) GetUserByID(userID string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getByIDCalls++

	user, ok := m.users[userID]
	if !ok {
		return UserRecord{}, errors.New("not found")
	}
	return user, nil
}

func (m *mockUserProvider) CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++

	if m.createErr != nil {
		return UserRecord{}, m.createErr
	}

	if m.users == nil {
		m.users = make(map[string]UserRecord)
	}
	if m.byEmail == nil {
		m.byEmail = make(map[string]string)
	}
	if m.byUsername == nil {
		m.byUsername = make(map[string]string)
	}

	if _, exists := m.byEmail[input.Email]; exists {
		return UserRecord{}, ErrProviderDuplicate
	}
	if _, exists := m.byUsername[input.Username]; exists {
		return UserRecord{}, ErrProviderDuplicate
	}

	userID := fmt.Sprintf("u%d", len(m.users)+1)
	user := UserRecord{
		UserID:             userID,
		Email:              input.Email,
		Username:           input.Username,
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		DateOfBirth:        input.DateOfBirth,
		Gender:             input.Gender,
		Phone:              input.Phone,
		PasswordHash:       input.PasswordHash,
		Role:               input.Role,
		Active:             input.Active,
		MustChangePassword: input.MustChangePassword,
	}

	m.users[userID] = user
	m.byEmail[input.Email] = userID
	m.byUsername[input.Username] = userID
	return user, nil
}

func (m *mockUserProvider) UpdatePasswordHash(userID string, newHash string, clearMustChangePassword bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updatePasswordCalls++

	if m.updateErr != nil {
		return m.updateErr
	}

	user, ok := m.users[userID]
	if !ok {
		return errors.New("not found")
	}

	user.PasswordHash = newHash
	if clearMustChangePassword {
		user.MustChangePassword = false
	}
	m.users[userID] = user
	return nil
}

func (m *mockUserProvider) UpdateMFAVerifiedAt(ctx context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateMFACalls++

	if m.mfaErr != nil {
		return m.mfaErr
	}

	user, ok := m.users[userID]
	if !ok {
		return errors.New("not found")
	}

	t := at
	user.MFALastVerifiedAt = &t
	m.users[userID] = user
	return nil
}

func (m *mockUserProvider) putUser(user UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.users == nil {
		m.users = make(map[string]UserRecord)
	}
	if m.byEmail == nil {
		m.byEmail = make(map[string]string)
	}
	if m.byUsername == nil {
		m.byUsername = make(map[string]string)
	}

	m.users[user.UserID] = user
	m.byEmail[user.Email] = user.UserID
	m.byUsername[user.Username] = user.UserID
}

type sentMessage struct {
	To      string
	Subject string
	Body    string
}

// recordingNotifier captures every Send for inspection and can be forced to
// fail.
type recordingNotifier struct {
	mu      sync.Mutex
	sends   []sentMessage
	sendErr error
}

func (n *recordingNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.sendErr != nil {
		return n.sendErr
	}
	n.sends = append(n.sends, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sends)
}

var otpCodePattern = regexp.MustCompile(`\b\d{6}\b`)

// lastCode extracts the 6-digit code from the most recent message body.
func (n *recordingNotifier) lastCode(t *testing.T) string {
	t.Helper()

	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.sends) == 0 {
		t.Fatal("no messages sent")
	}
	code := otpCodePattern.FindString(n.sends[len(n.sends)-1].Body)
	if code == "" {
		t.Fatalf("no code in message body: %q", n.sends[len(n.sends)-1].Body)
	}
	return code
}

func newTestHasher(t *testing.T) *password.Argon2 {
	t.Helper()

	h, err := password.NewArgon2(password.Config{
		Memory:      65536,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return h
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func newTestEngine(t *testing.T, rdb *redis.Client, up UserProvider, notifier Notifier) *Engine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Metrics.Enabled = true

	return &Engine{
		config:       cfg,
		otpStore:     newOTPChallengeStore(rdb),
		metrics:      NewMetrics(cfg.Metrics),
		passwordHash: newTestHasher(t),
		policy:       password.NewPolicy(cfg.Password.MinLength, cfg.Password.SpecialChars),
		userProvider: up,
		notifier:     notifier,
	}
}

func TestEngineNotReady(t *testing.T) {
	e := &Engine{}

	if _, err := e.Login(context.Background(), "alice", "secret-pass!"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.HashPassword("secret-pass!"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestEngineHashPassword(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, &mockUserProvider{}, NoOpNotifier{})

	hash, err := engine.HashPassword("correct-horse!")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	ok, err := engine.passwordHash.Verify("correct-horse!", hash)
	if err != nil || !ok {
		t.Fatalf("hash does not verify, ok=%v err=%v", ok, err)
	}
}
