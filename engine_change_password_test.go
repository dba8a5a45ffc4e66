package authcore

import (
	"context"
	"errors"
	"testing"
)

func seedChangeUser(t *testing.T, engine *Engine, up *mockUserProvider, mustChange bool) string {
	t.Helper()

	hash, err := engine.passwordHash.Hash("old-password-1!")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	up.putUser(UserRecord{
		UserID:             "u1",
		Email:              "alice@example.com",
		Username:           "alice",
		PasswordHash:       hash,
		Role:               RoleUser,
		Active:             true,
		MustChangePassword: mustChange,
	})
	return hash
}

func TestChangePasswordSuccess(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	up := &mockUserProvider{}
	engine := newTestEngine(t, rdb, up, NoOpNotifier{})

	oldHash := seedChangeUser(t, engine, up, true)

	if err := engine.ChangePassword(ctx, "u1", "old-password-1!", "new-password-9!"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	updated := up.users["u1"]
	if updated.PasswordHash == oldHash {
		t.Fatal("expected password hash to change")
	}
	ok, err := engine.passwordHash.Verify("new-password-9!", updated.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("new hash verify failed, ok=%v err=%v", ok, err)
	}
	if updated.MustChangePassword {
		t.Fatal("change must clear the must-change-password flag")
	}
	if engine.metrics.Value(MetricPasswordChangeSuccess) != 1 {
		t.Fatal("expected change success metric")
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	up := &mockUserProvider{}
	engine := newTestEngine(t, rdb, up, NoOpNotifier{})

	seedChangeUser(t, engine, up, false)

	err := engine.ChangePassword(context.Background(), "u1", "wrong-password!", "new-password-9!")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if engine.metrics.Value(MetricPasswordChangeInvalidCurrent) != 1 {
		t.Fatal("expected invalid current metric")
	}
	if up.updatePasswordCalls != 0 {
		t.Fatal("password must not change")
	}
}

func TestChangePasswordUnknownUser(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, &mockUserProvider{}, NoOpNotifier{})

	if err := engine.ChangePassword(context.Background(), "ghost", "old-password-1!", "new-password-9!"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestChangePasswordDisabledAccount(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	up := &mockUserProvider{}
	engine := newTestEngine(t, rdb, up, NoOpNotifier{})

	seedChangeUser(t, engine, up, false)
	user := up.users["u1"]
	user.Active = false
	up.putUser(user)

	if err := engine.ChangePassword(context.Background(), "u1", "old-password-1!", "new-password-9!"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestChangePasswordPolicyRejected(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	up := &mockUserProvider{}
	engine := newTestEngine(t, rdb, up, NoOpNotifier{})

	seedChangeUser(t, engine, up, false)

	if err := engine.ChangePassword(context.Background(), "u1", "old-password-1!", "weak"); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}
	if engine.metrics.Value(MetricPasswordPolicyRejected) != 1 {
		t.Fatal("expected policy rejected metric")
	}
	if up.updatePasswordCalls != 0 {
		t.Fatal("password must not change")
	}
}

func TestChangePasswordMissingInput(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, &mockUserProvider{}, NoOpNotifier{})

	if err := engine.ChangePassword(context.Background(), "", "a-password-1!", "b-password-1!"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := engine.ChangePassword(context.Background(), "u1", "", "b-password-1!"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
