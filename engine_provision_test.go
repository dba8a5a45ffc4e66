package authcore

import (
	"context"
	"errors"
	"testing"
)

func validProvisionInput() ProvisionInstructorInput {
	return ProvisionInstructorInput{
		Email:        "teach@example.com",
		Username:     "teach",
		TempPassword: "temp-password-1!",
		FirstName:    "Tina",
		LastName:     "Howell",
	}
}

func TestProvisionInstructor(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := WithActor(context.Background(), Actor{ID: "admin-1", Name: "root", Role: RoleAdmin})
	up := &mockUserProvider{}
	engine := newTestEngine(t, rdb, up, NoOpNotifier{})

	user, err := engine.ProvisionInstructor(ctx, validProvisionInput())
	if err != nil {
		t.Fatalf("ProvisionInstructor failed: %v", err)
	}
	if user.Role != RoleInstructor {
		t.Fatalf("expected role %q, got %q", RoleInstructor, user.Role)
	}
	if !user.Active {
		t.Fatal("provisioned account must be active")
	}
	if !user.MustChangePassword {
		t.Fatal("provisioned account must require a password change")
	}

	created := up.users[user.UserID]
	ok, err := engine.passwordHash.Verify("temp-password-1!", created.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("temp password does not verify, ok=%v err=%v", ok, err)
	}
	if engine.metrics.Value(MetricInstructorProvisioned) != 1 {
		t.Fatal("expected provisioned metric")
	}

	// the flag clears on the first password change
	if err := engine.ChangePassword(context.Background(), user.UserID, "temp-password-1!", "chosen-pass-2!"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}
	if up.users[user.UserID].MustChangePassword {
		t.Fatal("expected flag cleared after password change")
	}
}

func TestProvisionInstructorDuplicate(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	up := &mockUserProvider{}
	engine := newTestEngine(t, rdb, up, NoOpNotifier{})

	up.putUser(UserRecord{UserID: "u1", Email: "teach@example.com", Username: "other", Active: true})

	if _, err := engine.ProvisionInstructor(context.Background(), validProvisionInput()); !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Fatalf("expected ErrEmailAlreadyRegistered, got %v", err)
	}
}

func TestProvisionInstructorUsernameTaken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	up := &mockUserProvider{}
	engine := newTestEngine(t, rdb, up, NoOpNotifier{})

	up.putUser(UserRecord{UserID: "u1", Email: "other@example.com", Username: "teach", Active: true})

	if _, err := engine.ProvisionInstructor(context.Background(), validProvisionInput()); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestProvisionInstructorValidation(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, &mockUserProvider{}, NoOpNotifier{})
	ctx := context.Background()

	bad := validProvisionInput()
	bad.Email = "not-an-email"
	if _, err := engine.ProvisionInstructor(ctx, bad); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	bad = validProvisionInput()
	bad.TempPassword = "weak"
	if _, err := engine.ProvisionInstructor(ctx, bad); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy for weak temp password, got %v", err)
	}
}
