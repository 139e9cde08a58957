package authengine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adminkit/authengine/password"
)

func TestCreateAccountDuplicate(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newTestEngine(t, rdb, newMockStore(), newTestConfig())

	if _, err := engine.CreateAccount(ctx, CreateAccountInput{
		Email:    "bob@example.com",
		Password: "Str0ng-Pass!",
	}); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	_, err := engine.CreateAccount(ctx, CreateAccountInput{
		Email:    "bob@example.com",
		Password: "An0ther-Pass-9!",
	})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestCreateAccountRejectsWeakPassword(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newMockStore()
	engine := newTestEngine(t, rdb, store, newTestConfig())

	_, err := engine.CreateAccount(context.Background(), CreateAccountInput{
		Email:    "bob@example.com",
		Password: "weak",
	})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	var policyErr *password.PolicyError
	if !errors.As(err, &policyErr) || len(policyErr.Violations) == 0 {
		t.Fatalf("expected violations to be reported, got %v", err)
	}
}

func TestCreateAccountPreVerified(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newTestEngine(t, rdb, newMockStore(), newTestConfig())

	res, err := engine.CreateAccount(ctx, CreateAccountInput{
		Email:       "bob@example.com",
		Password:    "Str0ng-Pass!",
		PreVerified: true,
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if res.VerificationCode != "" {
		t.Fatal("pre-verified account should not get a verification code")
	}
	if login, err := engine.Login(ctx, "bob@example.com", "Str0ng-Pass!"); err != nil || login.State != LoginStateOK {
		t.Fatalf("expected immediate login, got %v", err)
	}
}

func TestDisableAccountRevokesSessions(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockStore()
	seedUser(t, store, "u1", "alice@example.com", "Str0ng-Pass!")
	engine := newTestEngine(t, rdb, store, newTestConfig())

	pair := loginPair(t, engine, "alice@example.com", "Str0ng-Pass!")

	if err := engine.SetAccountActive(ctx, "u1", false); err != nil {
		t.Fatalf("SetAccountActive failed: %v", err)
	}

	if _, err := engine.Authorize(ctx, pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected session revoked, got %v", err)
	}
	if _, err := engine.Login(ctx, "alice@example.com", "Str0ng-Pass!"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}

	if err := engine.SetAccountActive(ctx, "u1", true); err != nil {
		t.Fatalf("re-enable failed: %v", err)
	}
	if _, err := engine.Login(ctx, "alice@example.com", "Str0ng-Pass!"); err != nil {
		t.Fatalf("expected login after re-enable, got %v", err)
	}
}

func TestAdminLockAndUnlock(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockStore()
	seedUser(t, store, "u1", "alice@example.com", "Str0ng-Pass!")
	engine := newTestEngine(t, rdb, store, newTestConfig())

	pair := loginPair(t, engine, "alice@example.com", "Str0ng-Pass!")

	// Indefinite lock: no until instant.
	if err := engine.LockAccount(ctx, "u1", nil); err != nil {
		t.Fatalf("LockAccount failed: %v", err)
	}
	if _, err := engine.Login(ctx, "alice@example.com", "Str0ng-Pass!"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
	if _, err := engine.Authorize(ctx, pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected sessions revoked by admin lock, got %v", err)
	}

	if err := engine.UnlockAccount(ctx, "u1"); err != nil {
		t.Fatalf("UnlockAccount failed: %v", err)
	}
	if _, err := engine.Login(ctx, "alice@example.com", "Str0ng-Pass!"); err != nil {
		t.Fatalf("expected login after unlock, got %v", err)
	}
}

func TestAdminOpsUnknownUser(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	engine := newTestEngine(t, rdb, newMockStore(), newTestConfig())

	if err := engine.SetAccountActive(ctx, "ghost", false); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := engine.LockAccount(ctx, "ghost", nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := engine.ForcePasswordChange(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSecurityReport(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := newTestConfig()
	cfg.Lockout.Threshold = 7
	cfg.Lockout.Duration = 20 * time.Minute
	engine := newTestEngine(t, rdb, newMockStore(), cfg)

	report := engine.SecurityReport()
	if report.SigningAlgorithm != "hs256" {
		t.Fatalf("unexpected algorithm %q", report.SigningAlgorithm)
	}
	if report.LockoutThreshold != 7 || report.LockoutDuration != 20*time.Minute {
		t.Fatalf("unexpected lockout settings: %+v", report)
	}
	if !report.RefreshRotationEnabled {
		t.Fatal("expected rotation enabled by default")
	}
	if report.Argon2.Memory != cfg.Password.Memory {
		t.Fatal("expected Argon2 parameters to be reported")
	}
}
