package authengine

import (
	"context"
	"errors"
	"testing"
)

func TestLogoutRevokesSession(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockStore()
	seedUser(t, store, "u1", "alice@example.com", "Str0ng-Pass!")
	engine := newTestEngine(t, rdb, store, newTestConfig())

	pair := loginPair(t, engine, "alice@example.com", "Str0ng-Pass!")
	other := loginPair(t, engine, "alice@example.com", "Str0ng-Pass!")

	if err := engine.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired after logout, got %v", err)
	}

	// The access token minted with that refresh token dies with it.
	if _, err := engine.Authorize(ctx, pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for the paired access token, got %v", err)
	}

	// Other sessions of the same user are untouched.
	if _, err := engine.Authorize(ctx, other.AccessToken); err != nil {
		t.Fatalf("second session should survive a single-session logout, got %v", err)
	}
	if _, err := engine.Refresh(ctx, other.RefreshToken); err != nil {
		t.Fatalf("second session refresh failed: %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockStore()
	seedUser(t, store, "u1", "alice@example.com", "Str0ng-Pass!")
	engine := newTestEngine(t, rdb, store, newTestConfig())

	pair := loginPair(t, engine, "alice@example.com", "Str0ng-Pass!")

	if err := engine.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("first Logout failed: %v", err)
	}
	if err := engine.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("second Logout should be a no-op, got %v", err)
	}
}

func TestLogoutGarbageToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, newMockStore(), newTestConfig())

	if err := engine.Logout(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestLogoutAllRevokesEverything(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockStore()
	seedUser(t, store, "u1", "alice@example.com", "Str0ng-Pass!")
	engine := newTestEngine(t, rdb, store, newTestConfig())

	first := loginPair(t, engine, "alice@example.com", "Str0ng-Pass!")
	second := loginPair(t, engine, "alice@example.com", "Str0ng-Pass!")

	if err := engine.LogoutAll(ctx, "u1"); err != nil {
		t.Fatalf("LogoutAll failed: %v", err)
	}

	for i, tok := range []string{first.AccessToken, second.AccessToken} {
		if _, err := engine.Authorize(ctx, tok); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("access token %d: expected ErrUnauthorized, got %v", i+1, err)
		}
	}
	for i, tok := range []string{first.RefreshToken, second.RefreshToken} {
		if _, err := engine.Refresh(ctx, tok); !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("refresh token %d: expected ErrSessionExpired, got %v", i+1, err)
		}
	}
}

func TestLoginAfterLogoutAllYieldsLiveSession(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := newMockStore()
	seedUser(t, store, "u1", "alice@example.com", "Str0ng-Pass!")
	engine := newTestEngine(t, rdb, store, newTestConfig())

	old := loginPair(t, engine, "alice@example.com", "Str0ng-Pass!")

	if err := engine.LogoutAll(ctx, "u1"); err != nil {
		t.Fatalf("LogoutAll failed: %v", err)
	}

	fresh := loginPair(t, engine, "alice@example.com", "Str0ng-Pass!")
	if _, err := engine.Authorize(ctx, fresh.AccessToken); err != nil {
		t.Fatalf("fresh session should be honored, got %v", err)
	}
	if _, err := engine.Authorize(ctx, old.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old session should stay revoked, got %v", err)
	}
}
