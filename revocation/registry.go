// Package revocation implements the Redis-backed denylist that invalidates
// tokens ahead of their natural expiry. Entries expire on their own; the
// registry never needs cleanup.
//
// Two key namespaces exist under a configurable prefix: per-token entries
// ("<prefix>:t:<jti>") written on logout and refresh rotation, and per-user
// entries ("<prefix>:u:<userID>") written on password change, forced
// change, and admin lockout. A user entry stores the revocation instant so
// the engine can reject every token issued at or before it while leaving
// tokens from a subsequent fresh login honorable.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable indicates the registry backend could not be reached. The
// engine treats it as "revoked" for every security-sensitive check.
var ErrUnavailable = errors.New("revocation registry unavailable")

// Reason tags why an entry exists. Stored as the entry value for
// per-token keys and alongside the timestamp for per-user keys.
type Reason string

const (
	ReasonLogout         Reason = "logout"
	ReasonRotated        Reason = "rotated"
	ReasonPasswordChange Reason = "password_change"
	ReasonForcedChange   Reason = "forced_change"
	ReasonAdminLock      Reason = "admin_lock"
	ReasonAdminDisable   Reason = "admin_disable"
)

// Registry is a TTL denylist over a Redis client. Safe for concurrent use.
type Registry struct {
	redis   redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// New creates a Registry. prefix namespaces all keys; timeout bounds every
// round-trip (0 means no per-call deadline beyond the caller's context).
func New(client redis.UniversalClient, prefix string, timeout time.Duration) *Registry {
	if prefix == "" {
		prefix = "rvk"
	}
	return &Registry{redis: client, prefix: prefix, timeout: timeout}
}

func (r *Registry) tokenKey(tokenID string) string {
	return r.prefix + ":t:" + tokenID
}

func (r *Registry) userKey(userID string) string {
	return r.prefix + ":u:" + userID
}

func (r *Registry) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// RevokeToken denies the given token ID for ttl, which callers set to at
// least the token's remaining lifetime. Re-revoking is not an error, which
// makes logout idempotent.
func (r *Registry) RevokeToken(ctx context.Context, tokenID string, reason Reason, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.redis.Set(ctx, r.tokenKey(tokenID), string(reason), ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IsTokenRevoked reports whether the token ID is denied. Backend errors are
// returned as ErrUnavailable; the caller decides fail-closed behavior.
func (r *Registry) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	n, err := r.redis.Exists(ctx, r.tokenKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// TokenRevocationReason returns why a token ID was denied. ok is false when
// no entry exists.
func (r *Registry) TokenRevocationReason(ctx context.Context, tokenID string) (Reason, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	value, err := r.redis.Get(ctx, r.tokenKey(tokenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return Reason(value), true, nil
}

// ClaimToken revokes the token ID only if no entry exists yet and reports
// whether this caller won. Two concurrent refreshes of one token make
// exactly one winner; the loser observes claimed=false and must treat the
// token as already spent.
func (r *Registry) ClaimToken(ctx context.Context, tokenID string, reason Reason, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	claimed, err := r.redis.SetNX(ctx, r.tokenKey(tokenID), string(reason), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return claimed, nil
}

// RevokeUser invalidates every token issued to userID at or before now.
// ttl should be the maximum refresh lifetime so the entry outlives the
// longest-lived token it denies.
func (r *Registry) RevokeUser(ctx context.Context, userID string, reason Reason, ttl time.Duration) error {
	return r.RevokeUserAt(ctx, userID, reason, time.Now(), ttl)
}

// RevokeUserAt is RevokeUser with an explicit watermark instant. The
// instant is stored at nanosecond precision so tokens minted immediately
// after the revocation still order strictly later.
func (r *Registry) RevokeUserAt(ctx context.Context, userID string, reason Reason, at time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	value := strconv.FormatInt(at.UnixNano(), 10) + " " + string(reason)
	if err := r.redis.Set(ctx, r.userKey(userID), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// UserRevokedSince returns the instant of the user's most recent blanket
// revocation. ok is false when no entry exists. Tokens with an issued-at
// not after that instant are dead; tokens minted later are honorable.
func (r *Registry) UserRevokedSince(ctx context.Context, userID string) (time.Time, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	value, err := r.redis.Get(ctx, r.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	nanos := value
	if i := strings.IndexByte(value, ' '); i >= 0 {
		nanos = value[:i]
	}
	parsed, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: corrupt entry", ErrUnavailable)
	}

	return time.Unix(0, parsed), true, nil
}
