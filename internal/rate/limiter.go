// Package rate implements the optional Redis-backed login throttle. It is
// a fast-path damper keyed by identifier and client IP, independent of the
// durable per-account lockout counter on the credential record.
package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrThrottled indicates the identifier/IP pair is in cooldown.
var ErrThrottled = errors.New("throttled")

// ErrUnavailable indicates the throttle backend is unreachable.
var ErrUnavailable = errors.New("throttle backend unavailable")

// Config for the login throttle.
type Config struct {
	MaxAttempts int
	Cooldown    time.Duration
}

// Limiter counts failed logins per identifier+IP in a rolling window.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

func New(client redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{redis: client, config: cfg}
}

func (l *Limiter) key(identifier, ip string) string {
	if ip == "" {
		ip = "-"
	}
	return "thr:login:" + identifier + ":" + ip
}

// Check fails with ErrThrottled when the pair has exhausted its attempts.
func (l *Limiter) Check(ctx context.Context, identifier, ip string) error {
	count, err := l.redis.Get(ctx, l.key(identifier, ip)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrThrottled
	}
	return nil
}

// Increment records a failed attempt. The window TTL is set on the first
// failure so the counter expires on its own.
func (l *Limiter) Increment(ctx context.Context, identifier, ip string) error {
	key := l.key(identifier, ip)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *Limiter) Reset(ctx context.Context, identifier, ip string) error {
	if err := l.redis.Del(ctx, l.key(identifier, ip)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
