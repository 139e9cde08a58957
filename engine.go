package authengine

import (
	"time"

	internalaudit "github.com/adminkit/authengine/internal/audit"
	"github.com/adminkit/authengine/internal/rate"
	"github.com/adminkit/authengine/password"
	"github.com/adminkit/authengine/revocation"
	"github.com/adminkit/authengine/token"
)

// Engine is the authentication orchestrator. It composes the token codec,
// the revocation registry, the credential store, and the policy rules into
// the login, refresh, logout, and password lifecycle state machines.
//
// Engines are built once through [Builder.Build] and are immutable and
// safe for concurrent use afterwards.
type Engine struct {
	config   Config
	store    CredentialStore
	codec    *token.Codec
	registry *revocation.Registry
	hasher   *password.Hasher
	policy   password.Policy
	throttle *rate.Limiter
	audit    *internalaudit.Dispatcher
	metrics  *Metrics
}

// Close flushes the audit dispatcher. The engine holds no other resources
// of its own; the Redis client belongs to the caller.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped reports audit events shed under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a deep copy of all counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// issuePair mints a fresh access+refresh pair for userID. The refresh
// token carries the access token's ID so a logout kills both.
func (e *Engine) issuePair(userID string) (TokenPair, error) {
	access, accessClaims, err := e.codec.Issue(userID, token.TypeAccess, e.config.Token.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := e.codec.IssueLinked(userID, token.TypeRefresh, e.config.Token.RefreshTTL, accessClaims.TokenID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// remainingTTL is how long a revocation entry must outlive the token it
// denies. Clamped to a floor so an entry is never written with ttl<=0.
func remainingTTL(claims *token.Claims) time.Duration {
	remaining := time.Until(claims.ExpiresAt)
	if remaining < time.Second {
		return time.Second
	}
	return remaining
}
