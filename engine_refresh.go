package authengine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/adminkit/authengine/revocation"
	"github.com/adminkit/authengine/token"
)

// Refresh exchanges a valid refresh token for a new token pair. When
// rotation is enabled the presented token is spent in the same step:
// exactly one of any number of concurrent calls with the same token wins,
// and every later presentation is treated as reuse of a stolen token,
// which revokes all of the user's outstanding sessions.
//
// A registry outage denies the exchange rather than honoring a token
// whose revocation status is unknown.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.Verify(refreshToken, token.TypeRefresh)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", "", err, nil)
		return nil, err
	}

	since, revoked, err := e.registry.UserRevokedSince(ctx, claims.Subject)
	if err != nil {
		return nil, e.refreshRegistryDown(ctx, claims, err)
	}
	if revoked && !claims.IssuedAt.After(since) {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, claims.Subject, claims.TokenID, ErrSessionExpired, nil)
		return nil, ErrSessionExpired
	}

	ttl := remainingTTL(claims)

	if e.config.Token.RotateRefresh {
		claimed, err := e.registry.ClaimToken(ctx, claims.TokenID, revocation.ReasonRotated, ttl)
		if err != nil {
			return nil, e.refreshRegistryDown(ctx, claims, err)
		}
		if !claimed {
			return nil, e.refreshTokenSpent(ctx, claims)
		}
	} else {
		dead, err := e.registry.IsTokenRevoked(ctx, claims.TokenID)
		if err != nil {
			return nil, e.refreshRegistryDown(ctx, claims, err)
		}
		if dead {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshFailure, false, claims.Subject, claims.TokenID, ErrSessionExpired, nil)
			return nil, ErrSessionExpired
		}
	}

	pair, err := e.issuePair(claims.Subject)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, claims.Subject, claims.TokenID, nil, nil)
	return &pair, nil
}

// refreshTokenSpent handles a refresh token whose denylist entry already
// exists. A token spent by rotation means the legitimate holder already
// exchanged it, so this presentation is reuse; revoke the whole account's
// sessions. A token revoked by logout is just a dead session.
func (e *Engine) refreshTokenSpent(ctx context.Context, claims *token.Claims) error {
	reason, _, rerr := e.registry.TokenRevocationReason(ctx, claims.TokenID)
	if rerr == nil && reason == revocation.ReasonRotated {
		e.metricInc(MetricRefreshReuseDetected)
		e.emitAudit(ctx, auditEventRefreshReuseDetected, false, claims.Subject, claims.TokenID, ErrSessionExpired, nil)
		if err := e.registry.RevokeUser(ctx, claims.Subject, revocation.ReasonRotated, e.config.Token.RefreshTTL); err != nil {
			log.Print("authengine: session revocation after refresh reuse failed")
		}
		return ErrSessionExpired
	}

	e.metricInc(MetricRefreshFailure)
	e.emitAudit(ctx, auditEventRefreshFailure, false, claims.Subject, claims.TokenID, ErrSessionExpired, nil)
	return ErrSessionExpired
}

func (e *Engine) refreshRegistryDown(ctx context.Context, claims *token.Claims, cause error) error {
	e.metricInc(MetricRegistryUnavailable)
	e.metricInc(MetricRefreshFailure)
	e.emitAudit(ctx, auditEventRefreshFailure, false, claims.Subject, claims.TokenID, cause, nil)
	if errors.Is(cause, revocation.ErrUnavailable) {
		return fmt.Errorf("%w: %v", ErrSessionExpired, cause)
	}
	return ErrSessionExpired
}
