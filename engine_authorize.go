package authengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adminkit/authengine/token"
)

// Authorize validates an access token for one protected request: signature
// and expiry first, then the per-token denylist, then the user-level
// revocation watermark, then the credential record itself, which must
// still be active, unlocked, and unexpired. When the registry or the
// store cannot answer, the request is denied; an unknown status is never
// treated as "fine".
func (e *Engine) Authorize(ctx context.Context, accessToken string) (*AuthResult, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	defer func() {
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricAuthorizeLatency, time.Since(start))
		}
	}()

	claims, err := e.codec.Verify(accessToken, token.TypeAccess)
	if err != nil {
		e.metricInc(MetricAuthorizeDenied)
		e.emitAudit(ctx, auditEventAuthorizeDenied, false, "", "", err, nil)
		return nil, err
	}

	dead, err := e.registry.IsTokenRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, e.authorizeRegistryDown(ctx, claims, err)
	}
	if dead {
		e.metricInc(MetricAuthorizeDenied)
		e.emitAudit(ctx, auditEventAuthorizeDenied, false, claims.Subject, claims.TokenID, ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	}

	since, revoked, err := e.registry.UserRevokedSince(ctx, claims.Subject)
	if err != nil {
		return nil, e.authorizeRegistryDown(ctx, claims, err)
	}
	if revoked && !claims.IssuedAt.After(since) {
		e.metricInc(MetricAuthorizeDenied)
		e.emitAudit(ctx, auditEventAuthorizeDenied, false, claims.Subject, claims.TokenID, ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	}

	// A token can outlive its account: a lockout reached through the
	// failure threshold, an admin deactivation raced against this
	// request, or an account past its expiry. The record decides.
	cred, err := e.store.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricAuthorizeDenied)
			e.emitAudit(ctx, auditEventAuthorizeDenied, false, claims.Subject, claims.TokenID, ErrUnauthorized, nil)
			return nil, ErrUnauthorized
		}
		return nil, e.authorizeStoreDown(ctx, claims, err)
	}
	now := time.Now()
	if !cred.Active || cred.LockActive(now) || cred.Expired(now) {
		e.metricInc(MetricAuthorizeDenied)
		e.emitAudit(ctx, auditEventAuthorizeDenied, false, claims.Subject, claims.TokenID, ErrUnauthorized, nil)
		return nil, ErrUnauthorized
	}

	e.metricInc(MetricAuthorizeSuccess)
	return &AuthResult{
		UserID:   claims.Subject,
		TokenID:  claims.TokenID,
		IssuedAt: claims.IssuedAt,
	}, nil
}

func (e *Engine) authorizeRegistryDown(ctx context.Context, claims *token.Claims, cause error) error {
	e.metricInc(MetricRegistryUnavailable)
	e.metricInc(MetricAuthorizeDenied)
	e.emitAudit(ctx, auditEventAuthorizeDenied, false, claims.Subject, claims.TokenID, cause, func() map[string]string {
		return map[string]string{"reason": "registry_unavailable"}
	})
	return fmt.Errorf("%w: %v", ErrUnauthorized, cause)
}

func (e *Engine) authorizeStoreDown(ctx context.Context, claims *token.Claims, cause error) error {
	e.metricInc(MetricStoreUnavailable)
	e.metricInc(MetricAuthorizeDenied)
	e.emitAudit(ctx, auditEventAuthorizeDenied, false, claims.Subject, claims.TokenID, cause, func() map[string]string {
		return map[string]string{"reason": "store_unavailable"}
	})
	return fmt.Errorf("%w: %v", ErrUnauthorized, cause)
}
