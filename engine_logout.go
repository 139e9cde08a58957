package authengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adminkit/authengine/revocation"
	"github.com/adminkit/authengine/token"
)

// Logout revokes the presented refresh token for its remaining lifetime,
// and the access token minted alongside it for the rest of its own.
// Logging out an already revoked or already expired token succeeds: the
// outcome the caller asked for, a dead session, already holds.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil || e.registry == nil {
		return ErrEngineNotReady
	}

	claims, err := e.codec.Verify(refreshToken, token.TypeRefresh)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return nil
		}
		return err
	}

	if err := e.registry.RevokeToken(ctx, claims.TokenID, revocation.ReasonLogout, remainingTTL(claims)); err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	if claims.PairedTokenID != "" {
		// The paired access token expires AccessTTL after the shared
		// issuance instant; the denylist entry only needs to live that
		// long.
		accessTTL := time.Until(claims.IssuedAt.Add(e.config.Token.AccessTTL))
		if accessTTL < time.Second {
			accessTTL = time.Second
		}
		if err := e.registry.RevokeToken(ctx, claims.PairedTokenID, revocation.ReasonLogout, accessTTL); err != nil {
			return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
		}
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, claims.Subject, claims.TokenID, nil, nil)
	return nil
}

// LogoutAll revokes every outstanding token for userID. Tokens minted by a
// login after this call are unaffected.
func (e *Engine) LogoutAll(ctx context.Context, userID string) error {
	if e == nil || e.registry == nil {
		return ErrEngineNotReady
	}

	if err := e.registry.RevokeUser(ctx, userID, revocation.ReasonLogout, e.config.Token.RefreshTTL); err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	e.metricInc(MetricLogoutAll)
	e.emitAudit(ctx, auditEventLogoutAll, true, userID, "", nil, nil)
	return nil
}
