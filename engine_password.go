package authengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adminkit/authengine/revocation"
	"github.com/adminkit/authengine/token"
)

// ChangePassword replaces the password of a user who knows their current
// one. The new password must satisfy the policy and differ from the
// current one. Success revokes every session minted before the change;
// the returned pair is the only live session afterwards.
func (e *Engine) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (*TokenPair, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	cred, err := e.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	match, err := e.hasher.Verify(currentPassword, cred.PasswordHash)
	if err != nil || !match {
		e.metricInc(MetricPasswordChangeRejected)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	pair, err := e.applyNewPassword(ctx, cred, newPassword, revocation.ReasonPasswordChange)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, userID, "", nil, nil)
	return pair, nil
}

// CompletePasswordChange finishes a forced password change using the
// restricted token handed out by Login. The token is single use: the first
// successful completion spends it, and any replay is rejected even inside
// the token's lifetime.
func (e *Engine) CompletePasswordChange(ctx context.Context, changeToken, newPassword string) (*TokenPair, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.Verify(changeToken, token.TypePasswordChange)
	if err != nil {
		e.metricInc(MetricPasswordChangeRejected)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, "", "", err, nil)
		return nil, err
	}

	cred, err := e.store.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Validate before spending the token so a policy rejection leaves it
	// usable for another try.
	if err := e.policy.Validate(newPassword); err != nil {
		e.metricInc(MetricPasswordChangeRejected)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, cred.ID, claims.TokenID, err, nil)
		return nil, err
	}
	if reused, err := e.hasher.Verify(newPassword, cred.PasswordHash); err == nil && reused {
		e.metricInc(MetricPasswordChangeRejected)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, cred.ID, claims.TokenID, ErrPasswordReuse, nil)
		return nil, ErrPasswordReuse
	}

	claimed, err := e.registry.ClaimToken(ctx, claims.TokenID, revocation.ReasonForcedChange, remainingTTL(claims))
	if err != nil {
		e.metricInc(MetricRegistryUnavailable)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claimed {
		e.metricInc(MetricPasswordChangeRejected)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, cred.ID, claims.TokenID, ErrInvalidToken, nil)
		return nil, ErrInvalidToken
	}

	pair, err := e.storeNewPassword(ctx, cred, newPassword, revocation.ReasonForcedChange)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, cred.ID, claims.TokenID, nil, func() map[string]string {
		return map[string]string{"forced": "true"}
	})
	return pair, nil
}

// applyNewPassword runs policy and reuse checks, then persists the change.
func (e *Engine) applyNewPassword(ctx context.Context, cred Credential, newPassword string, reason revocation.Reason) (*TokenPair, error) {
	if err := e.policy.Validate(newPassword); err != nil {
		e.metricInc(MetricPasswordChangeRejected)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, cred.ID, "", err, nil)
		return nil, err
	}
	if reused, err := e.hasher.Verify(newPassword, cred.PasswordHash); err == nil && reused {
		e.metricInc(MetricPasswordChangeRejected)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, cred.ID, "", ErrPasswordReuse, nil)
		return nil, ErrPasswordReuse
	}
	return e.storeNewPassword(ctx, cred, newPassword, reason)
}

// storeNewPassword hashes and persists, revokes every prior session, and
// mints the replacement pair. Revocation happens before issuance: the
// watermark is recorded at nanosecond precision, so the fresh pair orders
// strictly after it and is never caught by its own revocation.
func (e *Engine) storeNewPassword(ctx context.Context, cred Credential, newPassword string, reason revocation.Reason) (*TokenPair, error) {
	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := e.store.UpdatePasswordHash(ctx, cred.ID, hash, now); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if cred.NeedsPasswordChange {
		if err := e.store.SetNeedsPasswordChange(ctx, cred.ID, false); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	if err := e.registry.RevokeUser(ctx, cred.ID, reason, e.config.Token.RefreshTTL); err != nil {
		e.metricInc(MetricRegistryUnavailable)
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	pair, err := e.issuePair(cred.ID)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}
