package authengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adminkit/authengine/internal/codes"
	"github.com/adminkit/authengine/revocation"
)

// RequestPasswordReset issues a single-use reset code for the account
// behind email and returns it for the caller to deliver out of band. An
// unknown email returns an empty code with no error; the caller's
// response should not depend on which case occurred. A repeated request
// supersedes any earlier code.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if e == nil || e.store == nil {
		return "", ErrEngineNotReady
	}

	cred, err := e.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	code := codes.NewResetToken()
	expires := time.Now().Add(e.config.Reset.ResetTTL)
	if err := e.store.SetResetCode(ctx, cred.ID, code, expires); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, cred.ID, "", nil, nil)
	return code, nil
}

// ConfirmPasswordReset spends a reset code and installs a new password.
// The code is consumed atomically at the store; expiry is checked in the
// same step. Success clears any lockout, revokes every session from
// before the reset, and returns the replacement pair.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) (*TokenPair, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if code == "" {
		return nil, ErrInvalidResetCode
	}

	cred, err := e.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricPasswordResetConfirmFailure)
			return nil, ErrInvalidResetCode
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Policy runs before the code is spent: a weak replacement password
	// leaves the code valid for another attempt.
	if err := e.policy.Validate(newPassword); err != nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, cred.ID, "", err, nil)
		return nil, err
	}
	if reused, err := e.hasher.Verify(newPassword, cred.PasswordHash); err == nil && reused {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, cred.ID, "", ErrPasswordReuse, nil)
		return nil, ErrPasswordReuse
	}

	ok, err := e.store.ConsumeResetCode(ctx, cred.ID, code, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, cred.ID, "", ErrInvalidResetCode, nil)
		return nil, ErrInvalidResetCode
	}

	// A completed reset proves control of the mailbox; a standing lockout
	// from the forgotten password no longer serves a purpose.
	if cred.Locked || cred.FailedAttempts > 0 {
		if err := e.store.SetLock(ctx, cred.ID, false, nil); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if err := e.store.ResetFailedAttempts(ctx, cred.ID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	pair, err := e.storeNewPassword(ctx, cred, newPassword, revocation.ReasonPasswordChange)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricPasswordResetConfirmSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, cred.ID, "", nil, nil)
	return pair, nil
}
