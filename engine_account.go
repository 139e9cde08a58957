package authengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adminkit/authengine/internal/codes"
	"github.com/adminkit/authengine/revocation"
)

// CreateAccountInput describes a registration. PreVerified accounts skip
// the email verification step; everyone else receives a verification code
// in the result for the caller to deliver.
type CreateAccountInput struct {
	Email       string
	Password    string
	PreVerified bool
}

// CreateAccount registers a new credential. The password must satisfy the
// policy before anything is persisted. A duplicate email surfaces as
// ErrAccountExists from the store.
func (e *Engine) CreateAccount(ctx context.Context, input CreateAccountInput) (*CreateAccountResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.policy.Validate(input.Password); err != nil {
		return nil, err
	}

	hash, err := e.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	var verification string
	if !input.PreVerified {
		verification, err = codes.NewVerificationCode(e.config.Reset.VerificationCodeLength)
		if err != nil {
			return nil, err
		}
	}

	cred, err := e.store.Create(ctx, CreateCredentialInput{
		Email:            input.Email,
		PasswordHash:     hash,
		Verified:         input.PreVerified,
		VerificationCode: verification,
	})
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricAccountDuplicate)
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricAccountCreated)
	e.emitAudit(ctx, auditEventAccountCreated, true, cred.ID, "", nil, func() map[string]string {
		return map[string]string{"pre_verified": fmt.Sprintf("%t", input.PreVerified)}
	})
	return &CreateAccountResult{UserID: cred.ID, VerificationCode: verification}, nil
}

// SetAccountActive enables or disables an account. Disabling revokes every
// outstanding session; a disabled account fails login with
// ErrAccountDisabled until re-enabled.
func (e *Engine) SetAccountActive(ctx context.Context, userID string, active bool) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	if err := e.store.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !active {
		if err := e.registry.RevokeUser(ctx, userID, revocation.ReasonAdminDisable, e.config.Token.RefreshTTL); err != nil {
			return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
		}
	}

	e.metricInc(MetricAccountStatusChange)
	e.emitAudit(ctx, auditEventAccountStatusChange, true, userID, "", nil, func() map[string]string {
		return map[string]string{"active": fmt.Sprintf("%t", active)}
	})
	return nil
}

// LockAccount imposes an administrative lock until the given instant, or
// indefinitely when until is nil, and revokes every outstanding session.
func (e *Engine) LockAccount(ctx context.Context, userID string, until *time.Time) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	if err := e.store.SetLock(ctx, userID, true, until); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := e.registry.RevokeUser(ctx, userID, revocation.ReasonAdminLock, e.config.Token.RefreshTTL); err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	e.metricInc(MetricAccountStatusChange)
	e.emitAudit(ctx, auditEventAccountStatusChange, true, userID, "", nil, func() map[string]string {
		return map[string]string{"locked": "true"}
	})
	return nil
}

// UnlockAccount clears both the lock and the failed-attempt counter.
func (e *Engine) UnlockAccount(ctx context.Context, userID string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	if err := e.store.SetLock(ctx, userID, false, nil); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := e.store.ResetFailedAttempts(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricAccountStatusChange)
	e.emitAudit(ctx, auditEventAccountStatusChange, true, userID, "", nil, func() map[string]string {
		return map[string]string{"locked": "false"}
	})
	return nil
}

// ForcePasswordChange flags an account so its next login yields only a
// restricted password-change token, and revokes current sessions so the
// change cannot be postponed by staying logged in.
func (e *Engine) ForcePasswordChange(ctx context.Context, userID string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	if err := e.store.SetNeedsPasswordChange(ctx, userID, true); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := e.registry.RevokeUser(ctx, userID, revocation.ReasonForcedChange, e.config.Token.RefreshTTL); err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}

	e.metricInc(MetricAccountStatusChange)
	e.emitAudit(ctx, auditEventAccountStatusChange, true, userID, "", nil, func() map[string]string {
		return map[string]string{"needs_password_change": "true"}
	})
	return nil
}
