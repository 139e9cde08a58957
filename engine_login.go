package authengine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/adminkit/authengine/internal/rate"
	"github.com/adminkit/authengine/token"
)

// Login runs the credential state machine for one email+password attempt.
//
// Failure order is deliberate: unverified and locked accounts are rejected
// before any hash comparison, so a locked account leaks nothing about its
// password through timing. A wrong password increments the durable
// failed-attempt counter atomically at the store; the attempt that reaches
// the lockout threshold still reports ErrInvalidCredentials, and the lock
// is observed from the next attempt on.
func (e *Engine) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	if e == nil || e.store == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}
	ip := clientIPFromContext(ctx)

	if e.throttle != nil {
		switch err := e.throttle.Check(ctx, email, ip); {
		case errors.Is(err, rate.ErrThrottled):
			e.metricInc(MetricLoginThrottled)
			e.emitAudit(ctx, auditEventLoginThrottled, false, "", "", ErrLoginThrottled, func() map[string]string {
				return map[string]string{"email": email}
			})
			return nil, ErrLoginThrottled
		case err != nil:
			// The throttle is a best-effort damper on top of the durable
			// lockout counter; its backend being down must not take the
			// login path down with it.
			log.Print("authengine: login throttle check failed")
		}
	}

	if pass == "" {
		e.noteThrottledFailure(ctx, email, ip)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"email": email, "reason": "empty_password"}
		})
		return nil, ErrInvalidCredentials
	}

	cred, err := e.store.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		// Same failure shape as a wrong password; no enumeration signal.
		e.noteThrottledFailure(ctx, email, ip)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"email": email, "reason": "user_not_found"}
		})
		return nil, ErrInvalidCredentials
	}

	now := time.Now()

	if !cred.Verified {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, cred.ID, "", ErrAccountNotVerified, nil)
		return nil, ErrAccountNotVerified
	}

	if cred.LockActive(now) {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, cred.ID, "", ErrAccountLocked, nil)
		return nil, ErrAccountLocked
	}
	if cred.Locked {
		// Timed lock has elapsed; clear it and grant a fresh attempt
		// window before comparing the password.
		if err := e.store.SetLock(ctx, cred.ID, false, nil); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if err := e.store.ResetFailedAttempts(ctx, cred.ID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	match, err := e.hasher.Verify(pass, cred.PasswordHash)
	if err != nil || !match {
		return nil, e.failLoginAttempt(ctx, cred, email, ip, now)
	}

	if !cred.Active {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, cred.ID, "", ErrAccountDisabled, nil)
		return nil, ErrAccountDisabled
	}
	if cred.Expired(now) {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, cred.ID, "", ErrAccountExpired, nil)
		return nil, ErrAccountExpired
	}

	if cred.FailedAttempts > 0 {
		if err := e.store.ResetFailedAttempts(ctx, cred.ID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	if e.throttle != nil {
		// Best-effort; a stale throttle entry only shortens the window.
		if err := e.throttle.Reset(ctx, email, ip); err != nil {
			log.Print("authengine: login throttle reset failed")
		}
	}

	if cred.NeedsPasswordChange {
		change, _, err := e.codec.Issue(cred.ID, token.TypePasswordChange, e.config.Token.PasswordChangeTTL)
		if err != nil {
			return nil, err
		}
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, auditEventLoginSuccess, true, cred.ID, "", nil, func() map[string]string {
			return map[string]string{"state": "password_change_required"}
		})
		return &LoginResult{
			State:               LoginStatePasswordChangeRequired,
			UserID:              cred.ID,
			PasswordChangeToken: change,
		}, nil
	}

	pair, err := e.issuePair(cred.ID)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, cred.ID, "", nil, nil)

	return &LoginResult{
		State:        LoginStateOK,
		UserID:       cred.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// failLoginAttempt records a wrong password: atomic counter increment,
// threshold lock, throttle bump. Always returns ErrInvalidCredentials.
func (e *Engine) failLoginAttempt(ctx context.Context, cred Credential, email, ip string, now time.Time) error {
	count, err := e.store.RecordFailedAttempt(ctx, cred.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if count >= e.config.Lockout.Threshold {
		until := now.Add(e.config.Lockout.Duration)
		if err := e.store.SetLock(ctx, cred.ID, true, &until); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		e.metricInc(MetricAccountLockout)
		e.emitAudit(ctx, auditEventAccountLockout, true, cred.ID, "", nil, func() map[string]string {
			return map[string]string{"until": until.UTC().Format(time.RFC3339)}
		})
	}

	e.noteThrottledFailure(ctx, email, ip)
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, cred.ID, "", ErrInvalidCredentials, func() map[string]string {
		return map[string]string{"reason": "password_mismatch"}
	})
	return ErrInvalidCredentials
}

func (e *Engine) noteThrottledFailure(ctx context.Context, email, ip string) {
	if e.throttle == nil {
		return
	}
	if err := e.throttle.Increment(ctx, email, ip); err != nil {
		log.Print("authengine: login throttle increment failed")
	}
}
