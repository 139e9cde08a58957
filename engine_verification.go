package authengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/adminkit/authengine/internal/codes"
)

// RequestEmailVerification issues a fresh verification code for the
// account behind email and returns it for the caller to deliver. An
// unknown email returns an empty code with no error, so a transport layer
// that forwards the result verbatim leaks nothing about which addresses
// have accounts. Requesting again replaces any earlier code.
func (e *Engine) RequestEmailVerification(ctx context.Context, email string) (string, error) {
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
	if cred.Verified {
		return "", nil
	}

	code, err := codes.NewVerificationCode(e.config.Reset.VerificationCodeLength)
	if err != nil {
		return "", err
	}
	if err := e.store.SetVerificationCode(ctx, cred.ID, code); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricEmailVerificationRequest)
	e.emitAudit(ctx, auditEventEmailVerificationRequest, true, cred.ID, "", nil, nil)
	return code, nil
}

// VerifyEmail consumes a verification code. The compare-and-clear happens
// at the store in one step, so a code is accepted at most once no matter
// how many confirmations race. Success marks the account verified.
func (e *Engine) VerifyEmail(ctx context.Context, email, code string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if code == "" {
		return ErrInvalidVerificationCode
	}

	cred, err := e.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricEmailVerificationFailure)
			return ErrInvalidVerificationCode
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	ok, err := e.store.ConsumeVerificationCode(ctx, cred.ID, code)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		e.metricInc(MetricEmailVerificationFailure)
		e.emitAudit(ctx, auditEventEmailVerificationConfirm, false, cred.ID, "", ErrInvalidVerificationCode, nil)
		return ErrInvalidVerificationCode
	}

	e.metricInc(MetricEmailVerificationSuccess)
	e.emitAudit(ctx, auditEventEmailVerificationConfirm, true, cred.ID, "", nil, nil)
	return nil
}
