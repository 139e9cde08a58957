package authengine

import (
	"errors"

	"github.com/adminkit/authengine/password"
	"github.com/adminkit/authengine/token"
)

var (
	// ErrUnauthorized is returned by Authorize whenever any stage of the
	// verify → revocation → credential chain fails. There is no partial
	// trust state.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials covers both "user not found" and "wrong
	// password" so login responses cannot be used for account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound is returned by CredentialStore lookups and by
	// operations addressed to a user ID directly (admin paths).
	ErrUserNotFound = errors.New("user not found")

	// ErrAccountExists is returned by CreateAccount for duplicate emails.
	ErrAccountExists = errors.New("account already exists")

	// ErrAccountNotVerified rejects logins for accounts that have not
	// consumed their email verification code.
	ErrAccountNotVerified = errors.New("account not verified")

	// ErrAccountLocked rejects logins while a lock is in effect, either
	// timed (lockout policy) or permanent (admin-set).
	ErrAccountLocked = errors.New("account locked")

	// ErrAccountDisabled rejects logins for administratively deactivated
	// accounts.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrAccountExpired rejects logins past the credential's expiry date.
	ErrAccountExpired = errors.New("account expired")

	// ErrInvalidToken covers malformed tokens and signature mismatches.
	ErrInvalidToken = token.ErrInvalidToken

	// ErrExpiredToken is returned for structurally valid tokens past exp.
	ErrExpiredToken = token.ErrExpiredToken

	// ErrWrongTokenType is returned when an access token is presented
	// where a refresh token is expected, or vice versa.
	ErrWrongTokenType = token.ErrWrongTokenType

	// ErrSessionExpired means the token passed signature and expiry checks
	// but failed the revocation check, or lost a rotation race. The caller
	// must re-login.
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidVerificationCode is returned for mismatched or already
	// consumed email verification codes.
	ErrInvalidVerificationCode = errors.New("invalid verification code")

	// ErrInvalidResetCode is returned for mismatched, expired, or already
	// consumed password reset codes.
	ErrInvalidResetCode = errors.New("invalid reset code")

	// ErrWeakPassword matches any password policy rejection; the wrapping
	// password.PolicyError lists the violated rules.
	ErrWeakPassword = password.ErrWeakPassword

	// ErrPasswordReuse rejects a new password equal to the current one.
	ErrPasswordReuse = errors.New("new password must differ from current password")

	// ErrLoginThrottled is returned when the optional per-identifier/IP
	// login throttle is in cooldown.
	ErrLoginThrottled = errors.New("login throttled")

	// ErrRegistryUnavailable wraps revocation backend outages. The engine
	// has already failed closed by the time callers see this in audit
	// events; API layers should map it to a 5xx, never to success.
	ErrRegistryUnavailable = errors.New("revocation registry unavailable")

	// ErrStoreUnavailable wraps credential store outages.
	ErrStoreUnavailable = errors.New("credential store unavailable")

	// ErrEngineNotReady is returned when an Engine is used before Build
	// completed.
	ErrEngineNotReady = errors.New("engine not initialized")
)
