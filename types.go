package authengine

import (
	"context"
	"time"
)

// Credential is the persisted per-user record the engine reads and writes
// through [CredentialStore]. The engine never owns its storage; the embedding
// application maps it onto whatever persistence layer it uses.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string

	// Active is false for administratively deactivated accounts.
	Active bool

	// Locked with a nil LockedUntil is a permanent, admin-set lock.
	// Locked with LockedUntil in the past is treated as unlocked.
	Locked      bool
	LockedUntil *time.Time

	// FailedAttempts counts consecutive wrong-password logins. It resets
	// to zero on any successful login and must be incremented atomically
	// by the store (see CredentialStore.RecordFailedAttempt).
	FailedAttempts int

	NeedsPasswordChange bool

	Verified         bool
	VerificationCode string

	ResetCode          string
	ResetCodeExpiresAt *time.Time

	LastPasswordChangeAt time.Time

	// ExpiresAt, when set and past, makes the account unusable for login.
	ExpiresAt *time.Time

	CreatedAt time.Time
}

// LockActive reports whether the record is locked at the given instant.
func (c Credential) LockActive(now time.Time) bool {
	if !c.Locked {
		return false
	}
	return c.LockedUntil == nil || c.LockedUntil.After(now)
}

// Expired reports whether the account's expiry date has passed.
func (c Credential) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// CreateCredentialInput is the input for [CredentialStore.Create].
type CreateCredentialInput struct {
	Email            string
	PasswordHash     string
	Verified         bool
	VerificationCode string
}

// CredentialStore is the narrow persistence contract the engine requires.
//
// Three operations carry atomicity requirements that must hold at the store
// level, not in application code: RecordFailedAttempt is an atomic
// read-modify-write increment (two concurrent failures must yield two
// increments), and the two Consume operations are atomic compare-and-clear
// (a code is consumable exactly once).
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (Credential, error)
	GetByID(ctx context.Context, id string) (Credential, error)
	Create(ctx context.Context, input CreateCredentialInput) (Credential, error)

	// UpdatePasswordHash replaces the hash and records the change instant.
	UpdatePasswordHash(ctx context.Context, id, hash string, changedAt time.Time) error

	// RecordFailedAttempt atomically increments the failed-attempt counter
	// and returns the new count.
	RecordFailedAttempt(ctx context.Context, id string) (int, error)
	ResetFailedAttempts(ctx context.Context, id string) error

	// SetLock sets or clears the lock. A nil until with locked=true is a
	// permanent lock.
	SetLock(ctx context.Context, id string, locked bool, until *time.Time) error

	SetActive(ctx context.Context, id string, active bool) error
	SetNeedsPasswordChange(ctx context.Context, id string, needs bool) error

	SetVerificationCode(ctx context.Context, id, code string) error

	// ConsumeVerificationCode atomically compares the stored code, and on
	// match clears it and marks the account verified. Returns false on
	// mismatch or when no code is outstanding.
	ConsumeVerificationCode(ctx context.Context, id, code string) (bool, error)

	SetResetCode(ctx context.Context, id, code string, expiresAt time.Time) error

	// ConsumeResetCode atomically compares the stored code and its expiry
	// against now, clearing it on match. Returns false on mismatch, expiry,
	// or when no code is outstanding.
	ConsumeResetCode(ctx context.Context, id, code string, now time.Time) (bool, error)
}

// LoginState discriminates the two success shapes of Login.
type LoginState uint8

const (
	// LoginStateOK means a full access+refresh pair was issued.
	LoginStateOK LoginState = iota
	// LoginStatePasswordChangeRequired means credentials were correct but
	// the account is flagged for a forced password change; only the
	// restricted PasswordChangeToken was issued.
	LoginStatePasswordChangeRequired
)

// TokenPair is an access token and its companion refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	State  LoginState
	UserID string

	AccessToken  string
	RefreshToken string

	// PasswordChangeToken is set only when State is
	// LoginStatePasswordChangeRequired. It is accepted solely by
	// CompletePasswordChange.
	PasswordChangeToken string
}

// AuthResult is returned by [Engine.Authorize] for a valid, live access
// token.
type AuthResult struct {
	UserID   string
	TokenID  string
	IssuedAt time.Time
}

// CreateAccountResult is returned by [Engine.CreateAccount]. The
// verification code is handed to the caller for delivery (the engine does
// not send email).
type CreateAccountResult struct {
	UserID           string
	VerificationCode string
}
