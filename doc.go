// Package authengine implements the authentication and token-lifecycle core
// of an RBAC admin backend: JWT access/refresh issuance, rotation-on-use,
// Redis-backed revocation, account lockout, and the password change,
// email verification, and password reset state machines.
//
// The package is designed for a stateless, horizontally scaled API tier:
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build], and all cross-instance
// coordination happens through the [CredentialStore] (durable) and the
// revocation registry (shared, low-latency).
//
// # Architecture boundaries
//
// authengine is the public surface. It exposes [Engine], [Builder],
// [Config], the [CredentialStore] contract, and sentinel errors. Internal
// coordination — audit dispatch, throttling, code generation — lives under
// internal/ and is never exported. Persistence of credential records is the
// embedding application's job; the engine only requires the narrow atomic
// operations named on [CredentialStore].
//
// # Failure policy
//
// Every expected authentication outcome (wrong password, locked account,
// revoked token) is a sentinel error checked with errors.Is, never a panic.
// When the revocation backend is unreachable the engine fails closed:
// requests are denied rather than allowed through on stale trust.
// A missing signing secret fails [Builder.Build], not a request.
package authengine
