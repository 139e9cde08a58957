package authengine

import (
	"errors"
	"time"
)

// Config is the full engine configuration. Zero values are not usable;
// start from DefaultConfig and override.
//
// Config instances are cloned on Build and treated as immutable afterwards.
type Config struct {
	Token      TokenConfig
	Lockout    LockoutConfig
	Password   PasswordConfig
	Reset      ResetConfig
	Revocation RevocationConfig
	Security   SecurityConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls signing and lifetimes for the three token types.
type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// PasswordChangeTTL bounds the restricted token issued when a login
	// hits a forced-password-change flag.
	PasswordChangeTTL time.Duration

	SigningMethod string // "hs256" (default) or "ed25519"
	Secret        []byte // hs256 signing secret
	PrivateKey    []byte // ed25519
	PublicKey     []byte // ed25519

	Issuer string

	// RotateRefresh enables rotation-on-use: every successful refresh
	// revokes the presented refresh token and issues a replacement. When
	// disabled the refresh token is reused until natural expiry.
	RotateRefresh bool
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls the durable failed-attempt lockout policy.
// The counter itself lives on the credential record.
type LockoutConfig struct {
	// Threshold is the number of consecutive failed attempts that locks
	// the account. The attempt that reaches the threshold still reports
	// ErrInvalidCredentials; the lock is observed on the next attempt.
	Threshold int
	Duration  time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig carries Argon2id hashing parameters and the complexity
// policy applied to every new password.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
	RequireSymbol    bool

	// MaxRepeatRun rejects passwords containing a longer run of one
	// repeated character ("aaaa"). 0 disables the rule.
	MaxRepeatRun int

	// MaxSequentialRun rejects passwords containing a longer ascending or
	// descending character sequence ("abcd", "4321"). 0 disables the rule.
	MaxSequentialRun int
}

/*
====================================
VERIFICATION / RESET CONFIG
====================================
*/

// ResetConfig controls single-use verification and reset codes.
type ResetConfig struct {
	// VerificationCodeLength is the length of the uppercase alphanumeric
	// email verification code.
	VerificationCodeLength int

	// ResetTTL time-boxes password reset codes.
	ResetTTL time.Duration
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig controls the Redis denylist.
type RevocationConfig struct {
	// Prefix namespaces all registry keys.
	Prefix string

	// Timeout bounds every registry round-trip. On timeout the engine
	// fails closed.
	Timeout time.Duration
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds the optional Redis-backed login throttle, which
// runs in front of the durable per-account lockout counter.
type SecurityConfig struct {
	EnableLoginThrottle bool
	MaxLoginAttempts    int
	LoginCooldown       time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events under backpressure instead of blocking the
	// authentication path. Dropped counts are observable.
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a conservative baseline: 15m access tokens, 7d
// refresh tokens with rotation-on-use, a 5-attempt / 15-minute lockout,
// and OWASP-shaped password hashing parameters.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:         15 * time.Minute,
			RefreshTTL:        7 * 24 * time.Hour,
			PasswordChangeTTL: 10 * time.Minute,
			SigningMethod:     "hs256",
			RotateRefresh:     true,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  15 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:           64 * 1024,
			Time:             2,
			Parallelism:      2,
			SaltLength:       16,
			KeyLength:        32,
			MinLength:        10,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireDigit:     true,
			MaxRepeatRun:     3,
			MaxSequentialRun: 4,
		},
		Reset: ResetConfig{
			VerificationCodeLength: 6,
			ResetTTL:               30 * time.Minute,
		},
		Revocation: RevocationConfig{
			Prefix:  "rvk",
			Timeout: 2 * time.Second,
		},
		Security: SecurityConfig{
			EnableLoginThrottle: false,
			MaxLoginAttempts:    20,
			LoginCooldown:       time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations that would weaken the engine's
// guarantees. It runs during Build; validation failures are fatal at
// startup, never at request time.
func (c Config) Validate() error {
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token.AccessTTL must be positive")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token.RefreshTTL must be positive")
	}
	if c.Token.AccessTTL >= c.Token.RefreshTTL {
		return errors.New("Token.AccessTTL must be shorter than Token.RefreshTTL")
	}
	if c.Token.PasswordChangeTTL <= 0 {
		return errors.New("Token.PasswordChangeTTL must be positive")
	}
	switch c.Token.SigningMethod {
	case "hs256":
		if len(c.Token.Secret) < 32 {
			return errors.New("Token.Secret must be at least 32 bytes for hs256")
		}
	case "ed25519":
		if len(c.Token.PrivateKey) == 0 {
			return errors.New("Token.PrivateKey required for ed25519")
		}
	default:
		return errors.New("unsupported Token.SigningMethod")
	}
	if c.Lockout.Threshold < 1 {
		return errors.New("Lockout.Threshold must be at least 1")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("Lockout.Duration must be positive")
	}
	if c.Reset.VerificationCodeLength < 6 {
		return errors.New("Reset.VerificationCodeLength must be at least 6")
	}
	if c.Reset.ResetTTL <= 0 {
		return errors.New("Reset.ResetTTL must be positive")
	}
	if c.Revocation.Timeout <= 0 {
		return errors.New("Revocation.Timeout must be positive")
	}
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts < 1 {
			return errors.New("Security.MaxLoginAttempts must be at least 1")
		}
		if c.Security.LoginCooldown <= 0 {
			return errors.New("Security.LoginCooldown must be positive")
		}
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
