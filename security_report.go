package authengine

import "time"

// SecurityReport summarizes the security-relevant configuration of a built
// engine, for startup logging and operational review. It contains no
// secrets.
type SecurityReport struct {
	SigningAlgorithm       string
	AccessTTL              time.Duration
	RefreshTTL             time.Duration
	PasswordChangeTTL      time.Duration
	Argon2                 PasswordConfigReport
	PasswordMinLength      int
	RefreshRotationEnabled bool
	LockoutThreshold       int
	LockoutDuration        time.Duration
	LoginThrottleActive    bool
	AuditEnabled           bool
	MetricsEnabled         bool
}

type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	throttling := e.config.Security.EnableLoginThrottle &&
		e.config.Security.MaxLoginAttempts > 0 &&
		e.config.Security.LoginCooldown > 0

	return SecurityReport{
		SigningAlgorithm:  string(e.config.Token.SigningMethod),
		AccessTTL:         e.config.Token.AccessTTL,
		RefreshTTL:        e.config.Token.RefreshTTL,
		PasswordChangeTTL: e.config.Token.PasswordChangeTTL,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		PasswordMinLength:      e.config.Password.MinLength,
		RefreshRotationEnabled: e.config.Token.RotateRefresh,
		LockoutThreshold:       e.config.Lockout.Threshold,
		LockoutDuration:        e.config.Lockout.Duration,
		LoginThrottleActive:    throttling,
		AuditEnabled:           e.config.Audit.Enabled,
		MetricsEnabled:         e.config.Metrics.Enabled,
	}
}
