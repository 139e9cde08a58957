package authengine

import (
	"errors"

	internalaudit "github.com/adminkit/authengine/internal/audit"
	"github.com/adminkit/authengine/internal/rate"
	"github.com/adminkit/authengine/password"
	"github.com/adminkit/authengine/revocation"
	"github.com/adminkit/authengine/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. The Redis client and credential store are
// injected explicitly; the engine never reaches for ambient globals or
// opens connections of its own.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	store     CredentialStore
	auditSink AuditSink
	built     bool
}

// New starts a Builder with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing the revocation registry and the
// optional login throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore sets the persistence adapter for credential records.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration and wires the engine. Configuration
// problems — above all a missing signing secret — fail here, at startup,
// never at request time.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.store == nil {
		return nil, errors.New("credential store required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(token.Config{
		SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
		Secret:        cfg.Token.Secret,
		PrivateKey:    cfg.Token.PrivateKey,
		PublicKey:     cfg.Token.PublicKey,
		Issuer:        cfg.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.HashConfig{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:   cfg,
		store:    b.store,
		codec:    codec,
		registry: revocation.New(b.redis, cfg.Revocation.Prefix, cfg.Revocation.Timeout),
		hasher:   hasher,
		policy: password.Policy{
			MinLength:        cfg.Password.MinLength,
			RequireUppercase: cfg.Password.RequireUppercase,
			RequireLowercase: cfg.Password.RequireLowercase,
			RequireDigit:     cfg.Password.RequireDigit,
			RequireSymbol:    cfg.Password.RequireSymbol,
			MaxRepeatRun:     cfg.Password.MaxRepeatRun,
			MaxSequentialRun: cfg.Password.MaxSequentialRun,
		},
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	if cfg.Security.EnableLoginThrottle {
		engine.throttle = rate.New(b.redis, rate.Config{
			MaxAttempts: cfg.Security.MaxLoginAttempts,
			Cooldown:    cfg.Security.LoginCooldown,
		})
	}

	b.built = true
	return engine, nil
}
