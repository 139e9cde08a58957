// Package token implements the stateless token codec: creation and
// verification of signed, expiring JWTs carrying a subject, a token type,
// and a unique token ID. It performs no I/O beyond a clock read; liveness
// against the revocation registry is the engine's job.
package token

import (
	"crypto/ed25519"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Type discriminates what a token may be used for. Verification requires
// the expected type to match exactly; an access token is never accepted at
// the refresh endpoint or vice versa.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
	// TypePasswordChange is the restricted token issued when login
	// succeeds against an account flagged for a forced password change.
	// It is accepted only by the change-password operation.
	TypePasswordChange Type = "password_change"
)

var (
	// ErrInvalidToken covers malformed tokens and signature mismatches.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for well-formed tokens past exp.
	ErrExpiredToken = errors.New("token expired")
	// ErrWrongTokenType is returned when the typ claim does not match the
	// expected type.
	ErrWrongTokenType = errors.New("wrong token type")
)

// SigningMethod selects the signature algorithm.
type SigningMethod string

const (
	MethodHS256   SigningMethod = "hs256"
	MethodEd25519 SigningMethod = "ed25519"
)

// Config for NewCodec. Misconfiguration fails construction; a built Codec
// never fails to sign.
type Config struct {
	SigningMethod SigningMethod
	Secret        []byte // hs256
	PrivateKey    []byte // ed25519
	PublicKey     []byte // ed25519; derived from PrivateKey when empty
	Issuer        string
	Leeway        time.Duration
}

// Claims is the decoded claim set of an engine token.
type Claims struct {
	Subject   Subject
	TokenType Type
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// PairedTokenID is the token ID of the companion token minted in the
	// same pair, when one exists. A refresh token carries its access
	// token's ID so revoking the session can revoke both.
	PairedTokenID string
}

// Subject is the opaque user identifier carried in the sub claim.
type Subject = string

type wireClaims struct {
	TokenType string `json:"typ"`
	// ian carries the issuance instant at nanosecond precision. The
	// registered iat claim only has whole-second resolution, which is too
	// coarse to order a token against a user-level revocation instant
	// recorded in the same second.
	IssuedAtNanos int64 `json:"ian,omitempty"`
	// pid links a token to its pair companion's jti.
	PairedID string `json:"pid,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies engine tokens. Safe for concurrent use.
type Codec struct {
	config  Config
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

// NewCodec validates the key material up front so that a missing or short
// secret is a startup failure, not a request-time one.
func NewCodec(cfg Config) (*Codec, error) {
	c := &Codec{config: cfg}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.Secret) < 32 {
			return nil, errors.New("hs256 requires a secret of at least 32 bytes")
		}
	case MethodEd25519:
		priv, err := parseEdPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		c.private = priv
		if len(cfg.PublicKey) > 0 {
			pub, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			c.public = pub
		} else {
			c.public = priv.Public().(ed25519.PublicKey)
		}
	default:
		return nil, errors.New("unsupported signing method")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return c, nil
}

// Issue creates a signed token of the given type for subject with the given
// lifetime. The token ID (jti) is the unit of revocation.
func (c *Codec) Issue(subject Subject, typ Type, ttl time.Duration) (string, *Claims, error) {
	return c.issue(subject, typ, ttl, "")
}

// IssueLinked is Issue with the companion token's ID embedded, so that a
// later revocation of this token can take the companion down with it.
func (c *Codec) IssueLinked(subject Subject, typ Type, ttl time.Duration, pairedID string) (string, *Claims, error) {
	return c.issue(subject, typ, ttl, pairedID)
}

func (c *Codec) issue(subject Subject, typ Type, ttl time.Duration, pairedID string) (string, *Claims, error) {
	now := time.Now()
	claims := Claims{
		Subject:       subject,
		TokenType:     typ,
		TokenID:       uuid.NewString(),
		IssuedAt:      now,
		ExpiresAt:     now.Add(ttl),
		PairedTokenID: pairedID,
	}

	wire := wireClaims{
		TokenType:     string(typ),
		IssuedAtNanos: now.UnixNano(),
		PairedID:      pairedID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        claims.TokenID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
			Issuer:    c.config.Issuer,
		},
	}

	tok := jwt.NewWithClaims(c.method(), wire)
	signed, err := tok.SignedString(c.signKey())
	if err != nil {
		return "", nil, err
	}
	return signed, &claims, nil
}

// Verify checks signature, expiry, and token type, in that order of
// precedence: a bad signature is ErrInvalidToken even if also expired.
func (c *Codec) Verify(tokenStr string, want Type) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &wireClaims{}, func(t *jwt.Token) (interface{}, error) {
		return c.verifyKey(), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	wire, ok := tok.Claims.(*wireClaims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if wire.Subject == "" || wire.ID == "" || wire.IssuedAt == nil || wire.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	if Type(wire.TokenType) != want {
		return nil, ErrWrongTokenType
	}

	issuedAt := wire.IssuedAt.Time
	if wire.IssuedAtNanos > 0 {
		issuedAt = time.Unix(0, wire.IssuedAtNanos)
	}

	return &Claims{
		Subject:       wire.Subject,
		TokenType:     Type(wire.TokenType),
		TokenID:       wire.ID,
		IssuedAt:      issuedAt,
		ExpiresAt:     wire.ExpiresAt.Time,
		PairedTokenID: wire.PairedID,
	}, nil
}

func (c *Codec) method() jwt.SigningMethod {
	if c.config.SigningMethod == MethodEd25519 {
		return jwt.SigningMethodEdDSA
	}
	return jwt.SigningMethodHS256
}

func (c *Codec) signKey() interface{} {
	if c.config.SigningMethod == MethodEd25519 {
		return c.private
	}
	return c.config.Secret
}

func (c *Codec) verifyKey() interface{} {
	if c.config.SigningMethod == MethodEd25519 {
		return c.public
	}
	return c.config.Secret
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
