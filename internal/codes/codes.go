// Package codes generates the single-use secrets handed to users out of
// band: short verification codes and opaque reset tokens.
package codes

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Uppercase alphanumerics without lookalikes would shrink the space too
// much for short codes; the full A-Z 0-9 set keeps 36^n combinations.
const verificationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewVerificationCode returns a short uppercase alphanumeric code such as
// "ABC123", suitable for manual entry from an email.
func NewVerificationCode(length int) (string, error) {
	if length < 6 || length > 32 {
		return "", errors.New("invalid verification code length")
	}

	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(verificationAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(verificationAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NewResetToken returns an opaque single-use token for password reset
// links. UUIDv4 gives 122 bits of entropy and a copy-paste friendly shape.
func NewResetToken() string {
	return uuid.NewString()
}
