// Package security holds the token and password primitives behind sessions,
// login cookies and password resets.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// TokenBytes is the entropy of session and login cookie tokens.
	TokenBytes = 32
	// ResetCodeDigits is the length of a password reset code.
	ResetCodeDigits = 6
)

var resetCodeSpace = big.NewInt(1_000_000)

// NewToken returns a random bearer token as lowercase hex.
func NewToken() (string, error) {
	raw := make([]byte, TokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// HashToken returns the sha256 hex fingerprint stored in place of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokenMatches compares a presented token against a stored fingerprint in
// constant time.
func TokenMatches(token, storedHash string) bool {
	presented := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(storedHash)) == 1
}

// NewIdentifier returns a UUIDv4 in 32 character hex form without dashes.
func NewIdentifier() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewSeriesIdentifier returns the stable identifier of a remember-me series.
func NewSeriesIdentifier() string {
	return NewIdentifier()
}

// NewResetCode returns a uniformly random zero-padded six digit code and its
// integer value.
func NewResetCode() (string, int, error) {
	n, err := rand.Int(rand.Reader, resetCodeSpace)
	if err != nil {
		return "", 0, fmt.Errorf("generate reset code: %w", err)
	}
	value := int(n.Int64())
	return fmt.Sprintf("%0*d", ResetCodeDigits, value), value, nil
}
