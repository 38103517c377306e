// Package idempotency mints the tokens sent in the Idempotency-Key header.
package idempotency

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// Header is the request header carrying the token.
const Header = "Idempotency-Key"

var v4Pattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// Issuer produces one token per user-initiated submission. Automatic retries of
// that submission must reuse the token instead of asking for a new one.
type Issuer interface {
	NewKey() (string, error)
}

// UUIDIssuer issues random version-4 UUIDs.
type UUIDIssuer struct{}

// NewKey returns a fresh random token.
func (UUIDIssuer) NewKey() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate idempotency key: %w", err)
	}
	return id.String(), nil
}

// Valid reports whether key is a lowercase canonical version-4 UUID.
func Valid(key string) bool {
	return v4Pattern.MatchString(key)
}
