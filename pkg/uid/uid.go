// Package uid generates request IDs and opaque prefixed tokens.
package uid

import (
	"strings"

	"github.com/google/uuid"
)

// New generates a new unique identifier.
func New() string {
	return uuid.New().String()
}

// IsValid checks if a string is a valid UUID.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Token returns prefix followed by 32 lowercase hex characters of a random UUID.
func Token(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsToken reports whether s is prefix followed by 32 hex characters.
func IsToken(s, prefix string) bool {
	rest, ok := strings.CutPrefix(s, prefix)
	if !ok || len(rest) != 32 {
		return false
	}
	return IsValid(rest)
}
