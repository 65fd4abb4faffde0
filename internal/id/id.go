// Package id provides identifier generation and parsing for library entities.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a random (version 4) UUID.
func New() uuid.UUID {
	return uuid.New()
}

// Parse parses s as a UUID. Surrounding braces, as written by some
// desktop toolkits, are accepted.
func Parse(s string) (uuid.UUID, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	if s == "" {
		return uuid.Nil, false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return u, true
}

// ParseOrNew parses s, falling back to a freshly generated UUID when s is
// empty or malformed.
func ParseOrNew(s string) uuid.UUID {
	if u, ok := Parse(s); ok {
		return u
	}
	return New()
}
