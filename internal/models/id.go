package models

import (
	"strings"

	"github.com/google/uuid"
)

// ID is the canonical identity of users, photos and comments. The same value
// travels through the session token, the database and ownership checks.
type ID string

// NewID mints a fresh random identity.
func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID canonicalizes untrusted input (route params, token subjects).
func ParseID(raw string) (ID, error) {
	u, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", NewValidationError("Invalid ID")
	}
	return ID(u.String()), nil
}

func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the identity is unset.
func (id ID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Canonical returns the normalized string form used for comparisons.
func (id ID) Canonical() string {
	return strings.ToLower(strings.TrimSpace(string(id)))
}

// Equal compares two identities by canonical form. Unset identities never match.
func (id ID) Equal(other ID) bool {
	if id.IsZero() || other.IsZero() {
		return false
	}
	return id.Canonical() == other.Canonical()
}
