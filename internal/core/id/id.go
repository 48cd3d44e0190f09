// Package id provides UUIDv7 generation for contacts, custom fields and values.
//
// Every primary key in the CRM schema is a UUID created on the application
// side, so rows can be referenced (audit entries, custom values) before the
// insert commits.
package id

import (
	"github.com/google/uuid"
)

// ID is a type alias for UUID, so values pass straight to pgx and JSON.
// squirrel's Eq binds it through driver.Valuer, i.e. as its string form.
type ID = uuid.UUID

// New generates a time-ordered UUIDv7.
//
// The leading 48 bits are a millisecond timestamp, so ids sort by creation
// time and new rows land at the right edge of the primary key index. If the
// v7 generator fails (it reads crypto/rand), a random v4 id is returned.
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// IsNil checks if ID is zero-value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
