// Package id provides UUIDv7 generation for all entities.
// UUIDv7 is time-ordered, so IDs issued later compare greater.
package id

import (
	"bytes"

	"github.com/google/uuid"
)

// ID is a type alias for UUID, used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7, falling back to V4 if the clock source fails.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
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

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}

// Compare orders IDs bytewise, which for UUIDv7 is issue order.
func Compare(a, b ID) int {
	return bytes.Compare(a[:], b[:])
}

// Ptr returns nil for the zero ID, a pointer otherwise.
func Ptr(v ID) *ID {
	if IsNil(v) {
		return nil
	}
	return &v
}
