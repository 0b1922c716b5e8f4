// Package ident generates identifiers for basket items and planned meals.
package ident

import (
	"github.com/google/uuid"
)

// New returns a time-ordered unique identifier (UUIDv7: millisecond
// timestamp followed by random bits).
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
