package domain

import (
	"errors"
	"fmt"
)

// Common sentinels shared across repo/service layers for stable error mapping.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the actor lacks the required role for the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput indicates the request is invalid (missing or malformed fields).
	ErrInvalidInput = errors.New("invalid input")
)

// CapacityExceededError is returned when a fork is attempted against a source
// collection whose item count exceeds the configured limit. It carries the
// actual count so callers can report it.
type CapacityExceededError struct {
	Count int
	Limit int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("collection has %d items, exceeding the fork limit of %d", e.Count, e.Limit)
}
