package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyPosted is returned by SetIncidentPosted when the
	// de-duplication latch is already set. Publishing must treat this as
	// an idempotent no-op, never as a second alert.
	ErrAlreadyPosted = errors.New("incident already posted")
)
