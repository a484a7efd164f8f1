package store

import "errors"

var (
	// ErrNotFound is returned when no valid entry exists for a key. Expired
	// entries are reported as not found even if not yet physically reclaimed.
	ErrNotFound = errors.New("cache entry not found")

	// ErrUnavailable is returned when the backing store cannot be reached.
	// Callers are expected to degrade rather than fail the whole request.
	ErrUnavailable = errors.New("cache store unavailable")
)
