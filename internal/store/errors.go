package store

import "errors"

var (
	// ErrStorageUnavailable marks failures of the underlying engine: the
	// database could not be opened, or a read or write failed.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound is returned by Read when no event has the requested id.
	ErrNotFound = errors.New("event not found")

	// ErrInvalidDetails is returned when an event's details payload is not valid JSON.
	ErrInvalidDetails = errors.New("details is not valid JSON")
)
