package entity

import "errors"

// Gateway errors. Use errors.Is() to check for these in calling code.
var (
	// ErrNotFound is returned when no entity exists with the requested ID.
	ErrNotFound = errors.New("entity: not found")

	// ErrUnsupported is returned when an entity cannot perform the
	// requested action.
	ErrUnsupported = errors.New("entity: action not supported")

	// ErrUnavailable is returned when the registry cannot be reached or
	// did not acknowledge an action within the deadline.
	ErrUnavailable = errors.New("entity: registry unavailable")
)
