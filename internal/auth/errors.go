package auth

import "errors"

// Auth errors. Use errors.Is() to check for these in calling code.
var (
	// ErrInvalidClient is returned when the presented client ID does not
	// match the configured one.
	ErrInvalidClient = errors.New("auth: invalid client")

	// ErrInvalidRedirect is returned for missing or disallowed redirect URIs.
	ErrInvalidRedirect = errors.New("auth: invalid redirect URI")

	// ErrUnauthorized is returned for absent, malformed, unknown, or
	// expired bearer tokens.
	ErrUnauthorized = errors.New("auth: unauthorised")

	// ErrGrantNotFound is returned when no grant exists for an ID or hash.
	ErrGrantNotFound = errors.New("auth: grant not found")
)
