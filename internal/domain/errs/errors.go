// Package errs defines the sentinel errors shared across all domain packages.
package errs

import "errors"

var (
	// ErrNotFound is returned when a resource is not found or its identifier is malformed.
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a unique constraint would be violated.
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput is returned when input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when credentials or tokens are missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the actor is not allowed to perform an action.
	ErrForbidden = errors.New("forbidden")

	// ErrNotAcceptable is returned when a single-use token is expired, invalid or already consumed.
	ErrNotAcceptable = errors.New("not acceptable")
)
