// Package common defines shared constants and sentinel errors used across
// the account service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Credential / validation errors.
	ErrWrongCredential   = errors.New("wrong credentials")
	ErrMissingCredential = errors.New("missing credentials")

	// Registration errors. ErrUserDoesNotExist is an internal signal: the
	// login flow folds it into ErrWrongCredential before a client sees it.
	ErrUserAlreadyExist = errors.New("user already exists")
	ErrUserDoesNotExist = errors.New("user does not exist")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
