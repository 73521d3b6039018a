// Package service provides business logic for the chat platform.
package service

import "errors"

// Sentinel errors mapped to HTTP statuses by the handler layer.
var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("invalid input")

	// ErrConflict indicates a duplicate identity field.
	ErrConflict = errors.New("already exists")

	// ErrUnauthorized indicates bad credentials.
	ErrUnauthorized = errors.New("bad credentials")

	// ErrNotFound indicates an unknown user or conversation.
	ErrNotFound = errors.New("not found")

	// ErrQuotaExceeded indicates the daily message quota was reached.
	ErrQuotaExceeded = errors.New("daily message limit reached")
)
