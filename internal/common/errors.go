// Package common defines shared constants and sentinel errors used across
// Digivault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Auth errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidToken       = errors.New("invalid session token")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Encryption errors. ErrDecrypt covers ciphertext that cannot be opened
	// under the supplied key, including records written under a different
	// master key than the current session's.
	ErrDecrypt = errors.New("cannot decrypt")

	// Share token lifecycle errors.
	ErrShareNotFound   = errors.New("share not found")
	ErrShareExpired    = errors.New("share expired")
	ErrShareViewLimit  = errors.New("share view limit reached")
	ErrShareInvalidKey = errors.New("invalid share key")

	// Validation errors (oversized document, malformed share parameters, etc.).
	ErrValidation = errors.New("validation error")
)
