package core

import "errors"

// Common errors. Adapters and services wrap these with %w so callers can
// match them with errors.Is.
var (
	ErrNotFound           = errors.New("record not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("record already exists")
	ErrReadOnly           = errors.New("repository is in read-only mode")
)
