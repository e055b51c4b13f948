package types

import "errors"

// Store errors. Callers test with errors.Is; the store wraps these with the
// entity or path that failed.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidState    = errors.New("invalid state")
	ErrIOFailure       = errors.New("storage operation failed")
	ErrVersionMismatch = errors.New("metadata version mismatch")
	ErrClosed          = errors.New("metastore is closed")
)
