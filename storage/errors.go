package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a batch is not found.
	ErrNotFound = errors.New("batch not found")
)
