package repositories

import "errors"

var (
	// ErrNotFound is returned when no document matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional update lost a race with another writer.
	ErrConflict = errors.New("version conflict")
	// ErrDuplicateKey is returned when creating a document whose key already exists.
	ErrDuplicateKey = errors.New("duplicate key")
)
