package storage

import "errors"

// Storage errors for append-only stores.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists. Append-only stores do not allow updates.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable is returned when the backing store cannot be reached;
	// callers retry with bounded backoff per the DEPENDENCY error kind.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrIntegrityMismatch is returned when re-hashed bytes do not match the
	// hash under which they were stored; always fatal to the current run.
	ErrIntegrityMismatch = errors.New("integrity mismatch: stored bytes do not match content hash")
)
