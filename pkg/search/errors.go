package search

import (
	"errors"
	"fmt"
)

// Common errors returned by search clients.
var (
	// ErrNotFound is returned when a document is not present in the index.
	ErrNotFound = errors.New("document not found in search index")

	// ErrBackendUnavailable is returned when the search backend cannot be
	// reached.
	ErrBackendUnavailable = errors.New("search backend unavailable")

	// ErrIndexingFailed is returned when the backend rejects a write.
	ErrIndexingFailed = errors.New("failed to index document")

	// ErrInvalidDocument is returned when a document cannot be sent, for
	// example because it has no objectID.
	ErrInvalidDocument = errors.New("invalid document")
)

// Error wraps a client error with the operation that produced it.
type Error struct {
	Op  string // Operation that failed, e.g. "SaveObjects".
	Err error  // Underlying error.
	Msg string // Optional context.
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
