package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPersonNotFound is returned when the authenticated person has no row.
	ErrPersonNotFound = errors.New("person not found")
	// ErrQuestionNotFound indicates a submitted question ID does not resolve.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrValidation covers malformed or missing submission fields.
	ErrValidation = errors.New("invalid submission")
	// ErrCatalogEmpty indicates the question catalog has no questions.
	ErrCatalogEmpty = errors.New("question catalog is empty")
)

// StorageError wraps a storage-layer failure crossing the engine boundary.
// Callers see the operation name; the cause stays server-side.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError tags err with the failing operation.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
