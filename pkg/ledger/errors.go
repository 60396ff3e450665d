package ledger

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("ledger is closed")

// StorageError reports a failed database operation.
type StorageError struct {
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger storage error [operation=%s]: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

func storageError(op string, cause error) *StorageError {
	return &StorageError{Operation: op, Cause: cause}
}
