package errors

import (
	"errors"
	"fmt"
)

// ValidationError represents client input that was rejected before any
// mutation happened: unknown category, unparseable date, missing field.
// HTTP handlers map it to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NewValidation creates a ValidationError for a field.
func NewValidation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation checks whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PersistenceError represents a failed write of the data file. The in-memory
// state the caller observed before the write is preserved by the store, so
// the operation can be reported as a clean 500 and retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistence wraps err as a PersistenceError for the given operation.
func NewPersistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence checks whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
