package notes

import (
	"fmt"
	"strings"
)

// FieldViolation describes one rejected input field.
type FieldViolation struct {
	Field  string
	Reason string
}

// ValidationError reports every field constraint an input broke.
type ValidationError struct {
	Violations []FieldViolation
}

func newValidationError(violations []FieldViolation) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// StorageError marks a fault raised by the persistence layer. The in-flight
// operation has been rolled back by the time it is returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
