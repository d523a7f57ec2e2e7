// Package domain defines the descriptor model, result types, typed errors,
// and the admin gateway port for the MongoDB tech adapter.
package domain

import (
	"fmt"
	"strings"
)

// ValidationError indicates an invalid request or descriptor. It is always
// returned before any side effect takes place.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string { return strings.Join(e.Errors, "; ") }

// ErrValidation creates a ValidationError with a single formatted message.
func ErrValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Errors: []string{fmt.Sprintf(format, args...)}}
}

// SystemError indicates an unrecoverable fault while executing an operation.
type SystemError struct {
	Message string
}

func (e *SystemError) Error() string { return e.Message }

// ErrSystem creates a SystemError with a formatted message.
func ErrSystem(format string, args ...any) *SystemError {
	return &SystemError{Message: fmt.Sprintf(format, args...)}
}

// ServiceError is the single fault type raised by the admin gateway. The
// orchestration layer converts it to a SystemError at its boundary; callers
// never inspect finer-grained database error subtypes.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

// ErrService creates a ServiceError with a formatted message.
func ErrService(format string, args ...any) *ServiceError {
	return &ServiceError{Message: fmt.Sprintf(format, args...)}
}
