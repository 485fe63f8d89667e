// Package apperr defines the error taxonomy shared across PaperSync layers.
//
// Validation and not-found conditions are sentinel errors matched with
// errors.Is; transport failures carry a typed error with the operation
// name and, when available, an HTTP status code.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
)

// TransportError reports a failed network exchange with an external
// collaborator (scanner, GitHub, OCR provider).
type TransportError struct {
	Op      string // e.g. "escl: start scan"
	Status  int    // HTTP status code, 0 when unavailable
	Message string
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Transport builds a TransportError.
func Transport(op string, status int, message string) error {
	return &TransportError{Op: op, Status: status, Message: message}
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Validation wraps ErrValidation with a caller-facing message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
