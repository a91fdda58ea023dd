// Package apperrors defines the error taxonomy shared across the service.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a connection does not exist or was soft-deleted.
	ErrNotFound = errors.New("connection not found")
	// ErrDuplicateName is returned when an active connection already uses the name.
	ErrDuplicateName = errors.New("connection name already in use")
	// ErrUnknownConnectorType is returned on a registry miss.
	ErrUnknownConnectorType = errors.New("unknown connector type")
	// ErrDecryptionFailed is returned when stored parameters cannot be decrypted
	// (corrupted ciphertext or wrong key). Fatal for the record, never for the process.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or wrong key")
)

// ValidationError reports a missing or malformed connection parameter.
// It is the caller's fault; retrying without changing the input will not help.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid parameter %q", e.Field)
	}
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// MissingParam is shorthand for the most common validation failure.
func MissingParam(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "required parameter is missing"}
}

// ConnectionError wraps a backend-specific connectivity or authentication
// failure. Transient from the caller's perspective; the service never
// retries automatically.
type ConnectionError struct {
	Backend string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s connection failed: %v", e.Backend, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// NewConnectionError wraps err as a ConnectionError for the named backend.
func NewConnectionError(backend string, err error) *ConnectionError {
	return &ConnectionError{Backend: backend, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConnection reports whether err is (or wraps) a ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}
