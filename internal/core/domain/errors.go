package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Two DomainErrors are equal under errors.Is when their codes match.
type DomainError struct {
	Code    string // Error code (e.g., "SK-CONF-5000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with fmt.Sprintf formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first DomainError in err's chain, or ""
// when there is none.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Sentinel errors. Codes are SK-<area>-<number>; errors sharing a code
// match each other under errors.Is.
var (
	// ErrConfiguration indicates an invalid or unusable configuration. It
	// is raised while building a driver, before any storage I/O.
	ErrConfiguration = NewDomainError("SK-CONF-5000", "invalid configuration")
	// ErrUnsupportedDriver indicates the configured driver name is unknown.
	ErrUnsupportedDriver = NewDomainError("SK-CONF-5000", "unsupported driver")
	// ErrInvalidKey indicates the encryption key has the wrong size or encoding.
	ErrInvalidKey = NewDomainError("SK-CONF-5000", "invalid encryption key")

	// ErrStorageIO indicates a failure talking to the backing store. The
	// in-memory session is not rolled back.
	ErrStorageIO = NewDomainError("SK-STOR-5030", "storage i/o error")

	// ErrDecryption indicates a stored payload could not be decrypted.
	ErrDecryption = NewDomainError("SK-CRYP-4220", "decryption failed")

	// ErrSessionNotFound reports an unknown id to command-line callers.
	// Store reads of a missing id return an empty payload instead.
	ErrSessionNotFound = NewDomainError("SK-SESS-4040", "session not found")
	// ErrDriverClosed indicates an operation on a closed driver.
	ErrDriverClosed = NewDomainError("SK-SESS-4090", "driver closed")

	ErrInvalidArgument = NewDomainError("SK-ARG-1001", "invalid argument")
)
