package domain

import (
	"errors"
	"fmt"
)

// Error kinds raised by the core services. Callers match with errors.Is;
// the HTTP layer maps each kind to a status code and exposes Code as the
// machine-readable value.
var (
	ErrInsufficientBalance = &Error{Code: "INSUFFICIENT_BALANCE", Message: "Insufficient compliance units available"}
	ErrInvalidTransition   = &Error{Code: "INVALID_TRANSITION", Message: "Status transition not permitted"}
	ErrNotFound            = &Error{Code: "NOT_FOUND", Message: "Entity not found"}
	ErrConflict            = &Error{Code: "CONFLICT", Message: "Concurrent modification detected"}
	ErrValidation          = &Error{Code: "VALIDATION_FAILED", Message: "Validation failed"}
	ErrPermissionDenied    = &Error{Code: "PERMISSION_DENIED", Message: "Actor does not hold the required role"}
)

// Error is a stable, machine-readable core error. Wrapping an Error kind
// with extra detail keeps errors.Is matching against the sentinel.
type Error struct {
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any Error carrying the same code, so wrapped details still
// satisfy errors.Is(err, ErrValidation) etc.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WrapError attaches detail to a sentinel kind.
func WrapError(kind *Error, format string, args ...interface{}) error {
	return &Error{Code: kind.Code, Message: fmt.Sprintf(format, args...), cause: kind}
}

// ErrorCode extracts the stable code from an error chain, or "" if the
// error is not a core kind.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
