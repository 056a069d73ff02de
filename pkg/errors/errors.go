package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of failure classes surfaced to clients.
type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindNotFound
	KindAuth
)

// String returns a stable label used in logs.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	default:
		return "server"
	}
}

// Status maps the kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Kind    Kind   `json:"-"`
	Code    string `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Status returns the HTTP status for the error kind.
func (e *Error) Status() int {
	if e == nil {
		return http.StatusOK
	}
	return e.Kind.Status()
}

// Is matches errors sharing the same code so sentinels survive Clone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// Internal wraps an unexpected failure. The cause is kept for logs only.
func Internal(err error, context string) *Error {
	return &Error{Kind: KindServer, Code: ErrInternal.Code, Message: ErrInternal.Message, Err: fmt.Errorf("%s: %w", context, err)}
}

// ServerMessage is the fixed message clients see for unexpected failures.
const ServerMessage = "Server error!"

// Predefined errors for common scenarios.
var (
	ErrValidation        = New(KindValidation, "VALIDATION_ERROR", "validation failed")
	ErrNotFound          = New(KindNotFound, "NOT_FOUND", "resource not found")
	ErrUnauthorized      = New(KindAuth, "UNAUTHORIZED", "unauthorized")
	ErrMissingAuthHeader = New(KindAuth, "AUTH_HEADER_MISSING", "Authorization header missing")
	ErrInvalidAuthFormat = New(KindValidation, "AUTH_FORMAT_INVALID", "Invalid token format")
	ErrTokenExpired      = New(KindAuth, "TOKEN_EXPIRED", "Token expired")
	ErrTokenInvalid      = New(KindAuth, "TOKEN_INVALID", "Invalid token")
	ErrSecretMissing     = New(KindServer, "SECRET_MISSING", "Token secret key not configured")
	ErrInvalidCredential = New(KindValidation, "INVALID_CREDENTIALS", "Invalid Credentials!")
	ErrDuplicate         = New(KindValidation, "DUPLICATE", "resource already exists")
	ErrInternal          = New(KindServer, "INTERNAL_ERROR", ServerMessage)
	ErrCacheMiss         = New(KindNotFound, "CACHE_MISS", "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, KindServer, ErrInternal.Code, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return kind == KindServer
	}
	return e.Kind == kind
}
