package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application failure for HTTP mapping.
type Kind int

const (
	Validation Kind = iota + 1
	Authentication
	Forbidden
	Conflict
	NotFound
	Storage
)

// Error carries a kind plus a message safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap keeps the underlying cause for logging while exposing only message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or Storage when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Storage
}

// MessageOf returns the client-safe message of err. Unexpected errors get
// a generic message so driver details never leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// StatusCode maps a kind to its HTTP status.
func StatusCode(err error) int {
	switch KindOf(err) {
	case Validation:
		return 400
	case Authentication:
		return 401
	case Forbidden:
		return 403
	case NotFound:
		return 404
	case Conflict:
		return 409
	default:
		return 500
	}
}
