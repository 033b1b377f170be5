// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error reason.
type Kind string

const (
	KindAuthenticationRequired Kind = "AUTHENTICATION_REQUIRED"
	KindForbidden              Kind = "FORBIDDEN"
	KindNotFound               Kind = "NOT_FOUND"
	KindValidation             Kind = "VALIDATION_ERROR"
	KindConflict               Kind = "CONFLICT"
	KindInsufficientStock      Kind = "INSUFFICIENT_STOCK"
	KindUpstream               Kind = "UPSTREAM_ERROR"
	KindInternal               Kind = "INTERNAL_ERROR"
)

// Error carries a Kind, a message that is safe to show to clients and an
// optional cause that is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func AuthenticationRequired(message string) error { return New(KindAuthenticationRequired, message) }
func Forbidden(message string) error              { return New(KindForbidden, message) }
func NotFound(message string) error               { return New(KindNotFound, message) }
func Validation(message string) error             { return New(KindValidation, message) }
func Conflict(message string) error               { return New(KindConflict, message) }
func InsufficientStock(message string) error      { return New(KindInsufficientStock, message) }

// Upstream marks a failure of the payment processor. Callers may retry.
func Upstream(message string, err error) error { return Wrap(KindUpstream, message, err) }

// Internal marks an unexpected failure, usually from the database.
func Internal(message string, err error) error { return Wrap(KindInternal, message, err) }

// KindOf reports the Kind of err. Errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the client-facing message for err. Internal details of
// unclassified errors are never exposed.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInternal {
		return ae.Message
	}
	return "internal server error"
}
