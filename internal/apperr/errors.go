// Package apperr defines the domain error taxonomy shared by services and
// HTTP handlers. Every error carries a stable machine-readable kind and a
// human-readable detail; handlers map kinds to HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind classifies an error for clients and for HTTP status mapping.
type Kind string

const (
	KindValidation     Kind = "validation_error"
	KindConflict       Kind = "conflict"
	KindAuthentication Kind = "authentication_error"
	KindAuthorization  Kind = "authorization_error"
	KindNotFound       Kind = "not_found"
	KindRateLimited    Kind = "rate_limit_exceeded"
	KindInternal       Kind = "internal"
)

// Error is a classified domain error. Violations is non-empty only for
// validation errors that report several failed rules at once.
type Error struct {
	Kind       Kind
	Detail     string
	Violations []string
	err        error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return string(e.Kind)
}

// Unwrap exposes the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.err }

// Validation returns a validation error listing every violated rule.
func Validation(violations ...string) *Error {
	return &Error{
		Kind:       KindValidation,
		Detail:     strings.Join(violations, "; "),
		Violations: violations,
	}
}

// Conflict returns a conflict error (duplicate email/username and similar).
func Conflict(detail string) *Error {
	return &Error{Kind: KindConflict, Detail: detail}
}

// Authentication returns an authentication error. The detail is deliberately
// uniform for bad credentials and bad tokens.
func Authentication(detail string) *Error {
	return &Error{Kind: KindAuthentication, Detail: detail}
}

// Authorization returns an insufficient-privilege error.
func Authorization(detail string) *Error {
	return &Error{Kind: KindAuthorization, Detail: detail}
}

// NotFound returns a missing-record error.
func NotFound(detail string) *Error {
	return &Error{Kind: KindNotFound, Detail: detail}
}

// RateLimited returns a too-many-requests error.
func RateLimited(detail string) *Error {
	return &Error{Kind: KindRateLimited, Detail: detail}
}

// Internal wraps an unanticipated error. The wrapped cause is kept for
// logging but never shown to clients.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Detail: "internal server error", err: err}
}

// From returns the *Error in err's chain, or an internal error wrapping err.
// From(nil) returns nil.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus maps the error kind to its HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
