// Package errors holds the HTTP error contract: stable codes, safe messages
// and the mapping from domain errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/socialgate/internal/http/services/auth"
	"github.com/dropDatabas3/socialgate/internal/jwt"
	"github.com/dropDatabas3/socialgate/internal/providers"
	"github.com/dropDatabas3/socialgate/internal/store"
)

// AppError is the error shape returned to clients.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // cause, for logs only
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New creates an AppError.
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// WithDetail returns a copy with detail set. Predefined errors stay untouched.
func (e *AppError) WithDetail(detail string) *AppError {
	c := *e
	c.Detail = detail
	return &c
}

// WithCause returns a copy carrying err as cause.
func (e *AppError) WithCause(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

// FromError maps domain errors to AppErrors. Anything unknown is internal.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	switch {
	case err == nil:
		return ErrInternalServerError
	case stderrors.Is(err, providers.ErrUnsupportedProvider):
		return ErrUnsupportedProvider.WithCause(err)
	case stderrors.Is(err, store.ErrConflict):
		return ErrEmailConflict.WithCause(err)
	case stderrors.Is(err, auth.ErrUnauthorized):
		return ErrUnauthorized.WithCause(err)
	case stderrors.Is(err, jwt.ErrInvalidToken):
		return ErrTokenInvalid.WithCause(err)
	case stderrors.Is(err, providers.ErrUpstreamAuth):
		return ErrUpstream.WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "The request is malformed or missing parameters.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Required fields are missing.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrUnsupportedProvider = &AppError{
		Code:       "UNSUPPORTED_PROVIDER",
		Message:    "The identity provider is not supported.",
		HTTPStatus: http.StatusBadRequest,
	}
)

var (
	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Authentication failed.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenMissing = &AppError{
		Code:       "TOKEN_MISSING",
		Message:    "A bearer token is required.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenInvalid = &AppError{
		Code:       "TOKEN_INVALID",
		Message:    "The token is invalid or expired.",
		HTTPStatus: http.StatusUnauthorized,
	}
)

var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "The resource does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "Method not allowed.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrEmailConflict = &AppError{
		Code:       "EMAIL_CONFLICT",
		Message:    "This email is already registered with another provider.",
		HTTPStatus: http.StatusConflict,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests. Try again later.",
		HTTPStatus: http.StatusTooManyRequests,
	}
)

var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "An internal error occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrUpstream = &AppError{
		Code:       "UPSTREAM_ERROR",
		Message:    "The identity provider could not be reached.",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "The service is temporarily unavailable.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
