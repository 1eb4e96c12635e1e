// -----------------------------------------------------------------------------
// Application Errors
// -----------------------------------------------------------------------------
// Services and repositories return errors of a small set of kinds. The HTTP
// layer maps each kind to a status code (see response.FromError), so the
// lower layers never touch net/http.
//
//	return apperr.NotFound("no company: %s", handle)
//	...
//	if errors.Is(err, apperr.ErrNotFound) { ... }
// -----------------------------------------------------------------------------

package apperr

import (
	"errors"
	"fmt"

	"github.com/biyonik/jobly-api/pkg/sqlfrag"
)

// Sentinels, one per kind.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error carries a client-facing message and its kind.
type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches the error's kind sentinel.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *Error {
	return newError(ErrBadRequest, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return newError(ErrUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(ErrForbidden, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(ErrNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(ErrConflict, format, args...)
}

// Validation is a bad-request error with per-field messages.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: ErrBadRequest, Message: "validation failed", Fields: fields}
}

// IsBadRequest reports whether err should be answered with 400, including
// builder input errors.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest) || errors.Is(err, sqlfrag.ErrInvalidInput)
}
