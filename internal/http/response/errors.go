package response

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/biyonik/jobly-api/internal/apperr"
	"github.com/biyonik/jobly-api/pkg/sqlfrag"
	"github.com/biyonik/jobly-api/pkg/validation"
)

// Status maps an error to its HTTP status. Anything unclassified is 500.
func Status(err error) int {
	var result *validation.Result
	switch {
	case errors.As(err, &result), apperr.IsBadRequest(err):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err as an error envelope. Client errors carry their own
// message; server errors are logged with the request logger and answered
// with a generic one.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	payload := JSONResponse{Success: false, Error: err.Error()}

	var (
		result   *validation.Result
		appErr   *apperr.Error
		inputErr *sqlfrag.InputError
	)
	switch {
	case errors.As(err, &result):
		payload.Error = "validation failed"
		payload.Errors = result.Fields()
	case errors.As(err, &appErr) && appErr.Fields != nil:
		payload.Errors = appErr.Fields
	case errors.As(err, &inputErr) && inputErr.Key != "":
		msg := inputErr.Message
		if inputErr.Err != nil {
			msg = inputErr.Err.Error()
		}
		payload.Errors = map[string]string{inputErr.Key: msg}
	}

	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		payload.Error = "internal server error"
		payload.Errors = nil
	}

	_ = Send(w, status, payload)
}

func BadRequest(w http.ResponseWriter, message string) {
	_ = Error(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "unauthorized"
	}
	_ = Error(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "forbidden"
	}
	_ = Error(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "not found"
	}
	_ = Error(w, http.StatusNotFound, message)
}

func MethodNotAllowed(w http.ResponseWriter) {
	_ = Error(w, http.StatusMethodNotAllowed, "method not allowed")
}

func TooManyRequests(w http.ResponseWriter) {
	_ = Error(w, http.StatusTooManyRequests, "too many requests")
}
