// -----------------------------------------------------------------------------
// JSON Responses
// -----------------------------------------------------------------------------
// Every response body is the same envelope:
//
//	{"success": true,  "data": {...}, "meta": {...}}
//	{"success": false, "error": "no company: acme"}
//	{"success": false, "error": "validation failed", "errors": {"name": "is required"}}
// -----------------------------------------------------------------------------

package response

import (
	"net/http"

	"github.com/goccy/go-json"
)

// JSONResponse is the response envelope.
type JSONResponse struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Meta    any               `json:"meta,omitempty"`
}

// Send writes payload with status.
func Send(w http.ResponseWriter, status int, payload JSONResponse) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// Success writes a successful envelope. meta may be nil.
//
// Example:
//
//	response.Success(w, http.StatusOK, companies, map[string]int{"count": len(companies)})
func Success(w http.ResponseWriter, status int, data any, meta any) error {
	return Send(w, status, JSONResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// OK is Success with 200 and no meta.
func OK(w http.ResponseWriter, data any) error {
	return Success(w, http.StatusOK, data, nil)
}

// Created is Success with 201 and no meta.
func Created(w http.ResponseWriter, data any) error {
	return Success(w, http.StatusCreated, data, nil)
}

// Error writes a failed envelope with message.
func Error(w http.ResponseWriter, status int, message string) error {
	return Send(w, status, JSONResponse{Success: false, Error: message})
}
