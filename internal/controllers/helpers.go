// -----------------------------------------------------------------------------
// Controllers
// -----------------------------------------------------------------------------
// Controllers are thin: decode the request, call one service method, write
// the envelope. All rules live in the services; all error-to-status mapping
// lives in response.FromError.
// -----------------------------------------------------------------------------

package controllers

import (
	"net/http"

	"github.com/biyonik/jobly-api/internal/http/request"
	"github.com/biyonik/jobly-api/internal/http/response"
)

// listMeta is the meta block of list responses.
type listMeta struct {
	Count int `json:"count"`
}

// fail writes err through response.FromError.
func fail(w http.ResponseWriter, r *request.Request, err error) {
	response.FromError(w, r.Request, err)
}
