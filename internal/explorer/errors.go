package explorer

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/conduit-lang/marvelous/internal/endpoint"
	"github.com/conduit-lang/marvelous/internal/params"
	"github.com/conduit-lang/marvelous/internal/query"
	"github.com/conduit-lang/marvelous/internal/transport"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func renderError(w http.ResponseWriter, status int, err error) {
	renderJSON(w, status, &ErrorResponse{
		Error:   "error",
		Message: err.Error(),
		Code:    errorCodeFromStatus(status),
	})
}

// renderQueryError maps query failures to HTTP statuses: caller mistakes are
// 400, upstream failures 502, and upstream 404s stay 404.
func renderQueryError(w http.ResponseWriter, err error) {
	var verr *params.ValidationError
	if errors.As(err, &verr) {
		renderJSON(w, http.StatusBadRequest, &ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
			Code:    "validation_error",
			Fields:  verr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, endpoint.ErrInvalidEndpoint), errors.Is(err, endpoint.ErrInvalidURI):
		renderError(w, http.StatusBadRequest, err)
	case errors.Is(err, query.ErrEmptyResult):
		renderError(w, http.StatusNotFound, err)
	case errors.Is(err, query.ErrRequestFailed):
		var apiErr *transport.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			renderError(w, http.StatusNotFound, err)
			return
		}
		renderError(w, http.StatusBadGateway, err)
	default:
		renderError(w, http.StatusInternalServerError, err)
	}
}

func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusBadGateway:
		return "bad_gateway"
	default:
		return "internal_error"
	}
}
