package errors

import (
	"encoding/json"
	"net/http"
)

// HTTPBody is the JSON shape written by WriteHTTP.
type HTTPBody struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// HTTPStatus returns the HTTP status for any error.
// Errors that are not *Error map to 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return GetCode(err).HTTPStatus()
}

// WriteHTTP writes err as a JSON error response.
func WriteHTTP(w http.ResponseWriter, err error) {
	body := HTTPBody{
		Code:    GetCode(err),
		Message: GetMessage(err),
		Meta:    GetMeta(err),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(body)
}
