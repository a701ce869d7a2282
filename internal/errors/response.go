package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON error format returned to callers. The gateway
// only inspects the status code; the body carries a human-readable message
// plus optional safe detail for top-level failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSON writes the error response with the status derived from code.
func WriteJSON(w http.ResponseWriter, code ErrorCode, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code.HTTPStatus())
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteError writes an error response with just a message.
func WriteError(w http.ResponseWriter, code ErrorCode, message string) {
	WriteJSON(w, code, ErrorResponse{Error: message})
}

// WriteErrorWithDetails writes an error response carrying extra safe detail.
func WriteErrorWithDetails(w http.ResponseWriter, code ErrorCode, message, details string) {
	WriteJSON(w, code, ErrorResponse{Error: message, Details: details})
}
