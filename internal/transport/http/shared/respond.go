// Package shared holds the JSON response helpers every handler goes
// through, so success envelopes and error translation stay uniform across
// the transport layer.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "membergate/pkg/domain-errors"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// WriteError translates a domain error into its HTTP status and envelope.
// Errors without a code come out as 500 with a generic message so internals
// never leak to the client.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), ErrorBody{
		Error:   string(code),
		Message: dErrors.MessageOf(err),
	})
}
