// Package httpx provides the JSON response envelope shared by every handler.
package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Envelope is the response body every endpoint returns. Data is present on
// success; Message and ErrorDetails describe failures.
type Envelope struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	Data         any    `json:"data,omitempty"`
	ErrorDetails string `json:"errorDetails,omitempty"`
}

// JSON sends an arbitrary payload with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK sends a success envelope wrapping data.
func OK(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Fail sends a failure envelope.
func Fail(w http.ResponseWriter, status int, message, details string) {
	JSON(w, status, Envelope{Success: false, Message: message, ErrorDetails: details})
}

// DecodeJSON decodes the request body into target. Malformed bodies map to
// a validation failure rather than a server error.
func DecodeJSON(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", ErrValidation, err)
	}
	return nil
}
