// Package core holds the small HTTP plumbing shared by all feature modules:
// JSON encoding/decoding and the error-to-status mapping at the pipeline
// boundary.
package core

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the standard JSON error body.
type ErrorResponse struct {
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes a JSON error body with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Message: message})
}

// ValidationError writes a 400 with field-level details.
func ValidationError(w http.ResponseWriter, details map[string][]string) {
	JSON(w, http.StatusBadRequest, ErrorResponse{
		Message: "validation failed",
		Details: details,
	})
}

// DecodeJSON reads the request body into v, rejecting unknown fields so
// typos in client payloads surface as errors instead of silently dropped
// data.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
