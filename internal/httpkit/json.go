// Package httpkit holds small HTTP helpers shared by every service in the
// constellation (JSON decode/encode, client IP extraction).
package httpkit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// DecodeJSON decodes JSON from the request body with strict validation:
// unknown fields are rejected so handlers never silently ignore a typo'd
// or malicious field.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("json_encode_failed", "error", err)
	}
}

// RespondError writes a generic error body. Error bodies never include
// tenant identifiers, emails, or token fragments.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}
