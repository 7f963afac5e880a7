// Package helpers holds small request/response utilities shared by controllers.
package helpers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
// The scheme is case-insensitive. Returns "" when absent.
func BearerToken(r *http.Request) string {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(ah) < len("bearer ") || !strings.EqualFold(ah[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(ah[len("bearer "):])
}
