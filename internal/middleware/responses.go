package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

type errorResponse struct {
	Error string `json:"error"`
}

// WriteError answers htmx and JSON clients with a JSON envelope and browsers with plain text.
func WriteError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if IsHTMX(r.Context()) || strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
		return
	}
	http.Error(w, msg, code)
}
