// Package httpapi is the HTTP surface of the configurator: commands are
// accepted as actions and acknowledged with 202, queries read the store.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// errorBody is the payload of every non-2xx response. RequestID echoes the
// X-Request-Id header so a client can correlate the failure with the logs.
type errorBody struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSONError writes code (a stable snake_case identifier) and optional
// human readable details with the given status.
func WriteJSONError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, errorBody{
		Error:     code,
		Details:   details,
		RequestID: w.Header().Get("X-Request-Id"),
	})
}
