package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Sentinel errors for protocol and server operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMalformedFrame indicates an inbound frame that is not valid JSON
	// or does not carry a recognised kind.
	ErrMalformedFrame = errors.New("api: malformed frame")

	// ErrBindFailed wraps a listener bind failure; the server stays stopped.
	ErrBindFailed = errors.New("api: bind failed")
)

// WebSocket close codes. Application close codes must be in the 4000
// range, so the HTTP-style classes are offset into it.
const (
	// CloseProtocolError is sent for malformed frames and duplicate peers.
	CloseProtocolError = 4400

	// CloseAuthError is sent when a session fails authentication.
	CloseAuthError = 4401
)

// HTTP-style response codes carried in resp frames.
const (
	CodeOK           = 200
	CodeUnauthorized = 401
	CodeNotFound     = 404
	CodeConflict     = 409
)

// httpError represents a structured error response on the REST mirror.
type httpError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, httpError{
		Status:  status,
		Code:    code,
		Message: message,
	})
}
