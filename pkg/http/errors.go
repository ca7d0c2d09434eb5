package http

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorResponse is the JSON shape for every rejection the gate emits.
// RemainingAttempts rides 401 responses; RetryAfter (seconds) rides 429.
type ErrorResponse struct {
	Error             string   `json:"error"`
	Details           []string `json:"details,omitempty"`
	RemainingAttempts *int     `json:"remainingAttempts,omitempty"`
	RetryAfter        *int     `json:"retryAfter,omitempty"`
}

// WriteError writes a JSON error response with the given status code
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteBadRequest writes a 400 with optional field-level details
func WriteBadRequest(w http.ResponseWriter, message string, details ...string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Details: details})
}

// WriteUnauthorized writes a plain 401 without attempt accounting
func WriteUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: message})
}

// WriteAuthFailure writes a 401 surfacing the attempt budget left in the
// current window
func WriteAuthFailure(w http.ResponseWriter, message string, remainingAttempts int) {
	if remainingAttempts < 0 {
		remainingAttempts = 0
	}
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: message, RemainingAttempts: &remainingAttempts})
}

// WriteTooManyRequests writes a 429 with retryAfter in both the body and
// the standard Retry-After header
func WriteTooManyRequests(w http.ResponseWriter, message string, retryAfterSeconds int) {
	if retryAfterSeconds < 1 {
		retryAfterSeconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: message, RetryAfter: &retryAfterSeconds})
}

// WriteInternalError writes a 500
func WriteInternalError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, statusCode int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Log-free best effort; encoding errors are not exposed to clients
	_ = json.NewEncoder(w).Encode(resp)
}
