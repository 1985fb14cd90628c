package httpapi

import (
	"encoding/json"
	"net/http"
)

// Error represents a standardized API error payload.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Envelope is the standard response wrapper for API endpoints.
type Envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// OKEnvelope builds a success response.
func OKEnvelope(data json.RawMessage) Envelope {
	return Envelope{OK: true, Data: data}
}

// ErrorEnvelope builds an error response.
func ErrorEnvelope(code, message string, retryable bool) Envelope {
	return Envelope{OK: false, Error: &Error{Code: code, Message: message, Retryable: retryable}}
}

// WriteJSON writes a JSON response with proper headers.
func WriteJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// WriteOK marshals data and writes a success response.
func WriteOK(w http.ResponseWriter, status int, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternal, err.Error(), false)
		return
	}
	WriteJSON(w, status, OKEnvelope(raw))
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, code, message string, retryable bool) {
	WriteJSON(w, status, ErrorEnvelope(code, message, retryable))
}

const (
	ErrInvalidRequest    = "invalid_request"
	ErrUnauthorized      = "unauthorized"
	ErrNotFound          = "not_found"
	ErrConflict          = "conflict"
	ErrDraftLocked       = "draft_locked"
	ErrInsufficientFunds = "insufficient_funds"
	ErrRateLimited       = "rate_limited"
	ErrInternal          = "internal_error"
)
