// Package response defines the JSON envelope every handler writes. Success
// payloads go under "data", failures under "error" with a stable machine
// readable code.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Error codes returned by the API.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL"
)

type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type Envelope struct {
	Data      any        `json:"data,omitempty"`
	Error     *ErrorBody `json:"error,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	write(w, r, status, Envelope{Data: data, RequestID: chimiddleware.GetReqID(r.Context())})
}

func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]string) {
	write(w, r, status, Envelope{
		Error:     &ErrorBody{Code: code, Message: message, Details: details},
		RequestID: chimiddleware.GetReqID(r.Context()),
	})
}

func write(w http.ResponseWriter, r *http.Request, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.ErrorContext(r.Context(), "write response", "error", err)
	}
}
