// Package handler translates HTTP requests into service calls and service
// errors back into the JSON envelope.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/moveout-labs/moveout-backend/internal/http/middleware"
	"github.com/moveout-labs/moveout-backend/internal/http/response"
	"github.com/moveout-labs/moveout-backend/internal/service"
)

func callerFromRequest(r *http.Request) (service.Caller, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return service.Caller{}, false
	}
	return service.Caller{UserID: claims.UserID, IsAdmin: claims.IsAdmin}, true
}

func parsePathID(input string) (uint, error) {
	id64, err := strconv.ParseUint(input, 10, 64)
	if err != nil || id64 == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id64), nil
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Anything unrecognized is a 500 with a generic message so internals never
// leak to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "authentication required", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "invalid email or password", nil)
	case errors.Is(err, service.ErrPermissionDenied):
		response.Error(w, r, http.StatusForbidden, response.CodeForbidden, "permission denied", nil)
	case errors.Is(err, service.ErrNotFound):
		response.Error(w, r, http.StatusNotFound, response.CodeNotFound, "resource not found", nil)
	case errors.Is(err, service.ErrInvalidArgument):
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid request", nil)
	case errors.Is(err, service.ErrEmailTaken):
		response.Error(w, r, http.StatusConflict, response.CodeConflict, "email already registered", nil)
	case errors.Is(err, service.ErrInvalidVerificationToken):
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid or expired verification token", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, response.CodeInternal, "internal error", nil)
	}
}
