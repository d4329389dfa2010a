package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moveout-labs/moveout-backend/internal/http/response"
	"github.com/moveout-labs/moveout-backend/internal/observability"
	"github.com/moveout-labs/moveout-backend/internal/service"
)

type UserHandler struct {
	lifecycleSvc service.LifecycleService
	activitySvc  service.ActivityService
}

func NewUserHandler(lifecycleSvc service.LifecycleService, activitySvc service.ActivityService) *UserHandler {
	return &UserHandler{lifecycleSvc: lifecycleSvc, activitySvc: activitySvc}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	user, err := h.lifecycleSvc.Get(r.Context(), caller, caller.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}

// RecordActivity bumps the caller's last activity timestamp. Clients ping
// this on meaningful interactions; it is idempotent.
func (h *UserHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	if err := h.activitySvc.Record(r.Context(), caller); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"status": "recorded"})
}

// SetActivation deactivates or reactivates the target account depending on
// the is_active flag in the body.
func (h *UserHandler) SetActivation(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	targetID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid user id", nil)
		return
	}
	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsActive == nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "is_active is required", nil)
		return
	}

	if *body.IsActive {
		err = h.lifecycleSvc.Reactivate(r.Context(), caller, targetID)
	} else {
		err = h.lifecycleSvc.Deactivate(r.Context(), caller, targetID)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "user.activation.changed", "target_user_id", targetID, "is_active", *body.IsActive)
	response.JSON(w, r, http.StatusOK, map[string]any{"user_id": targetID, "is_active": *body.IsActive})
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	targetID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid user id", nil)
		return
	}
	if err := h.lifecycleSvc.Delete(r.Context(), caller, targetID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "user.deleted", "target_user_id", targetID)
	response.JSON(w, r, http.StatusOK, map[string]any{"user_id": targetID, "status": "deleted"})
}
