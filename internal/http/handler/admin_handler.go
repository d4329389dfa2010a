package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/moveout-labs/moveout-backend/internal/http/response"
	"github.com/moveout-labs/moveout-backend/internal/observability"
	"github.com/moveout-labs/moveout-backend/internal/repository"
	"github.com/moveout-labs/moveout-backend/internal/service"
)

type AdminHandler struct {
	lifecycleSvc service.LifecycleService
}

func NewAdminHandler(lifecycleSvc service.LifecycleService) *AdminHandler {
	return &AdminHandler{lifecycleSvc: lifecycleSvc}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	caller, ok := callerFromRequest(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing auth context", nil)
		return
	}
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, err.Error(), nil)
		return
	}
	sortBy, sortOrder, err := parseSortParams(r, "created_at", map[string]struct{}{
		"id":            {},
		"created_at":    {},
		"updated_at":    {},
		"email":         {},
		"name":          {},
		"last_activity": {},
	})
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, err.Error(), nil)
		return
	}

	query := repository.UserListQuery{
		PageRequest: pageReq,
		SortBy:      sortBy,
		SortOrder:   sortOrder,
		Email:       strings.TrimSpace(r.URL.Query().Get("email")),
	}
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("active"))) {
	case "":
	case "true":
		active := true
		query.Active = &active
	case "false":
		active := false
		query.Active = &active
	default:
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "active must be true or false", nil)
		return
	}

	page, err := h.lifecycleSvc.ListAccounts(r.Context(), caller, query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.RecordAdminListRequestDuration(r.Context(), "users", "success", time.Since(started))
	observability.RecordAdminListPageSize(r.Context(), "users", pageReq.PageSize)
	response.JSON(w, r, http.StatusOK, paginatedData(page.Items, page.Page, page.PageSize, page.Total, page.TotalPages))
}

func (h *AdminHandler) SetAdminStatus(w http.ResponseWriter, r *http.Request) {
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
		IsAdmin *bool `json:"is_admin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsAdmin == nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "is_admin is required", nil)
		return
	}
	if err := h.lifecycleSvc.SetAdminStatus(r.Context(), caller, targetID, *body.IsAdmin); err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "admin.user.admin_status.changed", "target_user_id", targetID, "is_admin", *body.IsAdmin)
	response.JSON(w, r, http.StatusOK, map[string]any{"user_id": targetID, "is_admin": *body.IsAdmin})
}

func parsePageRequest(r *http.Request) (repository.PageRequest, error) {
	page := repository.DefaultPage
	pageSize := repository.DefaultPageSize
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page must be a positive integer")
		}
		page = v
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("page_size")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page_size must be a positive integer")
		}
		if v > repository.MaxPageSize {
			return repository.PageRequest{}, fmt.Errorf("page_size must be <= %d", repository.MaxPageSize)
		}
		pageSize = v
	}
	return repository.PageRequest{Page: page, PageSize: pageSize}, nil
}

func parseSortParams(r *http.Request, defaultField string, allowed map[string]struct{}) (string, string, error) {
	sortBy := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sort_by")))
	if sortBy == "" {
		sortBy = defaultField
	}
	if _, ok := allowed[sortBy]; !ok {
		return "", "", fmt.Errorf("invalid sort_by: %s", sortBy)
	}

	sortOrder := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sort_order")))
	if sortOrder == "" {
		sortOrder = "desc"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		return "", "", errors.New("sort_order must be asc or desc")
	}
	return sortBy, sortOrder, nil
}

func paginatedData[T any](items []T, page, pageSize int, total int64, totalPages int) map[string]any {
	return map[string]any{
		"items": items,
		"pagination": map[string]any{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": totalPages,
		},
	}
}
