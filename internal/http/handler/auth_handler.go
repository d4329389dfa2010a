package handler

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/moveout-labs/moveout-backend/internal/http/response"
	"github.com/moveout-labs/moveout-backend/internal/observability"
	"github.com/moveout-labs/moveout-backend/internal/service"
)

type AuthHandler struct {
	authSvc service.AuthService
}

func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid payload", nil)
		return
	}
	user, err := h.authSvc.Register(r.Context(), body.Email, body.Name, body.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.registered", "user_id", user.ID)
	response.JSON(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid payload", nil)
		return
	}
	user, pair, err := h.authSvc.Login(r.Context(), body.Email, body.Password, r.UserAgent(), clientIP(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	observability.Audit(r, "auth.login", "user_id", user.ID)
	response.JSON(w, r, http.StatusOK, map[string]any{"user": user, "tokens": pair})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid payload", nil)
		return
	}
	pair, err := h.authSvc.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, pair)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	// A missing body is fine: logout without a refresh token is a no-op.
	_ = json.NewDecoder(r.Body).Decode(&body)
	if err := h.authSvc.Logout(r.Context(), body.RefreshToken); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"status": "logged_out"})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, response.CodeBadRequest, "invalid payload", nil)
		return
	}
	if err := h.authSvc.VerifyEmail(r.Context(), body.Token); err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"status": "verified"})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
