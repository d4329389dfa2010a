package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/moveout-labs/moveout-backend/internal/domain"
	"github.com/moveout-labs/moveout-backend/internal/service"
)

type stubAuthSvc struct {
	registerFn func(email, name, password string) (*domain.User, error)
	loginFn    func(email, password string) (*domain.User, *service.TokenPair, error)
	refreshFn  func(token string) (*service.TokenPair, error)
	logoutFn   func(token string) error
	verifyFn   func(token string) error
}

func (s *stubAuthSvc) Register(_ context.Context, email, name, password string) (*domain.User, error) {
	if s.registerFn != nil {
		return s.registerFn(email, name, password)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAuthSvc) Login(_ context.Context, email, password, _, _ string) (*domain.User, *service.TokenPair, error) {
	if s.loginFn != nil {
		return s.loginFn(email, password)
	}
	return nil, nil, errors.New("not implemented")
}

func (s *stubAuthSvc) Refresh(_ context.Context, token string) (*service.TokenPair, error) {
	if s.refreshFn != nil {
		return s.refreshFn(token)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAuthSvc) Logout(_ context.Context, token string) error {
	if s.logoutFn != nil {
		return s.logoutFn(token)
	}
	return nil
}

func (s *stubAuthSvc) VerifyEmail(_ context.Context, token string) error {
	if s.verifyFn != nil {
		return s.verifyFn(token)
	}
	return errors.New("not implemented")
}

func TestAuthHandlerRegister(t *testing.T) {
	t.Run("invalid payload", func(t *testing.T) {
		h := NewAuthHandler(&stubAuthSvc{})
		rr := httptest.NewRecorder()
		h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{not json")))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("email taken maps to 409", func(t *testing.T) {
		h := NewAuthHandler(&stubAuthSvc{registerFn: func(email, name, password string) (*domain.User, error) {
			return nil, service.ErrEmailTaken
		}})
		rr := httptest.NewRecorder()
		h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
			strings.NewReader(`{"email":"a@b.c","name":"A","password":"longenough1"}`)))
		if rr.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rr.Code)
		}
		if code := decodeErrCode(t, rr); code != "CONFLICT" {
			t.Fatalf("expected CONFLICT, got %s", code)
		}
	})

	t.Run("success", func(t *testing.T) {
		h := NewAuthHandler(&stubAuthSvc{registerFn: func(email, name, password string) (*domain.User, error) {
			return &domain.User{ID: 1, Email: email, Name: name, IsActive: true}, nil
		}})
		rr := httptest.NewRecorder()
		h.Register(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
			strings.NewReader(`{"email":"a@b.c","name":"A","password":"longenough1"}`)))
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rr.Code)
		}
	})
}

func TestAuthHandlerLogin(t *testing.T) {
	t.Run("bad credentials map to 401", func(t *testing.T) {
		h := NewAuthHandler(&stubAuthSvc{loginFn: func(email, password string) (*domain.User, *service.TokenPair, error) {
			return nil, nil, service.ErrInvalidCredentials
		}})
		rr := httptest.NewRecorder()
		h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
			strings.NewReader(`{"email":"a@b.c","password":"nope"}`)))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("success returns tokens", func(t *testing.T) {
		h := NewAuthHandler(&stubAuthSvc{loginFn: func(email, password string) (*domain.User, *service.TokenPair, error) {
			return &domain.User{ID: 1, Email: email},
				&service.TokenPair{AccessToken: "acc", RefreshToken: "ref", ExpiresIn: 900}, nil
		}})
		rr := httptest.NewRecorder()
		h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
			strings.NewReader(`{"email":"a@b.c","password":"longenough1"}`)))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		body := rr.Body.String()
		if !strings.Contains(body, `"access_token":"acc"`) || !strings.Contains(body, `"refresh_token":"ref"`) {
			t.Fatalf("tokens missing from body %s", body)
		}
	})
}

func TestAuthHandlerRefresh(t *testing.T) {
	t.Run("invalid token maps to 401", func(t *testing.T) {
		h := NewAuthHandler(&stubAuthSvc{refreshFn: func(token string) (*service.TokenPair, error) {
			return nil, service.ErrUnauthenticated
		}})
		rr := httptest.NewRecorder()
		h.Refresh(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh",
			strings.NewReader(`{"refresh_token":"stale"}`)))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		h := NewAuthHandler(&stubAuthSvc{refreshFn: func(token string) (*service.TokenPair, error) {
			if token != "good" {
				t.Fatalf("unexpected token %q", token)
			}
			return &service.TokenPair{AccessToken: "acc2", RefreshToken: "ref2"}, nil
		}})
		rr := httptest.NewRecorder()
		h.Refresh(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh",
			strings.NewReader(`{"refresh_token":"good"}`)))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})
}

func TestAuthHandlerVerifyEmail(t *testing.T) {
	t.Run("bad token maps to 400", func(t *testing.T) {
		h := NewAuthHandler(&stubAuthSvc{verifyFn: func(token string) error {
			return service.ErrInvalidVerificationToken
		}})
		rr := httptest.NewRecorder()
		h.VerifyEmail(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify-email",
			strings.NewReader(`{"token":"stale"}`)))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		h := NewAuthHandler(&stubAuthSvc{verifyFn: func(token string) error {
			if token != "good" {
				t.Fatalf("unexpected token %q", token)
			}
			return nil
		}})
		rr := httptest.NewRecorder()
		h.VerifyEmail(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify-email",
			strings.NewReader(`{"token":"good"}`)))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	})
}

func TestAuthHandlerLogoutIgnoresMissingBody(t *testing.T) {
	h := NewAuthHandler(&stubAuthSvc{logoutFn: func(token string) error {
		if token != "" {
			t.Fatalf("expected empty token, got %q", token)
		}
		return nil
	}})
	rr := httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
