package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/moveout-labs/moveout-backend/internal/http/response"
	"github.com/moveout-labs/moveout-backend/internal/observability"
	"github.com/moveout-labs/moveout-backend/internal/security"
)

type contextKey string

const ClaimsContextKey contextKey = "claims"

// AuthMiddleware validates the bearer access token and stores its claims in
// the request context.
func AuthMiddleware(jwtMgr *security.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				observability.RecordAccessTokenValidation(r.Context(), "missing")
				response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing access token", nil)
				return
			}
			claims, err := jwtMgr.Verify(raw)
			if err != nil {
				observability.RecordAccessTokenValidation(r.Context(), "invalid")
				response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "invalid access token", nil)
				return
			}
			observability.RecordAccessTokenValidation(r.Context(), "ok")
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates admin-only routes. Must run after AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing access token", nil)
			return
		}
		if !claims.IsAdmin {
			response.Error(w, r, http.StatusForbidden, response.CodeForbidden, "admin privileges required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	return c, ok
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
