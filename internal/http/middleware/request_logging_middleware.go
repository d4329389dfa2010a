package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// StructuredRequestLogger emits one slog line per request so request logs
// ride the same OTel-enriched logging path as the rest of the app.
func StructuredRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		routePattern := ""
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			routePattern = routeCtx.RoutePattern()
		}

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"route", routePattern,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"client_ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		}
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			attrs = append(attrs, "user_id", claims.UserID)
		}

		if status >= http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "http.request", attrs...)
			return
		}
		slog.InfoContext(r.Context(), "http.request", attrs...)
	})
}
