package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/moveout-labs/moveout-backend/internal/health"
	"github.com/moveout-labs/moveout-backend/internal/http/handler"
	"github.com/moveout-labs/moveout-backend/internal/http/middleware"
	"github.com/moveout-labs/moveout-backend/internal/http/response"
	"github.com/moveout-labs/moveout-backend/internal/security"
)

// requestTimeout bounds every API operation; anything slower than this is a
// bug, not a feature.
const requestTimeout = 30 * time.Second

type Dependencies struct {
	AuthHandler  *handler.AuthHandler
	UserHandler  *handler.UserHandler
	AdminHandler *handler.AdminHandler
	BoxHandler   *handler.BoxHandler
	JWTManager   *security.JWTManager

	CORSOrigins      []string
	APIRateLimitRPM  int
	AuthRateLimitRPM int

	// ActivityRateWindow throttles the activity ping to one request per
	// user per window.
	ActivityRateWindow time.Duration

	// Optional distributed limiters. When nil, per-process fallbacks apply.
	GlobalRateLimiter   func(http.Handler) http.Handler
	AuthRateLimiter     func(http.Handler) http.Handler
	ActivityRateLimiter func(http.Handler) http.Handler

	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	r.Use(chimiddleware.Timeout(requestTimeout))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewDistributedRateLimiter(
			middleware.NewLocalFixedWindowLimiter(), dep.APIRateLimitRPM, time.Minute, middleware.FailOpen, "api").Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	}
	activityLimiter := dep.ActivityRateLimiter
	if activityLimiter == nil {
		window := dep.ActivityRateWindow
		if window <= 0 {
			window = 30 * time.Second
		}
		activityLimiter = middleware.NewRateLimiter(1, window, "activity").
			WithKeyFunc(middleware.UserKey).Middleware()
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.JSON(w, r, http.StatusServiceUnavailable, map[string]any{"status": "unready", "checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter)
			r.Post("/register", dep.AuthHandler.Register)
			r.Post("/login", dep.AuthHandler.Login)
			r.Post("/refresh", dep.AuthHandler.Refresh)
			r.Post("/logout", dep.AuthHandler.Logout)
			r.Post("/verify-email", dep.AuthHandler.VerifyEmail)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(dep.JWTManager))

			r.Get("/me", dep.UserHandler.Me)
			r.With(activityLimiter).Post("/me/activity", dep.UserHandler.RecordActivity)

			r.Post("/users/{id}/activation", dep.UserHandler.SetActivation)
			r.Delete("/users/{id}", dep.UserHandler.DeleteUser)

			r.Route("/boxes", func(r chi.Router) {
				r.Post("/", dep.BoxHandler.CreateBox)
				r.Get("/", dep.BoxHandler.ListBoxes)
				r.Get("/{id}", dep.BoxHandler.GetBox)
				r.Put("/{id}", dep.BoxHandler.UpdateBox)
				r.Delete("/{id}", dep.BoxHandler.DeleteBox)
				// Media uploads need a higher body limit than the 1MB default.
				r.With(middleware.BodyLimit(12 << 20)).Post("/{id}/contents", dep.BoxHandler.AddContent)
				r.With(middleware.BodyLimit(12 << 20)).Put("/{id}/design", dep.BoxHandler.SetDesign)
				r.Get("/{id}/design/url", dep.BoxHandler.DesignURL)
				r.Get("/{id}/contents/{contentID}/url", dep.BoxHandler.ContentURL)
			})
			r.Delete("/contents/{contentID}", dep.BoxHandler.DeleteContent)

			r.Route("/labels", func(r chi.Router) {
				r.Post("/", dep.BoxHandler.CreateLabel)
				r.Get("/", dep.BoxHandler.ListLabels)
				r.Delete("/{id}", dep.BoxHandler.DeleteLabel)
			})
			r.Route("/contacts", func(r chi.Router) {
				r.Post("/", dep.BoxHandler.AddContact)
				r.Get("/", dep.BoxHandler.ListContacts)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/users", dep.AdminHandler.ListUsers)
				r.Patch("/users/{id}/admin", dep.AdminHandler.SetAdminStatus)
			})
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
