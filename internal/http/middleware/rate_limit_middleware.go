package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/moveout-labs/moveout-backend/internal/http/response"
	"github.com/moveout-labs/moveout-backend/internal/observability"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

type FailureMode string

const (
	// FailOpen lets traffic through when the limiter backend is down. Used
	// for the general API limit where availability wins.
	FailOpen FailureMode = "fail_open"
	// FailClosed rejects when the backend is down. Used for auth endpoints.
	FailClosed FailureMode = "fail_closed"
)

// KeyFunc derives the rate limit bucket key from a request.
type KeyFunc func(r *http.Request) string

type RateLimiter struct {
	limiter Limiter
	limit   int
	window  time.Duration
	mode    FailureMode
	scope   string
	keyFn   KeyFunc
}

func NewRateLimiter(limit int, window time.Duration, scope string) *RateLimiter {
	return NewDistributedRateLimiter(NewLocalFixedWindowLimiter(), limit, window, FailClosed, scope)
}

func NewDistributedRateLimiter(limiter Limiter, limit int, window time.Duration, mode FailureMode, scope string) *RateLimiter {
	if scope == "" {
		scope = "api"
	}
	return &RateLimiter{
		limiter: limiter,
		limit:   limit,
		window:  window,
		mode:    mode,
		scope:   scope,
		keyFn:   ClientIPKey,
	}
}

// WithKeyFunc replaces the default client IP bucketing. The activity endpoint
// uses this to throttle per authenticated user instead of per address.
func (rl *RateLimiter) WithKeyFunc(fn KeyFunc) *RateLimiter {
	if fn != nil {
		rl.keyFn = fn
	}
	return rl
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.keyFn(r)
			allowed, retryAfter, err := rl.limiter.Allow(r.Context(), key, rl.limit, rl.window)
			if err != nil {
				if rl.mode == FailOpen {
					observability.RecordRateLimitDecision(r.Context(), rl.scope, "error_allow", string(rl.mode))
					slog.WarnContext(r.Context(), "rate limiter backend unavailable, allowing request",
						"scope", rl.scope, "error", err.Error())
					next.ServeHTTP(w, r)
					return
				}
				observability.RecordRateLimitDecision(r.Context(), rl.scope, "error_deny", string(rl.mode))
				w.Header().Set("Retry-After", retryAfterHeader(rl.window))
				response.Error(w, r, http.StatusTooManyRequests, response.CodeRateLimited, "too many requests", nil)
				return
			}
			if !allowed {
				observability.RecordRateLimitDecision(r.Context(), rl.scope, "deny", string(rl.mode))
				observability.RecordRateLimitRetryAfter(r.Context(), rl.scope, retryAfter)
				w.Header().Set("Retry-After", retryAfterHeader(retryAfter))
				response.Error(w, r, http.StatusTooManyRequests, response.CodeRateLimited, "too many requests", nil)
				return
			}
			observability.RecordRateLimitDecision(r.Context(), rl.scope, "allow", string(rl.mode))
			next.ServeHTTP(w, r)
		})
	}
}

type fixedWindow struct {
	count       int
	windowStart time.Time
}

type localFixedWindowLimiter struct {
	mu      sync.Mutex
	store   map[string]*fixedWindow
	cleanup time.Time
}

func NewLocalFixedWindowLimiter() Limiter {
	return &localFixedWindowLimiter{
		store:   make(map[string]*fixedWindow),
		cleanup: time.Now().Add(time.Minute),
	}
}

func (l *localFixedWindowLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.cleanup) {
		for k, v := range l.store {
			if now.Sub(v.windowStart) > 2*window {
				delete(l.store, k)
			}
		}
		l.cleanup = now.Add(window)
	}

	entry, ok := l.store[key]
	if !ok || now.Sub(entry.windowStart) >= window {
		l.store[key] = &fixedWindow{count: 1, windowStart: now}
		return true, 0, nil
	}
	if entry.count >= limit {
		retryAfter := window - now.Sub(entry.windowStart)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter, nil
	}
	entry.count++
	return true, 0, nil
}

func ClientIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// UserKey buckets by authenticated user, falling back to client IP for
// unauthenticated requests.
func UserKey(r *http.Request) string {
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		return fmt.Sprintf("u:%d", claims.UserID)
	}
	return ClientIPKey(r)
}

func retryAfterHeader(d time.Duration) string {
	if d <= 0 {
		return "1"
	}
	seconds := int(d.Round(time.Second).Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return fmt.Sprintf("%d", seconds)
}
