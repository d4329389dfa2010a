package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLocalFixedWindowLimiterAllowAndDeny(t *testing.T) {
	limiter := NewLocalFixedWindowLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, "k", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("request %d unexpectedly denied", i)
		}
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "k", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if allowed {
		t.Fatal("expected denial over limit")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Fatalf("retry-after out of range: %v", retryAfter)
	}

	// Separate keys do not share a window.
	if allowed, _, _ := limiter.Allow(ctx, "other", 3, time.Minute); !allowed {
		t.Fatal("distinct key unexpectedly denied")
	}
}

func TestRateLimiterMiddlewareRejectsWith429(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, "test")
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
}

type erroringLimiter struct{}

func (erroringLimiter) Allow(context.Context, string, int, time.Duration) (bool, time.Duration, error) {
	return false, 0, errors.New("backend down")
}

func TestRateLimiterFailureModes(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	open := NewDistributedRateLimiter(erroringLimiter{}, 1, time.Minute, FailOpen, "test")
	rr := httptest.NewRecorder()
	open.Middleware()(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("fail-open status = %d, want 200", rr.Code)
	}

	closed := NewDistributedRateLimiter(erroringLimiter{}, 1, time.Minute, FailClosed, "test")
	rr = httptest.NewRecorder()
	closed.Middleware()(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("fail-closed status = %d, want 429", rr.Code)
	}
}

func TestUserKeyBucketsPerUser(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, "activity").WithKeyFunc(UserKey)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func(userID uint) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req = req.WithContext(context.WithValue(req.Context(), ClaimsContextKey, claimsFor(userID)))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if got := request(1); got != http.StatusOK {
		t.Fatalf("user 1 first request = %d", got)
	}
	if got := request(1); got != http.StatusTooManyRequests {
		t.Fatalf("user 1 second request = %d, want 429", got)
	}
	// Same IP, different user: separate bucket.
	if got := request(2); got != http.StatusOK {
		t.Fatalf("user 2 first request = %d, want 200", got)
	}
}
