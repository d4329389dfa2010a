// Package health implements the readiness probe: each dependency gets a
// Checker, and the ProbeRunner fans out over them with a per-check timeout.
package health

import (
	"context"
	"time"

	"github.com/moveout-labs/moveout-backend/internal/observability"
)

type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type Checker interface {
	Check(ctx context.Context) CheckResult
}

type ProbeRunner struct {
	checkers    []Checker
	timeout     time.Duration
	gracePeriod time.Duration
	startedAt   time.Time
}

// NewProbeRunner ignores nil checkers so callers can pass constructors that
// return nil for unconfigured dependencies.
func NewProbeRunner(timeout, gracePeriod time.Duration, checkers ...Checker) *ProbeRunner {
	if timeout <= 0 {
		timeout = time.Second
	}
	active := make([]Checker, 0, len(checkers))
	for _, c := range checkers {
		if c != nil {
			active = append(active, c)
		}
	}
	return &ProbeRunner{
		checkers:    active,
		timeout:     timeout,
		gracePeriod: gracePeriod,
		startedAt:   time.Now(),
	}
}

func (r *ProbeRunner) Ready(ctx context.Context) (bool, []CheckResult) {
	if r == nil {
		return true, nil
	}
	if r.gracePeriod > 0 && time.Since(r.startedAt) < r.gracePeriod {
		return false, []CheckResult{{Name: "startup_grace", Healthy: false, Error: "startup grace period active"}}
	}
	results := make([]CheckResult, 0, len(r.checkers))
	allHealthy := true
	for _, c := range r.checkers {
		checkCtx, cancel := context.WithTimeout(ctx, r.timeout)
		started := time.Now()
		res := c.Check(checkCtx)
		observability.RecordHealthCheckDuration(checkCtx, res.Name, time.Since(started))
		outcome := "healthy"
		if !res.Healthy {
			outcome = "unhealthy"
		}
		observability.RecordHealthCheckResult(checkCtx, res.Name, outcome)
		cancel()
		results = append(results, res)
		if !res.Healthy {
			allHealthy = false
		}
	}
	return allHealthy, results
}
