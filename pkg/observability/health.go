package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Status is the state of one check or of the whole service.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check is a named readiness probe. Run reports a status and a short
// human-readable message.
type Check struct {
	Name    string
	Run     func(ctx context.Context) (Status, string)
	Timeout time.Duration
}

// ProviderState describes whether a registered provider can be called.
type ProviderState struct {
	ID           string `json:"id"`
	Credentialed bool   `json:"credentialed"`
}

// Health aggregates the checks served on /health and /health/ready.
type Health struct {
	version string
	started time.Time

	mu     sync.RWMutex
	checks []*Check
}

// Report is the body of /health.
type Report struct {
	Status     Status                 `json:"status"`
	Version    string                 `json:"version"`
	Uptime     string                 `json:"uptime"`
	Goroutines int                    `json:"goroutines"`
	Checks     map[string]CheckResult `json:"checks"`
}

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Status   Status `json:"status"`
	Message  string `json:"message"`
	Duration string `json:"duration"`
}

// NewHealth creates an empty health registry for the given build version.
func NewHealth(version string) *Health {
	if version == "" {
		version = "dev"
	}
	return &Health{version: version, started: time.Now()}
}

// Register adds a check. A later check with the same name replaces it.
func (h *Health) Register(c *Check) {
	if c.Timeout <= 0 {
		c.Timeout = time.Second
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.checks {
		if existing.Name == c.Name {
			h.checks[i] = c
			return
		}
	}
	h.checks = append(h.checks, c)
}

// Evaluate runs every check. The overall status is the worst of them.
func (h *Health) Evaluate(ctx context.Context) Report {
	h.mu.RLock()
	checks := append([]*Check(nil), h.checks...)
	h.mu.RUnlock()

	report := Report{
		Status:     StatusHealthy,
		Version:    h.version,
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Checks:     make(map[string]CheckResult, len(checks)),
	}
	for _, c := range checks {
		res := runCheck(ctx, c)
		report.Checks[c.Name] = res
		report.Status = worse(report.Status, res.Status)
	}
	return report
}

func runCheck(ctx context.Context, c *Check) CheckResult {
	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	type outcome struct {
		status Status
		msg    string
	}
	done := make(chan outcome, 1)
	go func() {
		s, m := c.Run(cctx)
		done <- outcome{s, m}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-cctx.Done():
		out = outcome{StatusUnhealthy, fmt.Sprintf("check timed out: %v", cctx.Err())}
	}
	return CheckResult{Status: out.status, Message: out.msg, Duration: time.Since(start).String()}
}

func worse(a, b Status) Status {
	rank := map[Status]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// HealthHandler serves the full report. Degraded still answers 200.
func (h *Health) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Evaluate(r.Context())
		status := http.StatusOK
		if report.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeHealthJSON(w, status, report)
	}
}

// ReadyHandler reports ready while the router can still answer prompts,
// which includes running on the local fallback alone.
func (h *Health) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Evaluate(r.Context())
		if report.Status == StatusUnhealthy {
			writeHealthJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready", "checks": report.Checks})
			return
		}
		writeHealthJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": report.Checks})
	}
}

// LiveHandler always answers alive.
func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHealthJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	}
}

func writeHealthJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ProvidersCheck is unhealthy with no providers and degraded when some
// providers lack credentials and will fail over on every call.
func ProvidersCheck(states func() []ProviderState) *Check {
	return &Check{
		Name: "providers",
		Run: func(context.Context) (Status, string) {
			list := states()
			if len(list) == 0 {
				return StatusUnhealthy, "no providers registered"
			}
			var ready, missing []string
			for _, p := range list {
				if p.Credentialed {
					ready = append(ready, p.ID)
				} else {
					missing = append(missing, p.ID)
				}
			}
			if len(ready) == 0 {
				return StatusUnhealthy, "no provider has credentials: " + strings.Join(missing, ", ")
			}
			if len(missing) > 0 {
				return StatusDegraded, fmt.Sprintf("ready: %s; missing credentials: %s",
					strings.Join(ready, ", "), strings.Join(missing, ", "))
			}
			return StatusHealthy, "ready: " + strings.Join(ready, ", ")
		},
	}
}

// SessionsCheck reports the live session count. It degrades once the count
// exceeds limit; a non-positive limit never degrades.
func SessionsCheck(count func() int, limit int) *Check {
	return &Check{
		Name: "sessions",
		Run: func(context.Context) (Status, string) {
			n := count()
			msg := fmt.Sprintf("%d active sessions", n)
			if limit > 0 && n > limit {
				return StatusDegraded, msg + fmt.Sprintf(" (above %d)", limit)
			}
			return StatusHealthy, msg
		},
	}
}

