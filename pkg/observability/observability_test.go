package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordProviderAttempt(t *testing.T) {
	before := testutil.ToFloat64(providerAttemptsTotal.WithLabelValues("test_provider", "success"))
	RecordProviderAttempt("test_provider", "success", 25*time.Millisecond)
	RecordProviderAttempt("test_provider", "timeout", time.Second)

	assert.Equal(t, before+1, testutil.ToFloat64(providerAttemptsTotal.WithLabelValues("test_provider", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(providerAttemptsTotal.WithLabelValues("test_provider", "timeout")))
}

func TestRoutingCounters(t *testing.T) {
	RecordClassification("math")
	RecordRouted("local_echo", "math")
	RecordFallbackExhausted()
	RecordPendingProcessed("success")
	SetActiveSessions(3)

	assert.GreaterOrEqual(t, testutil.ToFloat64(classificationsTotal.WithLabelValues("math")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(routedTotal.WithLabelValues("local_echo", "math")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(fallbackExhaustedTotal), 1.0)
	assert.Equal(t, 3.0, testutil.ToFloat64(activeSessions))
}

func TestMetricsEndpoint(t *testing.T) {
	InitMetrics()
	InitMetrics()
	RecordHTTPRequest("GET", "/api/history", "200", time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(NewHealth("")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "airouter_http_requests_total")
	assert.Contains(t, rec.Body.String(), "airouter_goroutines")
}

func TestHealth_ProvidersCheck(t *testing.T) {
	states := []ProviderState{{ID: "gemini", Credentialed: true}, {ID: "local_echo", Credentialed: true}}
	h := NewHealth("1.2.3")
	h.Register(ProvidersCheck(func() []ProviderState { return states }))

	report := h.Evaluate(context.Background())
	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, "1.2.3", report.Version)
	assert.Equal(t, "ready: gemini, local_echo", report.Checks["providers"].Message)

	states = []ProviderState{{ID: "openai"}, {ID: "local_echo", Credentialed: true}}
	report = h.Evaluate(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "ready: local_echo; missing credentials: openai", report.Checks["providers"].Message)

	states = []ProviderState{{ID: "openai"}, {ID: "claude"}}
	report = h.Evaluate(context.Background())
	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.Equal(t, "no provider has credentials: openai, claude", report.Checks["providers"].Message)

	states = nil
	assert.Equal(t, StatusUnhealthy, h.Evaluate(context.Background()).Status)
}

func TestHealth_SessionsCheck(t *testing.T) {
	n := 3
	h := NewHealth("")
	h.Register(SessionsCheck(func() int { return n }, 5))

	report := h.Evaluate(context.Background())
	assert.Equal(t, "dev", report.Version)
	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, "3 active sessions", report.Checks["sessions"].Message)

	n = 6
	report = h.Evaluate(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "6 active sessions (above 5)", report.Checks["sessions"].Message)

	h.Register(SessionsCheck(func() int { return n }, 0))
	assert.Equal(t, StatusHealthy, h.Evaluate(context.Background()).Status)
	assert.Len(t, h.Evaluate(context.Background()).Checks, 1)
}

func TestHealth_Timeout(t *testing.T) {
	h := NewHealth("")
	h.Register(&Check{
		Name:    "slow",
		Timeout: 20 * time.Millisecond,
		Run: func(ctx context.Context) (Status, string) {
			<-ctx.Done()
			return StatusHealthy, "late"
		},
	})

	res := h.Evaluate(context.Background()).Checks["slow"]
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Contains(t, res.Message, "timed out")
}

func TestReadyHandler(t *testing.T) {
	var states []ProviderState
	h := NewHealth("")
	h.Register(ProvidersCheck(func() []ProviderState { return states }))
	handler := Handler(h)

	get := func(path string) (int, map[string]any) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec.Code, body
	}

	code, body := get("/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body["status"])

	states = []ProviderState{{ID: "gemini"}, {ID: "local_echo", Credentialed: true}}
	code, body = get("/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])

	code, body = get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", body["status"])

	code, body = get("/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alive", body["status"])
}
