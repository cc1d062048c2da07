package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Server provides HTTP endpoints for observability
type Server struct {
	httpServer *http.Server
	port       int
}

// NewServer creates a new observability server
func NewServer(port int, health *Health) *Server {
	return &Server{
		port: port,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      Handler(health),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Handler returns the mux serving health and metrics endpoints.
func Handler(health *Health) http.Handler {
	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/health", health.HealthHandler())
	mux.HandleFunc("/health/live", LiveHandler())
	mux.HandleFunc("/health/ready", health.ReadyHandler())

	// Metrics endpoint
	mux.Handle("/metrics", metricsWithRuntime(MetricsHandler()))

	return mux
}

// Start starts the observability server. It returns nil after Shutdown.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// metricsWithRuntime refreshes runtime gauges on every scrape.
func metricsWithRuntime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		CollectRuntime()
		next.ServeHTTP(w, r)
	})
}
