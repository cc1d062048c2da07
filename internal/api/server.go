// Package api exposes the router over HTTP. Each browser session is
// identified by a cookie and owns its own history and pending queue.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Maynkbisht/AI-Router/internal/router"
	"github.com/Maynkbisht/AI-Router/pkg/security"
	"github.com/Maynkbisht/AI-Router/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Config holds server configuration.
type Config struct {
	Addr         string
	CORSOrigins  []string // empty allows localhost only
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// SecureCookie marks the session cookie Secure (HTTPS deployments)
	SecureCookie bool
}

// Server is the HTTP front end of the router.
type Server struct {
	cfg        Config
	router     *router.Router
	sessions   *session.Manager
	limiter    *security.RateLimiter
	mux        chi.Router
	httpServer *http.Server
}

// New creates a server. limiter may be nil to disable rate limiting.
func New(cfg Config, r *router.Router, sessions *session.Manager, limiter *security.RateLimiter) *Server {
	s := &Server{
		cfg:      cfg,
		router:   r,
		sessions: sessions,
		limiter:  limiter,
	}
	s.mux = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(recordMetrics)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(s.cfg.CORSOrigins) > 0 {
		corsOpts.AllowedOrigins = s.cfg.CORSOrigins
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Use(s.withSession)

		r.Post("/chat", s.handleChat)
		r.Post("/chat/stream", s.handleChatStream)
		r.Post("/classify", s.handleClassify)
		r.Post("/clear", s.handleClear)
		r.Post("/undo", s.handleUndo)
		r.Post("/redo", s.handleRedo)
		r.Get("/history", s.handleHistory)
		r.Get("/pending", s.handleListPending)
		r.Post("/pending", s.handleEnqueuePending)
		r.Post("/pending/process", s.handleProcessPending)
		r.Get("/providers", s.handleProviders)
	})

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Start begins listening. It returns nil after Shutdown.
func (s *Server) Start() error {
	log.Printf("[API] listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
