package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Maynkbisht/AI-Router/internal/api"
	"github.com/Maynkbisht/AI-Router/internal/llm/provider"
	tracing "github.com/Maynkbisht/AI-Router/internal/observability"
	"github.com/Maynkbisht/AI-Router/internal/router"
	"github.com/Maynkbisht/AI-Router/pkg/config"
	"github.com/Maynkbisht/AI-Router/pkg/observability"
	"github.com/Maynkbisht/AI-Router/pkg/security"
	"github.com/Maynkbisht/AI-Router/pkg/session"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// limiterIdle is how long a client address may stay silent before its rate
// limiter state is dropped.
const limiterIdle = 10 * time.Minute

var (
	serveAddr     string
	secureCookies bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, metrics endpoint and pending-queue drainer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&secureCookies, "secure-cookies", false, "mark session cookies Secure")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config) error {
	log.Printf("Starting airouter v%s", Version)

	if err := tracing.Init(tracing.ApplyEnv(tracing.Config{
		ServiceName:  cfg.Tracing.ServiceName,
		Enabled:      cfg.Tracing.Enabled,
		ExporterType: cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.Endpoint,
	})); err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}

	r, reg, err := newRouter(ctx, cfg)
	if err != nil {
		return err
	}

	observability.InitMetrics()

	sessions := session.NewManager()
	defer sessions.Close()

	health := observability.NewHealth(Version)
	health.Register(observability.ProvidersCheck(providerStates(cfg.Providers, reg)))
	health.Register(observability.SessionsCheck(sessions.Len, cfg.Sessions.WarnSessions))

	limiter := security.NewRateLimiter(cfg.Sessions.RateLimit.RequestsPerSecond, cfg.Sessions.RateLimit.Burst)
	apiServer := api.New(api.Config{
		Addr:         cfg.Server.Addr,
		CORSOrigins:  cfg.Server.CORSOrigins,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		SecureCookie: secureCookies,
	}, r, sessions, limiter)
	obsServer := observability.NewServer(cfg.Server.MetricsPort, health)
	drainer := router.NewDrainer(r, sessions, cfg.Sessions.DrainSchedule, cfg.Sessions.IdleTimeout,
		router.WithLimiterPrune(limiter, limiterIdle))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Printf("[Observability] metrics and health on %s", obsServer.Addr())
		if err := obsServer.Start(); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := drainer.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		drainer.Stop()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down airouter...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return errors.Join(
			apiServer.Shutdown(shutdownCtx),
			obsServer.Shutdown(shutdownCtx),
			tracing.Shutdown(shutdownCtx),
		)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Println("airouter stopped")
	return nil
}

// providerStates reports, for every registered provider, whether it has
// credentials to answer with.
func providerStates(cfg provider.Config, reg *provider.Registry) func() []observability.ProviderState {
	return func() []observability.ProviderState {
		descs := reg.Descriptors()
		out := make([]observability.ProviderState, 0, len(descs))
		for _, d := range descs {
			out = append(out, observability.ProviderState{ID: d.ID, Credentialed: cfg.HasCredentials(d.ID)})
		}
		return out
	}
}
