// Package main runs the storefront client: the cart and order stores behind
// a local JSON view API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/abgdnv/gocommerce-storefront/internal/app"
	"github.com/abgdnv/gocommerce-storefront/internal/config"
	"github.com/abgdnv/gocommerce-storefront/internal/session"
	"github.com/abgdnv/gocommerce-storefront/pkg/bootstrap"
	pkgconfig "github.com/abgdnv/gocommerce-storefront/pkg/config"
	"github.com/abgdnv/gocommerce-storefront/pkg/config/configloader"
	"github.com/abgdnv/gocommerce-storefront/pkg/messaging"
	natsclient "github.com/abgdnv/gocommerce-storefront/pkg/nats"
	"github.com/abgdnv/gocommerce-storefront/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

const serviceName = "storefront"

const redisPingTimeout = 5 * time.Second

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, wires the stores and serves the view API and,
// when enabled, the pprof server until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	if cfg.Telemetry.Traces.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("failed to create tracer provider: %w", err)
		}
		defer shutdownWithTimeout(logger, "tracer provider", cfg.Shutdown.Timeout, tp.Shutdown)
	}
	if cfg.Telemetry.Metrics.Enabled {
		mp, err := telemetry.NewMeterProvider(serviceName)
		if err != nil {
			return fmt.Errorf("failed to create meter provider: %w", err)
		}
		defer shutdownWithTimeout(logger, "meter provider", cfg.Shutdown.Timeout, mp.Shutdown)
	}

	cache, closeCache, err := setupSessionCache(ctx, cfg.Session)
	if err != nil {
		return err
	}
	defer closeCache()

	publisher, closeNats, err := setupNatsMirror(ctx, cfg.Nats, logger)
	if err != nil {
		return err
	}
	defer closeNats()

	deps, err := app.SetupDependencies(cfg, cache, publisher, logger)
	if err != nil {
		return err
	}
	defer deps.Close()
	if err := deps.Session.Restore(ctx); err != nil {
		logger.Warn("Failed to restore cached session", "error", err)
	}

	httpServer := app.SetupHttpServer(deps, cfg)
	pprofServer := &http.Server{
		Addr: cfg.PProf.Addr,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr), slog.String("backend", cfg.API.BaseURL))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// setupSessionCache returns the Redis session cache when configured, or a nil
// cache for an in-memory session.
func setupSessionCache(ctx context.Context, cfg pkgconfig.SessionConfig) (session.Cache, func(), error) {
	if cfg.Backend != pkgconfig.SessionBackendRedis {
		return nil, func() {}, nil
	}
	client, err := session.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redisPingTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to session cache: %w", err)
	}
	return session.NewRedisCache(client, cfg.Redis.Key), func() { _ = client.Close() }, nil
}

// setupNatsMirror connects to NATS and makes sure the order event stream
// exists. A nil publisher means NATS is disabled.
func setupNatsMirror(ctx context.Context, cfg pkgconfig.NATSConfig, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Enabled() {
		return nil, func() {}, nil
	}
	nc, err := natsclient.NewClient(cfg.Url, cfg.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := natsclient.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	if _, err := natsclient.EnsureStream(ctx, js, cfg.Stream, messaging.OrdersSubjectWildcard); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Mirroring order events to NATS", "stream", cfg.Stream)
	return natsclient.NewNatsPublisher(js), func() {
		if err := nc.Drain(); err != nil {
			logger.Warn("Failed to drain NATS connection", "error", err)
		}
	}, nil
}

func shutdownWithTimeout(logger *slog.Logger, name string, timeout time.Duration, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("Failed to shut down "+name, "error", err)
	}
}
