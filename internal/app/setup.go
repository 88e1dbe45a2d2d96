// Package app wires the storefront: session, backend client, stores and the
// view API.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/gocommerce-storefront/internal/api"
	"github.com/abgdnv/gocommerce-storefront/internal/config"
	"github.com/abgdnv/gocommerce-storefront/internal/session"
	"github.com/abgdnv/gocommerce-storefront/internal/store"
	"github.com/abgdnv/gocommerce-storefront/internal/transport/rest"
	"github.com/abgdnv/gocommerce-storefront/pkg/client/transport"
	"github.com/abgdnv/gocommerce-storefront/pkg/messaging"
	"github.com/abgdnv/gocommerce-storefront/pkg/server"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "storefront"

const (
	healthPath  = "/healthz"
	metricsPath = "/metrics"
)

type Dependencies struct {
	Session   *session.Session
	Client    *api.Client
	Cart      *store.CartStore
	Orders    *store.OrderStore
	Bus       *messaging.Bus
	Breaker   *transport.CircuitBreakerTransport
	Metrics   bool
	Logger    *slog.Logger
	unsubCart func()
}

// SetupDependencies builds the client side of the application. publisher
// receives order events; nil means the in-process bus only. cache may be nil
// for an in-memory session.
func SetupDependencies(cfg *config.Config, cache session.Cache, publisher messaging.Publisher, logger *slog.Logger) (*Dependencies, error) {
	sess := session.New(cache, cfg.Session.TokenTTL, logger)
	httpClient, breaker := transport.NewHTTPClient(cfg.API.Timeout, cfg.Resilience)
	client, err := api.NewClient(cfg.API.BaseURL, httpClient, sess, cfg.API.UserAgent, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	bus := messaging.NewBus(logger)
	if publisher == nil {
		publisher = bus
	} else {
		publisher = messaging.NewFanOut(logger, bus, publisher)
	}

	cart := store.NewCartStore(client, logger)
	orders := store.NewOrderStore(client, publisher, logger)
	unsubCart := cart.Subscribe(bus)

	sess.OnInvalidate(func(ctx context.Context) {
		logger.InfoContext(ctx, "Session cleared, resetting stores")
		cart.Reset()
		orders.Reset()
	})

	return &Dependencies{
		Session:   sess,
		Client:    client,
		Cart:      cart,
		Orders:    orders,
		Bus:       bus,
		Breaker:   breaker,
		Metrics:   cfg.Telemetry.Metrics.Enabled,
		Logger:    logger,
		unsubCart: unsubCart,
	}, nil
}

// Close detaches the store subscriptions.
func (d *Dependencies) Close() {
	if d.unsubCart != nil {
		d.unsubCart()
	}
}

// SetupHttpHandler initializes the router and routes of the view API.
// Used by tests to exercise the full stack against a fake backend.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger, healthPath, metricsPath)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes of the storefront.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(rest.Dependencies{
		Cart:    deps.Cart,
		Orders:  deps.Orders,
		Auth:    deps.Client,
		Catalog: deps.Client,
		Session: deps.Session,
		Breaker: deps.Breaker,
	}, deps.Logger)
	handler.RegisterRoutes(mux)
	if deps.Metrics {
		mux.Handle(metricsPath, promhttp.Handler())
	}
}

// SetupHttpServer creates and configures the view API server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, serviceName, mux)
}
