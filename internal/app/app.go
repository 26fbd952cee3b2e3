// Package app wires the settlement engine, its transports and its storage
// into one HTTP handler.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/settlements/internal/auth"
	"github.com/mmynk/settlements/internal/config"
	"github.com/mmynk/settlements/internal/middleware"
	"github.com/mmynk/settlements/internal/service"
	"github.com/mmynk/settlements/internal/settlement"
	"github.com/mmynk/settlements/internal/storage"
	"github.com/mmynk/settlements/internal/storage/postgres"
	"github.com/mmynk/settlements/internal/storage/sqlite"
)

// OpenStore connects to the configured database and runs its migrations.
func OpenStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		store, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
	}
}

// Deps are the components the router serves.
type Deps struct {
	Engine   *settlement.Engine
	Pipeline *settlement.Pipeline
	JWT      *auth.JWTManager
	// SystemKey guards the payment webhook; nil leaves the webhook unmounted.
	SystemKey *auth.SystemKey
	Registry  *prometheus.Registry
}

// NewRouter builds the root handler:
//
//	/settlements.v1.SettlementService/*  Connect RPC (JWT)
//	/internal/v1/orders/paid             payment webhook (system key)
//	/healthz                             liveness
//	/metrics                             Prometheus
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry}))

	path, handler := service.NewSettlementServiceHandler(
		service.NewSettlementService(d.Engine),
		connect.WithInterceptors(
			middleware.RequireAuth(d.JWT),
			middleware.LoggingInterceptor(nil),
			middleware.MetricsInterceptor(),
		),
	)
	r.Handle(path+"*", handler)

	if d.SystemKey != nil {
		r.Mount("/internal/v1", service.NewPaymentWebhook(d.Pipeline, d.SystemKey).Routes())
	} else {
		slog.Warn("SYSTEM_KEY_HASH not set, payment webhook disabled")
	}

	return r
}

// requestLogger logs all incoming requests
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			return
		}
		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", chimw.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
