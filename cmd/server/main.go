package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/settlements/internal/app"
	"github.com/mmynk/settlements/internal/auth"
	"github.com/mmynk/settlements/internal/config"
	"github.com/mmynk/settlements/internal/metrics"
	"github.com/mmynk/settlements/internal/settlement"
	"github.com/mmynk/settlements/pkg/logging"
)

const tokenDuration = 24 * time.Hour

func main() {
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	loc, _ := cfg.Location()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := app.OpenStore(ctx, cfg)
	cancel()
	if err != nil {
		slog.Error("Failed to initialize storage", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.DBDriver)

	pipeline, err := settlement.NewPipeline(store, cfg.PlatformFeeRate, cfg.PayoutDelayDays)
	if err != nil {
		slog.Error("Invalid settlement terms", "error", err)
		os.Exit(1)
	}
	engine := settlement.NewEngine(auth.NewGuard(store), store, settlement.WithLocation(loc))

	var systemKey *auth.SystemKey
	if cfg.SystemKeyHash != "" {
		systemKey, err = auth.NewSystemKey(cfg.SystemKeyHash)
		if err != nil {
			slog.Error("Invalid SYSTEM_KEY_HASH", "error", err)
			os.Exit(1)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)

	router := app.NewRouter(app.Deps{
		Engine:    engine,
		Pipeline:  pipeline,
		JWT:       auth.NewJWTManager(cfg.JWTSecret, tokenDuration),
		SystemKey: systemKey,
		Registry:  reg,
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("Connect server starting",
			"address", cfg.ListenAddr,
			"fee_rate", cfg.PlatformFeeRate,
			"payout_delay_days", cfg.PayoutDelayDays,
			"timezone", loc.String(),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	slog.Info("Server shutdown complete")
}
