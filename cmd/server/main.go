package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gestfact/payments/internal/config"
	"github.com/gestfact/payments/internal/httpserver"
	"github.com/gestfact/payments/internal/konnect"
	"github.com/gestfact/payments/internal/lifecycle"
	"github.com/gestfact/payments/internal/logger"
	"github.com/gestfact/payments/internal/metrics"
	"github.com/gestfact/payments/internal/ratelimit"
	"github.com/gestfact/payments/internal/storage"
	"github.com/gestfact/payments/internal/webhook"
)

const version = "1.2.0"

func main() {
	// Secrets come from the environment; a .env file is a local convenience.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootstrap := logger.New(logger.Config{Level: "info", Format: "json", Service: "gestfact-payments"})
		bootstrap.Fatal().Err(err).Msg("config.load_failed")
	}

	appLogger := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "gestfact-payments",
		Version:     version,
		Environment: cfg.Logging.Environment,
	})

	resources := lifecycle.NewManager()

	store, err := storage.NewStore(storage.StoreConfig{
		Backend:             cfg.Storage.Backend,
		PostgresURL:         cfg.Storage.PostgresURL,
		MongoDBURL:          cfg.Storage.MongoDBURL,
		MongoDBDatabase:     cfg.Storage.MongoDBDatabase,
		InvoicesTableName:   cfg.Storage.InvoicesTableName,
		AuditLogTableName:   cfg.Storage.AuditLogTableName,
		PoolMaxOpenConns:    cfg.Storage.PostgresPool.MaxOpenConns,
		PoolMaxIdleConns:    cfg.Storage.PostgresPool.MaxIdleConns,
		PoolConnMaxLifetime: cfg.Storage.PostgresPool.ConnMaxLifetime.Duration,
	})
	if err != nil {
		appLogger.Fatal().Err(err).Msg("storage.init_failed")
	}
	resources.Register("storage", store)

	if cfg.Storage.Backend == "" || cfg.Storage.Backend == "memory" {
		appLogger.Warn().Msg("storage.memory_backend_in_use")
	}
	if !cfg.GatewayConfigured() {
		appLogger.Error().Msg("konnect.api_key_missing")
	}

	metricsCollector := metrics.New(prometheus.DefaultRegisterer)

	limiter := ratelimit.NewFixedWindow(cfg.Webhook.RateLimitMax, cfg.Webhook.RateLimitWindow.Duration)

	gateway := konnect.New(konnect.Config{
		APIKey:   cfg.Konnect.APIKey,
		BaseURL:  cfg.Konnect.BaseURL,
		WalletID: cfg.Konnect.WalletID,
		Timeout:  cfg.Konnect.Timeout.Duration,
	}, metricsCollector, appLogger)

	processor := webhook.NewProcessor(store, metricsCollector)

	server := httpserver.New(cfg, store, limiter, gateway, processor, metricsCollector, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().
			Str("address", cfg.Server.Address).
			Str("storage_backend", cfg.Storage.Backend).
			Msg("server.starting")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("server.failed")
		}
	case <-ctx.Done():
		appLogger.Info().Msg("server.shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLogger.Error().Err(err).Msg("server.shutdown_failed")
		}
	}

	if err := resources.Close(); err != nil {
		appLogger.Error().Err(err).Msg("server.cleanup_failed")
	}
	appLogger.Info().Msg("server.stopped")
}
