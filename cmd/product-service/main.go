package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/MikeMC777/ordenes-saga/internal/auth"
	"github.com/MikeMC777/ordenes-saga/internal/config"
	"github.com/MikeMC777/ordenes-saga/internal/httpx"
	"github.com/MikeMC777/ordenes-saga/internal/logging"
	"github.com/MikeMC777/ordenes-saga/internal/metrics"
	prod "github.com/MikeMC777/ordenes-saga/internal/product"
	"github.com/MikeMC777/ordenes-saga/internal/storage"
)

func main() {
	cfg := config.MustLoad()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[product-service] %v", err)
	}

	logger := logging.MustNew("product-service", cfg.Env, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo prod.Repository
	if cfg.PostgresDSN != "" {
		if err := storage.Migrate(cfg.PostgresDSN); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		pool, err := storage.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("postgres", zap.Error(err))
		}
		defer pool.Close()
		repo = prod.NewPGRepo(pool)
	} else {
		logger.Warn("POSTGRES_DSN not set, using in-memory ledger")
		repo = prod.NewMemoryRepo()
	}

	var gatherer prometheus.Gatherer
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		reg := metrics.NewRegistry()
		m = metrics.New(reg)
		gatherer = reg
	}

	r := httpx.NewRouter(logger, gatherer)
	registerRoutes(r, repo, auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL), m)

	if err := httpx.Serve(ctx, cfg.ProductSvcAddr, r, logger); err != nil {
		logger.Fatal("http_server_error", zap.Error(err))
	}
}
