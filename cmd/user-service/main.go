package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/MikeMC777/ordenes-saga/internal/auth"
	"github.com/MikeMC777/ordenes-saga/internal/config"
	"github.com/MikeMC777/ordenes-saga/internal/identity"
	"github.com/MikeMC777/ordenes-saga/internal/logging"
	"github.com/MikeMC777/ordenes-saga/internal/metrics"
	"github.com/MikeMC777/ordenes-saga/internal/storage"
	"github.com/MikeMC777/ordenes-saga/internal/user"
)

func main() {
	cfg := config.MustLoad()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[user-service] %v", err)
	}
	seeds, err := cfg.SeedAccounts()
	if err != nil {
		log.Fatalf("[user-service] %v", err)
	}

	logger := logging.MustNew("user-service", cfg.Env, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo user.Repository
	if cfg.PostgresDSN != "" {
		if err := storage.Migrate(cfg.PostgresDSN); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		pool, err := storage.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("postgres", zap.Error(err))
		}
		defer pool.Close()
		repo = user.NewPGRepo(pool)
	} else {
		logger.Warn("POSTGRES_DSN not set, using in-memory accounts")
		repo = user.NewMemoryRepo()
	}

	svc := user.NewService(repo, auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL), logger)
	if err := svc.Seed(ctx, seeds); err != nil {
		logger.Fatal("seed service accounts", zap.Error(err))
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		reg := metrics.NewRegistry()
		m = metrics.New(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv := &http.Server{Addr: cfg.UserMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics_server_error", zap.Error(err))
			}
		}()
		defer func() { _ = metricsSrv.Close() }()
	}

	lis, err := net.Listen("tcp", cfg.UserListenAddr)
	if err != nil {
		logger.Fatal("listen", zap.String("addr", cfg.UserListenAddr), zap.Error(err))
	}
	s := grpc.NewServer(grpc.UnaryInterceptor(identity.UnaryLogger(logger, m)))
	identity.RegisterLoginServer(s, svc)

	go func() {
		logger.Info("grpc_server_start", zap.String("addr", cfg.UserListenAddr))
		if err := s.Serve(lis); err != nil {
			logger.Error("grpc_server_error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	s.GracefulStop()
	logger.Info("grpc_server_stopped")
}
