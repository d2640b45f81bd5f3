package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/MikeMC777/ordenes-saga/internal/auth"
	"github.com/MikeMC777/ordenes-saga/internal/config"
	_ "github.com/MikeMC777/ordenes-saga/internal/docs"
	"github.com/MikeMC777/ordenes-saga/internal/events"
	"github.com/MikeMC777/ordenes-saga/internal/httpx"
	"github.com/MikeMC777/ordenes-saga/internal/identity"
	"github.com/MikeMC777/ordenes-saga/internal/logging"
	"github.com/MikeMC777/ordenes-saga/internal/metrics"
	ord "github.com/MikeMC777/ordenes-saga/internal/order"
	"github.com/MikeMC777/ordenes-saga/internal/storage"
)

// @title                       Order Service API
// @version                     1.0
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.MustLoad()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[order-service] %v", err)
	}
	if err := cfg.ValidateClient(); err != nil {
		log.Fatalf("[order-service] %v", err)
	}

	logger := logging.MustNew("order-service", cfg.Env, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var gatherer prometheus.Gatherer
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		reg := metrics.NewRegistry()
		m = metrics.New(reg)
		gatherer = reg
	}

	conn, err := identity.Dial(cfg.UserSvcAddr)
	if err != nil {
		logger.Fatal("dial user-service", zap.Error(err))
	}
	defer func() { _ = conn.Close() }()
	tokens := identity.NewProvider(identity.NewGRPCIssuer(conn), cfg.ServiceUser, cfg.ServicePass,
		identity.WithRefreshMargin(cfg.TokenRefreshMargin),
		identity.WithDefaultTTL(cfg.TokenDefaultTTL),
		identity.WithMetrics(m),
	)
	inventory := ord.NewInventoryClient(httpx.NewClient("product", cfg.ProductSvcBaseURL, cfg.HTTPTimeout, tokens, m))

	var repo ord.Repository
	if cfg.PostgresDSN != "" {
		if err := storage.Migrate(cfg.PostgresDSN); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		pool, err := storage.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("postgres", zap.Error(err))
		}
		defer pool.Close()
		repo = ord.NewPGRepo(pool)
	} else {
		logger.Warn("POSTGRES_DSN not set, using in-memory orders")
		repo = ord.NewMemoryRepo()
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers)
		defer func() { _ = kp.Close() }()
		pub = kp
	}

	svc := ord.NewService(repo, inventory,
		ord.WithPublisher(pub, cfg.OrderEventsTopic),
		ord.WithLogger(logger),
		ord.WithMetrics(m),
	)

	r := httpx.NewRouter(logger, gatherer)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	registerRoutes(r, svc, auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL))

	if err := httpx.Serve(ctx, cfg.OrderSvcAddr, r, logger); err != nil {
		logger.Fatal("http_server_error", zap.Error(err))
	}
}
