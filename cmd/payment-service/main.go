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
	pay "github.com/MikeMC777/ordenes-saga/internal/payment"
)

// @title                       Payment Service API
// @version                     1.0
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.MustLoad()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[payment-service] %v", err)
	}
	if err := cfg.ValidateClient(); err != nil {
		log.Fatalf("[payment-service] %v", err)
	}

	logger := logging.MustNew("payment-service", cfg.Env, cfg.LogLevel)
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
	orders := pay.NewOrderClient(httpx.NewClient("order", cfg.OrderSvcBaseURL, cfg.HTTPTimeout, tokens, m))

	repo, err := pay.OpenSQL(ctx, cfg.PaymentDBDriver, cfg.PaymentDBDSN)
	if err != nil {
		logger.Fatal("payment store", zap.String("driver", cfg.PaymentDBDriver), zap.Error(err))
	}
	defer func() { _ = repo.Close() }()

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers)
		defer func() { _ = kp.Close() }()
		pub = kp
	}

	svc := pay.NewService(repo, orders,
		pay.WithPublisher(pub, cfg.PaymentEventsTopic),
		pay.WithLogger(logger),
		pay.WithMetrics(m),
	)

	r := httpx.NewRouter(logger, gatherer)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	registerRoutes(r, svc, auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL))

	if err := httpx.Serve(ctx, cfg.PaymentSvcAddr, r, logger); err != nil {
		logger.Fatal("http_server_error", zap.Error(err))
	}
}
