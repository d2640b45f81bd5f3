package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"ENV" env-default:"dev"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	UserSvcAddr       string `env:"USER_SERVICE_ADDR" env-default:"localhost:50051"`
	UserListenAddr    string `env:"USER_SERVICE_LISTEN" env-default:":50051"`
	UserMetricsAddr   string `env:"USER_METRICS_ADDR" env-default:":9091"`
	ProductSvcAddr    string `env:"PRODUCT_SERVICE_ADDR" env-default:":8081"`
	ProductSvcBaseURL string `env:"PRODUCT_SERVICE_BASEURL" env-default:"http://product:8081"`
	OrderSvcAddr      string `env:"ORDER_SERVICE_ADDR" env-default:":8082"`
	OrderSvcBaseURL   string `env:"ORDER_SERVICE_BASEURL" env-default:"http://order:8082"`
	PaymentSvcAddr    string `env:"PAYMENT_SERVICE_ADDR" env-default:":8083"`

	// Empty selects the in-memory repositories.
	PostgresDSN     string `env:"POSTGRES_DSN"`
	PaymentDBDriver string `env:"PAYMENT_DB_DRIVER" env-default:"sqlite"`
	PaymentDBDSN    string `env:"PAYMENT_DB_DSN" env-default:"file:payments.db?_pragma=busy_timeout(5000)"`

	KafkaBrokers       []string `env:"KAFKA_BROKERS" env-separator:","`
	OrderEventsTopic   string   `env:"ORDER_EVENTS_TOPIC" env-default:"order-events"`
	PaymentEventsTopic string   `env:"PAYMENT_EVENTS_TOPIC" env-default:"payment-events"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" env-default:"1h"`

	// Credentials this process uses to obtain its machine token.
	ServiceUser string `env:"SERVICE_USER"`
	ServicePass string `env:"SERVICE_PASS"`
	// Accounts seeded by user-service, "user:pass:ROLE1|ROLE2" separated by commas.
	ServiceAccounts []string `env:"SERVICE_ACCOUNTS" env-separator:","`

	HTTPTimeout        time.Duration `env:"HTTP_TIMEOUT" env-default:"5s"`
	TokenRefreshMargin time.Duration `env:"TOKEN_REFRESH_MARGIN" env-default:"60s"`
	TokenDefaultTTL    time.Duration `env:"TOKEN_DEFAULT_TTL" env-default:"600s"`

	MetricsEnabled bool `env:"METRICS_ENABLED" env-default:"true"`
}

// SeedAccount is one parsed entry of SERVICE_ACCOUNTS.
type SeedAccount struct {
	Username string
	Password string
	Roles    []string
}

func Load() (Config, error) {
	_ = godotenv.Load() // load .env if it exists
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	log.Printf("[config] ENV=%s USER_SERVICE_ADDR=%s", cfg.Env, cfg.UserSvcAddr)
	log.Printf("[config] PRODUCT_SERVICE_ADDR=%s ORDER_SERVICE_ADDR=%s PAYMENT_SERVICE_ADDR=%s",
		cfg.ProductSvcAddr, cfg.OrderSvcAddr, cfg.PaymentSvcAddr)
	return cfg, nil
}

func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	return cfg
}

// Validate checks the settings every service needs to authenticate peers.
func (c Config) Validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}
	return nil
}

// ValidateClient checks the settings of a process that calls other services.
func (c Config) ValidateClient() error {
	if c.ServiceUser == "" || c.ServicePass == "" {
		return fmt.Errorf("SERVICE_USER and SERVICE_PASS are required")
	}
	return nil
}

func (c Config) SeedAccounts() ([]SeedAccount, error) {
	out := make([]SeedAccount, 0, len(c.ServiceAccounts))
	for _, raw := range c.ServiceAccounts {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid service account %q", raw)
		}
		acc := SeedAccount{Username: parts[0], Password: parts[1], Roles: []string{"SERVICE"}}
		if len(parts) == 3 && parts[2] != "" {
			acc.Roles = strings.Split(parts[2], "|")
		}
		out = append(out, acc)
	}
	return out, nil
}
