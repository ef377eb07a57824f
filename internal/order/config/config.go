package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/shopsmoke/pkg/config"
)

// Config holds all configuration for the order service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"ORDER_HTTP_PORT" envDefault:"5003"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"shopsmoke"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"shopsmoke_secret"`
	PostgresDB   string `env:"ORDER_DB_NAME" envDefault:"order_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Downstream services
	UserServiceURL    string        `env:"USER_SERVICE_URL" envDefault:"http://localhost:5001"`
	ProductServiceURL string        `env:"PRODUCT_SERVICE_URL" envDefault:"http://localhost:5002"`
	DownstreamTimeout time.Duration `env:"DOWNSTREAM_TIMEOUT" envDefault:"5s"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load order config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.UserServiceURL == "" || cfg.ProductServiceURL == "" {
		return nil, fmt.Errorf("downstream service URLs must not be empty")
	}
	return cfg, nil
}
