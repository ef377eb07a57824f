package smoke

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/shopsmoke/pkg/config"
)

// Config holds all configuration for the smoke-test orchestrator.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Base URLs of the services under test.
	UserServiceURL    string `env:"USER_SERVICE_URL" envDefault:"http://localhost:5001"`
	ProductServiceURL string `env:"PRODUCT_SERVICE_URL" envDefault:"http://localhost:5002"`
	OrderServiceURL   string `env:"ORDER_SERVICE_URL" envDefault:"http://localhost:5003"`

	// Health probing
	ProbeInterval time.Duration `env:"SMOKE_PROBE_INTERVAL" envDefault:"2s"`
	ProbeDeadline time.Duration `env:"SMOKE_PROBE_DEADLINE" envDefault:"60s"`

	// Per-request timeout for scenario calls.
	HTTPTimeout time.Duration `env:"SMOKE_HTTP_TIMEOUT" envDefault:"10s"`
}

// LoadConfig reads orchestrator configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load smoke config: %w", err)
	}
	if cfg.UserServiceURL == "" || cfg.ProductServiceURL == "" || cfg.OrderServiceURL == "" {
		return nil, fmt.Errorf("service base URLs must not be empty")
	}
	if cfg.ProbeInterval <= 0 || cfg.ProbeDeadline <= 0 {
		return nil, fmt.Errorf("probe interval and deadline must be positive")
	}
	return cfg, nil
}
