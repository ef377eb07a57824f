package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses environment variables into the given struct using `env` tags.
//
// Example:
//
//	type Config struct {
//	    BaseURL string `env:"USER_SERVICE_URL" envDefault:"http://localhost:5001"`
//	    Level   string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
