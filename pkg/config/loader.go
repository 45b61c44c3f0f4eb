// Package config parses environment variables into typed config structs.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load populates cfg from the process environment using `env` struct tags.
// Defaults come from `envDefault`; list values split on `envSeparator`.
//
// The shop's config struct is the canonical example:
//
//	type Config struct {
//	    HTTPPort     int           `env:"HTTP_PORT" envDefault:"8080"`
//	    ItemCacheTTL time.Duration `env:"ITEM_CACHE_TTL" envDefault:"15m"`
//	    KafkaBrokers []string      `env:"KAFKA_BROKERS" envSeparator:","`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
