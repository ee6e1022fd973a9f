// Package config provides a centralized loader for runtime configuration
// used by cmd/battle. It reads values from environment variables via struct
// tags, applies defaults, and validates the result.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the environment-driven runtime configuration: the optional
// Kafka trace-streaming sink, the think-timeout and cancellation-flood
// overrides, and logging settings. The battle itself (map file, player
// programs, time limit) is CLI-positional, not environment-driven.
type Config struct {
	// KAFKA_BROKERS="broker1:9092,broker2:9092" — empty disables streaming.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	KafkaClientID string `env:"KAFKA_CLIENT_ID" envDefault:"tankgrid-battle-sim"`
	KafkaGroupID  string `env:"KAFKA_GROUP_ID" envDefault:"tankgrid-battle-sim-group"`

	KafkaProducerTimeout time.Duration `env:"KAFKA_PRODUCER_TIMEOUT" envDefault:"2s"`

	// THINK_TIMEOUT bounds how long the scheduler waits on an unresponsive
	// player worker before declaring a think-time violation.
	ThinkTimeout time.Duration `env:"THINK_TIMEOUT" envDefault:"5s"`

	// CANCEL_FLOOD_LIMIT bounds the cancellation flood's signal count.
	CancelFloodLimit int `env:"CANCEL_FLOOD_LIMIT" envDefault:"1000000"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Env      string `env:"ENV" envDefault:"dev"`
}

// Load reads environment variables into a Config, applying the envDefault
// tags above, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// KafkaEnabled reports whether a trace-streaming Kafka sink should be wired
// in, i.e. whether any broker addresses were configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Validate checks config sanity and returns an error for invalid settings.
func (c *Config) Validate() error {
	if c.KafkaProducerTimeout <= 0 {
		return errors.New("KAFKA_PRODUCER_TIMEOUT must be > 0")
	}
	if c.ThinkTimeout <= 0 {
		return errors.New("THINK_TIMEOUT must be > 0")
	}
	if c.CancelFloodLimit <= 0 {
		return errors.New("CANCEL_FLOOD_LIMIT must be > 0")
	}
	return nil
}
