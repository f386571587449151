// Package config holds the environment-driven configuration for the
// candleworker binary.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mas-avi/candlestream/internal/publisher"
)

// Config holds the candleworker service configuration.
type Config struct {
	// Sharding / finalization
	ShardCount     int `env:"SHARD_COUNT" envDefault:"16"`
	TickPeriodMS   int `env:"TICK_PERIOD_MS" envDefault:"1000"`
	TickPeriod     time.Duration `env:"-"`

	// NATS publisher
	NATSURL               string `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	NATSStream            string `env:"NATS_STREAM" envDefault:"candles"`
	NATSSubjectRoot       string `env:"NATS_SUBJECT_ROOT" envDefault:"candles"`
	NATSPublishTimeoutMS  int    `env:"NATS_PUBLISH_TIMEOUT_MS" envDefault:"500"`
	NATSPublishTimeout    time.Duration `env:"-"`

	// Observability
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	PrometheusAddr string `env:"PROMETHEUS_ADDR" envDefault:":9090"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment variables: %w", err)
	}

	cfg.TickPeriod = time.Duration(cfg.TickPeriodMS) * time.Millisecond
	cfg.NATSPublishTimeout = time.Duration(cfg.NATSPublishTimeoutMS) * time.Millisecond

	return cfg, nil
}

// Validate checks the configuration for internally-consistent values.
func (c *Config) Validate() error {
	if c.ShardCount <= 0 {
		return fmt.Errorf("config: shard count must be positive, got %d", c.ShardCount)
	}
	if c.TickPeriod < time.Millisecond {
		return fmt.Errorf("config: tick period must be at least 1ms")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("config: invalid log level %q", c.LogLevel)
	}

	return nil
}

// NATSConfig projects the NATS-related fields into a publisher.Config.
func (c *Config) NATSConfig() publisher.Config {
	return publisher.Config{
		URL:            c.NATSURL,
		Stream:         c.NATSStream,
		SubjectRoot:    c.NATSSubjectRoot,
		PublishTimeout: c.NATSPublishTimeout,
	}
}
