// Package config содержит логику чтения конфигурации сервиса пекарни.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса пекарни.
type Config struct {
	RunAddress    string        `env:"RUN_ADDRESS"`
	DatabaseURI   string        `env:"DATABASE_URI"`
	NotifyAddress string        `env:"NOTIFY_ADDRESS"`
	SessionSecret string        `env:"SESSION_SECRET"`
	HoldTTL       time.Duration `env:"HOLD_TTL"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Значения из окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envNotifyAddress := cfg.NotifyAddress
	envSessionSecret := cfg.SessionSecret
	envHoldTTL := cfg.HoldTTL
	envSweepInterval := cfg.SweepInterval

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.NotifyAddress, "n", "", "notification system address")
	flag.StringVar(&cfg.SessionSecret, "s", "", "owner session signing secret")
	flag.DurationVar(&cfg.HoldTTL, "hold-ttl", 24*time.Hour, "how long an unpaid slot hold is kept")
	flag.DurationVar(&cfg.SweepInterval, "sweep-interval", time.Minute, "period of the expiry sweep")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envNotifyAddress != "" {
		cfg.NotifyAddress = envNotifyAddress
	}
	if envSessionSecret != "" {
		cfg.SessionSecret = envSessionSecret
	}
	if envHoldTTL != 0 {
		cfg.HoldTTL = envHoldTTL
	}
	if envSweepInterval != 0 {
		cfg.SweepInterval = envSweepInterval
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}
