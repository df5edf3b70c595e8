package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	// BaseURL is this node's public origin; minted activity ids and
	// community URIs live under it.
	BaseURL string

	FetchBudget          int
	ActorRefreshInterval time.Duration
	RelayHorizon         time.Duration
	DeliveryTimeout      time.Duration
	WorkerPollInterval   time.Duration

	EnableRelayActivityConsumer bool
	EnableRelayFollowerConsumer bool
}

func Load() (Config, error) {
	cfg := Config{
		ServiceName:                 envOr("SERVICE_NAME", "concourse"),
		HTTPPort:                    envOr("HTTP_PORT", "8080"),
		PostgresDSN:                 os.Getenv("POSTGRES_DSN"),
		BaseURL:                     envOr("FEDERATION_BASE_URL", "http://localhost:8080"),
		EnableRelayActivityConsumer: envBool("ENABLE_RELAY_ACTIVITY_CONSUMER", true),
		EnableRelayFollowerConsumer: envBool("ENABLE_RELAY_FOLLOWER_CONSUMER", true),
	}

	var err error
	if cfg.FetchBudget, err = envInt("FEDERATION_FETCH_BUDGET", 25); err != nil {
		return Config{}, err
	}
	if cfg.ActorRefreshInterval, err = envDuration("FEDERATION_ACTOR_REFRESH_INTERVAL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RelayHorizon, err = envDuration("RELAY_LEDGER_HORIZON", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.DeliveryTimeout, err = envDuration("DELIVERY_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WorkerPollInterval, err = envDuration("WORKER_POLL_INTERVAL", 2*time.Second); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envOr(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func envBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}
