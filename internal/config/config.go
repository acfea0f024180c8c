// Package config loads runtime configuration from the environment, with an
// optional .env file preload handled by the caller.
package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	// Cloud API credentials. Required for live sends; a dry run can get by
	// without them.
	WhatsAppToken         string `env:"WHATSAPP_TOKEN"`
	WhatsAppPhoneNumberID string `env:"WHATSAPP_PHONE_NUMBER_ID"`
	WhatsAppAPIVersion    string `env:"WHATSAPP_API_VERSION,default=v20.0"`
	WhatsAppBaseURL       string `env:"WHATSAPP_BASE_URL"`

	// Dispatch defaults, overridable per run from the command line.
	RatePerSec  int `env:"RATE_PER_SEC,default=10"`
	Workers     int `env:"WORKERS,default=0"`
	DelayMillis int `env:"DELAY_MS,default=0"`

	// Optional backing services. Empty values disable the feature.
	DatabaseDSN     string `env:"DATABASE_DSN"`
	RedisURL        string `env:"REDIS_URL"`
	ProgressAMQPURL string `env:"PROGRESS_AMQP_URL"`

	// StatusAddr enables the HTTP status server when non-empty,
	// e.g. ":8080".
	StatusAddr string `env:"STATUS_ADDR"`

	MediaCachePath string `env:"MEDIA_CACHE_PATH,default=.wa_media_cache.json"`
	OutcomeDir     string `env:"OUTCOME_DIR,default=logs"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// ValidateForSend checks the fields a live (non dry-run) dispatch needs.
func (c *Config) ValidateForSend() error {
	if c.WhatsAppToken == "" {
		return fmt.Errorf("WHATSAPP_TOKEN is required for live sends")
	}
	if c.WhatsAppPhoneNumberID == "" {
		return fmt.Errorf("WHATSAPP_PHONE_NUMBER_ID is required for live sends")
	}
	return nil
}

func (c *Config) Delay() time.Duration {
	if c.DelayMillis <= 0 {
		return 0
	}
	return time.Duration(c.DelayMillis) * time.Millisecond
}
