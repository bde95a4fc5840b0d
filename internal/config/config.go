package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFileName = ".chathook.yaml"
	DefaultRelayURL       = "https://relay.internal/api/teams/send_message"
	DefaultTimeoutSecs    = 30
	DefaultRetryAttempts  = 3
	DefaultRetryDelayMS   = 1000
	DefaultRateLimitMax   = 100
	DefaultRateLimitMins  = 1
)

// defaultLegacyShapeHosts lists host fragments of webhook endpoints that
// still expect the attachments list nested under a "body" key. Extend via
// the config file, not code.
var defaultLegacyShapeHosts = []string{
	"prod-84.southeastasia.logic.azure.com",
}

type RateLimit struct {
	MaxRequests int `yaml:"max_requests"`
	PerMinutes  int `yaml:"per_minutes"`
}

// Window returns the rate-limit window as a duration.
func (r RateLimit) Window() time.Duration {
	return time.Duration(r.PerMinutes) * time.Minute
}

type Config struct {
	Enabled          bool      `yaml:"enabled"`
	RelayURL         string    `yaml:"relay_url"`
	AppBaseURL       string    `yaml:"app_base_url"`
	TimeoutSeconds   int       `yaml:"timeout_seconds"`
	RetryAttempts    int       `yaml:"retry_attempts"`
	RetryDelayMS     int       `yaml:"retry_delay_ms"`
	RateLimit        RateLimit `yaml:"rate_limit"`
	LegacyShapeHosts []string  `yaml:"legacy_shape_hosts"`
	DatabaseURL      string    `yaml:"database_url"`
	RedisAddr        string    `yaml:"redis_addr"`
	NATSURL          string    `yaml:"nats_url"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		RelayURL:       DefaultRelayURL,
		TimeoutSeconds: DefaultTimeoutSecs,
		RetryAttempts:  DefaultRetryAttempts,
		RetryDelayMS:   DefaultRetryDelayMS,
		RateLimit: RateLimit{
			MaxRequests: DefaultRateLimitMax,
			PerMinutes:  DefaultRateLimitMins,
		},
		LegacyShapeHosts: defaultLegacyShapeHosts,
	}
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

func (c *Config) Validate() error {
	if c.RelayURL == "" {
		return fmt.Errorf("relay_url is required")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be at least 1")
	}
	if c.RateLimit.MaxRequests < 1 {
		return fmt.Errorf("rate_limit.max_requests must be at least 1")
	}
	if c.RateLimit.PerMinutes < 1 {
		return fmt.Errorf("rate_limit.per_minutes must be at least 1")
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, DefaultConfigFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CHATHOOK_ENABLED"); v != "" {
		cfg.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("CHATHOOK_RELAY_URL"); v != "" {
		cfg.RelayURL = v
	}
	if v := os.Getenv("CHATHOOK_APP_BASE_URL"); v != "" {
		cfg.AppBaseURL = v
	}
	if v := os.Getenv("CHATHOOK_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("CHATHOOK_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RetryAttempts = n
		}
	}
	if v := os.Getenv("CHATHOOK_RETRY_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RetryDelayMS = n
		}
	}
	if v := os.Getenv("CHATHOOK_RATE_LIMIT_MAX_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.MaxRequests = n
		}
	}
	if v := os.Getenv("CHATHOOK_RATE_LIMIT_PER_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.PerMinutes = n
		}
	}
	if v := os.Getenv("CHATHOOK_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("CHATHOOK_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("CHATHOOK_NATS_URL"); v != "" {
		cfg.NATSURL = v
	}
}
