// Package config loads SDK configuration from YAML files and environment
// variables. File values can be overridden per key through the BILI_ env
// prefix, e.g. BILI_CREDENTIAL_SESSDATA or BILI_WATCHER_INTERVAL.
package config

import (
	"fmt"
	"time"
)

// Config is the full SDK configuration.
type Config struct {
	Credential CredentialConfig `mapstructure:"credential"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Watcher    WatcherConfig    `mapstructure:"watcher"`
	Redis      RedisConfig      `mapstructure:"redis"`
}

// CredentialConfig holds the login cookies. All fields are optional;
// anonymous clients can still reach the endpoints that need no login.
type CredentialConfig struct {
	Sessdata    string `mapstructure:"sessdata"`
	BiliJct     string `mapstructure:"bili_jct"`
	Buvid3      string `mapstructure:"buvid3"`
	DedeUserID  string `mapstructure:"dedeuserid"`
	AcTimeValue string `mapstructure:"ac_time_value"`
}

// HTTPConfig holds transport settings.
type HTTPConfig struct {
	Timeout   time.Duration   `mapstructure:"timeout"`
	UserAgent string          `mapstructure:"user_agent"`
	Referer   string          `mapstructure:"referer"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig holds client-side rate limiting. RPS 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// WatcherConfig holds message watcher settings.
type WatcherConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	AutoAck  bool          `mapstructure:"auto_ack"`
}

// RedisConfig holds the optional redis backend for the watcher seen store.
// An empty Addr disables redis; the watcher falls back to in-memory state.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	SeenTTL  time.Duration `mapstructure:"seen_ttl"`
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if err := c.HTTP.validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.Watcher.validate(); err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	if err := c.Redis.validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

func (c *HTTPConfig) validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate_limit.rps cannot be negative")
	}
	if c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit.burst cannot be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst == 0 {
		return fmt.Errorf("rate_limit.burst is required when rps is set")
	}
	return nil
}

func (c *WatcherConfig) validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}

func (c *RedisConfig) validate() error {
	if c.Addr == "" {
		// redis disabled, remaining fields are ignored
		return nil
	}
	if c.DB < 0 {
		return fmt.Errorf("db cannot be negative")
	}
	if c.SeenTTL < 0 {
		return fmt.Errorf("seen_ttl cannot be negative")
	}
	return nil
}
