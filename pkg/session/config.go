package session

import (
	"fmt"
	"time"
)

// Config holds session configuration from YAML.
type Config struct {
	// DrainSchedule is the cron spec for the background pending-queue
	// drainer. Empty disables the drainer.
	// Default: "@every 30s"
	DrainSchedule string `yaml:"drain_schedule"`

	// IdleTimeout evicts sessions untouched for this long. Zero keeps
	// sessions until they are cleared or the process exits.
	// Default: 0
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// WarnSessions degrades the health report above this many live
	// sessions. Zero never degrades.
	WarnSessions int `yaml:"warn_sessions"`

	// RateLimit bounds request rate per client address.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig holds per-client token bucket settings.
type RateLimitConfig struct {
	// RequestsPerSecond is the refill rate. Zero disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// Burst is the bucket size.
	Burst int `yaml:"burst"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		DrainSchedule: "@every 30s",
		WarnSessions:  10000,
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.IdleTimeout < 0 {
		return fmt.Errorf("idle_timeout must not be negative")
	}
	if c.WarnSessions < 0 {
		return fmt.Errorf("warn_sessions must not be negative")
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second must not be negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1 when limiting is enabled")
	}
	return nil
}
