// Package config loads the router's YAML configuration and applies
// defaults and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Maynkbisht/AI-Router/internal/llm/provider"
	"github.com/Maynkbisht/AI-Router/pkg/session"
	"gopkg.in/yaml.v3"
)

// MaxConfigSize is the largest config file accepted.
const MaxConfigSize = 1 << 20

// Defaults
const (
	DefaultAddr            = ":5010"
	DefaultMetricsPort     = 9090
	DefaultAttemptTimeout  = 30 * time.Second
	DefaultStreamWordDelay = 50 * time.Millisecond
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Router    RouterConfig    `yaml:"router"`
	Providers provider.Config `yaml:"providers"`
	Sessions  session.Config  `yaml:"sessions"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	MetricsPort  int           `yaml:"metrics_port"`
	CORSOrigins  []string      `yaml:"cors_origins"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RouterConfig holds routing and invocation settings
type RouterConfig struct {
	// AttemptTimeout bounds a single provider attempt
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`

	// StreamWordDelay is the pause between streamed words. Negative disables it.
	StreamWordDelay time.Duration `yaml:"stream_word_delay"`
}

// TracingConfig holds OpenTelemetry settings. OTEL_* environment variables
// take precedence.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	// Exporter is one of otlp, stdout, none
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns a configuration with every default applied and the
// environment consulted.
func Default() *Config {
	cfg := &Config{Sessions: session.DefaultConfig()}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

// LoadConfig loads configuration from a YAML file. An empty path returns
// Default().
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if info.Size() > MaxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), MaxConfigSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes and applies defaults and environment overrides.
func Parse(data []byte) (*Config, error) {
	cfg := Config{Sessions: session.DefaultConfig()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// SaveConfig saves configuration to a YAML file. API keys are not written.
func SaveConfig(cfg *Config, path string) error {
	out := *cfg
	out.Providers.Gemini.APIKey = ""
	out.Providers.OpenAI.APIKey = ""
	out.Providers.Claude.APIKey = ""
	out.Providers.XAI.APIKey = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.MetricsPort == 0 {
		c.Server.MetricsPort = DefaultMetricsPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 2 * time.Minute
	}
	if c.Router.AttemptTimeout == 0 {
		c.Router.AttemptTimeout = DefaultAttemptTimeout
	}
	if c.Router.StreamWordDelay == 0 {
		c.Router.StreamWordDelay = DefaultStreamWordDelay
	}
	if c.Providers.Timeout == 0 {
		c.Providers.Timeout = c.Router.AttemptTimeout
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "airouter"
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "otlp"
	}
}

// applyEnv fills secrets and deployment overrides from the environment.
// Keys in the file win over the environment; addresses from the
// environment win over the file.
func (c *Config) applyEnv() {
	if c.Providers.Gemini.APIKey == "" {
		c.Providers.Gemini.APIKey = os.Getenv(provider.GeminiKeyEnv)
	}
	if c.Providers.OpenAI.APIKey == "" {
		c.Providers.OpenAI.APIKey = os.Getenv(provider.OpenAIKeyEnv)
	}
	if c.Providers.Claude.APIKey == "" {
		c.Providers.Claude.APIKey = os.Getenv(provider.ClaudeKeyEnv)
	}
	if c.Providers.XAI.APIKey == "" {
		c.Providers.XAI.APIKey = os.Getenv(provider.XAIKeyEnv)
	}
	if c.Providers.Bedrock.Region == "" {
		c.Providers.Bedrock.Region = os.Getenv("AWS_REGION")
	}
	if addr := os.Getenv("AIROUTER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if port := os.Getenv("AIROUTER_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.MetricsPort = p
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("server.metrics_port %d out of range", c.Server.MetricsPort))
	}
	if c.Router.AttemptTimeout < 0 {
		errs = append(errs, errors.New("router.attempt_timeout must not be negative"))
	}
	for name, b := range map[string]provider.BackendConfig{
		"gemini": c.Providers.Gemini,
		"openai": c.Providers.OpenAI,
		"claude": c.Providers.Claude,
		"xai":    c.Providers.XAI,
	} {
		if b.Quality < 0 || b.Quality > 1 {
			errs = append(errs, fmt.Errorf("providers.%s.quality must be within [0,1]", name))
		}
	}
	if c.Providers.Bedrock.Enabled && c.Providers.Bedrock.Region == "" {
		errs = append(errs, errors.New("providers.bedrock.region is required when bedrock is enabled"))
	}
	if c.Providers.Gemini.Disabled && c.Providers.OpenAI.Disabled && c.Providers.Claude.Disabled &&
		(c.Providers.XAI.Disabled || c.Providers.XAI.APIKey == "") &&
		!c.Providers.Bedrock.Enabled && c.Providers.DisableLocal {
		errs = append(errs, errors.New("at least one provider must be enabled"))
	}
	switch c.Tracing.Exporter {
	case "otlp", "stdout", "none":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter %q must be otlp, stdout or none", c.Tracing.Exporter))
	}
	if err := c.Sessions.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sessions: %w", err))
	}

	return errors.Join(errs...)
}
