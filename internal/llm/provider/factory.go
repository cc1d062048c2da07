package provider

import (
	"context"
	"fmt"
	"log"
	"time"
)

// BackendConfig configures one API-key backend.
type BackendConfig struct {
	// Disabled removes the backend from the registry
	Disabled bool `yaml:"disabled"`

	// APIKey is usually filled from the environment, not the config file
	APIKey string `yaml:"api_key"`

	BaseURL string  `yaml:"base_url"`
	Model   string  `yaml:"model"`
	Quality float64 `yaml:"quality"`
}

// BedrockConfig configures the optional Bedrock backend.
type BedrockConfig struct {
	Enabled bool    `yaml:"enabled"`
	Region  string  `yaml:"region"`
	Model   string  `yaml:"model"`
	Quality float64 `yaml:"quality"`
}

// Config describes the registry built at startup.
type Config struct {
	// Timeout bounds each provider call (default 30s)
	Timeout time.Duration `yaml:"timeout"`

	// Instrument wraps every provider with tracing and metrics
	Instrument bool `yaml:"instrument"`

	Gemini  BackendConfig `yaml:"gemini"`
	OpenAI  BackendConfig `yaml:"openai"`
	Claude  BackendConfig `yaml:"claude"`
	Bedrock BedrockConfig `yaml:"bedrock"`

	// XAI is registered only when it has a key
	XAI BackendConfig `yaml:"xai"`

	// DisableLocal removes the local arithmetic fallback
	DisableLocal bool `yaml:"disable_local"`
}

// HasCredentials reports whether the provider with the given id has what it
// needs to answer. Bedrock resolves credentials through the AWS chain and
// local_echo needs none, so both always count.
func (c Config) HasCredentials(id string) bool {
	switch id {
	case "gemini":
		return c.Gemini.APIKey != ""
	case "openai":
		return c.OpenAI.APIKey != ""
	case "claude":
		return c.Claude.APIKey != ""
	case "xai":
		return c.XAI.APIKey != ""
	default:
		return true
	}
}

func (c BackendConfig) options(timeout time.Duration) Options {
	return Options{
		APIKey:  c.APIKey,
		BaseURL: c.BaseURL,
		Model:   c.Model,
		Timeout: timeout,
		Quality: c.Quality,
	}
}

// NewDefaultRegistry builds the registry in its fixed order: gemini, openai,
// claude, xai (when keyed), bedrock (when enabled), local_echo. The first
// three are registered even without a credential; their calls fail with a
// configuration error.
func NewDefaultRegistry(ctx context.Context, cfg Config) (*Registry, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var providers []Provider
	if !cfg.Gemini.Disabled {
		providers = append(providers, NewGeminiProvider(cfg.Gemini.options(timeout)))
	}
	if !cfg.OpenAI.Disabled {
		providers = append(providers, NewOpenAIProvider(cfg.OpenAI.options(timeout)))
	}
	if !cfg.Claude.Disabled {
		providers = append(providers, NewClaudeProvider(cfg.Claude.options(timeout)))
	}
	if !cfg.XAI.Disabled && cfg.XAI.APIKey != "" {
		providers = append(providers, NewXAIProvider(cfg.XAI.options(timeout)))
	}
	if cfg.Bedrock.Enabled {
		bp, err := NewBedrockProvider(ctx, cfg.Bedrock.Region, Options{
			Model:   cfg.Bedrock.Model,
			Timeout: timeout,
			Quality: cfg.Bedrock.Quality,
		})
		if err != nil {
			return nil, fmt.Errorf("bedrock provider: %w", err)
		}
		providers = append(providers, bp)
	}
	if !cfg.DisableLocal {
		providers = append(providers, NewLocalEchoProvider())
	}

	if cfg.Instrument {
		for i, p := range providers {
			providers[i] = NewInstrumentedProvider(p)
		}
	}

	registry, err := NewRegistry(providers...)
	if err != nil {
		return nil, err
	}

	for _, d := range registry.Descriptors() {
		log.Printf("[Provider] registered %s (%s) quality=%.2f strengths=%v", d.ID, d.Name, d.Quality, d.Strengths)
	}
	return registry, nil
}
