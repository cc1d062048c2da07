package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
)

// Provider defines the interface for AI backends.
//
// Complete must not panic. Every failure is returned as a *ProviderError
// carrying a human readable message.
type Provider interface {
	// Descriptor returns the static identity and capabilities of the provider
	Descriptor() Descriptor

	// Complete sends a single prompt and returns the generated text
	Complete(ctx context.Context, prompt string) (*Completion, error)
}

// Descriptor describes a registered backend.
type Descriptor struct {
	// ID is unique across a registry (e.g., "openai")
	ID string `json:"id" yaml:"id"`

	// Name is the display name (e.g., "Claude (Anthropic)")
	Name string `json:"name" yaml:"name"`

	// Strengths are the categories the backend handles well
	Strengths []classifier.Category `json:"strengths" yaml:"strengths"`

	// Quality is a static quality score in [0,1]
	Quality float64 `json:"quality" yaml:"quality"`
}

// HasStrength reports whether label names one of the descriptor's strengths.
func (d Descriptor) HasStrength(label string) bool {
	for _, s := range d.Strengths {
		if string(s) == label {
			return true
		}
	}
	return false
}

// Validate checks the descriptor invariants.
func (d Descriptor) Validate() error {
	if d.ID == "" {
		return errors.New("provider id is required")
	}
	if d.Quality < 0 || d.Quality > 1 {
		return fmt.Errorf("%w: %s has quality %v", ErrInvalidQuality, d.ID, d.Quality)
	}
	return nil
}

// Completion is a successful provider response.
type Completion struct {
	// Text is the generated response
	Text string `json:"text"`

	// Raw is the raw provider response for debugging
	Raw any `json:"raw,omitempty"`
}

// ProviderError represents a provider-specific failure. Message is the text
// shown to callers.
type ProviderError struct {
	Provider      string `json:"provider"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	StatusCode    int    `json:"status_code,omitempty"`
	IsRetryable   bool   `json:"is_retryable"`
	OriginalError error  `json:"-"`
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return e.Message
}

// Unwrap returns the original error
func (e *ProviderError) Unwrap() error {
	return e.OriginalError
}

// Common error codes
const (
	ErrorCodeNotConfigured = "not_configured"
	ErrorCodeTimeout       = "timeout"
	ErrorCodeConnection    = "connection_error"
	ErrorCodeRateLimit     = "rate_limit_exceeded"
	ErrorCodeEmptyResponse = "empty_response"
	ErrorCodeHTTP          = "http_error"
	ErrorCodeServerError   = "server_error"
	ErrorCodeEvaluation    = "evaluation_error"
	ErrorCodeUnknown       = "unknown_error"
)

// Registry errors
var (
	ErrDuplicateProvider = errors.New("duplicate provider id")
	ErrInvalidQuality    = errors.New("provider quality must be within [0,1]")
	ErrProviderNotFound  = errors.New("provider not found")
)

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, original error) *ProviderError {
	return &ProviderError{
		Provider:      provider,
		Code:          code,
		Message:       message,
		OriginalError: original,
		IsRetryable:   isRetryableError(code),
	}
}

// isRetryableError determines if an error code is worth trying elsewhere
func isRetryableError(code string) bool {
	switch code {
	case ErrorCodeRateLimit, ErrorCodeServerError, ErrorCodeTimeout, ErrorCodeConnection:
		return true
	default:
		return false
	}
}

// AsProviderError normalizes any error returned by a provider. Errors that
// are not already a *ProviderError are wrapped as "<name> error: <msg>".
func AsProviderError(d Descriptor, err error) *ProviderError {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return NewProviderError(d.ID, ErrorCodeUnknown, fmt.Sprintf("%s error: %s", shortName(d), truncate(err.Error(), 100)), err)
}

// notConfigured is the failure returned when a backend has no credential.
func notConfigured(d Descriptor, envVar string) *ProviderError {
	return NewProviderError(d.ID, ErrorCodeNotConfigured,
		fmt.Sprintf("%s API key not configured. Set %s.", shortName(d), envVar), nil)
}

// emptyResponse is the failure returned when a backend answered with no text.
func emptyResponse(d Descriptor, raw any) *ProviderError {
	return NewProviderError(d.ID, ErrorCodeEmptyResponse,
		fmt.Sprintf("Empty response from %s: %s", shortName(d), truncate(fmt.Sprintf("%v", raw), 200)), nil)
}

// shortName is the display name without any parenthesized vendor suffix.
func shortName(d Descriptor) string {
	for i, r := range d.Name {
		if r == ' ' && i+1 < len(d.Name) && d.Name[i+1] == '(' {
			return d.Name[:i]
		}
	}
	if d.Name == "" {
		return d.ID
	}
	return d.Name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
