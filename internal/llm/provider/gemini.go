package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
	"google.golang.org/genai"
)

const (
	geminiModel = "gemini-2.5-flash"

	// GeminiKeyEnv holds the Gemini API credential.
	GeminiKeyEnv = "GEMINI_API_KEY"
)

// GeminiProvider implements Provider for the Gemini API using the Gen AI SDK
type GeminiProvider struct {
	desc  Descriptor
	opts  Options
	model string

	once      sync.Once
	client    *genai.Client
	clientErr error
}

// NewGeminiProvider creates a new Gemini provider. The SDK client is created
// on first use.
func NewGeminiProvider(opts Options) *GeminiProvider {
	model := opts.Model
	if model == "" {
		model = geminiModel
	}
	return &GeminiProvider{
		desc: opts.apply(Descriptor{
			ID:        "gemini",
			Name:      "Gemini (Google)",
			Strengths: []classifier.Category{classifier.Language, classifier.General},
			Quality:   0.90,
		}),
		opts:  opts,
		model: model,
	}
}

// Descriptor returns the provider descriptor
func (p *GeminiProvider) Descriptor() Descriptor {
	return p.desc
}

func (p *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.once.Do(func() {
		cfg := &genai.ClientConfig{
			APIKey:     p.opts.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: newHTTPClient(p.opts.timeout()),
		}
		if p.opts.BaseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.opts.BaseURL}
		}
		p.client, p.clientErr = genai.NewClient(ctx, cfg)
	})
	return p.client, p.clientErr
}

// Complete sends the prompt as a single content part
func (p *GeminiProvider) Complete(ctx context.Context, prompt string) (*Completion, error) {
	if p.opts.APIKey == "" {
		return nil, notConfigured(p.desc, GeminiKeyEnv)
	}

	client, err := p.getClient(ctx)
	if err != nil {
		return nil, AsProviderError(p.desc, err)
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, p.wrapError(err)
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return nil, emptyResponse(p.desc, fmt.Sprintf("%+v", resp))
	}

	return &Completion{Text: text, Raw: resp}, nil
}

// responseText concatenates the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// wrapError converts Gen AI errors to ProviderError. Structured API errors
// map by status code; anything else falls back to matching the message.
func (p *GeminiProvider) wrapError(err error) *ProviderError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		e := statusError(p.desc, apiErr.Code, apiErr.Message)
		e.OriginalError = err
		return e
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "rate limit"):
		e := statusError(p.desc, 429, "")
		e.OriginalError = err
		return e
	case strings.Contains(msg, "503") || strings.Contains(msg, "unavailable"):
		e := statusError(p.desc, 503, "")
		e.OriginalError = err
		return e
	default:
		return transportError(p.desc, p.opts.timeout(), err)
	}
}
