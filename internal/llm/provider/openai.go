package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
	openai "github.com/sashabaranov/go-openai"
)

const (
	openaiModel       = "gpt-4o-mini"
	openaiTemperature = 0.7
	openaiMaxTokens   = 500

	// OpenAIKeyEnv holds the OpenAI credential.
	OpenAIKeyEnv = "OPENAI_API_KEY"
)

// OpenAIProvider implements Provider for the OpenAI Chat Completions API
type OpenAIProvider struct {
	desc   Descriptor
	opts   Options
	model  string
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(opts Options) *OpenAIProvider {
	model := opts.Model
	if model == "" {
		model = openaiModel
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = newHTTPClient(opts.timeout())

	return &OpenAIProvider{
		desc: opts.apply(Descriptor{
			ID:        "openai",
			Name:      "OpenAI",
			Strengths: []classifier.Category{classifier.General, classifier.Math, classifier.Language},
			Quality:   0.93,
		}),
		opts:   opts,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Descriptor returns the provider descriptor
func (p *OpenAIProvider) Descriptor() Descriptor {
	return p.desc
}

// Complete sends the prompt as a single user message
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (*Completion, error) {
	if p.opts.APIKey == "" {
		return nil, notConfigured(p.desc, OpenAIKeyEnv)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: openaiTemperature,
		MaxTokens:   openaiMaxTokens,
	})
	if err != nil {
		return nil, p.wrapError(err)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if text == "" {
		return nil, emptyResponse(p.desc, fmt.Sprintf("%+v", resp))
	}

	return &Completion{Text: text, Raw: resp}, nil
}

// wrapError converts go-openai errors to ProviderError
func (p *OpenAIProvider) wrapError(err error) *ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return statusError(p.desc, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return statusError(p.desc, reqErr.HTTPStatusCode, "")
	}
	return transportError(p.desc, p.opts.timeout(), err)
}
