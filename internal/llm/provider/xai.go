package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
)

const (
	xaiBaseURL     = "https://api.x.ai/v1"
	xaiModel       = "grok-3-mini"
	xaiTemperature = 0.7
	xaiMaxTokens   = 500

	// XAIKeyEnv holds the xAI credential. The backend is registered only
	// when a key is present.
	XAIKeyEnv = "XAI_API_KEY"
)

// XAIProvider implements Provider for the xAI (Grok) chat completions API
type XAIProvider struct {
	desc    Descriptor
	opts    Options
	model   string
	baseURL string
	client  *http.Client
}

type xaiRequest struct {
	Model       string       `json:"model"`
	Messages    []xaiMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
}

type xaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type xaiResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index        int        `json:"index"`
		Message      xaiMessage `json:"message"`
		FinishReason string     `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewXAIProvider creates a new xAI provider
func NewXAIProvider(opts Options) *XAIProvider {
	model := opts.Model
	if model == "" {
		model = xaiModel
	}
	baseURL := xaiBaseURL
	if opts.BaseURL != "" {
		baseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	return &XAIProvider{
		desc: opts.apply(Descriptor{
			ID:        "xai",
			Name:      "Grok (xAI)",
			Strengths: []classifier.Category{classifier.General, classifier.News},
			Quality:   0.88,
		}),
		opts:    opts,
		model:   model,
		baseURL: baseURL,
		client:  newHTTPClient(opts.timeout()),
	}
}

// Descriptor returns the provider descriptor
func (p *XAIProvider) Descriptor() Descriptor {
	return p.desc
}

// Complete sends the prompt as a single user message
func (p *XAIProvider) Complete(ctx context.Context, prompt string) (*Completion, error) {
	if p.opts.APIKey == "" {
		return nil, notConfigured(p.desc, XAIKeyEnv)
	}

	body, err := json.Marshal(xaiRequest{
		Model:       p.model,
		Messages:    []xaiMessage{{Role: "user", Content: prompt}},
		Temperature: xaiTemperature,
		MaxTokens:   xaiMaxTokens,
	})
	if err != nil {
		return nil, AsProviderError(p.desc, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, AsProviderError(p.desc, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.opts.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, transportError(p.desc, p.opts.timeout(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	var out xaiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, AsProviderError(p.desc, fmt.Errorf("decode response: %w", err))
	}

	var text string
	if len(out.Choices) > 0 {
		text = strings.TrimSpace(out.Choices[0].Message.Content)
	}
	if text == "" {
		return nil, emptyResponse(p.desc, fmt.Sprintf("%+v", out))
	}
	return &Completion{Text: text, Raw: out}, nil
}

func (p *XAIProvider) handleErrorResponse(resp *http.Response) *ProviderError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	detail := strings.TrimSpace(string(body))
	var errResp xaiResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		detail = errResp.Error.Message
	}
	return statusError(p.desc, resp.StatusCode, detail)
}
