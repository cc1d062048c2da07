package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
)

const (
	claudeBaseURL   = "https://api.anthropic.com/v1"
	claudeVersion   = "2023-06-01"
	claudeModel     = "claude-3-5-sonnet-20241022"
	claudeMaxTokens = 500

	// ClaudeKeyEnv holds the Anthropic credential.
	ClaudeKeyEnv = "CLAUDE_API_KEY"
)

// ClaudeProvider implements Provider for the Anthropic Messages API
type ClaudeProvider struct {
	desc    Descriptor
	opts    Options
	baseURL string
	model   string
	client  *http.Client
}

// NewClaudeProvider creates a new Claude provider. An empty key yields a
// provider whose calls fail with a configuration error.
func NewClaudeProvider(opts Options) *ClaudeProvider {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = claudeBaseURL
	}
	model := opts.Model
	if model == "" {
		model = claudeModel
	}
	return &ClaudeProvider{
		desc: opts.apply(Descriptor{
			ID:        "claude",
			Name:      "Claude (Anthropic)",
			Strengths: []classifier.Category{classifier.General, classifier.Language},
			Quality:   0.92,
		}),
		opts:    opts,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  newHTTPClient(opts.timeout()),
	}
}

// Descriptor returns the provider descriptor
func (p *ClaudeProvider) Descriptor() Descriptor {
	return p.desc
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the prompt as a single user message
func (p *ClaudeProvider) Complete(ctx context.Context, prompt string) (*Completion, error) {
	if p.opts.APIKey == "" {
		return nil, notConfigured(p.desc, ClaudeKeyEnv)
	}

	body, err := json.Marshal(claudeRequest{
		Model:     p.model,
		MaxTokens: claudeMaxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, AsProviderError(p.desc, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, AsProviderError(p.desc, err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", p.opts.APIKey)
	req.Header.Set("anthropic-version", claudeVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, transportError(p.desc, p.opts.timeout(), err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, readErr := readBody(resp.Body)
	if readErr != nil && !errors.Is(readErr, errResponseTooLarge) {
		return nil, transportError(p.desc, p.opts.timeout(), readErr)
	}

	var parsed claudeResponse
	decodeErr := json.Unmarshal(data, &parsed)

	if resp.StatusCode != http.StatusOK {
		detail := ""
		if decodeErr == nil && parsed.Error != nil {
			detail = parsed.Error.Message
		}
		return nil, statusError(p.desc, resp.StatusCode, detail)
	}
	if readErr != nil {
		return nil, AsProviderError(p.desc, readErr)
	}
	if decodeErr != nil {
		return nil, AsProviderError(p.desc, decodeErr)
	}

	var text string
	if len(parsed.Content) > 0 {
		text = strings.TrimSpace(parsed.Content[0].Text)
	}
	if text == "" {
		return nil, emptyResponse(p.desc, string(data))
	}

	return &Completion{Text: text, Raw: parsed}, nil
}
