package provider

import (
	"context"
	"sync"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
)

// MockProvider is a scripted provider for testing
type MockProvider struct {
	desc Descriptor

	// Response is returned on success
	Response string

	// Err, when set, is returned on every call
	Err error

	// Block makes calls wait for context cancellation
	Block bool

	// Panic makes calls panic with this value
	Panic any

	mu    sync.Mutex
	calls []string
}

// NewMockProvider creates a new mock provider
func NewMockProvider(id string, quality float64, strengths ...classifier.Category) *MockProvider {
	return &MockProvider{
		desc: Descriptor{
			ID:        id,
			Name:      id,
			Strengths: strengths,
			Quality:   quality,
		},
		Response: "Mock response from " + id,
	}
}

// Descriptor implements Provider
func (m *MockProvider) Descriptor() Descriptor {
	return m.desc
}

// Complete implements Provider
func (m *MockProvider) Complete(ctx context.Context, prompt string) (*Completion, error) {
	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	m.mu.Unlock()

	if m.Panic != nil {
		panic(m.Panic)
	}
	if m.Block {
		<-ctx.Done()
		return nil, transportError(m.desc, DefaultTimeout, ctx.Err())
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &Completion{Text: m.Response}, nil
}

// Calls returns the prompts received so far
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.calls...)
}
