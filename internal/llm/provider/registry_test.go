package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_PreservesOrder(t *testing.T) {
	a := NewMockProvider("a", 0.5)
	b := NewMockProvider("b", 0.5)
	c := NewMockProvider("c", 0.5)

	r, err := NewRegistry(b, a, c)
	require.NoError(t, err)

	var ids []string
	for _, d := range r.Descriptors() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(NewMockProvider("a", 0.5), NewMockProvider("a", 0.6))
	assert.ErrorIs(t, err, ErrDuplicateProvider)
}

func TestRegistry_RejectsInvalidQuality(t *testing.T) {
	_, err := NewRegistry(NewMockProvider("a", 1.5))
	assert.ErrorIs(t, err, ErrInvalidQuality)

	_, err = NewRegistry(NewMockProvider("b", -0.1))
	assert.ErrorIs(t, err, ErrInvalidQuality)
}

func TestRegistry_Get(t *testing.T) {
	r, err := NewRegistry(NewMockProvider("a", 0.5))
	require.NoError(t, err)

	p, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", p.Descriptor().ID)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestNewDefaultRegistry(t *testing.T) {
	r, err := NewDefaultRegistry(context.Background(), Config{})
	require.NoError(t, err)

	var ids []string
	for _, d := range r.Descriptors() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"gemini", "openai", "claude", "local_echo"}, ids)

	openai, err := r.Get("openai")
	require.NoError(t, err)
	assert.Equal(t, []classifier.Category{classifier.General, classifier.Math, classifier.Language}, openai.Descriptor().Strengths)
	assert.Equal(t, 0.93, openai.Descriptor().Quality)
}

func TestNewDefaultRegistry_XAIOnlyWithKey(t *testing.T) {
	r, err := NewDefaultRegistry(context.Background(), Config{XAI: BackendConfig{APIKey: "k"}})
	require.NoError(t, err)

	var ids []string
	for _, d := range r.Descriptors() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"gemini", "openai", "claude", "xai", "local_echo"}, ids)
}

func TestConfig_HasCredentials(t *testing.T) {
	cfg := Config{OpenAI: BackendConfig{APIKey: "sk"}}

	assert.True(t, cfg.HasCredentials("openai"))
	assert.False(t, cfg.HasCredentials("gemini"))
	assert.False(t, cfg.HasCredentials("claude"))
	assert.False(t, cfg.HasCredentials("xai"))
	assert.True(t, cfg.HasCredentials("local_echo"))
	assert.True(t, cfg.HasCredentials("bedrock"))
}

func TestNewDefaultRegistry_DisabledAndInstrumented(t *testing.T) {
	r, err := NewDefaultRegistry(context.Background(), Config{
		Gemini:     BackendConfig{Disabled: true},
		Claude:     BackendConfig{Disabled: true},
		Instrument: true,
	})
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	p, err := r.Get("local_echo")
	require.NoError(t, err)
	_, ok := p.(*InstrumentedProvider)
	assert.True(t, ok)

	got, err := p.Complete(context.Background(), "3 * 3")
	require.NoError(t, err)
	assert.Equal(t, "The answer to 3*3 is **9**.", got.Text)
}

func TestAsProviderError(t *testing.T) {
	d := Descriptor{ID: "x", Name: "Xeno (Corp)"}

	assert.Nil(t, AsProviderError(d, nil))

	pe := AsProviderError(d, errors.New("boom"))
	assert.Equal(t, "Xeno error: boom", pe.Message)
	assert.Equal(t, ErrorCodeUnknown, pe.Code)

	original := NewProviderError("x", ErrorCodeTimeout, "slow", nil)
	assert.Same(t, original, AsProviderError(d, original))
}

func TestInstrumentedProvider_NormalizesErrors(t *testing.T) {
	m := NewMockProvider("m", 0.5)
	m.Err = errors.New("raw failure")

	_, err := NewInstrumentedProvider(m).Complete(context.Background(), "Hi")

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "m error: raw failure", pe.Message)
}
