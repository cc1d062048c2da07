package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
	"github.com/Maynkbisht/AI-Router/internal/llm/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func registry(t *testing.T, providers ...provider.Provider) *provider.Registry {
	t.Helper()
	r, err := provider.NewRegistry(providers...)
	require.NoError(t, err)
	return r
}

func failing(id string, quality float64, msg string, strengths ...classifier.Category) *provider.MockProvider {
	m := provider.NewMockProvider(id, quality, strengths...)
	m.Err = provider.NewProviderError(id, provider.ErrorCodeConnection, msg, nil)
	return m
}

func TestInvoker_FirstSuccessWins(t *testing.T) {
	best := provider.NewMockProvider("best", 0.9, classifier.General)
	second := provider.NewMockProvider("second", 0.5, classifier.General)

	inv := NewInvoker(registry(t, second, best)).Invoke(context.Background(), "hi", classifier.Classify("what is love"))

	require.True(t, inv.Success)
	assert.Equal(t, "best", inv.ProviderID)
	assert.Equal(t, "Mock response from best", inv.Response)
	assert.Len(t, inv.Attempts, 1)
	assert.Empty(t, second.Calls())
}

func TestInvoker_FallsThroughInOrder(t *testing.T) {
	a := failing("a", 0.9, "A connection error: refused", classifier.General)
	b := failing("b", 0.8, "B rate limit exceeded - trying next provider", classifier.General)
	c := provider.NewMockProvider("c", 0.1)

	inv := NewInvoker(registry(t, c, b, a)).Invoke(context.Background(), "prompt", classifier.Classify("tell me a story"))

	require.True(t, inv.Success)
	assert.Equal(t, "c", inv.ProviderID)
	require.Len(t, inv.Attempts, 3)
	assert.Equal(t, "a", inv.Attempts[0].ProviderID)
	assert.Equal(t, provider.ErrorCodeConnection, inv.Attempts[0].Code)
	assert.Equal(t, "b", inv.Attempts[1].ProviderID)
	assert.True(t, inv.Attempts[2].Success)

	assert.Equal(t, []string{"prompt"}, a.Calls())
	assert.Equal(t, []string{"prompt"}, b.Calls())
}

func TestInvoker_SpanPerAttempt(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	a := failing("a", 0.9, "A connection error: refused", classifier.General)
	b := provider.NewMockProvider("b", 0.5, classifier.General)

	inv := NewInvoker(registry(t, a, b)).Invoke(context.Background(), "hi", classifier.Classify("tell me a story"))
	require.True(t, inv.Success)

	spans := rec.Ended()
	require.Len(t, spans, 2)
	for i, want := range []struct {
		id     string
		status codes.Code
	}{{"a", codes.Error}, {"b", codes.Unset}} {
		assert.Equal(t, "router.attempt", spans[i].Name())
		assert.Contains(t, spans[i].Attributes(), attribute.String("provider.id", want.id))
		assert.Contains(t, spans[i].Attributes(), attribute.Int("attempt", i+1))
		assert.Equal(t, want.status, spans[i].Status().Code)
	}
	assert.Equal(t, provider.ErrorCodeConnection, spans[0].Status().Description)
}

func TestInvoker_AllFail(t *testing.T) {
	a := failing("a", 0.9, "first failure")
	b := failing("b", 0.5, "OpenAI rate limit exceeded - trying next provider")

	inv := NewInvoker(registry(t, a, b)).Invoke(context.Background(), "x", classifier.Classify("x"))

	assert.False(t, inv.Success)
	assert.Equal(t, "All providers failed. Last error: OpenAI rate limit exceeded - trying next provider", inv.Error)
	assert.Equal(t, NoneProviderID, inv.ProviderID)
	assert.Equal(t, NoneProviderName, inv.ProviderName)
	assert.Len(t, inv.Attempts, 2)
}

func TestInvoker_EmptyRegistry(t *testing.T) {
	for _, reg := range []*provider.Registry{nil, registry(t)} {
		inv := NewInvoker(reg).Invoke(context.Background(), "x", classifier.Classify("x"))
		assert.False(t, inv.Success)
		assert.Equal(t, "No AI providers available.", inv.Error)
		assert.Equal(t, "none", inv.ProviderID)
		assert.Empty(t, inv.Attempts)
	}
}

func TestInvoker_AttemptTimeout(t *testing.T) {
	slow := provider.NewMockProvider("slow", 0.9)
	slow.Block = true
	fast := provider.NewMockProvider("fast", 0.1)

	inv := NewInvoker(registry(t, slow, fast), WithAttemptTimeout(30*time.Millisecond)).
		Invoke(context.Background(), "x", classifier.Classify("x"))

	require.True(t, inv.Success)
	assert.Equal(t, "fast", inv.ProviderID)
	require.Len(t, inv.Attempts, 2)
	assert.Equal(t, provider.ErrorCodeTimeout, inv.Attempts[0].Code)
	assert.Contains(t, inv.Attempts[0].Error, "request timeout")
}

func TestInvoker_RecoversPanics(t *testing.T) {
	bad := provider.NewMockProvider("bad", 0.9)
	bad.Panic = "nil map write"
	good := provider.NewMockProvider("good", 0.1)

	inv := NewInvoker(registry(t, bad, good)).Invoke(context.Background(), "x", classifier.Classify("x"))

	require.True(t, inv.Success)
	assert.Equal(t, "good", inv.ProviderID)
	assert.Equal(t, "bad error: panic: nil map write", inv.Attempts[0].Error)
}

func TestInvoker_NormalizesPlainErrors(t *testing.T) {
	raw := provider.NewMockProvider("raw", 0.9)
	raw.Err = errors.New("socket closed")

	inv := NewInvoker(registry(t, raw)).Invoke(context.Background(), "x", classifier.Classify("x"))

	assert.Equal(t, "All providers failed. Last error: raw error: socket closed", inv.Error)
}

func TestInvoker_StopsOnCancel(t *testing.T) {
	first := provider.NewMockProvider("first", 0.9)
	first.Block = true
	second := provider.NewMockProvider("second", 0.1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	inv := NewInvoker(registry(t, first, second)).Invoke(ctx, "x", classifier.Classify("x"))

	assert.False(t, inv.Success)
	assert.Equal(t, NoneProviderID, inv.ProviderID)
	assert.Len(t, inv.Attempts, 1)
	assert.Empty(t, second.Calls())
}

func TestInvoker_CancelledBeforeStart(t *testing.T) {
	p := provider.NewMockProvider("p", 0.9)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inv := NewInvoker(registry(t, p)).Invoke(ctx, "x", classifier.Classify("x"))

	assert.False(t, inv.Success)
	assert.Contains(t, inv.Error, "request cancelled")
	assert.Empty(t, p.Calls())
}
