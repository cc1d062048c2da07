package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/Maynkbisht/AI-Router/internal/observability"
	metrics "github.com/Maynkbisht/AI-Router/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedProvider wraps a Provider with a trace span and attempt
// metrics for every call.
type InstrumentedProvider struct {
	provider Provider
}

// NewInstrumentedProvider wraps a provider with automatic observability
func NewInstrumentedProvider(provider Provider) *InstrumentedProvider {
	return &InstrumentedProvider{provider: provider}
}

// Unwrap returns the wrapped provider
func (p *InstrumentedProvider) Unwrap() Provider {
	return p.provider
}

// Descriptor returns the wrapped provider's descriptor
func (p *InstrumentedProvider) Descriptor() Descriptor {
	return p.provider.Descriptor()
}

// Complete calls the wrapped provider inside a span
func (p *InstrumentedProvider) Complete(ctx context.Context, prompt string) (*Completion, error) {
	d := p.provider.Descriptor()

	ctx, span := observability.StartSpanWithOtel(ctx, fmt.Sprintf("provider.%s.complete", d.ID),
		trace.WithAttributes(
			attribute.String("provider.id", d.ID),
			attribute.Float64("provider.quality", d.Quality),
			attribute.Int("prompt.length", len(prompt)),
		),
	)
	defer span.End()

	start := time.Now()
	completion, err := p.provider.Complete(ctx, prompt)
	duration := time.Since(start)

	span.SetAttributes(
		attribute.Int64("provider.duration_ms", duration.Milliseconds()),
		attribute.Bool("provider.success", err == nil),
	)

	if err != nil {
		pe := AsProviderError(d, err)
		span.RecordError(pe)
		span.SetStatus(codes.Error, pe.Code)
		span.SetAttributes(attribute.String("provider.error_code", pe.Code))
		metrics.RecordProviderAttempt(d.ID, pe.Code, duration)
		return nil, pe
	}

	span.SetAttributes(attribute.Int("response.length", len(completion.Text)))
	metrics.RecordProviderAttempt(d.ID, "success", duration)
	return completion, nil
}
