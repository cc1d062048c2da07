package router

import (
	"context"
	"log"
	"time"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
	"github.com/Maynkbisht/AI-Router/internal/llm/provider"
	"github.com/Maynkbisht/AI-Router/internal/observability"
	metrics "github.com/Maynkbisht/AI-Router/pkg/observability"
)

// Identity reported when no provider produced the answer.
const (
	NoneProviderID   = "none"
	NoneProviderName = "None"
)

// Invoker messages
const (
	MsgNoProviders        = "No AI providers available."
	MsgAllProvidersFailed = "All providers failed. Last error: "
)

// Attempt records one provider call made by the invoker.
type Attempt struct {
	ProviderID   string        `json:"provider_id"`
	ProviderName string        `json:"provider_name"`
	Score        float64       `json:"score"`
	Duration     time.Duration `json:"duration"`
	Success      bool          `json:"success"`
	Code         string        `json:"code,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Invocation is the outcome of a fallback run.
type Invocation struct {
	Success      bool      `json:"success"`
	ProviderID   string    `json:"provider_id"`
	ProviderName string    `json:"provider_name"`
	Response     string    `json:"response,omitempty"`
	Raw          any       `json:"-"`
	Error        string    `json:"error,omitempty"`
	Attempts     []Attempt `json:"attempts"`
}

// Invoker tries providers in score order until one succeeds.
// Attempts are sequential; a provider is never retried within one run.
type Invoker struct {
	registry *provider.Registry
	timeout  time.Duration
}

// InvokerOption configures an Invoker
type InvokerOption func(*Invoker)

// WithAttemptTimeout bounds each provider attempt
func WithAttemptTimeout(d time.Duration) InvokerOption {
	return func(inv *Invoker) {
		if d > 0 {
			inv.timeout = d
		}
	}
}

// NewInvoker creates an invoker over registry
func NewInvoker(registry *provider.Registry, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		registry: registry,
		timeout:  provider.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke ranks the registry for the classification and calls providers in
// order. The first success wins. When every provider fails the result
// embeds the last error and reports the "none" provider. Cancellation of
// ctx stops the run without trying further providers.
func (inv *Invoker) Invoke(ctx context.Context, prompt string, result classifier.Result) *Invocation {
	var providers []provider.Provider
	if inv.registry != nil {
		providers = inv.registry.Providers()
	}
	if len(providers) == 0 {
		return failed(MsgNoProviders, nil)
	}

	ranked := Rank(result.Category, result.Keywords, providers)
	attempts := make([]Attempt, 0, len(ranked))
	lastErr := ""

	for _, s := range ranked {
		if err := ctx.Err(); err != nil {
			log.Printf("[Router] invocation cancelled after %d attempts: %v", len(attempts), err)
			return failed(MsgAllProvidersFailed+cancelMessage(lastErr, err), attempts)
		}

		d := s.Provider.Descriptor()
		actx, span := observability.StartSpan(ctx, "router.attempt", map[string]any{
			"provider.id":    d.ID,
			"provider.score": s.Score,
			"attempt":        len(attempts) + 1,
		})
		start := time.Now()
		completion, perr := inv.attempt(actx, s.Provider, prompt)
		a := Attempt{
			ProviderID:   d.ID,
			ProviderName: d.Name,
			Score:        s.Score,
			Duration:     time.Since(start),
		}
		span.SetAttribute("duration_ms", a.Duration.Milliseconds())

		if perr == nil {
			span.End()
			a.Success = true
			attempts = append(attempts, a)
			metrics.RecordRouted(d.ID, string(result.Category))
			return &Invocation{
				Success:      true,
				ProviderID:   d.ID,
				ProviderName: d.Name,
				Response:     completion.Text,
				Raw:          completion.Raw,
				Attempts:     attempts,
			}
		}

		span.Fail(perr.Code, perr)
		span.End()
		a.Code = perr.Code
		a.Error = perr.Message
		attempts = append(attempts, a)
		lastErr = perr.Message
		log.Printf("[Router] provider %s failed (%s), trying next", d.ID, perr.Code)
	}

	metrics.RecordFallbackExhausted()
	return failed(MsgAllProvidersFailed+lastErr, attempts)
}

type attemptResult struct {
	completion *provider.Completion
	err        error
}

// attempt runs one provider call bounded by the attempt timeout. Panics and
// malformed results are converted to provider errors.
func (inv *Invoker) attempt(ctx context.Context, p provider.Provider, prompt string) (*provider.Completion, *provider.ProviderError) {
	d := p.Descriptor()

	actx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Router] provider %s panicked: %v", d.ID, r)
				done <- attemptResult{err: provider.PanicError(d, r)}
			}
		}()
		c, err := p.Complete(actx, prompt)
		done <- attemptResult{completion: c, err: err}
	}()

	var res attemptResult
	select {
	case res = <-done:
	case <-actx.Done():
		select {
		case res = <-done:
		default:
			if err := ctx.Err(); err != nil {
				return nil, provider.AsProviderError(d, err)
			}
			return nil, provider.TimeoutError(d, inv.timeout, actx.Err())
		}
	}

	if res.err != nil {
		return nil, provider.AsProviderError(d, res.err)
	}
	if res.completion == nil {
		return nil, provider.NewProviderError(d.ID, provider.ErrorCodeEmptyResponse, "Empty response from "+d.Name, nil)
	}
	return res.completion, nil
}

func failed(msg string, attempts []Attempt) *Invocation {
	if attempts == nil {
		attempts = []Attempt{}
	}
	return &Invocation{
		Success:      false,
		ProviderID:   NoneProviderID,
		ProviderName: NoneProviderName,
		Error:        msg,
		Attempts:     attempts,
	}
}

func cancelMessage(lastErr string, err error) string {
	if lastErr != "" {
		return lastErr
	}
	return "request cancelled: " + err.Error()
}
