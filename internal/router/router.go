// Package router classifies prompts, ranks providers for them, and runs the
// fallback chain. It also ties results to sessions: completed exchanges are
// recorded, streamed, or drained from a session's pending queue.
package router

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Maynkbisht/AI-Router/internal/classifier"
	"github.com/Maynkbisht/AI-Router/internal/llm/provider"
	"github.com/Maynkbisht/AI-Router/internal/observability"
	metrics "github.com/Maynkbisht/AI-Router/pkg/observability"
	"github.com/Maynkbisht/AI-Router/pkg/security"
	"github.com/Maynkbisht/AI-Router/pkg/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultWordDelay is the pause between streamed words.
const DefaultWordDelay = 50 * time.Millisecond

// ErrorPrefix marks a failure in a streamed response.
const ErrorPrefix = "[ERROR] "

// Response is the outcome of routing one prompt.
type Response struct {
	Success      bool                `json:"success"`
	Prompt       string              `json:"prompt"`
	Category     classifier.Category `json:"category"`
	Confidence   float64             `json:"confidence"`
	Keywords     []string            `json:"keywords"`
	Explanation  string              `json:"explanation"`
	ProviderID   string              `json:"provider_id"`
	ProviderName string              `json:"provider_name"`
	Response     string              `json:"response,omitempty"`
	Error        string              `json:"error,omitempty"`
	Attempts     []Attempt           `json:"attempts"`

	// Set when the exchange was recorded in a session
	Message *session.Message `json:"message,omitempty"`
	Stats   *session.Stats   `json:"session_stats,omitempty"`
}

// Router is the routing service shared by every session.
// Router is safe for concurrent use.
type Router struct {
	classifier *classifier.Classifier
	invoker    *Invoker
	wordDelay  time.Duration
	sleep      func(context.Context, time.Duration) error
}

// Option configures a Router
type Option func(*Router)

// WithClassifier replaces the default rule table
func WithClassifier(c *classifier.Classifier) Option {
	return func(r *Router) {
		if c != nil {
			r.classifier = c
		}
	}
}

// WithWordDelay sets the pause between streamed words. Zero or negative
// streams without pausing.
func WithWordDelay(d time.Duration) Option {
	return func(r *Router) {
		r.wordDelay = d
	}
}

// New creates a router over registry
func New(registry *provider.Registry, attemptTimeout time.Duration, opts ...Option) *Router {
	r := &Router{
		classifier: classifier.New(),
		invoker:    NewInvoker(registry, WithAttemptTimeout(attemptTimeout)),
		wordDelay:  DefaultWordDelay,
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classify exposes the classifier used for routing
func (r *Router) Classify(prompt string) classifier.Result {
	return r.classifier.Classify(prompt)
}

// Route validates, classifies and invokes providers for prompt. An invalid
// prompt is rejected before classification. Provider failures are reported
// in the response, not as an error.
func (r *Router) Route(ctx context.Context, prompt string) (*Response, error) {
	prompt, err := security.ValidatePrompt(prompt)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpanWithOtel(ctx, "router.route", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	start := time.Now()
	result := r.classifier.Classify(prompt)
	metrics.RecordClassification(string(result.Category))

	span.SetAttributes(
		attribute.String("router.category", string(result.Category)),
		attribute.Float64("router.confidence", result.Confidence),
	)

	inv := r.invoker.Invoke(ctx, prompt, result)

	span.SetAttributes(
		attribute.String("router.provider", inv.ProviderID),
		attribute.Int("router.attempts", len(inv.Attempts)),
		attribute.Bool("router.success", inv.Success),
		attribute.Int64("router.duration_ms", time.Since(start).Milliseconds()),
	)
	if !inv.Success {
		span.RecordError(errors.New(inv.Error))
	}

	return &Response{
		Success:      inv.Success,
		Prompt:       prompt,
		Category:     result.Category,
		Confidence:   result.Confidence,
		Keywords:     result.Keywords,
		Explanation:  classifier.Explain(prompt),
		ProviderID:   inv.ProviderID,
		ProviderName: inv.ProviderName,
		Response:     inv.Response,
		Error:        inv.Error,
		Attempts:     inv.Attempts,
	}, nil
}

// Chat routes prompt and records a successful exchange in sess. Nothing is
// recorded when routing fails or ctx ends before the answer arrives.
func (r *Router) Chat(ctx context.Context, sess *session.Session, prompt string) (*Response, error) {
	resp, err := r.Route(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if resp.Success && ctx.Err() == nil {
		resp.Message = record(sess, resp)
	}
	stats := sess.Stats()
	resp.Stats = &stats
	return resp, nil
}

// Stream routes prompt and delivers the answer to emit one word at a time.
// The exchange is recorded only after every word was delivered. A failed
// routing emits a single "[ERROR] <msg>" chunk.
func (r *Router) Stream(ctx context.Context, sess *session.Session, prompt string, emit func(chunk string) error) (*Response, error) {
	resp, err := r.Route(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		if err := emit(ErrorPrefix + resp.Error); err != nil {
			return resp, err
		}
		return resp, nil
	}

	for _, word := range strings.Fields(resp.Response) {
		if err := emit(word + " "); err != nil {
			return resp, err
		}
		if r.wordDelay > 0 {
			if err := r.sleep(ctx, r.wordDelay); err != nil {
				return resp, err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return resp, err
	}

	resp.Message = record(sess, resp)
	stats := sess.Stats()
	resp.Stats = &stats
	return resp, nil
}

// ProcessPending takes the oldest pending prompt of sess and chats it. A
// prompt that fails is not re-queued. session.ErrQueueEmpty is returned
// when nothing is waiting.
func (r *Router) ProcessPending(ctx context.Context, sess *session.Session) (*Response, error) {
	prompt, err := sess.DequeuePending()
	if err != nil {
		return nil, err
	}

	resp, err := r.Chat(ctx, sess, prompt)
	if err != nil {
		metrics.RecordPendingProcessed("invalid")
		return nil, err
	}
	if resp.Success {
		metrics.RecordPendingProcessed("success")
	} else {
		metrics.RecordPendingProcessed("failed")
		log.Printf("[Router] pending prompt dropped for session %s: %s", sess.ID(), resp.Error)
	}
	return resp, nil
}

// Providers returns the descriptors in registry order
func (r *Router) Providers() []provider.Descriptor {
	if r.invoker.registry == nil {
		return nil
	}
	return r.invoker.registry.Descriptors()
}

// Rank scores the registry for prompt without invoking anything
func (r *Router) Rank(prompt string) (classifier.Result, []Scored) {
	result := r.classifier.Classify(prompt)
	var providers []provider.Provider
	if r.invoker.registry != nil {
		providers = r.invoker.registry.Providers()
	}
	return result, Rank(result.Category, result.Keywords, providers)
}

func record(sess *session.Session, resp *Response) *session.Message {
	msg := session.NewMessage(resp.Prompt, resp.Response, resp.Category, resp.ProviderID, resp.ProviderName)
	sess.Append(msg)
	return msg
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
