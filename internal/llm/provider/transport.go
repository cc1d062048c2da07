package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a backend response body is read.
const maxResponseBytes = 1 << 20

var errResponseTooLarge = fmt.Errorf("response body exceeds %d bytes", maxResponseBytes)

// Options are shared by the network-backed providers.
type Options struct {
	// APIKey is the backend credential; empty means not configured
	APIKey string

	// BaseURL overrides the backend endpoint (tests, proxies)
	BaseURL string

	// Model overrides the default model
	Model string

	// Timeout bounds one call (default 30s)
	Timeout time.Duration

	// Quality overrides the default quality score when > 0
	Quality float64
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o Options) apply(d Descriptor) Descriptor {
	if o.Quality > 0 {
		d.Quality = o.Quality
	}
	return d
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// readBody reads at most maxResponseBytes. A longer body returns the
// truncated prefix with errResponseTooLarge.
func readBody(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxResponseBytes+1))
	if err != nil {
		return data, err
	}
	if len(data) > maxResponseBytes {
		return data[:maxResponseBytes], errResponseTooLarge
	}
	return data, nil
}

// transportError maps a failed round trip to a timeout or connection error.
func transportError(d Descriptor, timeout time.Duration, err error) *ProviderError {
	if isTimeout(err) {
		return TimeoutError(d, timeout, err)
	}
	if isConnection(err) {
		return NewProviderError(d.ID, ErrorCodeConnection,
			fmt.Sprintf("%s connection error: %s", shortName(d), truncate(err.Error(), 100)), err)
	}
	return NewProviderError(d.ID, ErrorCodeUnknown,
		fmt.Sprintf("%s error: %s", shortName(d), truncate(err.Error(), 100)), err)
}

// statusError maps a non-200 HTTP status to a provider error.
func statusError(d Descriptor, status int, detail string) *ProviderError {
	switch {
	case status == http.StatusTooManyRequests:
		e := NewProviderError(d.ID, ErrorCodeRateLimit,
			fmt.Sprintf("%s rate limit exceeded - trying next provider", shortName(d)), nil)
		e.StatusCode = status
		return e
	case status >= 500:
		e := NewProviderError(d.ID, ErrorCodeServerError,
			fmt.Sprintf("%s HTTP error %d", shortName(d), status), nil)
		e.StatusCode = status
		return e
	default:
		msg := fmt.Sprintf("%s HTTP error %d", shortName(d), status)
		if detail != "" {
			msg += ": " + truncate(detail, 100)
		}
		e := NewProviderError(d.ID, ErrorCodeHTTP, msg, nil)
		e.StatusCode = status
		return e
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout")
}

func isConnection(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "connection reset")
}

// TimeoutError is the failure reported when a call outlives its deadline.
func TimeoutError(d Descriptor, timeout time.Duration, err error) *ProviderError {
	return NewProviderError(d.ID, ErrorCodeTimeout,
		fmt.Sprintf("%s request timeout (%s exceeded)", shortName(d), timeout), err)
}

// PanicError is the failure reported when a provider panics.
func PanicError(d Descriptor, v any) *ProviderError {
	return NewProviderError(d.ID, ErrorCodeUnknown,
		fmt.Sprintf("%s error: %s", shortName(d), truncate(fmt.Sprintf("panic: %v", v), 100)), nil)
}
