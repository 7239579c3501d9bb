// Package retry wraps network operations with exponential backoff and
// error classification.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"strings"
	"syscall"
	"time"
)

// Default retry configuration
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
	DefaultMaxDelay   = 30 * time.Second
)

// retryableStatusCodes are the HTTP statuses worth retrying.
var retryableStatusCodes = map[int]bool{
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// statusCoder is implemented by classified HTTP errors (see internal/api).
type statusCoder interface {
	StatusCode() int
}

// OnRetryFunc observes each retry before the backoff sleep.
type OnRetryFunc func(attempt int, err error, delay time.Duration)

// Options configures a retried operation. Zero values select the defaults.
type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	OnRetry    OnRetryFunc
}

func (o Options) withDefaults() Options {
	if o.MaxRetries == 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.BaseDelay == 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.MaxDelay == 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	return o
}

// Do executes op, retrying transient failures with exponential backoff and
// jitter. Non-retryable errors and exhausted retries surface the last error
// unchanged; nothing is swallowed at this layer. The backoff sleep honors
// ctx cancellation.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), opts Options) (T, error) {
	opts = opts.withDefaults()

	var zero T
	var lastErr error

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt >= opts.MaxRetries || !IsRetryable(err) {
			return zero, err
		}

		delay := BackoffDelay(attempt, opts.BaseDelay, opts.MaxDelay)
		if opts.OnRetry != nil {
			opts.OnRetry(attempt+1, err, delay)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}

// BackoffDelay computes min(base*2^attempt, max) plus uniform jitter of up
// to 50% of the capped delay.
func BackoffDelay(attempt int, base, maxDelay time.Duration) time.Duration {
	delay := base << uint(attempt)
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	jitter := time.Duration(rand.Float64() * 0.5 * float64(delay))
	return delay + jitter
}

// IsRetryable reports whether an error is transient. HTTP 408/429/5xx and
// network-level failures retry; auth failures and other client errors do
// not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return retryableStatusCodes[sc.StatusCode()]
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout || dnsErr.IsNotFound
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	// Fallback for errors that lost their type through formatting.
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"connection timed out",
		"no such host",
		"temporary failure",
		"try again",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}

// connectivityHosts are probed by Online. Any successful dial counts.
var connectivityHosts = []string{
	"api.anthropic.com:443",
	"1.1.1.1:53",
	"8.8.8.8:53",
}

// Online probes well-known hosts with a short timeout and reports whether
// any of them is reachable.
func Online(ctx context.Context) bool {
	dialer := &net.Dialer{Timeout: 3 * time.Second}
	for _, host := range connectivityHosts {
		conn, err := dialer.DialContext(ctx, "tcp", host)
		if err == nil {
			_ = conn.Close()
			return true
		}
	}
	return false
}
