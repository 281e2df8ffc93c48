package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/kjstillabower/hazard-risk-service/internal/circuitbreaker"
	"github.com/kjstillabower/hazard-risk-service/internal/models"
	"github.com/kjstillabower/hazard-risk-service/internal/observability"
)

var (
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrRateLimited      = errors.New("rate limited")
	ErrMalformedPayload = errors.New("malformed payload")
)

// RetryPolicy holds shared retry/backoff parameters for upstream calls.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy returns the retry parameters used when none are configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// doWithRetry runs call up to policy.Attempts times with exponential backoff
// and jitter, retrying only transient failures. dataset labels retry metrics.
func doWithRetry(ctx context.Context, dataset models.Dataset, policy RetryPolicy, call func() error) error {
	var lastErr error

	for attempt := 0; attempt < policy.Attempts; attempt++ {
		if attempt > 0 {
			observability.UpstreamRetriesTotal.WithLabelValues(string(dataset)).Inc()
			delay := backoffDelay(policy, attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := call()
		if err == nil {
			return nil
		}

		lastErr = err
		if !isRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("exhausted retries: %w", lastErr)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamFailure) {
		return true
	}
	if errors.Is(err, ErrMalformedPayload) {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "context canceled")
}

func backoffDelay(policy RetryPolicy, attempt int) time.Duration {
	delay := float64(policy.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}
	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

// handleErrorResponse maps HTTP status codes to sentinel errors.
func handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	return nil
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}

// observe records call metrics for one upstream request.
func observe(dataset models.Dataset, status string, start time.Time) {
	observability.UpstreamCallsTotal.WithLabelValues(string(dataset), status).Inc()
	observability.UpstreamDuration.WithLabelValues(string(dataset), status).Observe(time.Since(start).Seconds())
}

// callThrough wraps fn with the circuit breaker when one is configured.
func callThrough(ctx context.Context, cb *circuitbreaker.CircuitBreaker, fn func() error) error {
	if cb == nil {
		return fn()
	}
	return cb.Call(ctx, fn)
}

func extractCorrelationID(ctx context.Context) string {
	if v := ctx.Value(observability.CorrelationIDKey); v != nil {
		if corrID, ok := v.(string); ok {
			return corrID
		}
	}
	return ""
}
