package fetcher

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/httpclient"
)

// RetryPolicy defines retry behavior with exponential backoff
type RetryPolicy struct {
	MaxAttempts          int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	BackoffMultiplier    float64
	RetryableStatusCodes []int
}

// NewRetryPolicy creates a default retry policy
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		RetryableStatusCodes: []int{
			408, // Request Timeout
			429, // Too Many Requests
			500, // Internal Server Error
			502, // Bad Gateway
			503, // Service Unavailable
			504, // Gateway Timeout
		},
	}
}

// ShouldRetry checks if an attempt should be retried based on attempt count,
// status code, and error type
func (p *RetryPolicy) ShouldRetry(attempt int, statusCode int, err error) bool {
	if attempt >= p.MaxAttempts {
		return false
	}

	if statusCode > 0 {
		if p.isRetryableStatusCode(statusCode) {
			return true
		}
		// Client errors (except timeout/rate limit) are not retryable
		if statusCode >= 400 && statusCode < 500 {
			return false
		}
	}

	if err != nil {
		return isRetryableError(err)
	}

	return false
}

// CalculateBackoff calculates the backoff duration with exponential backoff and jitter
func (p *RetryPolicy) CalculateBackoff(attempt int) time.Duration {
	backoff := float64(p.InitialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= p.BackoffMultiplier
	}
	if backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}

	// Add jitter (±25%)
	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	backoff += jitter

	if backoff < 0 {
		backoff = float64(p.InitialBackoff)
	}

	return time.Duration(backoff)
}

// ExecuteWithRetry runs fn under the retry policy and returns its last result
func (p *RetryPolicy) ExecuteWithRetry(ctx context.Context, logger arbor.ILogger, fn func() ([]byte, error)) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		body, err := fn()
		if err == nil {
			return body, nil
		}
		lastErr = err

		statusCode := 0
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			statusCode = statusErr.StatusCode
		}

		if !p.ShouldRetry(attempt, statusCode, err) {
			logger.Debug().
				Int("attempt", attempt+1).
				Int("status_code", statusCode).
				Err(err).
				Msg("Non-retryable error, failing immediately")
			return nil, err
		}

		if attempt < p.MaxAttempts-1 {
			backoff := p.CalculateBackoff(attempt)
			logger.Debug().
				Int("attempt", attempt+1).
				Int("status_code", statusCode).
				Err(err).
				Dur("backoff", backoff).
				Msg("Retrying after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	logger.Warn().
		Int("max_attempts", p.MaxAttempts).
		Err(lastErr).
		Msg("All retry attempts exhausted")

	return nil, lastErr
}

// isRetryableStatusCode checks if a status code is retryable
func (p *RetryPolicy) isRetryableStatusCode(statusCode int) bool {
	for _, code := range p.RetryableStatusCodes {
		if statusCode == code {
			return true
		}
	}
	return false
}

// isRetryableError checks if an error is retryable (timeouts, connection
// errors, context deadline exceeded)
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return false
}
