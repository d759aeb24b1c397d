package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// RetryConfig controls the backoff schedule of a RetryClient.
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	// Jitter adds up to the given fraction of each delay at random,
	// spreading concurrent retries apart.
	Jitter float64
}

// DefaultRetryConfig returns the schedule used when none is given:
// 3 retries, 1s initial delay doubling to a 30s cap, 20% jitter.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialDelay:      time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.2,
	}
}

// RetryClient retries transient failures of the wrapped Client with
// exponential backoff. Non-retryable errors fail immediately.
type RetryClient struct {
	client Client
	config *RetryConfig
}

// NewRetryClient wraps client with the given schedule.
func NewRetryClient(client Client, config *RetryConfig) *RetryClient {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.BackoffMultiplier <= 1 {
		config.BackoffMultiplier = 2.0
	}
	return &RetryClient{client: client, config: config}
}

// Chat implements Client.
func (r *RetryClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	return retryCall(ctx, r, func() (*Response, error) {
		return r.client.Chat(ctx, messages)
	})
}

// ChatStructured implements Client.
func (r *RetryClient) ChatStructured(ctx context.Context, messages []Message, schemaHint string) (*Response, error) {
	return retryCall(ctx, r, func() (*Response, error) {
		return r.client.ChatStructured(ctx, messages, schemaHint)
	})
}

// Close implements Client.
func (r *RetryClient) Close() error { return r.client.Close() }

func retryCall(ctx context.Context, r *RetryClient, call func() (*Response, error)) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(r.delay(attempt)):
			case <-ctx.Done():
				return nil, fmt.Errorf("retry backoff interrupted: %w", ctx.Err())
			}
		}

		resp, err := call()
		if err == nil {
			return resp, nil
		}
		if !IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("exhausted %d retries: %w", r.config.MaxRetries, lastErr)
}

func (r *RetryClient) delay(attempt int) time.Duration {
	d := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffMultiplier, float64(attempt-1))
	if d > float64(r.config.MaxDelay) {
		d = float64(r.config.MaxDelay)
	}
	if r.config.Jitter > 0 {
		d += d * r.config.Jitter * rand.Float64()
	}
	return time.Duration(d)
}

// IsRetryable reports whether the error is worth retrying: rate limits,
// server errors, and transport timeouts qualify; everything else fails
// fast.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimit) {
		return true
	}
	var rateLimited *RateLimitError
	if errors.As(err, &rateLimited) {
		return true
	}
	// Refusals and empty responses do not improve on retry.
	if errors.Is(err, ErrRefusal) || errors.Is(err, ErrEmptyResponse) {
		return false
	}

	type statusCoder interface{ HTTPStatusCode() int }
	var sc statusCoder
	if errors.As(err, &sc) {
		code := sc.HTTPStatusCode()
		return code >= 500 || code == http.StatusTooManyRequests
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

var retryablePatterns = []string{
	"500", "internal server error",
	"502", "bad gateway",
	"503", "service unavailable",
	"504", "gateway timeout",
	"429", "too many requests",
	"timeout",
	"connection reset",
	"connection refused",
	"temporary failure",
}
