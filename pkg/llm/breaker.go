package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig tunes the circuit breaker around an LLM backend.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval over which failure counts are accumulated while closed.
	Interval time.Duration
	// Timeout before an open breaker moves to half-open.
	Timeout time.Duration
	// TripRatio is the failure ratio that opens the breaker once at
	// least three requests have been counted.
	TripRatio float64
}

// DefaultBreakerConfig matches a chatty ingestion workload: a 60s
// counting window, 30s open timeout, trip at 60% failures.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		TripRatio:   0.6,
	}
}

// BreakerClient stops calling a failing backend instead of hammering it.
// While the breaker is open every call fails fast with
// gobreaker.ErrOpenState.
type BreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewBreakerClient wraps client with a circuit breaker named for logs.
func NewBreakerClient(client Client, cfg BreakerConfig, name string, logger *slog.Logger) *BreakerClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TripRatio <= 0 || cfg.TripRatio > 1 {
		cfg.TripRatio = 0.6
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && ratio >= cfg.TripRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: logger,
	}
}

// Chat implements Client.
func (c *BreakerClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	resp, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Chat(ctx, messages)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*Response), nil
}

// ChatStructured implements Client.
func (c *BreakerClient) ChatStructured(ctx context.Context, messages []Message, schemaHint string) (*Response, error) {
	resp, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.ChatStructured(ctx, messages, schemaHint)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*Response), nil
}

// Close implements Client.
func (c *BreakerClient) Close() error { return c.client.Close() }
