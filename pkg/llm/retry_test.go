package llm_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/engram/pkg/llm"
)

// scriptedClient fails a fixed number of times before succeeding.
type scriptedClient struct {
	calls    atomic.Int32
	failures int32
	err      error
}

func (s *scriptedClient) Chat(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	n := s.calls.Add(1)
	if n <= s.failures {
		return nil, s.err
	}
	return &llm.Response{Content: "ok"}, nil
}

func (s *scriptedClient) ChatStructured(ctx context.Context, messages []llm.Message, schemaHint string) (*llm.Response, error) {
	return s.Chat(ctx, messages)
}

func (s *scriptedClient) Close() error { return nil }

func fastRetryConfig(maxRetries int) *llm.RetryConfig {
	return &llm.RetryConfig{
		MaxRetries:        maxRetries,
		InitialDelay:      time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestRetryClientRecovers(t *testing.T) {
	base := &scriptedClient{failures: 2, err: llm.NewRateLimitError()}
	client := llm.NewRetryClient(base, fastRetryConfig(3))

	resp, err := client.Chat(context.Background(), []llm.Message{llm.NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, int32(3), base.calls.Load())
}

func TestRetryClientExhaustsRetries(t *testing.T) {
	base := &scriptedClient{failures: 10, err: errors.New("503 service unavailable")}
	client := llm.NewRetryClient(base, fastRetryConfig(2))

	_, err := client.Chat(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted 2 retries")
	assert.Equal(t, int32(3), base.calls.Load())
}

func TestRetryClientFailsFastOnNonRetryable(t *testing.T) {
	base := &scriptedClient{failures: 10, err: llm.NewRefusalError("declined")}
	client := llm.NewRetryClient(base, fastRetryConfig(5))

	_, err := client.Chat(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrRefusal))
	assert.Equal(t, int32(1), base.calls.Load(), "non-retryable errors must not be retried")
}

func TestRetryClientHonorsContext(t *testing.T) {
	base := &scriptedClient{failures: 10, err: llm.NewRateLimitError()}
	cfg := fastRetryConfig(5)
	cfg.InitialDelay = time.Second
	client := llm.NewRetryClient(base, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Chat(ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
