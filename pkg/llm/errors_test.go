package llm_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soundprediction/engram/pkg/llm"
)

func TestRateLimitError(t *testing.T) {
	t.Run("default message", func(t *testing.T) {
		err := llm.NewRateLimitError()
		assert.Equal(t, llm.ErrRateLimit.Error(), err.Error())
	})

	t.Run("custom message", func(t *testing.T) {
		err := llm.NewRateLimitError("slow down")
		assert.Equal(t, "slow down", err.Error())
	})

	t.Run("matches sentinel through wrapping", func(t *testing.T) {
		err := fmt.Errorf("call failed: %w", llm.NewRateLimitError("429"))
		assert.True(t, errors.Is(err, llm.ErrRateLimit))

		var rl *llm.RateLimitError
		assert.True(t, errors.As(err, &rl))
		assert.Equal(t, "429", rl.Message)
	})
}

func TestRefusalError(t *testing.T) {
	err := llm.NewRefusalError("cannot answer that")
	assert.Equal(t, "cannot answer that", err.Error())
	assert.True(t, errors.Is(err, llm.ErrRefusal))
}

func TestEmptyResponseError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", llm.NewEmptyResponseError("no choices returned"))
	assert.True(t, errors.Is(err, llm.ErrEmptyResponse))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit typed", llm.NewRateLimitError(), true},
		{"rate limit sentinel wrapped", fmt.Errorf("x: %w", llm.ErrRateLimit), true},
		{"refusal", llm.NewRefusalError("no"), false},
		{"empty response", llm.NewEmptyResponseError("empty"), false},
		{"server error text", errors.New("503 service unavailable"), true},
		{"gateway timeout text", errors.New("upstream gateway timeout"), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"plain bad request", errors.New("400 bad request"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.IsRetryable(tt.err))
		})
	}
}
