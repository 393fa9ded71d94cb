package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    5 * time.Millisecond,
		MaxBackoff:        20 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

func TestIsRateLimitError(t *testing.T) {
	assert.False(t, IsRateLimitError(nil))
	assert.False(t, IsRateLimitError(errors.New("connection reset")))
	assert.True(t, IsRateLimitError(errors.New("Error 429, Status: RESOURCE_EXHAUSTED")))
	assert.True(t, IsRateLimitError(&openai.APIError{HTTPStatusCode: 429, Message: "slow down"}))
	assert.False(t, IsRateLimitError(&openai.APIError{HTTPStatusCode: 500, Message: "boom"}))
}

func TestExtractRetryDelay(t *testing.T) {
	err := errors.New("Error 429, Message: quota. Please retry in 12.5s., Status: RESOURCE_EXHAUSTED")
	assert.Equal(t, 12500*time.Millisecond, ExtractRetryDelay(err))

	assert.Equal(t, 3*time.Second, ExtractRetryDelay(errors.New("Rate limit reached. Please try again in 3s.")))
	assert.Zero(t, ExtractRetryDelay(errors.New("429 too many requests")))
	assert.Zero(t, ExtractRetryDelay(nil))
}

func TestCalculateBackoff(t *testing.T) {
	c := &RetryConfig{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second, BackoffMultiplier: 2}

	assert.Equal(t, time.Second, c.CalculateBackoff(0, 0))
	assert.Equal(t, 4*time.Second, c.CalculateBackoff(2, 0))
	assert.Equal(t, 5*time.Second, c.CalculateBackoff(5, 0), "capped at MaxBackoff")
	assert.Equal(t, 3*time.Second, c.CalculateBackoff(0, 3*time.Second), "API delay replaces base")
}

func TestWithRetry_RetriesRateLimitOnly(t *testing.T) {
	calls := 0
	result, err := withRetry(context.Background(), fastRetryConfig(), createTestLogger(), ProviderOpenAI, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("status code: 429")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)

	calls = 0
	_, err = withRetry(context.Background(), fastRetryConfig(), createTestLogger(), ProviderOpenAI, func() (string, error) {
		calls++
		return "", errors.New("invalid request")
	})
	assert.EqualError(t, err, "invalid request")
	assert.Equal(t, 1, calls)
}

func TestWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), fastRetryConfig(), createTestLogger(), ProviderGemini, func() (int, error) {
		calls++
		return 0, errors.New("RESOURCE_EXHAUSTED")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := fastRetryConfig()
	config.InitialBackoff = time.Hour
	config.MaxBackoff = time.Hour

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := withRetry(ctx, config, createTestLogger(), ProviderClaude, func() (int, error) {
		return 0, errors.New("429")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
