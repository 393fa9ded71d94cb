package places

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/outing/internal/ratelimit"
)

// trackedBody records whether it was closed
type trackedBody struct {
	io.Reader
	closed atomic.Bool
}

func (b *trackedBody) Close() error {
	b.closed.Store(true)
	return nil
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestTransport_ClosesResponseAfterCallerGivesUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	body := &trackedBody{Reader: strings.NewReader(`{}`)}
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		// the caller's context ends while the response is in flight
		cancel()
		time.Sleep(50 * time.Millisecond)
		return &http.Response{StatusCode: http.StatusOK, Body: body, Header: http.Header{}, Request: req}, nil
	})}

	logger := createTestLogger()
	limiter := ratelimit.New(ratelimit.Config{Window: time.Second, MaxRequests: 10, QueueDepth: 4}, logger)
	t.Cleanup(limiter.Close)

	tr := newTransport("test-key", client, limiter, logger)
	req, err := http.NewRequest(http.MethodGet, "http://places.invalid/v1/places:searchText", nil)
	require.NoError(t, err)

	resp, err := tr.do(ctx, req, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, resp)

	assert.Eventually(t, body.closed.Load, time.Second, 10*time.Millisecond)
}

func TestTransport_ReturnsOpenResponse(t *testing.T) {
	body := &trackedBody{Reader: strings.NewReader(`{}`)}
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: body, Header: http.Header{}, Request: req}, nil
	})}

	logger := createTestLogger()
	limiter := ratelimit.New(ratelimit.Config{Window: time.Second, MaxRequests: 10, QueueDepth: 4}, logger)
	t.Cleanup(limiter.Close)

	tr := newTransport("test-key", client, limiter, logger)
	req, err := http.NewRequest(http.MethodGet, "http://places.invalid/v1/places:searchText", nil)
	require.NoError(t, err)

	resp, err := tr.do(context.Background(), req, true)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.False(t, body.closed.Load())
	resp.Body.Close()
}
