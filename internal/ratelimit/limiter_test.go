package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func newTestLimiter(config Config) *Limiter {
	return New(config, arbor.NewLogger())
}

func noop(ctx context.Context) error { return nil }

func TestExecute_WithinBudgetNeverBlocks(t *testing.T) {
	l := newTestLimiter(Config{Name: "test", Window: time.Second, MaxRequests: 3})

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Execute(context.Background(), noop))
	}

	assert.Less(t, time.Since(start), 200*time.Millisecond)
	assert.False(t, l.CanProceed())
}

func TestExecute_DelaysRequestBeyondBudget(t *testing.T) {
	window := 200 * time.Millisecond
	l := newTestLimiter(Config{Name: "test", Window: window, MaxRequests: 2})

	start := time.Now()
	var finished []time.Duration
	for i := 0; i < 3; i++ {
		err := l.Execute(context.Background(), func(ctx context.Context) error {
			finished = append(finished, time.Since(start))
			return nil
		})
		require.NoError(t, err)
	}

	require.Len(t, finished, 3)
	assert.Less(t, finished[1], window)
	assert.GreaterOrEqual(t, finished[2], window)
}

func TestExecute_PropagatesOperationError(t *testing.T) {
	l := newTestLimiter(Config{Window: time.Second, MaxRequests: 1})
	boom := errors.New("boom")

	err := l.Execute(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestExecute_CancelledWhileWaiting(t *testing.T) {
	l := newTestLimiter(Config{Window: time.Minute, MaxRequests: 1})
	require.NoError(t, l.Execute(context.Background(), noop))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	called := false
	err := l.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
}

func TestCanProceed_WindowSlides(t *testing.T) {
	l := newTestLimiter(Config{Window: time.Minute, MaxRequests: 1})

	current := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }

	assert.True(t, l.CanProceed())
	require.NoError(t, l.Execute(context.Background(), noop))
	assert.False(t, l.CanProceed())

	current = current.Add(59 * time.Second)
	assert.False(t, l.CanProceed())

	current = current.Add(2 * time.Second)
	assert.True(t, l.CanProceed())
}

func TestEnqueue_RejectsWhenQueueFull(t *testing.T) {
	depth := 2
	l := newTestLimiter(Config{Window: time.Second, MaxRequests: 100, QueueDepth: depth})
	defer l.Close()

	started := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = l.Enqueue(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	for i := 0; i < depth; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Enqueue(context.Background(), noop))
		}()
	}
	require.Eventually(t, func() bool { return l.Pending() == depth }, time.Second, 5*time.Millisecond)

	err := l.Enqueue(context.Background(), noop)
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	wg.Wait()
	assert.Equal(t, 0, l.Pending())
}

func TestEnqueue_RunsInSubmissionOrder(t *testing.T) {
	l := newTestLimiter(Config{Window: time.Second, MaxRequests: 100, QueueDepth: 10, QueueSpacing: time.Millisecond})
	defer l.Close()

	started := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var order []int
	record := func(n int) Operation {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			return nil
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = l.Enqueue(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	for i := 1; i <= 3; i++ {
		n := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Enqueue(context.Background(), record(n)))
		}()
		require.Eventually(t, func() bool { return l.Pending() == n }, time.Second, time.Millisecond)
	}

	close(release)
	wg.Wait()
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestEnqueue_AfterClose(t *testing.T) {
	l := newTestLimiter(Config{Window: time.Second, MaxRequests: 1})
	l.Close()

	assert.ErrorIs(t, l.Enqueue(context.Background(), noop), ErrClosed)
}

func TestEnqueue_ConcurrentCloseNeverStrandsCallers(t *testing.T) {
	for round := 0; round < 50; round++ {
		l := newTestLimiter(Config{Window: time.Second, MaxRequests: 1000, QueueDepth: 64})

		const callers = 32
		results := make(chan error, callers)
		start := make(chan struct{})
		for i := 0; i < callers; i++ {
			go func() {
				<-start
				results <- l.Enqueue(context.Background(), noop)
			}()
		}

		close(start)
		l.Close()

		deadline := time.After(2 * time.Second)
		for i := 0; i < callers; i++ {
			select {
			case err := <-results:
				if err != nil {
					assert.ErrorIs(t, err, ErrClosed)
				}
			case <-deadline:
				t.Fatalf("round %d: %d callers still blocked after Close", round, callers-i)
			}
		}
	}
}

func TestDo_ReturnsTypedResult(t *testing.T) {
	l := newTestLimiter(Config{Window: time.Second, MaxRequests: 1})

	got, err := Do(context.Background(), l, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}
