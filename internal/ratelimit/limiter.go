// Package ratelimit gates calls to an external API with a sliding request
// window and an optional bounded FIFO of pending work.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

var (
	// ErrQueueFull is returned by Enqueue when QueueDepth operations are already pending
	ErrQueueFull = errors.New("rate limiter queue full")

	// ErrClosed is returned for work submitted to, or still pending in, a closed limiter
	ErrClosed = errors.New("rate limiter closed")
)

// Operation is a unit of rate-limited work
type Operation func(ctx context.Context) error

// Config defines the request budget of a limiter
type Config struct {
	Name         string        // used in log events
	Window       time.Duration // W
	MaxRequests  int           // N per window
	QueueDepth   int           // Q pending operations for Enqueue
	QueueSpacing time.Duration // pause between queued operations
	Buffer       time.Duration // added to every computed wait
}

type queuedOp struct {
	ctx    context.Context
	op     Operation
	result chan error
}

// Limiter is a sliding-window request gate. One instance is shared by every
// caller of the API it protects.
type Limiter struct {
	config Config
	logger arbor.ILogger
	now    func() time.Time

	mu         sync.Mutex
	timestamps []time.Time

	queue     chan *queuedOp
	pacer     *rate.Limiter
	drainOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}

	// closeMu orders queue sends against Close
	closeMu sync.Mutex
	closed  bool
}

// New creates a limiter. Non-positive limits fall back to one request per second.
func New(config Config, logger arbor.ILogger) *Limiter {
	if config.Window <= 0 {
		config.Window = time.Second
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = 1
	}
	if config.QueueDepth <= 0 {
		config.QueueDepth = 1
	}
	if config.Buffer <= 0 {
		config.Buffer = 10 * time.Millisecond
	}

	pacing := rate.Inf
	if config.QueueSpacing > 0 {
		pacing = rate.Every(config.QueueSpacing)
	}

	return &Limiter{
		config:     config,
		logger:     logger,
		now:        time.Now,
		timestamps: make([]time.Time, 0, config.MaxRequests),
		queue:      make(chan *queuedOp, config.QueueDepth),
		pacer:      rate.NewLimiter(pacing, 1),
		done:       make(chan struct{}),
	}
}

// purge drops timestamps that left the window. Caller holds mu.
func (l *Limiter) purge(now time.Time) {
	cutoff := now.Add(-l.config.Window)
	keep := 0
	for keep < len(l.timestamps) && !l.timestamps[keep].After(cutoff) {
		keep++
	}
	l.timestamps = l.timestamps[keep:]
}

// CanProceed reports whether a request could start now without waiting
func (l *Limiter) CanProceed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.purge(l.now())
	return len(l.timestamps) < l.config.MaxRequests
}

// reserve records a request slot if one is free, otherwise returns how long
// until the oldest slot leaves the window
func (l *Limiter) reserve() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.purge(now)
	if len(l.timestamps) < l.config.MaxRequests {
		l.timestamps = append(l.timestamps, now)
		return 0, true
	}
	return l.timestamps[0].Add(l.config.Window).Sub(now), false
}

// Execute runs op as soon as the window allows. The window is rechecked after
// every sleep since other callers may have taken the freed slot.
func (l *Limiter) Execute(ctx context.Context, op Operation) error {
	for {
		wait, ok := l.reserve()
		if ok {
			return op(ctx)
		}

		wait += l.config.Buffer
		l.logger.Debug().
			Str("limiter", l.config.Name).
			Dur("wait", wait).
			Msg("Rate limit reached, waiting for window")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Enqueue submits op to the FIFO and blocks until it has run. It fails fast
// with ErrQueueFull rather than waiting for queue space.
func (l *Limiter) Enqueue(ctx context.Context, op Operation) error {
	job := &queuedOp{ctx: ctx, op: op, result: make(chan error, 1)}
	if err := l.push(job); err != nil {
		return err
	}

	select {
	case err := <-job.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// push adds job to the queue unless the limiter is closed or the queue is full
func (l *Limiter) push(job *queuedOp) error {
	l.closeMu.Lock()
	defer l.closeMu.Unlock()

	if l.closed {
		return ErrClosed
	}

	l.drainOnce.Do(func() { go l.drain() })

	select {
	case l.queue <- job:
		return nil
	default:
		l.logger.Warn().
			Str("limiter", l.config.Name).
			Int("queue_depth", l.config.QueueDepth).
			Msg("Rate limiter queue full, rejecting request")
		return ErrQueueFull
	}
}

// Pending returns the number of queued operations not yet started
func (l *Limiter) Pending() int {
	return len(l.queue)
}

// drain processes queued operations one at a time, in submission order
func (l *Limiter) drain() {
	for {
		select {
		case <-l.done:
			l.rejectPending()
			return
		case job := <-l.queue:
			if err := job.ctx.Err(); err != nil {
				job.result <- err
				continue
			}
			if err := l.pacer.Wait(job.ctx); err != nil {
				job.result <- err
				continue
			}
			job.result <- l.Execute(job.ctx, job.op)
		}
	}
}

func (l *Limiter) rejectPending() {
	for {
		select {
		case job := <-l.queue:
			job.result <- ErrClosed
		default:
			return
		}
	}
}

// Close stops the drain loop; pending operations receive ErrClosed
func (l *Limiter) Close() {
	l.closeOnce.Do(func() {
		l.closeMu.Lock()
		l.closed = true
		close(l.done)
		l.drainOnce.Do(func() {})
		l.closeMu.Unlock()

		l.rejectPending()
	})
}

// Do runs fn through Execute and returns its typed result
func Do[T any](ctx context.Context, l *Limiter, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := l.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Submit runs fn through Enqueue and returns its typed result
func Submit[T any](ctx context.Context, l *Limiter, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := l.Enqueue(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
