package throttle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/scout/internal/metrics"
	"github.com/jonboulle/clockwork"
)

// Defaults for Executor.
const (
	DefaultMaxRetries     = 3
	DefaultAttemptTimeout = 10 * time.Second
	baseBackoff           = 1000 * time.Millisecond
	maxBackoff            = 10000 * time.Millisecond
)

// Executor runs one provider call with pacing and bounded exponential backoff.
// It is safe for concurrent use; all per-call state lives on the stack.
type Executor struct {
	clock          clockwork.Clock
	maxRetries     int
	attemptTimeout time.Duration
	metrics        *metrics.Metrics
	log            *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock replaces the clock used for backoff sleeps.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Executor) { e.clock = clock }
}

// WithMaxRetries sets the total number of attempts per operation.
func WithMaxRetries(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxRetries = n
		}
	}
}

// WithAttemptTimeout sets the deadline applied to every single attempt.
func WithAttemptTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.attemptTimeout = d
		}
	}
}

// WithMetrics enables provider request metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// NewExecutor creates an executor with a real clock, 3 attempts and a 10s attempt timeout.
func NewExecutor(log *slog.Logger, opts ...Option) *Executor {
	e := &Executor{
		clock:          clockwork.NewRealClock(),
		maxRetries:     DefaultMaxRetries,
		attemptTimeout: DefaultAttemptTimeout,
		log:            log,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Backoff returns the delay before the retry following attempt (0-based):
// min(1000 * 2^attempt, 10000) milliseconds.
func Backoff(attempt int) time.Duration {
	if attempt >= 4 {
		return maxBackoff
	}
	delay := baseBackoff << attempt
	if delay > maxBackoff {
		return maxBackoff
	}

	return delay
}

// Do runs op through the executor. It returns the result and true on success,
// or the zero value and false once the attempts are exhausted, a permanent error
// occurs, or ctx is cancelled. Failures are logged, never returned.
func Do[T any](ctx context.Context, e *Executor, pacer *Pacer, op func(ctx context.Context) (T, error)) (T, bool) {
	var zero T

	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if err := pacer.Acquire(ctx); err != nil {
			e.log.WarnContext(ctx, "Provider slot not acquired", "provider", pacer.Name(), "error", err)
			return zero, false
		}

		val, err := runAttempt(ctx, e, pacer.Name(), op)
		pacer.Release()
		if err == nil {
			e.observe(pacer.Name(), "success")
			return val, true
		}

		if ctx.Err() != nil {
			e.observe(pacer.Name(), "cancelled")
			return zero, false
		}

		class := Classify(err)
		e.observe(pacer.Name(), class.String())
		if class == ClassPermanent {
			e.log.WarnContext(ctx, "Provider request failed permanently, skipping",
				"provider", pacer.Name(), "error", err)
			return zero, false
		}

		if attempt == e.maxRetries-1 {
			break
		}

		delay := Backoff(attempt)
		e.log.DebugContext(ctx, "Retrying provider request",
			"provider", pacer.Name(),
			"attempt", attempt+1,
			"reason", class.String(),
			"backoff", delay,
			"error", err)
		if e.metrics != nil {
			e.metrics.ProviderRetries.WithLabelValues(pacer.Name(), class.String()).Inc()
		}

		select {
		case <-ctx.Done():
			return zero, false
		case <-e.clock.After(delay):
		}
	}

	e.log.WarnContext(ctx, "Provider retries exhausted, skipping", "provider", pacer.Name(), "attempts", e.maxRetries)

	return zero, false
}

func runAttempt[T any](ctx context.Context, e *Executor, provider string, op func(ctx context.Context) (T, error)) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()

	start := e.clock.Now()
	val, err := op(attemptCtx)
	if e.metrics != nil {
		e.metrics.RequestSeconds.WithLabelValues(provider).Observe(e.clock.Since(start).Seconds())
	}
	if err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		e.log.DebugContext(ctx, "Provider attempt timed out", "provider", provider, "timeout", e.attemptTimeout)
	}

	return val, err
}

func (e *Executor) observe(provider, outcome string) {
	if e.metrics != nil {
		e.metrics.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	}
}
