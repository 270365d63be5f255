package throttle_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/scout/internal/metrics"
	"github.com/UnknownOlympus/scout/internal/throttle"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	val string
	ok  bool
}

// advance releases count backoff sleeps in order while Do runs in the background.
func advance(t *testing.T, clock *clockwork.FakeClock, count int) {
	t.Helper()
	for i := range count {
		ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		cancel()
		clock.Advance(throttle.Backoff(i))
	}
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 1000*time.Millisecond, throttle.Backoff(0))
	assert.Equal(t, 2000*time.Millisecond, throttle.Backoff(1))
	assert.Equal(t, 4000*time.Millisecond, throttle.Backoff(2))
	assert.Equal(t, 8000*time.Millisecond, throttle.Backoff(3))
	assert.Equal(t, 10000*time.Millisecond, throttle.Backoff(4))
	assert.Equal(t, 10000*time.Millisecond, throttle.Backoff(30))
}

func TestDo(t *testing.T) {
	logger := slog.Default()
	pacer := throttle.NewPacer("test", 0)

	t.Run("success on first attempt", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		exec := throttle.NewExecutor(logger, throttle.WithClock(clock))
		calls := 0

		val, ok := throttle.Do(t.Context(), exec, pacer, func(_ context.Context) (string, error) {
			calls++
			return "hit", nil
		})

		require.True(t, ok)
		assert.Equal(t, "hit", val)
		assert.Equal(t, 1, calls)
	})

	t.Run("rate limited twice then success", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		reg := prometheus.NewRegistry()
		m := metrics.NewMetrics(reg)
		exec := throttle.NewExecutor(logger, throttle.WithClock(clock), throttle.WithMetrics(m))
		start := clock.Now()
		calls := 0

		done := make(chan result, 1)
		go func() {
			val, ok := throttle.Do(t.Context(), exec, pacer, func(_ context.Context) (string, error) {
				calls++
				if calls <= 2 {
					return "", fmt.Errorf("%w: status 429", throttle.ErrRateLimited)
				}
				return "hit", nil
			})
			done <- result{val, ok}
		}()

		advance(t, clock, 2)
		res := <-done

		require.True(t, res.ok)
		assert.Equal(t, "hit", res.val)
		assert.Equal(t, 3, calls)
		elapsed := clock.Since(start)
		assert.GreaterOrEqual(t, elapsed, 1000*time.Millisecond)
		assert.LessOrEqual(t, elapsed, 3000*time.Millisecond)
		assert.InDelta(t, 2, testutil.ToFloat64(m.ProviderRetries.WithLabelValues("test", "rate_limited")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("test", "success")), 0)
	})

	t.Run("transient errors exhaust attempts", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		exec := throttle.NewExecutor(logger, throttle.WithClock(clock))
		calls := 0

		done := make(chan result, 1)
		go func() {
			val, ok := throttle.Do(t.Context(), exec, pacer, func(_ context.Context) (string, error) {
				calls++
				return "", errors.New("status 503")
			})
			done <- result{val, ok}
		}()

		advance(t, clock, 2)
		res := <-done

		assert.False(t, res.ok)
		assert.Empty(t, res.val)
		assert.Equal(t, throttle.DefaultMaxRetries, calls)
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		exec := throttle.NewExecutor(logger, throttle.WithClock(clock))
		calls := 0

		_, ok := throttle.Do(t.Context(), exec, pacer, func(_ context.Context) (string, error) {
			calls++
			return "", fmt.Errorf("%w: invalid key", throttle.ErrPermanent)
		})

		assert.False(t, ok)
		assert.Equal(t, 1, calls)
	})

	t.Run("custom max retries", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		exec := throttle.NewExecutor(logger, throttle.WithClock(clock), throttle.WithMaxRetries(1))
		calls := 0

		_, ok := throttle.Do(t.Context(), exec, pacer, func(_ context.Context) (int, error) {
			calls++
			return 0, throttle.ErrRateLimited
		})

		assert.False(t, ok)
		assert.Equal(t, 1, calls)
	})

	t.Run("attempt timeout is applied", func(t *testing.T) {
		exec := throttle.NewExecutor(logger,
			throttle.WithMaxRetries(1),
			throttle.WithAttemptTimeout(20*time.Millisecond))

		_, ok := throttle.Do(t.Context(), exec, pacer, func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

		assert.False(t, ok)
	})

	t.Run("cancelled context stops retries", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		exec := throttle.NewExecutor(logger, throttle.WithClock(clock))
		ctx, cancel := context.WithCancel(t.Context())
		calls := 0

		_, ok := throttle.Do(ctx, exec, pacer, func(_ context.Context) (string, error) {
			calls++
			cancel()
			return "", errors.New("connection reset")
		})

		assert.False(t, ok)
		assert.Equal(t, 1, calls)
	})
}

func TestClassify(t *testing.T) {
	assert.Equal(t, throttle.ClassRateLimited, throttle.Classify(fmt.Errorf("x: %w", throttle.ErrRateLimited)))
	assert.Equal(t, throttle.ClassPermanent, throttle.Classify(fmt.Errorf("x: %w", throttle.ErrPermanent)))
	assert.Equal(t, throttle.ClassTransient, throttle.Classify(context.DeadlineExceeded))
	assert.Equal(t, "transient", throttle.ClassTransient.String())
}

func TestDo_PacesAfterEachAttempt(t *testing.T) {
	interval := 60 * time.Millisecond
	pacer := throttle.NewPacer("nominatim", interval)
	exec := throttle.NewExecutor(slog.Default())
	var finished, started time.Time

	_, ok := throttle.Do(t.Context(), exec, pacer, func(_ context.Context) (string, error) {
		time.Sleep(50 * time.Millisecond)
		finished = time.Now()
		return "first", nil
	})
	require.True(t, ok)

	_, ok = throttle.Do(t.Context(), exec, pacer, func(_ context.Context) (string, error) {
		started = time.Now()
		return "second", nil
	})
	require.True(t, ok)

	assert.GreaterOrEqual(t, started.Sub(finished), interval-10*time.Millisecond)
}
