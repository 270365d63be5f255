package throttle_test

import (
	"context"
	"testing"
	"time"

	"github.com/UnknownOlympus/scout/internal/throttle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_Acquire(t *testing.T) {
	t.Run("spaces consecutive slots", func(t *testing.T) {
		interval := 60 * time.Millisecond
		pacer := throttle.NewPacer("nominatim", interval)

		require.NoError(t, pacer.Acquire(t.Context()))
		start := time.Now()
		require.NoError(t, pacer.Acquire(t.Context()))

		assert.GreaterOrEqual(t, time.Since(start), interval-10*time.Millisecond)
	})

	t.Run("interval counts from the end of the attempt", func(t *testing.T) {
		interval := 60 * time.Millisecond
		pacer := throttle.NewPacer("nominatim", interval)

		require.NoError(t, pacer.Acquire(t.Context()))
		time.Sleep(80 * time.Millisecond)
		pacer.Release()
		released := time.Now()
		require.NoError(t, pacer.Acquire(t.Context()))

		assert.GreaterOrEqual(t, time.Since(released), interval-10*time.Millisecond)
	})

	t.Run("cancelled before the next slot opens", func(t *testing.T) {
		pacer := throttle.NewPacer("locationiq", time.Hour)
		require.NoError(t, pacer.Acquire(t.Context()))
		pacer.Release()

		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()

		err := pacer.Acquire(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "wait for locationiq slot")
	})

	t.Run("zero interval does not wait", func(t *testing.T) {
		pacer := throttle.NewPacer("google", 0)
		start := time.Now()
		for range 10 {
			require.NoError(t, pacer.Acquire(t.Context()))
		}

		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("cancelled context", func(t *testing.T) {
		pacer := throttle.NewPacer("nominatim", time.Hour)
		require.NoError(t, pacer.Acquire(t.Context()))

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		err := pacer.Acquire(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "wait for nominatim slot")
	})
}

func TestPacers_Get(t *testing.T) {
	pacers := throttle.NewPacers()

	first := pacers.Get("nominatim", time.Second)
	second := pacers.Get("nominatim", 5*time.Second)
	other := pacers.Get("google", 200*time.Millisecond)

	assert.Same(t, first, second)
	assert.Equal(t, time.Second, second.Interval())
	assert.NotSame(t, first, other)
	assert.Equal(t, "google", other.Name())
}
