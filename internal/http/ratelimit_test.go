package http

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komorebi-io/pixiv-client/pkg/pixiv"
)

func TestRateLimiter_Wait(t *testing.T) {
	t.Parallel()

	t.Run("burst admits immediately", func(t *testing.T) {
		t.Parallel()

		rl := NewRateLimiter(1, 3)

		start := time.Now()
		for i := 0; i < 3; i++ {
			require.NoError(t, rl.Wait(context.Background()))
		}

		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("delays beyond burst", func(t *testing.T) {
		t.Parallel()

		rl := NewRateLimiter(10, 1)
		require.NoError(t, rl.Wait(context.Background()))

		start := time.Now()
		require.NoError(t, rl.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("disabled limiter never delays", func(t *testing.T) {
		t.Parallel()

		rl := NewRateLimiter(1, 1)
		rl.SetEnabled(false)

		start := time.Now()
		for i := 0; i < 10; i++ {
			require.NoError(t, rl.Wait(context.Background()))
		}

		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("cancelled wait returns its slot", func(t *testing.T) {
		t.Parallel()

		rl := NewRateLimiter(1, 1)
		require.NoError(t, rl.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := rl.Wait(ctx)
		require.Error(t, err)

		// The abandoned reservation must not consume the next slot: a
		// fresh wait is admitted within roughly one refill interval.
		waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer waitCancel()

		assert.NoError(t, rl.Wait(waitCtx))
	})

	t.Run("reports long waits to the sink", func(t *testing.T) {
		t.Parallel()

		sink := pixiv.NewChannelSink(4)
		rl := NewRateLimiter(5, 1)
		rl.setEventSink(sink)

		require.NoError(t, rl.Wait(context.Background()))
		require.NoError(t, rl.Wait(context.Background()))

		sink.Close()

		var sawWait bool
		for event := range sink.Events() {
			if event.Kind == pixiv.EventRateLimitWait {
				sawWait = true
				assert.GreaterOrEqual(t, event.Wait, waitReportThreshold)
			}
		}

		assert.True(t, sawWait)
	})

	t.Run("non-positive settings fall back to defaults", func(t *testing.T) {
		t.Parallel()

		rl := NewRateLimiter(0, 0)
		require.NoError(t, rl.Wait(context.Background()))
	})
}
