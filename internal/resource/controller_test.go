package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	// Test with limit
	c := NewController(Config{MemoryLimitBytes: 100})

	// Acquire 50
	err := c.AcquireMemory(50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), c.MemoryUsage())

	// Acquire 40
	err = c.AcquireMemory(40)
	require.NoError(t, err)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Acquire 20 (should fail - limit exceeded)
	err = c.AcquireMemory(20)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Release 50
	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(20))
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestController_Solves(t *testing.T) {
	t.Run("Semaphore", func(t *testing.T) {
		c := NewController(Config{MaxConcurrentSolves: 1})
		ctx := context.Background()

		require.NoError(t, c.AcquireSolve(ctx))
		assert.Equal(t, int64(1), c.SolvesInFlight())

		blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		err := c.AcquireSolve(blocked)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		c.ReleaseSolve()
		assert.Equal(t, int64(0), c.SolvesInFlight())
		require.NoError(t, c.AcquireSolve(ctx))
		c.ReleaseSolve()
	})

	t.Run("RateLimit", func(t *testing.T) {
		c := NewController(Config{SolvesPerSecond: 0.001})
		ctx := context.Background()

		// The burst token is available immediately.
		require.NoError(t, c.AcquireSolve(ctx))
		c.ReleaseSolve()

		blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		assert.Error(t, c.AcquireSolve(blocked))
	})
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireSolve(context.Background()))
	c.ReleaseSolve()
	require.NoError(t, c.AcquireMemory(1<<40))
	c.ReleaseMemory(1 << 40)
	assert.Zero(t, c.MemoryUsage())
	assert.Zero(t, c.SolvesInFlight())
}
