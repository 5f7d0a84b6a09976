package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_BlocksOverLimit(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should be allowed", i+1)
	}

	ok, err := l.Allow(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLimiter_UsersAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)

	ok, _ := l.Allow(context.Background(), 1)
	assert.True(t, ok)
	ok, _ = l.Allow(context.Background(), 1)
	assert.False(t, ok)

	ok, _ = l.Allow(context.Background(), 2)
	assert.True(t, ok)
}

func TestMemoryLimiter_WindowSlides(t *testing.T) {
	l := NewMemoryLimiter(1, 30*time.Millisecond)

	ok, _ := l.Allow(context.Background(), 1)
	assert.True(t, ok)
	ok, _ = l.Allow(context.Background(), 1)
	assert.False(t, ok)

	time.Sleep(40 * time.Millisecond)

	ok, _ = l.Allow(context.Background(), 1)
	assert.True(t, ok)
}

func TestMemoryLimiter_RejectedRequestsDoNotCount(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)

	for i := 0; i < 2; i++ {
		ok, _ := l.Allow(context.Background(), 1)
		require.True(t, ok)
	}

	// Hammering while blocked never extends the block.
	for i := 0; i < 10; i++ {
		ok, _ := l.Allow(context.Background(), 1)
		assert.False(t, ok)
	}

	l.mu.Lock()
	count := len(l.history[1])
	l.mu.Unlock()
	assert.Equal(t, 2, count)
}
