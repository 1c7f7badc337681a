package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, 200*time.Millisecond)

	for i := 0; i < 5; i++ {
		assert.True(t, tb.Allow(), "token %d should be available", i+1)
	}
	assert.False(t, tb.Allow(), "bucket should be exhausted")

	time.Sleep(250 * time.Millisecond)
	assert.True(t, tb.Allow(), "bucket should refill after the period")

	tb.tokens = 0
	tb.Reset()
	assert.Equal(t, tb.capacity, tb.tokens)
}

func TestSlidingWindow(t *testing.T) {
	sw := NewSlidingWindow(3, 200*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, sw.Allow(), "post %d should be allowed", i+1)
	}
	assert.False(t, sw.Allow(), "window should be full")

	time.Sleep(250 * time.Millisecond)
	assert.True(t, sw.Allow(), "window should slide")

	sw.Reset()
	assert.Empty(t, sw.requests)
}

func TestWaitBlocksUntilSlotFrees(t *testing.T) {
	limiters := map[string]Limiter{
		"bucket": NewTokenBucket(1, 150*time.Millisecond),
		"window": NewSlidingWindow(1, 150*time.Millisecond),
	}

	for name, l := range limiters {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, l.Wait(context.Background()))

			start := time.Now()
			require.NoError(t, l.Wait(context.Background()))
			assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
		})
	}
}

func TestWaitHonoursContext(t *testing.T) {
	limiters := map[string]Limiter{
		"bucket": NewTokenBucket(1, time.Hour),
		"window": NewSlidingWindow(1, time.Hour),
	}

	for name, l := range limiters {
		t.Run(name, func(t *testing.T) {
			require.True(t, l.Allow())

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			err := l.Wait(ctx)
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		})
	}
}

func TestNew(t *testing.T) {
	l, err := New(StrategyWindow, 0)
	require.NoError(t, err)
	assert.IsType(t, Unlimited{}, l)

	l, err = New("", 10)
	require.NoError(t, err)
	assert.IsType(t, &SlidingWindow{}, l)

	l, err = New(StrategyBucket, 10)
	require.NoError(t, err)
	assert.IsType(t, &TokenBucket{}, l)

	_, err = New("leaky", 10)
	assert.Error(t, err)
}

func TestUnlimited(t *testing.T) {
	var l Unlimited
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow())
	}
	assert.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx))
}
