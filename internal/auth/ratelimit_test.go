package auth

import (
	"context"
	"testing"
	"time"

	"github.com/inkset/inkwell/internal/store"
	"github.com/inkset/inkwell/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acquireLimiter(t *testing.T, name string) (*RateLimiter, *testClock, func()) {
	ctx := context.Background()
	st, cleanup := testutil.AcquireStore(ctx, t, name)
	clock := newTestClock()
	limiter := NewRateLimiter(st, 5, 15*time.Minute)
	limiter.now = clock.Now
	return limiter, clock, cleanup
}

func TestRateLimiterLocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	limiter, _, cleanup := acquireLimiter(t, "ratelimit-lock")
	defer cleanup()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.CheckAllowed(ctx, "mallory")
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %v should still be allowed", i+1)
		require.NoError(t, limiter.RecordFailure(ctx, "mallory"))
	}

	allowed, err := limiter.CheckAllowed(ctx, "mallory")
	require.NoError(t, err)
	assert.False(t, allowed, "sixth attempt inside the window must be blocked")

	// other usernames are unaffected
	allowed, err = limiter.CheckAllowed(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiterWindowElapses(t *testing.T) {
	ctx := context.Background()
	limiter, clock, cleanup := acquireLimiter(t, "ratelimit-window")
	defer cleanup()

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "mallory"))
	}
	allowed, err := limiter.CheckAllowed(ctx, "mallory")
	require.NoError(t, err)
	require.False(t, allowed)

	clock.Advance(15*time.Minute + time.Second)

	allowed, err = limiter.CheckAllowed(ctx, "mallory")
	require.NoError(t, err)
	assert.True(t, allowed, "lockout must expire with the window")

	// the elapsed counter was cleared, so the slate is clean
	_, err = limiter.store.GetLoginAttempt(ctx, "mallory")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRateLimiterSuccessResetsCounter(t *testing.T) {
	ctx := context.Background()
	limiter, _, cleanup := acquireLimiter(t, "ratelimit-reset")
	defer cleanup()

	for i := 0; i < 4; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "bob"))
	}
	require.NoError(t, limiter.RecordSuccess(ctx, "bob"))

	for i := 0; i < 5; i++ {
		allowed, err := limiter.CheckAllowed(ctx, "bob")
		require.NoError(t, err)
		assert.True(t, allowed, "counter should have restarted from zero")
		require.NoError(t, limiter.RecordFailure(ctx, "bob"))
	}
	allowed, err := limiter.CheckAllowed(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRateLimiterCountsUnknownUsernames(t *testing.T) {
	ctx := context.Background()
	limiter, _, cleanup := acquireLimiter(t, "ratelimit-unknown")
	defer cleanup()

	// no account named ghost exists anywhere, the counter still builds
	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, "ghost"))
	}
	allowed, err := limiter.CheckAllowed(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, allowed)
}
