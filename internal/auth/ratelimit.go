package auth

import (
	"context"
	"errors"
	"time"

	"github.com/inkset/inkwell/internal/store"
)

type (
	// RateLimiter gates login attempts per submitted username. Counting
	// by the raw string, not by account, means attempts against names
	// that resolve to nothing still build up a lockout, which slows
	// username enumeration.
	RateLimiter struct {
		store       *store.Store
		maxAttempts int
		lockout     time.Duration
		now         func() time.Time
	}
)

func NewRateLimiter(st *store.Store, maxAttempts int, lockout time.Duration) *RateLimiter {
	return &RateLimiter{
		store:       st,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
	}
}

// CheckAllowed reports whether a login attempt for username may proceed.
// A counter whose lockout window has elapsed is cleared on the way out.
func (l *RateLimiter) CheckAllowed(ctx context.Context, username string) (bool, error) {
	attempt, err := l.store.GetLoginAttempt(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	} else if err != nil {
		return false, err
	}
	elapsed := l.now().Sub(attempt.LastAttempt)
	if attempt.Attempts >= l.maxAttempts && elapsed < l.lockout {
		return false, nil
	}
	if elapsed >= l.lockout {
		if err := l.store.ClearLoginAttempts(ctx, username); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (l *RateLimiter) RecordFailure(ctx context.Context, username string) error {
	return l.store.RecordFailedLogin(ctx, username, l.now())
}

func (l *RateLimiter) RecordSuccess(ctx context.Context, username string) error {
	return l.store.ClearLoginAttempts(ctx, username)
}
