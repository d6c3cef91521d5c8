package auth

import "time"

// testClock is a hand-cranked clock shared by the throttling and session
// tests, so lockout windows and idle timeouts elapse without sleeping.
type testClock struct{ at time.Time }

func newTestClock() *testClock {
	return &testClock{at: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.at }
func (c *testClock) Advance(d time.Duration) { c.at = c.at.Add(d) }
