package models

import "time"

// AttemptRecord tracks failed-login pressure for a single client key.
// At most one record exists per key; it is reset on success or when the
// window or lockout expires.
type AttemptRecord struct {
	Count       int
	WindowStart time.Time
	LastAttempt time.Time
	LockedUntil *time.Time
}

// AttemptPolicy configures the fixed-window-with-lockout behavior.
type AttemptPolicy struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// Staleness is the age past which a record can never influence a
// decision and may be evicted.
func (p AttemptPolicy) Staleness() time.Duration {
	return p.Window + p.Lockout
}

// Decision is the rate limiter's verdict for one attempt.
// RetryAfter is zero unless the attempt was denied.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}
