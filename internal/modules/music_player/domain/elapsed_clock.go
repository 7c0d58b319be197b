package domain

import "time"

// ElapsedClock tracks cumulative playback time across pause/resume cycles.
// It is not safe for concurrent use; the owning session serialises access.
type ElapsedClock struct {
	now         func() time.Time
	accumulated time.Duration
	startedAt   time.Time
	running     bool
}

// NewElapsedClock creates a stopped clock at zero.
// A nil now function defaults to time.Now.
func NewElapsedClock(now func() time.Time) *ElapsedClock {
	if now == nil {
		now = time.Now
	}
	return &ElapsedClock{now: now}
}

// Reset zeroes the accumulated time and starts running from now.
func (c *ElapsedClock) Reset() {
	c.accumulated = 0
	c.startedAt = c.now()
	c.running = true
}

// Elapsed returns the accumulated time plus the current running stretch.
func (c *ElapsedClock) Elapsed() time.Duration {
	if !c.running {
		return c.accumulated
	}
	return c.accumulated + c.now().Sub(c.startedAt)
}

// ElapsedMs returns Elapsed in whole milliseconds.
func (c *ElapsedClock) ElapsedMs() int64 {
	return c.Elapsed().Milliseconds()
}

// Freeze folds the running stretch into the accumulated time and stops.
// Freezing a frozen clock is a no-op.
func (c *ElapsedClock) Freeze() {
	if !c.running {
		return
	}
	c.accumulated = c.Elapsed()
	c.running = false
}

// Unfreeze resumes running from now, keeping the accumulated time.
// Unfreezing a running clock is a no-op.
func (c *ElapsedClock) Unfreeze() {
	if c.running {
		return
	}
	c.startedAt = c.now()
	c.running = true
}

// IsRunning returns true if the clock is counting.
func (c *ElapsedClock) IsRunning() bool {
	return c.running
}
