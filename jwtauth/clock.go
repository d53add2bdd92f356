package jwtauth

import (
	"sync"
	"time"
)

// Clock is the single source of "now" for issuance and verification.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

var _ Clock = systemClock{}

// SystemClock returns a Clock backed by the wall clock, in UTC.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// ManualClock is a Clock whose time only moves when told to.
// Useful in tests that need to step across token expiry.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

var _ Clock = (*ManualClock)(nil)

// NewManualClock returns a ManualClock set to t
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t.UTC()}
}

func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set moves the clock to t
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t.UTC()
	c.mu.Unlock()
}

// Add advances the clock by d (d may be negative)
func (c *ManualClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
