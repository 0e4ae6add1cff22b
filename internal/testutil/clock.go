package testutil

import (
	"sync"
	"time"
)

// Epoch is where a Clock starts when NewClock is given no time.
var Epoch = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

// Clock is a manual time source. Its Now method fits every func() time.Time
// hook in the repositories and the auth token issuer.
type Clock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

// NewClock returns a Clock reading start, or Epoch.
func NewClock(start ...time.Time) *Clock {
	c := &Clock{t: Epoch}
	if len(start) > 0 {
		c.t = start[0]
	}
	return c
}

// Tick makes every later Now call move the clock forward by d after
// reading it, so consecutive writes get distinct timestamps.
func (c *Clock) Tick(d time.Duration) *Clock {
	c.mu.Lock()
	c.step = d
	c.mu.Unlock()
	return c
}

// Now returns the current reading.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}
