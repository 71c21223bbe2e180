// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"time"
)

type (
	// Clock is the time source injected into components that stamp records
	// (registry AddedAt, journal generation time). Production code passes
	// RealClock{}.Now; tests pass a FakeClock's Now.
	Clock interface {
		Now() time.Time
	}

	// RealClock reads the system clock.
	RealClock struct{}

	// FakeClock only moves when Advance or Set is called. Tick, when
	// non-zero, advances the clock after every Now so successive stamps
	// are distinct and ordered.
	FakeClock struct {
		mu      sync.Mutex
		current time.Time
		tick    time.Duration
	}
)

// Now returns the current system time.
func (RealClock) Now() time.Time { return time.Now() }

// NewFakeClock creates a FakeClock at initial, or at a fixed reference time
// when initial is zero.
func NewFakeClock(initial time.Time) *FakeClock {
	if initial.IsZero() {
		initial = time.Date(2024, 2, 8, 12, 0, 0, 0, time.UTC)
	}
	return &FakeClock{current: initial}
}

// WithTick makes every Now call advance the clock by d afterwards.
func (c *FakeClock) WithTick(d time.Duration) *FakeClock {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = d
	return c
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.tick)
	return now
}

// Advance moves the fake time forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set moves the fake time to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}
