package app

import (
	"fmt"
	"sync"
	"time"
)

// CountUp measures elapsed time from the last Start.
type CountUp struct {
	mu      sync.Mutex
	now     func() time.Time
	start   time.Time
	elapsed time.Duration
	running bool
}

// NewCountUp returns a stopped counter at zero. A nil clock means time.Now.
func NewCountUp(now func() time.Time) *CountUp {
	if now == nil {
		now = time.Now
	}
	return &CountUp{now: now}
}

// Start counts up from zero.
func (c *CountUp) Start() {
	c.mu.Lock()
	c.start = c.now()
	c.elapsed = 0
	c.running = true
	c.mu.Unlock()
}

// Stop freezes the counter at the current value.
func (c *CountUp) Stop() {
	c.mu.Lock()
	if c.running {
		c.elapsed = c.now().Sub(c.start)
		c.running = false
	}
	c.mu.Unlock()
}

// Clear stops the counter and sets it back to zero.
func (c *CountUp) Clear() {
	c.mu.Lock()
	c.elapsed = 0
	c.running = false
	c.mu.Unlock()
}

// Elapsed is the current counter value.
func (c *CountUp) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return c.now().Sub(c.start)
	}
	return c.elapsed
}

func (c *CountUp) String() string {
	return FormatElapsed(c.Elapsed())
}

// FormatElapsed formats d as MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
