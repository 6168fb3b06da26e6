package session

import (
	"context"
	"time"
)

// Ticker is what a Clock drives.
type Ticker interface {
	TickIfRunning(ctx context.Context) bool
}

// Clock calls TickIfRunning once per interval until its context ends. It
// does not recompute elapsed time from timestamps, so ticks lost while the
// host is suspended are not made up.
type Clock struct {
	target   Ticker
	interval time.Duration
	onTick   func(switched bool)
}

type ClockOption func(*Clock)

// WithInterval changes the tick period from one second.
func WithInterval(d time.Duration) ClockOption {
	return func(c *Clock) {
		if d > 0 {
			c.interval = d
		}
	}
}

// OnTick registers a callback run after every tick. switched reports whether
// a session ended on that tick.
func OnTick(fn func(switched bool)) ClockOption {
	return func(c *Clock) { c.onTick = fn }
}

func NewClock(target Ticker, opts ...ClockOption) *Clock {
	c := &Clock{target: target, interval: time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run blocks until ctx is done.
func (c *Clock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			switched := c.target.TickIfRunning(ctx)
			if c.onTick != nil {
				c.onTick(switched)
			}
		}
	}
}
