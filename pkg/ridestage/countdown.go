package ridestage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const DefaultCountdownSeconds = 300

// Countdown is the cosmetic wait timer shown while the driver waits at pickup.
// It only counts; nothing in the ride flow reacts to it reaching zero.
type Countdown struct {
	mu        sync.Mutex
	remaining int
}

func NewCountdown(seconds int) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{remaining: seconds}
}

// Tick removes one second, never going below zero, and returns what is left.
func (c *Countdown) Tick() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining > 0 {
		c.remaining--
	}
	return c.remaining
}

func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// String renders m:ss.
func (c *Countdown) String() string {
	return FormatSeconds(c.Remaining())
}

func FormatSeconds(s int) string {
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// Run ticks once per value received on ticks until the countdown hits zero or
// ctx is cancelled. onTick gets the remaining seconds after every tick.
func (c *Countdown) Run(ctx context.Context, ticks <-chan time.Time, onTick func(remaining int)) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			left := c.Tick()
			if onTick != nil {
				onTick(left)
			}
			if left == 0 {
				return
			}
		}
	}
}
