package ridestage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountdownNeverGoesNegative(t *testing.T) {
	c := NewCountdown(DefaultCountdownSeconds)
	assert.Equal(t, 300, c.Remaining())
	assert.Equal(t, "5:00", c.String())

	for want := 299; want >= 0; want-- {
		assert.Equal(t, want, c.Tick())
	}
	assert.Equal(t, 0, c.Tick())
	assert.Equal(t, 0, c.Remaining())
	assert.Equal(t, "0:00", c.String())
}

func TestNegativeBudgetClampsToZero(t *testing.T) {
	assert.Equal(t, 0, NewCountdown(-5).Remaining())
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "4:59", FormatSeconds(299))
	assert.Equal(t, "1:05", FormatSeconds(65))
	assert.Equal(t, "0:09", FormatSeconds(9))
}

func TestRunStopsAtZero(t *testing.T) {
	c := NewCountdown(3)
	ticks := make(chan time.Time, 10)
	for i := 0; i < 10; i++ {
		ticks <- time.Now()
	}

	var seen []int
	c.Run(context.Background(), ticks, func(left int) { seen = append(seen, left) })

	assert.Equal(t, []int{2, 1, 0}, seen)
	assert.Len(t, ticks, 7, "remaining ticks are not consumed")
}

func TestRunStopsOnCancel(t *testing.T) {
	c := NewCountdown(300)
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan time.Time)

	done := make(chan struct{})
	go func() {
		c.Run(ctx, ticks, nil)
		close(done)
	}()

	ticks <- time.Now()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 299, c.Remaining())
}
