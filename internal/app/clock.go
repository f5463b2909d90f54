package app

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// countdown drives one question's timer. It reports the remaining time at a
// fixed cadence and fires the expiry callback exactly once, after which it is
// inert. Cancel stops it without firing expiry; cancelling after expiry is a
// no-op either way.
type countdown struct {
	stop     chan struct{}
	stopOnce sync.Once
}

// startCountdown begins ticking immediately. Callbacks run on the countdown's
// own goroutine; callers serialize against session state themselves.
func startCountdown(clk clockwork.Clock, duration, tick time.Duration, onTick func(remaining time.Duration), onExpire func()) *countdown {
	c := &countdown{stop: make(chan struct{})}
	deadline := clk.Now().Add(duration)

	go func() {
		ticker := clk.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.Chan():
				remaining := deadline.Sub(clk.Now())
				if remaining <= 0 {
					onExpire()
					return
				}
				onTick(remaining)
			}
		}
	}()
	return c
}

// Cancel stops the countdown. Safe to call multiple times and from under a
// lock: it never waits for the timer goroutine.
func (c *countdown) Cancel() {
	c.stopOnce.Do(func() { close(c.stop) })
}
