// Package clock keeps kernel uptime from timer interrupts and refreshes the
// console clock from a cooperative task.
package clock

import (
	"sync/atomic"
	"time"

	"nucleus/kernel"
)

// PITDefaultPeriod is the tick period of the PIT with its power-on divisor
// of 65536 (about 18.2 Hz).
const PITDefaultPeriod = 54925439 * time.Nanosecond

// Clock counts timer ticks. OnTimer runs in interrupt context.
type Clock struct {
	period time.Duration
	ticks  atomic.Uint64
	waker  kernel.AtomicWaker
}

// New creates a clock advancing by period per tick.
func New(period time.Duration) *Clock {
	if period <= 0 {
		period = PITDefaultPeriod
	}
	return &Clock{period: period}
}

// OnTimer records one tick and wakes the refresher.
func (c *Clock) OnTimer() {
	c.ticks.Add(1)
	c.waker.Wake()
}

// Ticks returns the number of ticks seen since boot.
func (c *Clock) Ticks() uint64 { return c.ticks.Load() }

// Uptime returns the time since boot.
func (c *Clock) Uptime() time.Duration {
	return time.Duration(c.ticks.Load()) * c.period
}

// Period returns the tick period.
func (c *Clock) Period() time.Duration { return c.period }

// Display shows the uptime.
type Display interface {
	SetUptime(d time.Duration)
	Flush()
}

// Refresher is a task that pushes the uptime to a Display once per second.
// It never completes.
type Refresher struct {
	clock   *Clock
	display Display
	shown   time.Duration
	started bool
}

func NewRefresher(c *Clock, d Display) *Refresher {
	return &Refresher{clock: c, display: d}
}

func (r *Refresher) Poll(ctx *kernel.Context) kernel.Status {
	for {
		r.refresh()
		r.clock.waker.Register(ctx.Waker())
		if r.clock.Uptime().Truncate(time.Second) == r.shown {
			return kernel.Pending
		}
		r.clock.waker.Take()
	}
}

func (r *Refresher) refresh() {
	up := r.clock.Uptime().Truncate(time.Second)
	if r.started && up == r.shown {
		return
	}
	r.started = true
	r.shown = up
	r.display.SetUptime(up)
	r.display.Flush()
}
