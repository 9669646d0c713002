//go:build !baremetal

package hal

import "time"

// hostTime paces the PIT line against wall-clock time.
type hostTime struct {
	m    *HostMachine
	hz   int
	last time.Time
	acc  time.Duration
}

func newHostTime(m *HostMachine) *hostTime {
	return &hostTime{m: m, hz: 100}
}

func (t *hostTime) setHz(hz int) {
	if hz > 0 {
		t.hz = hz
	}
}

// step raises one timer interrupt per elapsed tick period, at most max at
// once so a stalled host does not flood the controller.
func (t *hostTime) step(max int) {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		t.m.TimerTick()
		return
	}

	t.acc += now.Sub(t.last)
	t.last = now

	tickDur := time.Second / time.Duration(t.hz)
	ticks := int(t.acc / tickDur)
	if ticks == 0 {
		return
	}
	t.acc = t.acc % tickDur
	if ticks > max {
		ticks = max
	}
	for i := 0; i < ticks; i++ {
		t.m.TimerTick()
	}
}
