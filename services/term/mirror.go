package term

import (
	"fmt"
	"io"
	"sync/atomic"

	"nucleus/kernel"
	"nucleus/kernel/klog"
)

// LogMirror copies log entries onto the console. Entries may be logged from
// interrupt context, so OnLog only queues them; the mirror's task writes
// them out from the executor.
type LogMirror struct {
	out     io.Writer
	min     klog.Level
	queue   *kernel.ArrayQueue[klog.Entry]
	waker   kernel.AtomicWaker
	dropped atomic.Uint64
}

// NewLogMirror mirrors entries at or above level to out, buffering at most
// capacity entries between polls.
func NewLogMirror(out io.Writer, level klog.Level, capacity int) *LogMirror {
	if capacity <= 0 {
		capacity = 64
	}
	return &LogMirror{out: out, min: level, queue: kernel.NewArrayQueue[klog.Entry](capacity)}
}

func (m *LogMirror) OnLog(e klog.Entry) {
	if e.Level < m.min {
		return
	}
	if !m.queue.Push(e) {
		m.dropped.Add(1)
		return
	}
	m.waker.Wake()
}

// Dropped returns the number of entries lost to a full buffer.
func (m *LogMirror) Dropped() uint64 { return m.dropped.Load() }

func (m *LogMirror) Poll(ctx *kernel.Context) kernel.Status {
	for {
		e, ok := m.queue.Pop()
		if !ok {
			m.waker.Register(ctx.Waker())
			if e, ok = m.queue.Pop(); !ok {
				if f, ok := m.out.(interface{ Flush() }); ok {
					f.Flush()
				}
				return kernel.Pending
			}
			m.waker.Take()
		}
		fmt.Fprintln(m.out, e.String())
	}
}
