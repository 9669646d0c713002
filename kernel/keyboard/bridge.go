// Package keyboard hands scan codes from the keyboard interrupt to a
// cooperative task and decodes them into keys.
package keyboard

import (
	"sync/atomic"

	"nucleus/kernel"
	"nucleus/kernel/klog"
)

// ScancodeQueueSize is the capacity of the process-wide scan code queue.
const ScancodeQueueSize = 255

// Config tunes a Bridge. Zero values select the defaults.
type Config struct {
	Capacity int
	Metrics  kernel.Metrics
	Log      *klog.Logger
}

// Bridge is a bounded scan code queue plus a wakeup cell. AddScancode runs
// in interrupt context; a single ScancodeStream consumes.
//
// The queue is created by NewStream, exactly once. Scan codes arriving
// before that are dropped.
type Bridge struct {
	capacity int
	metrics  kernel.Metrics
	log      *klog.Logger

	queue   kernel.OnceCell[*kernel.ArrayQueue[uint8]]
	waker   kernel.AtomicWaker
	dropped atomic.Uint64

	// beforeRecheck runs between registering the waker and the second
	// queue check.
	beforeRecheck func()
}

// NewBridge creates an unconstructed bridge.
func NewBridge(cfg Config) *Bridge {
	if cfg.Capacity <= 0 {
		cfg.Capacity = ScancodeQueueSize
	}
	if cfg.Metrics == nil {
		cfg.Metrics = kernel.NopMetrics{}
	}
	return &Bridge{capacity: cfg.Capacity, metrics: cfg.Metrics, log: cfg.Log}
}

func (b *Bridge) logger() *klog.Logger {
	if b.log != nil {
		return b.log
	}
	return klog.Default()
}

// AddScancode enqueues code and wakes the consumer. It never blocks: on a
// full or unconstructed queue the code is dropped and a warning logged.
func (b *Bridge) AddScancode(code uint8) {
	q, err := b.queue.TryGet()
	if err != nil {
		b.dropped.Add(1)
		b.metrics.RecordScancode(true)
		b.logger().Warningf("scan code queue uninitialized")
		return
	}
	if !q.Push(code) {
		b.dropped.Add(1)
		b.metrics.RecordScancode(true)
		b.logger().Warningf("scan code queue full, dropping keyboard input")
		return
	}
	b.metrics.RecordScancode(false)
	b.waker.Wake()
}

// Dropped returns the number of scan codes lost to overflow or to arriving
// before the queue existed.
func (b *Bridge) Dropped() uint64 { return b.dropped.Load() }

// Len returns the number of queued scan codes.
func (b *Bridge) Len() int {
	q, err := b.queue.TryGet()
	if err != nil {
		return 0
	}
	return q.Len()
}

// NewStream constructs the queue and returns its only consumer. Calling it
// twice is fatal.
func (b *Bridge) NewStream() *ScancodeStream {
	err := b.queue.TryInitOnce(func() *kernel.ArrayQueue[uint8] {
		return kernel.NewArrayQueue[uint8](b.capacity)
	})
	if err != nil {
		kernel.Fatalf("keyboard: NewStream should only be called once: %v", err)
	}
	return &ScancodeStream{b: b}
}

// ScancodeStream is an endless sequence of scan codes.
type ScancodeStream struct {
	b *Bridge
}

// PollNext returns the next scan code if one is queued. Otherwise it
// registers w to be woken by the next AddScancode and reports false.
func (s *ScancodeStream) PollNext(w kernel.Waker) (uint8, bool) {
	b := s.b
	q := b.queue.Get()
	if code, ok := q.Pop(); ok {
		return code, true
	}

	b.waker.Register(w)
	if b.beforeRecheck != nil {
		b.beforeRecheck()
	}
	// A scan code pushed after the first check may have found no waker.
	if code, ok := q.Pop(); ok {
		b.waker.Take()
		return code, true
	}
	return 0, false
}

var std atomic.Pointer[Bridge]

func init() {
	std.Store(NewBridge(Config{Capacity: ScancodeQueueSize}))
}

// SetDefault replaces the process-wide bridge. It must run before keyboard
// interrupts are first enabled.
func SetDefault(b *Bridge) { std.Store(b) }

// Default returns the process-wide bridge fed by the keyboard interrupt.
func Default() *Bridge { return std.Load() }

// AddScancode feeds the process-wide bridge. Called from the keyboard
// interrupt handler.
func AddScancode(code uint8) { Default().AddScancode(code) }

// NewScancodeStream constructs the process-wide queue. It must be called
// exactly once.
func NewScancodeStream() *ScancodeStream { return Default().NewStream() }
