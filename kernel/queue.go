package kernel

import (
	"math/bits"
	"sync/atomic"
)

// ArrayQueue is a fixed-capacity FIFO safe to share between interrupt and
// task context. It never blocks and never allocates after construction:
// Push on a full queue and Pop on an empty one fail immediately.
//
// head, tail and every slot stamp hold lap|index, where a lap is the
// next power of two above the capacity. A slot's stamp tells producers and
// consumers whose turn it is, so a pusher interrupted between reserving a
// slot and filling it cannot expose a half-written value.
type ArrayQueue[T any] struct {
	_      [0]func() // prevent accidental copying.
	head   atomic.Uint64
	tail   atomic.Uint64
	oneLap uint64
	slots  []queueSlot[T]
}

type queueSlot[T any] struct {
	stamp atomic.Uint64
	val   T
}

// NewArrayQueue creates a queue holding at most capacity values.
func NewArrayQueue[T any](capacity int) *ArrayQueue[T] {
	if capacity <= 0 {
		panic("kernel: queue capacity must be positive")
	}
	q := &ArrayQueue[T]{
		oneLap: uint64(1) << bits.Len64(uint64(capacity)),
		slots:  make([]queueSlot[T], capacity),
	}
	for i := range q.slots {
		q.slots[i].stamp.Store(uint64(i))
	}
	return q
}

// Cap returns the fixed capacity.
func (q *ArrayQueue[T]) Cap() int { return len(q.slots) }

// advance returns the position after pos, moving to the next lap past the
// last slot.
func (q *ArrayQueue[T]) advance(pos uint64) uint64 {
	index := pos & (q.oneLap - 1)
	if index+1 < uint64(len(q.slots)) {
		return pos + 1
	}
	return pos&^(q.oneLap-1) + q.oneLap
}

// Push attempts to enqueue v, returning false if the queue is full.
func (q *ArrayQueue[T]) Push(v T) bool {
	for {
		tail := q.tail.Load()
		s := &q.slots[tail&(q.oneLap-1)]
		stamp := s.stamp.Load()
		switch {
		case stamp == tail:
			if q.tail.CompareAndSwap(tail, q.advance(tail)) {
				s.val = v
				s.stamp.Store(tail + 1)
				return true
			}
		case stamp+q.oneLap == tail+1:
			// The slot still holds last lap's value.
			if q.head.Load()+q.oneLap == tail {
				return false
			}
		}
	}
}

// Pop attempts to dequeue one value, returning false if empty.
func (q *ArrayQueue[T]) Pop() (T, bool) {
	var zero T
	for {
		head := q.head.Load()
		s := &q.slots[head&(q.oneLap-1)]
		stamp := s.stamp.Load()
		switch {
		case stamp == head+1:
			if q.head.CompareAndSwap(head, q.advance(head)) {
				v := s.val
				s.val = zero
				s.stamp.Store(head + q.oneLap)
				return v, true
			}
		case stamp == head:
			if q.tail.Load() == head {
				return zero, false
			}
		}
	}
}

// Len returns the number of queued values. It is a snapshot and may be
// stale by the time the caller looks at it.
func (q *ArrayQueue[T]) Len() int {
	mask := q.oneLap - 1
	for {
		tail := q.tail.Load()
		head := q.head.Load()
		if q.tail.Load() != tail {
			continue
		}
		hix, tix := head&mask, tail&mask
		switch {
		case hix < tix:
			return int(tix - hix)
		case hix > tix:
			return len(q.slots) - int(hix) + int(tix)
		case tail == head:
			return 0
		default:
			return len(q.slots)
		}
	}
}

// IsEmpty reports whether no value is queued.
func (q *ArrayQueue[T]) IsEmpty() bool { return q.Len() == 0 }
