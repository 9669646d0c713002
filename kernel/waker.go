package kernel

import "sync/atomic"

// Waker marks a suspended task as ready to resume. Wake may be called from
// any context, including interrupt handlers.
type Waker interface {
	Wake()
}

// WakerFunc adapts a function to the Waker interface.
type WakerFunc func()

func (f WakerFunc) Wake() { f() }

const (
	wakerWaiting     uint32 = 0
	wakerRegistering uint32 = 1
	wakerWaking      uint32 = 2
)

// AtomicWaker holds at most one pending Waker. A consumer registers before
// suspending; a producer calls Wake after publishing data. Neither side
// blocks or spins on the other.
//
// A Wake that races with Register is never lost: either Wake sees the new
// waker, or Register sees the concurrent Wake and fires the waker itself.
type AtomicWaker struct {
	state atomic.Uint32
	waker Waker
}

// Register stores w as the waker to fire on the next Wake, replacing any
// previous registration.
func (a *AtomicWaker) Register(w Waker) {
	switch prev := a.casState(wakerWaiting, wakerRegistering); prev {
	case wakerWaiting:
		a.waker = w
		if a.casState(wakerRegistering, wakerWaiting) == wakerRegistering {
			return
		}
		// A Wake arrived while registering: it could not take the waker,
		// so fire it here.
		pending := a.waker
		a.waker = nil
		a.state.Store(wakerWaiting)
		if pending != nil {
			pending.Wake()
		}
	case wakerWaking:
		// A Wake is in flight and has already consumed the old waker.
		w.Wake()
	default:
		// Concurrent Register calls are a misuse; the other caller wins.
	}
}

// Wake fires and clears the registered waker, if any.
func (a *AtomicWaker) Wake() {
	if w := a.Take(); w != nil {
		w.Wake()
	}
}

// Take removes and returns the registered waker without firing it.
func (a *AtomicWaker) Take() Waker {
	switch a.state.Or(wakerWaking) {
	case wakerWaiting:
		w := a.waker
		a.waker = nil
		a.state.And(^wakerWaking)
		return w
	default:
		// Registering: the registrar will notice the WAKING bit.
		// Waking: someone else is already delivering.
		return nil
	}
}

// casState attempts old->next and returns the state observed before the
// attempt.
func (a *AtomicWaker) casState(old, next uint32) uint32 {
	for {
		if a.state.CompareAndSwap(old, next) {
			return old
		}
		cur := a.state.Load()
		if cur != old {
			return cur
		}
	}
}
