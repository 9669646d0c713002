package kernel

import (
	"errors"
	"sync/atomic"
)

var (
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrUninitialized      = errors.New("not initialized")
)

const (
	cellUninit uint32 = iota
	cellInitializing
	cellReady
)

// OnceCell is process-wide state constructed exactly once. Readers that
// race the constructor see ErrUninitialized rather than a partial value.
type OnceCell[T any] struct {
	state atomic.Uint32
	val   T
}

// TryInitOnce runs init and stores its result. Only the first call
// succeeds; later calls return ErrAlreadyInitialized without running init.
func (c *OnceCell[T]) TryInitOnce(init func() T) error {
	if !c.state.CompareAndSwap(cellUninit, cellInitializing) {
		return ErrAlreadyInitialized
	}
	c.val = init()
	c.state.Store(cellReady)
	return nil
}

// TryGet returns the stored value once initialization has completed.
func (c *OnceCell[T]) TryGet() (T, error) {
	if c.state.Load() != cellReady {
		var zero T
		return zero, ErrUninitialized
	}
	return c.val, nil
}

// Get returns the stored value. Using the cell before construction is a
// fatal programming error.
func (c *OnceCell[T]) Get() T {
	v, err := c.TryGet()
	if err != nil {
		Fatalf("once cell: %v", err)
	}
	return v
}

// Initialized reports whether construction has completed.
func (c *OnceCell[T]) Initialized() bool {
	return c.state.Load() == cellReady
}
