package kernel

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// PanicInfo contains details about a recovered panic.
type PanicInfo struct {
	TaskID TaskID
	Value  any
	Stack  []byte
}

// FatalError is the panic value raised by Fatalf. It marks an unrecoverable
// kernel condition rather than a bug inside a task.
type FatalError struct {
	Msg string
}

func (e *FatalError) Error() string { return "kernel fatal: " + e.Msg }

// Fatalf aborts the current flow of control with a *FatalError. The
// executor recovers it, reports it through the panic handler and halts the
// CPU for good.
func Fatalf(format string, args ...any) {
	panic(&FatalError{Msg: fmt.Sprintf(format, args...)})
}

var (
	panicActive atomic.Bool
	panicOnce   sync.Once

	panicHandler atomic.Value // func(PanicInfo)
)

// InPanicMode reports whether the kernel is in panic mode.
func InPanicMode() bool {
	return panicActive.Load()
}

// SetPanicHandler installs a process-wide panic handler.
//
// The handler is invoked at most once (on the first panic). It must not panic.
func SetPanicHandler(fn func(PanicInfo)) {
	panicHandler.Store(fn)
}

// ReportPanic enters panic mode and hands info to the installed handler.
// Only the first report reaches the handler.
func ReportPanic(info PanicInfo) {
	panicOnce.Do(func() {
		panicActive.Store(true)
		if info.Stack == nil {
			info.Stack = captureStack()
		}
		if v := panicHandler.Load(); v != nil {
			if fn, ok := v.(func(PanicInfo)); ok && fn != nil {
				fn(info)
			}
		}
	})
}
