package kernel

import (
	"fmt"
	"sync/atomic"
)

// TaskID identifies a spawned task. IDs are never reused.
type TaskID uint64

func (id TaskID) String() string { return fmt.Sprintf("task#%d", uint64(id)) }

var nextTaskID atomic.Uint64

func newTaskID() TaskID {
	return TaskID(nextTaskID.Add(1))
}

// Status is the outcome of one poll.
type Status uint8

const (
	// Pending means the task registered a waker and wants to be polled
	// again once it fires.
	Pending Status = iota
	// Ready means the task has finished.
	Ready
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Task is a cooperative unit of execution. Poll advances the task as far as
// it can without blocking. A task returning Pending must have arranged for
// ctx.Waker() to be called when it can make progress again.
type Task interface {
	Poll(ctx *Context) Status
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc func(ctx *Context) Status

func (f TaskFunc) Poll(ctx *Context) Status { return f(ctx) }

// taskWaker re-queues its task on Wake. It is created once per task and
// retired when the task completes so late wakes are ignored.
type taskWaker struct {
	id      TaskID
	ex      *Executor
	retired atomic.Bool
}

func (w *taskWaker) Wake() {
	if w.retired.Load() {
		return
	}
	w.ex.enqueue(w.id)
}
