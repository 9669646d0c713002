package kernel

// Context provides task-local access to executor operations during a poll.
type Context struct {
	ex     *Executor
	taskID TaskID
	waker  Waker
}

// TaskID returns the current task ID.
func (c *Context) TaskID() TaskID { return c.taskID }

// Waker returns the waker that re-queues the current task.
func (c *Context) Waker() Waker { return c.waker }

// Spawn schedules another task on the same executor.
func (c *Context) Spawn(t Task) TaskID {
	return c.ex.Spawn(t)
}
