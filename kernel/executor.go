package kernel

// DefaultQueueCapacity is the ready queue size used when none is configured.
const DefaultQueueCapacity = 255

// CPU is the slice of the processor the executor needs to idle safely.
type CPU interface {
	DisableInterrupts()
	EnableInterrupts()
	// EnableAndHalt re-enables interrupts and halts until the next one
	// fires, with no window between the two.
	EnableAndHalt()
	HaltForever()
}

// Logger is the subset of the kernel logger used by the executor.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Errorf(string, ...any) {}

// Option configures an Executor.
type Option func(*Executor)

// WithQueueCapacity sets the ready queue capacity.
func WithQueueCapacity(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.capacity = n
		}
	}
}

// WithMetrics attaches a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(e *Executor) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

// Executor runs tasks to completion on a single thread of control.
//
// The task registry and waker cache belong to the goroutine driving the
// executor. The ready queue is shared with wakers, which may fire from
// interrupt context.
type Executor struct {
	cpu      CPU
	capacity int
	metrics  Metrics
	log      Logger

	tasks  map[TaskID]Task
	wakers map[TaskID]*taskWaker
	ready  *ArrayQueue[TaskID]

	current TaskID
}

// NewExecutor creates an executor that idles through cpu.
func NewExecutor(cpu CPU, opts ...Option) *Executor {
	e := &Executor{
		cpu:      cpu,
		capacity: DefaultQueueCapacity,
		metrics:  NopMetrics{},
		log:      nopLogger{},
		tasks:    make(map[TaskID]Task),
		wakers:   make(map[TaskID]*taskWaker),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ready = NewArrayQueue[TaskID](e.capacity)
	return e
}

// Spawn registers t and schedules its first poll.
func (e *Executor) Spawn(t Task) TaskID {
	id := newTaskID()
	if _, ok := e.tasks[id]; ok {
		Fatalf("task with the same ID %d already exists in tasks", id)
	}
	e.tasks[id] = t
	if !e.ready.Push(id) {
		Fatalf("ready queue is full (capacity %d) spawning %s", e.ready.Cap(), id)
	}
	e.metrics.RecordTaskSpawned()
	e.log.Debugf("executor: spawned %s", id)
	return id
}

// Len returns the number of live tasks.
func (e *Executor) Len() int { return len(e.tasks) }

// Run alternates between draining ready tasks and halting the CPU. It never
// returns; a panic in any task is reported and halts the CPU for good.
func (e *Executor) Run() {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("executor: %s panicked: %v", e.current, r)
			ReportPanic(PanicInfo{TaskID: e.current, Value: r, Stack: captureStack()})
			e.cpu.HaltForever()
		}
	}()
	for {
		e.RunReady()
		e.SleepIfIdle()
	}
}

// RunReady polls every task in the ready queue once, in FIFO order,
// including tasks woken while the drain is in progress.
func (e *Executor) RunReady() {
	e.metrics.RecordReadyQueueDepth(e.ready.Len())
	for {
		id, ok := e.ready.Pop()
		if !ok {
			e.current = 0
			return
		}
		task, ok := e.tasks[id]
		if !ok {
			// Completed; a stale wake may still have queued it.
			continue
		}
		w, ok := e.wakers[id]
		if !ok {
			w = &taskWaker{id: id, ex: e}
			e.wakers[id] = w
		}

		e.current = id
		ctx := Context{ex: e, taskID: id, waker: w}
		status := task.Poll(&ctx)
		e.metrics.RecordPoll()
		if status == Ready {
			w.retired.Store(true)
			delete(e.tasks, id)
			delete(e.wakers, id)
			e.metrics.RecordTaskCompleted()
			e.log.Debugf("executor: %s completed", id)
		}
	}
}

// SleepIfIdle halts the CPU until the next interrupt if no task is ready.
// The emptiness check runs with interrupts disabled so a wake from an
// interrupt handler cannot land between the check and the halt.
func (e *Executor) SleepIfIdle() {
	e.cpu.DisableInterrupts()
	if e.ready.IsEmpty() {
		e.metrics.RecordHalt()
		e.cpu.EnableAndHalt()
		return
	}
	e.cpu.EnableInterrupts()
}

func (e *Executor) enqueue(id TaskID) {
	if !e.ready.Push(id) {
		Fatalf("ready queue is full (capacity %d) waking %s", e.ready.Cap(), id)
	}
}
