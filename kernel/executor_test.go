package kernel

import (
	"errors"
	"testing"
)

var errHaltedForever = errors.New("halted forever")

// fakeCPU records the executor's interrupt and halt calls. Hooks stand in
// for interrupts arriving at specific points.
type fakeCPU struct {
	enabled bool

	disables int
	enables  int
	halts    int

	onDisable func()
	onHalt    func()
}

func (c *fakeCPU) DisableInterrupts() {
	if c.onDisable != nil {
		// The interrupt lands just before CLI takes effect.
		c.onDisable()
	}
	c.enabled = false
	c.disables++
}

func (c *fakeCPU) EnableInterrupts() {
	c.enabled = true
	c.enables++
}

func (c *fakeCPU) EnableAndHalt() {
	c.enabled = true
	c.halts++
	if c.onHalt != nil {
		c.onHalt()
	}
}

func (c *fakeCPU) HaltForever() {
	c.enabled = false
	panic(errHaltedForever)
}

// parkTask returns Pending until released, recording each poll.
type parkTask struct {
	polls   int
	waker   Waker
	release bool
}

func (p *parkTask) Poll(ctx *Context) Status {
	p.polls++
	p.waker = ctx.Waker()
	if p.release {
		return Ready
	}
	return Pending
}

func TestExecutorSpawnRunsOnce(t *testing.T) {
	ex := NewExecutor(&fakeCPU{})
	var ran int
	id := ex.Spawn(TaskFunc(func(ctx *Context) Status {
		ran++
		return Ready
	}))
	if id == 0 {
		t.Fatalf("Spawn() id = 0, want non-zero")
	}
	if got := ex.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}

	ex.RunReady()
	ex.RunReady()

	if ran != 1 {
		t.Fatalf("polls = %d, want 1", ran)
	}
	if got := ex.Len(); got != 0 {
		t.Fatalf("Len() after completion = %d, want 0", got)
	}
}

func TestExecutorTaskIDsMonotonic(t *testing.T) {
	ex := NewExecutor(&fakeCPU{})
	noop := TaskFunc(func(*Context) Status { return Ready })

	prev := ex.Spawn(noop)
	for i := 0; i < 10; i++ {
		id := ex.Spawn(noop)
		if id <= prev {
			t.Fatalf("Spawn() id = %d after %d, want increasing", id, prev)
		}
		prev = id
	}
}

func TestExecutorIdleHaltThenWake(t *testing.T) {
	cpu := &fakeCPU{}
	ex := NewExecutor(cpu)
	task := &parkTask{}
	ex.Spawn(task)

	ex.RunReady()
	if task.polls != 1 {
		t.Fatalf("polls = %d, want 1", task.polls)
	}

	// Idle: the executor must reach the halt path, and an interrupt that
	// wakes the task during the halt must get it polled on the next drain.
	cpu.onHalt = func() { task.waker.Wake() }
	ex.SleepIfIdle()
	if cpu.halts != 1 {
		t.Fatalf("halts = %d, want 1", cpu.halts)
	}
	if !cpu.enabled {
		t.Fatalf("interrupts disabled after halt, want enabled")
	}

	ex.RunReady()
	if task.polls != 2 {
		t.Fatalf("polls after wake = %d, want 2", task.polls)
	}
}

func TestExecutorRechecksBeforeHalt(t *testing.T) {
	cpu := &fakeCPU{}
	ex := NewExecutor(cpu)
	task := &parkTask{}
	ex.Spawn(task)
	ex.RunReady()

	cpu.onDisable = func() {
		cpu.onDisable = nil
		task.waker.Wake()
	}
	ex.SleepIfIdle()

	if cpu.halts != 0 {
		t.Fatalf("halts = %d, want 0 when a wake raced the idle check", cpu.halts)
	}
	if cpu.enables != 1 || !cpu.enabled {
		t.Fatalf("enables = %d, enabled = %v, want 1, true", cpu.enables, cpu.enabled)
	}
	ex.RunReady()
	if task.polls != 2 {
		t.Fatalf("polls = %d, want 2", task.polls)
	}
}

func TestExecutorWakeAfterCompletionIsNoop(t *testing.T) {
	ex := NewExecutor(&fakeCPU{})
	task := &parkTask{}
	id := ex.Spawn(task)
	ex.RunReady()

	// Two wakes queue the task twice; the first poll completes it.
	task.release = true
	task.waker.Wake()
	task.waker.Wake()
	ex.RunReady()

	if task.polls != 2 {
		t.Fatalf("polls = %d, want 2", task.polls)
	}
	if _, ok := ex.tasks[id]; ok {
		t.Fatalf("%s still registered after completion", id)
	}
	if _, ok := ex.wakers[id]; ok {
		t.Fatalf("%s waker still cached after completion", id)
	}

	task.waker.Wake()
	if !ex.ready.IsEmpty() {
		t.Fatalf("wake after completion queued %s", id)
	}
	ex.RunReady()
	if task.polls != 2 {
		t.Fatalf("polls after late wake = %d, want 2", task.polls)
	}
}

func TestExecutorWakerCachedAcrossPolls(t *testing.T) {
	ex := NewExecutor(&fakeCPU{})
	task := &parkTask{}
	ex.Spawn(task)

	ex.RunReady()
	first := task.waker
	first.Wake()
	ex.RunReady()

	if task.waker != first {
		t.Fatalf("waker changed between polls")
	}
}

func TestExecutorSpawnFromTask(t *testing.T) {
	ex := NewExecutor(&fakeCPU{})
	var order []string
	ex.Spawn(TaskFunc(func(ctx *Context) Status {
		order = append(order, "parent")
		ctx.Spawn(TaskFunc(func(ctx *Context) Status {
			order = append(order, "child")
			return Ready
		}))
		return Ready
	}))

	ex.RunReady()

	if len(order) != 2 || order[0] != "parent" || order[1] != "child" {
		t.Fatalf("order = %v, want [parent child]", order)
	}
	if got := ex.Len(); got != 0 {
		t.Fatalf("Len() = %d, want 0", got)
	}
}

func TestExecutorSpawnOnFullQueueIsFatal(t *testing.T) {
	ex := NewExecutor(&fakeCPU{}, WithQueueCapacity(2))
	noop := TaskFunc(func(*Context) Status { return Ready })
	ex.Spawn(noop)
	ex.Spawn(noop)

	defer func() {
		r := recover()
		if _, ok := r.(*FatalError); !ok {
			t.Fatalf("recover() = %v, want *FatalError", r)
		}
	}()
	ex.Spawn(noop)
}

func TestExecutorWakeOnFullQueueIsFatal(t *testing.T) {
	ex := NewExecutor(&fakeCPU{}, WithQueueCapacity(1))
	task := &parkTask{}
	ex.Spawn(task)
	ex.RunReady()
	task.waker.Wake()

	defer func() {
		r := recover()
		if _, ok := r.(*FatalError); !ok {
			t.Fatalf("recover() = %v, want *FatalError", r)
		}
	}()
	task.waker.Wake()
}

type recordingMetrics struct {
	NopMetrics
	spawned, completed, polls, halts int
}

func (m *recordingMetrics) RecordTaskSpawned()   { m.spawned++ }
func (m *recordingMetrics) RecordTaskCompleted() { m.completed++ }
func (m *recordingMetrics) RecordPoll()          { m.polls++ }
func (m *recordingMetrics) RecordHalt()          { m.halts++ }

func TestExecutorMetrics(t *testing.T) {
	m := &recordingMetrics{}
	ex := NewExecutor(&fakeCPU{}, WithMetrics(m))
	task := &parkTask{}
	ex.Spawn(task)
	ex.RunReady()
	ex.SleepIfIdle()
	task.release = true
	task.waker.Wake()
	ex.RunReady()

	if m.spawned != 1 || m.completed != 1 || m.polls != 2 || m.halts != 1 {
		t.Fatalf("metrics = %+v, want spawned 1, completed 1, polls 2, halts 1", *m)
	}
}

func TestExecutorRunReportsPanicAndHalts(t *testing.T) {
	var got PanicInfo
	reported := false
	SetPanicHandler(func(info PanicInfo) {
		got = info
		reported = true
	})
	defer SetPanicHandler(nil)

	ex := NewExecutor(&fakeCPU{})
	id := ex.Spawn(TaskFunc(func(*Context) Status {
		Fatalf("scheduler invariant broken")
		return Ready
	}))

	func() {
		defer func() {
			if r := recover(); r != errHaltedForever {
				t.Fatalf("Run() exit = %v, want %v", r, errHaltedForever)
			}
		}()
		ex.Run()
	}()

	if !reported {
		t.Fatalf("panic handler not invoked")
	}
	if got.TaskID != id {
		t.Fatalf("PanicInfo.TaskID = %s, want %s", got.TaskID, id)
	}
	if fe, ok := got.Value.(*FatalError); !ok || fe.Msg != "scheduler invariant broken" {
		t.Fatalf("PanicInfo.Value = %v, want fatal error", got.Value)
	}
	if len(got.Stack) == 0 {
		t.Fatalf("PanicInfo.Stack empty")
	}
	if !InPanicMode() {
		t.Fatalf("InPanicMode() = false after report")
	}
}
