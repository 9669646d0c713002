// Package interrupts owns the vector table and the chained 8259 interrupt
// controllers. It binds the kernel's exception and IRQ handlers, sends
// end-of-interrupt for accepted IRQs and exposes the interrupt flag and
// halt primitives to the rest of the kernel.
package interrupts

import (
	"fmt"
	"sync/atomic"

	"nucleus/hal"
	"nucleus/kernel"
	"nucleus/kernel/keyboard"
	"nucleus/kernel/klog"
)

// TimerCallback runs on every timer tick, in interrupt context, before the
// tick is acknowledged. It must not block or panic.
type TimerCallback interface {
	OnTimer()
}

// TimerFunc adapts a function to the TimerCallback interface.
type TimerFunc func()

func (f TimerFunc) OnTimer() { f() }

// ScancodeSink receives each byte read from the keyboard data port.
type ScancodeSink interface {
	AddScancode(code uint8)
}

// ScancodeSinkFunc adapts a function to the ScancodeSink interface.
type ScancodeSinkFunc func(code uint8)

func (f ScancodeSinkFunc) AddScancode(code uint8) { f(code) }

// Config wires the dispatcher to its collaborators. Zero values select the
// defaults.
type Config struct {
	// DoubleFaultStackIndex is the interrupt stack table slot prepared for
	// the double fault handler.
	DoubleFaultStackIndex uint8

	// MasterOffset and SlaveOffset are the controller base vectors.
	MasterOffset uint8
	SlaveOffset  uint8

	// Keyboard receives scan codes. Defaults to the process-wide bridge.
	Keyboard ScancodeSink

	Metrics kernel.Metrics
	Log     *klog.Logger
}

type timerSlot struct{ cb TimerCallback }

// Dispatcher routes the bound vectors to their handlers.
type Dispatcher struct {
	cpu   hal.CPU
	ports hal.Ports
	pics  *ChainedPICs
	idt   hal.IDT

	dfStack  uint8
	keyboard ScancodeSink
	metrics  kernel.Metrics
	log      *klog.Logger

	timer atomic.Pointer[timerSlot]
}

// NewDispatcher validates cfg and prepares the vector table. Nothing is
// written to the hardware until Install.
func NewDispatcher(m hal.Machine, cfg Config) (*Dispatcher, error) {
	if cfg.DoubleFaultStackIndex == 0 {
		cfg.DoubleFaultStackIndex = DefaultDoubleFaultStackIndex
	}
	if cfg.DoubleFaultStackIndex > hal.MaxStackIndex {
		return nil, fmt.Errorf("interrupts: double fault stack index %d out of range", cfg.DoubleFaultStackIndex)
	}
	if cfg.MasterOffset == 0 && cfg.SlaveOffset == 0 {
		cfg.MasterOffset, cfg.SlaveOffset = PIC1Offset, PIC2Offset
	}
	pics, err := NewChainedPICs(m.Ports(), cfg.MasterOffset, cfg.SlaveOffset)
	if err != nil {
		return nil, fmt.Errorf("interrupts: %w", err)
	}
	if cfg.Keyboard == nil {
		cfg.Keyboard = ScancodeSinkFunc(keyboard.AddScancode)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = kernel.NopMetrics{}
	}

	d := &Dispatcher{
		cpu:      m.CPU(),
		ports:    m.Ports(),
		pics:     pics,
		dfStack:  cfg.DoubleFaultStackIndex,
		keyboard: cfg.Keyboard,
		metrics:  cfg.Metrics,
		log:      cfg.Log,
	}
	d.build()
	return d, nil
}

func (d *Dispatcher) build() {
	timer, kbd := d.pics.master.offset, d.pics.master.offset+1

	d.idt[VectorBreakpoint].SetHandler(d.guard(d.breakpoint))
	d.idt[VectorDoubleFault].SetHandler(d.guard(d.doubleFault)).SetStackIndex(d.dfStack)
	d.idt[VectorPageFault].SetHandler(d.guard(d.pageFault))
	d.idt[timer].SetHandler(d.guard(d.timerTick))
	d.idt[kbd].SetHandler(d.guard(d.keyboardIRQ))
}

// Install loads the vector table and remaps the controllers. Interrupts
// must still be disabled.
func (d *Dispatcher) Install() {
	d.cpu.LoadIDT(&d.idt)
	d.pics.Initialize()
	master, slave := d.pics.Offsets()
	d.logger().Infof("interrupts: vector table loaded, pics at %d/%d", master, slave)
}

// Enable sets the CPU interrupt flag.
func (d *Dispatcher) Enable() { d.cpu.EnableInterrupts() }

// Disable clears the CPU interrupt flag.
func (d *Dispatcher) Disable() { d.cpu.DisableInterrupts() }

// HaltUntilInterrupt enables interrupts and halts until the next one, with
// no window in which an interrupt could slip between the two.
func (d *Dispatcher) HaltUntilInterrupt() { d.cpu.EnableAndHalt() }

// SetTimerCallback replaces the per-tick callback. nil removes it.
func (d *Dispatcher) SetTimerCallback(cb TimerCallback) {
	if cb == nil {
		d.timer.Store(nil)
		return
	}
	d.timer.Store(&timerSlot{cb: cb})
}

// WithoutInterrupts runs fn with interrupts disabled and restores the
// previous interrupt flag afterwards.
func (d *Dispatcher) WithoutInterrupts(fn func()) {
	if !d.cpu.InterruptsEnabled() {
		fn()
		return
	}
	d.cpu.DisableInterrupts()
	defer d.cpu.EnableInterrupts()
	fn()
}

// Breakpoint raises a breakpoint exception on the caller and returns once
// its handler has run.
func (d *Dispatcher) Breakpoint() { d.cpu.Breakpoint() }

// PICs returns the interrupt controller pair.
func (d *Dispatcher) PICs() *ChainedPICs { return d.pics }

func (d *Dispatcher) logger() *klog.Logger {
	if d.log != nil {
		return d.log
	}
	return klog.Default()
}

var dispatcher kernel.OnceCell[*Dispatcher]

// Init builds the process-wide dispatcher on m and installs it. It must run
// once, before interrupts are first enabled.
func Init(m hal.Machine, cfg Config) error {
	d, err := NewDispatcher(m, cfg)
	if err != nil {
		return err
	}
	if err := dispatcher.TryInitOnce(func() *Dispatcher { return d }); err != nil {
		return fmt.Errorf("interrupts: %w", err)
	}
	d.Install()
	return nil
}

// Default returns the process-wide dispatcher. Using it before Init is
// fatal.
func Default() *Dispatcher { return dispatcher.Get() }

func Enable()                           { Default().Enable() }
func Disable()                          { Default().Disable() }
func HaltUntilInterrupt()               { Default().HaltUntilInterrupt() }
func SetTimerCallback(cb TimerCallback) { Default().SetTimerCallback(cb) }
func WithoutInterrupts(fn func())       { Default().WithoutInterrupts(fn) }
func Breakpoint()                       { Default().Breakpoint() }
