//go:build !baremetal

package hal

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Legacy IRQ lines wired on the host machine.
const (
	IRQTimer    uint8 = 0
	IRQKeyboard uint8 = 1
)

const (
	ioWaitPort = 0x80

	breakpointVector = 3
	pageFaultVector  = 14
)

// HostMachine is a simulated single-CPU PC. Interrupt delivery runs on its
// own goroutine, "on top of" whatever the kernel goroutine is doing, and
// is serialized against the interrupt flag: DisableInterrupts returns only
// once no handler is in flight, just as CLI takes effect between
// instructions on real hardware.
type HostMachine struct {
	log Logger

	gate      sync.Mutex
	ifFlag    atomic.Bool
	delivered atomic.Uint64

	idt atomic.Pointer[IDT]
	pic *hostPIC
	ps2 *hostPS2

	cr2 atomic.Uint64

	kick chan struct{}
	wake chan struct{}

	haltOnce sync.Once
	halted   chan struct{}
}

// NewHostMachine powers on a machine with interrupts disabled and the
// interrupt controllers at their BIOS defaults.
func NewHostMachine(log Logger) *HostMachine {
	m := &HostMachine{
		log:    log,
		pic:    newHostPIC(),
		kick:   make(chan struct{}, 1),
		wake:   make(chan struct{}, 1),
		halted: make(chan struct{}),
	}
	m.ps2 = newHostPS2(func() { m.RaiseIRQ(IRQKeyboard) })
	go m.deliverLoop()
	return m
}

func (m *HostMachine) CPU() CPU     { return (*hostCPU)(m) }
func (m *HostMachine) Ports() Ports { return (*hostPorts)(m) }

// RaiseIRQ asserts a legacy IRQ line (0..15).
func (m *HostMachine) RaiseIRQ(irq uint8) {
	if irq >= 16 {
		return
	}
	m.pic.raise(irq)
	m.signal(m.kick)
}

// TimerTick fires the PIT line once.
func (m *HostMachine) TimerTick() {
	m.RaiseIRQ(IRQTimer)
}

// PressScancodes queues raw scan codes at the keyboard controller.
func (m *HostMachine) PressScancodes(codes ...uint8) {
	m.ps2.feed(codes...)
}

// Exception raises a synchronous CPU exception on the calling goroutine,
// the way a faulting instruction would on the running code.
func (m *HostMachine) Exception(vector uint8, errorCode, faultAddr uint64) {
	if vector == pageFaultVector {
		m.cr2.Store(faultAddr)
	}
	m.dispatch(&InterruptFrame{Vector: vector, ErrorCode: errorCode})
}

// Halted is closed once the CPU has stopped for good.
func (m *HostMachine) Halted() <-chan struct{} { return m.halted }

// PICOffsets returns the vector bases currently programmed into the
// master and slave controllers.
func (m *HostMachine) PICOffsets() (master, slave uint8) { return m.pic.offsets() }

// PICInService returns the in-service registers of both controllers.
func (m *HostMachine) PICInService() (master, slave uint8) { return m.pic.inService() }

func (m *HostMachine) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (m *HostMachine) deliverLoop() {
	for {
		select {
		case <-m.halted:
			return
		case <-m.kick:
		}
		m.deliverPending()
	}
}

func (m *HostMachine) deliverPending() {
	for {
		m.gate.Lock()
		if !m.ifFlag.Load() || m.isHalted() {
			m.gate.Unlock()
			return
		}
		vector, ok := m.pic.acknowledge()
		if !ok {
			m.gate.Unlock()
			return
		}

		// Interrupt gates clear IF on entry; IRETQ restores it.
		m.ifFlag.Store(false)
		m.dispatch(&InterruptFrame{Vector: vector})
		if !m.isHalted() {
			m.ifFlag.Store(true)
		}
		m.delivered.Add(1)
		m.gate.Unlock()
		m.signal(m.wake)
	}
}

func (m *HostMachine) dispatch(frame *InterruptFrame) {
	idt := m.idt.Load()
	if idt == nil || !idt[frame.Vector].Present() {
		m.tripleFault(frame)
		return
	}
	gate := &idt[frame.Vector]
	if gate.StackIndex() == 0 {
		gate.Handler()(frame)
		return
	}

	// IST switch: the handler gets a fresh stack of its own.
	done := make(chan struct{})
	go func() {
		defer close(done)
		gate.Handler()(frame)
	}()
	select {
	case <-done:
	case <-m.halted:
		select {}
	}
}

func (m *HostMachine) tripleFault(frame *InterruptFrame) {
	if m.log != nil {
		m.log.WriteLineString(fmt.Sprintf("machine: triple fault on unbound vector %d, cpu reset", frame.Vector))
	}
	m.CPU().HaltForever()
}

func (m *HostMachine) isHalted() bool {
	select {
	case <-m.halted:
		return true
	default:
		return false
	}
}

type hostCPU HostMachine

func (c *hostCPU) m() *HostMachine { return (*HostMachine)(c) }

func (c *hostCPU) EnableInterrupts() {
	m := c.m()
	m.ifFlag.Store(true)
	m.signal(m.kick)
}

func (c *hostCPU) DisableInterrupts() {
	m := c.m()
	m.gate.Lock()
	m.ifFlag.Store(false)
	m.gate.Unlock()
}

func (c *hostCPU) InterruptsEnabled() bool {
	return c.m().ifFlag.Load()
}

func (c *hostCPU) EnableAndHalt() {
	m := c.m()
	m.gate.Lock()
	seq := m.delivered.Load()
	m.ifFlag.Store(true)
	m.gate.Unlock()
	m.signal(m.kick)

	for m.delivered.Load() == seq {
		select {
		case <-m.wake:
		case <-m.halted:
			select {}
		}
	}
}

func (c *hostCPU) HaltForever() {
	m := c.m()
	m.ifFlag.Store(false)
	m.haltOnce.Do(func() { close(m.halted) })
	select {}
}

func (c *hostCPU) LoadIDT(idt *IDT) {
	cp := *idt
	c.m().idt.Store(&cp)
}

func (c *hostCPU) FaultAddress() uint64 {
	return c.m().cr2.Load()
}

func (c *hostCPU) Breakpoint() {
	c.m().Exception(breakpointVector, 0, 0)
}

type hostPorts HostMachine

func (p *hostPorts) InB(port uint16) uint8 {
	m := (*HostMachine)(p)
	switch port {
	case picMasterCommand, picMasterData, picSlaveCommand, picSlaveData:
		return m.pic.in(port)
	case ps2DataPort, ps2StatusPort:
		return m.ps2.in(port)
	}
	return 0xFF
}

func (p *hostPorts) OutB(port uint16, v uint8) {
	m := (*HostMachine)(p)
	switch port {
	case picMasterCommand, picMasterData, picSlaveCommand, picSlaveData:
		m.pic.out(port, v)
		if port == picMasterCommand || port == picSlaveCommand {
			// An EOI may unblock a request that arrived while the line was in service.
			m.signal(m.kick)
		}
	case ioWaitPort:
	}
}
