//go:build !baremetal

package hal

import "sync"

// Emulated 8259A pair wired as on the PC/AT: slave cascaded into master IRQ2.
const (
	picMasterCommand = 0x20
	picMasterData    = 0x21
	picSlaveCommand  = 0xA0
	picSlaveData     = 0xA1

	picCascadeLine = 2

	picICW1Init = 0x10
	picICW1ICW4 = 0x01
	picOCW2EOI  = 0x20
	picOCW3     = 0x08
	picReadIRR  = 0x0A
	picReadISR  = 0x0B
)

type pic8259 struct {
	offset uint8
	imr    uint8
	irr    uint8
	isr    uint8

	initStep   uint8 // 0 = operational, 1..3 = expecting ICW2..ICW4
	needICW4   bool
	readISR    bool
	cascadeCfg uint8
}

// highestPending returns the highest-priority line that may be delivered.
// A line is blocked while it or any higher-priority line is in service.
func (p *pic8259) highestPending() (int, bool) {
	ready := p.irr &^ p.imr
	for line := 0; line < 8; line++ {
		bit := uint8(1) << line
		if p.isr&bit != 0 {
			return 0, false
		}
		if ready&bit != 0 {
			return line, true
		}
	}
	return 0, false
}

func (p *pic8259) eoi() {
	for line := 0; line < 8; line++ {
		bit := uint8(1) << line
		if p.isr&bit != 0 {
			p.isr &^= bit
			return
		}
	}
}

func (p *pic8259) writeCommand(v uint8) {
	switch {
	case v&picICW1Init != 0:
		p.initStep = 1
		p.needICW4 = v&picICW1ICW4 != 0
		p.imr = 0
		p.isr = 0
		p.readISR = false
	case v&picOCW3 != 0:
		switch v {
		case picReadIRR:
			p.readISR = false
		case picReadISR:
			p.readISR = true
		}
	case v&picOCW2EOI != 0:
		p.eoi()
	}
}

func (p *pic8259) readCommand() uint8 {
	if p.readISR {
		return p.isr
	}
	return p.irr
}

func (p *pic8259) writeData(v uint8) {
	switch p.initStep {
	case 0:
		p.imr = v
	case 1:
		p.offset = v &^ 0x07
		p.initStep = 2
	case 2:
		p.cascadeCfg = v
		if p.needICW4 {
			p.initStep = 3
		} else {
			p.initStep = 0
		}
	case 3:
		p.initStep = 0
	}
}

// hostPIC emulates the chained controllers. Until the kernel remaps them,
// the master delivers at the BIOS default of 0x08, on top of the CPU
// exception range.
type hostPIC struct {
	mu     sync.Mutex
	master pic8259
	slave  pic8259
}

func newHostPIC() *hostPIC {
	return &hostPIC{
		master: pic8259{offset: 0x08},
		slave:  pic8259{offset: 0x70},
	}
}

func (p *hostPIC) raise(irq uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if irq >= 8 {
		p.slave.irr |= 1 << (irq - 8)
		p.master.irr |= 1 << picCascadeLine
		return
	}
	p.master.irr |= 1 << irq
}

// acknowledge moves the highest-priority deliverable request into service
// and returns its vector.
func (p *hostPIC) acknowledge() (uint8, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line, ok := p.master.highestPending()
	if !ok {
		return 0, false
	}
	if line == picCascadeLine {
		sl, ok := p.slave.highestPending()
		if !ok {
			p.master.irr &^= 1 << picCascadeLine
			return 0, false
		}
		p.slave.irr &^= 1 << sl
		p.slave.isr |= 1 << sl
		if p.slave.irr&^p.slave.imr == 0 {
			p.master.irr &^= 1 << picCascadeLine
		}
		p.master.isr |= 1 << picCascadeLine
		return p.slave.offset + uint8(sl), true
	}
	p.master.irr &^= 1 << line
	p.master.isr |= 1 << line
	return p.master.offset + uint8(line), true
}

func (p *hostPIC) offsets() (master, slave uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.master.offset, p.slave.offset
}

func (p *hostPIC) inService() (master, slave uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.master.isr, p.slave.isr
}

func (p *hostPIC) in(port uint16) uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch port {
	case picMasterCommand:
		return p.master.readCommand()
	case picMasterData:
		return p.master.imr
	case picSlaveCommand:
		return p.slave.readCommand()
	case picSlaveData:
		return p.slave.imr
	}
	return 0xFF
}

func (p *hostPIC) out(port uint16, v uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch port {
	case picMasterCommand:
		p.master.writeCommand(v)
	case picMasterData:
		p.master.writeData(v)
	case picSlaveCommand:
		p.slave.writeCommand(v)
	case picSlaveData:
		p.slave.writeData(v)
	}
}
