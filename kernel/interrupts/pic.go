package interrupts

import (
	"errors"
	"fmt"

	"nucleus/hal"
)

// ErrOffsetOverlap reports controller offsets that collide with the CPU
// exception range or with each other.
var ErrOffsetOverlap = errors.New("interrupt controller offsets overlap")

// 8259A command and data ports.
const (
	PIC1Command uint16 = 0x20
	PIC1Data    uint16 = 0x21
	PIC2Command uint16 = 0xA0
	PIC2Data    uint16 = 0xA1
)

const (
	icw1Init     = 0x11 // edge triggered, cascade, ICW4 follows
	icw4Mode8086 = 0x01
	cmdEOI       = 0x20

	// Writing to an unused port gives the controllers time to settle
	// between initialization words on old hardware.
	ioWaitPort uint16 = 0x80

	linesPerPIC = 8

	// Exceptions 0..31 are reserved by the CPU.
	firstFreeVector = 32
)

type pic struct {
	offset  uint8
	command uint16
	data    uint16
}

func (p pic) handles(vector uint8) bool {
	return vector >= p.offset && int(vector) < int(p.offset)+linesPerPIC
}

// ChainedPICs drives the master/slave 8259A pair, slave cascaded into the
// master's IRQ2.
type ChainedPICs struct {
	ports  hal.Ports
	master pic
	slave  pic
}

// NewChainedPICs validates the two base vectors. Each controller occupies
// eight vectors starting at its offset.
func NewChainedPICs(ports hal.Ports, masterOffset, slaveOffset uint8) (*ChainedPICs, error) {
	if masterOffset < firstFreeVector || slaveOffset < firstFreeVector {
		return nil, fmt.Errorf("%w: offsets %d/%d inside exception range", ErrOffsetOverlap, masterOffset, slaveOffset)
	}
	if int(masterOffset) > hal.VectorCount-linesPerPIC || int(slaveOffset) > hal.VectorCount-linesPerPIC {
		return nil, fmt.Errorf("%w: offsets %d/%d past end of vector table", ErrOffsetOverlap, masterOffset, slaveOffset)
	}
	lo, hi := masterOffset, slaveOffset
	if lo > hi {
		lo, hi = hi, lo
	}
	if int(hi)-int(lo) < linesPerPIC {
		return nil, fmt.Errorf("%w: offsets %d/%d", ErrOffsetOverlap, masterOffset, slaveOffset)
	}
	return &ChainedPICs{
		ports:  ports,
		master: pic{offset: masterOffset, command: PIC1Command, data: PIC1Data},
		slave:  pic{offset: slaveOffset, command: PIC2Command, data: PIC2Data},
	}, nil
}

// Initialize remaps both controllers to their offsets, preserving the
// interrupt masks they had before.
func (c *ChainedPICs) Initialize() {
	p := c.ports
	wait := func() { p.OutB(ioWaitPort, 0) }

	masks := [2]uint8{p.InB(c.master.data), p.InB(c.slave.data)}

	p.OutB(c.master.command, icw1Init)
	wait()
	p.OutB(c.slave.command, icw1Init)
	wait()

	p.OutB(c.master.data, c.master.offset)
	wait()
	p.OutB(c.slave.data, c.slave.offset)
	wait()

	// Slave on master line 2; slave cascade identity 2.
	p.OutB(c.master.data, 4)
	wait()
	p.OutB(c.slave.data, 2)
	wait()

	p.OutB(c.master.data, icw4Mode8086)
	wait()
	p.OutB(c.slave.data, icw4Mode8086)
	wait()

	p.OutB(c.master.data, masks[0])
	p.OutB(c.slave.data, masks[1])
}

// HandlesInterrupt reports whether vector belongs to either controller.
func (c *ChainedPICs) HandlesInterrupt(vector uint8) bool {
	return c.master.handles(vector) || c.slave.handles(vector)
}

// NotifyEndOfInterrupt acknowledges vector. Lines on the slave need an EOI
// on both controllers because the slave is cascaded through the master.
func (c *ChainedPICs) NotifyEndOfInterrupt(vector uint8) {
	if !c.HandlesInterrupt(vector) {
		return
	}
	if c.slave.handles(vector) {
		c.ports.OutB(c.slave.command, cmdEOI)
	}
	c.ports.OutB(c.master.command, cmdEOI)
}

// Offsets returns the master and slave base vectors.
func (c *ChainedPICs) Offsets() (master, slave uint8) {
	return c.master.offset, c.slave.offset
}
