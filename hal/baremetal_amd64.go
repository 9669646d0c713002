//go:build baremetal && amd64

package hal

import (
	"fmt"
	"unsafe"
)

// Implemented in cpu_amd64.s.
func enableInterrupts()
func disableInterrupts()
func enableAndHalt()
func haltForever()
func readFlags() uint64
func readCR2() uint64
func breakpoint()
func inb(port uint16) uint8
func outb(port uint16, v uint8)
func lidt(desc *idtDescriptor)

// Entry stubs, one per vector the kernel binds.
func isrVector3()
func isrVector8()
func isrVector14()
func isrVector32()
func isrVector33()

const (
	flagsIF = 1 << 9

	// kernelCodeSelector is the 64-bit code segment installed by the boot GDT.
	kernelCodeSelector = 0x08

	gateInterrupt64 = 0x8E
)

var entryStubs = map[uint8]func(){
	3:  isrVector3,
	8:  isrVector8,
	14: isrVector14,
	32: isrVector32,
	33: isrVector33,
}

type bareHAL struct {
	logger *uartLogger
}

// New returns the x86-64 bare-metal HAL. COM1 carries the log.
func New() HAL {
	return &bareHAL{logger: newUARTLogger(com1Base)}
}

func (h *bareHAL) Logger() Logger   { return h.logger }
func (h *bareHAL) Machine() Machine { return bareMachine{} }
func (h *bareHAL) Display() Display { return bareDisplay{} }

type bareDisplay struct{}

// Framebuffer is nil: the text-mode display driver lives outside the core.
func (bareDisplay) Framebuffer() Framebuffer { return nil }

type bareMachine struct{}

func (bareMachine) CPU() CPU     { return bareCPU{} }
func (bareMachine) Ports() Ports { return barePorts{} }

type barePorts struct{}

func (barePorts) InB(port uint16) uint8     { return inb(port) }
func (barePorts) OutB(port uint16, v uint8) { outb(port, v) }

type bareCPU struct{}

func (bareCPU) EnableInterrupts()       { enableInterrupts() }
func (bareCPU) DisableInterrupts()      { disableInterrupts() }
func (bareCPU) InterruptsEnabled() bool { return readFlags()&flagsIF != 0 }
func (bareCPU) EnableAndHalt()          { enableAndHalt() }
func (bareCPU) HaltForever()            { haltForever() }
func (bareCPU) FaultAddress() uint64    { return readCR2() }
func (bareCPU) Breakpoint()             { breakpoint() }

// gateDescriptor is the 16-byte long-mode IDT entry.
type gateDescriptor struct {
	offsetLow  uint16
	selector   uint16
	ist        uint8
	typeAttr   uint8
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

type idtDescriptor struct {
	limit uint16
	base  uint64
}

var (
	activeIDT IDT
	hwIDT     [VectorCount]gateDescriptor
	hwIDTR    idtDescriptor
)

func (bareCPU) LoadIDT(idt *IDT) {
	activeIDT = *idt
	for v := 0; v < VectorCount; v++ {
		g := &activeIDT[v]
		if !g.Present() {
			hwIDT[v] = gateDescriptor{}
			continue
		}
		stub, ok := entryStubs[uint8(v)]
		if !ok {
			panic(fmt.Sprintf("hal: no entry stub for vector %d", v))
		}
		addr := funcPC(stub)
		hwIDT[v] = gateDescriptor{
			offsetLow:  uint16(addr),
			selector:   kernelCodeSelector,
			ist:        g.StackIndex(),
			typeAttr:   gateInterrupt64,
			offsetMid:  uint16(addr >> 16),
			offsetHigh: uint32(addr >> 32),
		}
	}
	hwIDTR = idtDescriptor{
		limit: uint16(unsafe.Sizeof(hwIDT) - 1),
		base:  uint64(uintptr(unsafe.Pointer(&hwIDT))),
	}
	lidt(&hwIDTR)
}

func funcPC(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}

// trapFrame mirrors the stack built by isrCommon.
type trapFrame struct {
	R15, R14, R13, R12, R11, R10, R9, R8 uint64
	RBP, RDI, RSI, RDX, RCX, RBX, RAX    uint64

	Vector    uint64
	ErrorCode uint64

	RIP    uint64
	CS     uint64
	RFlags uint64
	RSP    uint64
	SS     uint64
}

// dispatchVector is called by isrCommon with interrupts disabled.
//
//go:nosplit
func dispatchVector(tf *trapFrame) {
	frame := InterruptFrame{
		Vector:             uint8(tf.Vector),
		ErrorCode:          tf.ErrorCode,
		InstructionPointer: tf.RIP,
		CodeSegment:        tf.CS,
		CPUFlags:           tf.RFlags,
		StackPointer:       tf.RSP,
		StackSegment:       tf.SS,
	}
	if h := activeIDT[frame.Vector].Handler(); h != nil {
		h(&frame)
		return
	}
	haltForever()
}
