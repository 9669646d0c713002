package hal

import "fmt"

// VectorCount is the number of entries in an x86 vector table.
const VectorCount = 256

// MaxStackIndex is the highest interrupt stack table slot (IST1..IST7).
const MaxStackIndex = 7

// InterruptFrame is the state pushed by the CPU on interrupt entry.
type InterruptFrame struct {
	Vector             uint8
	ErrorCode          uint64
	InstructionPointer uint64
	CodeSegment        uint64
	CPUFlags           uint64
	StackPointer       uint64
	StackSegment       uint64
}

func (f *InterruptFrame) String() string {
	return fmt.Sprintf(
		"InterruptFrame{vector: %d, error: %#x, ip: %#x, cs: %#x, flags: %#x, sp: %#x, ss: %#x}",
		f.Vector, f.ErrorCode, f.InstructionPointer, f.CodeSegment, f.CPUFlags, f.StackPointer, f.StackSegment,
	)
}

// Handler is an interrupt or exception entry point.
type Handler func(frame *InterruptFrame)

// Gate is one vector table entry.
type Gate struct {
	handler    Handler
	stackIndex uint8
}

// SetHandler binds h to the gate.
func (g *Gate) SetHandler(h Handler) *Gate {
	g.handler = h
	return g
}

// SetStackIndex makes the CPU switch to IST slot index (1..7) before
// running the handler. Zero means "stay on the current stack".
func (g *Gate) SetStackIndex(index uint8) *Gate {
	if index > MaxStackIndex {
		panic(fmt.Sprintf("hal: stack index %d out of range", index))
	}
	g.stackIndex = index
	return g
}

// Handler returns the bound handler, or nil for an unused vector.
func (g *Gate) Handler() Handler { return g.handler }

// StackIndex returns the IST slot, or zero.
func (g *Gate) StackIndex() uint8 { return g.stackIndex }

// Present reports whether a handler is bound.
func (g *Gate) Present() bool { return g.handler != nil }

// IDT is the vector table consulted by the CPU.
type IDT [VectorCount]Gate
