package interrupts

import "strings"

// Vector bases of the remapped controllers, just past the CPU exception
// range.
const (
	PIC1Offset uint8 = 32
	PIC2Offset uint8 = PIC1Offset + 8
)

// Vectors the kernel binds.
const (
	VectorBreakpoint  uint8 = 3
	VectorDoubleFault uint8 = 8
	VectorPageFault   uint8 = 14
	VectorTimer       uint8 = PIC1Offset
	VectorKeyboard    uint8 = PIC1Offset + 1
)

// KeyboardDataPort is the PS/2 controller output register.
const KeyboardDataPort uint16 = 0x60

// DefaultDoubleFaultStackIndex is the interrupt stack table slot reserved
// for the double fault handler by descriptor table setup.
const DefaultDoubleFaultStackIndex uint8 = 1

// PageFaultError is the error code pushed by the CPU on a page fault.
type PageFaultError uint64

const (
	PageFaultProtectionViolation PageFaultError = 1 << iota
	PageFaultCausedByWrite
	PageFaultUserMode
	PageFaultMalformedTable
	PageFaultInstructionFetch
)

var pageFaultNames = [...]string{
	"PROTECTION_VIOLATION",
	"CAUSED_BY_WRITE",
	"USER_MODE",
	"MALFORMED_TABLE",
	"INSTRUCTION_FETCH",
}

func (e PageFaultError) String() string {
	var names []string
	for i, name := range pageFaultNames {
		if e&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "NOT_PRESENT"
	}
	return strings.Join(names, " | ")
}
