package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// ErrHalted reports that the CPU stopped for good.
var ErrHalted = errors.New("cpu halted")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Ports is the x86 I/O port space.
type Ports interface {
	InB(port uint16) uint8
	OutB(port uint16, v uint8)
}

// CPU exposes the interrupt flag and halt primitives of the single boot CPU.
type CPU interface {
	EnableInterrupts()
	DisableInterrupts()
	InterruptsEnabled() bool

	// EnableAndHalt enables interrupts and halts until the next interrupt
	// as one step: an interrupt that becomes deliverable after the enable
	// always ends the halt.
	EnableAndHalt()

	// HaltForever disables interrupts and stops the CPU. It does not return.
	HaltForever()

	// LoadIDT makes idt the active vector table.
	LoadIDT(idt *IDT)

	// FaultAddress returns the linear address of the last page fault (CR2).
	FaultAddress() uint64

	// Breakpoint executes INT3 on the calling thread of control.
	Breakpoint()
}

// Machine is the hardware the kernel core runs on.
type Machine interface {
	CPU() CPU
	Ports() Ports
}

// HAL provides the only contact point between the OS and the outside world.
type HAL interface {
	Logger() Logger
	Machine() Machine
	Display() Display
}
