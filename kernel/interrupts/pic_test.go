package interrupts

import (
	"errors"
	"testing"

	"nucleus/hal"
)

type portWrite struct {
	port uint16
	v    uint8
}

type recordingPorts struct {
	writes []portWrite
}

func (p *recordingPorts) InB(uint16) uint8 { return 0 }
func (p *recordingPorts) OutB(port uint16, v uint8) {
	p.writes = append(p.writes, portWrite{port, v})
}

func TestNewChainedPICsOffsets(t *testing.T) {
	tests := []struct {
		master, slave uint8
		wantErr       bool
	}{
		{32, 40, false},
		{40, 32, false},
		{0x70, 0x78, false},
		{8, 40, true},
		{32, 31, true},
		{32, 36, true},
		{32, 32, true},
		{250, 40, true},
	}
	for _, tt := range tests {
		_, err := NewChainedPICs(&recordingPorts{}, tt.master, tt.slave)
		if (err != nil) != tt.wantErr {
			t.Fatalf("NewChainedPICs(%d, %d) err = %v, wantErr %v", tt.master, tt.slave, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrOffsetOverlap) {
			t.Fatalf("NewChainedPICs(%d, %d) err = %v, want %v", tt.master, tt.slave, err, ErrOffsetOverlap)
		}
	}
}

func TestChainedPICsEndOfInterrupt(t *testing.T) {
	ports := &recordingPorts{}
	pics, err := NewChainedPICs(ports, PIC1Offset, PIC2Offset)
	if err != nil {
		t.Fatalf("NewChainedPICs() err = %v", err)
	}

	pics.NotifyEndOfInterrupt(VectorKeyboard)
	if want := []portWrite{{PIC1Command, 0x20}}; !equalWrites(ports.writes, want) {
		t.Fatalf("master EOI writes = %v, want %v", ports.writes, want)
	}

	ports.writes = nil
	pics.NotifyEndOfInterrupt(PIC2Offset + 4)
	if want := []portWrite{{PIC2Command, 0x20}, {PIC1Command, 0x20}}; !equalWrites(ports.writes, want) {
		t.Fatalf("slave EOI writes = %v, want %v", ports.writes, want)
	}

	ports.writes = nil
	pics.NotifyEndOfInterrupt(VectorPageFault)
	if len(ports.writes) != 0 {
		t.Fatalf("EOI for exception vector wrote %v", ports.writes)
	}
}

func TestChainedPICsInitializeRemaps(t *testing.T) {
	m := hal.NewHostMachine(nil)
	m.Ports().OutB(PIC1Data, 0xFC)
	m.Ports().OutB(PIC2Data, 0xFF)

	pics, err := NewChainedPICs(m.Ports(), PIC1Offset, PIC2Offset)
	if err != nil {
		t.Fatalf("NewChainedPICs() err = %v", err)
	}
	pics.Initialize()

	master, slave := m.PICOffsets()
	if master != PIC1Offset || slave != PIC2Offset {
		t.Fatalf("PICOffsets() = %d/%d, want %d/%d", master, slave, PIC1Offset, PIC2Offset)
	}
	if got := m.Ports().InB(PIC1Data); got != 0xFC {
		t.Fatalf("master mask = %#x, want 0xfc restored", got)
	}
	if got := m.Ports().InB(PIC2Data); got != 0xFF {
		t.Fatalf("slave mask = %#x, want 0xff restored", got)
	}
}

func equalWrites(a, b []portWrite) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPageFaultErrorString(t *testing.T) {
	tests := []struct {
		code PageFaultError
		want string
	}{
		{0, "NOT_PRESENT"},
		{PageFaultCausedByWrite, "CAUSED_BY_WRITE"},
		{PageFaultProtectionViolation | PageFaultUserMode, "PROTECTION_VIOLATION | USER_MODE"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Fatalf("PageFaultError(%#x).String() = %q, want %q", uint64(tt.code), got, tt.want)
		}
	}
}
