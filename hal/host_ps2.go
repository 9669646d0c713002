//go:build !baremetal

package hal

import "sync"

const (
	ps2DataPort   = 0x60
	ps2StatusPort = 0x64

	ps2StatusOutputFull = 0x01

	// ps2BufferSize bounds the bytes waiting behind the output register.
	ps2BufferSize = 256
)

// hostPS2 emulates the keyboard controller: one output register in front of
// a FIFO of pending scan codes. Each byte placed in the register raises IRQ1.
type hostPS2 struct {
	mu      sync.Mutex
	out     uint8
	full    bool
	pending []uint8
	raise   func()
}

func newHostPS2(raise func()) *hostPS2 {
	return &hostPS2{raise: raise}
}

// feed queues scan codes as if typed on the keyboard.
// Bytes beyond the controller buffer are lost.
func (k *hostPS2) feed(codes ...uint8) {
	k.mu.Lock()
	for _, c := range codes {
		if len(k.pending) >= ps2BufferSize {
			break
		}
		k.pending = append(k.pending, c)
	}
	fire := k.loadLocked()
	k.mu.Unlock()
	if fire {
		k.raise()
	}
}

// loadLocked moves the next pending byte into the empty output register.
func (k *hostPS2) loadLocked() bool {
	if k.full || len(k.pending) == 0 {
		return false
	}
	k.out = k.pending[0]
	k.pending = k.pending[1:]
	k.full = true
	return true
}

func (k *hostPS2) in(port uint16) uint8 {
	k.mu.Lock()
	switch port {
	case ps2DataPort:
		v := k.out
		k.full = false
		fire := k.loadLocked()
		k.mu.Unlock()
		if fire {
			k.raise()
		}
		return v
	case ps2StatusPort:
		var st uint8
		if k.full {
			st |= ps2StatusOutputFull
		}
		k.mu.Unlock()
		return st
	}
	k.mu.Unlock()
	return 0xFF
}
