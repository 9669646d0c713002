//go:build !baremetal && !cgo

package hal

type hostKeyboard struct {
	m *HostMachine
}

func newHostKeyboard(m *HostMachine) *hostKeyboard {
	return &hostKeyboard{m: m}
}

func (k *hostKeyboard) poll() {
	// No keyboard support without the window backend.
}
