//go:build !baremetal

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type hostHAL struct {
	logger  *hostLogger
	machine *HostMachine
	fb      *hostFramebuffer
	kbd     *hostKeyboard
	t       *hostTime
}

// New returns a host HAL implementation.
func New() HAL {
	return newHostHAL(os.Stdout)
}

// NewHostWithWriter returns a host HAL whose logger writes to w.
func NewHostWithWriter(w io.Writer) HAL {
	return newHostHAL(w)
}

func newHostHAL(w io.Writer) *hostHAL {
	logger := &hostLogger{w: w}
	m := NewHostMachine(logger)
	return &hostHAL{
		logger:  logger,
		machine: m,
		fb:      newHostFramebuffer(640, 400),
		kbd:     newHostKeyboard(m),
		t:       newHostTime(m),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Machine() Machine { return h.machine }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
