//go:build !baremetal

package hal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// maxTicksPerStep caps timer interrupts raised per host frame.
const maxTicksPerStep = 8

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	Hz      int
	Ticks   uint64

	// Type is typed on the keyboard once the machine is up.
	Type string

	// Input, when set, is read line by line and typed on the keyboard.
	Input io.Reader
}

// RunHeadless runs the OS without opening a window. It returns when the
// context ends, after cfg.Ticks timer interrupts, or when the CPU halts.
func RunHeadless(ctx context.Context, newApp func(HAL) func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 100
	}

	h := newHostHAL(stdoutWriter())
	h.t.setHz(cfg.Hz)
	step := newApp(h)

	if cfg.Type != "" {
		h.machine.PressScancodes(ScancodesForText(cfg.Type)...)
	}
	if cfg.Input != nil {
		go typeLines(ctx, h.machine, cfg.Input)
	}

	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}
	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.machine.Halted():
			return ErrHalted
		case <-t.C:
			h.machine.TimerTick()
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}

func typeLines(ctx context.Context, m *HostMachine, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		m.PressScancodes(ScancodesForText(sc.Text() + "\n")...)
	}
}

func stdoutWriter() io.Writer { return os.Stdout }
