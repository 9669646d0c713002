package main

import (
	"fmt"
	"strconv"
	"strings"

	"nucleus/hal"
	"nucleus/kernel"
	"nucleus/kernel/keyboard"
)

func encode(text string) []uint8 { return hal.ScancodesForText(text) }

func formatHex(codes []uint8) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return strings.Join(parts, " ")
}

// parseHex accepts space or comma separated bytes, with or without 0x.
func parseHex(args []string) ([]uint8, error) {
	var out []uint8
	for _, arg := range args {
		for _, f := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
			f = strings.TrimPrefix(strings.ToLower(f), "0x")
			v, err := strconv.ParseUint(f, 16, 8)
			if err != nil {
				return nil, fmt.Errorf("bad scan code %q", f)
			}
			out = append(out, uint8(v))
		}
	}
	return out, nil
}

// traceCPU never halts: the trace drives the executor step by step.
type traceCPU struct{}

func (traceCPU) DisableInterrupts() {}
func (traceCPU) EnableInterrupts()  {}
func (traceCPU) EnableAndHalt()     {}
func (traceCPU) HaltForever()       { panic("scantrace: cpu halted") }

type decodeResult struct {
	keys    []keyboard.DecodedKey
	dropped uint64
}

// decode runs codes through a bridge of the given capacity and the decoder
// task. Without burst the task drains the queue whenever it fills.
func decode(codes []uint8, capacity int, burst bool) decodeResult {
	var res decodeResult
	b := keyboard.NewBridge(keyboard.Config{Capacity: capacity})
	ex := kernel.NewExecutor(traceCPU{})
	ex.Spawn(keyboard.NewDecodeTask(b, keyboard.KeyHandlerFunc(func(k keyboard.DecodedKey) {
		res.keys = append(res.keys, k)
	}), nil))

	// The first poll constructs the queue.
	ex.RunReady()
	for _, c := range codes {
		if !burst && b.Len() >= capacity {
			ex.RunReady()
		}
		b.AddScancode(c)
	}
	ex.RunReady()
	res.dropped = b.Dropped()
	return res
}
