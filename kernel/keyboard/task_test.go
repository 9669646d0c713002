package keyboard

import (
	"testing"

	"nucleus/hal"
	"nucleus/kernel"
	"nucleus/kernel/klog"
)

func TestDecodeTaskForwardsKeys(t *testing.T) {
	b := NewBridge(Config{Capacity: 32})
	var got []DecodedKey
	task := NewDecodeTask(b, KeyHandlerFunc(func(k DecodedKey) { got = append(got, k) }), nil)

	ex := kernel.NewExecutor(&idleCPU{})
	ex.Spawn(task)
	ex.RunReady()
	if len(got) != 0 {
		t.Fatalf("keys before input = %v", got)
	}

	for _, c := range hal.ScancodesForText("hi\n") {
		b.AddScancode(c)
	}
	ex.RunReady()

	want := []rune{'h', 'i', '\n'}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %q", got, string(want))
	}
	for i, r := range want {
		if !got[i].IsRune() || got[i].Rune != r {
			t.Fatalf("key %d = %v, want %q", i, got[i], r)
		}
	}
	if ex.Len() != 1 {
		t.Fatalf("decode task completed, want it parked")
	}
}

func TestDecodeTaskLogsKeysAtInfo(t *testing.T) {
	b := NewBridge(Config{Capacity: 8})
	log := klog.New(nil, klog.LevelInfo, 8)
	ex := kernel.NewExecutor(&idleCPU{})
	ex.Spawn(NewDecodeTask(b, nil, log))

	for _, c := range hal.ScancodesForText("a") {
		b.AddScancode(c)
	}
	ex.RunReady()

	h := log.History()
	if len(h) != 1 || h[0].Level != klog.LevelInfo || h[0].Message != "KEYBOARD CHAR='a'" {
		t.Fatalf("History() = %v, want one INFO \"KEYBOARD CHAR='a'\" entry", h)
	}
}
