package term

import (
	"bytes"
	"testing"

	"nucleus/kernel"
	"nucleus/kernel/klog"
)

type idleCPU struct{}

func (idleCPU) DisableInterrupts() {}
func (idleCPU) EnableInterrupts()  {}
func (idleCPU) EnableAndHalt()     {}
func (idleCPU) HaltForever()       { panic("halt forever") }

func TestLogMirror(t *testing.T) {
	var out bytes.Buffer
	m := NewLogMirror(&out, klog.LevelWarning, 2)
	log := klog.New(nil, klog.LevelDebug, 8)
	log.AddListener(m)

	ex := kernel.NewExecutor(idleCPU{})
	ex.Spawn(m)

	log.Infof("not mirrored")
	log.Warningf("disk %d low", 1)
	ex.RunReady()
	if got := out.String(); got != "[WARNING] disk 1 low\n" {
		t.Fatalf("mirrored %q", got)
	}

	// Parked: the next entry must wake the task.
	log.Errorf("boom")
	ex.RunReady()
	if got := out.String(); got != "[WARNING] disk 1 low\n[ERROR] boom\n" {
		t.Fatalf("mirrored %q", got)
	}

	for i := 0; i < 3; i++ {
		log.Errorf("flood %d", i)
	}
	if got := m.Dropped(); got != 1 {
		t.Fatalf("Dropped() = %d, want 1", got)
	}
}
