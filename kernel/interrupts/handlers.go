package interrupts

import (
	"nucleus/hal"
	"nucleus/kernel"
)

// guard counts the interrupt and turns a panic inside h into a kernel
// panic. Nothing can unwind across interrupt context.
func (d *Dispatcher) guard(h hal.Handler) hal.Handler {
	return func(f *hal.InterruptFrame) {
		defer func() {
			if r := recover(); r != nil {
				d.logger().Errorf("interrupts: vector %d: %v", f.Vector, r)
				kernel.ReportPanic(kernel.PanicInfo{Value: r})
				d.cpu.HaltForever()
			}
		}()
		d.metrics.RecordInterrupt(f.Vector)
		h(f)
	}
}

func (d *Dispatcher) breakpoint(f *hal.InterruptFrame) {
	d.logger().Infof("EXCEPTION: BREAKPOINT %s", f)
}

func (d *Dispatcher) doubleFault(f *hal.InterruptFrame) {
	kernel.Fatalf("EXCEPTION: DOUBLE FAULT %s", f)
}

func (d *Dispatcher) pageFault(f *hal.InterruptFrame) {
	log := d.logger()
	log.Errorf("EXCEPTION: PAGE FAULT")
	log.Errorf("Accessed Address: %#x", d.cpu.FaultAddress())
	log.Errorf("Error Code: %s", PageFaultError(f.ErrorCode))
	log.Errorf("%s", f)
	d.cpu.HaltForever()
}

func (d *Dispatcher) timerTick(f *hal.InterruptFrame) {
	if s := d.timer.Load(); s != nil {
		s.cb.OnTimer()
	}
	d.pics.NotifyEndOfInterrupt(f.Vector)
}

func (d *Dispatcher) keyboardIRQ(f *hal.InterruptFrame) {
	code := d.ports.InB(KeyboardDataPort)
	d.keyboard.AddScancode(code)
	d.pics.NotifyEndOfInterrupt(f.Vector)
}
