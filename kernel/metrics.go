package kernel

// Metrics receives counters from the interrupt layer, the event bridges and
// the executor. Implementations must not block or allocate unboundedly:
// several methods run in interrupt context.
type Metrics interface {
	RecordInterrupt(vector uint8)
	RecordScancode(dropped bool)
	RecordTaskSpawned()
	RecordTaskCompleted()
	RecordPoll()
	RecordHalt()
	RecordReadyQueueDepth(depth int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordInterrupt(uint8)     {}
func (NopMetrics) RecordScancode(bool)       {}
func (NopMetrics) RecordTaskSpawned()        {}
func (NopMetrics) RecordTaskCompleted()      {}
func (NopMetrics) RecordPoll()               {}
func (NopMetrics) RecordHalt()               {}
func (NopMetrics) RecordReadyQueueDepth(int) {}
