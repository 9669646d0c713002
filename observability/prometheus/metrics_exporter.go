// Package prometheus exports kernel counters to Prometheus on host runs.
package prometheus

import (
	"errors"
	"fmt"
	"strconv"

	"nucleus/kernel"

	prom "github.com/prometheus/client_golang/prometheus"
)

// MetricsExporter adapts kernel.Metrics to Prometheus collectors.
type MetricsExporter struct {
	interruptsTotal     *prom.CounterVec
	scancodesTotal      *prom.CounterVec
	tasksSpawnedTotal   prom.Counter
	tasksCompletedTotal prom.Counter
	pollsTotal          prom.Counter
	haltsTotal          prom.Counter
	readyQueueDepth     prom.Gauge

	vectorLabels [256]string
}

var _ kernel.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers the kernel collectors.
func NewMetricsExporter(namespace string, reg prom.Registerer) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "nucleus"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	interruptVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "interrupts_total",
		Help:      "Interrupts and exceptions dispatched, by vector.",
	}, []string{"vector"})
	scancodeVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "scancodes_total",
		Help:      "Keyboard scan codes received, by outcome.",
	}, []string{"result"})
	spawned := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_spawned_total",
		Help:      "Tasks spawned on the executor.",
	})
	completed := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_completed_total",
		Help:      "Tasks that returned ready.",
	})
	polls := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_polls_total",
		Help:      "Task polls performed by the executor.",
	})
	halts := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "cpu_halts_total",
		Help:      "Times the executor halted the CPU waiting for an interrupt.",
	})
	depth := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "ready_queue_depth",
		Help:      "Ready queue length at the start of the last drain.",
	})

	var err error
	if interruptVec, err = registerCollector(reg, interruptVec); err != nil {
		return nil, err
	}
	if scancodeVec, err = registerCollector(reg, scancodeVec); err != nil {
		return nil, err
	}
	if spawned, err = registerCollector(reg, spawned); err != nil {
		return nil, err
	}
	if completed, err = registerCollector(reg, completed); err != nil {
		return nil, err
	}
	if polls, err = registerCollector(reg, polls); err != nil {
		return nil, err
	}
	if halts, err = registerCollector(reg, halts); err != nil {
		return nil, err
	}
	if depth, err = registerCollector(reg, depth); err != nil {
		return nil, err
	}

	m := &MetricsExporter{
		interruptsTotal:     interruptVec,
		scancodesTotal:      scancodeVec,
		tasksSpawnedTotal:   spawned,
		tasksCompletedTotal: completed,
		pollsTotal:          polls,
		haltsTotal:          halts,
		readyQueueDepth:     depth,
	}
	for i := range m.vectorLabels {
		m.vectorLabels[i] = strconv.Itoa(i)
	}
	return m, nil
}

func (m *MetricsExporter) RecordInterrupt(vector uint8) {
	if m == nil {
		return
	}
	m.interruptsTotal.WithLabelValues(m.vectorLabels[vector]).Inc()
}

func (m *MetricsExporter) RecordScancode(dropped bool) {
	if m == nil {
		return
	}
	result := "queued"
	if dropped {
		result = "dropped"
	}
	m.scancodesTotal.WithLabelValues(result).Inc()
}

func (m *MetricsExporter) RecordTaskSpawned() {
	if m == nil {
		return
	}
	m.tasksSpawnedTotal.Inc()
}

func (m *MetricsExporter) RecordTaskCompleted() {
	if m == nil {
		return
	}
	m.tasksCompletedTotal.Inc()
}

func (m *MetricsExporter) RecordPoll() {
	if m == nil {
		return
	}
	m.pollsTotal.Inc()
}

func (m *MetricsExporter) RecordHalt() {
	if m == nil {
		return
	}
	m.haltsTotal.Inc()
}

func (m *MetricsExporter) RecordReadyQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.readyQueueDepth.Set(float64(depth))
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
