package prometheus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsExporter_RecordMethods(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("nucleus", reg)
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}

	exporter.RecordInterrupt(33)
	exporter.RecordInterrupt(33)
	exporter.RecordInterrupt(32)
	exporter.RecordScancode(false)
	exporter.RecordScancode(true)
	exporter.RecordTaskSpawned()
	exporter.RecordTaskCompleted()
	exporter.RecordPoll()
	exporter.RecordPoll()
	exporter.RecordHalt()
	exporter.RecordReadyQueueDepth(4)

	tests := []struct {
		name string
		c    prom.Collector
		want float64
	}{
		{"keyboard interrupts", exporter.interruptsTotal.WithLabelValues("33"), 2},
		{"timer interrupts", exporter.interruptsTotal.WithLabelValues("32"), 1},
		{"queued scancodes", exporter.scancodesTotal.WithLabelValues("queued"), 1},
		{"dropped scancodes", exporter.scancodesTotal.WithLabelValues("dropped"), 1},
		{"spawned", exporter.tasksSpawnedTotal, 1},
		{"completed", exporter.tasksCompletedTotal, 1},
		{"polls", exporter.pollsTotal, 2},
		{"halts", exporter.haltsTotal, 1},
		{"depth", exporter.readyQueueDepth, 4},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Fatalf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMetricsExporter_AlreadyRegisteredReuse(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("nucleus", reg)
	if err != nil {
		t.Fatalf("first NewMetricsExporter failed: %v", err)
	}
	second, err := NewMetricsExporter("nucleus", reg)
	if err != nil {
		t.Fatalf("second NewMetricsExporter failed: %v", err)
	}

	first.RecordHalt()
	second.RecordHalt()

	if got := testutil.ToFloat64(first.haltsTotal); got != 2 {
		t.Fatalf("shared halt counter = %v, want 2", got)
	}
}

func TestMetricsExporter_NilSafe(t *testing.T) {
	var m *MetricsExporter
	m.RecordInterrupt(1)
	m.RecordScancode(true)
	m.RecordReadyQueueDepth(1)
}

func TestHandler(t *testing.T) {
	reg := prom.NewRegistry()
	exporter, err := NewMetricsExporter("nucleus", reg)
	if err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}
	exporter.RecordInterrupt(33)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `nucleus_interrupts_total{vector="33"} 1`) {
		t.Fatalf("metrics body missing interrupt counter:\n%s", body)
	}
}

func TestServer(t *testing.T) {
	reg := prom.NewRegistry()
	if _, err := NewMetricsExporter("nucleus", reg); err != nil {
		t.Fatalf("NewMetricsExporter failed: %v", err)
	}
	srv, err := Listen("127.0.0.1:0", reg)
	if err != nil {
		t.Fatalf("Listen() err = %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	resp, err := http.Get("http://" + srv.Addr().String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics err = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "nucleus_cpu_halts_total 0") {
		t.Fatalf("metrics body missing halt counter:\n%s", body)
	}
}
