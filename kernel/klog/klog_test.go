package klog

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
)

type lineSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *lineSink) WriteLineString(line string) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
}

func (s *lineSink) WriteLineBytes(b []byte) { s.WriteLineString(string(b)) }

func TestLoggerFormatsAndFilters(t *testing.T) {
	sink := &lineSink{}
	l := New(sink, LevelInfo, 8)

	l.Debugf("hidden %d", 1)
	l.Infof("booted in %dms", 12)
	l.Warningf("queue full")
	l.Errorf("fault at %#x", 0xdead)

	want := []string{
		"[INFO] booted in 12ms",
		"[WARNING] queue full",
		"[ERROR] fault at 0xdead",
	}
	if strings.Join(sink.lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("lines = %q, want %q", sink.lines, want)
	}

	l.SetLevel(LevelDebug)
	l.Debugf("shown")
	if got := sink.lines[len(sink.lines)-1]; got != "[DEBUG] shown" {
		t.Fatalf("last line = %q, want %q", got, "[DEBUG] shown")
	}
}

func TestLoggerHistoryEvictsOldest(t *testing.T) {
	l := New(nil, LevelDebug, 3)
	for i := 0; i < 5; i++ {
		l.Infof("entry %d", i)
	}

	h := l.History()
	if len(h) != 3 {
		t.Fatalf("len(History()) = %d, want 3", len(h))
	}
	for i, e := range h {
		if want := fmt.Sprintf("entry %d", i+2); e.Message != want {
			t.Fatalf("History()[%d] = %q, want %q", i, e.Message, want)
		}
	}
	// Taking a snapshot must not consume history.
	if got := len(l.History()); got != 3 {
		t.Fatalf("len(History()) second call = %d, want 3", got)
	}
}

func TestLoggerHistoryWhileLogging(t *testing.T) {
	oldProcs := runtime.GOMAXPROCS(2)
	defer runtime.GOMAXPROCS(oldProcs)

	const capacity = 8
	l := New(nil, LevelDebug, capacity)
	for i := 0; i < capacity; i++ {
		l.Infof("%d", i)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := capacity; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			l.Infof("%d", i)
			runtime.Gosched()
		}
	}()
	defer func() {
		close(stop)
		wg.Wait()
	}()

	for n := 0; n < 5000; n++ {
		h := l.History()
		if len(h) == 0 || len(h) > capacity {
			t.Fatalf("snapshot %d: len(History()) = %d, want 1..%d", n, len(h), capacity)
		}
		prev := -1
		for _, e := range h {
			v, err := strconv.Atoi(e.Message)
			if err != nil || v <= prev {
				t.Fatalf("snapshot %d: History() = %v, want increasing entries", n, h)
			}
			prev = v
		}
	}
}

func TestLoggerListeners(t *testing.T) {
	l := New(nil, LevelWarning, 0)
	var got []Entry
	l.AddListener(ListenerFunc(func(e Entry) { got = append(got, e) }))
	l.AddListener(nil)

	l.Infof("dropped")
	l.Errorf("kept")

	if len(got) != 1 || got[0].Level != LevelError || got[0].Message != "kept" {
		t.Fatalf("listener got %v, want one ERROR entry", got)
	}
	if got[0].String() != "[ERROR] kept" {
		t.Fatalf("Entry.String() = %q", got[0].String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warn", LevelWarning, false},
		{" Error ", LevelError, false},
		{"", LevelInfo, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, %v, want %v, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestNilDefaultDiscards(t *testing.T) {
	SetDefault(nil)
	Infof("nobody listens")

	sink := &lineSink{}
	SetDefault(New(sink, LevelDebug, 4))
	defer SetDefault(nil)
	Debugf("x=%d", 1)
	if len(sink.lines) != 1 || sink.lines[0] != "[DEBUG] x=1" {
		t.Fatalf("lines = %q", sink.lines)
	}
}
