// Package klog is the kernel's leveled logger. It writes "[LEVEL] message"
// lines to a hal.Logger sink, keeps a ring of recent entries and fans
// entries out to listeners. Logging never blocks on other loggers, so it is
// safe from interrupt handlers.
package klog

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"nucleus/hal"
)

// DefaultHistory is the number of entries retained when none is configured.
const DefaultHistory = 512

// Level orders log severities.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int32(l))
	}
}

// ParseLevel accepts level names case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO", "":
		return LevelInfo, nil
	case "WARNING", "WARN":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("klog: unknown level %q", s)
}

// Entry is one retained log record.
type Entry struct {
	Level   Level
	Message string
}

func (e Entry) String() string { return "[" + e.Level.String() + "] " + e.Message }

// Listener observes every entry at or above the logger's level.
type Listener interface {
	OnLog(Entry)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Entry)

func (f ListenerFunc) OnLog(e Entry) { f(e) }

// Logger is safe for concurrent use.
type Logger struct {
	sink    hal.Logger
	min     atomic.Int32
	history []atomic.Pointer[record]
	written atomic.Uint64

	mu        sync.Mutex // serializes AddListener
	listeners atomic.Pointer[[]Listener]
}

// New creates a logger writing to sink. A nil sink keeps history and
// listeners only.
func New(sink hal.Logger, level Level, history int) *Logger {
	if history <= 0 {
		history = DefaultHistory
	}
	l := &Logger{sink: sink, history: make([]atomic.Pointer[record], history)}
	l.min.Store(int32(level))
	return l
}

// SetLevel changes the minimum level.
func (l *Logger) SetLevel(level Level) { l.min.Store(int32(level)) }

// Level returns the minimum level.
func (l *Logger) Level() Level { return Level(l.min.Load()) }

// AddListener registers ln. Listeners are never removed.
func (l *Logger) AddListener(ln Listener) {
	if ln == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	var next []Listener
	if cur := l.listeners.Load(); cur != nil {
		next = append(next, (*cur)...)
	}
	next = append(next, ln)
	l.listeners.Store(&next)
}

// History returns the retained entries, oldest first. Entries overwritten
// while the snapshot is taken are left out.
func (l *Logger) History() []Entry {
	n := uint64(len(l.history))
	for attempt := 0; ; attempt++ {
		end := l.written.Load()
		start := uint64(0)
		if end > n {
			start = end - n
		}
		out := make([]Entry, 0, end-start)
		for seq := start; seq < end; seq++ {
			if r := l.history[seq%n].Load(); r != nil && r.seq == seq {
				out = append(out, r.Entry)
			}
		}
		// A writer lapping the whole ring mid-snapshot leaves nothing; retry.
		if len(out) > 0 || end == 0 || attempt == 3 {
			return out
		}
	}
}

func (l *Logger) Debugf(format string, args ...any)   { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)    { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warningf(format string, args ...any) { l.logf(LevelWarning, format, args...) }
func (l *Logger) Errorf(format string, args ...any)   { l.logf(LevelError, format, args...) }

func (l *Logger) logf(level Level, format string, args ...any) {
	if l == nil || level < l.Level() {
		return
	}
	e := Entry{Level: level, Message: fmt.Sprintf(format, args...)}
	if l.sink != nil {
		l.sink.WriteLineString(e.String())
	}
	l.retain(e)
	if ls := l.listeners.Load(); ls != nil {
		for _, ln := range *ls {
			ln.OnLog(e)
		}
	}
}

// record is a history slot. seq tells a snapshot whether the slot still
// holds the entry it expects.
type record struct {
	Entry
	seq uint64
}

// retain stores e over the oldest entry.
func (l *Logger) retain(e Entry) {
	seq := l.written.Add(1) - 1
	l.history[seq%uint64(len(l.history))].Store(&record{Entry: e, seq: seq})
}

var std atomic.Pointer[Logger]

// SetDefault installs the process-wide logger.
func SetDefault(l *Logger) { std.Store(l) }

// Default returns the process-wide logger, or nil if none is installed.
// A nil *Logger discards everything.
func Default() *Logger { return std.Load() }

func Debugf(format string, args ...any)   { Default().Debugf(format, args...) }
func Infof(format string, args ...any)    { Default().Infof(format, args...) }
func Warningf(format string, args ...any) { Default().Warningf(format, args...) }
func Errorf(format string, args ...any)   { Default().Errorf(format, args...) }
