package term

import (
	"bytes"
	"errors"
	"image/color"
	"io"
	"strings"
	"testing"
	"time"

	"nucleus/hal"
	"nucleus/kernel/keyboard"
)

type testFB struct {
	w, h     int
	buf      []byte
	presents int
}

func newTestFB(w, h int) *testFB { return &testFB{w: w, h: h, buf: make([]byte, w*h*2)} }

func (f *testFB) Width() int              { return f.w }
func (f *testFB) Height() int             { return f.h }
func (f *testFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *testFB) StrideBytes() int        { return f.w * 2 }
func (f *testFB) Buffer() []byte          { return f.buf }
func (f *testFB) Present() error          { f.presents++; return nil }
func (f *testFB) ClearRGB(r, g, b uint8) {
	for i := range f.buf {
		f.buf[i] = 0
	}
}

func (f *testFB) pixel(x, y int) uint16 {
	off := y*f.w*2 + x*2
	return uint16(f.buf[off]) | uint16(f.buf[off+1])<<8
}

type testDisplay struct{ fb hal.Framebuffer }

func (d testDisplay) Framebuffer() hal.Framebuffer { return d.fb }

type lineSink struct{ lines []string }

func (s *lineSink) WriteLineString(line string) { s.lines = append(s.lines, line) }
func (s *lineSink) WriteLineBytes(b []byte)     { s.lines = append(s.lines, string(b)) }

type recordingHandler struct{ lines []string }

func (h *recordingHandler) Execute(line string, out io.Writer) error {
	h.lines = append(h.lines, line)
	if line == "fail" {
		return errors.New("fail: command failed")
	}
	_, err := io.WriteString(out, "ran "+line+"\n")
	return err
}

func typeText(s *Screen, text string) {
	for _, r := range text {
		s.HandleKey(keyboard.DecodedKey{Rune: r})
	}
}

func TestScreenLineEditing(t *testing.T) {
	fb := newTestFB(320, 120)
	h := &recordingHandler{}
	s := New(testDisplay{fb}, Config{Name: "nucleus", Version: "test", Handler: h})
	if !s.Graphical() {
		t.Fatalf("Graphical() = false with a framebuffer")
	}

	typeText(s, "ls -l")
	if got := s.Input(); got != "ls -l" {
		t.Fatalf("Input() = %q, want %q", got, "ls -l")
	}
	s.HandleKey(keyboard.DecodedKey{Rune: 0x08})
	s.HandleKey(keyboard.DecodedKey{Code: keyboard.KeyLeft})
	s.HandleKey(keyboard.DecodedKey{Rune: 0x1B})
	if got := s.Input(); got != "ls -" {
		t.Fatalf("Input() after backspace = %q, want %q", got, "ls -")
	}

	s.HandleKey(keyboard.DecodedKey{Rune: '\n'})
	if len(h.lines) != 1 || h.lines[0] != "ls -" {
		t.Fatalf("handler got %q, want [\"ls -\"]", h.lines)
	}
	if got := s.Input(); got != "" {
		t.Fatalf("Input() after enter = %q, want empty", got)
	}
	if fb.presents == 0 {
		t.Fatalf("framebuffer never presented")
	}

	// Blank lines are echoed but not executed.
	typeText(s, "   \n")
	if len(h.lines) != 1 {
		t.Fatalf("handler ran for a blank line: %q", h.lines)
	}
}

func TestScreenDrawsHeader(t *testing.T) {
	fb := newTestFB(320, 120)
	s := New(testDisplay{fb}, Config{Name: "nucleus"})
	s.SetUptime(90*time.Second + 400*time.Millisecond)
	s.Flush()

	if got := s.Uptime(); got != 90*time.Second {
		t.Fatalf("Uptime() = %v, want 1m30s", got)
	}
	bg := hal.RGB565(headerBG)
	if got := fb.pixel(fb.w-1, 0); got != bg {
		t.Fatalf("header pixel = %#x, want %#x", got, bg)
	}
}

func TestScreenSerialFallback(t *testing.T) {
	sink := &lineSink{}
	h := &recordingHandler{}
	s := New(nil, Config{Serial: sink, Handler: h})
	if s.Graphical() {
		t.Fatalf("Graphical() = true without a framebuffer")
	}

	typeText(s, "echo\nfail\n")
	want := []string{"> echo", "ran echo", "> fail", "fail: command failed"}
	if strings.Join(sink.lines, "|") != strings.Join(want, "|") {
		t.Fatalf("serial lines = %q, want %q", sink.lines, want)
	}

	// Output without a newline is held back.
	io.WriteString(s, "partial")
	if len(sink.lines) != len(want) {
		t.Fatalf("unterminated output written early")
	}
}

func TestScreenTinyFramebufferFallsBack(t *testing.T) {
	s := New(testDisplay{newTestFB(64, 12)}, Config{})
	if s.Graphical() {
		t.Fatalf("Graphical() = true on a framebuffer with no room for output")
	}
}

func TestScrollBufferRotates(t *testing.T) {
	fb := newTestFB(4, 6)
	region := newFBRegion(fb, 2, 4)
	sb := newScrollBuffer(region)
	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	sb.SetPixel(0, 0, white)
	sb.SetScroll(1)
	_ = sb.Display()

	// Memory row 0 is now the last visible row of the region.
	if fb.pixel(0, 5) != 0xFFFF {
		t.Fatalf("pixel(0,5) = %#x, want 0xffff", fb.pixel(0, 5))
	}
	if fb.pixel(0, 2) != 0 {
		t.Fatalf("pixel(0,2) = %#x, want 0", fb.pixel(0, 2))
	}

	sb.SetScroll(-1)
	if sb.scroll != 3 {
		t.Fatalf("SetScroll(-1) scroll = %d, want 3", sb.scroll)
	}
}

func TestFBRegionClips(t *testing.T) {
	fb := newTestFB(4, 6)
	region := newFBRegion(fb, 2, 2)
	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	region.SetPixel(1, 0, white)
	region.SetPixel(1, 2, white)
	_ = region.FillRectangle(-5, 1, 100, 100, white)

	if fb.pixel(1, 2) != 0xFFFF {
		t.Fatalf("pixel(1,2) = %#x, want 0xffff", fb.pixel(1, 2))
	}
	for x := 0; x < 4; x++ {
		if fb.pixel(x, 3) != 0xFFFF {
			t.Fatalf("pixel(%d,3) = %#x, want 0xffff", x, fb.pixel(x, 3))
		}
		if fb.pixel(x, 4) != 0 {
			t.Fatalf("pixel(%d,4) = %#x written outside region", x, fb.pixel(x, 4))
		}
	}
}

func TestFormatUptime(t *testing.T) {
	if got := formatUptime(3723 * time.Second); got != "01:02:03" {
		t.Fatalf("formatUptime() = %q, want 01:02:03", got)
	}
}

func TestScreenWriteGraphical(t *testing.T) {
	fb := newTestFB(320, 120)
	s := New(testDisplay{fb}, Config{})
	before := fb.presents

	var buf bytes.Buffer
	buf.WriteString("hello\nworld\n")
	if _, err := s.Write(buf.Bytes()); err != nil {
		t.Fatalf("Write() err = %v", err)
	}
	s.Flush()
	if fb.presents != before+1 {
		t.Fatalf("presents = %d, want %d", fb.presents, before+1)
	}
	s.Flush()
	if fb.presents != before+1 {
		t.Fatalf("Flush() presented without changes")
	}
}
