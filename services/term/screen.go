// Package term is the kernel console: a header line, a scrolling output
// area and an editable input line on the framebuffer, or plain lines on the
// serial logger when there is no framebuffer.
package term

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"strings"
	"time"
	"unicode"

	"nucleus/hal"
	"nucleus/kernel/keyboard"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

const (
	fontHeight = 10
	fontOffset = 7

	headerPad = 2

	DefaultPrompt = "> "
)

var (
	headerBG = color.RGBA{R: 0x1F, G: 0x3A, B: 0x6E, A: 0xFF}
	headerFG = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	inputBG  = color.RGBA{A: 0xFF}
	inputFG  = color.RGBA{R: 0xC0, G: 0xFF, B: 0xC0, A: 0xFF}
)

// CommandHandler executes a completed input line, writing its output to out.
type CommandHandler interface {
	Execute(line string, out io.Writer) error
}

// CommandHandlerFunc adapts a function to the CommandHandler interface.
type CommandHandlerFunc func(line string, out io.Writer) error

func (f CommandHandlerFunc) Execute(line string, out io.Writer) error { return f(line, out) }

// Config describes the console.
type Config struct {
	Name    string
	Version string
	Prompt  string
	Handler CommandHandler

	// Serial receives output lines when no framebuffer is available.
	Serial hal.Logger
}

// Screen is driven from executor tasks only; it is not safe for use from
// interrupt context.
type Screen struct {
	cfg Config
	fb  hal.Framebuffer

	font      *tinyfont.Font
	fontWidth int16
	cols      int

	header *fbRegion
	input  *fbRegion
	body   *scrollBuffer
	term   *tinyterm.Terminal

	line    []rune
	pending []byte // serial output not yet terminated by a newline
	uptime  time.Duration
	dirty   bool
}

// New creates the console on disp's framebuffer, falling back to cfg.Serial
// when disp has none or it is too small to lay out.
func New(disp hal.Display, cfg Config) *Screen {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	s := &Screen{cfg: cfg, font: &proggy.TinySZ8pt7b}
	_, w := tinyfont.LineWidth(s.font, "0")
	s.fontWidth = int16(w)

	if disp != nil {
		s.fb = disp.Framebuffer()
	}
	if s.fb != nil && s.fb.Format() == hal.PixelFormatRGB565 && s.fontWidth > 0 {
		headerH := fontHeight + headerPad
		bodyH := (s.fb.Height() - headerH - fontHeight) / fontHeight * fontHeight
		if bodyH >= fontHeight {
			s.cols = s.fb.Width() / int(s.fontWidth)
			s.header = newFBRegion(s.fb, 0, headerH)
			s.body = newScrollBuffer(newFBRegion(s.fb, headerH, bodyH))
			s.input = newFBRegion(s.fb, headerH+bodyH, fontHeight)
		} else {
			s.fb = nil
		}
	} else {
		s.fb = nil
	}
	s.Clear()
	return s
}

// Graphical reports whether the console draws to a framebuffer.
func (s *Screen) Graphical() bool { return s.fb != nil }

// Clear empties the output area.
func (s *Screen) Clear() {
	if s.fb == nil {
		s.pending = s.pending[:0]
		return
	}
	s.fb.ClearRGB(0, 0, 0)
	s.body.clear()
	s.term = tinyterm.NewTerminal(s.body)
	s.term.Configure(&tinyterm.Config{
		Font:       s.font,
		FontHeight: fontHeight,
		FontOffset: fontOffset,
	})
	s.drawHeader()
	s.drawInput()
	s.dirty = true
}

// Write appends output text. Lines are terminated by '\n'.
func (s *Screen) Write(p []byte) (int, error) {
	if s.fb == nil {
		s.pending = append(s.pending, p...)
		for {
			i := bytes.IndexByte(s.pending, '\n')
			if i < 0 {
				break
			}
			if s.cfg.Serial != nil {
				s.cfg.Serial.WriteLineBytes(s.pending[:i])
			}
			s.pending = s.pending[i+1:]
		}
		return len(p), nil
	}
	n, err := s.term.Write(p)
	s.dirty = true
	return n, err
}

// HandleKey edits the input line. Enter submits it to the command handler.
func (s *Screen) HandleKey(key keyboard.DecodedKey) {
	if !key.IsRune() {
		return
	}
	switch r := key.Rune; r {
	case '\n':
		s.submit()
	case 0x08:
		if len(s.line) > 0 {
			s.line = s.line[:len(s.line)-1]
		}
	default:
		if !unicode.IsPrint(r) || r > unicode.MaxASCII {
			return
		}
		if s.cols > 0 && len(s.cfg.Prompt)+len(s.line)+1 >= s.cols {
			return
		}
		s.line = append(s.line, r)
	}
	s.drawInput()
	s.Flush()
}

// Input returns the line being edited.
func (s *Screen) Input() string { return string(s.line) }

func (s *Screen) submit() {
	line := string(s.line)
	s.line = s.line[:0]
	fmt.Fprintf(s, "%s%s\n", s.cfg.Prompt, line)
	if strings.TrimSpace(line) == "" || s.cfg.Handler == nil {
		return
	}
	if err := s.cfg.Handler.Execute(line, s); err != nil {
		fmt.Fprintf(s, "%v\n", err)
	}
}

// SetUptime updates the clock shown in the header.
func (s *Screen) SetUptime(d time.Duration) {
	s.uptime = d.Truncate(time.Second)
	s.drawHeader()
}

// Uptime returns the last clock value set.
func (s *Screen) Uptime() time.Duration { return s.uptime }

// Flush pushes pending drawing to the framebuffer.
func (s *Screen) Flush() {
	if s.fb == nil || !s.dirty {
		return
	}
	_ = s.body.Display()
	_ = s.fb.Present()
	s.dirty = false
}

func (s *Screen) drawHeader() {
	if s.fb == nil {
		return
	}
	w, h := s.header.Size()
	_ = s.header.FillRectangle(0, 0, w, h, headerBG)

	title := strings.TrimSpace(s.cfg.Name + " " + s.cfg.Version)
	tinyfont.WriteLine(s.header, s.font, 2, fontOffset+1, title, headerFG)

	clock := "up " + formatUptime(s.uptime)
	_, cw := tinyfont.LineWidth(s.font, clock)
	tinyfont.WriteLine(s.header, s.font, w-int16(cw)-2, fontOffset+1, clock, headerFG)
	s.dirty = true
}

func (s *Screen) drawInput() {
	if s.fb == nil {
		return
	}
	w, h := s.input.Size()
	_ = s.input.FillRectangle(0, 0, w, h, inputBG)
	tinyfont.WriteLine(s.input, s.font, 0, fontOffset, s.cfg.Prompt+string(s.line)+"_", inputFG)
	s.dirty = true
}

func formatUptime(d time.Duration) string {
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}
