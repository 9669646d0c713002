package term

import (
	"image/color"

	"nucleus/hal"

	"tinygo.org/x/drivers"
)

// fbRegion draws into a horizontal band of an RGB565 framebuffer, rows
// [y0, y0+h).
type fbRegion struct {
	fb hal.Framebuffer
	y0 int
	h  int
}

func newFBRegion(fb hal.Framebuffer, y0, h int) *fbRegion {
	if fb != nil && y0+h > fb.Height() {
		h = fb.Height() - y0
	}
	if h < 0 {
		h = 0
	}
	return &fbRegion{fb: fb, y0: y0, h: h}
}

func (d *fbRegion) usable() bool {
	return d.fb != nil && d.fb.Format() == hal.PixelFormatRGB565 && d.fb.Buffer() != nil
}

func (d *fbRegion) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.h)
}

func (d *fbRegion) SetPixel(x, y int16, c color.RGBA) {
	if !d.usable() {
		return
	}
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.h {
		return
	}
	hal.PutRGB565(d.fb.Buffer(), (d.y0+iy)*d.fb.StrideBytes()+ix*2, hal.RGB565(c))
}

func (d *fbRegion) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

func (d *fbRegion) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if !d.usable() {
		return nil
	}
	x0 := clampInt(int(x), 0, d.fb.Width())
	y0 := clampInt(int(y), 0, d.h)
	x1 := clampInt(int(x)+int(width), 0, d.fb.Width())
	y1 := clampInt(int(y)+int(height), 0, d.h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	buf := d.fb.Buffer()
	pixel := hal.RGB565(c)
	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		row := (d.y0 + py) * stride
		for px := x0; px < x1; px++ {
			hal.PutRGB565(buf, row+px*2, pixel)
		}
	}
	return nil
}

func (d *fbRegion) SetScroll(line int16) {}

func (d *fbRegion) SetRotation(rotation drivers.Rotation) error { return nil }

// scrollBuffer is an off-screen RGB565 surface with display-controller
// style vertical scrolling: after SetScroll(n), memory row n is shown at
// the top of the target region. The terminal body draws here and Display
// blits the rotated image into the framebuffer.
type scrollBuffer struct {
	w, h   int
	buf    []byte
	scroll int
	target *fbRegion
}

func newScrollBuffer(target *fbRegion) *scrollBuffer {
	w, h := target.Size()
	return &scrollBuffer{
		w:      int(w),
		h:      int(h),
		buf:    make([]byte, int(w)*int(h)*2),
		target: target,
	}
}

func (s *scrollBuffer) Size() (x, y int16) { return int16(s.w), int16(s.h) }

func (s *scrollBuffer) SetPixel(x, y int16, c color.RGBA) {
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= s.w || iy < 0 || iy >= s.h {
		return
	}
	hal.PutRGB565(s.buf, (iy*s.w+ix)*2, hal.RGB565(c))
}

func (s *scrollBuffer) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	x0 := clampInt(int(x), 0, s.w)
	y0 := clampInt(int(y), 0, s.h)
	x1 := clampInt(int(x)+int(width), 0, s.w)
	y1 := clampInt(int(y)+int(height), 0, s.h)
	pixel := hal.RGB565(c)
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			hal.PutRGB565(s.buf, (py*s.w+px)*2, pixel)
		}
	}
	return nil
}

func (s *scrollBuffer) SetScroll(line int16) {
	if s.h == 0 {
		return
	}
	n := int(line) % s.h
	if n < 0 {
		n += s.h
	}
	s.scroll = n
}

func (s *scrollBuffer) SetRotation(rotation drivers.Rotation) error { return nil }

// Display copies the rotated surface into the target region. It does not
// present the framebuffer.
func (s *scrollBuffer) Display() error {
	if !s.target.usable() || s.h == 0 {
		return nil
	}
	fb := s.target.fb
	dst := fb.Buffer()
	stride := fb.StrideBytes()
	rowBytes := s.w * 2
	if rowBytes > stride {
		rowBytes = stride
	}
	for y := 0; y < s.h; y++ {
		src := ((y + s.scroll) % s.h) * s.w * 2
		off := (s.target.y0 + y) * stride
		if off+rowBytes > len(dst) {
			break
		}
		copy(dst[off:off+rowBytes], s.buf[src:src+rowBytes])
	}
	return nil
}

func (s *scrollBuffer) clear() {
	for i := range s.buf {
		s.buf[i] = 0
	}
	s.scroll = 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
