package explorer

import (
	"image/color"

	"github.com/leroidangleterre/Mandelbrot/hal"

	"tinygo.org/x/drivers"
)

// fbSurface lets the progressive renderer paint straight into the framebuffer.
type fbSurface struct {
	fb hal.Framebuffer
}

func (s fbSurface) FillRect(x, y, w, h int, c color.RGBA) {
	s.fb.FillRectRGB(x, y, w, h, c.R, c.G, c.B)
}

func (s fbSurface) ClipSize() (w, h int) {
	return s.fb.Width(), s.fb.Height()
}

// panelDisplay is a drivers.Displayer over a rectangle of the framebuffer, so
// tinyfont and tinyterm can draw overlays without knowing where they sit.
type panelDisplay struct {
	fb   hal.Framebuffer
	x, y int
	w, h int
}

func newPanel(fb hal.Framebuffer, x, y, w, h int) *panelDisplay {
	return &panelDisplay{fb: fb, x: x, y: y, w: max(w, 0), h: max(h, 0)}
}

func (d *panelDisplay) Size() (x, y int16) {
	return int16(min(d.w, 1<<15-1)), int16(min(d.h, 1<<15-1))
}

func (d *panelDisplay) SetPixel(x, y int16, c color.RGBA) {
	ix, iy := int(x), int(y)
	if ix < 0 || iy < 0 || ix >= d.w || iy >= d.h {
		return
	}
	d.fb.FillRectRGB(d.x+ix, d.y+iy, 1, 1, c.R, c.G, c.B)
}

func (d *panelDisplay) Display() error {
	return d.fb.Present()
}

func (d *panelDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	x0, y0 := max(int(x), 0), max(int(y), 0)
	x1, y1 := min(int(x)+int(width), d.w), min(int(y)+int(height), d.h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}
	d.fb.FillRectRGB(d.x+x0, d.y+y0, x1-x0, y1-y0, c.R, c.G, c.B)
	return nil
}

// SetScroll is a no-op: the console never holds more lines than fit.
func (d *panelDisplay) SetScroll(line int16) {
	_ = line
}

func (d *panelDisplay) SetRotation(rotation drivers.Rotation) error {
	_ = rotation
	return nil
}

func (d *panelDisplay) clear(c color.RGBA) {
	_ = d.FillRectangle(0, 0, int16(min(d.w, 1<<15-1)), int16(min(d.h, 1<<15-1)), c)
}
