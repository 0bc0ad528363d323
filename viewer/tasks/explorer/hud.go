package explorer

import (
	"fmt"
	"image/color"

	"github.com/leroidangleterre/Mandelbrot/fractal/controller"
	"github.com/leroidangleterre/Mandelbrot/fractal/progressive"
	"github.com/leroidangleterre/Mandelbrot/hal"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	colorPanel = color.RGBA{R: 0x10, G: 0x10, B: 0x18, A: 0xFF}
	colorText  = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	colorDim   = color.RGBA{R: 0x90, G: 0x90, B: 0xA0, A: 0xFF}
	colorOrbit = color.RGBA{R: 0xFF, G: 0xD7, B: 0x00, A: 0xFF}
	colorProbe = color.RGBA{R: 0xFF, G: 0x30, B: 0x30, A: 0xFF}
)

const hudPad = 4

// fontMetrics holds the cell size of the overlay font.
type fontMetrics struct {
	font   *tinyfont.Font
	width  int16
	height int16
	// offset is the baseline distance from the top of a cell.
	offset int16
}

func loadFont() fontMetrics {
	f := &proggy.TinySZ8pt7b
	m := fontMetrics{font: f, height: int16(f.GetYAdvance())}
	_, outboxWidth := tinyfont.LineWidth(f, "0")
	m.width = int16(outboxWidth)
	m.offset = -int16(f.GetGlyph('M').Info().YOffset)
	if m.offset <= 0 || m.offset > m.height {
		m.offset = m.height * 3 / 4
	}
	return m
}

// hudLines describes the current view.
func hudLines(c *controller.Controller) []string {
	p := c.Params()
	cx, cy := c.Center()
	pr := c.Progress()

	state := pr.State().String()
	if pr.State() == progressive.StateScanning {
		state = fmt.Sprintf("chunk %d  pass %d  row %d", pr.ChunkSize, pr.Passes+1, pr.ResumeRow)
	}
	lines := []string{
		fmt.Sprintf("%s  iter %d", p.Variant, p.MaxIterations),
		fmt.Sprintf("x %.10g", cx),
		fmt.Sprintf("y %.10g", cy),
		fmt.Sprintf("zoom %.6g", c.Transform().Zoom),
		state,
	}
	if probe, ok := c.LastProbe(); ok {
		lines = append(lines, fmt.Sprintf("probe %d  orbit %d", probe.Count, len(probe.Orbit)))
	}
	return lines
}

// drawHUD paints lines in a box at the top-left corner.
func drawHUD(fb hal.Framebuffer, m fontMetrics, lines []string) {
	if m.width <= 0 || m.height <= 0 || len(lines) == 0 {
		return
	}
	cols := 0
	for _, l := range lines {
		cols = max(cols, len([]rune(l)))
	}
	w := cols*int(m.width) + 2*hudPad
	h := len(lines)*int(m.height) + 2*hudPad
	d := newPanel(fb, 0, 0, min(w, fb.Width()), min(h, fb.Height()))
	d.clear(colorPanel)

	for i, l := range lines {
		c := colorText
		if i > 0 {
			c = colorDim
		}
		y := int16(hudPad) + int16(i)*m.height + m.offset
		tinyfont.WriteLine(d, m.font, hudPad, y, l, c)
	}
}

// drawProbe marks the probed point and its orbit.
func drawProbe(fb hal.Framebuffer, c *controller.Controller) {
	probe, ok := c.LastProbe()
	if !ok {
		return
	}
	w, h := c.Size()
	tr := c.Transform()
	for _, pt := range probe.Orbit {
		sx, sy := tr.ToScreen(pt.X, pt.Y, h)
		if sx < -1 || sy < -1 || sx > float64(w) || sy > float64(h) {
			continue
		}
		fb.FillRectRGB(int(sx)-1, int(sy)-1, 3, 3, colorOrbit.R, colorOrbit.G, colorOrbit.B)
	}
	// The view may have moved since the probe.
	sx, sy := tr.ToScreen(probe.X, probe.Y, h)
	if sx < -8 || sy < -8 || sx > float64(w+8) || sy > float64(h+8) {
		return
	}
	x, y := int(sx), int(sy)
	fb.FillRectRGB(x-4, y, 9, 1, colorProbe.R, colorProbe.G, colorProbe.B)
	fb.FillRectRGB(x, y-4, 1, 9, colorProbe.R, colorProbe.G, colorProbe.B)
}

func formatPoint(x, y float64) string {
	return fmt.Sprintf("%.8g,%.8g", x, y)
}
