package explorer

import (
	"strings"

	"github.com/leroidangleterre/Mandelbrot/hal"

	"tinygo.org/x/tinyterm"
)

// consoleRows is the number of text rows of the console panel.
const consoleRows = 8

// console keeps the most recent log lines and paints them into a panel at the
// bottom of the framebuffer. The panel is rebuilt on every draw so the terminal
// never has to scroll.
type console struct {
	lines []string
	max   int
}

func newConsole(rows int) *console {
	return &console{max: rows}
}

func (c *console) add(line string) {
	c.lines = append(c.lines, line)
	if over := len(c.lines) - c.max; over > 0 {
		c.lines = append(c.lines[:0], c.lines[over:]...)
	}
}

func (c *console) draw(fb hal.Framebuffer, m fontMetrics) {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	fw, fh := fb.Width(), fb.Height()
	h := min(c.max*int(m.height), fh)
	if h <= 0 || fw <= 0 {
		return
	}
	d := newPanel(fb, 0, fh-h, fw, h)
	d.clear(colorPanel)

	t := tinyterm.NewTerminal(d)
	t.Configure(&tinyterm.Config{
		Font:       m.font,
		FontHeight: m.height,
		FontOffset: m.offset,
	})

	rows := h / int(m.height)
	// One spare column keeps the terminal from wrapping before the line break.
	cols := fw/int(m.width) - 1
	lines := c.lines
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = clipRunes(l, cols)
	}
	_, _ = t.Write([]byte(strings.Join(out, "\r\n")))
}

func clipRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
