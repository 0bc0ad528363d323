package explorer

import (
	"github.com/leroidangleterre/Mandelbrot/fractal/escape"
	"github.com/leroidangleterre/Mandelbrot/fractal/ramp"
	"github.com/leroidangleterre/Mandelbrot/hal"
	"github.com/leroidangleterre/Mandelbrot/viewer/bookmarks"
	"github.com/leroidangleterre/Mandelbrot/viewer/kernel"
	"github.com/leroidangleterre/Mandelbrot/viewer/proto"
)

const (
	wheelFactor = 1.1
	keyFactor   = 1.5
	// arrowDivisor is the fraction of the surface an arrow key pans by.
	arrowDivisor = 10

	minIterations = 2
	maxIterations = 1 << 20
)

// handle applies one input message and reports whether the user asked to quit.
func (t *Task) handle(msg kernel.Message) bool {
	switch proto.Kind(msg.Kind) {
	case proto.MsgKey:
		code, press, r, ok := proto.DecodeKeyPayload(msg.Payload())
		if !ok || !press {
			return false
		}
		return t.handleKey(hal.KeyCode(code), r)

	case proto.MsgPointer:
		p, ok := proto.DecodePointerPayload(msg.Payload())
		if ok {
			t.handlePointer(p)
		}

	case proto.MsgResize:
		w, h, ok := proto.DecodeResizePayload(msg.Payload())
		if ok && w > 0 && h > 0 {
			t.ctl.OnResize(int(w), int(h))
			t.touch()
		}

	case proto.MsgAppShutdown:
		return true
	}
	return false
}

func (t *Task) handleKey(code hal.KeyCode, r rune) bool {
	w, h := t.ctl.Size()
	stepX := float64(max(w/arrowDivisor, 1))
	stepY := float64(max(h/arrowDivisor, 1))
	cx, cy := float64(w)/2, float64(h)/2

	switch code {
	case hal.KeyEscape:
		return true
	case hal.KeyLeft:
		t.ctl.OnPan(stepX, 0)
	case hal.KeyRight:
		t.ctl.OnPan(-stepX, 0)
	case hal.KeyUp:
		t.ctl.OnPan(0, stepY)
	case hal.KeyDown:
		t.ctl.OnPan(0, -stepY)
	case hal.KeyHome:
		t.resetView()
	case hal.KeyUnknown:
		return t.handleRune(r, cx, cy)
	default:
		return false
	}
	t.touch()
	return false
}

func (t *Task) handleRune(r rune, cx, cy float64) bool {
	switch r {
	case 'q', 'Q':
		return true
	case '+', '=':
		t.zoom(keyFactor, cx, cy)
	case '-', '_':
		t.zoom(1/keyFactor, cx, cy)
	case 'v', 'V':
		t.cycleVariant()
	case ']':
		t.setIterations(uint64(t.ctl.Params().MaxIterations) * 2)
	case '[':
		t.setIterations(uint64(t.ctl.Params().MaxIterations) / 2)
	case 'r', 'R':
		t.resetView()
	case 'h', 'H':
		t.showHUD = !t.showHUD
		if !t.showHUD {
			t.ctl.Reset()
		}
	case 'c', 'C':
		t.showCon = !t.showCon
		if !t.showCon {
			t.ctl.Reset()
		}
	case 'p', 'P':
		t.ctl.ClearProbe()
		t.ctl.Reset()
	case 'b', 'B':
		t.saveBookmark()
	default:
		if r >= '1' && r <= '9' {
			t.loadBookmark(int(r - '0'))
		}
	}
	t.touch()
	return false
}

func (t *Task) handlePointer(p proto.Pointer) {
	btn := hal.PointerButton(p.Buttons)
	panBtns := hal.ButtonLeft | hal.ButtonMiddle

	switch p.Action {
	case proto.PointerPress:
		switch {
		case btn&panBtns != 0:
			t.drag.active = true
			t.drag.x, t.drag.y = p.X, p.Y
		case btn&hal.ButtonRight != 0:
			probe := t.ctl.OnProbe(p.X, p.Y)
			t.logf("%s", probe)
			t.touch()
		}

	case proto.PointerRelease:
		if btn&panBtns != 0 {
			t.drag.active = false
		}

	case proto.PointerMove:
		if !t.drag.active {
			return
		}
		if btn&panBtns == 0 {
			// The release was lost.
			t.drag.active = false
			return
		}
		dx, dy := p.X-t.drag.x, p.Y-t.drag.y
		t.drag.x, t.drag.y = p.X, p.Y
		if dx != 0 || dy != 0 {
			t.ctl.OnPan(dx, dy)
			t.touch()
		}

	case proto.PointerWheel:
		switch {
		case p.Wheel > 0:
			t.zoom(wheelFactor, p.X, p.Y)
		case p.Wheel < 0:
			t.zoom(1/wheelFactor, p.X, p.Y)
		}
	}
}

func (t *Task) zoom(factor, px, py float64) {
	if err := t.ctl.OnZoom(factor, px, py); err != nil {
		t.logf("zoom: %v", err)
		return
	}
	t.touch()
}

func (t *Task) resetView() {
	t.ctl.ResetView()
	t.logf("view: home")
}

// rampFor returns the ramp to use for p: the fixed one if configured, otherwise
// the stock ramp scaled to the iteration cap.
func (t *Task) rampFor(p escape.Params) *ramp.Ramp {
	if t.fixedRamp != nil {
		return t.fixedRamp
	}
	return ramp.Default(p.MaxIterations)
}

func (t *Task) setParams(p escape.Params) bool {
	if err := t.ctl.SetParams(p, t.rampFor(p)); err != nil {
		t.logf("params: %v", err)
		return false
	}
	return true
}

func (t *Task) cycleVariant() {
	p := escape.DefaultParams(t.ctl.Params().Variant.Next())
	if t.setParams(p) {
		t.ctl.ResetView()
		t.logf("variant: %s", p.Variant)
	}
}

func (t *Task) setIterations(n uint64) {
	p := t.ctl.Params()
	if p.Variant.Banded() || p.Variant == escape.Tetration {
		t.logf("iterations: fixed for %s", p.Variant)
		return
	}
	n = min(max(n, minIterations), maxIterations)
	if uint32(n) == p.MaxIterations {
		return
	}
	p.MaxIterations = uint32(n)
	if t.setParams(p) {
		t.logf("iterations: %d", n)
	}
}

func (t *Task) saveBookmark() {
	if t.store == nil {
		t.logf("bookmarks: no store")
		return
	}
	w, h := t.ctl.Size()
	p := t.ctl.Params()
	cx, cy := t.ctl.Center()
	name := p.Variant.String() + " " + formatPoint(cx, cy)
	id, err := t.store.Save(bookmarks.FromView(name, p, t.ctl.Transform(), w, h))
	if err != nil {
		t.logf("bookmarks: %v", err)
		return
	}
	t.logf("bookmarks: saved #%d %s", id, name)
}

// loadBookmark opens the n-th bookmark (1-based) in list order.
func (t *Task) loadBookmark(n int) {
	if t.store == nil {
		t.logf("bookmarks: no store")
		return
	}
	list, err := t.store.List()
	if err != nil {
		t.logf("bookmarks: %v", err)
		return
	}
	if n < 1 || n > len(list) {
		t.logf("bookmarks: no bookmark %d (have %d)", n, len(list))
		return
	}
	b := list[n-1]
	w, h := t.ctl.Size()
	tr, err := b.Transform(w, h)
	if err != nil {
		t.logf("bookmarks: %v", err)
		return
	}
	if !t.setParams(b.Params()) {
		return
	}
	if err := t.ctl.SetView(tr); err != nil {
		t.logf("bookmarks: %v", err)
		return
	}
	t.logf("bookmarks: %s", b.Name)
}
