package explorer

import (
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leroidangleterre/Mandelbrot/fractal/controller"
	"github.com/leroidangleterre/Mandelbrot/fractal/escape"
	"github.com/leroidangleterre/Mandelbrot/fractal/progressive"
	"github.com/leroidangleterre/Mandelbrot/fractal/ramp"
	"github.com/leroidangleterre/Mandelbrot/fractal/view"
	"github.com/leroidangleterre/Mandelbrot/hal"
	"github.com/leroidangleterre/Mandelbrot/viewer/bookmarks"
	"github.com/leroidangleterre/Mandelbrot/viewer/kernel"
	"github.com/leroidangleterre/Mandelbrot/viewer/proto"
)

type memFB struct {
	w, h  int
	pix   []color.RGBA
	fills int
}

func newMemFB(w, h int) *memFB {
	return &memFB{w: w, h: h, pix: make([]color.RGBA, w*h)}
}

func (f *memFB) Width() int              { return f.w }
func (f *memFB) Height() int             { return f.h }
func (f *memFB) Format() hal.PixelFormat { return hal.PixelFormatRGB565 }
func (f *memFB) StrideBytes() int        { return f.w * 2 }
func (f *memFB) Buffer() []byte          { return nil }
func (f *memFB) Present() error          { return nil }

func (f *memFB) ClearRGB(r, g, b uint8) {
	f.FillRectRGB(0, 0, f.w, f.h, r, g, b)
}

func (f *memFB) FillRectRGB(x, y, w, h int, r, g, b uint8) {
	f.fills++
	for py := max(y, 0); py < min(y+h, f.h); py++ {
		for px := max(x, 0); px < min(x+w, f.w); px++ {
			f.pix[py*f.w+px] = color.RGBA{R: r, G: g, B: b, A: 0xFF}
		}
	}
}

type memDisplay struct {
	fb *memFB
}

func (d memDisplay) Framebuffer() hal.Framebuffer     { return d.fb }
func (d memDisplay) Resizes() <-chan hal.ResizeEvent { return nil }

// frozenRenderer never runs out of budget.
func frozenRenderer() *progressive.Renderer {
	at := time.Unix(0, 0)
	return progressive.NewWithClock(func() time.Time { return at })
}

func newTask(t *testing.T, w, h int, cfg Config) (*Task, *memFB, *[]string) {
	t.Helper()
	fb := newMemFB(w, h)
	if cfg.Params == (escape.Params{}) {
		cfg.Params = escape.DefaultParams(escape.Mandelbrot)
	}
	task, err := New(memDisplay{fb: fb}, frozenRenderer(), kernel.Capability{}, kernel.Capability{}, kernel.Capability{}, cfg)
	require.NoError(t, err)
	var logs []string
	task.sink = func(line string) { logs = append(logs, line) }
	return task, fb, &logs
}

func msgOf(kind proto.Kind, payload []byte) kernel.Message {
	m := kernel.Message{Kind: uint16(kind), Len: uint16(len(payload))}
	copy(m.Data[:], payload)
	return m
}

func key(r rune) kernel.Message {
	return msgOf(proto.MsgKey, proto.KeyPayload(0, true, r))
}

func keyCode(c hal.KeyCode) kernel.Message {
	return msgOf(proto.MsgKey, proto.KeyPayload(uint16(c), true, 0))
}

func pointer(a proto.PointerAction, b hal.PointerButton, x, y, wheel float64) kernel.Message {
	return msgOf(proto.MsgPointer, proto.PointerPayload(proto.Pointer{Action: a, Buttons: uint8(b), X: x, Y: y, Wheel: wheel}))
}

func hasLog(logs []string, prefix string) bool {
	for _, l := range logs {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

func TestNewRequiresFramebuffer(t *testing.T) {
	_, err := New(nil, nil, kernel.Capability{}, kernel.Capability{}, kernel.Capability{}, Config{})
	assert.ErrorIs(t, err, hal.ErrNotImplemented)
}

func centered(t *testing.T, zoom float64, w, h int) view.Transform {
	t.Helper()
	tr, err := view.CenteredAt(0, 0, zoom, w, h)
	require.NoError(t, err)
	return tr
}

func TestPaintCompletesAndGoesIdle(t *testing.T) {
	task, fb, logs := newTask(t, 40, 40, Config{View: centered(t, 10, 40, 40), HideHUD: true})

	task.paint(100)
	require.True(t, task.ctl.Progress().Done)
	assert.Equal(t, 2, task.ctl.Progress().Passes)
	assert.Contains(t, *logs, "render: pass 1 done, chunk 2")
	assert.Contains(t, *logs, "render: pass 2 done, chunk 1")
	assert.True(t, hasLog(*logs, "render: complete after 2 passes"))

	// The origin is in the set: black at the default ramp's cap.
	assert.Equal(t, color.RGBA{A: 0xFF}, fb.pix[20*40+20])

	fills := fb.fills
	task.paint(200)
	assert.Equal(t, fills, fb.fills, "a finished image is not repainted")

	task.handle(keyCode(hal.KeyLeft))
	task.paint(300)
	assert.Greater(t, fb.fills, fills)
}

func TestArrowKeysPan(t *testing.T) {
	task, _, _ := newTask(t, 200, 100, Config{})
	before := task.ctl.Transform()

	assert.False(t, task.handle(keyCode(hal.KeyLeft)))
	assert.InDelta(t, before.PanX+20, task.ctl.Transform().PanX, 1e-9)

	assert.False(t, task.handle(keyCode(hal.KeyUp)))
	// Screen Y is inverted: dragging down 10 px lowers PanY by 10.
	assert.InDelta(t, before.PanY-10, task.ctl.Transform().PanY, 1e-9)
	assert.Equal(t, progressive.StateUnset, task.ctl.Progress().State())
}

func TestZoomKeysKeepCenter(t *testing.T) {
	task, _, _ := newTask(t, 200, 100, Config{})
	cx, cy := task.ctl.Center()
	z := task.ctl.Transform().Zoom

	task.handle(key('+'))
	assert.InDelta(t, z*keyFactor, task.ctl.Transform().Zoom, 1e-9)
	nx, ny := task.ctl.Center()
	assert.InDelta(t, cx, nx, 1e-9)
	assert.InDelta(t, cy, ny, 1e-9)

	task.handle(key('-'))
	assert.InDelta(t, z, task.ctl.Transform().Zoom, 1e-9)
}

func TestQuitKeys(t *testing.T) {
	task, _, _ := newTask(t, 20, 20, Config{})
	assert.True(t, task.handle(key('q')))
	assert.True(t, task.handle(keyCode(hal.KeyEscape)))
	assert.True(t, task.handle(msgOf(proto.MsgAppShutdown, nil)))

	release := msgOf(proto.MsgKey, proto.KeyPayload(0, false, 'q'))
	assert.False(t, task.handle(release), "key releases are ignored")
}

func TestVariantCycleGoesHome(t *testing.T) {
	task, _, logs := newTask(t, 100, 100, Config{})

	task.handle(key('v'))
	p := task.ctl.Params()
	assert.Equal(t, escape.Tetration, p.Variant)
	assert.Equal(t, escape.DefaultParams(escape.Tetration), p)
	assert.Equal(t, controller.Home(escape.Tetration, 100, 100), task.ctl.Transform())
	assert.Contains(t, *logs, "variant: tetration")
}

func TestIterationKeys(t *testing.T) {
	task, _, _ := newTask(t, 50, 50, Config{})

	task.handle(key(']'))
	assert.Equal(t, uint32(1000), task.ctl.Params().MaxIterations)
	// The stock ramp follows the cap.
	assert.Equal(t, ramp.Default(1000).Stops(), task.ctl.Ramp().Stops())

	task.handle(key('['))
	task.handle(key('['))
	assert.Equal(t, uint32(250), task.ctl.Params().MaxIterations)

	for range 20 {
		task.handle(key('['))
	}
	assert.Equal(t, uint32(minIterations), task.ctl.Params().MaxIterations)
}

func TestIterationKeysKeepFixedRamp(t *testing.T) {
	fixed := ramp.New(ramp.Stop{Threshold: 0, Color: color.RGBA{B: 0xFF, A: 0xFF}}, ramp.Stop{Threshold: 10, Color: color.RGBA{A: 0xFF}})
	task, _, _ := newTask(t, 50, 50, Config{Ramp: fixed})

	task.handle(key(']'))
	assert.Same(t, fixed, task.ctl.Ramp())
}

func TestIterationsFixedForBandedVariants(t *testing.T) {
	task, _, logs := newTask(t, 50, 50, Config{Params: escape.DefaultParams(escape.Flat)})
	task.handle(key(']'))
	assert.Equal(t, escape.DefaultParams(escape.Flat), task.ctl.Params())
	assert.Contains(t, *logs, "iterations: fixed for flat")
}

func TestDragPans(t *testing.T) {
	task, _, _ := newTask(t, 100, 100, Config{})
	before := task.ctl.Transform()

	task.handle(pointer(proto.PointerPress, hal.ButtonLeft, 10, 10, 0))
	task.handle(pointer(proto.PointerMove, hal.ButtonLeft, 15, 12, 0))
	task.handle(pointer(proto.PointerMove, hal.ButtonLeft, 20, 20, 0))
	task.handle(pointer(proto.PointerRelease, hal.ButtonLeft, 20, 20, 0))
	task.handle(pointer(proto.PointerMove, 0, 50, 50, 0))

	after := task.ctl.Transform()
	assert.InDelta(t, before.PanX+10, after.PanX, 1e-9)
	assert.InDelta(t, before.PanY-10, after.PanY, 1e-9)
}

func TestMiddleDragPans(t *testing.T) {
	task, _, _ := newTask(t, 100, 100, Config{})
	before := task.ctl.Transform()

	task.handle(pointer(proto.PointerPress, hal.ButtonMiddle, 0, 0, 0))
	task.handle(pointer(proto.PointerMove, hal.ButtonMiddle, -5, 0, 0))
	assert.InDelta(t, before.PanX-5, task.ctl.Transform().PanX, 1e-9)
}

func TestWheelZoomsAtCursor(t *testing.T) {
	task, _, _ := newTask(t, 100, 100, Config{})
	wx, wy := task.ctl.Transform().ToWorld(30, 70, 100)
	z := task.ctl.Transform().Zoom

	task.handle(pointer(proto.PointerWheel, 0, 30, 70, 1))
	assert.InDelta(t, z*wheelFactor, task.ctl.Transform().Zoom, 1e-9)
	nx, ny := task.ctl.Transform().ToWorld(30, 70, 100)
	assert.InDelta(t, wx, nx, 1e-12)
	assert.InDelta(t, wy, ny, 1e-12)

	task.handle(pointer(proto.PointerWheel, 0, 30, 70, -1))
	assert.InDelta(t, z, task.ctl.Transform().Zoom, 1e-9)
}

func TestRightClickProbes(t *testing.T) {
	task, fb, logs := newTask(t, 100, 100, Config{View: centered(t, 20, 100, 100), HideHUD: true})
	sx, sy := task.ctl.Transform().ToScreen(0, 0, 100)

	task.handle(pointer(proto.PointerPress, hal.ButtonRight, sx, sy, 0))
	probe, ok := task.ctl.LastProbe()
	require.True(t, ok)
	assert.Equal(t, uint32(500), probe.Count)
	assert.True(t, hasLog(*logs, "probe "))

	task.paint(100)
	assert.Equal(t, colorProbe, fb.pix[int(sy)*100+int(sx)+3])

	task.handle(key('p'))
	_, ok = task.ctl.LastProbe()
	assert.False(t, ok)
}

func TestResizeMessage(t *testing.T) {
	task, _, _ := newTask(t, 100, 100, Config{})
	task.handle(msgOf(proto.MsgResize, proto.ResizePayload(320, 200)))
	w, h := task.ctl.Size()
	assert.Equal(t, 320, w)
	assert.Equal(t, 200, h)

	task.handle(msgOf(proto.MsgResize, proto.ResizePayload(0, 200)))
	w, _ = task.ctl.Size()
	assert.Equal(t, 320, w)
}

func TestBookmarksSaveAndLoad(t *testing.T) {
	store, err := bookmarks.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	task, _, logs := newTask(t, 100, 100, Config{Bookmarks: store})
	task.handle(key('+'))
	saved := task.ctl.Transform()
	task.handle(key('b'))
	assert.True(t, hasLog(*logs, "bookmarks: saved #1 mandelbrot"))

	task.handle(key('r'))
	assert.NotEqual(t, saved, task.ctl.Transform())

	task.handle(key('1'))
	got := task.ctl.Transform()
	assert.InDelta(t, saved.PanX, got.PanX, 1e-9)
	assert.InDelta(t, saved.PanY, got.PanY, 1e-9)
	assert.InDelta(t, saved.Zoom, got.Zoom, 1e-9)

	task.handle(key('7'))
	assert.Contains(t, *logs, "bookmarks: no bookmark 7 (have 1)")
}

func TestBookmarksWithoutStore(t *testing.T) {
	task, _, logs := newTask(t, 50, 50, Config{})
	task.handle(key('b'))
	task.handle(key('3'))
	assert.Equal(t, 2, strings.Count(strings.Join(*logs, "\n"), "bookmarks: no store"))
}

func TestHUDToggleRepaints(t *testing.T) {
	task, _, _ := newTask(t, 200, 200, Config{})
	task.paint(100)
	require.True(t, task.ctl.Progress().Done)

	task.handle(key('h'))
	assert.False(t, task.showHUD)
	assert.Equal(t, progressive.StateUnset, task.ctl.Progress().State())

	task.paint(200)
	task.handle(key('h'))
	assert.True(t, task.showHUD)
	assert.True(t, task.ctl.Progress().Done, "showing the HUD only redraws the overlay")
	assert.False(t, task.overlayOK)
}

func TestConsoleKeepsLastLines(t *testing.T) {
	c := newConsole(3)
	for _, l := range []string{"a", "b", "c", "d"} {
		c.add(l)
	}
	assert.Equal(t, []string{"b", "c", "d"}, c.lines)
}

func TestConsoleDrawsPanel(t *testing.T) {
	fb := newMemFB(200, 200)
	c := newConsole(consoleRows)
	c.add("render: pass 1 done, chunk 10")
	m := loadFont()
	require.Greater(t, m.height, int16(0))
	c.draw(fb, m)

	top := fb.h - consoleRows*int(m.height)
	assert.Equal(t, colorPanel, fb.pix[(fb.h-1)*fb.w+fb.w-1])
	assert.NotEqual(t, colorPanel, fb.pix[(top-1)*fb.w])
}

func TestHUDLines(t *testing.T) {
	task, _, _ := newTask(t, 100, 100, Config{})
	lines := hudLines(task.ctl)
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "mandelbrot  iter 500", lines[0])
	assert.Equal(t, "unset", lines[4])
}
