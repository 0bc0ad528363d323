// Package explorer is the interactive fractal viewer task. It owns the view
// controller, repaints the framebuffer on a fixed tick period and turns input
// messages into view changes.
package explorer

import (
	"fmt"

	"github.com/leroidangleterre/Mandelbrot/fractal/controller"
	"github.com/leroidangleterre/Mandelbrot/fractal/escape"
	"github.com/leroidangleterre/Mandelbrot/fractal/progressive"
	"github.com/leroidangleterre/Mandelbrot/fractal/ramp"
	"github.com/leroidangleterre/Mandelbrot/fractal/view"
	"github.com/leroidangleterre/Mandelbrot/hal"
	logclient "github.com/leroidangleterre/Mandelbrot/viewer/client/logger"
	"github.com/leroidangleterre/Mandelbrot/viewer/bookmarks"
	"github.com/leroidangleterre/Mandelbrot/viewer/kernel"
	"github.com/leroidangleterre/Mandelbrot/viewer/proto"
)

// DefaultPeriodTicks is the repaint period in kernel ticks (milliseconds).
const DefaultPeriodTicks = 100

type Config struct {
	Params escape.Params
	// Ramp is a fixed color ramp. When nil the stock ramp follows the
	// iteration cap.
	Ramp    *ramp.Ramp
	Checker ramp.Checker
	// View overrides the variant's home view when valid.
	View        view.Transform
	PeriodTicks uint64
	HideHUD     bool
	// Bookmarks may be nil.
	Bookmarks *bookmarks.Store
}

type Task struct {
	disp   hal.Display
	ep     kernel.Capability
	logCap kernel.Capability
	appCap kernel.Capability

	fb      hal.Framebuffer
	ctl     *controller.Controller
	font    fontMetrics
	console *console

	fixedRamp *ramp.Ramp
	period    uint64
	showHUD   bool
	showCon   bool
	store     *bookmarks.Store

	lastPaint  uint64
	cycleStart uint64
	lastPasses int
	overlayOK  bool

	drag struct {
		active bool
		x, y   float64
	}

	// sink forwards log lines; set by Run.
	sink func(line string)
}

// New returns the explorer task. ep receives input messages; log lines go to
// logCap and a MsgAppShutdown is sent to appCap when the user quits.
func New(disp hal.Display, r *progressive.Renderer, ep, logCap, appCap kernel.Capability, cfg Config) (*Task, error) {
	if disp == nil || disp.Framebuffer() == nil {
		return nil, hal.ErrNotImplemented
	}
	fb := disp.Framebuffer()

	rmp := cfg.Ramp
	if rmp == nil {
		rmp = ramp.Default(cfg.Params.MaxIterations)
	}
	ctl, err := controller.New(r, controller.Config{
		Params:  cfg.Params,
		Ramp:    rmp,
		Checker: cfg.Checker,
		View:    cfg.View,
		Width:   fb.Width(),
		Height:  fb.Height(),
	})
	if err != nil {
		return nil, err
	}

	period := cfg.PeriodTicks
	if period == 0 {
		period = DefaultPeriodTicks
	}
	return &Task{
		disp:      disp,
		ep:        ep,
		logCap:    logCap,
		appCap:    appCap,
		fb:        fb,
		ctl:       ctl,
		font:      loadFont(),
		console:   newConsole(consoleRows),
		fixedRamp: cfg.Ramp,
		period:    period,
		showHUD:   !cfg.HideHUD,
		store:     cfg.Bookmarks,
	}, nil
}

func (t *Task) Run(ctx *kernel.Context) {
	ch, ok := ctx.RecvChan(t.ep)
	if !ok {
		return
	}
	t.sink = func(line string) {
		logclient.Log(ctx, t.logCap, line)
	}
	w, h := t.ctl.Size()
	t.logf("explorer: %s %dx%d", t.ctl.Params().Variant, w, h)

	ticks := ctx.TickChan()
	for {
		select {
		case now := <-ticks:
			if now-t.lastPaint < t.period {
				continue
			}
			t.lastPaint = now
			t.paint(now)

		case msg, ok := <-ch:
			if !ok {
				return
			}
			if t.handle(msg) {
				t.logf("explorer: shutdown")
				ctx.SendToCapRetry(t.appCap, uint16(proto.MsgAppShutdown), nil, kernel.Capability{}, 100)
				return
			}
		}
	}
}

// paint advances the render cycle and redraws the overlays on top of it. Once
// the image is complete and the overlays are up to date nothing is drawn.
func (t *Task) paint(now uint64) {
	before := t.ctl.Progress()
	if before.Done && t.overlayOK {
		return
	}
	if before.State() == progressive.StateUnset {
		t.cycleStart = now
		t.lastPasses = 0
	}

	after := t.ctl.Frame(fbSurface{fb: t.fb})
	_, h := t.ctl.Size()
	initial := t.ctl.Renderer().InitialChunk(h)
	for p := t.lastPasses; p < after.Passes; p++ {
		t.logf("render: pass %d done, chunk %d", p+1, initial>>p)
	}
	if after.Done && !before.Done {
		t.logf("render: complete after %d passes in %d ms", after.Passes, now-t.cycleStart)
	}
	t.lastPasses = after.Passes

	t.drawOverlays()
	t.overlayOK = after.Done
}

func (t *Task) drawOverlays() {
	drawProbe(t.fb, t.ctl)
	if t.showHUD {
		drawHUD(t.fb, t.font, hudLines(t.ctl))
	}
	if t.showCon {
		t.console.draw(t.fb, t.font)
	}
	_ = t.fb.Present()
}

// touch marks the view as changed; the next paint starts a fresh cycle.
func (t *Task) touch() {
	t.overlayOK = false
}

func (t *Task) logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	t.console.add(line)
	if t.sink != nil {
		t.sink(line)
	}
}
