// Package app assembles the viewer: kernel, logger and input services and the
// explorer task, all on top of one HAL.
package app

import (
	"fmt"

	"github.com/leroidangleterre/Mandelbrot/config"
	"github.com/leroidangleterre/Mandelbrot/fractal/progressive"
	"github.com/leroidangleterre/Mandelbrot/fractal/ramp"
	"github.com/leroidangleterre/Mandelbrot/hal"
	"github.com/leroidangleterre/Mandelbrot/viewer/bookmarks"
	"github.com/leroidangleterre/Mandelbrot/viewer/kernel"
	"github.com/leroidangleterre/Mandelbrot/viewer/proto"
	"github.com/leroidangleterre/Mandelbrot/viewer/services/input"
	"github.com/leroidangleterre/Mandelbrot/viewer/services/logger"
	"github.com/leroidangleterre/Mandelbrot/viewer/tasks/explorer"
)

type system struct {
	k    *kernel.Kernel
	done chan struct{}
}

type Config struct {
	Settings config.Config
	// Bookmarks may be nil.
	Bookmarks *bookmarks.Store
}

// New starts the viewer on h and returns the step function the backend calls
// once per frame. The step function reports hal.ErrQuit after the user quits,
// or the setup error if the viewer could not start.
func New(h hal.HAL, cfg Config) func() error {
	installPanicHandler(h)
	s, err := newSystem(h, cfg)
	if err != nil {
		return func() error { return err }
	}
	return s.step
}

func (s *system) step() error {
	select {
	case <-s.done:
		return hal.ErrQuit
	default:
		return nil
	}
}

func newSystem(h hal.HAL, cfg Config) (*system, error) {
	st := cfg.Settings
	params, err := st.Params()
	if err != nil {
		return nil, err
	}
	rmp, err := st.ColorRamp()
	if err != nil {
		return nil, err
	}
	disp := h.Display()
	if disp == nil || disp.Framebuffer() == nil {
		return nil, fmt.Errorf("app: %w: display", hal.ErrNotImplemented)
	}
	fb := disp.Framebuffer()
	tr, err := st.Transform(fb.Width(), fb.Height())
	if err != nil {
		return nil, err
	}

	r := progressive.New()
	r.Budget = st.Budget()
	r.Divisions = st.Render.Divisions

	k := kernel.New()

	logEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	inputEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	appEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	ex, err := explorer.New(disp, r,
		inputEP.Restrict(kernel.RightRecv),
		logEP.Restrict(kernel.RightSend),
		appEP.Restrict(kernel.RightSend),
		explorer.Config{
			Params:      params,
			Ramp:        rmp,
			Checker:     ramp.DefaultChecker(),
			View:        tr,
			PeriodTicks: uint64(st.Render.PeriodMS),
			Bookmarks:   cfg.Bookmarks,
		})
	if err != nil {
		return nil, err
	}

	s := &system{k: k, done: make(chan struct{})}

	k.AddTask(logger.New(h.Logger(), logEP.Restrict(kernel.RightRecv)))
	k.AddTask(input.New(h.Input(), disp, inputEP.Restrict(kernel.RightSend), s.done))
	k.AddTask(ex)
	k.AddTask(kernel.TaskFunc(func(ctx *kernel.Context) {
		s.supervise(ctx, appEP.Restrict(kernel.RightRecv))
	}))

	if ht := h.Time(); ht != nil {
		if ch := ht.Ticks(); ch != nil {
			go func() {
				for seq := range ch {
					k.TickTo(seq)
				}
			}()
		}
	}

	return s, nil
}

// supervise waits for the shutdown request and stops the input service.
func (s *system) supervise(ctx *kernel.Context, ep kernel.Capability) {
	for {
		msg, ok := ctx.Recv(ep)
		if !ok {
			return
		}
		if proto.Kind(msg.Kind) == proto.MsgAppShutdown {
			close(s.done)
			return
		}
	}
}
