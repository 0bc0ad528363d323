// Package input forwards HAL keyboard, pointer and resize events to the task
// that owns the view.
package input

import (
	"github.com/leroidangleterre/Mandelbrot/hal"
	"github.com/leroidangleterre/Mandelbrot/viewer/kernel"
	"github.com/leroidangleterre/Mandelbrot/viewer/proto"
)

// retryTicks bounds how long a press, release or resize waits for room in the
// receiver's queue. Pointer moves are never retried: the receiver tracks
// absolute positions, so a dropped move loses nothing.
const retryTicks = 500

type Service struct {
	kbd     <-chan hal.KeyEvent
	ptr     <-chan hal.PointerEvent
	resizes <-chan hal.ResizeEvent
	out     kernel.Capability
	done    <-chan struct{}
}

// New returns a service reading from in and display and sending to out. Run
// returns when done is closed.
func New(in hal.Input, display hal.Display, out kernel.Capability, done <-chan struct{}) *Service {
	s := &Service{out: out, done: done}
	if in != nil {
		if k := in.Keyboard(); k != nil {
			s.kbd = k.Events()
		}
		if p := in.Pointer(); p != nil {
			s.ptr = p.Events()
		}
	}
	if display != nil {
		s.resizes = display.Resizes()
	}
	return s
}

func (s *Service) Run(ctx *kernel.Context) {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.kbd:
			s.send(ctx, proto.MsgKey, proto.KeyPayload(uint16(ev.Code), ev.Press, ev.Rune), true)
		case ev := <-s.ptr:
			p := proto.Pointer{
				Action:  proto.PointerAction(ev.Action),
				Buttons: uint8(ev.Buttons),
				X:       ev.X,
				Y:       ev.Y,
				Wheel:   ev.WheelY,
			}
			s.send(ctx, proto.MsgPointer, proto.PointerPayload(p), ev.Action != hal.PointerMove)
		case ev := <-s.resizes:
			s.send(ctx, proto.MsgResize, proto.ResizePayload(uint32(ev.Width), uint32(ev.Height)), true)
		}
	}
}

func (s *Service) send(ctx *kernel.Context, kind proto.Kind, payload []byte, retry bool) {
	limit := 0
	if retry {
		limit = retryTicks
	}
	ctx.SendToCapRetry(s.out, uint16(kind), payload, kernel.Capability{}, limit)
}
