package logger

import (
	"github.com/leroidangleterre/Mandelbrot/hal"
	"github.com/leroidangleterre/Mandelbrot/viewer/kernel"
	"github.com/leroidangleterre/Mandelbrot/viewer/proto"
)

// Service drains log lines from its endpoint into the HAL logger. It returns
// once the endpoint is closed.
type Service struct {
	log hal.Logger
	ep  kernel.Capability
}

func New(log hal.Logger, ep kernel.Capability) *Service {
	return &Service{log: log, ep: ep}
}

func (s *Service) Run(ctx *kernel.Context) {
	for {
		msg, ok := ctx.Recv(s.ep)
		if !ok {
			return
		}
		if s.log == nil || msg.Kind != uint16(proto.MsgLogLine) {
			continue
		}
		s.log.WriteLineBytes(msg.Payload())
	}
}
