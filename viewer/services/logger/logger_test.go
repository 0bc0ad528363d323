package logger

import (
	"strings"
	"sync"
	"testing"

	logclient "github.com/leroidangleterre/Mandelbrot/viewer/client/logger"
	"github.com/leroidangleterre/Mandelbrot/viewer/kernel"
	"github.com/leroidangleterre/Mandelbrot/viewer/proto"
)

type memLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *memLogger) WriteLineString(s string) { l.WriteLineBytes([]byte(s)) }

func (l *memLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, string(b))
}

func TestServiceWritesLogLines(t *testing.T) {
	k := kernel.New()
	ep := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	out := &memLogger{}
	k.AddTask(New(out, ep.Restrict(kernel.RightRecv)))

	long := strings.Repeat("x", kernel.MaxMessageBytes+10)
	k.AddTask(kernel.TaskFunc(func(ctx *kernel.Context) {
		send := ep.Restrict(kernel.RightSend)
		logclient.Log(ctx, send, "hello")
		ctx.SendTo(send, uint16(proto.MsgKey), []byte("ignored"))
		logclient.Logf(ctx, send, "pass %d done", 3)
		logclient.Log(ctx, send, long)
		k.CloseEndpoint(ep)
	}))
	k.Wait()

	want := []string{"hello", "pass 3 done", long[:kernel.MaxMessageBytes]}
	if len(out.lines) != len(want) {
		t.Fatalf("expected %d lines, got %q", len(want), out.lines)
	}
	for i := range want {
		if out.lines[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, out.lines[i], want[i])
		}
	}
}

func TestLogNilContext(t *testing.T) {
	if res := logclient.Log(nil, kernel.Capability{}, "x"); res != kernel.SendErrInvalidFromCap {
		t.Fatalf("expected SendErrInvalidFromCap, got %s", res)
	}
}
