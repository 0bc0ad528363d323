package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Default framebuffer size of the window and headless backends.
const (
	DefaultWidth  = 1000
	DefaultHeight = 1000
)

type hostHAL struct {
	logger  *hostLogger
	fb      *hostFramebuffer
	kbd     *hostKeyboard
	ptr     *hostPointer
	t       *hostTime
	resizes chan ResizeEvent
}

// New returns a host HAL implementation logging to stdout.
func New() HAL {
	return newHost(os.Stdout, DefaultWidth, DefaultHeight)
}

func newHost(logw io.Writer, w, h int) *hostHAL {
	return &hostHAL{
		logger:  &hostLogger{w: logw},
		fb:      newHostFramebuffer(w, h),
		kbd:     newHostKeyboard(),
		ptr:     newHostPointer(),
		t:       newHostTime(),
		resizes: make(chan ResizeEvent, 8),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Display() Display { return hostDisplay{h: h} }
func (h *hostHAL) Input() Input     { return hostInput{kbd: h.kbd, ptr: h.ptr} }
func (h *hostHAL) Time() Time       { return h.t }

// resize changes the framebuffer size and notifies the application. The newest
// size wins when the application lags behind.
func (h *hostHAL) resize(w, ht int) {
	if w <= 0 || ht <= 0 || (w == h.fb.Width() && ht == h.fb.Height()) {
		return
	}
	h.fb.resize(w, ht)
	ev := ResizeEvent{Width: w, Height: ht}
	for {
		select {
		case h.resizes <- ev:
			return
		default:
		}
		select {
		case <-h.resizes:
		default:
		}
	}
}

type hostDisplay struct {
	h *hostHAL
}

func (d hostDisplay) Framebuffer() Framebuffer     { return d.h.fb }
func (d hostDisplay) Resizes() <-chan ResizeEvent { return d.h.resizes }

type hostInput struct {
	kbd *hostKeyboard
	ptr *hostPointer
}

func (in hostInput) Keyboard() Keyboard { return in.kbd }
func (in hostInput) Pointer() Pointer   { return in.ptr }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

// redirect swaps the log sink and returns the previous one.
func (l *hostLogger) redirect(w io.Writer) io.Writer {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := l.w
	l.w = w
	return prev
}

type hostKeyboard struct {
	ch chan KeyEvent
}

func newHostKeyboard() *hostKeyboard {
	return &hostKeyboard{ch: make(chan KeyEvent, 64)}
}

func (k *hostKeyboard) Events() <-chan KeyEvent { return k.ch }

func (k *hostKeyboard) emit(ev KeyEvent) {
	select {
	case k.ch <- ev:
	default:
	}
}

type hostPointer struct {
	ch chan PointerEvent
}

func newHostPointer() *hostPointer {
	return &hostPointer{ch: make(chan PointerEvent, 128)}
}

func (p *hostPointer) Events() <-chan PointerEvent { return p.ch }

func (p *hostPointer) emit(ev PointerEvent) {
	select {
	case p.ch <- ev:
	default:
	}
}
