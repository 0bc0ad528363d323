// Package hal is the only contact point between the viewer and the outside world:
// a log sink, a framebuffer, input devices and a tick source. Each backend
// (window, terminal, browser stream, headless) provides the same HAL.
package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// ErrQuit is returned by an application step function to stop its backend cleanly.
var ErrQuit = errors.New("quit")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a pixel buffer plus a "present" hook.
//
// Backends read it from their own goroutine, so writers go through ClearRGB and
// FillRectRGB, which lock; Buffer is for single-goroutine callers only.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	FillRectRGB(x, y, w, h int, r, g, b uint8)
	Present() error
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeyBackspace
	KeyTab
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyF1
	KeyF2
	KeyF3
)

// KeyEvent is a keyboard event. Text keys carry their rune with KeyUnknown.
type KeyEvent struct {
	Code  KeyCode
	Press bool
	Rune  rune
}

// Keyboard provides key events (best-effort on each platform).
type Keyboard interface {
	Events() <-chan KeyEvent
}

// PointerButton is a bit in PointerEvent.Buttons.
type PointerButton uint8

const (
	ButtonLeft PointerButton = 1 << iota
	ButtonRight
	ButtonMiddle
)

// PointerAction is what a pointer event reports.
type PointerAction uint8

const (
	PointerMove PointerAction = iota
	PointerPress
	PointerRelease
	PointerWheel
)

// PointerEvent is a mouse event in framebuffer pixels. Buttons holds the buttons
// down after the event, except on Press and Release where it holds the button
// that changed. WheelY is positive when scrolling away from the user.
type PointerEvent struct {
	Action  PointerAction
	Buttons PointerButton
	X, Y    float64
	WheelY  float64
}

// Pointer provides mouse events.
type Pointer interface {
	Events() <-chan PointerEvent
}

// ResizeEvent reports a new framebuffer size.
type ResizeEvent struct {
	Width, Height int
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
	// Resizes reports framebuffer size changes made by the backend.
	Resizes() <-chan ResizeEvent
}

// Input provides access to input devices (if available).
type Input interface {
	Keyboard() Keyboard
	Pointer() Pointer
}

// Time provides a base tick stream.
//
// Host backends tick once per elapsed millisecond; higher-level timers live in tasks.
type Time interface {
	Ticks() <-chan uint64
}

// HAL provides the only contact point between the viewer and the outside world.
type HAL interface {
	Logger() Logger
	Display() Display
	Input() Input
	Time() Time
}
