//go:build cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var windowKeys = []struct {
	key  ebiten.Key
	code KeyCode
}{
	{ebiten.KeyArrowUp, KeyUp},
	{ebiten.KeyArrowDown, KeyDown},
	{ebiten.KeyArrowLeft, KeyLeft},
	{ebiten.KeyArrowRight, KeyRight},
	{ebiten.KeyEnter, KeyEnter},
	{ebiten.KeyEscape, KeyEscape},
	{ebiten.KeyBackspace, KeyBackspace},
	{ebiten.KeyTab, KeyTab},
	{ebiten.KeyDelete, KeyDelete},
	{ebiten.KeyHome, KeyHome},
	{ebiten.KeyEnd, KeyEnd},
	{ebiten.KeyPageUp, KeyPageUp},
	{ebiten.KeyPageDown, KeyPageDown},
	{ebiten.KeyF1, KeyF1},
	{ebiten.KeyF2, KeyF2},
	{ebiten.KeyF3, KeyF3},
}

var windowButtons = []struct {
	btn ebiten.MouseButton
	bit PointerButton
}{
	{ebiten.MouseButtonLeft, ButtonLeft},
	{ebiten.MouseButtonRight, ButtonRight},
	{ebiten.MouseButtonMiddle, ButtonMiddle},
}

// windowInput polls ebiten once per Update and turns state changes into events.
type windowInput struct {
	kbd *hostKeyboard
	ptr *hostPointer

	lastX, lastY int
	chars        []rune
}

func newWindowInput(kbd *hostKeyboard, ptr *hostPointer) *windowInput {
	return &windowInput{kbd: kbd, ptr: ptr, lastX: -1, lastY: -1}
}

func (in *windowInput) poll() {
	in.pollKeys()
	in.pollPointer()
}

func (in *windowInput) pollKeys() {
	in.chars = ebiten.AppendInputChars(in.chars[:0])
	for _, r := range in.chars {
		in.kbd.emit(KeyEvent{Press: true, Rune: r})
	}

	// Letter keys arrive as text above; only navigation keys are mapped here.
	for _, k := range windowKeys {
		if inpututil.IsKeyJustPressed(k.key) {
			in.kbd.emit(KeyEvent{Code: k.code, Press: true})
		}
		if inpututil.IsKeyJustReleased(k.key) {
			in.kbd.emit(KeyEvent{Code: k.code, Press: false})
		}
	}
}

func (in *windowInput) pollPointer() {
	x, y := ebiten.CursorPosition()
	fx, fy := float64(x), float64(y)

	var held PointerButton
	for _, b := range windowButtons {
		if ebiten.IsMouseButtonPressed(b.btn) {
			held |= b.bit
		}
		if inpututil.IsMouseButtonJustPressed(b.btn) {
			in.ptr.emit(PointerEvent{Action: PointerPress, Buttons: b.bit, X: fx, Y: fy})
		}
		if inpututil.IsMouseButtonJustReleased(b.btn) {
			in.ptr.emit(PointerEvent{Action: PointerRelease, Buttons: b.bit, X: fx, Y: fy})
		}
	}

	if x != in.lastX || y != in.lastY {
		in.lastX, in.lastY = x, y
		in.ptr.emit(PointerEvent{Action: PointerMove, Buttons: held, X: fx, Y: fy})
	}

	if _, wy := ebiten.Wheel(); wy != 0 {
		in.ptr.emit(PointerEvent{Action: PointerWheel, Buttons: held, X: fx, Y: fy, WheelY: wy})
	}
}
