package proto

import (
	"encoding/binary"
	"math"
)

// KeyPayload encodes a MsgKey payload.
//
// Layout:
//   - u16: key code
//   - u8:  1 = press, 0 = release
//   - u8:  reserved
//   - i32: rune (0 when the key has no text)
func KeyPayload(code uint16, press bool, r rune) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint16(buf[0:2], code)
	if press {
		buf[2] = 1
	}
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r))
	return buf
}

// DecodeKeyPayload decodes a KeyPayload.
func DecodeKeyPayload(b []byte) (code uint16, press bool, r rune, ok bool) {
	if len(b) < 8 {
		return 0, false, 0, false
	}
	code = binary.LittleEndian.Uint16(b[0:2])
	press = b[2] != 0
	r = rune(int32(binary.LittleEndian.Uint32(b[4:8])))
	return code, press, r, true
}

// PointerAction is the kind of pointer event.
type PointerAction uint8

const (
	PointerMove PointerAction = iota
	PointerPress
	PointerRelease
	PointerWheel
)

// Pointer is a decoded MsgPointer payload. Positions are surface pixels;
// Wheel is the vertical scroll amount (positive = away from the user).
type Pointer struct {
	Action  PointerAction
	Buttons uint8
	X, Y    float64
	Wheel   float64
}

// PointerPayload encodes a MsgPointer payload.
//
// Layout:
//   - u8:  action
//   - u8:  button mask
//   - u16: reserved
//   - f64: x
//   - f64: y
//   - f64: wheel
func PointerPayload(p Pointer) []byte {
	buf := make([]byte, 28)
	buf[0] = byte(p.Action)
	buf[1] = p.Buttons
	binary.LittleEndian.PutUint64(buf[4:12], math.Float64bits(p.X))
	binary.LittleEndian.PutUint64(buf[12:20], math.Float64bits(p.Y))
	binary.LittleEndian.PutUint64(buf[20:28], math.Float64bits(p.Wheel))
	return buf
}

// DecodePointerPayload decodes a PointerPayload.
func DecodePointerPayload(b []byte) (Pointer, bool) {
	if len(b) < 28 {
		return Pointer{}, false
	}
	return Pointer{
		Action:  PointerAction(b[0]),
		Buttons: b[1],
		X:       math.Float64frombits(binary.LittleEndian.Uint64(b[4:12])),
		Y:       math.Float64frombits(binary.LittleEndian.Uint64(b[12:20])),
		Wheel:   math.Float64frombits(binary.LittleEndian.Uint64(b[20:28])),
	}, true
}

// ResizePayload encodes a MsgResize payload.
//
// Layout:
//   - u32: width
//   - u32: height
func ResizePayload(w, h uint32) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], w)
	binary.LittleEndian.PutUint32(buf[4:8], h)
	return buf
}

// DecodeResizePayload decodes a ResizePayload.
func DecodeResizePayload(b []byte) (w, h uint32, ok bool) {
	if len(b) < 8 {
		return 0, 0, false
	}
	return binary.LittleEndian.Uint32(b[0:4]), binary.LittleEndian.Uint32(b[4:8]), true
}
