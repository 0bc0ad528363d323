package proto

import "testing"

func TestKeyPayload(t *testing.T) {
	code, press, r, ok := DecodeKeyPayload(KeyPayload(3, true, 'é'))
	if !ok || code != 3 || !press || r != 'é' {
		t.Fatalf("unexpected decode: code=%d press=%v rune=%q ok=%v", code, press, r, ok)
	}
	if _, _, _, ok := DecodeKeyPayload([]byte{1, 2}); ok {
		t.Fatal("expected short payload to fail")
	}
}

func TestPointerPayloadKeepsFloats(t *testing.T) {
	in := Pointer{Action: PointerWheel, Buttons: 0b101, X: 123.25, Y: -0.5, Wheel: 1.5}
	out, ok := DecodePointerPayload(PointerPayload(in))
	if !ok {
		t.Fatal("decode failed")
	}
	if out != in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
	if _, ok := DecodePointerPayload(make([]byte, 27)); ok {
		t.Fatal("expected short payload to fail")
	}
}

func TestResizePayload(t *testing.T) {
	w, h, ok := DecodeResizePayload(ResizePayload(1000, 750))
	if !ok || w != 1000 || h != 750 {
		t.Fatalf("unexpected decode: %dx%d ok=%v", w, h, ok)
	}
}

func TestKindString(t *testing.T) {
	if MsgPointer.String() != "pointer" || Kind(999).String() != "unknown" {
		t.Fatal("unexpected kind names")
	}
}
