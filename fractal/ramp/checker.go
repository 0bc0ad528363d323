package ramp

import (
	"image/color"

	"github.com/leroidangleterre/Mandelbrot/fractal/escape"
)

// Checker colors the sentinel buckets of the banded variants. They bypass the ramp.
type Checker struct {
	Even    color.RGBA
	Odd     color.RGBA
	Outside color.RGBA
}

func DefaultChecker() Checker {
	return Checker{
		Even:    color.RGBA{R: 0xF0, G: 0xF0, B: 0xF0, A: 0xFF},
		Odd:     color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF},
		Outside: color.RGBA{R: 0x80, G: 0x10, B: 0x10, A: 0xFF},
	}
}

func (c Checker) ColorFor(bucket uint32) color.RGBA {
	switch bucket {
	case escape.BucketEven:
		return c.Even
	case escape.BucketOdd:
		return c.Odd
	default:
		return c.Outside
	}
}
