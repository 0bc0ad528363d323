// Package ramp maps escape counts to colors.
package ramp

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Stop is one calibration point of a ramp.
type Stop struct {
	Threshold uint32
	Color     color.RGBA
}

// Ramp is a piecewise-linear lookup table from escape count to color.
//
// Stops are appended in strictly increasing threshold order. AddPoint does not
// sort or check; use Validate at configuration boundaries.
type Ramp struct {
	stops []Stop
}

// New returns a ramp built from stops in order.
func New(stops ...Stop) *Ramp {
	r := &Ramp{stops: make([]Stop, 0, len(stops))}
	for _, s := range stops {
		r.AddPoint(s.Threshold, s.Color)
	}
	return r
}

// AddPoint appends a calibration point.
func (r *Ramp) AddPoint(threshold uint32, c color.RGBA) {
	r.stops = append(r.stops, Stop{Threshold: threshold, Color: c})
}

func (r *Ramp) Len() int { return len(r.stops) }

// Stops returns a copy of the calibration points.
func (r *Ramp) Stops() []Stop {
	out := make([]Stop, len(r.stops))
	copy(out, r.stops)
	return out
}

// Validate reports an error if the thresholds are not strictly increasing.
func (r *Ramp) Validate() error {
	for i := 1; i < len(r.stops); i++ {
		if r.stops[i].Threshold <= r.stops[i-1].Threshold {
			return fmt.Errorf("ramp: threshold %d at index %d does not increase on %d",
				r.stops[i].Threshold, i, r.stops[i-1].Threshold)
		}
	}
	return nil
}

// ColorFor resolves a count. Counts at or below the first threshold get the first
// color, at or above the last get the last color, and anything between two stops is
// blended linearly in RGB. An empty ramp yields opaque black.
func (r *Ramp) ColorFor(n uint32) color.RGBA {
	if len(r.stops) == 0 {
		return color.RGBA{A: 0xFF}
	}
	first := r.stops[0]
	if n <= first.Threshold {
		return first.Color
	}
	last := r.stops[len(r.stops)-1]
	if n >= last.Threshold {
		return last.Color
	}
	for i := 1; i < len(r.stops); i++ {
		hi := r.stops[i]
		if n > hi.Threshold {
			continue
		}
		lo := r.stops[i-1]
		t := float64(n-lo.Threshold) / float64(hi.Threshold-lo.Threshold)
		return blend(lo.Color, hi.Color, t)
	}
	return last.Color
}

func blend(a, b color.RGBA, t float64) color.RGBA {
	c := toColorful(a).BlendRgb(toColorful(b), t)
	rr, gg, bb := c.RGB255()
	return color.RGBA{R: rr, G: gg, B: bb, A: 0xFF}
}

func toColorful(c color.RGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Default returns the stock ramp for a given iteration cap. Points that never
// escape (count == maxIter) are black.
func Default(maxIter uint32) *Ramp {
	candidates := []Stop{
		{0, colornames.Midnightblue},
		{maxIter / 16, colornames.Royalblue},
		{maxIter / 6, colornames.White},
		{maxIter / 3, colornames.Orange},
		{maxIter - maxIter/8, colornames.Darkred},
		{maxIter, colornames.Black},
	}
	r := &Ramp{}
	for _, s := range candidates {
		if n := len(r.stops); n > 0 && s.Threshold <= r.stops[n-1].Threshold {
			// Collapsed at small caps; the later stop wins.
			r.stops[n-1].Color = s.Color
			continue
		}
		r.AddPoint(s.Threshold, s.Color)
	}
	return r
}

// ParseColor accepts "#rgb", "#rrggbb" or a CSS color name.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.RGBA{}, fmt.Errorf("ramp: empty color")
	}
	if s[0] == '#' {
		c, err := colorful.Hex(s)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("ramp: parse color %q: %w", s, err)
		}
		r, g, b := c.RGB255()
		return color.RGBA{R: r, G: g, B: b, A: 0xFF}, nil
	}
	c, ok := colornames.Map[strings.ToLower(s)]
	if !ok {
		return color.RGBA{}, fmt.Errorf("ramp: unknown color name %q", s)
	}
	return c, nil
}
