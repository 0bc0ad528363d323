// Package escape computes escape-time counts for the supported fractal maps.
//
// Every variant shares the same shape: iterate a map from a starting point until the
// orbit escapes or a cap is reached, and return the number of completed steps. The
// variant is resolved once into a Func so per-pixel code does not branch on it.
//
// NaN and infinite orbit values are not special-cased: IEEE comparisons against NaN
// are false, so such orbits never escape and run to the cap.
package escape

import (
	"fmt"
	"math"
	"strings"
)

// Variant selects the iterated map.
type Variant uint8

const (
	Flat Variant = iota
	Hyperbolic
	Mandelbrot
	Tetration
	Heart

	variantCount
)

// Sentinel counts returned by the two-color variants (Flat, Hyperbolic).
const (
	BucketEven uint32 = 0
	BucketOdd  uint32 = 1
	Outside    uint32 = 2
)

// TetrationCap is the fixed iteration cap of the Tetration variant.
const TetrationCap = 16

// HeartRadiusSquared is the Heart escape threshold: max*max with max = 1e7.
const HeartRadiusSquared = 1e7 * 1e7

var variantNames = [variantCount]string{
	Flat:       "flat",
	Hyperbolic: "hyperbolic",
	Mandelbrot: "mandelbrot",
	Tetration:  "tetration",
	Heart:      "heart",
}

func (v Variant) String() string {
	if v < variantCount {
		return variantNames[v]
	}
	return fmt.Sprintf("variant(%d)", uint8(v))
}

// Next returns the following variant, wrapping around.
func (v Variant) Next() Variant {
	return (v + 1) % variantCount
}

// Banded reports whether the variant yields sentinel buckets instead of iteration
// counts. Banded variants are colored with a fixed palette, not the ramp.
func (v Variant) Banded() bool {
	return v == Flat || v == Hyperbolic
}

// ParseVariant parses a variant name (case-insensitive).
func ParseVariant(s string) (Variant, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range variantNames {
		if name == s {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("escape: unknown variant %q", s)
}

// Params fully determines the escape count of every point.
type Params struct {
	Variant             Variant
	MaxIterations       uint32
	EscapeRadiusSquared float64
}

// DefaultParams returns the stock parameters for a variant.
func DefaultParams(v Variant) Params {
	p := Params{Variant: v, MaxIterations: 500, EscapeRadiusSquared: 4}
	switch v {
	case Heart:
		p.EscapeRadiusSquared = HeartRadiusSquared
	case Tetration:
		p.MaxIterations = TetrationCap
		p.EscapeRadiusSquared = 1e6
	}
	return p
}

// Func maps a world point to its escape count.
type Func func(x, y float64) uint32

// Func resolves the variant into its iteration closure.
func (p Params) Func() Func {
	maxIter := p.MaxIterations
	r2 := p.EscapeRadiusSquared

	switch p.Variant {
	case Flat:
		return flat
	case Hyperbolic:
		return hyperbolic
	case Tetration:
		limit := uint32(TetrationCap)
		if maxIter < limit {
			limit = maxIter
		}
		return func(x, y float64) uint32 { return tetration(x, y, limit, r2) }
	case Heart:
		return func(x, y float64) uint32 { return heart(x, y, maxIter, r2) }
	default:
		return func(x, y float64) uint32 { return mandelbrot(x, y, maxIter, r2) }
	}
}

// Count returns the escape count of (x, y). Prefer Params.Func in loops.
func Count(x, y float64, p Params) uint32 {
	return p.Func()(x, y)
}

func mandelbrot(cx, cy float64, limit uint32, r2 float64) uint32 {
	var x, y float64
	n := uint32(0)
	for ; n < limit; n++ {
		// Escape on |x+y|, not the modulus; the rendered shape depends on it.
		if math.Abs(x+y) >= r2 {
			return n
		}
		x, y = x*x-y*y+cx, 2*x*y+cy
	}
	return n
}

func heart(cx, cy float64, limit uint32, r2 float64) uint32 {
	var x, y float64
	n := uint32(0)
	for ; n < limit; n++ {
		if x*x+y*y >= r2 {
			return n
		}
		re := x*x - y*y + cx
		x, y = re*re, 2*x*y+cy
	}
	return n
}

var (
	sqrt2   = math.Sqrt2
	lnSqrt2 = math.Log(math.Sqrt2)
)

func tetration(x, y float64, limit uint32, r2 float64) uint32 {
	n := uint32(0)
	for ; n < limit; n++ {
		if x*x+y*y >= r2 {
			return n
		}
		m := math.Pow(sqrt2, x)
		a := y * lnSqrt2
		x, y = m*math.Cos(a), m*math.Sin(a)
	}
	return n
}

func flat(x, y float64) uint32 {
	return checker(x, y)
}

func hyperbolic(x, y float64) uint32 {
	r := math.Sqrt(x*x + y*y)
	if r > 1 {
		return Outside
	}
	s := 5 / (r - 1)
	return checker(x*s, y*s)
}

func checker(x, y float64) uint32 {
	px := int64(math.Floor(x)) & 1
	py := int64(math.Floor(y)) & 1
	if px == py {
		return BucketEven
	}
	return BucketOdd
}

// Point is one orbit sample in world coordinates.
type Point struct {
	X, Y float64
}

// Orbit returns the successive iterates of (x, y) under the variant's map, starting
// with the initial value and stopping after the escaping iterate or at the cap. The
// banded variants have no orbit and return nil.
func Orbit(x, y float64, p Params) []Point {
	var (
		limit = p.MaxIterations
		zx    float64
		zy    float64
		step  func(zx, zy float64) (float64, float64)
		esc   func(zx, zy float64) bool
	)
	modulus := func(zx, zy float64) bool { return zx*zx+zy*zy >= p.EscapeRadiusSquared }

	switch p.Variant {
	case Mandelbrot:
		step = func(zx, zy float64) (float64, float64) { return zx*zx - zy*zy + x, 2*zx*zy + y }
		esc = func(zx, zy float64) bool { return math.Abs(zx+zy) >= p.EscapeRadiusSquared }
	case Heart:
		step = func(zx, zy float64) (float64, float64) {
			re := zx*zx - zy*zy + x
			return re * re, 2*zx*zy + y
		}
		esc = modulus
	case Tetration:
		if limit > TetrationCap {
			limit = TetrationCap
		}
		zx, zy = x, y
		step = func(zx, zy float64) (float64, float64) {
			m := math.Pow(sqrt2, zx)
			a := zy * lnSqrt2
			return m * math.Cos(a), m * math.Sin(a)
		}
		esc = modulus
	default:
		return nil
	}

	out := make([]Point, 0, 16)
	out = append(out, Point{zx, zy})
	for n := uint32(0); n < limit; n++ {
		if esc(zx, zy) {
			break
		}
		zx, zy = step(zx, zy)
		out = append(out, Point{zx, zy})
	}
	return out
}
