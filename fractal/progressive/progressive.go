// Package progressive paints a fractal coarse-to-fine under a wall-clock budget.
//
// A render cycle starts Unset. The first frame clears the surface and picks a chunk
// size of h/Divisions; each pass samples one point per square chunk (its center) and
// fills the whole square with that color. After a full pass the chunk size halves,
// and once it drops below one pixel the image is done. A frame that runs out of
// budget records the next chunk-row so the following frame resumes there with the
// same chunk size.
package progressive

import (
	"image/color"
	"time"

	"github.com/leroidangleterre/Mandelbrot/fractal/escape"
	"github.com/leroidangleterre/Mandelbrot/fractal/ramp"
	"github.com/leroidangleterre/Mandelbrot/fractal/view"
)

const (
	// DefaultBudget bounds the wall time spent inside one RenderFrame call.
	DefaultBudget = 300 * time.Millisecond

	// DefaultDivisions is the number of chunk-rows in the first pass.
	DefaultDivisions = 20

	// Unset marks a Progress whose cycle has not started.
	Unset = -1
)

// Surface is the raster a renderer paints on.
type Surface interface {
	FillRect(x, y, w, h int, c color.RGBA)
	ClipSize() (w, h int)
}

// State is the phase of a render cycle.
type State uint8

const (
	StateUnset State = iota
	StateScanning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateUnset:
		return "unset"
	case StateScanning:
		return "scanning"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Progress is the resumable state of a render cycle. It is a plain value: the
// caller keeps it between frames and replaces it with NewProgress to restart.
type Progress struct {
	ChunkSize int
	ResumeRow int
	Done      bool
	// Passes counts completed passes in this cycle.
	Passes int
}

// NewProgress returns an Unset progress.
func NewProgress() Progress {
	return Progress{ChunkSize: Unset}
}

func (p Progress) State() State {
	switch {
	case p.Done:
		return StateDone
	case p.ChunkSize < 0:
		return StateUnset
	default:
		return StateScanning
	}
}

// Shader maps a world point to its final color.
type Shader func(x, y float64) color.RGBA

// NewShader resolves the escape function once and binds it to its palette:
// banded variants use the checker colors, the others the ramp.
func NewShader(p escape.Params, r *ramp.Ramp, checker ramp.Checker) Shader {
	fn := p.Func()
	if p.Variant.Banded() {
		return func(x, y float64) color.RGBA { return checker.ColorFor(fn(x, y)) }
	}
	return func(x, y float64) color.RGBA { return r.ColorFor(fn(x, y)) }
}

// Renderer holds the frame policy. It keeps no per-cycle state.
type Renderer struct {
	Budget     time.Duration
	Divisions  int
	Background color.RGBA

	now func() time.Time
}

// New returns a renderer with the default budget, reading the monotonic clock.
func New() *Renderer {
	return NewWithClock(time.Now)
}

// NewWithClock returns a renderer that measures elapsed time with now.
func NewWithClock(now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{
		Budget:     DefaultBudget,
		Divisions:  DefaultDivisions,
		Background: color.RGBA{A: 0xFF},
		now:        now,
	}
}

// InitialChunk returns the chunk size of the first pass on a surface of height h.
// Surfaces shorter than the division count get a single one-pixel pass.
func (r *Renderer) InitialChunk(h int) int {
	div := r.Divisions
	if div <= 0 {
		div = DefaultDivisions
	}
	c := h / div
	if c < 1 {
		c = 1
	}
	return c
}

// RenderFrame advances p on s and returns the updated progress. Every call paints at
// least one chunk-row unless the cycle is done or the surface is empty.
func (r *Renderer) RenderFrame(s Surface, t view.Transform, sh Shader, p Progress) Progress {
	if p.Done || s == nil || sh == nil || !t.Valid() {
		return p
	}
	w, h := s.ClipSize()
	if w <= 0 || h <= 0 {
		return p
	}

	start := r.now()
	if p.ChunkSize < 0 {
		s.FillRect(0, 0, w, h, r.Background)
		p.ChunkSize = r.InitialChunk(h)
		p.ResumeRow = 0
	}

	for {
		chunk := p.ChunkSize
		rows := h / chunk
		cols := w / chunk
		half := float64(chunk) / 2

		for row := p.ResumeRow; row < rows; row++ {
			y0 := row * chunk
			sy := float64(y0) + half
			for col := 0; col < cols; col++ {
				x0 := col * chunk
				wx, wy := t.ToWorld(float64(x0)+half, sy, h)
				s.FillRect(x0, y0, chunk, chunk, sh(wx, wy))
			}
			p.ResumeRow = row + 1
			if p.ResumeRow < rows && r.now().Sub(start) > r.Budget {
				return p
			}
		}

		p.Passes++
		p.ChunkSize = chunk / 2
		p.ResumeRow = 0
		if p.ChunkSize < 1 {
			p.Done = true
			return p
		}
		if r.now().Sub(start) > r.Budget {
			return p
		}
	}
}
