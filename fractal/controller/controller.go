// Package controller owns the interactive view state of one fractal explorer.
//
// Every input that changes what the image shows (pan, zoom, resize, probe, new
// parameters) restarts the progressive cycle; the next Frame call begins again at
// the coarsest chunk size. The controller is not safe for concurrent use: one task
// owns it.
package controller

import (
	"fmt"

	"github.com/leroidangleterre/Mandelbrot/fractal/escape"
	"github.com/leroidangleterre/Mandelbrot/fractal/progressive"
	"github.com/leroidangleterre/Mandelbrot/fractal/ramp"
	"github.com/leroidangleterre/Mandelbrot/fractal/view"
)

// Home view of the Mandelbrot family on a 1000x1000 surface.
const (
	mandelPanX = 684
	mandelPanY = 453
	mandelZoom = 304.48
)

// Home returns the initial view of a variant on a w×h surface.
func Home(v escape.Variant, w, h int) view.Transform {
	switch v {
	case escape.Mandelbrot, escape.Heart:
		return view.Transform{PanX: mandelPanX, PanY: mandelPanY, Zoom: mandelZoom}
	}
	// The remaining maps are centered on the origin.
	zoom := 40.0
	switch v {
	case escape.Hyperbolic:
		zoom = float64(min(w, h)) / 2.2
	case escape.Tetration:
		zoom = 100
	}
	if zoom <= 0 {
		zoom = 1
	}
	return view.Transform{PanX: float64(w) / 2, PanY: float64(h) / 2, Zoom: zoom}
}

// Config is the starting state of a Controller.
type Config struct {
	Params  escape.Params
	Ramp    *ramp.Ramp
	Checker ramp.Checker
	// View overrides Home when valid.
	View   view.Transform
	Width  int
	Height int
}

// Probe is the result of inspecting one point.
type Probe struct {
	ScreenX, ScreenY float64
	X, Y             float64
	Count            uint32
	Orbit            []escape.Point
}

func (p Probe) String() string {
	return fmt.Sprintf("probe (%.6g, %.6g) count=%d orbit=%d", p.X, p.Y, p.Count, len(p.Orbit))
}

type Controller struct {
	tr       view.Transform
	params   escape.Params
	ramp     *ramp.Ramp
	checker  ramp.Checker
	shader   progressive.Shader
	renderer *progressive.Renderer
	progress progressive.Progress
	w, h     int

	probe *Probe
}

// New returns a controller painting with r.
func New(r *progressive.Renderer, cfg Config) (*Controller, error) {
	if r == nil {
		r = progressive.New()
	}
	if cfg.Ramp == nil {
		cfg.Ramp = ramp.Default(cfg.Params.MaxIterations)
	}
	if err := cfg.Ramp.Validate(); err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	c := &Controller{
		params:   cfg.Params,
		ramp:     cfg.Ramp,
		checker:  cfg.Checker,
		renderer: r,
		w:        cfg.Width,
		h:        cfg.Height,
	}
	c.tr = cfg.View
	if !c.tr.Valid() {
		c.tr = Home(cfg.Params.Variant, cfg.Width, cfg.Height)
	}
	c.rebuildShader()
	c.Reset()
	return c, nil
}

func (c *Controller) rebuildShader() {
	c.shader = progressive.NewShader(c.params, c.ramp, c.checker)
}

// Reset restarts the progressive cycle without touching the view.
func (c *Controller) Reset() {
	c.progress = progressive.NewProgress()
}

func (c *Controller) Transform() view.Transform       { return c.tr }
func (c *Controller) Params() escape.Params           { return c.params }
func (c *Controller) Ramp() *ramp.Ramp                { return c.ramp }
func (c *Controller) Progress() progressive.Progress  { return c.progress }
func (c *Controller) Renderer() *progressive.Renderer { return c.renderer }
func (c *Controller) Size() (w, h int)                { return c.w, c.h }

// LastProbe returns the most recent probe, if any.
func (c *Controller) LastProbe() (Probe, bool) {
	if c.probe == nil {
		return Probe{}, false
	}
	return *c.probe, true
}

// Center returns the world point at the middle of the surface.
func (c *Controller) Center() (x, y float64) {
	return c.tr.Center(c.w, c.h)
}

// OnPan drags the view by (dx, dy) screen pixels.
func (c *Controller) OnPan(dx, dy float64) {
	c.tr.ApplyPan(dx, dy)
	c.Reset()
}

// OnZoom scales the view around the screen pivot (px, py). An invalid factor
// leaves the view as it was and does not restart the cycle.
func (c *Controller) OnZoom(factor, px, py float64) error {
	if err := c.tr.ApplyZoom(factor, px, py, c.h); err != nil {
		return err
	}
	c.Reset()
	return nil
}

// OnResize records the new surface size.
func (c *Controller) OnResize(w, h int) {
	c.w, c.h = w, h
	c.Reset()
}

// OnProbe inspects the point under the screen position (sx, sy).
func (c *Controller) OnProbe(sx, sy float64) Probe {
	x, y := c.tr.ToWorld(sx, sy, c.h)
	p := Probe{
		ScreenX: sx,
		ScreenY: sy,
		X:       x,
		Y:       y,
		Count:   escape.Count(x, y, c.params),
		Orbit:   escape.Orbit(x, y, c.params),
	}
	c.probe = &p
	c.Reset()
	return p
}

// ClearProbe drops the last probe.
func (c *Controller) ClearProbe() {
	c.probe = nil
}

// SetParams swaps the escape parameters. A nil ramp keeps the current one.
func (c *Controller) SetParams(p escape.Params, r *ramp.Ramp) error {
	if r != nil {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("controller: %w", err)
		}
		c.ramp = r
	}
	c.params = p
	c.probe = nil
	c.rebuildShader()
	c.Reset()
	return nil
}

// SetView replaces the transform.
func (c *Controller) SetView(t view.Transform) error {
	if !t.Valid() {
		return view.ErrInvalidZoom
	}
	c.tr = t
	c.Reset()
	return nil
}

// ResetView returns to the variant's home view.
func (c *Controller) ResetView() {
	c.tr = Home(c.params.Variant, c.w, c.h)
	c.probe = nil
	c.Reset()
}

// Frame advances the current cycle on s. A surface whose size differs from the
// recorded one is treated as a resize first.
func (c *Controller) Frame(s progressive.Surface) progressive.Progress {
	if s == nil {
		return c.progress
	}
	if w, h := s.ClipSize(); w != c.w || h != c.h {
		c.OnResize(w, h)
	}
	c.progress = c.renderer.RenderFrame(s, c.tr, c.shader, c.progress)
	return c.progress
}
