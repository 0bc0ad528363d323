// Package view maps between screen pixels and fractal world coordinates.
//
// Screen Y grows downward while world Y grows upward, so every mapping takes the
// surface height. A Transform is a plain value: the controller owns it and hands
// copies to the renderer.
package view

import (
	"errors"
	"math"
)

// ErrInvalidZoom is returned when an operation would leave Zoom <= 0 or non-finite.
var ErrInvalidZoom = errors.New("view: zoom must be positive and finite")

// Transform is a pan offset (in screen pixels) plus a zoom factor (pixels per world unit).
type Transform struct {
	PanX float64
	PanY float64
	Zoom float64
}

// New returns a validated transform.
func New(panX, panY, zoom float64) (Transform, error) {
	t := Transform{PanX: panX, PanY: panY, Zoom: zoom}
	if !t.Valid() {
		return Transform{}, ErrInvalidZoom
	}
	return t, nil
}

// Valid reports whether the transform can be used for mapping.
func (t Transform) Valid() bool {
	return t.Zoom > 0 && !math.IsInf(t.Zoom, 0) &&
		!math.IsNaN(t.PanX) && !math.IsNaN(t.PanY)
}

// ToWorld maps a screen position on a surface of height h to world coordinates.
func (t Transform) ToWorld(sx, sy float64, h int) (x, y float64) {
	x = (sx - t.PanX) / t.Zoom
	y = (float64(h) - sy - t.PanY) / t.Zoom
	return x, y
}

// ToScreen is the inverse of ToWorld.
func (t Transform) ToScreen(x, y float64, h int) (sx, sy float64) {
	sx = x*t.Zoom + t.PanX
	sy = float64(h) - t.PanY - y*t.Zoom
	return sx, sy
}

// ApplyZoom multiplies Zoom by factor and moves the pan so that the world point under
// the pivot (px, py) stays under it. The transform is left untouched on error.
func (t *Transform) ApplyZoom(factor, px, py float64, h int) error {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return ErrInvalidZoom
	}
	hh := float64(h)
	next := Transform{
		PanX: factor*(t.PanX-px) + px,
		PanY: hh - py - factor*(hh-t.PanY-py),
		Zoom: t.Zoom * factor,
	}
	if !next.Valid() {
		return ErrInvalidZoom
	}
	*t = next
	return nil
}

// ApplyPan shifts the view by a screen-space drag of (dx, dy) pixels.
func (t *Transform) ApplyPan(dx, dy float64) {
	t.PanX += dx
	t.PanY -= dy
}

// Center returns the world point shown at the middle of a w×h surface.
func (t Transform) Center(w, h int) (x, y float64) {
	return t.ToWorld(float64(w)/2, float64(h)/2, h)
}

// FitRegion returns the transform that shows the world rectangle
// [xmin,xmax]×[ymin,ymax] on a w×h surface. The smaller scale of the two axes
// is used so the whole region stays visible, and the region is centered.
func FitRegion(xmin, xmax, ymin, ymax float64, w, h int) (Transform, error) {
	dx := xmax - xmin
	dy := ymax - ymin
	if !(dx > 0) || !(dy > 0) || w <= 0 || h <= 0 {
		return Transform{}, ErrInvalidZoom
	}
	zoom := math.Min(float64(w)/dx, float64(h)/dy)
	return CenteredAt((xmin+xmax)/2, (ymin+ymax)/2, zoom, w, h)
}

// CenteredAt returns the transform that shows world point (cx, cy) at the middle
// of a w×h surface with the given zoom.
func CenteredAt(cx, cy, zoom float64, w, h int) (Transform, error) {
	return New(float64(w)/2-cx*zoom, float64(h)/2-cy*zoom, zoom)
}
