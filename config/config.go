// Package config loads the viewer settings from an optional TOML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/leroidangleterre/Mandelbrot/fractal/escape"
	"github.com/leroidangleterre/Mandelbrot/fractal/ramp"
	"github.com/leroidangleterre/Mandelbrot/fractal/view"
)

// Config is the full viewer configuration. Zero numeric fields mean "use the
// variant's default".
type Config struct {
	Variant      string  `toml:"variant"`
	Iterations   uint32  `toml:"iterations"`
	EscapeRadius float64 `toml:"escape_radius"`

	View      *View       `toml:"view"`
	Ramp      []RampStop  `toml:"ramp"`
	Render    Render      `toml:"render"`
	Window    Window      `toml:"window"`
	Bookmarks Bookmarks   `toml:"bookmarks"`
	Stream    StreamSetup `toml:"stream"`
}

// View is a starting view: the world point at the middle of the surface and
// the zoom in pixels per world unit.
type View struct {
	CenterX float64 `toml:"center_x"`
	CenterY float64 `toml:"center_y"`
	Zoom    float64 `toml:"zoom"`
}

// RampStop is one color stop. Color is "#rrggbb" or an SVG color name.
type RampStop struct {
	At    uint32 `toml:"at"`
	Color string `toml:"color"`
}

type Render struct {
	BudgetMS  int `toml:"budget_ms"`
	Divisions int `toml:"divisions"`
	PeriodMS  int `toml:"period_ms"`
}

type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

type Bookmarks struct {
	Path string `toml:"path"`
	Seed bool   `toml:"seed"`
}

type StreamSetup struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Variant: escape.Mandelbrot.String(),
		Render: Render{
			BudgetMS:  300,
			Divisions: 20,
			PeriodMS:  100,
		},
		Window: Window{
			Width:  1000,
			Height: 1000,
			Title:  "Fractal",
		},
		Bookmarks: Bookmarks{Seed: true},
		Stream:    StreamSetup{Addr: ":8080"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := Decode(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode decodes TOML into cfg, keeping fields the document does not set, and
// validates the result.
func Decode(b []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return fmt.Errorf("line %d column %d: %w", row, col, err)
		}
		return err
	}
	return cfg.Validate()
}

// Validate checks the values a file may get wrong.
func (c Config) Validate() error {
	if _, err := escape.ParseVariant(c.Variant); err != nil {
		return err
	}
	if c.EscapeRadius < 0 {
		return fmt.Errorf("config: escape_radius must not be negative, got %g", c.EscapeRadius)
	}
	if c.View != nil && !(c.View.Zoom > 0) {
		return fmt.Errorf("config: view: %w", view.ErrInvalidZoom)
	}
	if _, err := c.ColorRamp(); err != nil {
		return err
	}
	if c.Render.BudgetMS <= 0 {
		return fmt.Errorf("config: render.budget_ms must be positive, got %d", c.Render.BudgetMS)
	}
	if c.Render.Divisions <= 0 {
		return fmt.Errorf("config: render.divisions must be positive, got %d", c.Render.Divisions)
	}
	if c.Render.PeriodMS <= 0 {
		return fmt.Errorf("config: render.period_ms must be positive, got %d", c.Render.PeriodMS)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("config: window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	return nil
}

// Params returns the escape parameters: the variant's defaults overridden by the
// non-zero fields.
func (c Config) Params() (escape.Params, error) {
	v, err := escape.ParseVariant(c.Variant)
	if err != nil {
		return escape.Params{}, err
	}
	p := escape.DefaultParams(v)
	if c.Iterations > 0 {
		p.MaxIterations = c.Iterations
	}
	if c.EscapeRadius > 0 {
		p.EscapeRadiusSquared = c.EscapeRadius * c.EscapeRadius
	}
	return p, nil
}

// ColorRamp builds the configured ramp, or returns nil when none is set.
func (c Config) ColorRamp() (*ramp.Ramp, error) {
	if len(c.Ramp) == 0 {
		return nil, nil
	}
	r := ramp.New()
	for i, s := range c.Ramp {
		col, err := ramp.ParseColor(s.Color)
		if err != nil {
			return nil, fmt.Errorf("config: ramp[%d]: %w", i, err)
		}
		r.AddPoint(s.At, col)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("config: ramp: %w", err)
	}
	return r, nil
}

// Transform returns the configured starting view on a w×h surface, or the zero
// Transform when none is set.
func (c Config) Transform(w, h int) (view.Transform, error) {
	if c.View == nil {
		return view.Transform{}, nil
	}
	return view.CenteredAt(c.View.CenterX, c.View.CenterY, c.View.Zoom, w, h)
}

func (c Config) Budget() time.Duration {
	return time.Duration(c.Render.BudgetMS) * time.Millisecond
}

// BookmarksPath returns the bookmark database path, defaulting to the user's
// config directory.
func (c Config) BookmarksPath() (string, error) {
	if c.Bookmarks.Path != "" {
		return c.Bookmarks.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: bookmarks path: %w", err)
	}
	return filepath.Join(dir, "fractal", "bookmarks.db"), nil
}
