package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leroidangleterre/Mandelbrot/fractal/escape"
	"github.com/leroidangleterre/Mandelbrot/fractal/view"
)

func TestLoadEmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, escape.DefaultParams(escape.Mandelbrot), p)
	assert.Equal(t, 300*time.Millisecond, cfg.Budget())
	assert.Equal(t, 20, cfg.Render.Divisions)
	assert.Equal(t, 100, cfg.Render.PeriodMS)

	r, err := cfg.ColorRamp()
	require.NoError(t, err)
	assert.Nil(t, r)

	tr, err := cfg.Transform(800, 600)
	require.NoError(t, err)
	assert.False(t, tr.Valid())
}

const sample = `
variant = "heart"
iterations = 800
escape_radius = 1e6

[view]
center_x = -0.5
center_y = 0.25
zoom = 1200

[[ramp]]
at = 0
color = "#000080"

[[ramp]]
at = 400
color = "white"

[[ramp]]
at = 800
color = "black"

[render]
budget_ms = 150

[window]
width = 640
height = 480

[bookmarks]
path = "views.db"
seed = false
`

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fractal.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, escape.Heart, p.Variant)
	assert.Equal(t, uint32(800), p.MaxIterations)
	assert.Equal(t, 1e12, p.EscapeRadiusSquared)

	assert.Equal(t, 150*time.Millisecond, cfg.Budget())
	// Untouched keys keep their defaults.
	assert.Equal(t, 20, cfg.Render.Divisions)
	assert.Equal(t, 100, cfg.Render.PeriodMS)
	assert.Equal(t, "Fractal", cfg.Window.Title)
	assert.Equal(t, 640, cfg.Window.Width)

	r, err := cfg.ColorRamp()
	require.NoError(t, err)
	require.Equal(t, 3, r.Len())
	assert.Equal(t, uint8(0x80), r.ColorFor(0).B)
	assert.Equal(t, uint8(0xFF), r.ColorFor(400).R)

	tr, err := cfg.Transform(640, 480)
	require.NoError(t, err)
	cx, cy := tr.Center(640, 480)
	assert.InDelta(t, -0.5, cx, 1e-12)
	assert.InDelta(t, 0.25, cy, 1e-12)

	bp, err := cfg.BookmarksPath()
	require.NoError(t, err)
	assert.Equal(t, "views.db", bp)
	assert.False(t, cfg.Bookmarks.Seed)
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":       `colour = "red"`,
		"unknown variant":   `variant = "julia"`,
		"zero zoom":         "[view]\nzoom = 0",
		"ramp not rising":   "[[ramp]]\nat = 5\ncolor = \"red\"\n[[ramp]]\nat = 5\ncolor = \"blue\"",
		"bad color":         "[[ramp]]\nat = 0\ncolor = \"notacolor\"",
		"negative radius":   `escape_radius = -2.0`,
		"zero budget":       "[render]\nbudget_ms = 0",
		"zero window":       "[window]\nwidth = 0",
		"malformed toml":    `variant = `,
		"zero divisions":    "[render]\ndivisions = 0",
		"zero period":       "[render]\nperiod_ms = 0",
		"wrong value type":  `iterations = "many"`,
		"bad hex color":     "[[ramp]]\nat = 0\ncolor = \"#zzzzzz\"",
		"view without zoom": "[view]\ncenter_x = 1",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			assert.Error(t, Decode([]byte(doc), &cfg))
		})
	}
}

func TestViewErrorWrapsInvalidZoom(t *testing.T) {
	cfg := Default()
	err := Decode([]byte("[view]\nzoom = -3"), &cfg)
	assert.ErrorIs(t, err, view.ErrInvalidZoom)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
