//go:build cgo

package hal

import (
	"errors"
	"image"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/leroidangleterre/Mandelbrot/internal/buildinfo"
)

// WindowConfig controls the desktop window backend.
type WindowConfig struct {
	Width  int
	Height int
	Title  string
}

// RunWindow opens a resizable desktop window that shows the framebuffer 1:1 and
// forwards keyboard and mouse input. It blocks until the window closes or the
// application quits.
func RunWindow(newApp func(HAL) func() error, cfg WindowConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = DefaultWidth, DefaultHeight
	}
	if cfg.Title == "" {
		cfg.Title = "Fractal"
	}

	h := newHost(os.Stdout, cfg.Width, cfg.Height)
	step := newApp(h)

	g := &hostGame{h: h, step: step, in: newWindowInput(h.kbd, h.ptr)}
	ebiten.SetWindowTitle(cfg.Title + " (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h     *hostHAL
	in    *windowInput
	img   *image.RGBA
	fbImg *ebiten.Image
	gen   uint64
	step  func() error
}

func (g *hostGame) Update() error {
	g.in.poll()
	g.h.t.step()
	if g.step != nil {
		if err := g.step(); err != nil {
			if errors.Is(err, ErrQuit) {
				return ebiten.Termination
			}
			return err
		}
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	if gen := fb.generation(); gen != g.gen || g.fbImg == nil {
		g.gen = gen
		g.img = fb.snapshotRGBA(g.img)
		b := g.img.Bounds()
		if g.fbImg == nil || g.fbImg.Bounds().Dx() != b.Dx() || g.fbImg.Bounds().Dy() != b.Dy() {
			if g.fbImg != nil {
				g.fbImg.Deallocate()
			}
			g.fbImg = ebiten.NewImage(b.Dx(), b.Dy())
		}
		g.fbImg.WritePixels(g.img.Pix)
	}
	screen.DrawImage(g.fbImg, nil)
}

// Layout keeps one framebuffer pixel per window pixel, so resizing the window
// resizes the framebuffer.
func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.h.resize(outsideWidth, outsideHeight)
	return g.h.fb.Width(), g.h.fb.Height()
}
