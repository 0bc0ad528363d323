// Command fractalbench runs the progressive renderer headlessly on an
// in-memory surface and reports how many frames, passes and how much time a
// view takes to reach full resolution.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"
	"time"

	"github.com/leroidangleterre/Mandelbrot/config"
	"github.com/leroidangleterre/Mandelbrot/fractal/controller"
	"github.com/leroidangleterre/Mandelbrot/fractal/progressive"
	"github.com/leroidangleterre/Mandelbrot/fractal/ramp"
	"github.com/leroidangleterre/Mandelbrot/viewer/bookmarks"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "TOML configuration file.")
		runs     = flag.Int("n", 1, "Number of full renders.")
		width    = flag.Int("w", 0, "Image width (default from config).")
		height   = flag.Int("h", 0, "Image height (default from config).")
		variant  = flag.String("variant", "", "Fractal variant.")
		iter     = flag.Uint("iter", 0, "Iteration cap (0 = variant default).")
		landmark = flag.String("landmark", "", "Render a named landmark region instead of the configured view.")
		quiet    = flag.Bool("q", false, "Only report the total.")
	)
	flag.Parse()

	if *runs <= 0 {
		fatalf("usage: fractalbench [-n 1] [-config f.toml] [-w 1000 -h 1000] [-variant mandelbrot] [-iter 500] [-landmark \"Seahorse Valley\"]")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	if *variant != "" {
		cfg.Variant = *variant
	}
	if *iter > 0 {
		cfg.Iterations = uint32(*iter)
	}
	if *width > 0 {
		cfg.Window.Width = *width
	}
	if *height > 0 {
		cfg.Window.Height = *height
	}
	if err := cfg.Validate(); err != nil {
		fatalf("%v", err)
	}

	var total time.Duration
	for i := 0; i < *runs; i++ {
		stats, err := render(cfg, *landmark, !*quiet)
		if err != nil {
			fatalf("render: %v", err)
		}
		total += stats.elapsed
		fmt.Printf("run %d: %dx%d %s in %d frames, %d passes, %s\n",
			i+1, cfg.Window.Width, cfg.Window.Height, cfg.Variant,
			stats.frames, stats.passes, stats.elapsed.Round(time.Millisecond))
	}
	if *runs > 1 {
		fmt.Printf("mean: %s\n", (total / time.Duration(*runs)).Round(time.Millisecond))
	}
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}

type renderStats struct {
	frames  int
	passes  int
	elapsed time.Duration
}

func render(cfg config.Config, landmark string, verbose bool) (renderStats, error) {
	w, h := cfg.Window.Width, cfg.Window.Height

	params, err := cfg.Params()
	if err != nil {
		return renderStats{}, err
	}
	rmp, err := cfg.ColorRamp()
	if err != nil {
		return renderStats{}, err
	}
	tr, err := cfg.Transform(w, h)
	if err != nil {
		return renderStats{}, err
	}
	if landmark != "" {
		b, err := findLandmark(landmark)
		if err != nil {
			return renderStats{}, err
		}
		params = b.Params()
		if tr, err = b.Transform(w, h); err != nil {
			return renderStats{}, err
		}
	}

	r := progressive.New()
	r.Budget = cfg.Budget()
	r.Divisions = cfg.Render.Divisions
	ctl, err := controller.New(r, controller.Config{
		Params:  params,
		Ramp:    rmp,
		Checker: ramp.DefaultChecker(),
		View:    tr,
		Width:   w,
		Height:  h,
	})
	if err != nil {
		return renderStats{}, err
	}

	s := imageSurface{img: image.NewRGBA(image.Rect(0, 0, w, h))}
	var st renderStats
	start := time.Now()
	for {
		p := ctl.Frame(s)
		st.frames++
		if verbose && p.Passes > st.passes {
			fmt.Fprintf(os.Stderr, "frame %d: %d passes, %s\n", st.frames, p.Passes, time.Since(start).Round(time.Millisecond))
		}
		st.passes = p.Passes
		if p.Done {
			break
		}
	}
	st.elapsed = time.Since(start)
	return st, nil
}

func findLandmark(name string) (bookmarks.Bookmark, error) {
	for _, r := range bookmarks.Landmarks {
		if strings.EqualFold(r.Name, name) {
			return r.Bookmark()
		}
	}
	return bookmarks.Bookmark{}, fmt.Errorf("unknown landmark %q", name)
}

type imageSurface struct {
	img *image.RGBA
}

func (s imageSurface) FillRect(x, y, w, h int, c color.RGBA) {
	draw.Draw(s.img, image.Rect(x, y, x+w, y+h), image.NewUniform(c), image.Point{}, draw.Src)
}

func (s imageSurface) ClipSize() (w, h int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}
