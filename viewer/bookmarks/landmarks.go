package bookmarks

import (
	"fmt"

	"github.com/leroidangleterre/Mandelbrot/fractal/escape"
	"github.com/leroidangleterre/Mandelbrot/fractal/view"
)

// Region is a world rectangle of the Mandelbrot set.
type Region struct {
	Name                   string
	Xmin, Xmax, Ymin, Ymax float64
	Iterations             uint32
}

// Well-known places of the Mandelbrot set.
var Landmarks = []Region{
	// dense filaments and repeating "seahorse" curls
	{Name: "Seahorse Valley", Xmin: -0.8, Xmax: -0.7, Ymin: 0.05, Ymax: 0.15, Iterations: 500},
	// large bulb with trunk-like tendrils
	{Name: "Elephant Valley", Xmin: -1.85, Xmax: -1.75, Ymin: -0.10, Ymax: -0.02, Iterations: 500},
	{Name: "Spiral Minibrot", Xmin: -0.7435, Xmax: -0.7420, Ymin: 0.1310, Ymax: 0.1325, Iterations: 2000},
	{Name: "Triple Spiral", Xmin: -0.7480, Xmax: -0.7450, Ymin: 0.0950, Ymax: 0.0980, Iterations: 1500},
	{Name: "Valley of the Dragon", Xmin: -0.7400, Xmax: -0.7350, Ymin: 0.1800, Ymax: 0.1850, Iterations: 1500},
	// self-similar copy inside a spiral arm
	{Name: "Minibrot in a Mini-Spiral", Xmin: -1.7390, Xmax: -1.7375, Ymin: -0.0235, Ymax: -0.0220, Iterations: 2000},
}

// seedSide is the reference surface the landmark zooms are computed for.
const seedSide = 1000

// Bookmark returns the region as a Mandelbrot bookmark.
func (r Region) Bookmark() (Bookmark, error) {
	t, err := view.FitRegion(r.Xmin, r.Xmax, r.Ymin, r.Ymax, seedSide, seedSide)
	if err != nil {
		return Bookmark{}, fmt.Errorf("bookmarks: region %q: %w", r.Name, err)
	}
	p := escape.DefaultParams(escape.Mandelbrot)
	if r.Iterations > 0 {
		p.MaxIterations = r.Iterations
	}
	return FromView(r.Name, p, t, seedSide, seedSide), nil
}

// Seed stores the landmarks when the store is empty and reports how many were
// added.
func (s *Store) Seed() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM bookmarks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("bookmarks: count: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	added := 0
	for _, r := range Landmarks {
		b, err := r.Bookmark()
		if err != nil {
			return added, err
		}
		if _, err := s.Save(b); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
