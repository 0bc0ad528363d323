// Package bookmarks keeps named views in a SQLite database.
//
// A bookmark stores the world point at the middle of the surface and the zoom,
// not the pan, so it reopens at the same place whatever the window size.
package bookmarks

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/leroidangleterre/Mandelbrot/fractal/escape"
	"github.com/leroidangleterre/Mandelbrot/fractal/view"
)

// ErrNotFound is returned when no bookmark has the requested ID.
var ErrNotFound = errors.New("bookmarks: not found")

// Bookmark is one saved view.
type Bookmark struct {
	ID         int64
	Name       string
	Variant    escape.Variant
	Iterations uint32
	CenterX    float64
	CenterY    float64
	Zoom       float64
	Created    time.Time
}

// FromView captures the view t on a w×h surface.
func FromView(name string, p escape.Params, t view.Transform, w, h int) Bookmark {
	cx, cy := t.Center(w, h)
	return Bookmark{
		Name:       name,
		Variant:    p.Variant,
		Iterations: p.MaxIterations,
		CenterX:    cx,
		CenterY:    cy,
		Zoom:       t.Zoom,
	}
}

// Transform returns the bookmarked view on a w×h surface.
func (b Bookmark) Transform(w, h int) (view.Transform, error) {
	return view.CenteredAt(b.CenterX, b.CenterY, b.Zoom, w, h)
}

// Params returns the escape parameters of the bookmark: the variant's defaults
// with the saved iteration cap.
func (b Bookmark) Params() escape.Params {
	p := escape.DefaultParams(b.Variant)
	if b.Iterations > 0 {
		p.MaxIterations = b.Iterations
	}
	return p
}

const schema = `
CREATE TABLE IF NOT EXISTS bookmarks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    variant TEXT NOT NULL,
    iterations INTEGER NOT NULL,
    center_x REAL NOT NULL,
    center_y REAL NOT NULL,
    zoom REAL NOT NULL CHECK (zoom > 0),
    created INTEGER NOT NULL
);
`

// Store is a SQLite-backed bookmark list.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory store.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("bookmarks: create directory: %w", err)
			}
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(2000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("bookmarks: open: %w", err)
	}
	// One connection: an in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("bookmarks: connect: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bookmarks: schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts b and returns its ID. ID and Created are assigned by the store.
func (s *Store) Save(b Bookmark) (int64, error) {
	if !(b.Zoom > 0) {
		return 0, view.ErrInvalidZoom
	}
	res, err := s.db.Exec(
		`INSERT INTO bookmarks (name, variant, iterations, center_x, center_y, zoom, created)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Name, b.Variant.String(), int64(b.Iterations), b.CenterX, b.CenterY, b.Zoom, time.Now().UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("bookmarks: save: %w", err)
	}
	return res.LastInsertId()
}

// Get returns the bookmark with the given ID.
func (s *Store) Get(id int64) (Bookmark, error) {
	row := s.db.QueryRow(
		`SELECT id, name, variant, iterations, center_x, center_y, zoom, created
		 FROM bookmarks WHERE id = ?`, id)
	b, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Bookmark{}, ErrNotFound
	}
	return b, err
}

// List returns every bookmark, oldest first.
func (s *Store) List() ([]Bookmark, error) {
	rows, err := s.db.Query(
		`SELECT id, name, variant, iterations, center_x, center_y, zoom, created
		 FROM bookmarks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("bookmarks: list: %w", err)
	}
	defer rows.Close()

	var out []Bookmark
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Delete removes the bookmark with the given ID.
func (s *Store) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("bookmarks: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(r scanner) (Bookmark, error) {
	var (
		b       Bookmark
		variant string
		iter    int64
		created int64
	)
	if err := r.Scan(&b.ID, &b.Name, &variant, &iter, &b.CenterX, &b.CenterY, &b.Zoom, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Bookmark{}, err
		}
		return Bookmark{}, fmt.Errorf("bookmarks: scan: %w", err)
	}
	v, err := escape.ParseVariant(variant)
	if err != nil {
		return Bookmark{}, fmt.Errorf("bookmarks: row %d: %w", b.ID, err)
	}
	b.Variant = v
	b.Iterations = uint32(iter)
	b.Created = time.Unix(0, created)
	return b, nil
}
