package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/leroidangleterre/Mandelbrot/app"
	"github.com/leroidangleterre/Mandelbrot/config"
	"github.com/leroidangleterre/Mandelbrot/hal"
	"github.com/leroidangleterre/Mandelbrot/viewer/bookmarks"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var (
		cfgPath   string
		headless  hal.HeadlessConfig
		term      bool
		serve     bool
		addr      string
		variant   string
		iter      uint
		bookmarkP string
		noMarks   bool
	)
	flag.StringVar(&cfgPath, "config", "", "TOML configuration file.")
	flag.BoolVar(&headless.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&headless.Hz, "hz", 60, "Tick rate in headless, terminal and stream modes.")
	flag.Uint64Var(&headless.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.BoolVar(&term, "term", false, "Render into the terminal.")
	flag.BoolVar(&serve, "serve", false, "Serve the viewer to browsers over a websocket.")
	flag.StringVar(&addr, "addr", "", "Listen address for -serve (default from config).")
	flag.StringVar(&variant, "variant", "", "Fractal variant: flat, hyperbolic, mandelbrot, tetration or heart.")
	flag.UintVar(&iter, "iter", 0, "Iteration cap (0 = variant default).")
	flag.StringVar(&bookmarkP, "bookmarks", "", "Bookmark database path.")
	flag.BoolVar(&noMarks, "no-bookmarks", false, "Disable the bookmark store.")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if variant != "" {
		cfg.Variant = variant
	}
	if iter > 0 {
		cfg.Iterations = uint32(iter)
	}
	if addr != "" {
		cfg.Stream.Addr = addr
	}
	if bookmarkP != "" {
		cfg.Bookmarks.Path = bookmarkP
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var store *bookmarks.Store
	if !noMarks {
		store, err = openBookmarks(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	newApp := func(h hal.HAL) func() error {
		return app.New(h, app.Config{Settings: cfg, Bookmarks: store})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case headless.Enabled:
		headless.Width, headless.Height = cfg.Window.Width, cfg.Window.Height
		err = hal.RunHeadless(ctx, newApp, headless)
	case term:
		err = hal.RunTerminal(ctx, newApp, hal.TerminalConfig{Hz: headless.Hz, Status: cfg.Variant})
	case serve:
		err = hal.RunStream(ctx, newApp, hal.StreamConfig{
			Addr:   cfg.Stream.Addr,
			Hz:     headless.Hz,
			Width:  cfg.Window.Width,
			Height: cfg.Window.Height,
		})
	default:
		err = hal.RunWindow(newApp, hal.WindowConfig{
			Width:  cfg.Window.Width,
			Height: cfg.Window.Height,
			Title:  cfg.Window.Title,
		})
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func openBookmarks(cfg config.Config) (*bookmarks.Store, error) {
	path, err := cfg.BookmarksPath()
	if err != nil {
		return nil, err
	}
	store, err := bookmarks.Open(path)
	if err != nil {
		return nil, err
	}
	if cfg.Bookmarks.Seed {
		if _, err := store.Seed(); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}
