package hal

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/leroidangleterre/Mandelbrot/internal/buildinfo"
)

// TerminalConfig controls the terminal backend.
type TerminalConfig struct {
	Hz     int
	Status string
}

// Each cell shows two framebuffer pixels stacked with the upper half block:
// foreground is the top pixel, background the bottom one.
const halfBlock = '▀'

// logTail keeps the end of the log while tcell owns the screen.
type logTail struct {
	b   []byte
	max int
}

func (t *logTail) Write(p []byte) (int, error) {
	t.b = append(t.b, p...)
	if len(t.b) > t.max {
		t.b = append(t.b[:0], t.b[len(t.b)-t.max:]...)
	}
	return len(p), nil
}

// RunTerminal renders the framebuffer into the terminal with half-block cells and
// reads keys, mouse and resizes from it. The last row is a status line. Log lines
// are held back and printed to stderr when the screen is released.
func RunTerminal(ctx context.Context, newApp func(HAL) func() error, cfg TerminalConfig) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("terminal mode requires stdout to be a terminal")
	}
	if cfg.Hz <= 0 {
		cfg.Hz = 30
	}

	s, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := s.Init(); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}
	s.EnableMouse()
	s.HideCursor()

	cols, rows := s.Size()
	logs := &logTail{max: 64 << 10}
	h := newHost(logs, max(cols, 1), termPixelRows(rows))
	defer func() {
		s.Fini()
		h.logger.redirect(os.Stderr)
		os.Stderr.Write(logs.b)
	}()

	step := newApp(h)

	quit := make(chan struct{})
	defer close(quit)
	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := s.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	tr := &termTranslator{h: h}
	view := &termView{s: s, status: cfg.Status}

	t := time.NewTicker(time.Second / time.Duration(cfg.Hz))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if tr.translate(ev) {
				s.Sync()
				view.img = nil
			}
		case <-t.C:
			h.t.step()
			if step != nil {
				if err := step(); err != nil {
					if errors.Is(err, ErrQuit) {
						return nil
					}
					return err
				}
			}
			view.draw(h.fb)
		}
	}
}

// termPixelRows is the framebuffer height for a terminal of the given rows.
func termPixelRows(rows int) int {
	return max(rows-1, 1) * 2
}

// termTranslator maps tcell events onto the host input devices.
type termTranslator struct {
	h    *hostHAL
	held tcell.ButtonMask
}

var termKeys = map[tcell.Key]KeyCode{
	tcell.KeyUp:         KeyUp,
	tcell.KeyDown:       KeyDown,
	tcell.KeyLeft:       KeyLeft,
	tcell.KeyRight:      KeyRight,
	tcell.KeyEnter:      KeyEnter,
	tcell.KeyEscape:     KeyEscape,
	tcell.KeyBackspace:  KeyBackspace,
	tcell.KeyBackspace2: KeyBackspace,
	tcell.KeyTab:        KeyTab,
	tcell.KeyDelete:     KeyDelete,
	tcell.KeyHome:       KeyHome,
	tcell.KeyEnd:        KeyEnd,
	tcell.KeyPgUp:       KeyPageUp,
	tcell.KeyPgDn:       KeyPageDown,
	tcell.KeyF1:         KeyF1,
	tcell.KeyF2:         KeyF2,
	tcell.KeyF3:         KeyF3,
}

var termButtons = []struct {
	mask tcell.ButtonMask
	bit  PointerButton
}{
	{tcell.Button1, ButtonLeft},
	{tcell.Button2, ButtonRight},
	{tcell.Button3, ButtonMiddle},
}

// translate forwards ev and reports whether the screen was resized. Terminals
// report no key releases, so only presses are emitted.
func (tr *termTranslator) translate(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyRune {
			tr.h.kbd.emit(KeyEvent{Press: true, Rune: ev.Rune()})
			return false
		}
		if ev.Key() == tcell.KeyCtrlC {
			tr.h.kbd.emit(KeyEvent{Press: true, Rune: 'q'})
			return false
		}
		if code, ok := termKeys[ev.Key()]; ok {
			tr.h.kbd.emit(KeyEvent{Code: code, Press: true})
		}

	case *tcell.EventMouse:
		cx, cy := ev.Position()
		x, y := float64(cx), float64(cy*2)
		btns := ev.Buttons()

		var held PointerButton
		for _, b := range termButtons {
			now := btns&b.mask != 0
			was := tr.held&b.mask != 0
			switch {
			case now && !was:
				tr.h.ptr.emit(PointerEvent{Action: PointerPress, Buttons: b.bit, X: x, Y: y})
			case !now && was:
				tr.h.ptr.emit(PointerEvent{Action: PointerRelease, Buttons: b.bit, X: x, Y: y})
			}
			if now {
				held |= b.bit
			}
		}
		tr.held = btns & (tcell.Button1 | tcell.Button2 | tcell.Button3)

		switch {
		case btns&tcell.WheelUp != 0:
			tr.h.ptr.emit(PointerEvent{Action: PointerWheel, Buttons: held, X: x, Y: y, WheelY: 1})
		case btns&tcell.WheelDown != 0:
			tr.h.ptr.emit(PointerEvent{Action: PointerWheel, Buttons: held, X: x, Y: y, WheelY: -1})
		default:
			tr.h.ptr.emit(PointerEvent{Action: PointerMove, Buttons: held, X: x, Y: y})
		}

	case *tcell.EventResize:
		cols, rows := ev.Size()
		tr.h.resize(max(cols, 1), termPixelRows(rows))
		return true
	}
	return false
}

type termView struct {
	s      tcell.Screen
	status string
	img    *image.RGBA
	gen    uint64
}

func (v *termView) draw(fb *hostFramebuffer) {
	gen := fb.generation()
	if gen == v.gen && v.img != nil {
		return
	}
	v.gen = gen
	v.img = fb.snapshotRGBA(v.img)

	b := v.img.Bounds()
	cols, rows := v.s.Size()
	for cy := 0; cy < rows-1; cy++ {
		for cx := 0; cx < cols; cx++ {
			top := rgbaAt(v.img, b, cx, cy*2)
			bot := rgbaAt(v.img, b, cx, cy*2+1)
			st := tcell.StyleDefault.Foreground(top).Background(bot)
			v.s.SetContent(cx, cy, halfBlock, nil, st)
		}
	}
	v.drawStatus(cols, rows-1)
	v.s.Show()
}

func (v *termView) drawStatus(cols, row int) {
	if row < 0 {
		return
	}
	line := statusLine(v.status, cols)
	st := tcell.StyleDefault.Reverse(true)
	x := 0
	for _, r := range line {
		v.s.SetContent(x, row, r, nil, st)
		x += runewidth.RuneWidth(r)
	}
	for ; x < cols; x++ {
		v.s.SetContent(x, row, ' ', nil, st)
	}
}

// statusLine fits the status text and build tag into cols terminal cells.
func statusLine(status string, cols int) string {
	if cols <= 0 {
		return ""
	}
	line := strings.TrimSpace(status + "  " + buildinfo.Short())
	return runewidth.Truncate(line, cols, "…")
}

func rgbaAt(img *image.RGBA, b image.Rectangle, x, y int) tcell.Color {
	if x >= b.Dx() || y >= b.Dy() {
		return tcell.ColorBlack
	}
	i := img.PixOffset(x, y)
	return tcell.NewRGBColor(int32(img.Pix[i]), int32(img.Pix[i+1]), int32(img.Pix[i+2]))
}
