package hal

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

//go:embed static
var staticFiles embed.FS

// StreamConfig controls the browser backend.
type StreamConfig struct {
	Addr   string
	Hz     int
	Width  int
	Height int
}

// RunStream serves a page on cfg.Addr that shows the framebuffer as PNG frames
// pushed over a websocket and sends input back as JSON. Every connected browser
// sees the same view; the most recent resize wins.
func RunStream(ctx context.Context, newApp func(HAL) func() error, cfg StreamConfig) error {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Hz <= 0 {
		cfg.Hz = 30
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = DefaultWidth, DefaultHeight
	}

	h := newHost(os.Stdout, cfg.Width, cfg.Height)
	step := newApp(h)
	hub := newStreamHub(h)

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.handle)
	mux.Handle("/", http.FileServer(http.FS(static)))

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("stream listen: %w", err)
	}
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	h.logger.WriteLineString("stream: listening on http://" + ln.Addr().String())

	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Serve(ln) }()
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
		hub.closeAll()
	}()

	t := time.NewTicker(time.Second / time.Duration(cfg.Hz))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-srvErr:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
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
			hub.publish()
		}
	}
}

// streamHub fans encoded frames out to the connected browsers.
type streamHub struct {
	h *hostHAL

	mu      sync.Mutex
	clients map[*streamClient]struct{}

	img *image.RGBA
	gen uint64
	buf bytes.Buffer
	enc png.Encoder
}

type streamClient struct {
	conn   *websocket.Conn
	frames chan []byte
}

func newStreamHub(h *hostHAL) *streamHub {
	return &streamHub{
		h:       h,
		clients: make(map[*streamClient]struct{}),
		enc:     png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

func (hb *streamHub) handle(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		hb.h.logger.WriteLineString("stream: " + err.Error())
		return
	}
	c.SetReadLimit(4 << 10)

	cl := &streamClient{conn: c, frames: make(chan []byte, 1)}
	hb.mu.Lock()
	hb.clients[cl] = struct{}{}
	hb.img = nil // new viewers need a full frame
	hb.mu.Unlock()
	defer func() {
		hb.mu.Lock()
		delete(hb.clients, cl)
		hb.mu.Unlock()
		c.CloseNow()
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case frame := <-cl.frames:
				wctx, wcancel := context.WithTimeout(ctx, 5*time.Second)
				err := c.Write(wctx, websocket.MessageBinary, frame)
				wcancel()
				if err != nil {
					return
				}
			}
		}
	}()

	for {
		var ev streamEvent
		if err := wsjson.Read(ctx, c, &ev); err != nil {
			return
		}
		hb.h.applyStreamEvent(ev)
	}
}

// publish encodes the framebuffer once when it changed and hands the frame to
// every client, replacing any frame the client has not sent yet.
func (hb *streamHub) publish() {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	if len(hb.clients) == 0 {
		return
	}
	gen := hb.h.fb.generation()
	if gen == hb.gen && hb.img != nil {
		return
	}
	hb.gen = gen
	hb.img = hb.h.fb.snapshotRGBA(hb.img)

	hb.buf.Reset()
	if err := hb.enc.Encode(&hb.buf, hb.img); err != nil {
		hb.h.logger.WriteLineString("stream: encode: " + err.Error())
		return
	}
	frame := bytes.Clone(hb.buf.Bytes())
	for cl := range hb.clients {
		select {
		case <-cl.frames:
		default:
		}
		cl.frames <- frame
	}
}

func (hb *streamHub) closeAll() {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	for cl := range hb.clients {
		cl.conn.Close(websocket.StatusGoingAway, "shutting down")
	}
}

// streamEvent is the JSON input message sent by the page.
type streamEvent struct {
	Type    string  `json:"type"`
	Key     string  `json:"key,omitempty"`
	Press   bool    `json:"press,omitempty"`
	Action  string  `json:"action,omitempty"`
	Button  int     `json:"button,omitempty"`
	Buttons uint8   `json:"buttons,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Wheel   float64 `json:"wheel,omitempty"`
	W       int     `json:"w,omitempty"`
	H       int     `json:"h,omitempty"`
}

// Browser key names for non-text keys.
var streamKeys = map[string]KeyCode{
	"ArrowUp":    KeyUp,
	"ArrowDown":  KeyDown,
	"ArrowLeft":  KeyLeft,
	"ArrowRight": KeyRight,
	"Enter":      KeyEnter,
	"Escape":     KeyEscape,
	"Backspace":  KeyBackspace,
	"Tab":        KeyTab,
	"Delete":     KeyDelete,
	"Home":       KeyHome,
	"End":        KeyEnd,
	"PageUp":     KeyPageUp,
	"PageDown":   KeyPageDown,
	"F1":         KeyF1,
	"F2":         KeyF2,
	"F3":         KeyF3,
}

// Browser MouseEvent.button values, by position.
var streamButtons = [...]PointerButton{ButtonLeft, ButtonMiddle, ButtonRight}

const maxStreamSide = 4096

func (h *hostHAL) applyStreamEvent(ev streamEvent) {
	switch ev.Type {
	case "key":
		if code, ok := streamKeys[ev.Key]; ok {
			h.kbd.emit(KeyEvent{Code: code, Press: ev.Press})
			return
		}
		if r := []rune(ev.Key); len(r) == 1 && ev.Press {
			h.kbd.emit(KeyEvent{Press: true, Rune: r[0]})
		}

	case "pointer":
		// DOM buttons bits match PointerButton: 1 left, 2 right, 4 middle.
		held := PointerButton(ev.Buttons) & (ButtonLeft | ButtonRight | ButtonMiddle)
		pe := PointerEvent{Buttons: held, X: ev.X, Y: ev.Y}
		switch ev.Action {
		case "move":
			pe.Action = PointerMove
		case "wheel":
			pe.Action = PointerWheel
			pe.WheelY = ev.Wheel
		case "press", "release":
			if ev.Button < 0 || ev.Button >= len(streamButtons) {
				return
			}
			pe.Action = PointerPress
			if ev.Action == "release" {
				pe.Action = PointerRelease
			}
			pe.Buttons = streamButtons[ev.Button]
		default:
			return
		}
		h.ptr.emit(pe)

	case "resize":
		if ev.W <= 0 || ev.H <= 0 {
			return
		}
		h.resize(min(ev.W, maxStreamSide), min(ev.H, maxStreamSide))
	}
}
