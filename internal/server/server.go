// Package server exposes a PCD8544 display over HTTP.
package server

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"sync"

	"github.com/Jeffail/gabs/v2"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"periph.io/x/devices/v3/pcd8544"
	"periph.io/x/devices/v3/pcd8544/image1bit"
)

// Server serializes access to one display and serves the control API.
type Server struct {
	mu  sync.Mutex
	dev *pcd8544.Dev

	subsMu sync.Mutex
	subs   map[chan []byte]struct{}

	upgrader websocket.Upgrader
	router   *mux.Router
	log      *zap.SugaredLogger
}

// New returns a Server for dev. The caller must not use dev directly
// afterwards; go through Do instead.
func New(dev *pcd8544.Dev, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		dev:  dev,
		subs: map[chan []byte]struct{}{},
		log:  logger.Sugar().Named("server"),
	}

	r := mux.NewRouter()
	r.Path("/pixel").Methods(http.MethodPost).HandlerFunc(s.setPixel)
	r.Path("/pixel").Methods(http.MethodGet).HandlerFunc(s.getPixel)
	r.Path("/text").Methods(http.MethodPost).HandlerFunc(s.drawText)
	r.Path("/fill").Methods(http.MethodPost).HandlerFunc(s.fill)
	r.Path("/contrast").Methods(http.MethodPost).HandlerFunc(s.contrast)
	r.Path("/invert").Methods(http.MethodPost).HandlerFunc(s.invert)
	r.Path("/frame").Methods(http.MethodGet).HandlerFunc(s.frame)
	r.Path("/ws").HandlerFunc(s.stream)
	r.Path("/metrics").Handler(promhttp.Handler())
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Do runs fn with exclusive access to the display and then pushes the
// resulting frame to the websocket subscribers. Frames are published under
// the display lock, so subscribers see them in the order the changes were
// made.
func (s *Server) Do(fn func(d *pcd8544.Dev) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := fn(s.dev)
	s.publish(s.dev.Frame())
	return err
}

// publish never blocks: each subscriber channel holds one frame and only
// publish fills it, always under s.mu.
func (s *Server) publish(frame []byte) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		// Slow subscribers only get the latest frame.
		select {
		case <-ch:
		default:
		}
		ch <- frame
	}
}

func (s *Server) subscribe() chan []byte {
	ch := make(chan []byte, 1)
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan []byte) {
	s.subsMu.Lock()
	delete(s.subs, ch)
	s.subsMu.Unlock()
}

func (s *Server) setPixel(w http.ResponseWriter, r *http.Request) {
	body, ok := s.parse(w, r)
	if !ok {
		return
	}
	x, err := intField(body, "x")
	if err != nil {
		s.fail(w, err)
		return
	}
	y, err := intField(body, "y")
	if err != nil {
		s.fail(w, err)
		return
	}
	on, err := boolField(body, "on")
	if err != nil {
		s.fail(w, err)
		return
	}

	err = s.Do(func(d *pcd8544.Dev) error {
		return d.SetPixel(x, y, on)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getPixel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, err := strconv.Atoi(q.Get("x"))
	if err != nil {
		s.fail(w, fmt.Errorf("%w: x: %w", errBadRequest, err))
		return
	}
	y, err := strconv.Atoi(q.Get("y"))
	if err != nil {
		s.fail(w, fmt.Errorf("%w: y: %w", errBadRequest, err))
		return
	}
	if _, ok := pcd8544.PixelIndex(x, y); !ok {
		s.fail(w, fmt.Errorf("%w: pixel (%d, %d)", pcd8544.ErrOutOfRange, x, y))
		return
	}

	s.mu.Lock()
	on := s.dev.Pixel(x, y)
	s.mu.Unlock()

	resp := gabs.New()
	resp.Set(x, "x")
	resp.Set(y, "y")
	resp.Set(on, "on")
	s.reply(w, resp)
}

func (s *Server) drawText(w http.ResponseWriter, r *http.Request) {
	body, ok := s.parse(w, r)
	if !ok {
		return
	}
	x, err := intField(body, "x")
	if err != nil {
		s.fail(w, err)
		return
	}
	page, err := intField(body, "page")
	if err != nil {
		s.fail(w, err)
		return
	}
	text, ok := body.Path("text").Data().(string)
	if !ok {
		s.fail(w, fmt.Errorf("%w: text must be a string", errBadRequest))
		return
	}
	large := false
	if body.Exists("large") {
		if large, err = boolField(body, "large"); err != nil {
			s.fail(w, err)
			return
		}
	}

	var n int
	err = s.Do(func(d *pcd8544.Dev) error {
		var err error
		n, err = d.DrawText(x, page, text, large)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	resp := gabs.New()
	resp.Set(n, "drawn")
	s.reply(w, resp)
}

func (s *Server) fill(w http.ResponseWriter, r *http.Request) {
	body, ok := s.parse(w, r)
	if !ok {
		return
	}
	v, err := byteField(body, "value")
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Do(func(d *pcd8544.Dev) error { return d.Fill(v) }); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) contrast(w http.ResponseWriter, r *http.Request) {
	body, ok := s.parse(w, r)
	if !ok {
		return
	}
	v, err := byteField(body, "value")
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Do(func(d *pcd8544.Dev) error { return d.SetContrast(v) }); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) invert(w http.ResponseWriter, r *http.Request) {
	body, ok := s.parse(w, r)
	if !ok {
		return
	}
	on, err := boolField(body, "on")
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Do(func(d *pcd8544.Dev) error { return d.Invert(on) }); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) frame(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	frame := s.dev.Frame()
	s.mu.Unlock()

	switch format := r.URL.Query().Get("format"); format {
	case "", "raw":
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(frame)
	case "png":
		img := &image1bit.VerticalLSB{
			Pix:    frame,
			Stride: pcd8544.Width,
			Rect:   image.Rect(0, 0, pcd8544.Width, pcd8544.Height),
		}
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, img); err != nil {
			s.log.Warnw("unable to encode frame", "err", err)
		}
	default:
		s.fail(w, fmt.Errorf("%w: unknown format %q", errBadRequest, format))
	}
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debugw("websocket upgrade failed", "err", err)
		return
	}
	defer c.Close()

	ch := s.subscribe()
	defer s.unsubscribe(ch)
	s.log.Debugw("client connected", "remote", r.RemoteAddr)

	// Incoming messages are ignored; reading is how a close is noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.mu.Lock()
	frame := s.dev.Frame()
	s.mu.Unlock()

	for {
		if err := c.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			s.log.Debugw("client disconnected", "err", err)
			return
		}
		select {
		case <-done:
			s.log.Debugw("client disconnected", "remote", r.RemoteAddr)
			return
		case frame = <-ch:
		}
	}
}

var errBadRequest = errors.New("bad request")

func (s *Server) parse(w http.ResponseWriter, r *http.Request) (*gabs.Container, bool) {
	body, err := gabs.ParseJSONBuffer(r.Body)
	r.Body.Close()
	if err != nil {
		s.fail(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return nil, false
	}
	return body, true
}

func (s *Server) reply(w http.ResponseWriter, c *gabs.Container) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(c.Bytes())
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, pcd8544.ErrOutOfRange), errors.Is(err, pcd8544.ErrInvalidLayout):
		status = http.StatusBadRequest
	case errors.Is(err, pcd8544.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	default:
		s.log.Warnw("display error", "err", err)
	}

	resp := gabs.New()
	resp.Set(err.Error(), "error")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(resp.Bytes())
}

func intField(c *gabs.Container, name string) (int, error) {
	v, ok := c.Path(name).Data().(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, name)
	}
	if v != float64(int(v)) {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return int(v), nil
}

func byteField(c *gabs.Container, name string) (byte, error) {
	v, err := intField(c, name)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 0xFF {
		return 0, fmt.Errorf("%w: %s must be between 0 and 255", errBadRequest, name)
	}
	return byte(v), nil
}

func boolField(c *gabs.Container, name string) (bool, error) {
	v, ok := c.Path(name).Data().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a boolean", errBadRequest, name)
	}
	return v, nil
}

// Display is a view of the served display that takes the lock for each call,
// so long running clients such as scripts do not starve the HTTP handlers.
type Display struct {
	s *Server
}

// Display returns a locking view of the display.
func (s *Server) Display() Display {
	return Display{s: s}
}

func (d Display) SetPixel(x, y int, on bool) error {
	return d.s.Do(func(dev *pcd8544.Dev) error { return dev.SetPixel(x, y, on) })
}

func (d Display) Pixel(x, y int) bool {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	return d.s.dev.Pixel(x, y)
}

func (d Display) DrawText(x, page int, s string, large bool) (int, error) {
	var n int
	err := d.s.Do(func(dev *pcd8544.Dev) error {
		var err error
		n, err = dev.DrawText(x, page, s, large)
		return err
	})
	return n, err
}

func (d Display) Fill(v byte) error {
	return d.s.Do(func(dev *pcd8544.Dev) error { return dev.Fill(v) })
}

func (d Display) SetContrast(v byte) error {
	return d.s.Do(func(dev *pcd8544.Dev) error { return dev.SetContrast(v) })
}

func (d Display) Invert(invert bool) error {
	return d.s.Do(func(dev *pcd8544.Dev) error { return dev.Invert(invert) })
}
