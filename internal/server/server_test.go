package server

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Jeffail/gabs/v2"
	"github.com/gorilla/websocket"
	"periph.io/x/devices/v3/pcd8544"
	"periph.io/x/devices/v3/pcd8544/internal/script"
	"periph.io/x/devices/v3/pcd8544/pcd8544sim"
)

func newServer(t *testing.T) (*Server, *pcd8544sim.Controller) {
	t.Helper()
	sim := pcd8544sim.New()
	dev, err := pcd8544.NewSPI(sim, sim.DC(), nil)
	if err != nil {
		t.Fatalf("NewSPI() error = %v", err)
	}
	return New(dev, nil), sim
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSetPixel(t *testing.T) {
	s, sim := newServer(t)

	rec := do(t, s, http.MethodPost, "/pixel", `{"x": 10, "y": 20, "on": true}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("POST /pixel = %d, want %d: %s", rec.Code, http.StatusNoContent, rec.Body)
	}
	if got := sim.Memory()[178]; got != 0x10 {
		t.Errorf("display byte 178 = 0x%02X, want 0x10", got)
	}

	rec = do(t, s, http.MethodGet, "/pixel?x=10&y=20", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /pixel = %d, want %d", rec.Code, http.StatusOK)
	}
	body, err := gabs.ParseJSON(rec.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if on, _ := body.Path("on").Data().(bool); !on {
		t.Errorf("GET /pixel = %s, want on", body)
	}
}

func TestBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"invalid json", http.MethodPost, "/pixel", `{"x":`, http.StatusBadRequest},
		{"missing field", http.MethodPost, "/pixel", `{"x": 1, "on": true}`, http.StatusBadRequest},
		{"fractional coordinate", http.MethodPost, "/pixel", `{"x": 1.5, "y": 1, "on": true}`, http.StatusBadRequest},
		{"pixel out of range", http.MethodPost, "/pixel", `{"x": 84, "y": 0, "on": true}`, http.StatusBadRequest},
		{"query out of range", http.MethodGet, "/pixel?x=0&y=48", "", http.StatusBadRequest},
		{"query not a number", http.MethodGet, "/pixel?x=a&y=0", "", http.StatusBadRequest},
		{"text does not fit", http.MethodPost, "/text", `{"x": 80, "page": 0, "text": "A"}`, http.StatusBadRequest},
		{"text not a string", http.MethodPost, "/text", `{"x": 0, "page": 0, "text": 1}`, http.StatusBadRequest},
		{"fill value too large", http.MethodPost, "/fill", `{"value": 256}`, http.StatusBadRequest},
		{"contrast too large", http.MethodPost, "/contrast", `{"value": 200}`, http.StatusBadRequest},
		{"invert not a boolean", http.MethodPost, "/invert", `{"on": 1}`, http.StatusBadRequest},
		{"unknown frame format", http.MethodGet, "/frame?format=bmp", "", http.StatusBadRequest},
		{"wrong method", http.MethodDelete, "/fill", "", http.StatusMethodNotAllowed},
	}

	s, _ := newServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d: %s", tt.method, tt.target, rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestDrawText(t *testing.T) {
	s, _ := newServer(t)

	rec := do(t, s, http.MethodPost, "/text", `{"x": 0, "page": 1, "text": "Hello, world", "large": false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /text = %d: %s", rec.Code, rec.Body)
	}
	body, err := gabs.ParseJSON(rec.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := body.Path("drawn").Data().(float64); n != 10 {
		t.Errorf("drawn = %v, want 10", body.Path("drawn").Data())
	}
}

func TestFillContrastInvert(t *testing.T) {
	s, sim := newServer(t)

	if rec := do(t, s, http.MethodPost, "/fill", `{"value": 255}`); rec.Code != http.StatusNoContent {
		t.Fatalf("POST /fill = %d: %s", rec.Code, rec.Body)
	}
	if !bytes.Equal(sim.Memory(), bytes.Repeat([]byte{0xFF}, pcd8544.BufferSize)) {
		t.Error("display memory is not filled")
	}

	if rec := do(t, s, http.MethodPost, "/contrast", `{"value": 64}`); rec.Code != http.StatusNoContent {
		t.Fatalf("POST /contrast = %d: %s", rec.Code, rec.Body)
	}
	if got := sim.Contrast(); got != 64 {
		t.Errorf("Contrast() = %d, want 64", got)
	}

	if rec := do(t, s, http.MethodPost, "/invert", `{"on": true}`); rec.Code != http.StatusNoContent {
		t.Fatalf("POST /invert = %d: %s", rec.Code, rec.Body)
	}
	if sim.Mode() != pcd8544sim.Inverse {
		t.Errorf("Mode() = %v, want inverse", sim.Mode())
	}
}

func TestFrame(t *testing.T) {
	s, _ := newServer(t)
	do(t, s, http.MethodPost, "/pixel", `{"x": 0, "y": 0, "on": true}`)

	rec := do(t, s, http.MethodGet, "/frame", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /frame = %d", rec.Code)
	}
	frame := rec.Body.Bytes()
	if len(frame) != pcd8544.BufferSize || frame[0] != 0x01 {
		t.Errorf("GET /frame returned %d bytes starting with 0x%02X", len(frame), frame[0])
	}

	rec = do(t, s, http.MethodGet, "/frame?format=png", "")
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", got)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != pcd8544.Width || b.Dy() != pcd8544.Height {
		t.Errorf("PNG bounds = %v", b)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r != 0 {
		t.Error("pixel (0, 0) should be black in the PNG")
	}
	if r, _, _, _ := img.At(1, 0).RGBA(); r != 0xFFFF {
		t.Error("pixel (1, 0) should be white in the PNG")
	}
}

func TestHalted(t *testing.T) {
	s, _ := newServer(t)
	if err := s.Do(func(d *pcd8544.Dev) error { return d.Halt() }); err != nil {
		t.Fatal(err)
	}
	rec := do(t, s, http.MethodPost, "/fill", `{"value": 0}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("POST /fill on a halted display = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestMetrics(t *testing.T) {
	s, _ := newServer(t)
	rec := do(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{"pcd8544_transactions_total", "pcd8544_data_bytes_total"} {
		if !bytes.Contains(body, []byte(name)) {
			t.Errorf("GET /metrics does not expose %s", name)
		}
	}
}

func TestStream(t *testing.T) {
	s, _ := newServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()

	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	kind, frame, err := c.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if kind != websocket.BinaryMessage || len(frame) != pcd8544.BufferSize {
		t.Fatalf("first message: type %d, %d bytes", kind, len(frame))
	}

	resp, err := http.Post(ts.URL+"/pixel", "application/json", strings.NewReader(`{"x": 3, "y": 9, "on": true}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	_, frame, err = c.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if frame[pcd8544.Width+3] != 0x02 {
		t.Errorf("streamed byte %d = 0x%02X, want 0x02", pcd8544.Width+3, frame[pcd8544.Width+3])
	}
}

func TestPublishOrder(t *testing.T) {
	s, sim := newServer(t)
	ch := s.subscribe()
	defer s.unsubscribe(ch)

	var wg sync.WaitGroup
	for x := 0; x < pcd8544.Width; x++ {
		wg.Add(1)
		go func(x int) {
			defer wg.Done()
			if err := s.Display().SetPixel(x, 0, true); err != nil {
				t.Errorf("SetPixel(%d, 0) error = %v", x, err)
			}
		}(x)
	}
	wg.Wait()

	// Only the newest frame is kept, and it must be the final one.
	select {
	case frame := <-ch:
		if !bytes.Equal(frame, sim.Memory()) {
			t.Error("the last published frame is not the display's current content")
		}
	default:
		t.Fatal("nothing was published")
	}
}

func TestDisplayRunsScripts(t *testing.T) {
	s, sim := newServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()

	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()
	if _, _, err := c.ReadMessage(); err != nil {
		t.Fatal(err)
	}

	src := `
		pixel(0, 0, true)
		if not get_pixel(0, 0) then error("pixel not set") end
		text(8, 0, "A")
		contrast(50)
		invert(false)
		fill(0)
	`
	if err := script.Run(context.Background(), s.Display(), src); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !bytes.Equal(sim.Memory(), make([]byte, pcd8544.BufferSize)) {
		t.Error("display should be cleared by the script")
	}
	if got := sim.Contrast(); got != 50 {
		t.Errorf("Contrast() = %d, want 50", got)
	}

	// Every call is published; the subscriber ends up with the last frame.
	_, frame, err := c.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if len(frame) != pcd8544.BufferSize {
		t.Errorf("streamed %d bytes, want %d", len(frame), pcd8544.BufferSize)
	}
}
