// Command pcd8544d serves a PCD8544 display over HTTP.
//
// It drives a display wired to a Raspberry Pi, or the emulator with -sim, and
// can run a Lua script before it starts serving:
//
//	pcd8544d -dc 18 -rst 22 -led 13 -script hello.lua -addr :8080
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"periph.io/x/devices/v3/pcd8544"
	"periph.io/x/devices/v3/pcd8544/font"
	"periph.io/x/devices/v3/pcd8544/internal/preview"
	"periph.io/x/devices/v3/pcd8544/internal/script"
	"periph.io/x/devices/v3/pcd8544/internal/server"
	"periph.io/x/devices/v3/pcd8544/pcd8544sim"
)

type flags struct {
	Addr     string
	Sim      bool
	Channel  int
	DC       int
	Reset    int
	LED      int
	Contrast int
	Script   string
	Font     string
	Charset  string
	Preview  bool
	Debug    bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.Addr, "addr", ":8080", "HTTP listen address")
	flag.BoolVar(&f.Sim, "sim", false, "drive the emulator instead of hardware")
	flag.IntVar(&f.Channel, "channel", 0, "SPI0 chip select")
	flag.IntVar(&f.DC, "dc", 18, "header pin of the D/C line")
	flag.IntVar(&f.Reset, "rst", 22, "header pin of the reset line (0 if not connected)")
	flag.IntVar(&f.LED, "led", 13, "header pin of the backlight (0 if not connected)")
	flag.IntVar(&f.Contrast, "contrast", pcd8544.DefaultContrast, "operating voltage, 1-127")
	flag.StringVar(&f.Script, "script", "", "Lua script to run at start-up")
	flag.StringVar(&f.Font, "font", "", "PSF console font (8x8) for small text")
	flag.StringVar(&f.Charset, "charset", "ISO 8859-1", "text encoding, as named by golang.org/x/text")
	flag.BoolVar(&f.Preview, "preview", false, "print the frame on stdout after the script ran")
	flag.BoolVar(&f.Debug, "debug", false, "development logging")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	var logger *zap.Logger
	var err error
	if f.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = run(f, logger)
	if err != nil {
		logger.Error("pcd8544d", zap.Error(err))
	}
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(f flags, logger *zap.Logger) error {
	log := logger.Sugar()

	if f.Contrast < 1 || f.Contrast > 0x7F {
		return fmt.Errorf("contrast %d is out of range", f.Contrast)
	}
	cs, err := lookupCharset(f.Charset)
	if err != nil {
		return err
	}
	opts := &pcd8544.Opts{
		Contrast: byte(f.Contrast),
		Channel:  f.Channel,
		Pins:     pcd8544.Pins{DC: f.DC, Reset: f.Reset, LED: f.LED},
		Charset:  cs,
		Logger:   logger,
	}
	if f.Font != "" {
		if opts.Fonts, err = loadFont(f.Font); err != nil {
			return err
		}
	}

	var dev *pcd8544.Dev
	if f.Sim {
		sim := pcd8544sim.New()
		dev, err = pcd8544.NewSPI(sim, sim.DC(), opts)
	} else {
		dev, err = pcd8544.Open(opts)
	}
	if err != nil {
		return err
	}
	log.Infow("display ready", "device", dev.String(), "sim", f.Sim)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, f, dev, logger)
}

// serve runs the start-up script and the HTTP server on an open display. The
// display is halted on every return path.
func serve(ctx context.Context, f flags, dev *pcd8544.Dev, logger *zap.Logger) (err error) {
	log := logger.Sugar()
	srv := server.New(dev, logger)
	defer func() {
		err = errors.Join(err, srv.Do(func(d *pcd8544.Dev) error { return d.Halt() }))
	}()

	if f.Script != "" {
		src, err := os.ReadFile(f.Script)
		if err != nil {
			return err
		}
		if err := script.Run(ctx, srv.Display(), string(src)); err != nil {
			log.Warnw("script failed", "script", f.Script, "err", err)
		}
	}
	if f.Preview {
		err := srv.Do(func(d *pcd8544.Dev) error {
			return preview.Render(os.Stdout, d.Frame())
		})
		if err != nil {
			return err
		}
	}

	hs := &http.Server{Addr: f.Addr, Handler: srv}
	errc := make(chan error, 1)
	go func() {
		log.Infow("serving", "addr", f.Addr)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err = <-errc:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = hs.Shutdown(shutdownCtx)
	}
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return err
}

func lookupCharset(name string) (*charmap.Charmap, error) {
	for _, e := range charmap.All {
		if cm, ok := e.(*charmap.Charmap); ok && strings.EqualFold(cm.String(), name) {
			return cm, nil
		}
	}
	return nil, fmt.Errorf("unknown charset %q", name)
}

func loadFont(path string) (*font.Store, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	small, err := font.LoadPSF(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	large := font.LargeSource()
	return font.New(small, &large), nil
}
