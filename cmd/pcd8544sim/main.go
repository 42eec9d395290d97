// Command pcd8544sim shows the PCD8544 emulator in a window and serves it
// over HTTP, so clients of pcd8544d can be tried without hardware.
//
// Keys: I toggles inverse video, C clears the display, Escape quits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"net/http"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
	"periph.io/x/devices/v3/pcd8544"
	"periph.io/x/devices/v3/pcd8544/internal/script"
	"periph.io/x/devices/v3/pcd8544/internal/server"
	"periph.io/x/devices/v3/pcd8544/pcd8544sim"
)

const border = 4

// App is the ebiten game showing the emulated glass.
type App struct {
	sim *pcd8544sim.Controller
	srv *server.Server
	log *zap.SugaredLogger

	tex      *ebiten.Image
	inverted bool
}

func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		a.inverted = !a.inverted
		inv := a.inverted
		if err := a.srv.Do(func(d *pcd8544.Dev) error { return d.Invert(inv) }); err != nil {
			a.log.Warnw("invert failed", "err", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		if err := a.srv.Do(func(d *pcd8544.Dev) error { return d.Fill(0) }); err != nil {
			a.log.Warnw("clear failed", "err", err)
		}
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(color.Gray{Y: 0xC8})
	if a.tex == nil {
		a.tex = ebiten.NewImage(pcd8544.Width, pcd8544.Height)
	}
	a.tex.WritePixels(toRGBA(a.sim))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(border, border)
	screen.DrawImage(a.tex, op)
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return pcd8544.Width + 2*border, pcd8544.Height + 2*border
}

// toRGBA returns the glass image in the layout WritePixels expects.
func toRGBA(sim *pcd8544sim.Controller) []byte {
	img := sim.Image()
	pix := make([]byte, 0, 4*len(img.Pix))
	for _, y := range img.Pix {
		pix = append(pix, y, y, y, 0xFF)
	}
	return pix
}

func main() {
	scale := flag.Int("scale", 6, "window scale")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	scriptPath := flag.String("script", "", "Lua script to run at start-up")
	debug := flag.Bool("debug", false, "development logging")
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	sim := pcd8544sim.New()
	dev, err := pcd8544.NewSPI(sim, sim.DC(), &pcd8544.Opts{Logger: logger})
	if err != nil {
		log.Fatalw("unable to initialize display", "err", err)
	}
	srv := server.New(dev, logger)

	if *scriptPath != "" {
		src, err := os.ReadFile(*scriptPath)
		if err != nil {
			log.Fatalw("unable to read script", "err", err)
		}
		go func() {
			if err := script.Run(context.Background(), srv.Display(), string(src)); err != nil {
				log.Warnw("script failed", "script", *scriptPath, "err", err)
			}
		}()
	}

	go func() {
		log.Infow("serving", "addr", *addr)
		if err := http.ListenAndServe(*addr, srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("http server stopped", "err", err)
		}
	}()

	ebiten.SetWindowTitle("pcd8544sim")
	ebiten.SetWindowSize((pcd8544.Width+2*border)**scale, (pcd8544.Height+2*border)**scale)
	app := &App{sim: sim, srv: srv, log: log}
	if err := ebiten.RunGame(app); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Errorw("window closed", "err", err)
	}
	if err := srv.Do(func(d *pcd8544.Dev) error { return d.Halt() }); err != nil {
		log.Warnw("halt failed", "err", err)
	}
}
