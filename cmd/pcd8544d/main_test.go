package main

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"periph.io/x/devices/v3/pcd8544"
	"periph.io/x/devices/v3/pcd8544/pcd8544sim"
)

func TestServeHaltsOnEarlyError(t *testing.T) {
	sim := pcd8544sim.New()
	dev, err := pcd8544.NewSPI(sim, sim.DC(), nil)
	if err != nil {
		t.Fatalf("NewSPI() error = %v", err)
	}

	f := flags{Addr: "127.0.0.1:0", Script: filepath.Join(t.TempDir(), "missing.lua")}
	err = serve(context.Background(), f, dev, zap.NewNop())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("serve() error = %v, want fs.ErrNotExist", err)
	}
	if !sim.PoweredDown() {
		t.Error("the display should be powered down after serve() returns")
	}
	if err := dev.Fill(0); !errors.Is(err, pcd8544.ErrNotInitialized) {
		t.Errorf("Fill() after serve() error = %v, want ErrNotInitialized", err)
	}
}

func TestServeHaltsOnShutdown(t *testing.T) {
	sim := pcd8544sim.New()
	dev, err := pcd8544.NewSPI(sim, sim.DC(), nil)
	if err != nil {
		t.Fatalf("NewSPI() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := serve(ctx, flags{Addr: "127.0.0.1:0"}, dev, zap.NewNop()); err != nil {
		t.Errorf("serve() error = %v", err)
	}
	if !sim.PoweredDown() {
		t.Error("the display should be powered down after serve() returns")
	}
}

func TestLookupCharset(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"ISO 8859-1", false},
		{"iso 8859-15", false},
		{"Windows 1252", false},
		{"klingon", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm, err := lookupCharset(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("lookupCharset(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && cm == nil {
				t.Errorf("lookupCharset(%q) returned no charmap", tt.name)
			}
		})
	}
}
