package pcd8544

import (
	"bytes"
	"errors"
	"testing"
)

func TestPixelIndex(t *testing.T) {
	tests := []struct {
		x, y   int
		want   int
		wantOK bool
	}{
		{0, 0, 0, true},
		{83, 0, 83, true},
		{0, 7, 0, true},
		{0, 8, 84, true},
		{10, 20, 178, true},
		{83, 47, 503, true},
		{84, 0, 0, false},
		{-1, 0, 0, false},
		{0, 48, 0, false},
		{0, -1, 0, false},
	}

	for _, tt := range tests {
		got, ok := PixelIndex(tt.x, tt.y)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("PixelIndex(%d, %d) = (%d, %v), want (%d, %v)", tt.x, tt.y, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSetPosition(t *testing.T) {
	dev, sim := newDev(t, nil)
	if err := dev.SetPosition(10, 2); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	if got := dev.Cursor(); got != 178 {
		t.Errorf("Cursor() = %d, want 178", got)
	}
	ops := sim.Ops()
	if len(ops) != 1 || !ops[0].Command || !bytes.Equal(ops[0].W, []byte{0x42, 0x8A}) {
		t.Errorf("SetPosition() sent %+v, want one command 42 8A", ops)
	}
	if x, y := sim.Address(); x != 10 || y != 2 {
		t.Errorf("controller address = (%d, %d), want (10, 2)", x, y)
	}
}

func TestSetPositionOutOfRange(t *testing.T) {
	tests := []struct {
		name    string
		x, page int
	}{
		{"x = 84", 84, 0},
		{"x negative", -1, 0},
		{"page 6", 0, 6},
		{"page negative", 0, -1},
		{"both", 127, 7},
	}

	dev, sim := newDev(t, nil)
	if err := dev.SetPosition(3, 1); err != nil {
		t.Fatal(err)
	}
	sim.ClearOps()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := dev.SetPosition(tt.x, tt.page); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("SetPosition(%d, %d) error = %v, want ErrOutOfRange", tt.x, tt.page, err)
			}
			if got := dev.Cursor(); got != 87 {
				t.Errorf("Cursor() = %d, want it unchanged at 87", got)
			}
		})
	}
	if len(sim.Ops()) != 0 {
		t.Error("rejected positions should not touch the bus")
	}
	if sim.Faults() != 0 {
		t.Errorf("controller saw %d invalid addresses", sim.Faults())
	}
}

func TestWriteBlockBounds(t *testing.T) {
	dev, sim := newDev(t, nil)
	if err := dev.SetPosition(80, 5); err != nil {
		t.Fatal(err)
	}
	sim.ClearOps()

	if err := dev.writeBlock(make([]byte, 5)); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("writeBlock() past the end error = %v, want ErrOutOfRange", err)
	}
	if len(sim.Ops()) != 0 {
		t.Error("rejected block should not touch the bus")
	}

	if err := dev.writeBlock([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("writeBlock() error = %v", err)
	}
	if got := dev.Cursor(); got != 0 {
		t.Errorf("Cursor() = %d, want 0 after reaching the end", got)
	}
	if x, y := sim.Address(); x != 0 || y != 0 {
		t.Errorf("controller address = (%d, %d), want (0, 0)", x, y)
	}
	checkShadow(t, dev, sim)
}

func TestWriteBlockAdvancesLikeController(t *testing.T) {
	dev, sim := newDev(t, nil)
	if err := dev.SetPosition(76, 0); err != nil {
		t.Fatal(err)
	}
	if err := dev.writeBlock(bytes.Repeat([]byte{0xAA}, 12)); err != nil {
		t.Fatal(err)
	}

	x, y := sim.Address()
	if got := y*Width + x; got != dev.Cursor() {
		t.Errorf("Cursor() = %d, controller is at %d", dev.Cursor(), got)
	}
	checkShadow(t, dev, sim)
}

func TestWriteBlockTransportFailure(t *testing.T) {
	dev, sim := newDev(t, nil)
	if err := dev.SetPosition(0, 0); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	dev.c = &dataFailConn{Conn: dev.c, dc: sim.DC(), err: boom}

	if err := dev.writeBlock([]byte{0xFF}); !errors.Is(err, boom) {
		t.Errorf("writeBlock() error = %v, want %v", err, boom)
	}
	if dev.Frame()[0] != 0 {
		t.Error("shadow buffer changed although the transfer failed")
	}
	if got := dev.Cursor(); got != 0 {
		t.Errorf("Cursor() = %d, want 0", got)
	}
}
