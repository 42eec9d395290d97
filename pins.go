package pcd8544

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// headerPins maps Raspberry Pi 40-pin header numbers to BCM GPIO names.
// Power and ground pins are empty.
var headerPins = [41]string{
	3:  "GPIO2",
	5:  "GPIO3",
	7:  "GPIO4",
	8:  "GPIO14",
	10: "GPIO15",
	11: "GPIO17",
	12: "GPIO18",
	13: "GPIO27",
	15: "GPIO22",
	16: "GPIO23",
	18: "GPIO24",
	19: "GPIO10",
	21: "GPIO9",
	22: "GPIO25",
	23: "GPIO11",
	24: "GPIO8",
	26: "GPIO7",
	27: "GPIO0",
	28: "GPIO1",
	29: "GPIO5",
	31: "GPIO6",
	32: "GPIO12",
	33: "GPIO13",
	35: "GPIO19",
	36: "GPIO16",
	37: "GPIO26",
	38: "GPIO20",
	40: "GPIO21",
}

// HeaderPinName returns the BCM name of header pin n, or "" when n is not a
// GPIO line.
func HeaderPinName(n int) string {
	if n < 0 || n >= len(headerPins) {
		return ""
	}
	return headerPins[n]
}

// HeaderPin returns the GPIO line on header pin n. The host drivers must be
// loaded.
func HeaderPin(n int) (gpio.PinIO, error) {
	name := HeaderPinName(n)
	if name == "" {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPin, n)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s (header pin %d) is not registered", ErrResourceUnavailable, name, n)
	}
	return p, nil
}

// Open initializes the host drivers and opens a display wired to SPI0 on a
// Raspberry Pi. opts.Channel selects the chip select line and opts.Pins the
// control lines. opts.RST and opts.LED, when set, take precedence over
// opts.Pins.
func Open(opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	}

	o := *opts
	dc, err := HeaderPin(o.Pins.DC)
	if err != nil {
		return nil, fmt.Errorf("pcd8544: DC: %w", err)
	}
	if o.RST == nil && o.Pins.Reset != 0 {
		if o.RST, err = HeaderPin(o.Pins.Reset); err != nil {
			return nil, fmt.Errorf("pcd8544: reset: %w", err)
		}
	}
	if o.LED == nil && o.Pins.LED != 0 {
		if o.LED, err = HeaderPin(o.Pins.LED); err != nil {
			return nil, fmt.Errorf("pcd8544: LED: %w", err)
		}
	}

	name := fmt.Sprintf("SPI0.%d", o.Channel)
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrResourceUnavailable, name, err)
	}
	d, err := NewSPI(p, dc, &o)
	if err != nil {
		p.Close()
		return nil, err
	}
	d.port = p
	return d, nil
}
