package pcd8544

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/pcd8544/font"
	"periph.io/x/devices/v3/pcd8544/image1bit"
)

// Command set. The function set and display control commands are valid in
// both instruction sets, the others only in the one noted.
const (
	cmdFunctionSet = 0x20
	fnPowerDown    = 0x04
	fnVertical     = 0x02
	fnExtended     = 0x01

	// Basic instruction set.
	cmdDisplayControl = 0x08
	displayBlank      = 0x00
	displayAllOn      = 0x01
	displayNormal     = 0x04
	displayInverse    = 0x05
	cmdSetY           = 0x40
	cmdSetX           = 0x80

	// Extended instruction set.
	cmdTempCoeff = 0x04
	cmdBias      = 0x10
	cmdSetVop    = 0x80
)

const (
	// DefaultSpeed is the serial clock used when Opts.Speed is zero. It is
	// also the fastest the controller supports.
	DefaultSpeed = 4 * physic.MegaHertz
	// DefaultContrast is the operating voltage setting used when
	// Opts.Contrast is zero.
	DefaultContrast = 0x24
	// DefaultBias is the bias system setting (1:48) used when Opts.Bias is
	// zero.
	DefaultBias = 4
)

// Pins are Raspberry Pi header pin numbers, as printed on the board (1-40).
// Zero leaves a line unconnected. DC is required.
type Pins struct {
	DC    int
	Reset int
	LED   int
}

// Opts is the configuration for the PCD8544 display.
type Opts struct {
	// Serial clock (default: 4MHz)
	Speed physic.Frequency

	// Controller settings
	Contrast  byte // Vop, 0x01-0x7F (default: 0x24)
	Bias      byte // 1-7 (default: 4)
	TempCoeff byte // 0-3

	// Optional control lines for NewSPI
	RST gpio.PinOut // Reset, pulsed during initialization
	LED gpio.PinOut // Backlight, active-low

	// Used by Open only
	Channel int  // SPI0 chip select
	Pins    Pins // Header pins of the control lines

	Fonts   *font.Store      // Glyphs (default: font.Default())
	Charset *charmap.Charmap // Text encoding for DrawText (default: ISO-8859-1)
	Logger  *zap.Logger      // (default: no logging)
}

// Dev is the device handle for the PCD8544 display.
//
// It is not safe for concurrent use.
type Dev struct {
	// Communication
	c    conn.Conn
	dc   gpio.PinOut
	rst  gpio.PinOut
	led  gpio.PinOut
	port io.Closer // Set when the port was opened by Open

	// Shadow copy of the display memory and the controller's write address
	buffer *image1bit.VerticalLSB
	cursor int

	fonts   *font.Store
	charset *charmap.Charmap
	log     *zap.SugaredLogger

	initialized bool
}

// NewSPI creates a new PCD8544 device connected via SPI.
//
// The SPI port is configured for Opts.Speed, Mode0, 8-bit transfers. dc is
// the Data/Command line: low for commands, high for display data.
//
// opts can be nil to use defaults.
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	if dc == nil {
		return nil, fmt.Errorf("%w: a D/C line is required", ErrInvalidPin)
	}
	if opts.Contrast > 0x7F {
		return nil, fmt.Errorf("%w: contrast 0x%02X", ErrOutOfRange, opts.Contrast)
	}
	if opts.Bias > 7 {
		return nil, fmt.Errorf("%w: bias %d", ErrOutOfRange, opts.Bias)
	}
	if opts.TempCoeff > 3 {
		return nil, fmt.Errorf("%w: temperature coefficient %d", ErrOutOfRange, opts.TempCoeff)
	}

	speed := opts.Speed
	if speed == 0 {
		speed = DefaultSpeed
	}
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dev{
		c:       c,
		dc:      dc,
		rst:     opts.RST,
		led:     opts.LED,
		buffer:  image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height)),
		fonts:   opts.Fonts,
		charset: opts.Charset,
		log:     logger.Sugar().Named("pcd8544"),
	}
	if d.fonts == nil {
		d.fonts = font.Default()
	}
	if d.charset == nil {
		d.charset = charmap.ISO8859_1
	}

	if err := d.init(opts); err != nil {
		return nil, err
	}
	d.log.Debugw("initialized", "conn", c.String(), "speed", speed.String())
	return d, nil
}

// init resets the controller, sends the initialization sequence and clears
// the display memory.
func (d *Dev) init(opts *Opts) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("pcd8544: failed to drive RST high: %w", err)
		}
		time.Sleep(50 * time.Millisecond)
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("pcd8544: failed to pull RST low: %w", err)
		}
		time.Sleep(5 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("pcd8544: failed to release RST: %w", err)
		}
	}
	if err := d.backlight(true); err != nil {
		return err
	}

	vop := opts.Contrast
	if vop == 0 {
		vop = DefaultContrast
	}
	bias := opts.Bias
	if bias == 0 {
		bias = DefaultBias
	}
	cmds := []byte{
		cmdFunctionSet | fnExtended,
		cmdSetVop | vop,
		cmdTempCoeff | opts.TempCoeff,
		cmdBias | bias,
		cmdFunctionSet,
		cmdDisplayControl | displayNormal,
	}
	if err := d.sendCommands(cmds); err != nil {
		return err
	}

	d.initialized = true
	if err := d.Fill(0); err != nil {
		d.initialized = false
		return err
	}
	return nil
}

// sendCommands sends a slice of command bytes in one transaction.
func (d *Dev) sendCommands(cmds []byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return fmt.Errorf("pcd8544: failed to select command mode: %w", err)
	}
	if err := d.c.Tx(cmds, nil); err != nil {
		return fmt.Errorf("pcd8544: command write failed: %w", err)
	}
	commandTransactions.Inc()
	return nil
}

// sendData sends a slice of display data bytes in one transaction.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("pcd8544: failed to select data mode: %w", err)
	}
	if err := d.c.Tx(data, nil); err != nil {
		return fmt.Errorf("pcd8544: data write failed: %w", err)
	}
	dataTransactions.Inc()
	dataBytes.Add(float64(len(data)))
	return nil
}

// backlight drives the LED line, which is active-low.
func (d *Dev) backlight(on bool) error {
	if d.led == nil {
		return nil
	}
	l := gpio.High
	if on {
		l = gpio.Low
	}
	if err := d.led.Out(l); err != nil {
		return fmt.Errorf("pcd8544: failed to drive LED: %w", err)
	}
	return nil
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, Width, Height)
}

// Backlight turns the backlight on or off. It does nothing when no LED line
// is configured.
func (d *Dev) Backlight(on bool) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	return d.backlight(on)
}

// SetContrast sets the operating voltage (0x00-0x7F).
func (d *Dev) SetContrast(v byte) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if v > 0x7F {
		return fmt.Errorf("%w: contrast 0x%02X", ErrOutOfRange, v)
	}
	return d.sendCommands([]byte{cmdFunctionSet | fnExtended, cmdSetVop | v, cmdFunctionSet})
}

// Invert switches between normal and inverse video.
func (d *Dev) Invert(invert bool) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	mode := byte(displayNormal)
	if invert {
		mode = displayInverse
	}
	return d.sendCommands([]byte{cmdDisplayControl | mode})
}

// Halt turns the backlight off and powers the controller down. The SPI port is
// closed when the Dev was created by Open.
//
// The Dev is unusable afterwards; calling Halt again does nothing.
func (d *Dev) Halt() error {
	if !d.initialized {
		return nil
	}
	d.initialized = false
	err := errors.Join(
		d.backlight(false),
		d.sendCommands([]byte{cmdFunctionSet | fnPowerDown}),
	)
	if d.port != nil {
		err = errors.Join(err, d.port.Close())
		d.port = nil
	}
	if err != nil {
		d.log.Warnw("halt", "error", err)
	}
	return err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("pcd8544.Dev{%dx%d}", Width, Height)
}

var _ display.Drawer = (*Dev)(nil)
