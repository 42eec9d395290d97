// Package pcd8544sim emulates a PCD8544 LCD controller behind an SPI port.
//
// A Controller implements spi.Port, so it can be handed to pcd8544.NewSPI in
// place of a real bus together with its D/C line. It decodes the command set
// and keeps the 504-byte display RAM with the controller's own address
// auto-increment, which makes it possible to check a driver's shadow buffer
// against what the device would actually hold.
package pcd8544sim

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	// Width and Height are the size of the glass in pixels.
	Width  = 84
	Height = 48
	// Pages is the number of 8-pixel horizontal strips in RAM.
	Pages = Height / 8

	// MaxSpeed is the fastest serial clock the controller accepts.
	MaxSpeed = 4 * physic.MegaHertz
)

// DisplayMode is the display control setting (bits D and E).
type DisplayMode byte

const (
	Blank   DisplayMode = 0x00
	AllOn   DisplayMode = 0x01
	Normal  DisplayMode = 0x04
	Inverse DisplayMode = 0x05
)

func (m DisplayMode) String() string {
	switch m {
	case Blank:
		return "blank"
	case AllOn:
		return "all-on"
	case Normal:
		return "normal"
	case Inverse:
		return "inverse"
	}
	return fmt.Sprintf("DisplayMode(%d)", byte(m))
}

// Tx is one recorded transaction.
type Tx struct {
	Command bool   // D/C was low
	W       []byte // bytes written
}

// Controller is an emulated PCD8544.
type Controller struct {
	mu sync.Mutex
	dc *gpiotest.Pin

	connected bool
	fail      error

	ram       [Width * Pages]byte
	x, y      int
	powerDown bool
	vertical  bool
	extended  bool
	mode      DisplayMode
	vop       byte
	bias      byte
	tempCoeff byte
	faults    int

	ops []Tx
}

// New returns a controller in its power-on reset state.
func New() *Controller {
	c := &Controller{dc: &gpiotest.Pin{N: "DC", Num: -1}}
	c.reset()
	return c
}

// DC returns the data/command line. Low selects commands, high selects data.
func (c *Controller) DC() *gpiotest.Pin {
	return c.dc
}

func (c *Controller) String() string {
	return "pcd8544sim"
}

// Connect implements spi.Port.
func (c *Controller) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		return nil, errors.New("pcd8544sim: Connect cannot be called twice")
	}
	if f > MaxSpeed {
		return nil, fmt.Errorf("pcd8544sim: %s exceeds the %s maximum", f, MaxSpeed)
	}
	if mode&0x3 != spi.Mode0 {
		return nil, fmt.Errorf("pcd8544sim: unsupported clock mode %d", int(mode&0x3))
	}
	if bits != 8 {
		return nil, fmt.Errorf("pcd8544sim: unsupported word size %d", bits)
	}
	c.connected = true
	return &simConn{c: c}, nil
}

// Reset puts the controller back in its power-on state, as a pulse on RES
// would. RAM is cleared.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Controller) reset() {
	c.ram = [Width * Pages]byte{}
	c.x, c.y = 0, 0
	c.powerDown = true
	c.vertical = false
	c.extended = false
	c.mode = Blank
	c.vop = 0
	c.bias = 0
	c.tempCoeff = 0
}

// Fail makes every following transaction return err. Pass nil to recover.
func (c *Controller) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = err
}

// Memory returns a copy of the display RAM in page order.
func (c *Controller) Memory() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := make([]byte, len(c.ram))
	copy(m, c.ram[:])
	return m
}

// Address returns the current X (column) and Y (page) address registers.
func (c *Controller) Address() (x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.x, c.y
}

// Contrast returns the operating voltage setting (Vop).
func (c *Controller) Contrast() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vop
}

// Bias returns the bias system setting.
func (c *Controller) Bias() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bias
}

// TempCoeff returns the temperature coefficient setting.
func (c *Controller) TempCoeff() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tempCoeff
}

// PoweredDown reports whether the PD bit is set.
func (c *Controller) PoweredDown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.powerDown
}

// Mode returns the display control setting.
func (c *Controller) Mode() DisplayMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Faults returns the number of address commands that were out of range and
// therefore ignored.
func (c *Controller) Faults() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.faults
}

// Ops returns the transactions recorded so far.
func (c *Controller) Ops() []Tx {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := make([]Tx, len(c.ops))
	copy(ops, c.ops)
	return ops
}

// ClearOps forgets the recorded transactions.
func (c *Controller) ClearOps() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = nil
}

// Image renders what the glass shows: driven pixels are black on a light
// background. Blank mode, all-on mode, inverse mode and power-down are taken
// into account.
func (c *Controller) Image() *image.Gray {
	c.mu.Lock()
	defer c.mu.Unlock()
	img := image.NewGray(image.Rect(0, 0, Width, Height))
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			lit := c.ram[(y/8)*Width+x]&(1<<uint(y%8)) != 0
			switch {
			case c.powerDown || c.mode == Blank:
				lit = false
			case c.mode == AllOn:
				lit = true
			case c.mode == Inverse:
				lit = !lit
			}
			v := color.Gray{Y: 0xC8}
			if lit {
				v = color.Gray{Y: 0x20}
			}
			img.SetGray(x, y, v)
		}
	}
	return img
}

func (c *Controller) tx(w []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	command := c.dc.Read() == gpio.Low
	c.ops = append(c.ops, Tx{Command: command, W: append([]byte(nil), w...)})
	for _, b := range w {
		if command {
			c.command(b)
		} else {
			c.data(b)
		}
	}
	return nil
}

func (c *Controller) command(b byte) {
	if b&0xF8 == 0x20 {
		c.powerDown = b&0x04 != 0
		c.vertical = b&0x02 != 0
		c.extended = b&0x01 != 0
		return
	}
	if c.extended {
		switch {
		case b&0x80 != 0:
			c.vop = b & 0x7F
		case b&0xF8 == 0x10:
			c.bias = b & 0x07
		case b&0xFC == 0x04:
			c.tempCoeff = b & 0x03
		}
		return
	}
	switch {
	case b&0x80 != 0:
		if x := int(b & 0x7F); x < Width {
			c.x = x
		} else {
			c.faults++
		}
	case b&0xF8 == 0x40:
		if y := int(b & 0x07); y < Pages {
			c.y = y
		} else {
			c.faults++
		}
	case b&0xFA == 0x08:
		c.mode = DisplayMode(b & 0x05)
	}
}

func (c *Controller) data(b byte) {
	c.ram[c.y*Width+c.x] = b
	if c.vertical {
		if c.y++; c.y == Pages {
			c.y = 0
			if c.x++; c.x == Width {
				c.x = 0
			}
		}
		return
	}
	if c.x++; c.x == Width {
		c.x = 0
		if c.y++; c.y == Pages {
			c.y = 0
		}
	}
}

// simConn is the spi.Conn returned by Controller.Connect. The controller has
// no output line, so reads are rejected.
type simConn struct {
	c *Controller
}

func (s *simConn) String() string {
	return s.c.String()
}

func (s *simConn) Duplex() conn.Duplex {
	return conn.Half
}

func (s *simConn) Tx(w, r []byte) error {
	if len(r) != 0 {
		return errors.New("pcd8544sim: the controller is write-only")
	}
	return s.c.tx(w)
}

func (s *simConn) TxPackets(p []spi.Packet) error {
	for i := range p {
		if err := s.Tx(p[i].W, p[i].R); err != nil {
			return err
		}
	}
	return nil
}

var _ spi.Port = (*Controller)(nil)
var _ spi.Conn = (*simConn)(nil)
