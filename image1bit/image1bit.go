// Package image1bit provides a 1-bit image format matching PCD8544 display memory.
//
// Pixels are stored in vertical bytes: each byte covers 8 rows of a single
// column, least significant bit on top.
package image1bit

import (
	"image"
	"image/color"
)

// Bit is a monochrome pixel. On is a dark (driven) pixel on the LCD glass.
type Bit bool

const (
	On  = Bit(true)
	Off = Bit(false)
)

// RGBA returns black for On and white for Off, which is how the LCD looks.
func (c Bit) RGBA() (r, g, b, a uint32) {
	if c {
		return 0, 0, 0, 0xFFFF
	}
	return 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF
}

func (c Bit) String() string {
	if c {
		return "On"
	}
	return "Off"
}

// toBit converts any color.Color to Bit.
func toBit(c color.Color) color.Color {
	if b, ok := c.(Bit); ok {
		return b
	}
	r, g, b, a := c.RGBA()
	if a < 0x8000 {
		return Off
	}
	// Same weights as color.GrayModel. Dark colors light the pixel.
	y := (19595*r + 38470*g + 7471*b + 1<<15) >> 16
	return Bit(y < 0x8000)
}

// BitModel converts colors to Bit.
var BitModel = color.ModelFunc(toBit)

// VerticalLSB is a 1-bit image stored in controller page order.
type VerticalLSB struct {
	Pix    []byte          // Pixel data, one byte per column per page
	Stride int             // Bytes per page (image width)
	Rect   image.Rectangle // Image bounds
}

// NewVerticalLSB creates a new VerticalLSB image with the specified bounds.
// The height must be a multiple of 8.
func NewVerticalLSB(r image.Rectangle) *VerticalLSB {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &VerticalLSB{Rect: r}
	}
	if h%8 != 0 {
		panic("image1bit: height must be a multiple of 8")
	}
	return &VerticalLSB{
		Pix:    make([]byte, w*h/8),
		Stride: w,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *VerticalLSB) ColorModel() color.Model {
	return BitModel
}

// Bounds returns the image bounds.
func (p *VerticalLSB) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
// It implements the image.Image interface.
func (p *VerticalLSB) At(x, y int) color.Color {
	return p.BitAt(x, y)
}

// BitAt returns the Bit of the pixel at (x, y). Pixels outside the image are Off.
func (p *VerticalLSB) BitAt(x, y int) Bit {
	offset, mask, ok := p.PixOffset(x, y)
	if !ok {
		return Off
	}
	return p.Pix[offset]&mask != 0
}

// Set sets the color of the pixel at (x, y).
func (p *VerticalLSB) Set(x, y int, c color.Color) {
	p.SetBit(x, y, BitModel.Convert(c).(Bit))
}

// SetBit sets the Bit of the pixel at (x, y).
// This is faster than Set() as it doesn't require color conversion.
func (p *VerticalLSB) SetBit(x, y int, b Bit) {
	offset, mask, ok := p.PixOffset(x, y)
	if !ok {
		return
	}
	if b {
		p.Pix[offset] |= mask
	} else {
		p.Pix[offset] &^= mask
	}
}

// PixOffset returns the byte offset and bit mask for the pixel at (x, y).
// ok is false when (x, y) is outside the image.
func (p *VerticalLSB) PixOffset(x, y int) (offset int, mask byte, ok bool) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0, 0, false
	}
	dy := y - p.Rect.Min.Y
	offset = (dy>>3)*p.Stride + (x - p.Rect.Min.X)
	mask = 1 << uint(dy&7)
	return offset, mask, true
}
