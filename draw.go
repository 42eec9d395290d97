package pcd8544

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	"periph.io/x/devices/v3/pcd8544/image1bit"
)

// SetPixel turns the pixel at (x, y) on or off. Nothing is sent when the
// pixel already has that value.
func (d *Dev) SetPixel(x, y int, on bool) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	i, ok := PixelIndex(x, y)
	if !ok {
		return fmt.Errorf("%w: pixel (%d, %d)", ErrOutOfRange, x, y)
	}
	b := d.buffer.Pix[i]
	mask := byte(1) << uint(y&7)
	if on {
		b |= mask
	} else {
		b &^= mask
	}
	if b == d.buffer.Pix[i] {
		pixelWritesSkipped.Inc()
		return nil
	}
	if err := d.SetPosition(x, y>>3); err != nil {
		return err
	}
	return d.writeBlock([]byte{b})
}

// Pixel reports whether the pixel at (x, y) is on. It reads the shadow buffer
// only and returns false for pixels outside the display or when the Dev is
// not initialized.
func (d *Dev) Pixel(x, y int) bool {
	if !d.initialized {
		return false
	}
	return bool(d.buffer.BitAt(x, y))
}

// Fill sets every byte of display memory to v.
func (d *Dev) Fill(v byte) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	row := bytes.Repeat([]byte{v}, Width)
	for page := 0; page < Pages; page++ {
		if err := d.SetPosition(0, page); err != nil {
			return err
		}
		if err := d.writeBlock(row); err != nil {
			return err
		}
	}
	return nil
}

// Write writes a raw frame in display memory order. The data must be exactly
// BufferSize bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	if !d.initialized {
		return 0, ErrNotInitialized
	}
	if len(pixels) != BufferSize {
		return 0, ErrBufferSize
	}
	if err := d.SetPosition(0, 0); err != nil {
		return 0, err
	}
	if err := d.writeBlock(pixels); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Frame returns a copy of the display memory as last written.
func (d *Dev) Frame() []byte {
	f := make([]byte, BufferSize)
	copy(f, d.buffer.Pix)
	return f
}

// Draw draws an image onto the display. Only the changed columns of each
// page are sent.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if !d.initialized {
		return ErrNotInitialized
	}

	dst = dst.Intersect(d.Bounds())
	if dst.Empty() {
		return nil
	}

	// Fast path: a full frame already in display memory order
	if srcImg, ok := src.(*image1bit.VerticalLSB); ok {
		if dst == d.Bounds() && sp == (image.Point{}) && srcImg.Rect == d.Bounds() {
			_, err := d.Write(srcImg.Pix)
			return err
		}
	}

	next := &image1bit.VerticalLSB{
		Pix:    d.Frame(),
		Stride: Width,
		Rect:   d.Bounds(),
	}
	draw.Draw(next, dst, src, sp, draw.Src)

	for page := 0; page < Pages; page++ {
		start := page * Width
		lo, hi := diffSpan(d.buffer.Pix[start:start+Width], next.Pix[start:start+Width])
		if lo > hi {
			continue
		}
		if err := d.SetPosition(lo, page); err != nil {
			return err
		}
		if err := d.writeBlock(next.Pix[start+lo : start+hi+1]); err != nil {
			return err
		}
	}
	return nil
}

// diffSpan returns the first and last index where a and b differ, or (1, 0)
// if they are equal.
func diffSpan(a, b []byte) (lo, hi int) {
	if bytes.Equal(a, b) {
		return 1, 0
	}
	lo, hi = len(a), -1
	for i := range a {
		if a[i] != b[i] {
			if i < lo {
				lo = i
			}
			hi = i
		}
	}
	return lo, hi
}
