package pcd8544

import "fmt"

const (
	// Width and Height are the size of the display in pixels.
	Width  = 84
	Height = 48
	// Pages is the number of 8-pixel horizontal strips.
	Pages = Height / 8
	// BufferSize is the size of the display memory in bytes.
	BufferSize = Width * Pages
)

// PixelIndex returns the offset of the byte holding pixel (x, y). ok is false
// when the pixel is outside the display.
func PixelIndex(x, y int) (index int, ok bool) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return 0, false
	}
	return (y>>3)*Width + x, true
}

// SetPosition moves the controller's write address to column x of the given
// page. Out of range values are rejected, never clamped.
func (d *Dev) SetPosition(x, page int) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if x < 0 || x >= Width || page < 0 || page >= Pages {
		return fmt.Errorf("%w: position (%d, %d)", ErrOutOfRange, x, page)
	}
	if err := d.sendCommands([]byte{cmdSetY | byte(page), cmdSetX | byte(x)}); err != nil {
		return err
	}
	d.cursor = page*Width + x
	return nil
}

// Cursor returns the offset in display memory the next data byte goes to.
func (d *Dev) Cursor() int {
	return d.cursor
}

// writeBlock sends b as display data at the cursor. The shadow buffer is only
// updated once the transfer succeeded. The cursor wraps at the end of memory
// like the controller's address counter.
func (d *Dev) writeBlock(b []byte) error {
	if d.cursor+len(b) > BufferSize {
		return fmt.Errorf("%w: %d bytes at offset %d", ErrOutOfRange, len(b), d.cursor)
	}
	if err := d.sendData(b); err != nil {
		return err
	}
	copy(d.buffer.Pix[d.cursor:], b)
	d.cursor = (d.cursor + len(b)) % BufferSize
	return nil
}
