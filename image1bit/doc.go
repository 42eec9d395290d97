// Package image1bit provides a 1-bit image format for the PCD8544 display controller.
//
// The PCD8544 memory is split into horizontal pages 8 pixels tall. Each byte
// holds one column of a page, least significant bit at the top.
//
// Memory layout example for the first page of a 4-pixel wide image:
//
//	Column:  0     1     2     3
//	Byte:    0x01  0x02  0x80  0xFF
//	         (0x01 = only row 0 lit)
//	         (0x80 = only row 7 lit)
//	         (0xFF = rows 0-7 lit)
//
// The byte for pixel (x, y) lives at (y/8)*Stride + x and the pixel is
// bit y%8 of that byte, which is exactly how the controller addresses its
// RAM. A VerticalLSB can therefore be sent to the display without
// conversion.
//
// This package provides:
//
// - Bit: A color type representing a lit or unlit pixel
// - BitModel: A color model converting standard Go colors to Bit
// - VerticalLSB: An image.Image implementation in controller memory order
//
// Example usage:
//
//	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 84, 48))
//	img.SetBit(10, 20, image1bit.On)
//	lit := img.BitAt(10, 20) // On
//	draw.Draw(img, img.Bounds(), image.NewUniform(image1bit.Off), image.Point{}, draw.Src)
package image1bit
