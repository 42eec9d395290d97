package font

import (
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// largeTopPad is the cell row where the first scaled source row lands. With
// 13 source rows doubled, rows 4 and 5 (the top source row, which is blank
// for ASCII) fall outside the visible band.
const largeTopPad = 4

// renderLarge builds the 16x32 source cells by scaling basicfont.Face7x13 by
// two in both directions. Characters outside printable ASCII are blank.
func renderLarge() *[LargeGlyphs][LargeGlyphSize]byte {
	var src [LargeGlyphs][LargeGlyphSize]byte
	face := basicfont.Face7x13
	for c := 0x20; c < 0x7F; c++ {
		dr, mask, maskp, _, ok := face.Glyph(fixed.P(0, face.Ascent), rune(c))
		if !ok {
			continue
		}
		left := (LargeGlyphWidth - 2*dr.Dx()) / 2
		for sy := 0; sy < dr.Dy(); sy++ {
			for sx := 0; sx < dr.Dx(); sx++ {
				if _, _, _, a := mask.At(maskp.X+sx, maskp.Y+sy).RGBA(); a < 0x8000 {
					continue
				}
				col, row := left+2*sx, largeTopPad+2*sy
				setCell(&src[c], col, row)
				setCell(&src[c], col+1, row)
				setCell(&src[c], col, row+1)
				setCell(&src[c], col+1, row+1)
			}
		}
	}
	return &src
}

// setCell lights the pixel at (col, row) of a 16x32 source cell.
func setCell(cell *[LargeGlyphSize]byte, col, row int) {
	if col < 0 || col >= LargeGlyphWidth || row < 0 || row >= 32 {
		return
	}
	cell[row*2+col/8] |= 0x80 >> uint(col%8)
}
