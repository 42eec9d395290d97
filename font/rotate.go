package font

// Rotate8x8 converts a row-major glyph into the column-packed order the
// controller expects.
//
// The source holds one byte per row with bit 7 as the leftmost pixel. Output
// byte 7-y is the device column built from bit y of every source row: bit x
// of the output is set when source row x has bit y set, so row 0 lands on
// the least significant (topmost) bit of the page.
//
// The transform is not an involution. Feeding its output back in does not
// restore the source.
func Rotate8x8(src [SmallGlyphSize]byte) [SmallGlyphSize]byte {
	var dst [SmallGlyphSize]byte
	for y := 0; y < 8; y++ {
		mask := byte(1) << uint(y)
		var c byte
		for x := 0; x < 8; x++ {
			c >>= 1
			if src[x]&mask != 0 {
				c |= 0x80
			}
		}
		dst[7-y] = c
	}
	return dst
}

// RotateLarge converts a 16x32 source cell into three column-packed pages of
// 16 columns each.
//
// The source holds 32 rows of 2 bytes (left byte first, bit 7 leftmost). Only
// the 24 rows starting at largeBandOffset are visible. For each 8-row page the
// left bytes fill output columns 0-7 and the right bytes fill columns 8-15,
// using the same sampling as Rotate8x8. Bytes past the third page are zero.
func RotateLarge(src [LargeGlyphSize]byte) [LargeGlyphSize]byte {
	var dst [LargeGlyphSize]byte
	for page := 0; page < LargePages; page++ {
		s := src[largeBandOffset+page*LargeGlyphWidth:]
		d := dst[page*LargeGlyphWidth:]
		for y := 0; y < 8; y++ {
			mask := byte(1) << uint(y)
			var left, right byte
			for x := 0; x < 8; x++ {
				left >>= 1
				right >>= 1
				if s[x*2]&mask != 0 {
					left |= 0x80
				}
				if s[x*2+1]&mask != 0 {
					right |= 0x80
				}
			}
			d[7-y] = left
			d[15-y] = right
		}
	}
	return dst
}
