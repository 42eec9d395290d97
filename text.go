package pcd8544

import (
	"fmt"

	"periph.io/x/devices/v3/pcd8544/font"
)

const (
	smallWidth = font.SmallGlyphSize
	largeWidth = font.LargeGlyphWidth
	// largeMaxPage is the last page a 3-page glyph can start on.
	largeMaxPage = Pages - font.LargePages
)

// DrawString draws text starting at column x of the given page and returns
// the number of glyphs drawn.
//
// Small glyphs are 8x8; large glyphs are 16x24 and span three pages, so page
// must be at most 3. Glyphs that would run past the right edge are dropped.
// Large glyphs only exist for 7-bit values; other bytes draw '?'.
func (d *Dev) DrawString(x, page int, text []byte, large bool) (int, error) {
	if !d.initialized {
		return 0, ErrNotInitialized
	}
	glyphWidth, maxPage := smallWidth, Pages-1
	if large {
		glyphWidth, maxPage = largeWidth, largeMaxPage
	}
	if x < 0 || x >= Width || page < 0 || page > maxPage {
		return 0, fmt.Errorf("%w: text position (%d, %d)", ErrOutOfRange, x, page)
	}
	if len(text) == 0 {
		return 0, nil
	}

	n := len(text)
	if fit := (Width - x) / glyphWidth; n > fit {
		glyphsClipped.Add(float64(n - fit))
		d.log.Debugw("text clipped", "x", x, "page", page, "glyphs", n, "fit", fit, "large", large)
		n = fit
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: no glyph fits at column %d", ErrInvalidLayout, x)
	}

	if large {
		return d.drawLarge(x, page, text[:n])
	}
	return d.drawSmall(x, page, text[:n])
}

// drawSmall positions once and relies on the controller's address counter
// to place consecutive glyphs.
func (d *Dev) drawSmall(x, page int, text []byte) (int, error) {
	if err := d.SetPosition(x, page); err != nil {
		return 0, err
	}
	for i, c := range text {
		if err := d.writeBlock(d.fonts.Small(c)); err != nil {
			return i, err
		}
	}
	return len(text), nil
}

func (d *Dev) drawLarge(x, page int, text []byte) (int, error) {
	for i, c := range text {
		g := d.fonts.Large(c)
		col := x + i*largeWidth
		for j := 0; j < font.LargePages; j++ {
			if err := d.SetPosition(col, page+j); err != nil {
				return i, err
			}
			if err := d.writeBlock(g[j*largeWidth : (j+1)*largeWidth]); err != nil {
				return i, err
			}
		}
	}
	return len(text), nil
}

// DrawText is DrawString for a Go string. It is encoded with the Dev's
// charset first; runes the charset cannot represent draw '?'.
func (d *Dev) DrawText(x, page int, s string, large bool) (int, error) {
	if !d.initialized {
		return 0, ErrNotInitialized
	}
	text := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := d.charset.EncodeRune(r)
		if !ok {
			b = '?'
		}
		text = append(text, b)
	}
	return d.DrawString(x, page, text, large)
}
