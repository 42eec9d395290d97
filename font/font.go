// Package font holds the glyph tables used by the PCD8544 driver.
//
// Glyphs are kept in the controller's column-packed order so that drawing a
// character is a single block write per page. Source bitmaps are converted by
// Rotate8x8 and RotateLarge exactly once, when a Store is built.
package font

const (
	// SmallGlyphs is the number of entries in the 8x8 font, indexed by byte value.
	SmallGlyphs = 256
	// SmallGlyphSize is the number of bytes (columns) per 8x8 glyph.
	SmallGlyphSize = 8

	// LargeGlyphs is the number of entries in the 16x24 font.
	LargeGlyphs = 128
	// LargeGlyphSize is the stride of a large glyph, both as a 16x32 source
	// cell and in column-packed form.
	LargeGlyphSize = 64
	// LargeGlyphWidth is the number of columns in a large glyph.
	LargeGlyphWidth = 16
	// LargePages is the number of 8-pixel pages a large glyph covers.
	LargePages = 3

	// largeBandOffset is the byte offset of the first visible row (row 6) of
	// a 16x32 source cell.
	largeBandOffset = 12
)

// Store is an immutable set of small and large glyphs in column-packed form.
// It is safe for concurrent use.
type Store struct {
	small [SmallGlyphs][SmallGlyphSize]byte
	large [LargeGlyphs][LargeGlyphSize]byte
}

var (
	largeRaw     = renderLarge()
	defaultStore = New(&smallSource, largeRaw)
)

// Default returns the built-in glyph store.
func Default() *Store {
	return defaultStore
}

// New builds a Store from row-major source bitmaps. The sources are not
// modified.
func New(small *[SmallGlyphs][SmallGlyphSize]byte, large *[LargeGlyphs][LargeGlyphSize]byte) *Store {
	s := &Store{}
	for i := range small {
		s.small[i] = Rotate8x8(small[i])
	}
	for i := range large {
		s.large[i] = RotateLarge(large[i])
	}
	return s
}

// SmallSource returns a copy of the built-in row-major 8x8 font.
func SmallSource() [SmallGlyphs][SmallGlyphSize]byte {
	return smallSource
}

// LargeSource returns a copy of the built-in 16x32 source cells.
func LargeSource() [LargeGlyphs][LargeGlyphSize]byte {
	return *largeRaw
}

// Small returns the 8 columns of glyph c. The slice must not be modified.
func (s *Store) Small(c byte) []byte {
	return s.small[c][:]
}

// Large returns the 48 column bytes of glyph c, page by page: bytes 0-15 are
// the top page, 16-31 the middle one and 32-47 the bottom one. Values of 128
// and above select '?'. The slice must not be modified.
func (s *Store) Large(c byte) []byte {
	if int(c) >= LargeGlyphs {
		c = '?'
	}
	return s.large[c][:LargePages*LargeGlyphWidth]
}
