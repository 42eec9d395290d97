package font

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotPSF is returned when the input carries neither a PSF1 nor a PSF2 header.
	ErrNotPSF = errors.New("font: not a psf font")
	// ErrGlyphSize is returned for PSF fonts whose glyphs are not 8x8.
	ErrGlyphSize = errors.New("font: only 8x8 psf fonts are supported")
)

const (
	psf1Magic0   = 0x36
	psf1Magic1   = 0x04
	psf1Mode512  = 0x01
	psf2HeadSize = 32
)

var psf2Magic = [4]byte{0x72, 0xb5, 0x4a, 0x86}

// LoadPSF reads an 8x8 Linux console font (PSF1 or PSF2, optionally gzip
// compressed) and returns it as a small font source. PSF rows are stored
// with the leftmost pixel in bit 7, which is the order Rotate8x8 expects.
// Fonts with fewer than 256 glyphs leave the remaining entries blank; extra
// glyphs are ignored.
func LoadPSF(r io.Reader) (*[SmallGlyphs][SmallGlyphSize]byte, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("font: %w", err)
		}
		defer zr.Close()
		return readPSF(bufio.NewReader(zr))
	}
	return readPSF(br)
}

func readPSF(r io.Reader) (*[SmallGlyphs][SmallGlyphSize]byte, error) {
	header := make([]byte, psf2HeadSize)
	if _, err := io.ReadFull(r, header[:4]); err != nil {
		return nil, fmt.Errorf("font: unable to read psf header: %w", err)
	}

	var glyphs, charSize int
	switch {
	case header[0] == psf1Magic0 && header[1] == psf1Magic1:
		glyphs = 256
		if header[2]&psf1Mode512 != 0 {
			glyphs = 512
		}
		charSize = int(header[3])
		if charSize != SmallGlyphSize {
			return nil, ErrGlyphSize
		}

	case [4]byte(header[:4]) == psf2Magic:
		if _, err := io.ReadFull(r, header[4:]); err != nil {
			return nil, fmt.Errorf("font: unable to read psf2 header: %w", err)
		}
		headerSize := binary.LittleEndian.Uint32(header[8:12])
		glyphs = int(binary.LittleEndian.Uint32(header[16:20]))
		charSize = int(binary.LittleEndian.Uint32(header[20:24]))
		height := binary.LittleEndian.Uint32(header[24:28])
		width := binary.LittleEndian.Uint32(header[28:32])
		if width != 8 || height != 8 || charSize != SmallGlyphSize {
			return nil, ErrGlyphSize
		}
		if headerSize < psf2HeadSize {
			return nil, fmt.Errorf("font: psf2 header size %d too small", headerSize)
		}
		if _, err := io.CopyN(io.Discard, r, int64(headerSize-psf2HeadSize)); err != nil {
			return nil, fmt.Errorf("font: unable to skip psf2 header: %w", err)
		}

	default:
		return nil, ErrNotPSF
	}

	if glyphs > SmallGlyphs {
		glyphs = SmallGlyphs
	}
	src := new([SmallGlyphs][SmallGlyphSize]byte)
	for i := 0; i < glyphs; i++ {
		if _, err := io.ReadFull(r, src[i][:]); err != nil {
			return nil, fmt.Errorf("font: glyph %d: %w", i, err)
		}
	}
	return src, nil
}
