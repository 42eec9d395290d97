// Package preview draws PCD8544 frames on a terminal.
package preview

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"periph.io/x/devices/v3/pcd8544"
)

// Options control how a frame is drawn.
type Options struct {
	// HalfBlocks packs two pixel rows in one line using block characters.
	HalfBlocks bool
	// Narrow merges pairs of columns so the frame fits in 42 columns.
	Narrow bool
}

// Detect picks options for w: half blocks on a terminal, narrow when the
// terminal is less than 84 columns wide. Anything else gets plain ASCII.
func Detect(w io.Writer) Options {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return Options{}
	}
	opts := Options{HalfBlocks: true}
	if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols < pcd8544.Width {
		opts.Narrow = true
	}
	return opts
}

// Render writes frame to w the way Detect decides.
func Render(w io.Writer, frame []byte) error {
	_, err := io.WriteString(w, Format(frame, Detect(w)))
	return err
}

// Format returns frame as text. frame is in display memory order; a short
// frame leaves the missing pixels off.
func Format(frame []byte, opts Options) string {
	step := 1
	if opts.Narrow {
		step = 2
	}

	var sb strings.Builder
	if !opts.HalfBlocks {
		for y := 0; y < pcd8544.Height; y++ {
			for x := 0; x < pcd8544.Width; x += step {
				if lit(frame, x, y, step) {
					sb.WriteByte('#')
				} else {
					sb.WriteByte('.')
				}
			}
			sb.WriteByte('\n')
		}
		return sb.String()
	}

	for y := 0; y < pcd8544.Height; y += 2 {
		for x := 0; x < pcd8544.Width; x += step {
			top, bottom := lit(frame, x, y, step), lit(frame, x, y+1, step)
			switch {
			case top && bottom:
				sb.WriteString("█")
			case top:
				sb.WriteString("▀")
			case bottom:
				sb.WriteString("▄")
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// lit reports whether any of the step pixels starting at (x, y) is on.
func lit(frame []byte, x, y, step int) bool {
	for dx := 0; dx < step; dx++ {
		i, ok := pcd8544.PixelIndex(x+dx, y)
		if ok && i < len(frame) && frame[i]&(1<<uint(y&7)) != 0 {
			return true
		}
	}
	return false
}
