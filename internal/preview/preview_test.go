package preview

import (
	"bytes"
	"strings"
	"testing"

	"periph.io/x/devices/v3/pcd8544"
)

func frameWith(pixels ...[2]int) []byte {
	f := make([]byte, pcd8544.BufferSize)
	for _, p := range pixels {
		i, _ := pcd8544.PixelIndex(p[0], p[1])
		f[i] |= 1 << uint(p[1]&7)
	}
	return f
}

func TestFormatASCII(t *testing.T) {
	out := Format(frameWith([2]int{0, 0}, [2]int{83, 47}), Options{})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != pcd8544.Height {
		t.Fatalf("got %d lines, want %d", len(lines), pcd8544.Height)
	}
	for i, l := range lines {
		if len(l) != pcd8544.Width {
			t.Fatalf("line %d is %d characters wide, want %d", i, len(l), pcd8544.Width)
		}
	}
	if lines[0][0] != '#' || lines[0][1] != '.' {
		t.Errorf("line 0 starts with %q", lines[0][:2])
	}
	if lines[47][83] != '#' {
		t.Errorf("pixel (83, 47) = %q, want '#'", lines[47][83])
	}
	if strings.Count(out, "#") != 2 {
		t.Errorf("got %d lit pixels, want 2", strings.Count(out, "#"))
	}
}

func TestFormatHalfBlocks(t *testing.T) {
	tests := []struct {
		name   string
		pixels [][2]int
		want   string
	}{
		{"empty", nil, " "},
		{"top", [][2]int{{0, 0}}, "▀"},
		{"bottom", [][2]int{{0, 1}}, "▄"},
		{"both", [][2]int{{0, 0}, {0, 1}}, "█"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Format(frameWith(tt.pixels...), Options{HalfBlocks: true})
			lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
			if len(lines) != pcd8544.Height/2 {
				t.Fatalf("got %d lines, want %d", len(lines), pcd8544.Height/2)
			}
			if !strings.HasPrefix(lines[0], tt.want) {
				t.Errorf("first cell = %q, want %q", []rune(lines[0])[0], tt.want)
			}
			if n := len([]rune(lines[0])); n != pcd8544.Width {
				t.Errorf("line is %d cells wide, want %d", n, pcd8544.Width)
			}
		})
	}
}

func TestFormatNarrow(t *testing.T) {
	out := Format(frameWith([2]int{1, 0}), Options{Narrow: true})
	first := strings.SplitN(out, "\n", 2)[0]
	if len(first) != pcd8544.Width/2 {
		t.Errorf("narrow line is %d characters wide, want %d", len(first), pcd8544.Width/2)
	}
	if first[0] != '#' {
		t.Error("merged column should be lit when either pixel is")
	}
}

func TestFormatShortFrame(t *testing.T) {
	out := Format([]byte{0xFF}, Options{})
	if strings.Count(out, "#") != 8 {
		t.Errorf("got %d lit pixels, want 8", strings.Count(out, "#"))
	}
}

func TestRenderToBuffer(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, frameWith([2]int{5, 5})); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Count(buf.String(), "#") != 1 {
		t.Error("a non-terminal writer should get ASCII output")
	}
	if Detect(&buf) != (Options{}) {
		t.Error("Detect() on a buffer should return plain options")
	}
}
