package widgets

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestRenderSparkline_FixedScale(t *testing.T) {
	out := RenderSparkline(SparklineConfig{
		Data: []float64{0, 50, 100},
		Min:  0,
		Max:  100,
	})
	want := string([]rune{sparkBlocks[0], sparkBlocks[4], sparkBlocks[7]})
	if out != want {
		t.Errorf("RenderSparkline = %q, want %q", out, want)
	}
}

func TestRenderSparkline_AutoScale(t *testing.T) {
	out := RenderSparkline(SparklineConfig{Data: []float64{10, 20}})
	want := string([]rune{sparkBlocks[0], sparkBlocks[7]})
	if out != want {
		t.Errorf("RenderSparkline = %q, want %q", out, want)
	}
}

func TestRenderSparkline_FlatData(t *testing.T) {
	out := RenderSparkline(SparklineConfig{Data: []float64{3, 3, 3}})
	mid := string(sparkBlocks[len(sparkBlocks)/2])
	if out != strings.Repeat(mid, 3) {
		t.Errorf("flat data = %q, want mid-level blocks", out)
	}
}

func TestRenderSparkline_Width(t *testing.T) {
	tests := []struct {
		name  string
		data  []float64
		width int
	}{
		{"truncates to newest", []float64{1, 2, 3, 4, 5, 6}, 3},
		{"pads short data", []float64{1, 2}, 6},
		{"empty data", nil, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderSparkline(SparklineConfig{Data: tt.data, Width: tt.width})
			if got := utf8.RuneCountInString(out); got != tt.width {
				t.Errorf("width = %d, want %d (%q)", got, tt.width, out)
			}
		})
	}

	// Truncation keeps the newest points: 4,5,6 auto-scaled ends at the top.
	out := []rune(RenderSparkline(SparklineConfig{Data: []float64{9, 9, 9, 4, 5, 6}, Width: 3}))
	if out[0] != sparkBlocks[0] || out[2] != sparkBlocks[7] {
		t.Errorf("truncated sparkline = %q", string(out))
	}
}

func TestRenderSparkline_ClampsOutOfRange(t *testing.T) {
	out := []rune(RenderSparkline(SparklineConfig{Data: []float64{-10, 250}, Min: 0, Max: 100}))
	if out[0] != sparkBlocks[0] || out[1] != sparkBlocks[7] {
		t.Errorf("out-of-range values not clamped: %q", string(out))
	}
}
