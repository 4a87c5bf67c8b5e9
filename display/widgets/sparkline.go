package widgets

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparkBlocks are the eight block heights, lowest first.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SparklineConfig controls a one-line history chart.
type SparklineConfig struct {
	// Data points, oldest first.
	Data []float64
	// Width in characters. Longer data keeps the newest points; shorter
	// data is left-padded. Zero means len(Data).
	Width int
	// Min and Max fix the vertical scale. Max <= Min auto-scales to the
	// data range.
	Min, Max float64
	// Color of the blocks. Empty means unstyled.
	Color lipgloss.Color
}

// RenderSparkline renders a unicode sparkline. Empty data renders as
// blank space of the requested width.
func RenderSparkline(cfg SparklineConfig) string {
	width := cfg.Width
	if width <= 0 {
		width = len(cfg.Data)
	}
	if len(cfg.Data) == 0 {
		return strings.Repeat(" ", width)
	}

	data := cfg.Data
	if len(data) > width {
		data = data[len(data)-width:]
	}

	lo, hi := cfg.Min, cfg.Max
	if hi <= lo {
		lo, hi = bounds(data)
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", width-len(data)))

	var blocks strings.Builder
	for _, v := range data {
		blocks.WriteRune(sparkBlock(v, lo, hi))
	}
	if cfg.Color != "" {
		sb.WriteString(lipgloss.NewStyle().Foreground(cfg.Color).Render(blocks.String()))
	} else {
		sb.WriteString(blocks.String())
	}
	return sb.String()
}

func sparkBlock(v, lo, hi float64) rune {
	if hi <= lo {
		return sparkBlocks[len(sparkBlocks)/2]
	}
	n := math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
	return sparkBlocks[int(math.Round(n*float64(len(sparkBlocks)-1)))]
}

func bounds(data []float64) (lo, hi float64) {
	lo, hi = data[0], data[0]
	for _, v := range data[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
