package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"
)

// ChartConfig describes a braille line chart of one smoothed series.
type ChartConfig struct {
	// Width and Height of the plot area in terminal cells.
	Width, Height int
	// Series values, oldest first.
	Series []float64
	// Ceiling, when positive, is drawn as a flat reference line so the
	// vertical scale always reaches it (100 for CPU percent, total host
	// memory for memory).
	Ceiling float64
	// Color of the series line.
	Color plot.Color
	// Placeholder is shown when the series is empty.
	Placeholder string
}

const (
	minChartWidth  = 8
	minChartHeight = 3
)

// RenderChart draws the series with drawille. An empty series renders the
// placeholder centered in the plot area instead of failing.
func RenderChart(cfg ChartConfig) string {
	w, h := cfg.Width, cfg.Height
	if w < minChartWidth {
		w = minChartWidth
	}
	if h < minChartHeight {
		h = minChartHeight
	}

	if len(cfg.Series) == 0 {
		return emptyChart(w, h, cfg.Placeholder)
	}

	data := [][]float64{cfg.Series}
	colors := []plot.Color{cfg.Color}
	if cfg.Ceiling > 0 {
		ceiling := make([]float64, len(cfg.Series))
		for i := range ceiling {
			ceiling[i] = cfg.Ceiling
		}
		// Drawn first so the series line stays on top.
		data = [][]float64{ceiling, cfg.Series}
		colors = []plot.Color{plot.DimGray, cfg.Color}
	}

	c := plot.NewCanvas(w, h)
	c.NumDataPoints = len(cfg.Series)
	c.ShowAxis = false
	c.LineColors = colors
	c.Fill(data)

	out := c.String()
	if out == "" {
		return emptyChart(w, h, cfg.Placeholder)
	}
	return out
}

func emptyChart(w, h int, placeholder string) string {
	if placeholder == "" {
		placeholder = "collecting samples"
	}
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Foreground(ColorMuted).Render(placeholder))
}

// ChartLegend renders "label  current  [lo .. hi]" under a chart.
func ChartLegend(label, current, lo, hi string, color lipgloss.Color) string {
	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Foreground(color).Bold(true).Render(label))
	sb.WriteString("  ")
	sb.WriteString(current)
	sb.WriteString(lipgloss.NewStyle().Foreground(ColorMuted).Render("  [" + lo + " .. " + hi + "]"))
	return sb.String()
}
