package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// GaugeConfig controls the appearance of a horizontal bar gauge.
type GaugeConfig struct {
	// Width is the character width of the bar itself.
	Width int
	// Ratio is the filled fraction in [0, 1]. Out-of-range values are clamped.
	Ratio float64
	// Known is false when the ratio could not be computed. The bar is then
	// drawn empty with "n/a" in place of the percentage.
	Known bool
	// Label is optional text shown to the left of the bar.
	Label string
	// ShowPercent controls whether "XX%" is shown to the right.
	ShowPercent bool
	// Warning and Danger are the ratios at which the bar turns yellow and red.
	Warning float64
	Danger  float64
}

// DefaultGaugeConfig returns a GaugeConfig with sensible defaults.
func DefaultGaugeConfig() GaugeConfig {
	return GaugeConfig{
		Width:       20,
		Known:       true,
		ShowPercent: true,
		Warning:     0.70,
		Danger:      0.90,
	}
}

const (
	gaugeFilled = "█"
	gaugeEmpty  = "░"
)

// Ratio returns part/total and whether it is defined. A zero total has no
// meaningful ratio.
func Ratio(part, total uint64) (float64, bool) {
	if total == 0 {
		return 0, false
	}
	return float64(part) / float64(total), true
}

func gaugeColor(ratio, warning, danger float64) lipgloss.Color {
	switch {
	case danger > 0 && ratio >= danger:
		return ColorDanger
	case warning > 0 && ratio >= warning:
		return ColorWarning
	default:
		return ColorOK
	}
}

// RenderGauge renders "[Label ]████░░░░[ XX%]".
func RenderGauge(cfg GaugeConfig) string {
	width := cfg.Width
	if width <= 0 {
		width = 20
	}

	ratio := 0.0
	if cfg.Known {
		ratio = math.Max(0, math.Min(1, cfg.Ratio))
	}
	filled := int(math.Round(ratio * float64(width)))

	var sb strings.Builder
	if cfg.Label != "" {
		sb.WriteString(cfg.Label)
		sb.WriteString(" ")
	}

	style := lipgloss.NewStyle().Foreground(gaugeColor(ratio, cfg.Warning, cfg.Danger))
	sb.WriteString(style.Render(strings.Repeat(gaugeFilled, filled)))
	sb.WriteString(lipgloss.NewStyle().Foreground(ColorMuted).Render(strings.Repeat(gaugeEmpty, width-filled)))

	if cfg.ShowPercent {
		if cfg.Known {
			sb.WriteString(fmt.Sprintf(" %3.0f%%", ratio*100))
		} else {
			sb.WriteString("  n/a")
		}
	}
	return sb.String()
}
