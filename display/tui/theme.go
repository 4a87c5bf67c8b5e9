package tui

import (
	"github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"

	"gitlab.com/tinyland/lab/node-pulse/display/widgets"
)

const (
	colorPrimary = lipgloss.Color("#7C3AED") // Purple
	colorMuted   = widgets.ColorMuted
)

// Chart line colors. drawille takes its own color names, so these mirror
// widgets.ColorCPU and widgets.ColorMemory as closely as the 16-color set
// allows.
var (
	chartCPU    = plot.Cyan
	chartMemory = plot.Magenta
)

// Styles used throughout the TUI.
var (
	styleHeader lipgloss.Style
	styleFooter lipgloss.Style
	styleLabel  lipgloss.Style
)

func init() {
	styleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorPrimary).
		Padding(0, 1)

	styleFooter = lipgloss.NewStyle().
		Foreground(colorMuted)

	styleLabel = lipgloss.NewStyle().
		Foreground(colorMuted).
		Width(10)
}
