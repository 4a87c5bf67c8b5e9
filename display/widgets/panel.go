package widgets

import (
	"github.com/charmbracelet/lipgloss"
)

// PanelConfig describes a bordered box with a title line.
type PanelConfig struct {
	Title string
	Body  string
	// Width and Height are the outer size including the border. Zero
	// lets the content decide.
	Width, Height int
	// Focused panels get a highlighted border.
	Focused bool
}

var (
	panelBorder  = lipgloss.RoundedBorder()
	panelTitle   = lipgloss.NewStyle().Bold(true).Foreground(ColorCPU)
	panelFocused = lipgloss.Color("#7C3AED")
)

// RenderPanel renders the title on the first inner line followed by the
// body, clipped to the requested size.
func RenderPanel(cfg PanelConfig) string {
	style := lipgloss.NewStyle().
		Border(panelBorder).
		BorderForeground(ColorMuted).
		Padding(0, 1)
	if cfg.Focused {
		style = style.BorderForeground(panelFocused)
	}

	// Border and padding take two rows and four columns.
	if cfg.Width > 4 {
		style = style.Width(cfg.Width - 2).MaxWidth(cfg.Width)
	}
	if cfg.Height > 2 {
		style = style.Height(cfg.Height - 2).MaxHeight(cfg.Height)
	}

	content := cfg.Body
	if cfg.Title != "" {
		content = panelTitle.Render(cfg.Title) + "\n" + cfg.Body
	}
	return style.Render(content)
}

// InnerSize returns the content area of a panel with the given outer size,
// after the border, the padding and the title line.
func InnerSize(width, height int) (int, int) {
	w := width - 4
	h := height - 3
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w, h
}
