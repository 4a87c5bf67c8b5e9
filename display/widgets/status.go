package widgets

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/node-pulse/collectors"
)

// Shared palette.
const (
	ColorOK      = lipgloss.Color("#22C55E")
	ColorWarning = lipgloss.Color("#EAB308")
	ColorDanger  = lipgloss.Color("#EF4444")
	ColorMuted   = lipgloss.Color("#6B7280")
	ColorInfo    = lipgloss.Color("#3B82F6")
	ColorCPU     = lipgloss.Color("#06B6D4")
	ColorMemory  = lipgloss.Color("#D946EF")
)

// StatusLevel represents the severity or state of a status indicator.
type StatusLevel int

const (
	// StatusOK indicates a healthy state.
	StatusOK StatusLevel = iota
	// StatusWarning indicates a degraded state.
	StatusWarning
	// StatusCritical indicates an error.
	StatusCritical
	// StatusUnknown indicates an indeterminate state.
	StatusUnknown
	// StatusPending indicates work in progress, such as an ongoing sync.
	StatusPending
)

var statusIcons = map[StatusLevel]string{
	StatusOK:       "●",
	StatusWarning:  "●",
	StatusCritical: "●",
	StatusUnknown:  "○",
	StatusPending:  "◌",
}

var statusColors = map[StatusLevel]lipgloss.Color{
	StatusOK:       ColorOK,
	StatusWarning:  ColorWarning,
	StatusCritical: ColorDanger,
	StatusUnknown:  ColorMuted,
	StatusPending:  ColorInfo,
}

// RenderStatus renders a colored status dot followed by text.
func RenderStatus(level StatusLevel, text string) string {
	icon := lipgloss.NewStyle().Foreground(statusColors[level]).Render(statusIcons[level])
	if text == "" {
		return icon
	}
	return icon + " " + text
}

// SyncStatus maps a sync query result to a level and its display text.
// Errors render as "Error: <message>", a synced node as "Not Syncing" and
// an ongoing sync as its block range.
func SyncStatus(r collectors.Result[collectors.SyncState]) (StatusLevel, string) {
	state, err := r.Get()
	switch {
	case err != nil:
		return StatusCritical, r.ErrText()
	case state.Syncing:
		return StatusPending, state.String()
	default:
		return StatusOK, state.String()
	}
}

// BlockStatus maps a block number query result to a level and its text.
func BlockStatus(r collectors.Result[uint64]) (StatusLevel, string) {
	n, err := r.Get()
	if err != nil {
		return StatusCritical, r.ErrText()
	}
	return StatusOK, strconv.FormatUint(n, 10)
}

// ProcessStatus renders the tracked process presence.
func ProcessStatus(name string, found bool) (StatusLevel, string) {
	if !found {
		return StatusWarning, name + " not running"
	}
	return StatusOK, name + " running"
}
