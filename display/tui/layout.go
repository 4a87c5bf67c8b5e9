package tui

// LayoutSize represents a responsive breakpoint for the terminal size.
type LayoutSize int

const (
	// LayoutCompact drops borders and charts in favor of sparklines. It is
	// used for terminals narrower than 72 columns or shorter than 18 rows.
	LayoutCompact LayoutSize = iota
	// LayoutNormal is the two-column dashboard up to 120 columns.
	LayoutNormal
	// LayoutWide is the two-column dashboard with a narrower left column.
	LayoutWide
)

// DetectLayout returns the appropriate LayoutSize for the given terminal size.
func DetectLayout(width, height int) LayoutSize {
	switch {
	case width < 72 || height < 18:
		return LayoutCompact
	case width <= 120:
		return LayoutNormal
	default:
		return LayoutWide
	}
}

// panelID names a clickable dashboard panel. The string doubles as the
// bubblezone mark id.
type panelID string

const (
	panelNone    panelID = ""
	panelNode    panelID = "node"
	panelCPU     panelID = "cpu"
	panelMemory  panelID = "memory"
	panelStorage panelID = "storage"
)

// allPanels lists the panels in click-test order.
var allPanels = []panelID{panelNode, panelCPU, panelMemory, panelStorage}

// rect is a width and height in terminal cells.
type rect struct {
	w, h int
}

// dashboardLayout holds the outer panel sizes of the two-column view.
type dashboardLayout struct {
	node, storage rect
	cpu, memory   rect
}

// storagePanelHeight fits the title, three size lines, the path and the
// gauge.
const storagePanelHeight = 9

// computeLayout splits the body area (everything between header and footer)
// into the four panels. The left column holds node and storage, the right
// column the two charts.
func computeLayout(size LayoutSize, width, height int) dashboardLayout {
	left := width * 2 / 5
	if size == LayoutWide {
		left = width / 3
	}
	if left < 34 {
		left = 34
	}
	right := width - left
	if right < 0 {
		right = 0
	}

	storageH := storagePanelHeight
	if storageH > height/2 {
		storageH = height / 2
	}
	cpuH := height / 2

	return dashboardLayout{
		node:    rect{left, height - storageH},
		storage: rect{left, storageH},
		cpu:     rect{right, cpuH},
		memory:  rect{right, height - cpuH},
	}
}

// labeled renders a fixed-width muted label followed by a value.
func labeled(label, value string) string {
	return styleLabel.Render(label) + value
}
