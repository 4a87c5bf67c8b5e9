// Package tui is the full-screen node dashboard. The update loop runs on its
// own goroutine and hands each frame to the bubbletea program as a message;
// the program owns the terminal, the key bindings and the mouse.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"gitlab.com/tinyland/lab/node-pulse/engine"
	"gitlab.com/tinyland/lab/node-pulse/internal/format"
	"gitlab.com/tinyland/lab/node-pulse/metrics"
)

// Smoothing span bounds. The span stays odd so the moving average is
// centered.
const (
	minSpan  = 1
	maxSpan  = 31
	spanStep = 2
)

// Options configures the dashboard.
type Options struct {
	ProcessName string
	Endpoint    string
	StoragePath string
	// ShowBlock adds the block number line to the node panel.
	ShowBlock bool
	// SmoothingSpan is the initial chart smoothing span.
	SmoothingSpan int
	// Width and Height are the initial terminal size, used until the first
	// resize message arrives. Zero waits for that message.
	Width, Height int
	// Quit is triggered when the user asks to leave so the update loop
	// stops at its next tick boundary. Nil is allowed.
	Quit *engine.QuitSignal
}

// Model is the top-level Bubbletea model for the node dashboard.
type Model struct {
	opts     Options
	frame    Frame
	hasFrame bool
	span     int
	expanded panelID
	width    int
	height   int
	help     help.Model
	zones    *zone.Manager

	// now is overridable for tests.
	now func() time.Time
}

// NewModel returns an initialized Model showing every panel.
func NewModel(opts Options) Model {
	span := opts.SmoothingSpan
	if span <= 0 {
		span = metrics.DefaultSmoothingSpan
	}
	return Model{
		opts:   opts,
		span:   clampSpan(span),
		width:  opts.Width,
		height: opts.Height,
		help:   help.New(),
		zones:  zone.New(),
		now:    time.Now,
	}
}

func clampSpan(span int) int {
	if span%2 == 0 {
		span++
	}
	if span < minSpan {
		return minSpan
	}
	if span > maxSpan {
		return maxSpan
	}
	return span
}

// Span returns the current smoothing span.
func (m Model) Span() int {
	return m.span
}

// Init implements tea.Model. No initial commands are needed.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frame = msg.frame
		m.hasFrame = true

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			if m.opts.Quit != nil {
				m.opts.Quit.Trigger()
			}
			return m, tea.Quit
		case key.Matches(msg, keys.SpanUp):
			m.span = clampSpan(m.span + spanStep)
		case key.Matches(msg, keys.SpanDown):
			m.span = clampSpan(m.span - spanStep)
		case key.Matches(msg, keys.Node):
			m.expanded = m.toggle(panelNode)
		case key.Matches(msg, keys.CPU):
			m.expanded = m.toggle(panelCPU)
		case key.Matches(msg, keys.Memory):
			m.expanded = m.toggle(panelMemory)
		case key.Matches(msg, keys.Storage):
			m.expanded = m.toggle(panelStorage)
		case key.Matches(msg, keys.Collapse):
			m.expanded = panelNone
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
			break
		}
		if id := m.panelAt(msg); id != panelNone {
			m.expanded = m.toggle(id)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	}

	return m, nil
}

func (m Model) toggle(id panelID) panelID {
	if m.expanded == id {
		return panelNone
	}
	return id
}

// panelAt returns the panel under a mouse event, if any.
func (m Model) panelAt(msg tea.MouseMsg) panelID {
	if m.zones == nil {
		return panelNone
	}
	for _, id := range allPanels {
		if z := m.zones.Get(string(id)); z != nil && z.InBounds(msg) {
			return id
		}
	}
	return panelNone
}

// mark registers s as a clickable zone for id.
func (m Model) mark(id panelID, s string) string {
	if m.zones == nil {
		return s
	}
	return m.zones.Mark(string(id), s)
}

// View implements tea.Model. It renders the header, the panels and the footer.
func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Initializing..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	var body string
	size := DetectLayout(m.width, m.height)
	switch {
	case size == LayoutCompact:
		body = m.renderCompact(bodyHeight)
	case m.expanded != panelNone:
		body = m.renderPanel(m.expanded, rect{m.width, bodyHeight})
	default:
		body = m.renderDashboard(size, bodyHeight)
	}

	out := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	if m.zones == nil {
		return out
	}
	return m.zones.Scan(out)
}

// renderHeader renders the title bar with the endpoint and loop state.
func (m Model) renderHeader() string {
	title := styleHeader.Render("node-pulse")

	status := fmt.Sprintf("span %d", m.span)
	if m.hasFrame {
		status += fmt.Sprintf("  tick %d  %s", m.frame.Ticks, format.Since(m.frame.SampledAt, m.now()))
	} else {
		status += "  waiting for first sample"
	}
	status = styleFooter.Render(status)

	endpoint := ""
	room := m.width - lipgloss.Width(title) - lipgloss.Width(status) - 2
	if room > 0 {
		endpoint = " " + format.TruncateWithEllipsis(m.opts.Endpoint, room)
	}

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(endpoint) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}
	return title + endpoint + strings.Repeat(" ", gap) + status
}

// renderFooter renders the key help.
func (m Model) renderFooter() string {
	return styleFooter.Render(m.help.View(keys))
}

// renderDashboard renders all four panels in two columns.
func (m Model) renderDashboard(size LayoutSize, height int) string {
	l := computeLayout(size, m.width, height)
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderPanel(panelNode, l.node),
		m.renderPanel(panelStorage, l.storage),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderPanel(panelCPU, l.cpu),
		m.renderPanel(panelMemory, l.memory),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// renderPanel renders one panel at the given outer size and marks it
// clickable.
func (m Model) renderPanel(id panelID, r rect) string {
	var out string
	switch id {
	case panelNode:
		out = m.nodePanel(r)
	case panelCPU:
		out = m.cpuPanel(r)
	case panelMemory:
		out = m.memoryPanel(r)
	case panelStorage:
		out = m.storagePanel(r)
	}
	return m.mark(id, out)
}
