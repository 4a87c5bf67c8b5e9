package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"

	"gitlab.com/tinyland/lab/node-pulse/display/widgets"
	"gitlab.com/tinyland/lab/node-pulse/internal/format"
	"gitlab.com/tinyland/lab/node-pulse/metrics"
)

const waitingText = "waiting for first sample"

// nodePanel shows the RPC answers and the tracked process.
func (m Model) nodePanel(r rect) string {
	w, _ := widgets.InnerSize(r.w, r.h)
	return widgets.RenderPanel(widgets.PanelConfig{
		Title:   "Node",
		Body:    strings.Join(m.nodeLines(w), "\n"),
		Width:   r.w,
		Height:  r.h,
		Focused: m.expanded == panelNode,
	})
}

func (m Model) nodeLines(w int) []string {
	valueW := w - lipgloss.Width(styleLabel.Render(""))
	if valueW < 4 {
		valueW = 4
	}
	fit := func(s string) string { return format.TruncateWithEllipsis(s, valueW-2) }

	if !m.hasFrame {
		return []string{
			labeled("Endpoint", fit(m.opts.Endpoint)),
			labeled("Process", fit(m.opts.ProcessName)),
			"",
			styleFooter.Render(waitingText),
		}
	}
	f := m.frame

	level, text := widgets.SyncStatus(f.Sync)
	lines := []string{labeled("Sync", widgets.RenderStatus(level, fit(text)))}

	if state, err := f.Sync.Get(); err == nil {
		if ratio, ok := state.Progress(); ok {
			g := widgets.DefaultGaugeConfig()
			g.Width = valueW - 5
			g.Ratio = ratio
			// A sync run gets greener as it nears the head, so no thresholds.
			g.Warning, g.Danger = 0, 0
			lines = append(lines, labeled("Progress", widgets.RenderGauge(g)))
		}
	}

	if m.opts.ShowBlock {
		level, text := widgets.BlockStatus(f.Block)
		lines = append(lines, labeled("Block", widgets.RenderStatus(level, fit(text))))
	}

	level, text = widgets.ProcessStatus(m.opts.ProcessName, f.ProcessFound)
	lines = append(lines,
		labeled("Process", widgets.RenderStatus(level, fit(text))),
		labeled("Endpoint", fit(m.opts.Endpoint)),
		labeled("Updated", format.Since(f.SampledAt, m.now())),
	)
	return lines
}

// cpuPanel charts the smoothed CPU series on a fixed 0-100% scale.
func (m Model) cpuPanel(r rect) string {
	return m.chartPanel(r, chartSpec{
		id:      panelCPU,
		title:   "CPU",
		raw:     m.frame.CPU,
		ceiling: 100,
		line:    chartCPU,
		color:   widgets.ColorCPU,
		current: format.Percent(m.frame.CPUNow()),
		value:   format.Percent,
	})
}

// memoryPanel charts the smoothed resident memory scaled to host memory.
func (m Model) memoryPanel(r rect) string {
	mb := func(v float64) string { return format.MegabytesString(uint64(math.Max(0, v))) }
	return m.chartPanel(r, chartSpec{
		id:      panelMemory,
		title:   "Memory",
		raw:     m.frame.Memory,
		ceiling: float64(m.frame.TotalMemory),
		line:    chartMemory,
		color:   widgets.ColorMemory,
		current: format.MegabytesString(m.frame.MemoryNow()),
		value:   mb,
	})
}

type chartSpec struct {
	id      panelID
	title   string
	raw     []float64
	ceiling float64
	line    plot.Color
	color   lipgloss.Color
	current string
	value   func(float64) string
}

func (m Model) chartPanel(r rect, spec chartSpec) string {
	w, h := widgets.InnerSize(r.w, r.h)

	var series []float64
	if m.hasFrame {
		series = metrics.Ys(metrics.Project(spec.raw, m.span))
	}

	placeholder := "collecting samples"
	if !m.hasFrame {
		placeholder = waitingText
	}
	chart := widgets.RenderChart(widgets.ChartConfig{
		Width:       w,
		Height:      h - 1,
		Series:      series,
		Ceiling:     spec.ceiling,
		Color:       spec.line,
		Placeholder: placeholder,
	})

	lo, hi := "-", "-"
	current := "-"
	if len(series) > 0 {
		low, high := seriesRange(series)
		lo, hi = spec.value(low), spec.value(high)
	}
	if m.hasFrame {
		current = spec.current
	}
	legend := widgets.ChartLegend(spec.title, current, lo, hi, spec.color)

	return widgets.RenderPanel(widgets.PanelConfig{
		Title:   fmt.Sprintf("%s (span %d)", spec.title, m.span),
		Body:    chart + "\n" + legend,
		Width:   r.w,
		Height:  r.h,
		Focused: m.expanded == spec.id,
	})
}

func seriesRange(series []float64) (lo, hi float64) {
	lo, hi = series[0], series[0]
	for _, v := range series[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// storagePanel shows the disk totals and how much of it the node's storage
// directory takes.
func (m Model) storagePanel(r rect) string {
	w, _ := widgets.InnerSize(r.w, r.h)
	return widgets.RenderPanel(widgets.PanelConfig{
		Title:   "Storage",
		Body:    strings.Join(m.storageLines(w), "\n"),
		Width:   r.w,
		Height:  r.h,
		Focused: m.expanded == panelStorage,
	})
}

func (m Model) storageLines(w int) []string {
	if !m.hasFrame {
		return []string{
			format.TruncateWithEllipsis(m.opts.StoragePath, w),
			styleFooter.Render(waitingText),
		}
	}
	f := m.frame

	total, available, used := "n/a", "n/a", "n/a"
	if f.Disk.Found {
		total = format.MegabytesString(f.Disk.TotalBytes)
		available = format.MegabytesString(f.Disk.AvailableBytes)
	}
	if f.Storage.Known {
		used = format.MegabytesString(f.Storage.UsedBytes)
	}
	var lines []string
	if sizes := fmt.Sprintf("Total size: %s | Available: %s | Used: %s", total, available, used); len(sizes) <= w {
		lines = append(lines, sizes)
	} else {
		lines = append(lines,
			"Total size: "+total,
			"Available:  "+available,
			"Used:       "+used,
		)
	}

	where := f.Storage.Path
	if where == "" {
		where = m.opts.StoragePath
	}
	if f.Storage.Known {
		where += "  " + format.Since(f.Storage.UpdatedAt, m.now())
	} else {
		where += "  measuring"
	}

	g := widgets.DefaultGaugeConfig()
	g.Label = "Used"
	g.Width = w - 11
	if g.Width < 4 {
		g.Width = 4
	}
	ratio, ok := widgets.Ratio(f.Storage.UsedBytes, f.Disk.TotalBytes)
	g.Ratio = ratio
	g.Known = ok && f.Storage.Known && f.Disk.Found

	return append(lines,
		styleFooter.Render(format.TruncateWithEllipsis(where, w)),
		widgets.RenderGauge(g),
	)
}

// renderCompact renders every metric on its own line for small terminals.
// Charts become sparklines and panels lose their borders.
func (m Model) renderCompact(height int) string {
	if !m.hasFrame {
		return styleFooter.Render(waitingText)
	}
	f := m.frame

	valueW := m.width - lipgloss.Width(styleLabel.Render(""))
	if valueW < 4 {
		valueW = 4
	}
	sparkW := valueW - 10
	if sparkW < 4 {
		sparkW = 4
	}

	level, text := widgets.SyncStatus(f.Sync)
	lines := []string{labeled("Sync", widgets.RenderStatus(level, format.TruncateWithEllipsis(text, valueW-2)))}
	if m.opts.ShowBlock {
		level, text := widgets.BlockStatus(f.Block)
		lines = append(lines, labeled("Block", widgets.RenderStatus(level, text)))
	}
	level, text = widgets.ProcessStatus(m.opts.ProcessName, f.ProcessFound)
	lines = append(lines, labeled("Process", widgets.RenderStatus(level, text)))

	cpu := widgets.RenderSparkline(widgets.SparklineConfig{
		Data:  metrics.Ys(metrics.Project(f.CPU, m.span)),
		Width: sparkW,
		Min:   0,
		Max:   100,
		Color: widgets.ColorCPU,
	})
	lines = append(lines, labeled("CPU", cpu+" "+format.Percent(f.CPUNow())))

	mem := widgets.RenderSparkline(widgets.SparklineConfig{
		Data:  metrics.Ys(metrics.Project(f.Memory, m.span)),
		Width: sparkW,
		Color: widgets.ColorMemory,
	})
	lines = append(lines, labeled("Memory", mem+" "+format.MegabytesString(f.MemoryNow())))

	g := widgets.DefaultGaugeConfig()
	g.Width = sparkW
	ratio, ok := widgets.Ratio(f.Storage.UsedBytes, f.Disk.TotalBytes)
	g.Ratio = ratio
	g.Known = ok && f.Storage.Known && f.Disk.Found
	lines = append(lines, labeled("Storage", widgets.RenderGauge(g)))

	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}
