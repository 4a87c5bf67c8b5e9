// Package plain renders dashboard frames as text for terminals that cannot
// host the full-screen program, or for output piped into a file. Each frame
// is a status block followed by asciigraph plots of the smoothed CPU and
// memory series.
package plain

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/guptarohit/asciigraph"

	"gitlab.com/tinyland/lab/node-pulse/collectors"
	"gitlab.com/tinyland/lab/node-pulse/engine"
	"gitlab.com/tinyland/lab/node-pulse/internal/format"
	"gitlab.com/tinyland/lab/node-pulse/metrics"
)

const (
	// DefaultGraphHeight is the plot height in rows.
	DefaultGraphHeight = 8
	// DefaultGraphWidth is the plot width in columns, excluding the axis.
	DefaultGraphWidth = 60

	clearScreen = "\033[H\033[2J"
)

// Options configures the plain renderer.
type Options struct {
	ProcessName string
	Endpoint    string
	// ShowBlock adds the block number line.
	ShowBlock bool
	// SmoothingSpan for both plots. Zero uses the default span.
	SmoothingSpan int
	// GraphWidth and GraphHeight size each plot. Zero uses the defaults.
	GraphWidth, GraphHeight int
	// Redraw clears the screen before each frame instead of appending.
	Redraw bool
}

// Renderer writes one text frame per tick.
type Renderer struct {
	w    io.Writer
	opts Options

	ok, warn, bad, muted *color.Color
}

// New returns a Renderer writing to w. Color follows color.NoColor, which
// the caller sets up once for the whole process.
func New(w io.Writer, opts Options) *Renderer {
	if opts.SmoothingSpan <= 0 {
		opts.SmoothingSpan = metrics.DefaultSmoothingSpan
	}
	if opts.GraphWidth <= 0 {
		opts.GraphWidth = DefaultGraphWidth
	}
	if opts.GraphHeight <= 0 {
		opts.GraphHeight = DefaultGraphHeight
	}
	return &Renderer{
		w:     w,
		opts:  opts,
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		bad:   color.New(color.FgRed),
		muted: color.New(color.Faint),
	}
}

var _ engine.Renderer = (*Renderer)(nil)

// Render implements engine.Renderer.
func (r *Renderer) Render(v metrics.View) error {
	var sb strings.Builder
	if r.opts.Redraw {
		sb.WriteString(clearScreen)
	}

	r.writeStatus(&sb, v)
	sb.WriteString("\n")

	cpu := metrics.Ys(v.CPUSeries(r.opts.SmoothingSpan))
	sb.WriteString(r.plot(cpu, fmt.Sprintf("CPU %% (now %s)", format.Percent(v.CPU())), 0, 100, asciigraph.Cyan))
	sb.WriteString("\n\n")

	mem := scale(metrics.Ys(v.MemorySeries(r.opts.SmoothingSpan)), 1/float64(format.MB))
	sb.WriteString(r.plot(mem, fmt.Sprintf("Memory Mo (now %s)", format.MegabytesString(uint64(v.Memory()))),
		0, float64(format.Megabytes(v.TotalMemory())), asciigraph.Magenta))
	sb.WriteString("\n\n")

	_, err := io.WriteString(r.w, sb.String())
	return err
}

func (r *Renderer) writeStatus(sb *strings.Builder, v metrics.View) {
	fmt.Fprintf(sb, "node-pulse  %s  tick %d  %s\n",
		r.opts.Endpoint, v.Ticks(), v.LastSample().Format(time.TimeOnly))

	fmt.Fprintf(sb, "%-9s %s\n", "Sync:", r.syncText(v.Sync()))
	if r.opts.ShowBlock {
		n, err := v.Block().Get()
		text := r.ok.Sprint(n)
		if err != nil {
			text = r.bad.Sprint(v.Block().ErrText())
		}
		fmt.Fprintf(sb, "%-9s %s\n", "Block:", text)
	}

	proc := r.ok.Sprint(r.opts.ProcessName + " running")
	if !v.ProcessFound() {
		proc = r.warn.Sprint(r.opts.ProcessName + " not running")
	}
	fmt.Fprintf(sb, "%-9s %s\n", "Process:", proc)
	fmt.Fprintf(sb, "%-9s %s\n", "Storage:", storageText(v.Disk(), v.Storage()))
}

func (r *Renderer) syncText(res collectors.Result[collectors.SyncState]) string {
	state, err := res.Get()
	switch {
	case err != nil:
		return r.bad.Sprint(res.ErrText())
	case state.Syncing:
		if p, ok := state.Progress(); ok {
			return r.warn.Sprintf("%s (%s)", state, format.Percent(p*100))
		}
		return r.warn.Sprint(state.String())
	default:
		return r.ok.Sprint(state.String())
	}
}

func storageText(disk collectors.DiskStat, storage collectors.StorageStat) string {
	total, available, used := "n/a", "n/a", "n/a"
	if disk.Found {
		total = format.MegabytesString(disk.TotalBytes)
		available = format.MegabytesString(disk.AvailableBytes)
	}
	if storage.Known {
		used = format.MegabytesString(storage.UsedBytes)
	}
	return fmt.Sprintf("Total size: %s | Available: %s | Used: %s", total, available, used)
}

// plot draws one series. asciigraph cannot plot an empty series, which is
// what a window shorter than the smoothing span projects to.
func (r *Renderer) plot(series []float64, caption string, lo, hi float64, line asciigraph.AnsiColor) string {
	if len(series) == 0 {
		return caption + "\n" + r.muted.Sprint("  collecting samples")
	}
	opts := []asciigraph.Option{
		asciigraph.Height(r.opts.GraphHeight),
		asciigraph.Width(r.opts.GraphWidth),
		asciigraph.Caption(caption),
		asciigraph.Precision(1),
		asciigraph.LowerBound(lo),
	}
	if hi > lo {
		opts = append(opts, asciigraph.UpperBound(hi))
	}
	if !color.NoColor {
		opts = append(opts, asciigraph.SeriesColors(line))
	}
	return asciigraph.Plot(series, opts...)
}

func scale(values []float64, factor float64) []float64 {
	for i := range values {
		values[i] *= factor
	}
	return values
}
