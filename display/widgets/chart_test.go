package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"
)

func TestRenderChart_EmptySeriesShowsPlaceholder(t *testing.T) {
	out := RenderChart(ChartConfig{Width: 30, Height: 5, Placeholder: "waiting"})
	if !strings.Contains(out, "waiting") {
		t.Errorf("placeholder missing: %q", out)
	}
	if h := lipgloss.Height(out); h != 5 {
		t.Errorf("placeholder height = %d, want 5", h)
	}
}

func TestRenderChart_DefaultPlaceholder(t *testing.T) {
	out := RenderChart(ChartConfig{Width: 30, Height: 4})
	if !strings.Contains(out, "collecting samples") {
		t.Errorf("default placeholder missing: %q", out)
	}
}

func TestRenderChart_DrawsSeries(t *testing.T) {
	series := make([]float64, 40)
	for i := range series {
		series[i] = float64(i % 10 * 10)
	}
	out := RenderChart(ChartConfig{Width: 30, Height: 6, Series: series, Ceiling: 100, Color: plot.Cyan})
	if strings.TrimSpace(out) == "" {
		t.Fatal("chart rendered nothing")
	}
	if strings.Contains(out, "collecting samples") {
		t.Error("non-empty series rendered the placeholder")
	}
}

func TestRenderChart_TinySizeDoesNotPanic(t *testing.T) {
	_ = RenderChart(ChartConfig{Width: 0, Height: 0, Series: []float64{1, 2, 3}})
}

func TestChartLegend(t *testing.T) {
	out := ChartLegend("CPU", "12.0%", "0", "100", ColorCPU)
	for _, want := range []string{"CPU", "12.0%", "[0 .. 100]"} {
		if !strings.Contains(out, want) {
			t.Errorf("legend %q missing %q", out, want)
		}
	}
}
