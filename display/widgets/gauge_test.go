package widgets

import (
	"strings"
	"testing"
)

func TestRenderGauge_Fill(t *testing.T) {
	tests := []struct {
		name       string
		ratio      float64
		wantFilled int
		wantText   string
	}{
		{"empty", 0, 0, "  0%"},
		{"half", 0.5, 10, " 50%"},
		{"full", 1, 20, "100%"},
		{"rounds", 0.33, 7, " 33%"},
		{"clamps above", 1.7, 20, "100%"},
		{"clamps below", -0.2, 0, "  0%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGaugeConfig()
			cfg.Ratio = tt.ratio
			out := RenderGauge(cfg)

			if got := strings.Count(out, gaugeFilled); got != tt.wantFilled {
				t.Errorf("filled = %d, want %d in %q", got, tt.wantFilled, out)
			}
			if got := strings.Count(out, gaugeEmpty); got != 20-tt.wantFilled {
				t.Errorf("empty = %d, want %d", got, 20-tt.wantFilled)
			}
			if !strings.HasSuffix(out, tt.wantText) {
				t.Errorf("output %q does not end with %q", out, tt.wantText)
			}
		})
	}
}

func TestRenderGauge_Unknown(t *testing.T) {
	cfg := DefaultGaugeConfig()
	cfg.Ratio = 0.9
	cfg.Known = false
	out := RenderGauge(cfg)
	if strings.Count(out, gaugeFilled) != 0 {
		t.Errorf("unknown gauge should be empty, got %q", out)
	}
	if !strings.HasSuffix(out, "n/a") {
		t.Errorf("unknown gauge should say n/a, got %q", out)
	}
}

func TestRenderGauge_LabelAndWidth(t *testing.T) {
	out := RenderGauge(GaugeConfig{Width: 5, Ratio: 1, Known: true, Label: "Disk"})
	if !strings.HasPrefix(out, "Disk ") {
		t.Errorf("missing label prefix: %q", out)
	}
	if strings.Contains(out, "%") {
		t.Errorf("percent shown without ShowPercent: %q", out)
	}
	if got := strings.Count(out, gaugeFilled); got != 5 {
		t.Errorf("filled = %d, want 5", got)
	}
	if got := strings.Count(RenderGauge(GaugeConfig{Known: true}), gaugeEmpty); got != 20 {
		t.Errorf("zero width should default to 20, got %d cells", got)
	}
}

func TestGaugeColor(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0.1, string(ColorOK)},
		{0.7, string(ColorWarning)},
		{0.95, string(ColorDanger)},
	}
	for _, tt := range tests {
		if got := gaugeColor(tt.ratio, 0.7, 0.9); string(got) != tt.want {
			t.Errorf("gaugeColor(%v) = %s, want %s", tt.ratio, got, tt.want)
		}
	}
	if got := gaugeColor(0.99, 0, 0); got != ColorOK {
		t.Errorf("zero thresholds should never warn, got %s", got)
	}
}

func TestRatio(t *testing.T) {
	if r, ok := Ratio(25, 100); !ok || r != 0.25 {
		t.Errorf("Ratio(25, 100) = %v, %v", r, ok)
	}
	if _, ok := Ratio(5, 0); ok {
		t.Error("Ratio with zero total should be undefined")
	}
}
