package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/node-pulse/collectors"
	"gitlab.com/tinyland/lab/node-pulse/metrics"
)

func TestRenderer_SendsDetachedFrame(t *testing.T) {
	var sent []tea.Msg
	r := NewRenderer(func(msg tea.Msg) { sent = append(sent, msg) })

	mt := metrics.New(4)
	mt.Apply(collectors.Sample{Process: collectors.ProcessStat{Found: true, CPUPercent: 40}})
	if err := r.Render(mt.View()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	// Later ticks must not reach into a frame that was already sent.
	mt.Apply(collectors.Sample{Process: collectors.ProcessStat{Found: true, CPUPercent: 90}})

	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	msg, ok := sent[0].(frameMsg)
	if !ok {
		t.Fatalf("sent %T, want frameMsg", sent[0])
	}
	f := msg.frame
	if got := f.CPUNow(); got != 40 {
		t.Errorf("frame CPU = %v, want 40", got)
	}
	if !f.ProcessFound || f.Ticks != 1 {
		t.Errorf("frame = %+v, want found process after 1 tick", f)
	}
	if len(f.CPU) != 4 {
		t.Errorf("frame window length = %d, want 4", len(f.CPU))
	}
}

func TestFrame_EmptyHistories(t *testing.T) {
	var f Frame
	if f.CPUNow() != 0 || f.MemoryNow() != 0 {
		t.Error("zero frame should read as zero")
	}
}
