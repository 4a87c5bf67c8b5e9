package tui

import (
	"time"

	"gitlab.com/tinyland/lab/node-pulse/collectors"
	"gitlab.com/tinyland/lab/node-pulse/metrics"
)

// Frame is a self-contained copy of one metrics view. It shares no memory
// with the loop's windows, so the program goroutine may keep it as long as
// it likes.
type Frame struct {
	// CPU and Memory are the raw windows, oldest first. Smoothing is applied
	// at draw time so the span can change without waiting for a tick.
	CPU    []float64
	Memory []float64

	TotalMemory  uint64
	Sync         collectors.Result[collectors.SyncState]
	Block        collectors.Result[uint64]
	ProcessFound bool
	Disk         collectors.DiskStat
	Storage      collectors.StorageStat

	SampledAt time.Time
	Ticks     uint64
}

// NewFrame copies everything a draw needs out of v.
func NewFrame(v metrics.View) Frame {
	return Frame{
		CPU:          v.CPUHistory(),
		Memory:       v.MemoryHistory(),
		TotalMemory:  v.TotalMemory(),
		Sync:         v.Sync(),
		Block:        v.Block(),
		ProcessFound: v.ProcessFound(),
		Disk:         v.Disk(),
		Storage:      v.Storage(),
		SampledAt:    v.LastSample(),
		Ticks:        v.Ticks(),
	}
}

// CPUNow is the newest CPU reading in percent.
func (f Frame) CPUNow() float64 { return last(f.CPU) }

// MemoryNow is the newest resident memory reading in bytes.
func (f Frame) MemoryNow() uint64 { return uint64(last(f.Memory)) }

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}

// frameMsg carries a new frame into the program.
type frameMsg struct {
	frame Frame
}
