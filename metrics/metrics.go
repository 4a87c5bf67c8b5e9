package metrics

import (
	"time"

	"gitlab.com/tinyland/lab/node-pulse/collectors"
)

// Fallback is pushed into a window when its source is absent for a tick.
// The last known value is deliberately not repeated.
const Fallback = 0.0

// Metrics is the dashboard state. It is owned by the update loop, which is
// the only caller of Apply; renderers only ever see a View.
type Metrics struct {
	cpu    *Window
	memory *Window

	sync  collectors.Result[collectors.SyncState]
	block collectors.Result[uint64]

	processFound bool
	disk         collectors.DiskStat
	storage      collectors.StorageStat
	totalMemory  uint64

	lastSample time.Time
	ticks      uint64
}

// New creates Metrics with both windows pre-filled with Fallback, the sync
// state set to NotSyncing and the block number set to 0.
func New(windowSize int) *Metrics {
	return &Metrics{
		cpu:    NewWindow(windowSize, Fallback),
		memory: NewWindow(windowSize, Fallback),
		sync:   collectors.Ok(collectors.NotSyncing),
		block:  collectors.Ok(uint64(0)),
	}
}

// Apply ingests one sample: numeric fields are pushed into their windows and
// scalar-only fields are overwritten.
func (m *Metrics) Apply(s collectors.Sample) {
	if s.Process.Found {
		m.cpu.Push(s.Process.CPUPercent)
		m.memory.Push(float64(s.Process.MemoryBytes))
	} else {
		m.cpu.Push(Fallback)
		m.memory.Push(Fallback)
	}
	m.processFound = s.Process.Found

	m.sync = s.Sync
	m.block = s.Block
	m.disk = s.Disk
	m.storage = s.Storage
	m.totalMemory = s.TotalMemory
	m.lastSample = s.Timestamp
	m.ticks++
}

// View returns a read-only view of the current state. The view must not be
// kept past the draw call it was handed to.
func (m *Metrics) View() View {
	return View{m: m}
}

// View is a read-only accessor over Metrics. History accessors return copies.
type View struct {
	m *Metrics
}

// CPUHistory returns the CPU percent window, oldest first.
func (v View) CPUHistory() []float64 { return v.m.cpu.Values() }

// MemoryHistory returns the resident memory window in bytes, oldest first.
func (v View) MemoryHistory() []float64 { return v.m.memory.Values() }

// CPUSeries returns the smoothed CPU chart series.
func (v View) CPUSeries(span int) []Point { return v.m.cpu.Project(span) }

// MemorySeries returns the smoothed memory chart series.
func (v View) MemorySeries(span int) []Point { return v.m.memory.Project(span) }

// CPU returns the newest CPU sample.
func (v View) CPU() float64 { return v.m.cpu.Last() }

// Memory returns the newest memory sample in bytes.
func (v View) Memory() float64 { return v.m.memory.Last() }

// WindowSize returns the capacity shared by all windows.
func (v View) WindowSize() int { return v.m.cpu.Cap() }

// Sync returns the latest sync status result.
func (v View) Sync() collectors.Result[collectors.SyncState] { return v.m.sync }

// Block returns the latest block number result.
func (v View) Block() collectors.Result[uint64] { return v.m.block }

// ProcessFound reports whether the tracked process was visible on the last tick.
func (v View) ProcessFound() bool { return v.m.processFound }

// Disk returns the latest disk reading.
func (v View) Disk() collectors.DiskStat { return v.m.disk }

// Storage returns the latest storage directory reading.
func (v View) Storage() collectors.StorageStat { return v.m.storage }

// TotalMemory returns the host's total memory in bytes.
func (v View) TotalMemory() uint64 { return v.m.totalMemory }

// LastSample returns the timestamp of the last applied sample.
func (v View) LastSample() time.Time { return v.m.lastSample }

// Ticks returns the number of samples applied so far.
func (v View) Ticks() uint64 { return v.m.ticks }
