package sysmetrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"gitlab.com/tinyland/lab/node-pulse/collectors"
)

// ErrProbeInit is wrapped by NewProbe when the host tables cannot be read.
var ErrProbeInit = errors.New("sysmetrics: probe init failure")

// processHandle is the subset of *process.Process the probe uses.
type processHandle interface {
	NameWithContext(ctx context.Context) (string, error)
	IsRunningWithContext(ctx context.Context) (bool, error)
	PercentWithContext(ctx context.Context, interval time.Duration) (float64, error)
	MemoryInfoWithContext(ctx context.Context) (*process.MemoryInfoStat, error)
}

// Probe implements collectors.HostProbe on top of gopsutil. It remembers
// the last matched process so CPU usage is measured as a delta between two
// consecutive ticks rather than since process start.
type Probe struct {
	logger *slog.Logger

	cpus    int
	tracked processHandle
	name    string

	// Overridable OS accessors for testing.
	listProcesses func(ctx context.Context) ([]processHandle, error)
	cpuCount      func(ctx context.Context) (int, error)
	totalMemory   func(ctx context.Context) (uint64, error)
	partitions    func(ctx context.Context) ([]disk.PartitionStat, error)
	usage         func(ctx context.Context, path string) (*disk.UsageStat, error)
}

// NewProbe creates a Probe and verifies that the logical CPU count and the
// virtual memory table are readable. If logger is nil, a no-op logger is used.
func NewProbe(ctx context.Context, logger *slog.Logger) (*Probe, error) {
	p := newProbe(logger)
	if err := p.init(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func newProbe(logger *slog.Logger) *Probe {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Probe{
		logger:        logger,
		listProcesses: listProcesses,
		cpuCount: func(ctx context.Context) (int, error) {
			return cpu.CountsWithContext(ctx, true)
		},
		totalMemory: func(ctx context.Context) (uint64, error) {
			vm, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				return 0, err
			}
			return vm.Total, nil
		},
		partitions: func(ctx context.Context) ([]disk.PartitionStat, error) {
			return disk.PartitionsWithContext(ctx, false)
		},
		usage: disk.UsageWithContext,
	}
}

func (p *Probe) init(ctx context.Context) error {
	n, err := p.cpuCount(ctx)
	if err != nil {
		return fmt.Errorf("%w: cpu count: %v", ErrProbeInit, err)
	}
	if n <= 0 {
		return fmt.Errorf("%w: cpu count reported %d", ErrProbeInit, n)
	}
	if _, err := p.totalMemory(ctx); err != nil {
		return fmt.Errorf("%w: virtual memory: %v", ErrProbeInit, err)
	}
	p.cpus = n
	p.logger.Debug("host probe ready", "logical_cpus", n)
	return nil
}

func listProcesses(ctx context.Context) ([]processHandle, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]processHandle, len(procs))
	for i, proc := range procs {
		out[i] = proc
	}
	return out, nil
}

// FindProcess returns CPU and resident memory of the first process whose
// name equals name exactly. CPU is a percentage of total host capacity.
func (p *Probe) FindProcess(ctx context.Context, name string) (collectors.ProcessStat, error) {
	proc, err := p.lookup(ctx, name)
	if err != nil {
		return collectors.ProcessStat{}, err
	}
	if proc == nil {
		return collectors.ProcessStat{}, nil
	}

	pct, err := proc.PercentWithContext(ctx, 0)
	if err != nil {
		p.forget()
		return collectors.ProcessStat{}, fmt.Errorf("cpu percent of %q: %w", name, err)
	}
	memInfo, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		p.forget()
		return collectors.ProcessStat{}, fmt.Errorf("memory info of %q: %w", name, err)
	}

	return collectors.ProcessStat{
		Found:       true,
		CPUPercent:  normalizeCPU(pct, p.cpus),
		MemoryBytes: memInfo.RSS,
	}, nil
}

// lookup reuses the tracked handle while it is alive and still carries the
// requested name, and rescans the process table otherwise. A nil handle
// with a nil error means no process matched.
func (p *Probe) lookup(ctx context.Context, name string) (processHandle, error) {
	if p.tracked != nil && p.name == name {
		running, err := p.tracked.IsRunningWithContext(ctx)
		if err == nil && running {
			if got, err := p.tracked.NameWithContext(ctx); err == nil && got == name {
				return p.tracked, nil
			}
		}
		p.logger.Debug("tracked process gone", "name", name)
		p.forget()
	}

	procs, err := p.listProcesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	for _, proc := range procs {
		got, err := proc.NameWithContext(ctx)
		if err != nil || got != name {
			// Processes can exit between listing and reading.
			continue
		}
		p.tracked = proc
		p.name = name
		p.logger.Debug("tracking process", "name", name)
		return proc, nil
	}
	return nil, nil
}

func (p *Probe) forget() {
	p.tracked = nil
	p.name = ""
}

// normalizeCPU converts a per-core percentage (100 = one full core) into a
// share of total capacity clamped to [0, 100].
func normalizeCPU(pct float64, cpus int) float64 {
	if cpus > 1 {
		pct /= float64(cpus)
	}
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Disks returns physical partitions in enumeration order. Partitions whose
// usage cannot be read are skipped.
func (p *Probe) Disks(ctx context.Context) ([]collectors.DiskStat, error) {
	parts, err := p.partitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}

	disks := make([]collectors.DiskStat, 0, len(parts))
	for _, part := range parts {
		u, err := p.usage(ctx, part.Mountpoint)
		if err != nil {
			p.logger.Debug("disk usage unavailable", "mountpoint", part.Mountpoint, "error", err)
			continue
		}
		disks = append(disks, collectors.DiskStat{
			Found:          true,
			Mountpoint:     part.Mountpoint,
			TotalBytes:     u.Total,
			AvailableBytes: u.Free,
		})
	}
	return disks, nil
}

// TotalMemory returns the host's physical memory in bytes.
func (p *Probe) TotalMemory(ctx context.Context) (uint64, error) {
	total, err := p.totalMemory(ctx)
	if err != nil {
		return 0, fmt.Errorf("virtual memory: %w", err)
	}
	return total, nil
}

// Compile-time interface compliance check.
var _ collectors.HostProbe = (*Probe)(nil)
