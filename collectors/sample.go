package collectors

import (
	"errors"
	"fmt"
	"time"
)

// Result holds either a value or the error that prevented reading it.
// It lets per-tick failures travel as data instead of crossing the tick
// boundary as returned errors.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps an error. A nil err is replaced so that the result still
// reads as failed.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = errors.New("unknown error")
	}
	return Result[T]{Err: err}
}

// OK reports whether the result carries a value.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Get returns the value and error in the usual Go order.
func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err
}

// ErrText returns the error description, or "" for a successful result.
func (r Result[T]) ErrText() string {
	if r.Err == nil {
		return ""
	}
	return "Error: " + r.Err.Error()
}

// SyncState is the node's block synchronization status. The zero value is
// NotSyncing.
type SyncState struct {
	// Syncing is false when the node reports it is not syncing; the block
	// fields are then zero.
	Syncing bool `json:"syncing"`

	StartingBlock uint64 `json:"starting_block"`
	CurrentBlock  uint64 `json:"current_block"`
	HighestBlock  uint64 `json:"highest_block"`
}

// NotSyncing is the state reported by a node that is not catching up.
var NotSyncing = SyncState{}

// SyncingAt builds a Syncing state.
func SyncingAt(starting, current, highest uint64) SyncState {
	return SyncState{
		Syncing:       true,
		StartingBlock: starting,
		CurrentBlock:  current,
		HighestBlock:  highest,
	}
}

// String renders the state as shown in the node panel.
func (s SyncState) String() string {
	if !s.Syncing {
		return "Not Syncing"
	}
	return fmt.Sprintf("Starting: %d Current: %d Highest: %d",
		s.StartingBlock, s.CurrentBlock, s.HighestBlock)
}

// Progress returns the completed fraction (0..1) of the current sync run.
// The second value is false when no meaningful ratio exists.
func (s SyncState) Progress() (float64, bool) {
	if !s.Syncing || s.HighestBlock <= s.StartingBlock {
		return 0, false
	}
	if s.CurrentBlock <= s.StartingBlock {
		return 0, true
	}
	if s.CurrentBlock >= s.HighestBlock {
		return 1, true
	}
	done := float64(s.CurrentBlock - s.StartingBlock)
	total := float64(s.HighestBlock - s.StartingBlock)
	return done / total, true
}

// ProcessStat is the tracked process usage for one tick.
type ProcessStat struct {
	// Found is false when no process matched the configured name.
	Found bool `json:"found"`

	// CPUPercent is already normalized by the logical core count (0-100).
	CPUPercent float64 `json:"cpu_percent"`

	// MemoryBytes is the resident set size.
	MemoryBytes uint64 `json:"memory_bytes"`
}

// DiskStat describes one host disk.
type DiskStat struct {
	Found          bool   `json:"found"`
	Mountpoint     string `json:"mountpoint"`
	TotalBytes     uint64 `json:"total_bytes"`
	AvailableBytes uint64 `json:"available_bytes"`
}

// StorageStat is the size of the node's storage directory as of the last
// completed walk.
type StorageStat struct {
	// Known is false before the first walk completes or when the last walk
	// failed.
	Known     bool      `json:"known"`
	Path      string    `json:"path"`
	UsedBytes uint64    `json:"used_bytes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sample is one point-in-time reading of every tracked metric. It is a value
// type and is never modified after the sampler returns it.
type Sample struct {
	Timestamp   time.Time
	Sync        Result[SyncState]
	Block       Result[uint64]
	Process     ProcessStat
	Disk        DiskStat
	Storage     StorageStat
	TotalMemory uint64
}
