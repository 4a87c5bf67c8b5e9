// Package collectors provides the per-tick sampling layer for node-pulse.
// A Sampler combines a remote sync-state source, a host metrics probe and a
// cached storage sizer into one immutable Sample per dashboard tick.
package collectors

import (
	"context"
)

// SyncSource is the remote node endpoint queried once per tick.
// Implementations must honor ctx cancellation; the sampler bounds every call
// with its own timeout.
type SyncSource interface {
	// Syncing returns the node's block synchronization state.
	Syncing(ctx context.Context) (SyncState, error)

	// BlockNumber returns the node's latest block number.
	BlockNumber(ctx context.Context) (uint64, error)
}

// HostProbe reads resource usage of the local host and the tracked process.
// Each call refreshes the underlying OS tables before reading.
type HostProbe interface {
	// FindProcess locates a process by exact name. A missing process is not
	// an error: it is reported as ProcessStat{Found: false} with a nil error.
	FindProcess(ctx context.Context, name string) (ProcessStat, error)

	// Disks returns the host disks in enumeration order.
	Disks(ctx context.Context) ([]DiskStat, error)

	// TotalMemory returns the total physical memory of the host in bytes.
	TotalMemory(ctx context.Context) (uint64, error)
}

// StorageSizer reports the last known size of the node's storage directory.
// Stat must not block on filesystem I/O.
type StorageSizer interface {
	Stat() StorageStat
}
