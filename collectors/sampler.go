package collectors

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

const (
	// DefaultRPCTimeout bounds each remote call so a hanging endpoint only
	// degrades the tick it happens on.
	DefaultRPCTimeout = 3 * time.Second
)

// SamplerConfig configures a Sampler.
type SamplerConfig struct {
	// ProcessName is the exact name of the node process to track.
	ProcessName string

	// RPCTimeout bounds each remote call. Zero means DefaultRPCTimeout.
	RPCTimeout time.Duration

	// QueryBlockNumber enables the block number call in addition to the
	// sync status call.
	QueryBlockNumber bool

	// Logger for per-tick failures. Nil is safe (a discard logger is used).
	Logger *slog.Logger
}

// Sampler produces one Sample per tick. It is not safe for concurrent use;
// the update loop calls it from a single goroutine.
type Sampler struct {
	rpc     SyncSource
	host    HostProbe
	storage StorageSizer
	cfg     SamplerConfig
	logger  *slog.Logger

	// One tracker per call so a success on one call never clears the
	// suppression of another.
	syncErrors    errTracker
	blockErrors   errTracker
	processErrors errTracker
	diskErrors    errTracker
	memoryErrors  errTracker

	// now is overridable for tests.
	now func() time.Time
}

// NewSampler wires a Sampler. storage may be nil, in which case the storage
// stat is always reported as unknown.
func NewSampler(rpc SyncSource, host HostProbe, storage StorageSizer, cfg SamplerConfig) *Sampler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.RPCTimeout <= 0 {
		cfg.RPCTimeout = DefaultRPCTimeout
	}
	return &Sampler{
		rpc:     rpc,
		host:    host,
		storage: storage,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Sample reads every metric once. It never returns an error: remote failures
// are recorded in the Sync and Block results and host failures are recorded
// as absence.
func (s *Sampler) Sample(ctx context.Context) Sample {
	sample := Sample{Timestamp: s.now()}

	sample.Sync = s.querySync(ctx)
	if s.cfg.QueryBlockNumber {
		sample.Block = s.queryBlock(ctx)
	}

	proc, err := s.host.FindProcess(ctx, s.cfg.ProcessName)
	if err != nil {
		s.processErrors.log(s.logger, "process lookup failed", err, "process", s.cfg.ProcessName)
		proc = ProcessStat{}
	} else {
		s.processErrors.reset()
	}
	sample.Process = proc

	disks, err := s.host.Disks(ctx)
	if err != nil {
		s.diskErrors.log(s.logger, "disk list failed", err)
	} else {
		s.diskErrors.reset()
	}
	if len(disks) > 0 {
		sample.Disk = disks[0]
		sample.Disk.Found = true
	}

	total, err := s.host.TotalMemory(ctx)
	if err != nil {
		s.memoryErrors.log(s.logger, "total memory read failed", err)
		total = 0
	} else {
		s.memoryErrors.reset()
	}
	sample.TotalMemory = total

	if s.storage != nil {
		sample.Storage = s.storage.Stat()
	}

	s.logger.Debug("sample taken",
		"sync_ok", sample.Sync.OK(),
		"process_found", sample.Process.Found,
		"cpu", sample.Process.CPUPercent,
		"memory", sample.Process.MemoryBytes,
	)

	return sample
}

func (s *Sampler) querySync(ctx context.Context) Result[SyncState] {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.RPCTimeout)
	defer cancel()

	state, err := s.rpc.Syncing(callCtx)
	if err != nil {
		err = timeoutError(callCtx, err)
		s.syncErrors.log(s.logger, "sync status query failed", err)
		return Fail[SyncState](err)
	}
	s.syncErrors.reset()
	return Ok(state)
}

func (s *Sampler) queryBlock(ctx context.Context) Result[uint64] {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.RPCTimeout)
	defer cancel()

	n, err := s.rpc.BlockNumber(callCtx)
	if err != nil {
		err = timeoutError(callCtx, err)
		s.blockErrors.log(s.logger, "block number query failed", err)
		return Fail[uint64](err)
	}
	s.blockErrors.reset()
	return Ok(n)
}

// errTimeout replaces transport errors caused by the per-call deadline so the
// dashboard shows a readable message.
var errTimeout = errors.New("rpc call timed out")

func timeoutError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errTimeout
	}
	return err
}

// errTracker suppresses repeated identical errors so an unreachable endpoint
// does not write one log line per tick.
type errTracker struct {
	lastMsg    string
	suppressed int
}

func (t *errTracker) log(logger *slog.Logger, msg string, err error, args ...any) {
	text := err.Error()
	if text == t.lastMsg {
		t.suppressed++
		if t.suppressed%100 == 0 {
			logger.Warn(msg, append(args, "error", text, "repeated", t.suppressed)...)
		}
		return
	}
	t.lastMsg = text
	t.suppressed = 0
	logger.Warn(msg, append(args, "error", text)...)
}

func (t *errTracker) reset() {
	t.lastMsg = ""
	t.suppressed = 0
}
