package diskusage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"gitlab.com/tinyland/lab/node-pulse/cache"
	"gitlab.com/tinyland/lab/node-pulse/collectors"
	"gitlab.com/tinyland/lab/node-pulse/collectors/retry"
)

const (
	// DefaultInterval is the time between two storage walks.
	DefaultInterval = 10 * time.Second

	// DefaultCacheTTL bounds how old a persisted size may be to seed Stat
	// at startup.
	DefaultCacheTTL = 10 * time.Minute

	// cacheKey names the persisted snapshot in the cache store.
	cacheKey = "storage"

	// walkFailuresBeforeBackoff consecutive failed walks open the breaker.
	walkFailuresBeforeBackoff = 3
)

// RefresherConfig configures a Refresher.
type RefresherConfig struct {
	// Path is the storage directory to measure.
	Path string
	// Interval between walks. Zero means DefaultInterval.
	Interval time.Duration
	// Cache persists the last result across runs. Nil disables persistence.
	Cache *cache.Store
	// CacheTTL is the maximum age of a persisted result used at startup.
	CacheTTL time.Duration
	// Logger for refresh events. Nil is safe.
	Logger *slog.Logger
}

// snapshot is the persisted form of a measurement.
type snapshot struct {
	Path       string    `json:"path"`
	UsedBytes  uint64    `json:"used_bytes"`
	MeasuredAt time.Time `json:"measured_at"`
}

// Refresher measures a directory in the background and publishes the
// latest result for non-blocking reads. It implements collectors.StorageSizer.
type Refresher struct {
	cfg    RefresherConfig
	logger *slog.Logger

	cron        *cron.Cron
	cronEntryID cron.EntryID

	current atomic.Pointer[collectors.StorageStat]
	breaker *retry.Breaker

	walkMu     sync.Mutex // serializes walks
	wg         sync.WaitGroup
	lifeCtx    context.Context
	lifeCancel context.CancelFunc

	// Overridable for tests.
	sizeOf func(ctx context.Context, path string) (uint64, error)
	now    func() time.Time
}

// NewRefresher creates a Refresher. It does not walk until Start.
func NewRefresher(cfg RefresherConfig) (*Refresher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	lifeCtx, lifeCancel := context.WithCancel(context.Background())
	breaker := retry.New(retry.Config{
		Name:         "storage walk",
		MaxFailures:  walkFailuresBeforeBackoff,
		ResetTimeout: 3 * cfg.Interval,
		Logger:       logger,
	})

	r := &Refresher{
		cfg:        cfg,
		logger:     logger,
		cron:       c,
		lifeCtx:    lifeCtx,
		lifeCancel: lifeCancel,
		breaker:    breaker,
		sizeOf:     SizeOfContext,
		now:        time.Now,
	}

	spec := fmt.Sprintf("@every %s", cfg.Interval)
	id, err := c.AddFunc(spec, func() { r.refresh(r.lifeCtx) })
	if err != nil {
		lifeCancel()
		return nil, fmt.Errorf("diskusage: schedule %q: %w", spec, err)
	}
	r.cronEntryID = id
	return r, nil
}

// Start seeds the published value from the cache, launches one immediate
// walk in the background and starts the schedule. It never blocks on I/O
// beyond reading the cache file.
func (r *Refresher) Start() {
	r.seedFromCache()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.refresh(r.lifeCtx)
	}()
	r.cron.Start()

	r.logger.Info("storage refresher started",
		"path", r.cfg.Path,
		"interval", r.cfg.Interval,
	)
}

// Stop cancels any walk in progress and waits for background work to end.
func (r *Refresher) Stop() {
	r.lifeCancel()
	<-r.cron.Stop().Done()
	r.wg.Wait()
}

// Stat returns the last published measurement without blocking.
func (r *Refresher) Stat() collectors.StorageStat {
	if s := r.current.Load(); s != nil {
		return *s
	}
	return collectors.StorageStat{Path: r.cfg.Path}
}

// NextRun reports when the next scheduled walk fires. It is the zero time
// before Start.
func (r *Refresher) NextRun() time.Time {
	return r.cron.Entry(r.cronEntryID).Next
}

// RefreshNow walks synchronously and returns the published result.
func (r *Refresher) RefreshNow(ctx context.Context) collectors.StorageStat {
	r.refresh(ctx)
	return r.Stat()
}

func (r *Refresher) refresh(ctx context.Context) {
	r.walkMu.Lock()
	defer r.walkMu.Unlock()

	start := r.now()
	var used uint64
	err := r.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		used, err = r.sizeOf(ctx, r.cfg.Path)
		return err
	})
	if errors.Is(err, retry.ErrOpen) {
		// Backing off after repeated failures; the unknown value stands.
		return
	}
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down; keep the last value.
			return
		}
		r.logger.Warn("storage walk failed", "path", r.cfg.Path, "error", err)
		r.publish(collectors.StorageStat{Path: r.cfg.Path, UpdatedAt: start})
		return
	}

	stat := collectors.StorageStat{
		Known:     true,
		Path:      r.cfg.Path,
		UsedBytes: used,
		UpdatedAt: start,
	}
	r.publish(stat)
	r.logger.Debug("storage walk complete",
		"path", r.cfg.Path,
		"used_bytes", used,
		"took", r.now().Sub(start),
	)

	if r.cfg.Cache != nil {
		snap := snapshot{Path: r.cfg.Path, UsedBytes: used, MeasuredAt: start}
		if err := cache.Save(r.cfg.Cache, cacheKey, snap); err != nil {
			r.logger.Warn("failed to persist storage size", "error", err)
		}
	}
}

func (r *Refresher) publish(s collectors.StorageStat) {
	r.current.Store(&s)
}

func (r *Refresher) seedFromCache() {
	if r.cfg.Cache == nil {
		return
	}
	snap, err := cache.Load[snapshot](r.cfg.Cache, cacheKey, r.cfg.CacheTTL)
	if err != nil {
		r.logger.Debug("storage cache unavailable", "error", err)
		return
	}
	if snap == nil || snap.Path != r.cfg.Path {
		return
	}
	// A walk may already have published a fresher value.
	r.current.CompareAndSwap(nil, &collectors.StorageStat{
		Known:     true,
		Path:      snap.Path,
		UsedBytes: snap.UsedBytes,
		UpdatedAt: snap.MeasuredAt,
	})
	r.logger.Debug("seeded storage size from cache", "used_bytes", snap.UsedBytes, "measured_at", snap.MeasuredAt)
}

// Compile-time interface compliance check.
var _ collectors.StorageSizer = (*Refresher)(nil)
