// Package retry provides a circuit breaker for background work that can fail
// persistently, such as walking a storage directory that does not exist yet.
// After repeated failures the breaker "opens" and skips calls for growing
// intervals, which keeps the log quiet and the disk idle until a probe
// succeeds.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by Do when the call was skipped.
var ErrOpen = errors.New("circuit breaker open")

// State represents the circuit breaker state.
type State int

const (
	// StateClosed is normal operation; calls pass through.
	StateClosed State = iota
	// StateOpen means failures reached the threshold; calls are skipped.
	StateOpen
	// StateHalfOpen lets one probe call through to test recovery.
	StateHalfOpen
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Config configures the circuit breaker behavior.
type Config struct {
	// Name identifies the guarded work in log records.
	Name string
	// MaxFailures is the number of consecutive failures before opening.
	MaxFailures int
	// ResetTimeout is the initial wait before an open breaker lets a probe through.
	ResetTimeout time.Duration
	// MaxResetTimeout caps the exponential backoff.
	MaxResetTimeout time.Duration
	// BackoffMultiplier grows ResetTimeout each time a probe fails.
	BackoffMultiplier float64
	// Logger for breaker events. Nil is safe (a discard logger is used).
	Logger *slog.Logger
}

// DefaultConfig returns defaults sized for a work item that runs every few
// seconds.
func DefaultConfig() Config {
	return Config{
		MaxFailures:       3,
		ResetTimeout:      30 * time.Second,
		MaxResetTimeout:   10 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// Stats holds circuit breaker statistics for external inspection.
type Stats struct {
	State            State
	ConsecutiveFails int
	TotalFailures    int
	TotalSuccesses   int
	LastFailure      time.Time
	LastSuccess      time.Time
	CurrentTimeout   time.Duration
	ConsecutiveSkips int
}

// Breaker guards calls with failure tracking and automatic opening and
// closing. It is safe for concurrent use.
type Breaker struct {
	config Config
	logger *slog.Logger
	now    func() time.Time

	mu               sync.Mutex
	state            State
	failures         int
	lastFailure      time.Time
	lastSuccess      time.Time
	currentTimeout   time.Duration
	totalFailures    int
	totalSuccesses   int
	consecutiveSkips int
}

// New returns a closed Breaker. Zero config fields take DefaultConfig values.
func New(cfg Config) *Breaker {
	def := DefaultConfig()
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	if cfg.MaxResetTimeout < cfg.ResetTimeout {
		cfg.MaxResetTimeout = max(def.MaxResetTimeout, cfg.ResetTimeout)
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = def.BackoffMultiplier
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Breaker{
		config:         cfg,
		logger:         logger,
		now:            time.Now,
		state:          StateClosed,
		currentTimeout: cfg.ResetTimeout,
	}
}

// Do runs fn unless the breaker is open, in which case it returns ErrOpen
// without calling fn. The error from fn is returned unchanged. A failure
// caused by ctx being cancelled is not counted.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	b.mu.Lock()
	switch b.state {
	case StateOpen:
		elapsed := b.now().Sub(b.lastFailure)
		if elapsed < b.currentTimeout {
			b.consecutiveSkips++
			remaining := b.currentTimeout - elapsed
			skips := b.consecutiveSkips
			b.mu.Unlock()

			b.logger.Debug("circuit breaker open, skipping",
				"name", b.config.Name,
				"retry_in", remaining,
				"skips", skips,
			)
			return ErrOpen
		}
		b.state = StateHalfOpen
		b.logger.Info("circuit breaker transitioning to half-open", "name", b.config.Name)
	case StateHalfOpen:
		// A probe is already allowed through; concurrent callers share it.
	}
	probing := b.state == StateHalfOpen
	b.mu.Unlock()

	err := fn(ctx)
	if err != nil && ctx.Err() != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.recordFailureLocked(probing)
		return err
	}
	b.recordSuccessLocked(probing)
	return nil
}

func (b *Breaker) recordFailureLocked(probing bool) {
	b.failures++
	b.totalFailures++
	b.lastFailure = b.now()

	if probing {
		b.currentTimeout = time.Duration(float64(b.currentTimeout) * b.config.BackoffMultiplier)
		if b.currentTimeout > b.config.MaxResetTimeout {
			b.currentTimeout = b.config.MaxResetTimeout
		}
		b.state = StateOpen
		b.logger.Warn("circuit breaker re-opened after half-open failure",
			"name", b.config.Name,
			"failures", b.failures,
			"next_timeout", b.currentTimeout,
		)
		return
	}

	if b.state == StateClosed && b.failures >= b.config.MaxFailures {
		b.state = StateOpen
		b.currentTimeout = b.config.ResetTimeout
		b.logger.Warn("circuit breaker opened",
			"name", b.config.Name,
			"failures", b.failures,
			"timeout", b.currentTimeout,
		)
	}
}

func (b *Breaker) recordSuccessLocked(probing bool) {
	if probing {
		b.logger.Info("circuit breaker closed after successful probe", "name", b.config.Name)
	}
	b.state = StateClosed
	b.failures = 0
	b.consecutiveSkips = 0
	b.totalSuccesses++
	b.lastSuccess = b.now()
	b.currentTimeout = b.config.ResetTimeout
}

// State returns the current circuit breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the circuit breaker statistics.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		State:            b.state,
		ConsecutiveFails: b.failures,
		TotalFailures:    b.totalFailures,
		TotalSuccesses:   b.totalSuccesses,
		LastFailure:      b.lastFailure,
		LastSuccess:      b.lastSuccess,
		CurrentTimeout:   b.currentTimeout,
		ConsecutiveSkips: b.consecutiveSkips,
	}
}

// Reset forces the breaker back to the closed state, clearing failure
// counters and restoring the initial timeout.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.consecutiveSkips = 0
	b.currentTimeout = b.config.ResetTimeout
	b.logger.Info("circuit breaker manually reset", "name", b.config.Name)
}
