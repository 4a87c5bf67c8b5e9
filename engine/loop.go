// Package engine drives the dashboard tick loop: sample, update the metric
// windows, hand a read-only view to the renderer, then poll for a quit
// request. Ticks run strictly one after another on a single goroutine.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gitlab.com/tinyland/lab/node-pulse/collectors"
	"gitlab.com/tinyland/lab/node-pulse/metrics"
)

const (
	// DefaultTickInterval is the time between the starts of two ticks.
	DefaultTickInterval = time.Second

	// DefaultInputPoll bounds a single wait for quit input.
	DefaultInputPoll = 50 * time.Millisecond
)

// Sampler produces one sample per tick.
type Sampler interface {
	Sample(ctx context.Context) collectors.Sample
}

// Renderer draws one frame. Render is called synchronously from the loop
// goroutine and must not keep the view after it returns.
type Renderer interface {
	Render(view metrics.View) error
}

// InputPoller reports whether a quit request arrived within timeout.
type InputPoller interface {
	PollQuit(ctx context.Context, timeout time.Duration) bool
}

// State is the loop lifecycle state.
type State int

const (
	// StateRunning is the initial state.
	StateRunning State = iota
	// StateStopped is terminal.
	StateStopped
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Config configures the loop cadence.
type Config struct {
	// TickInterval is the minimum time between tick starts.
	TickInterval time.Duration
	// InputPoll bounds each individual quit poll.
	InputPoll time.Duration
	// Logger for loop events. Nil is safe (a discard logger is used).
	Logger *slog.Logger
}

// Loop is the single-threaded update loop. It exclusively owns the Metrics
// it was given.
type Loop struct {
	sampler  Sampler
	metrics  *metrics.Metrics
	renderer Renderer
	input    InputPoller
	cfg      Config
	logger   *slog.Logger

	state State
	ticks uint64

	// now is overridable for tests.
	now func() time.Time
}

// New creates a Loop in the Running state.
func New(sampler Sampler, m *metrics.Metrics, renderer Renderer, input InputPoller, cfg Config) *Loop {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.InputPoll <= 0 {
		cfg.InputPoll = DefaultInputPoll
	}
	return &Loop{
		sampler:  sampler,
		metrics:  m,
		renderer: renderer,
		input:    input,
		cfg:      cfg,
		logger:   logger,
		state:    StateRunning,
		now:      time.Now,
	}
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	return l.state
}

// Ticks returns the number of completed ticks.
func (l *Loop) Ticks() uint64 {
	return l.ticks
}

// Tick performs one sample, apply and render cycle. Render failures are
// logged and do not stop the loop.
func (l *Loop) Tick(ctx context.Context) {
	sample := l.sampler.Sample(ctx)
	l.metrics.Apply(sample)
	if err := l.renderer.Render(l.metrics.View()); err != nil {
		l.logger.Warn("render failed", "error", err, "tick", l.ticks)
	}
	l.ticks++
}

// Run ticks until a quit request is observed or ctx is cancelled. A quit
// request is only acted on between ticks, so every started frame completes.
// Run returns nil on a clean stop and an error if called on a stopped loop.
func (l *Loop) Run(ctx context.Context) error {
	if l.state == StateStopped {
		return fmt.Errorf("engine: loop already stopped")
	}
	l.logger.Info("update loop started",
		"tick_interval", l.cfg.TickInterval,
		"input_poll", l.cfg.InputPoll,
	)

	for l.state == StateRunning {
		start := l.now()
		l.Tick(ctx)

		if l.waitForQuit(ctx, start) {
			l.state = StateStopped
		}
	}

	l.logger.Info("update loop stopped", "ticks", l.ticks)
	return nil
}

// waitForQuit polls for quit input until the tick interval measured from
// start has elapsed. It polls at least once even when the tick overran.
func (l *Loop) waitForQuit(ctx context.Context, start time.Time) bool {
	for first := true; ; first = false {
		if ctx.Err() != nil {
			return true
		}
		remaining := l.cfg.TickInterval - l.now().Sub(start)
		if remaining <= 0 && !first {
			return false
		}
		wait := l.cfg.InputPoll
		if remaining > 0 && remaining < wait {
			wait = remaining
		}
		if l.input.PollQuit(ctx, wait) {
			return true
		}
		if remaining <= 0 {
			return false
		}
	}
}
