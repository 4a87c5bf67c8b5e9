package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/node-pulse/collectors"
	"gitlab.com/tinyland/lab/node-pulse/metrics"
)

// scriptedSampler returns samples from a script; the last one repeats.
type scriptedSampler struct {
	script []collectors.Sample
	calls  int
}

func (s *scriptedSampler) Sample(_ context.Context) collectors.Sample {
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	return s.script[i]
}

// frame is what the recording renderer copies out of each view.
type frame struct {
	cpu     []float64
	memory  []float64
	syncErr string
}

type recordingRenderer struct {
	frames  []frame
	onFrame func(n int)
	err     error
}

func (r *recordingRenderer) Render(v metrics.View) error {
	r.frames = append(r.frames, frame{
		cpu:     v.CPUHistory(),
		memory:  v.MemoryHistory(),
		syncErr: v.Sync().ErrText(),
	})
	if r.onFrame != nil {
		r.onFrame(len(r.frames))
	}
	return r.err
}

// countingPoller reports quit after quitAfter polls (0 = never).
type countingPoller struct {
	polls     int
	quitAfter int
}

func (p *countingPoller) PollQuit(_ context.Context, _ time.Duration) bool {
	p.polls++
	return p.quitAfter > 0 && p.polls >= p.quitAfter
}

// steppingClock advances one second per reading so every tick overruns the
// interval and the loop polls exactly once between ticks.
func steppingClock() func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func fastConfig() Config {
	return Config{TickInterval: time.Millisecond, InputPoll: time.Millisecond}
}

func processSample(cpu float64) collectors.Sample {
	return collectors.Sample{
		Sync:    collectors.Ok(collectors.NotSyncing),
		Process: collectors.ProcessStat{Found: true, CPUPercent: cpu, MemoryBytes: 1024},
	}
}

func TestLoop_TickAppliesAndRenders(t *testing.T) {
	sampler := &scriptedSampler{script: []collectors.Sample{processSample(30)}}
	renderer := &recordingRenderer{}
	m := metrics.New(4)
	l := New(sampler, m, renderer, NewQuitSignal(), fastConfig())

	l.Tick(context.Background())

	if len(renderer.frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(renderer.frames))
	}
	got := renderer.frames[0].cpu
	if got[len(got)-1] != 30 {
		t.Errorf("rendered cpu = %v, want newest 30", got)
	}
	if l.Ticks() != 1 || m.View().Ticks() != 1 {
		t.Errorf("ticks = %d/%d, want 1", l.Ticks(), m.View().Ticks())
	}
}

func TestLoop_RunStopsOnQuit(t *testing.T) {
	sampler := &scriptedSampler{script: []collectors.Sample{processSample(1)}}
	renderer := &recordingRenderer{}
	poller := &countingPoller{quitAfter: 3}
	cfg := Config{TickInterval: time.Nanosecond, InputPoll: time.Millisecond}
	l := New(sampler, metrics.New(10), renderer, poller, cfg)
	l.now = steppingClock()

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if l.State() != StateStopped {
		t.Errorf("State() = %v, want stopped", l.State())
	}
	// With an interval shorter than a tick, each tick polls exactly once.
	if l.Ticks() != 3 || len(renderer.frames) != 3 {
		t.Errorf("ticks=%d frames=%d, want 3/3", l.Ticks(), len(renderer.frames))
	}
	if err := l.Run(context.Background()); err == nil {
		t.Error("second Run() on stopped loop should fail")
	}
}

// TestLoop_QuitDuringFrameCompletesFrame triggers quit from inside a render
// call and checks the loop stops after that frame, never mid-frame.
func TestLoop_QuitDuringFrameCompletesFrame(t *testing.T) {
	quit := NewQuitSignal()
	renderer := &recordingRenderer{}
	renderer.onFrame = func(n int) {
		if n == 2 {
			quit.Trigger()
		}
	}
	sampler := &scriptedSampler{script: []collectors.Sample{processSample(5)}}
	l := New(sampler, metrics.New(5), renderer, quit, fastConfig())

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if len(renderer.frames) != 2 || sampler.calls != 2 {
		t.Errorf("frames=%d samples=%d, want 2/2", len(renderer.frames), sampler.calls)
	}
}

func TestLoop_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	renderer := &recordingRenderer{}
	renderer.onFrame = func(n int) {
		if n == 1 {
			cancel()
		}
	}
	sampler := &scriptedSampler{script: []collectors.Sample{processSample(5)}}
	l := New(sampler, metrics.New(5), renderer, &countingPoller{}, fastConfig())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after context cancellation")
	}
	if len(renderer.frames) != 1 {
		t.Errorf("frames = %d, want 1", len(renderer.frames))
	}
}

func TestLoop_RenderErrorDoesNotStop(t *testing.T) {
	renderer := &recordingRenderer{err: errors.New("terminal gone")}
	sampler := &scriptedSampler{script: []collectors.Sample{processSample(5)}}
	l := New(sampler, metrics.New(5), renderer, &countingPoller{quitAfter: 4}, Config{
		TickInterval: time.Nanosecond,
		InputPoll:    time.Millisecond,
	})
	l.now = steppingClock()

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if len(renderer.frames) != 4 {
		t.Errorf("frames = %d, want 4", len(renderer.frames))
	}
}

// TestLoop_UnreachableEndpointKeepsRunning covers the scenario of an RPC
// endpoint that fails every tick while the process is present: every frame
// shows the sync error, CPU keeps updating and the loop only exits on quit.
func TestLoop_UnreachableEndpointKeepsRunning(t *testing.T) {
	unreachable := func(cpu float64) collectors.Sample {
		s := processSample(cpu)
		s.Sync = collectors.Fail[collectors.SyncState](errors.New("dial tcp: connection refused"))
		return s
	}
	sampler := &scriptedSampler{script: []collectors.Sample{
		unreachable(10), unreachable(20), unreachable(30), unreachable(40), unreachable(50),
	}}
	renderer := &recordingRenderer{}
	l := New(sampler, metrics.New(5), renderer, &countingPoller{quitAfter: 5}, Config{
		TickInterval: time.Nanosecond,
		InputPoll:    time.Millisecond,
	})
	l.now = steppingClock()

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if len(renderer.frames) != 5 {
		t.Fatalf("frames = %d, want 5", len(renderer.frames))
	}
	for i, f := range renderer.frames {
		if f.syncErr == "" {
			t.Errorf("frame %d: missing sync error", i)
		}
		if len(f.cpu) != 5 || len(f.memory) != 5 {
			t.Errorf("frame %d: inconsistent window lengths %d/%d", i, len(f.cpu), len(f.memory))
		}
		if f.cpu[len(f.cpu)-1] == 0 {
			t.Errorf("frame %d: cpu not updating: %v", i, f.cpu)
		}
	}
	last := renderer.frames[4].cpu
	want := []float64{10, 20, 30, 40, 50}
	for i := range want {
		if last[i] != want[i] {
			t.Fatalf("final cpu window = %v, want %v", last, want)
		}
	}
}

func TestLoop_WaitsForTickInterval(t *testing.T) {
	sampler := &scriptedSampler{script: []collectors.Sample{processSample(1)}}
	poller := &countingPoller{}
	l := New(sampler, metrics.New(5), &recordingRenderer{}, poller, Config{
		TickInterval: 40 * time.Millisecond,
		InputPoll:    10 * time.Millisecond,
	})

	// Drive one wait directly with a fake clock that advances per poll.
	var elapsed time.Duration
	start := time.Unix(0, 0)
	l.now = func() time.Time { return start.Add(elapsed) }
	l.input = pollerFunc(func(ctx context.Context, d time.Duration) bool {
		poller.polls++
		if d > 10*time.Millisecond {
			t.Errorf("poll timeout %v exceeds input poll budget", d)
		}
		elapsed += d
		return false
	})

	if l.waitForQuit(context.Background(), start) {
		t.Fatal("waitForQuit reported quit")
	}
	if poller.polls != 4 {
		t.Errorf("polls = %d, want 4 (40ms interval / 10ms poll)", poller.polls)
	}
}

type pollerFunc func(ctx context.Context, d time.Duration) bool

func (f pollerFunc) PollQuit(ctx context.Context, d time.Duration) bool { return f(ctx, d) }

func TestQuitSignal(t *testing.T) {
	q := NewQuitSignal()
	ctx := context.Background()

	if q.PollQuit(ctx, time.Millisecond) {
		t.Fatal("untriggered signal reported quit")
	}
	q.Trigger()
	q.Trigger()
	if !q.PollQuit(ctx, 0) {
		t.Fatal("triggered signal not observed")
	}
	if !q.PollQuit(ctx, 0) {
		t.Error("quit should stay observed on later polls")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if !NewQuitSignal().PollQuit(cancelled, time.Second) {
		t.Error("cancelled context should count as quit")
	}
}

func TestState_String(t *testing.T) {
	if StateRunning.String() != "running" || StateStopped.String() != "stopped" {
		t.Errorf("unexpected names %q %q", StateRunning, StateStopped)
	}
}
