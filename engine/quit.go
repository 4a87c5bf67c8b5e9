package engine

import (
	"context"
	"os"
	"os/signal"
	"time"
)

// QuitSignal is an InputPoller fed by the front end: the TUI key handler or
// an OS signal handler calls Trigger, and the loop observes it at the next
// tick boundary.
type QuitSignal struct {
	ch chan struct{}
}

// NewQuitSignal creates an untriggered QuitSignal.
func NewQuitSignal() *QuitSignal {
	return &QuitSignal{ch: make(chan struct{}, 1)}
}

// Trigger records a quit request. It never blocks and repeated calls are
// harmless.
func (q *QuitSignal) Trigger() {
	select {
	case q.ch <- struct{}{}:
	default:
	}
}

// PollQuit waits up to timeout for a quit request. Once triggered, every
// later poll also reports true. A cancelled ctx counts as a quit request.
func (q *QuitSignal) PollQuit(ctx context.Context, timeout time.Duration) bool {
	select {
	case <-q.ch:
		q.Trigger()
		return true
	default:
	}
	if timeout <= 0 {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-q.ch:
		q.Trigger()
		return true
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}

// TriggerOn triggers q whenever one of sigs arrives, so an interrupt ends
// the loop at a tick boundary instead of killing it mid-frame. The returned
// function stops the delivery.
func (q *QuitSignal) TriggerOn(sigs ...os.Signal) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				q.Trigger()
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
