package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"gitlab.com/tinyland/lab/node-pulse/engine"
	"gitlab.com/tinyland/lab/node-pulse/metrics"
)

// Renderer adapts the update loop to a running program: every Render copies
// the view into a Frame and sends it as a message.
type Renderer struct {
	send func(tea.Msg)
}

// NewRenderer returns a Renderer that delivers frames through send,
// normally (*tea.Program).Send.
func NewRenderer(send func(tea.Msg)) *Renderer {
	return &Renderer{send: send}
}

// Render implements engine.Renderer. It blocks until the program accepts
// the frame or has exited.
func (r *Renderer) Render(view metrics.View) error {
	r.send(frameMsg{frame: NewFrame(view)})
	return nil
}

var _ engine.Renderer = (*Renderer)(nil)

// LoopFunc runs the update loop until it stops, drawing through r.
type LoopFunc func(ctx context.Context, r engine.Renderer) error

// Run starts the dashboard program and the update loop next to it and
// returns once both have stopped. Quitting the program triggers opts.Quit
// so the loop finishes its current tick; a loop that stops first closes the
// program.
func Run(ctx context.Context, opts Options, loop LoopFunc) error {
	if opts.Quit == nil {
		opts.Quit = engine.NewQuitSignal()
	}
	model := NewModel(opts)
	defer model.zones.Close()

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	loopDone := make(chan error, 1)
	go func() {
		err := loop(ctx, NewRenderer(p.Send))
		loopDone <- err
		p.Quit()
	}()

	_, runErr := p.Run()
	opts.Quit.Trigger()
	loopErr := <-loopDone

	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}
	if runErr != nil {
		runErr = fmt.Errorf("tui: %w", runErr)
	}
	return errors.Join(runErr, loopErr)
}
