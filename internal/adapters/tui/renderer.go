// Package tui draws the live plot in the terminal with bubbletea.
package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/okian/eegscope/internal/driver"
)

// ErrClosed is returned by Render once the program has exited.
var ErrClosed = errors.New("terminal ui closed")

// Option configures a Renderer.
type Option func(*Renderer)

// WithProgramOptions passes options through to tea.NewProgram.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(r *Renderer) {
		r.programOpts = append(r.programOpts, opts...)
	}
}

// Renderer implements driver.Renderer by feeding frames into a bubbletea program.
type Renderer struct {
	program     *tea.Program
	programOpts []tea.ProgramOption
	done        chan struct{}
}

var _ driver.Renderer = (*Renderer)(nil)

// NewRenderer creates the program. Call Run to start it.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		programOpts: []tea.ProgramOption{tea.WithAltScreen()},
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.program = tea.NewProgram(NewModel(), r.programOpts...)
	return r
}

// Run blocks until the user quits or ctx is cancelled.
func (r *Renderer) Run(ctx context.Context) error {
	defer close(r.done)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			r.program.Quit()
		case <-stop:
		}
	}()

	if _, err := r.program.Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}

// Done is closed once Run has returned.
func (r *Renderer) Done() <-chan struct{} {
	return r.done
}

// Render implements driver.Renderer.
func (r *Renderer) Render(_ context.Context, f driver.Frame) error {
	select {
	case <-r.done:
		return ErrClosed
	default:
	}
	r.program.Send(frameMsg{frame: f})
	return nil
}
