// Package tui renders a live dashboard of a sync run with bubbletea.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"crossposter/pkg/models"
)

// TUI drives the dashboard program and receives bridge progress
type TUI struct {
	program *tea.Program
	done    chan error
}

// New creates a dashboard for account. cancel is called when the user
// quits early.
func New(account string, cancel func(), opts ...tea.ProgramOption) *TUI {
	model := NewModel(account, cancel)
	return &TUI{
		program: tea.NewProgram(model, opts...),
		done:    make(chan error, 1),
	}
}

// Open runs the program in the background
func (t *TUI) Open() {
	go func() {
		_, err := t.program.Run()
		t.done <- err
	}()
}

// Close reports the outcome of the run and waits for the program to exit
func (t *TUI) Close(discovered, skipped int, runErr error) error {
	t.program.Send(FinishedMsg{Discovered: discovered, Skipped: skipped, Err: runErr})
	return <-t.done
}

// Start implements bridge.Progress
func (t *TUI) Start(total int) {
	t.program.Send(QueuedMsg{Total: total})
}

// Published implements bridge.Progress
func (t *TUI) Published(post models.Post) {
	t.program.Send(PublishedMsg{Post: post})
}

// Failed implements bridge.Progress
func (t *TUI) Failed(post models.Post, err error) {
	t.program.Send(FailedMsg{Post: post, Err: err})
}
