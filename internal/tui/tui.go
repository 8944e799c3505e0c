// Package tui provides a terminal display for marquee using bubbletea.
package tui

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lekki-ent/marquee/internal/display"
	"github.com/lekki-ent/marquee/internal/events"
)

// Board is the display surface the TUI reads and drives.
type Board interface {
	Current() display.Snapshot
	Next() (int, error)
	Prev() (int, error)
	JumpTo(i int) (int, error)
}

// TUI is the terminal display.
type TUI struct {
	board     Board
	eventChan <-chan events.Event
	onQuit    func()
	out       io.Writer
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a TUI over board. eventChan may be nil when no router is
// available; the display then refreshes on its own tick only.
func New(board Board, eventChan <-chan events.Event, opts ...Option) *TUI {
	t := &TUI{
		board:     board,
		eventChan: eventChan,
		out:       os.Stdout,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithOnQuit sets the callback invoked when the user quits.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// WithOutput redirects the line-mode fallback output.
func WithOutput(w io.Writer) Option {
	return func(t *TUI) {
		if w != nil {
			t.out = w
		}
	}
}

// Run starts the TUI and blocks until it exits. Without a usable terminal it
// falls back to printing one status line per second.
func (t *TUI) Run() error {
	if !isTerminal() || terminalTooSmall() {
		return t.runSimple()
	}

	m := newModel(t.board, t.eventChan, t.onQuit)

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
