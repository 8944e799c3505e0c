package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lekki-ent/marquee/internal/display"
	"github.com/lekki-ent/marquee/internal/events"
)

// eventLine represents a formatted event for display.
type eventLine struct {
	Time  time.Time
	Text  string
	Style lipgloss.Style
}

// model is the bubbletea model for the TUI.
type model struct {
	board     Board
	eventChan <-chan events.Event

	// Latest board reading, refreshed on every tick and after navigation.
	snap display.Snapshot

	// status is the most recent notable message (reached, command errors).
	status      string
	statusStyle lipgloss.Style

	eventLines []eventLine

	width  int
	height int

	keys keyMap
	help help.Model

	onQuit func()
}

// eventMsg wraps an event for the bubbletea message system.
type eventMsg events.Event

func newModel(board Board, eventChan <-chan events.Event, onQuit func()) model {
	m := model{
		board:       board,
		eventChan:   eventChan,
		statusStyle: styles.Status,
		keys:        newKeyMap(),
		help:        help.New(),
		onQuit:      onQuit,
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.eventChan),
		doTick(),
		tea.EnterAltScreen,
	)
}

// refresh re-reads the board.
func (m *model) refresh() {
	if m.board != nil {
		m.snap = m.board.Current()
	}
}

// visibleEvents returns how many recent event lines fit under the panels.
func (m model) visibleEvents() int {
	// border (2), header (2), countdown (6), hero (4), dividers (3), status (1), footer (1)
	return max(1, m.height-19)
}
