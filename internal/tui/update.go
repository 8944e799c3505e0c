package tui

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lekki-ent/marquee/internal/display"
	"github.com/lekki-ent/marquee/internal/events"
)

const (
	// maxEventLines is the maximum number of event lines to keep in the buffer.
	maxEventLines = 200
	// trimEventLines is the number of lines to remove when buffer exceeds max.
	trimEventLines = 50
	// tickInterval is how often the board is re-read.
	tickInterval = time.Second
)

// channelClosedMsg signals that the event channel was closed.
type channelClosedMsg struct{}

// tickMsg signals a periodic board refresh.
type tickMsg time.Time

// waitForEvent creates a command that waits for the next event from the channel.
// Returns channelClosedMsg if the channel is closed.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return eventMsg(event)
	}
}

// doTick creates a command that waits for the tick interval and sends a tickMsg.
func doTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		m.handleEvent(events.Event(msg))
		return m, waitForEvent(m.eventChan)

	case channelClosedMsg:
		// Router closed: the display is shutting down.
		slog.Info("event channel closed, exiting TUI")
		return m, tea.Quit

	case tickMsg:
		m.refresh()
		return m, doTick()

	default:
		return m, nil
	}
}

// handleKey processes keyboard input.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case m.board == nil:
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		_, err := m.board.Prev()
		m.afterCommand(events.CommandHeroPrev, err)

	case key.Matches(msg, m.keys.Next):
		_, err := m.board.Next()
		m.afterCommand(events.CommandHeroNext, err)

	case key.Matches(msg, m.keys.Jump):
		n, err := strconv.Atoi(msg.String())
		if err != nil {
			return m, nil
		}
		_, err = m.board.JumpTo(n - 1)
		m.afterCommand(events.CommandHeroJump, err)
	}
	return m, nil
}

func (m *model) afterCommand(command string, err error) {
	if err != nil {
		m.status = fmt.Sprintf("%s failed: %v", command, err)
		m.statusStyle = styles.Error
	}
	m.refresh()
}

// handleEvent records an event and refreshes the board when it moved.
func (m *model) handleEvent(event events.Event) {
	switch e := event.(type) {
	case *events.CountdownReachedEvent:
		m.status = "Countdown reached. " + display.LiveBanner
		m.statusStyle = styles.Live
		m.refresh()

	case *events.SlideChangedEvent:
		m.refresh()

	case *events.ErrorEvent:
		m.status = safeString(e.Message)
		m.statusStyle = styles.Error

	case *events.DisplayStopEvent:
		m.status = "display stopped"
		m.statusStyle = styles.Status
	}

	text := Format(event)
	if text == "" {
		return
	}
	m.eventLines = append(m.eventLines, eventLine{
		Time:  event.Timestamp(),
		Text:  text,
		Style: StyleForEvent(event),
	})
	if len(m.eventLines) > maxEventLines {
		m.eventLines = m.eventLines[trimEventLines:]
	}
}
