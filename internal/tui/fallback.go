package tui

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"
)

// isTerminal returns true if both stdout and stdin are TTYs.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalSize returns the current terminal width and height.
// Returns 0, 0 if the terminal size cannot be determined.
func terminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0
	}
	return width, height
}

// terminalTooSmall returns true if the terminal is below the minimum size.
func terminalTooSmall() bool {
	width, height := terminalSize()
	return width < minWidth || height < minHeight
}

// runSimple provides line-by-line output for non-interactive environments:
// one status line per tick plus one line per formatted event. Exits when the
// event channel closes or on interrupt signal.
func (t *TUI) runSimple() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	t.printStatus(time.Now())

	for {
		select {
		case <-sigChan:
			return nil
		case now := <-ticker.C:
			t.printStatus(now)
		case event, ok := <-t.eventChan:
			if !ok {
				return nil
			}
			text := Format(event)
			if text == "" {
				continue
			}
			_, _ = fmt.Fprintf(t.out, "%s %s\n", event.Timestamp().Format("15:04:05"), text)
		}
	}
}

func (t *TUI) printStatus(now time.Time) {
	if t.board == nil {
		return
	}
	_, _ = fmt.Fprintf(t.out, "%s %s\n", now.Format("15:04:05"), StatusLine(t.board.Current()))
}
