package tui

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/lekki-ent/marquee/internal/countdown"
	"github.com/lekki-ent/marquee/internal/display"
	"github.com/lekki-ent/marquee/internal/events"
)

const (
	maxTextLength     = 120
	truncateIndicator = "..."
)

// Format converts an event to a human-readable string for display.
// Returns empty string for nil or unknown event types.
func Format(event events.Event) string {
	if event == nil {
		return ""
	}

	switch e := event.(type) {
	case *events.DisplayStartEvent:
		return formatDisplayStart(e)
	case *events.DisplayStopEvent:
		if reason := safeString(e.Reason); reason != "" {
			return fmt.Sprintf("display stopped: %s", reason)
		}
		return "display stopped"
	case *events.CountdownReachedEvent:
		return fmt.Sprintf("countdown reached: %s", e.Target.Format(time.RFC3339))
	case *events.SlideChangedEvent:
		return fmt.Sprintf("slide %d/%d (%s)", e.To+1, e.Total, e.Cause)
	case *events.ControlEvent:
		return formatControl(e)
	case *events.ErrorEvent:
		return fmt.Sprintf("error: %s", truncate(safeString(e.Message), maxTextLength))
	default:
		return ""
	}
}

func formatDisplayStart(e *events.DisplayStartEvent) string {
	if e.Fallback {
		return fmt.Sprintf("display started: %d slides, schedule unavailable", e.Slides)
	}
	title := safeString(e.CountdownTitle)
	if title == "" {
		title = e.Target.Format(time.RFC3339)
	}
	return fmt.Sprintf("display started: %d slides, counting down to %s", e.Slides, truncate(title, 50))
}

func formatControl(e *events.ControlEvent) string {
	cmd := safeString(e.Command)
	if e.Index != nil {
		cmd = fmt.Sprintf("%s %d", cmd, *e.Index+1)
	}
	if e.Error != "" {
		return fmt.Sprintf("[x] %s: %s", cmd, truncate(safeString(e.Error), 60))
	}
	return fmt.Sprintf("> %s", cmd)
}

// StyleForEvent returns the appropriate style for an event type.
func StyleForEvent(event events.Event) lipgloss.Style {
	switch e := event.(type) {
	case *events.CountdownReachedEvent:
		return styles.Live
	case *events.ControlEvent:
		if e.Error != "" {
			return styles.Error
		}
		return styles.Control
	case *events.ErrorEvent:
		return styles.Error
	default:
		return styles.Muted
	}
}

// Clock renders a countdown state as "1d 01:01:01".
func Clock(st countdown.State) string {
	return fmt.Sprintf("%dd %02d:%02d:%02d", st.Days, st.Hours, st.Minutes, st.Seconds)
}

// StatusLine is the one-line rendering used by the non-TTY fallback and the
// CLI's follow mode.
func StatusLine(snap display.Snapshot) string {
	var b strings.Builder

	cd := snap.Countdown
	switch {
	case !cd.Available:
		b.WriteString(cd.Message)
	case cd.Live:
		fmt.Fprintf(&b, "Next Up: %s | %s", safeString(cd.Title), cd.Message)
	default:
		fmt.Fprintf(&b, "Next Up: %s | %s", safeString(cd.Title), Clock(cd.State))
	}

	if h := snap.Hero; h.Available {
		fmt.Fprintf(&b, " | hero %d/%d %s", h.Index+1, h.Total, truncate(safeString(h.Slide.Alt), 40))
	}
	return b.String()
}

// truncate shortens s to maxLen runes including the indicator.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	if maxLen <= len(truncateIndicator) {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-len(truncateIndicator)]) + truncateIndicator
}

// safeString sanitizes a string for display by removing control characters
// and limiting newlines.
func safeString(s string) string {
	s = stripANSI(s)

	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == ' ' || !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}

	result := sb.String()
	for strings.Contains(result, "  ") {
		result = strings.ReplaceAll(result, "  ", " ")
	}

	return strings.TrimSpace(result)
}

// ansiRegex matches ANSI escape sequences.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
