package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lekki-ent/marquee/internal/display"
)

const (
	minWidth  = 50
	minHeight = 20
)

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	w := safeWidth(m.width - 4) // Account for container borders

	sections := []string{
		m.renderHeader(w),
		m.renderDivider(w),
		m.renderCountdown(w),
		m.renderDivider(w),
		m.renderHero(w),
		m.renderDivider(w),
		m.renderEvents(w),
		m.renderStatus(w),
		m.renderFooter(),
	}
	content := strings.Join(sections, "\n")

	rendered := styles.Container.
		Width(safeWidth(m.width - 2)).
		Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, rendered)
}

// renderTooSmall renders a minimal message for terminals that are too small.
func (m model) renderTooSmall() string {
	return fmt.Sprintf("Terminal too small (%dx%d). Need %dx%d minimum.",
		m.width, m.height, minWidth, minHeight)
}

// renderHeader renders the hero title and subtitle.
func (m model) renderHeader(w int) string {
	title := styles.Title.Render(truncate(safeString(m.snap.Hero.Title), w))
	subtitle := styles.Subtitle.Render(truncate(safeString(m.snap.Hero.Subtitle), w))
	return title + "\n" + subtitle
}

func (m model) renderDivider(w int) string {
	return styles.Divider.Render(strings.Repeat("─", w))
}

// renderCountdown renders the "Next Up" card: digit boxes, the live banner,
// or the fallback message.
func (m model) renderCountdown(w int) string {
	cd := m.snap.Countdown

	if !cd.Available {
		return padLines(styles.Fallback.Render(cd.Message), 6)
	}

	title := styles.CardTitle.Render(truncate("Next Up: "+safeString(cd.Title), w))

	var body string
	if cd.Live {
		body = padLines("\n"+styles.Live.Render(cd.Message), 4)
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			digitBox(cd.State.Days, "Days"),
			digitBox(cd.State.Hours, "Hours"),
			digitBox(cd.State.Minutes, "Mins"),
			digitBox(cd.State.Seconds, "Secs"),
		)
	}

	var links []string
	if cd.Href != "" {
		links = append(links, "View details → "+cd.Href)
	}
	if cd.TicketURL != "" {
		links = append(links, "Get Tickets: "+cd.TicketURL)
	}
	linkLine := styles.Link.Render(truncate(strings.Join(links, "  "), w))

	return strings.Join([]string{title, body, linkLine}, "\n")
}

// digitBox renders one zero-padded countdown field over its label.
func digitBox(n int, label string) string {
	return lipgloss.JoinVertical(lipgloss.Center,
		styles.Digit.Render(fmt.Sprintf("%02d", n)),
		styles.Label.Render(label),
	)
}

// renderHero renders the current slide and its dot indicator. Four lines.
func (m model) renderHero(w int) string {
	h := m.snap.Hero
	if !h.Available {
		return padLines(styles.Muted.Render("No hero slides"), 4)
	}

	mode := "auto"
	if !h.Automatic {
		mode = "manual"
	}
	heading := fmt.Sprintf("Slide %d/%d  (%s)", h.Index+1, h.Total, mode)
	alt := styles.Slide.Render(truncate(safeString(h.Slide.Alt), w))
	image := styles.Image.Render(truncate(h.Slide.Image, w))

	caption := ""
	if h.Caption {
		caption = styles.Subtitle.Render("  caption: " + truncate(safeString(h.Title), w-11))
	}

	lines := []string{
		styles.CardTitle.Render(heading) + caption,
		alt,
		image,
		renderDots(h, w),
	}
	return strings.Join(lines, "\n")
}

// renderDots renders one dot per slide, the current one highlighted.
// Large sets collapse to a position counter.
func renderDots(h display.HeroView, w int) string {
	if h.Total*2 > w {
		return styles.Dot.Render(fmt.Sprintf("%d of %d", h.Index+1, h.Total))
	}
	dots := make([]string, h.Total)
	for i := range dots {
		if i == h.Index {
			dots[i] = styles.DotActive.Render("●")
		} else {
			dots[i] = styles.Dot.Render("○")
		}
	}
	return strings.Join(dots, " ")
}

// renderEvents renders the most recent event lines.
func (m model) renderEvents(w int) string {
	visible := m.visibleEvents()

	start := max(0, len(m.eventLines)-visible)
	var lines []string
	for _, el := range m.eventLines[start:] {
		lines = append(lines, m.renderEventLine(el, w))
	}
	for len(lines) < visible {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderEventLine renders a single event with timestamp and styling.
func (m model) renderEventLine(el eventLine, maxWidth int) string {
	prefix := el.Time.Format("15:04:05") + " "
	textWidth := max(10, maxWidth-len(prefix))
	return styles.Muted.Render(prefix) + el.Style.Render(truncate(el.Text, textWidth))
}

func (m model) renderStatus(w int) string {
	if m.status == "" {
		return ""
	}
	return m.statusStyle.Render(truncate(m.status, w))
}

// renderFooter renders keyboard shortcuts help text.
func (m model) renderFooter() string {
	return m.help.View(m.keys)
}

// padLines pads s with empty lines until it is n lines tall.
func padLines(s string, n int) string {
	lines := strings.Count(s, "\n") + 1
	if lines >= n {
		return s
	}
	return s + strings.Repeat("\n", n-lines)
}

// safeWidth returns a width that is at least 1 to prevent negative values.
func safeWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}
