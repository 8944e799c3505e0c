package display

import (
	"github.com/lekki-ent/marquee/internal/countdown"
	"github.com/lekki-ent/marquee/internal/rotation"
)

// Display copy shown in place of, or on top of, the countdown digits.
const (
	LiveBanner          = "We're live! Doors are open"
	ScheduleUnavailable = "Schedule unavailable"
	DefaultHeroAlt      = "Hero image"
)

// Snapshot is a point-in-time view of the board, shaped for the web surface,
// the control socket and the terminal UI alike.
type Snapshot struct {
	At        string        `json:"at"` // RFC 3339 reading the snapshot was taken at
	Countdown CountdownView `json:"countdown"`
	Hero      HeroView      `json:"hero"`
}

// CountdownView is the "Next Up" card.
type CountdownView struct {
	Available bool            `json:"available"`
	Title     string          `json:"title,omitempty"`
	Href      string          `json:"href,omitempty"`
	TicketURL string          `json:"ticket_url,omitempty"`
	Target    string          `json:"target,omitempty"`
	State     countdown.State `json:"state"`
	Live      bool            `json:"live"`
	Message   string          `json:"message,omitempty"` // LiveBanner or ScheduleUnavailable
}

// HeroView is the rotating hero panel.
type HeroView struct {
	Title     string         `json:"title"`
	Subtitle  string         `json:"subtitle"`
	Available bool           `json:"available"`
	Index     int            `json:"index"`
	Total     int            `json:"total"`
	Slide     rotation.Slide `json:"slide"`
	Caption   bool           `json:"caption"` // Show title/subtitle over this slide
	Automatic bool           `json:"automatic"`
}
