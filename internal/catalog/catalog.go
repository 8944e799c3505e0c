// Package catalog holds the read-only list of events and their photos.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed events.yaml
var embeddedYAML []byte

const dateLayout = "2006-01-02"

// DefaultPhotoAlt is used for gallery photos without alt text.
const DefaultPhotoAlt = "Event photo"

// ErrNotFound is returned when no event has the requested slug.
var ErrNotFound = errors.New("event not found")

// Photo is one image from an event.
type Photo struct {
	Src string `yaml:"src" json:"src"`
	Alt string `yaml:"alt,omitempty" json:"alt,omitempty"`
}

// Event is one listing in the catalog.
type Event struct {
	Slug        string  `yaml:"slug" json:"slug"`
	Title       string  `yaml:"title" json:"title"`
	Date        string  `yaml:"date" json:"date"`
	StartsAt    string  `yaml:"starts_at,omitempty" json:"starts_at,omitempty"`
	Venue       string  `yaml:"venue" json:"venue"`
	City        string  `yaml:"city" json:"city"`
	Description string  `yaml:"description" json:"description"`
	CoverImage  string  `yaml:"cover_image" json:"cover_image"`
	TicketURL   string  `yaml:"ticket_url,omitempty" json:"ticket_url,omitempty"`
	Photos      []Photo `yaml:"photos,omitempty" json:"photos,omitempty"`
}

// Start returns the instant the event begins: StartsAt when set, otherwise
// midnight UTC on Date.
func (e Event) Start() (time.Time, error) {
	if e.StartsAt != "" {
		t, err := time.Parse(time.RFC3339, e.StartsAt)
		if err != nil {
			return time.Time{}, fmt.Errorf("event %s: parse starts_at: %w", e.Slug, err)
		}
		return t, nil
	}
	t, err := time.Parse(dateLayout, e.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("event %s: parse date: %w", e.Slug, err)
	}
	return t, nil
}

// Href is the site path of the event's detail page.
func (e Event) Href() string {
	return "/events/" + e.Slug
}

// PhotoAlt returns the alt text of photo i, falling back to the event title.
func (e Event) PhotoAlt(i int) string {
	if i >= 0 && i < len(e.Photos) && e.Photos[i].Alt != "" {
		return e.Photos[i].Alt
	}
	return e.Title
}

// IsPast reports whether e started before now. Events with an invalid date
// are never past.
func IsPast(e Event, now time.Time) bool {
	start, err := e.Start()
	if err != nil {
		return false
	}
	return start.Before(now)
}

// FormatDate renders a YYYY-MM-DD date as "Oct 4, 2025". Unparseable input
// is returned unchanged.
func FormatDate(date string) string {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2, 2006")
}

type document struct {
	Events []Event `yaml:"events"`
}

// Catalog is an ordered, immutable set of events.
type Catalog struct {
	events []Event
	bySlug map[string]int
}

// Load parses and validates a YAML catalog.
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		events: doc.Events,
		bySlug: make(map[string]int, len(doc.Events)),
	}
	for i, e := range doc.Events {
		if e.Slug == "" {
			return nil, fmt.Errorf("catalog entry %d: missing slug", i)
		}
		if e.Title == "" {
			return nil, fmt.Errorf("event %s: missing title", e.Slug)
		}
		if _, dup := c.bySlug[e.Slug]; dup {
			return nil, fmt.Errorf("event %s: duplicate slug", e.Slug)
		}
		if _, err := time.Parse(dateLayout, e.Date); err != nil {
			return nil, fmt.Errorf("event %s: invalid date %q", e.Slug, e.Date)
		}
		if _, err := e.Start(); err != nil {
			return nil, err
		}
		c.bySlug[e.Slug] = i
	}
	return c, nil
}

// LoadFile reads a catalog from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Load(data)
}

// Embedded returns the catalog compiled into the binary.
func Embedded() (*Catalog, error) {
	return Load(embeddedYAML)
}

// EmbeddedSource returns a copy of the YAML behind Embedded, for
// scaffolding an editable catalog.
func EmbeddedSource() []byte {
	return append([]byte(nil), embeddedYAML...)
}

// Open loads path, or the embedded catalog when path is empty.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return Embedded()
	}
	return LoadFile(path)
}

// Len returns the number of events.
func (c *Catalog) Len() int {
	return len(c.events)
}

// All returns every event in catalog order.
func (c *Catalog) All() []Event {
	return append([]Event(nil), c.events...)
}

// Find looks up an event by slug.
func (c *Catalog) Find(slug string) (Event, error) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	return c.events[i], nil
}

// Featured returns the first event in the catalog.
func (c *Catalog) Featured() (Event, bool) {
	if len(c.events) == 0 {
		return Event{}, false
	}
	return c.events[0], true
}

// Upcoming returns events that have not started, in catalog order.
func (c *Catalog) Upcoming(now time.Time) []Event {
	var out []Event
	for _, e := range c.events {
		if !IsPast(e, now) {
			out = append(out, e)
		}
	}
	return out
}

// Past returns started events, newest first (reverse catalog order).
func (c *Catalog) Past(now time.Time) []Event {
	var out []Event
	for i := len(c.events) - 1; i >= 0; i-- {
		if IsPast(c.events[i], now) {
			out = append(out, c.events[i])
		}
	}
	return out
}

// Photos flattens every event's photos in catalog order. Missing alt text is
// filled with DefaultPhotoAlt.
func (c *Catalog) Photos() []Photo {
	var out []Photo
	for _, e := range c.events {
		for _, p := range e.Photos {
			if p.Alt == "" {
				p.Alt = DefaultPhotoAlt
			}
			out = append(out, p)
		}
	}
	return out
}

// Highlights returns at most n photos. n <= 0 means all of them.
func (c *Catalog) Highlights(n int) []Photo {
	photos := c.Photos()
	if n > 0 && len(photos) > n {
		photos = photos[:n]
	}
	return photos
}

// NextEvent returns the first upcoming event that has an explicit start time,
// together with that instant.
func (c *Catalog) NextEvent(now time.Time) (Event, time.Time, bool) {
	for _, e := range c.Upcoming(now) {
		if e.StartsAt == "" {
			continue
		}
		start, err := e.Start()
		if err != nil {
			continue
		}
		return e, start, true
	}
	return Event{}, time.Time{}, false
}
