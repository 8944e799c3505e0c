// Package events defines the display event taxonomy and the router that fans
// events out from the engines to the log sink, the terminal UI and the web
// surface.
package events

import "time"

// EventType identifies the category and nature of an event.
type EventType string

const (
	// Display lifecycle
	EventDisplayStart EventType = "display.start"
	EventDisplayStop  EventType = "display.stop"

	// Engine events
	EventCountdownReached EventType = "countdown.reached"
	EventSlideChanged     EventType = "slide.changed"

	// Operator commands received over HTTP, the control socket or the TUI
	EventControl EventType = "control.command"

	EventError EventType = "error"
)

// Source constants identify the origin of events.
const (
	SourceCountdown = "countdown"
	SourceRotation  = "rotation"
	SourceDisplay   = "display"
	SourceServer    = "server"
	SourceDaemon    = "daemon"
	SourceTUI       = "tui"
)

// Event is the base interface for all events in the system.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	Source() string
}

// BaseEvent provides the common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	Time      time.Time `json:"timestamp"`
	Src       string    `json:"source"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// Source returns the origin of the event.
func (e BaseEvent) Source() string {
	return e.Src
}

// DisplayStartEvent is emitted once the display board has built its engines.
type DisplayStartEvent struct {
	BaseEvent
	CountdownTitle string    `json:"countdown_title,omitempty"`
	Target         time.Time `json:"target,omitzero"`
	Slides         int       `json:"slides"`
	Fallback       bool      `json:"fallback,omitempty"`
}

// DisplayStopEvent is emitted when the display board is closed.
type DisplayStopEvent struct {
	BaseEvent
	Reason string `json:"reason,omitempty"`
}

// CountdownReachedEvent is emitted exactly once per countdown engine, on the
// first observation at or past the target instant.
type CountdownReachedEvent struct {
	BaseEvent
	EngineID string    `json:"engine_id"`
	Target   time.Time `json:"target"`
}

// SlideCause says why the hero index moved.
type SlideCause string

const (
	CauseAuto    SlideCause = "auto"
	CauseManual  SlideCause = "manual"
	CauseReplace SlideCause = "replace"
)

// SlideChangedEvent is emitted whenever a rotation engine's index changes.
type SlideChangedEvent struct {
	BaseEvent
	EngineID string     `json:"engine_id"`
	From     int        `json:"from"`
	To       int        `json:"to"`
	Total    int        `json:"total"`
	Cause    SlideCause `json:"cause"`
}

// Operator command names carried by ControlEvent.
const (
	CommandHeroNext    = "hero.next"
	CommandHeroPrev    = "hero.prev"
	CommandHeroJump    = "hero.jump"
	CommandHeroReplace = "hero.replace"
)

// ControlEvent records an operator command such as hero.next.
type ControlEvent struct {
	BaseEvent
	Command string `json:"command"`
	Index   *int   `json:"index,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Severity constants for error events.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// ErrorEvent is emitted for any error condition.
type ErrorEvent struct {
	BaseEvent
	Message  string            `json:"message"`
	Severity string            `json:"severity"`
	Context  map[string]string `json:"context,omitempty"`
}

// NewEvent creates a BaseEvent stamped with the wall clock.
func NewEvent(eventType EventType, source string) BaseEvent {
	return NewEventAt(eventType, source, time.Now())
}

// NewEventAt creates a BaseEvent stamped with the given instant. Engines use
// it so events carry the same clock reading as the observation that caused
// them.
func NewEventAt(eventType EventType, source string, at time.Time) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Time:      at,
		Src:       source,
	}
}
