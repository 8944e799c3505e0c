// Package countdown derives a days/hours/minutes/seconds breakdown of the time
// left until a target instant, and fires a one-shot notification when the
// target is reached.
package countdown

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidTarget is returned when a target is missing or unparseable.
	ErrInvalidTarget = errors.New("invalid countdown target")
	// ErrInvalidHandle is returned by any call on a disposed engine.
	ErrInvalidHandle = errors.New("countdown engine disposed")
)

const (
	msPerDay    = 86_400_000
	msPerHour   = 3_600_000
	msPerMinute = 60_000
	msPerSecond = 1_000
)

// State is the displayed breakdown of the remaining time. When Reached is
// true every numeric field is zero.
type State struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	Reached bool `json:"reached"`
}

// String renders the state as "1d 01:01:01".
func (s State) String() string {
	if s.Reached {
		return "reached"
	}
	return fmt.Sprintf("%dd %02d:%02d:%02d", s.Days, s.Hours, s.Minutes, s.Seconds)
}

// Decompose floors remaining into whole days, hours, minutes and seconds.
// Negative durations clamp to zero. Sub-second remainders are dropped, so a
// target 400ms away shows 0s but is not yet reached.
func Decompose(remaining time.Duration) State {
	if remaining <= 0 {
		return State{Reached: true}
	}
	ms := int64(remaining / time.Millisecond)
	return State{
		Days:    int(ms / msPerDay),
		Hours:   int((ms / msPerHour) % 24),
		Minutes: int((ms / msPerMinute) % 60),
		Seconds: int((ms / msPerSecond) % 60),
	}
}

// targetLayouts are the accepted ISO-8601 forms. Every layout requires an
// explicit offset or Z.
var targetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

// ParseTarget parses an ISO-8601 timestamp with a timezone offset.
func ParseTarget(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrInvalidTarget)
	}
	for _, layout := range targetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an ISO-8601 timestamp with offset", ErrInvalidTarget, s)
}
