// Package rotation cycles a hero display through an ordered set of slides on
// a fixed cadence, and accepts manual next/previous/jump navigation.
package rotation

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lekki-ent/marquee/internal/events"
	"github.com/lekki-ent/marquee/internal/tick"
)

// DefaultInterval is the automatic cadence when none is configured.
const DefaultInterval = 5 * time.Second

var (
	// ErrEmptySlideSet is returned when an engine is given no slides.
	ErrEmptySlideSet = errors.New("slide set is empty")
	// ErrInvalidHandle is returned by any call on a disposed engine.
	ErrInvalidHandle = errors.New("rotation engine disposed")
)

// Slide is one displayable image unit.
type Slide struct {
	Image       string `json:"image" yaml:"image" mapstructure:"image"`
	Alt         string `json:"alt" yaml:"alt" mapstructure:"alt"`
	ShowCaption bool   `json:"show_caption" yaml:"show_caption" mapstructure:"show_caption"`
}

// Engine holds the current slide index. Automatic advances run on the tick
// loop; manual calls may come from any goroutine.
type Engine struct {
	id            uuid.UUID
	source        tick.Source
	interval      time.Duration
	reducedMotion bool
	resetOnManual bool
	emitter       events.Emitter
	logger        *slog.Logger

	mu       sync.Mutex
	slides   []Slide
	index    int
	sub      *tick.Subscription
	disposed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithReducedMotion disables the automatic cadence. Manual navigation still
// works.
func WithReducedMotion(reduced bool) Option {
	return func(e *Engine) {
		e.reducedMotion = reduced
	}
}

// WithResetOnManual re-arms the cadence after every manual call, so the next
// automatic advance comes a full interval after the user's input. Off by
// default: manual input and the cadence then move the index independently.
func WithResetOnManual(reset bool) Option {
	return func(e *Engine) {
		e.resetOnManual = reset
	}
}

// WithRouter publishes index changes as SlideChangedEvents.
func WithRouter(emitter events.Emitter) Option {
	return func(e *Engine) {
		e.emitter = emitter
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an engine at index 0. A non-positive interval uses
// DefaultInterval. The cadence is only scheduled when there is more than one
// slide and reduced motion is off.
func New(source tick.Source, slides []Slide, interval time.Duration, opts ...Option) (*Engine, error) {
	if len(slides) == 0 {
		return nil, fmt.Errorf("create rotation: %w", ErrEmptySlideSet)
	}
	if source == nil {
		return nil, errors.New("rotation: nil tick source")
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	e := &Engine{
		id:       uuid.New(),
		source:   source,
		interval: interval,
		logger:   slog.Default(),
		slides:   append([]Slide(nil), slides...),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.mu.Lock()
	err := e.syncCadenceLocked()
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	e.logger.Debug("rotation engine created",
		"engine", e.id,
		"slides", len(slides),
		"interval", interval,
		"automatic", e.Automatic(),
	)
	return e, nil
}

// ID identifies the engine in events and logs.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// Interval returns the automatic cadence.
func (e *Engine) Interval() time.Duration {
	return e.interval
}

// Automatic reports whether a cadence subscription is active.
func (e *Engine) Automatic() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sub != nil
}

// Len returns the number of slides, or 0 after Dispose.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return 0
	}
	return len(e.slides)
}

// Current returns the current index.
func (e *Engine) Current() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return 0, ErrInvalidHandle
	}
	return e.index, nil
}

// Slide returns the slide at the current index.
func (e *Engine) Slide() (Slide, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return Slide{}, ErrInvalidHandle
	}
	return e.slides[e.index], nil
}

// Slides returns a copy of the slide set.
func (e *Engine) Slides() ([]Slide, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return nil, ErrInvalidHandle
	}
	return append([]Slide(nil), e.slides...), nil
}

// Advance moves to the next slide, wrapping past the end.
func (e *Engine) Advance() (int, error) {
	return e.manual(func(i, n int) int { return (i + 1) % n })
}

// Retreat moves to the previous slide, wrapping past the start.
func (e *Engine) Retreat() (int, error) {
	return e.manual(func(i, n int) int { return (i - 1 + n) % n })
}

// JumpTo moves to index k. Any integer is accepted and wrapped into range.
func (e *Engine) JumpTo(k int) (int, error) {
	return e.manual(func(_, n int) int { return ((k % n) + n) % n })
}

// Replace swaps in a new slide set, resets the index to 0 and re-evaluates
// the cadence for the new length.
func (e *Engine) Replace(slides []Slide) error {
	if len(slides) == 0 {
		return fmt.Errorf("replace slides: %w", ErrEmptySlideSet)
	}

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return ErrInvalidHandle
	}
	from := e.index
	e.slides = append([]Slide(nil), slides...)
	e.index = 0
	if e.sub != nil {
		e.sub.Reset()
	}
	err := e.syncCadenceLocked()
	n := len(e.slides)
	e.mu.Unlock()

	e.emit(e.source.Now(), from, 0, n, events.CauseReplace)
	return err
}

// Dispose cancels the cadence. Later calls return ErrInvalidHandle.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	sub := e.sub
	e.sub = nil
	e.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	e.logger.Debug("rotation engine disposed", "engine", e.id)
}

func (e *Engine) manual(next func(i, n int) int) (int, error) {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return 0, ErrInvalidHandle
	}
	from := e.index
	e.index = next(from, len(e.slides))
	to, n := e.index, len(e.slides)
	if e.resetOnManual && e.sub != nil {
		e.sub.Reset()
	}
	e.mu.Unlock()

	if from != to {
		e.emit(e.source.Now(), from, to, n, events.CauseManual)
	}
	return to, nil
}

func (e *Engine) onTick(now time.Time) {
	e.mu.Lock()
	if e.disposed || len(e.slides) < 2 {
		e.mu.Unlock()
		return
	}
	from := e.index
	e.index = (from + 1) % len(e.slides)
	to, n := e.index, len(e.slides)
	e.mu.Unlock()

	e.emit(now, from, to, n, events.CauseAuto)
}

// syncCadenceLocked subscribes or cancels so a cadence exists exactly when
// it is wanted. Caller holds e.mu.
func (e *Engine) syncCadenceLocked() error {
	want := len(e.slides) > 1 && !e.reducedMotion
	switch {
	case want && e.sub == nil:
		sub, err := e.source.Every(e.interval, e.onTick)
		if err != nil {
			return fmt.Errorf("subscribe rotation tick: %w", err)
		}
		e.sub = sub
	case !want && e.sub != nil:
		e.sub.Cancel()
		e.sub = nil
	}
	return nil
}

func (e *Engine) emit(at time.Time, from, to, total int, cause events.SlideCause) {
	e.logger.Debug("slide changed", "engine", e.id, "from", from, "to", to, "cause", cause)
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(&events.SlideChangedEvent{
		BaseEvent: events.NewEventAt(events.EventSlideChanged, events.SourceRotation, at),
		EngineID:  e.id.String(),
		From:      from,
		To:        to,
		Total:     total,
		Cause:     cause,
	})
}
