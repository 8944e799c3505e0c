// Package display owns the engines behind the site's live surfaces: the
// "Next Up" countdown card and the rotating hero. Every presentation layer
// (web, terminal, control socket) reads the same Board.
package display

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lekki-ent/marquee/internal/catalog"
	"github.com/lekki-ent/marquee/internal/config"
	"github.com/lekki-ent/marquee/internal/countdown"
	"github.com/lekki-ent/marquee/internal/events"
	"github.com/lekki-ent/marquee/internal/rotation"
	"github.com/lekki-ent/marquee/internal/tick"
)

// ErrNoHero is returned by hero navigation when the board has no slides.
var ErrNoHero = errors.New("hero display has no slides")

// ErrClosed is returned by calls on a closed board.
var ErrClosed = errors.New("display board closed")

// Board holds one countdown engine and one rotation engine.
type Board struct {
	source  tick.Source
	emitter events.Emitter
	logger  *slog.Logger
	cfg     config.HeroConfig

	onReached []func(at time.Time)

	// Countdown card details; fixed at construction.
	cdTitle   string
	cdHref    string
	cdTicket  string
	countdown *countdown.Engine
	cdErr     error

	mu     sync.RWMutex
	hero   *rotation.Engine
	closed bool
}

// Option configures a Board.
type Option func(*Board)

// WithRouter publishes board and engine events.
func WithRouter(emitter events.Emitter) Option {
	return func(b *Board) {
		b.emitter = emitter
	}
}

// WithLogger sets the board logger, shared with both engines.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithOnReached registers a callback for the countdown reaching its target.
func WithOnReached(fn func(at time.Time)) Option {
	return func(b *Board) {
		if fn != nil {
			b.onReached = append(b.onReached, fn)
		}
	}
}

// New builds a board from configuration and the event catalog.
//
// The countdown target is cfg.Countdown.Target when set, otherwise the start
// of the next upcoming catalog event. A countdown that cannot be built does
// not fail the board: the card falls back to "Schedule unavailable". Hero
// slides are cfg.Hero.Slides when set, otherwise catalog highlights; with no
// slides at all the hero is simply absent.
func New(cfg *config.Config, cat *catalog.Catalog, source tick.Source, opts ...Option) (*Board, error) {
	if cfg == nil {
		return nil, errors.New("display: nil config")
	}
	if source == nil {
		return nil, errors.New("display: nil tick source")
	}

	b := &Board{
		source: source,
		logger: slog.Default(),
		cfg:    cfg.Hero,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.buildCountdown(cfg.Countdown, cat)

	slides := heroSlides(cfg.Hero, cat)
	if len(slides) > 0 {
		hero, err := b.newHero(slides)
		if err != nil {
			b.disposeCountdown()
			return nil, err
		}
		b.hero = hero
	}

	start := &events.DisplayStartEvent{
		BaseEvent:      events.NewEventAt(events.EventDisplayStart, events.SourceDisplay, source.Now()),
		CountdownTitle: b.cdTitle,
		Slides:         len(slides),
		Fallback:       b.countdown == nil,
	}
	if b.countdown != nil {
		start.Target = b.countdown.Target()
	}
	b.emit(start)

	b.logger.Info("display started",
		"countdown", b.cdTitle,
		"fallback", b.countdown == nil,
		"slides", len(slides),
	)
	return b, nil
}

func (b *Board) buildCountdown(cc config.CountdownConfig, cat *catalog.Catalog) {
	b.cdTitle = cc.Title
	b.cdHref = cc.Href

	target := cc.Target
	if target == "" && cat != nil {
		if ev, start, ok := cat.NextEvent(b.source.Now()); ok {
			target = start.Format(time.RFC3339)
			if b.cdTitle == "" {
				b.cdTitle = ev.Title
			}
			if b.cdHref == "" {
				b.cdHref = ev.Href()
			}
			b.cdTicket = ev.TicketURL
		}
	}

	opts := []countdown.Option{
		countdown.WithRouter(b.emitter),
		countdown.WithLogger(b.logger),
		countdown.WithTickPeriod(cc.Tick),
	}
	for _, fn := range b.onReached {
		opts = append(opts, countdown.WithOnReached(fn))
	}

	engine, err := countdown.NewFromString(b.source, target, opts...)
	if err != nil {
		b.cdErr = err
		b.logger.Warn("countdown unavailable", "target", target, "error", err)
		b.emit(&events.ErrorEvent{
			BaseEvent: events.NewEventAt(events.EventError, events.SourceDisplay, b.source.Now()),
			Message:   fmt.Sprintf("countdown unavailable: %v", err),
			Severity:  events.SeverityWarning,
			Context:   map[string]string{"target": target},
		})
		return
	}
	b.countdown = engine
}

func (b *Board) newHero(slides []rotation.Slide) (*rotation.Engine, error) {
	return rotation.New(b.source, slides, b.cfg.Interval,
		rotation.WithReducedMotion(b.cfg.ReducedMotion),
		rotation.WithResetOnManual(b.cfg.ResetOnManual),
		rotation.WithRouter(b.emitter),
		rotation.WithLogger(b.logger),
	)
}

// heroSlides resolves the configured slide set, falling back to catalog
// photo highlights. Only the first catalog slide carries the caption.
func heroSlides(hc config.HeroConfig, cat *catalog.Catalog) []rotation.Slide {
	if len(hc.Slides) > 0 {
		slides := make([]rotation.Slide, len(hc.Slides))
		for i, s := range hc.Slides {
			slides[i] = rotation.Slide{Image: s.Image, Alt: s.Alt, ShowCaption: s.ShowCaption}
		}
		return withDefaultAlt(slides)
	}
	if cat == nil {
		return nil
	}
	photos := cat.Highlights(hc.MaxSlides)
	slides := make([]rotation.Slide, len(photos))
	for i, p := range photos {
		slides[i] = rotation.Slide{Image: p.Src, Alt: p.Alt, ShowCaption: i == 0}
	}
	return withDefaultAlt(slides)
}

func withDefaultAlt(slides []rotation.Slide) []rotation.Slide {
	for i := range slides {
		if slides[i].Alt == "" {
			slides[i].Alt = DefaultHeroAlt
		}
	}
	return slides
}

// CountdownErr returns why the countdown card is in its fallback state, or
// nil when a countdown is running.
func (b *Board) CountdownErr() error {
	return b.cdErr
}

// Snapshot reads both engines at now. Reading the countdown may itself be
// the observation that fires the reached notification.
func (b *Board) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		At:        now.Format(time.RFC3339),
		Countdown: b.countdownView(now),
	}

	b.mu.RLock()
	hero := b.hero
	b.mu.RUnlock()

	snap.Hero = HeroView{Title: b.cfg.Title, Subtitle: b.cfg.Subtitle}
	if hero == nil {
		return snap
	}
	idx, err := hero.Current()
	if err != nil {
		return snap
	}
	slide, err := hero.Slide()
	if err != nil {
		return snap
	}
	snap.Hero.Available = true
	snap.Hero.Index = idx
	snap.Hero.Total = hero.Len()
	snap.Hero.Slide = slide
	snap.Hero.Caption = slide.ShowCaption
	snap.Hero.Automatic = hero.Automatic()
	return snap
}

// Current is Snapshot at the tick source's current instant.
func (b *Board) Current() Snapshot {
	return b.Snapshot(b.source.Now())
}

func (b *Board) countdownView(now time.Time) CountdownView {
	view := CountdownView{
		Title:     b.cdTitle,
		Href:      b.cdHref,
		TicketURL: b.cdTicket,
	}
	if b.countdown == nil {
		view.Message = ScheduleUnavailable
		return view
	}
	st, err := b.countdown.State(now)
	if err != nil {
		view.Message = ScheduleUnavailable
		return view
	}
	view.Available = true
	view.Target = b.countdown.Target().Format(time.RFC3339)
	view.State = st
	if st.Reached {
		view.Live = true
		view.Message = LiveBanner
	}
	return view
}

// Next advances the hero one slide.
func (b *Board) Next() (int, error) {
	return b.navigate(events.CommandHeroNext, nil, (*rotation.Engine).Advance)
}

// Prev moves the hero back one slide.
func (b *Board) Prev() (int, error) {
	return b.navigate(events.CommandHeroPrev, nil, (*rotation.Engine).Retreat)
}

// JumpTo moves the hero to slide i, wrapped into range.
func (b *Board) JumpTo(i int) (int, error) {
	return b.navigate(events.CommandHeroJump, &i, func(e *rotation.Engine) (int, error) {
		return e.JumpTo(i)
	})
}

// ReplaceSlides swaps the hero slide set. A board that started without
// slides gains a hero.
func (b *Board) ReplaceSlides(slides []rotation.Slide) error {
	slides = withDefaultAlt(append([]rotation.Slide(nil), slides...))

	b.mu.Lock()
	var err error
	switch {
	case b.closed:
		err = ErrClosed
	case b.hero == nil:
		var hero *rotation.Engine
		hero, err = b.newHero(slides)
		if err == nil {
			b.hero = hero
		}
	default:
		err = b.hero.Replace(slides)
	}
	b.mu.Unlock()

	b.control(events.CommandHeroReplace, nil, err)
	return err
}

func (b *Board) navigate(command string, index *int, fn func(*rotation.Engine) (int, error)) (int, error) {
	b.mu.RLock()
	hero, closed := b.hero, b.closed
	b.mu.RUnlock()

	var (
		to  int
		err error
	)
	switch {
	case closed:
		err = ErrClosed
	case hero == nil:
		err = ErrNoHero
	default:
		to, err = fn(hero)
	}
	b.control(command, index, err)
	return to, err
}

func (b *Board) control(command string, index *int, err error) {
	ev := &events.ControlEvent{
		BaseEvent: events.NewEventAt(events.EventControl, events.SourceDisplay, b.source.Now()),
		Command:   command,
		Index:     index,
	}
	if err != nil {
		ev.Error = err.Error()
		b.logger.Warn("display command failed", "command", command, "error", err)
	}
	b.emit(ev)
}

// Close disposes both engines and emits DisplayStopEvent. Idempotent.
func (b *Board) Close(reason string) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	hero := b.hero
	b.mu.Unlock()

	if hero != nil {
		hero.Dispose()
	}
	b.disposeCountdown()

	b.emit(&events.DisplayStopEvent{
		BaseEvent: events.NewEventAt(events.EventDisplayStop, events.SourceDisplay, b.source.Now()),
		Reason:    reason,
	})
	b.logger.Info("display stopped", "reason", reason)
}

func (b *Board) disposeCountdown() {
	if b.countdown != nil {
		b.countdown.Dispose()
	}
}

func (b *Board) emit(ev events.Event) {
	if b.emitter != nil {
		b.emitter.Emit(ev)
	}
}
