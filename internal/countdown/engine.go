package countdown

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

// DefaultTickPeriod is how often the engine re-derives its state.
const DefaultTickPeriod = time.Second

// Engine counts down to one target instant. It owns a single tick
// subscription, released by Dispose or when the target is reached.
type Engine struct {
	id        uuid.UUID
	target    time.Time
	source    tick.Source
	period    time.Duration
	logger    *slog.Logger
	emitter   events.Emitter
	onReached []func(at time.Time)

	mu       sync.Mutex
	sub      *tick.Subscription
	reached  bool
	disposed bool
	last     State
}

// Option configures an Engine.
type Option func(*Engine)

// WithOnReached registers a callback for the reached transition. It runs at
// most once, with the clock reading that first observed the target.
func WithOnReached(fn func(at time.Time)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.onReached = append(e.onReached, fn)
		}
	}
}

// WithRouter publishes the reached transition as a CountdownReachedEvent.
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

// WithTickPeriod overrides the one-second tick. Non-positive values are ignored.
func WithTickPeriod(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.period = d
		}
	}
}

// New creates an engine for target and subscribes it to source. On error no
// subscription is held.
func New(source tick.Source, target time.Time, opts ...Option) (*Engine, error) {
	if target.IsZero() {
		return nil, fmt.Errorf("%w: zero instant", ErrInvalidTarget)
	}
	if source == nil {
		return nil, errors.New("countdown: nil tick source")
	}

	e := &Engine{
		id:     uuid.New(),
		target: target,
		source: source,
		period: DefaultTickPeriod,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	sub, err := source.Every(e.period, e.onTick)
	if err != nil {
		return nil, fmt.Errorf("subscribe countdown tick: %w", err)
	}
	e.mu.Lock()
	e.sub = sub
	e.mu.Unlock()

	e.logger.Debug("countdown engine created",
		"engine", e.id,
		"target", target.Format(time.RFC3339),
		"period", e.period,
	)
	return e, nil
}

// NewFromString parses iso with ParseTarget and creates an engine.
func NewFromString(source tick.Source, iso string, opts ...Option) (*Engine, error) {
	target, err := ParseTarget(iso)
	if err != nil {
		return nil, err
	}
	return New(source, target, opts...)
}

// ID identifies the engine in events and logs.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// Target returns the instant the engine counts toward.
func (e *Engine) Target() time.Time {
	return e.target
}

// State derives the countdown for now. Reading may itself be the observation
// that fires the reached notification.
func (e *Engine) State(now time.Time) (State, error) {
	st, fired, err := e.observe(now)
	if err != nil {
		return State{}, err
	}
	if fired {
		e.notify(now)
	}
	return st, nil
}

// Current is State at the tick source's current instant.
func (e *Engine) Current() (State, error) {
	return e.State(e.source.Now())
}

// Last returns the state computed by the most recent tick or read.
func (e *Engine) Last() (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return State{}, ErrInvalidHandle
	}
	return e.last, nil
}

// Reached reports whether the target has been observed.
func (e *Engine) Reached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reached
}

// Dispose releases the tick subscription. Later calls return ErrInvalidHandle.
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
	e.logger.Debug("countdown engine disposed", "engine", e.id)
}

func (e *Engine) onTick(now time.Time) {
	if _, err := e.State(now); err != nil && !errors.Is(err, ErrInvalidHandle) {
		e.logger.Error("countdown tick failed", "engine", e.id, "error", err)
	}
}

// observe updates the state and reports whether this call made the reached
// transition.
func (e *Engine) observe(now time.Time) (State, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		return State{}, false, ErrInvalidHandle
	}
	if e.reached {
		return e.last, false, nil
	}

	st := Decompose(e.target.Sub(now))
	e.last = st
	if !st.Reached {
		return st, false, nil
	}

	e.reached = true
	// Nothing left to count; stop ticking.
	if e.sub != nil {
		e.sub.Cancel()
		e.sub = nil
	}
	return st, true, nil
}

func (e *Engine) notify(at time.Time) {
	e.logger.Info("countdown reached",
		"engine", e.id,
		"target", e.target.Format(time.RFC3339),
	)

	if e.emitter != nil {
		e.emitter.Emit(&events.CountdownReachedEvent{
			BaseEvent: events.NewEventAt(events.EventCountdownReached, events.SourceCountdown, at),
			EngineID:  e.id.String(),
			Target:    e.target,
		})
	}
	for _, fn := range e.onReached {
		fn(at)
	}
}
