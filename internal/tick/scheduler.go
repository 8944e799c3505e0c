// Package tick provides the cooperative tick source shared by the display
// engines. A Scheduler owns a single event loop: every periodic callback and
// every piece of work queued with Do runs on that loop, one at a time.
package tick

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lekki-ent/marquee/internal/clock"
)

// DefaultQueueSize is the buffer size of the loop's work queue.
const DefaultQueueSize = 256

// ErrClosed is returned when work is submitted to a closed scheduler.
var ErrClosed = errors.New("scheduler closed")

// Source hands out periodic subscriptions. Engines depend on this interface
// rather than on *Scheduler.
type Source interface {
	Every(period time.Duration, fn func(now time.Time)) (*Subscription, error)
	Now() time.Time
}

// Scheduler is a single-goroutine cooperative tick loop.
type Scheduler struct {
	clock  clock.Clock
	logger *slog.Logger
	queue  chan func()
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	subs   map[uuid.UUID]*Subscription
}

// NewScheduler creates a scheduler reading time from clk.
// A nil clock uses the system clock; a nil logger uses slog.Default().
func NewScheduler(clk clock.Clock, logger *slog.Logger) *Scheduler {
	if clk == nil {
		clk = clock.System
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		clock:  clk,
		logger: logger,
		queue:  make(chan func(), DefaultQueueSize),
		done:   make(chan struct{}),
		subs:   make(map[uuid.UUID]*Subscription),
	}
}

// Now returns the scheduler clock's current instant.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Run executes queued work until ctx is cancelled or Close is called.
// It closes the scheduler on return.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Debug("tick loop started")
	defer s.logger.Debug("tick loop stopped")
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case fn := <-s.queue:
			fn()
		}
	}
}

// Every registers fn to run on the loop once per period, starting one period
// from now. Each invocation receives a fresh clock reading; periods missed
// while the loop was busy are not replayed.
func (s *Scheduler) Every(period time.Duration, fn func(now time.Time)) (*Subscription, error) {
	if period <= 0 {
		return nil, fmt.Errorf("tick period must be positive, got %s", period)
	}
	if fn == nil {
		return nil, errors.New("tick callback is nil")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	sub := &Subscription{
		id:     uuid.New(),
		sched:  s,
		period: period,
		fn:     fn,
	}
	s.subs[sub.id] = sub
	s.mu.Unlock()

	sub.mu.Lock()
	sub.armLocked()
	sub.mu.Unlock()

	s.logger.Debug("tick subscription added", "subscription", sub.id, "period", period)
	return sub, nil
}

// Do queues fn to run on the loop.
func (s *Scheduler) Do(fn func()) error {
	if !s.post(fn) {
		return ErrClosed
	}
	return nil
}

// Sync blocks until every piece of work queued before the call has run.
// It returns ErrClosed if the scheduler closes first. Sync needs Run to be
// active on another goroutine.
func (s *Scheduler) Sync() error {
	barrier := make(chan struct{})
	if !s.post(func() { close(barrier) }) {
		return ErrClosed
	}
	select {
	case <-barrier:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// Active returns the number of live subscriptions.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close cancels every subscription and stops the loop. Safe to call multiple times.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := make([]*Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	close(s.done)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

func (s *Scheduler) post(fn func()) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.queue <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Scheduler) remove(id uuid.UUID) {
	s.mu.Lock()
	delete(s.subs, id)
	s.mu.Unlock()
}
