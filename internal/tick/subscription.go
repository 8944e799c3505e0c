package tick

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lekki-ent/marquee/internal/clock"
)

// Subscription is one periodic registration on a Scheduler. It is owned by
// exactly one engine instance.
type Subscription struct {
	id     uuid.UUID
	sched  *Scheduler
	period time.Duration
	fn     func(now time.Time)

	mu        sync.Mutex
	timer     clock.Timer
	gen       uint64
	cancelled bool
}

// ID identifies the subscription in logs.
func (sub *Subscription) ID() uuid.UUID {
	return sub.id
}

// Period returns the cadence of the subscription.
func (sub *Subscription) Period() time.Duration {
	return sub.period
}

// Cancel releases the subscription. A tick that is already queued but has
// not started is discarded. Cancel is idempotent.
func (sub *Subscription) Cancel() {
	sub.mu.Lock()
	if sub.cancelled {
		sub.mu.Unlock()
		return
	}
	sub.cancelled = true
	sub.gen++
	if sub.timer != nil {
		sub.timer.Stop()
		sub.timer = nil
	}
	sub.mu.Unlock()

	sub.sched.remove(sub.id)
	sub.sched.logger.Debug("tick subscription cancelled", "subscription", sub.id)
}

// Reset re-arms the cadence so the next tick fires one full period from now.
func (sub *Subscription) Reset() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.cancelled {
		return
	}
	if sub.timer != nil {
		sub.timer.Stop()
	}
	sub.gen++
	sub.armLocked()
}

// Cancelled reports whether Cancel has been called.
func (sub *Subscription) Cancelled() bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.cancelled
}

// armLocked schedules the next tick. Caller holds sub.mu.
func (sub *Subscription) armLocked() {
	gen := sub.gen
	sub.timer = sub.sched.clock.AfterFunc(sub.period, func() {
		sub.sched.post(func() { sub.fire(gen) })
	})
}

// fire runs on the loop goroutine.
func (sub *Subscription) fire(gen uint64) {
	sub.mu.Lock()
	if sub.cancelled || gen != sub.gen {
		sub.mu.Unlock()
		return
	}
	sub.mu.Unlock()

	sub.fn(sub.sched.clock.Now())

	sub.mu.Lock()
	if !sub.cancelled && gen == sub.gen {
		sub.gen++
		sub.armLocked()
	}
	sub.mu.Unlock()
}
