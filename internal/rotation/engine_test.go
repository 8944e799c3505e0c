package rotation

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/lekki-ent/marquee/internal/events"
	"github.com/lekki-ent/marquee/internal/testutil"
	"github.com/lekki-ent/marquee/internal/tick"
)

func newLoop(t *testing.T) (*tick.Scheduler, *testutil.FakeClock) {
	t.Helper()
	clk := testutil.NewFakeClock(testutil.Epoch)
	s := tick.NewScheduler(clk, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s, clk
}

func step(t *testing.T, s *tick.Scheduler, clk *testutil.FakeClock, d time.Duration) {
	t.Helper()
	clk.Advance(d)
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
}

func makeSlides(n int) []Slide {
	slides := make([]Slide, n)
	for i := range slides {
		slides[i] = Slide{
			Image: "/images/slide.jpg",
			Alt:   string(rune('A' + i)),
		}
	}
	return slides
}

func mustIndex(t *testing.T, e *Engine) int {
	t.Helper()
	i, err := e.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	return i
}

type eventLog struct {
	mu     sync.Mutex
	events []*events.SlideChangedEvent
}

func (l *eventLog) Emit(ev events.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if sc, ok := ev.(*events.SlideChangedEvent); ok {
		l.events = append(l.events, sc)
	}
}

func (l *eventLog) all() []*events.SlideChangedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*events.SlideChangedEvent(nil), l.events...)
}

func TestScenarioAdvanceThreeTimes(t *testing.T) {
	s, _ := newLoop(t)
	e, err := New(s, makeSlides(3), 5*time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer e.Dispose()

	if got := mustIndex(t, e); got != 0 {
		t.Fatalf("expected start index 0, got %d", got)
	}

	var seq []int
	for i := 0; i < 3; i++ {
		idx, err := e.Advance()
		if err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
		seq = append(seq, idx)
	}
	want := []int{1, 2, 0}
	for i := range want {
		if seq[i] != want[i] {
			t.Fatalf("expected sequence %v, got %v", want, seq)
		}
	}
}

func TestScenarioEmptySlideSet(t *testing.T) {
	s, _ := newLoop(t)

	for _, slides := range [][]Slide{nil, {}} {
		e, err := New(s, slides, time.Second)
		if !errors.Is(err, ErrEmptySlideSet) {
			t.Errorf("expected ErrEmptySlideSet, got %v", err)
		}
		if e != nil {
			t.Error("expected nil engine")
		}
	}
	if s.Active() != 0 {
		t.Errorf("expected no subscription, got %d", s.Active())
	}
}

func TestJumpToWraps(t *testing.T) {
	s, _ := newLoop(t)
	e, err := New(s, makeSlides(4), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Dispose()

	tests := []struct {
		k    int
		want int
	}{
		{0, 0}, {3, 3}, {4, 0}, {9, 1}, {-1, 3}, {-4, 0}, {-9, 3}, {1 << 30, 0},
	}
	for _, tt := range tests {
		got, err := e.JumpTo(tt.k)
		if err != nil {
			t.Fatalf("JumpTo(%d) failed: %v", tt.k, err)
		}
		if got != tt.want {
			t.Errorf("JumpTo(%d) = %d, want %d", tt.k, got, tt.want)
		}
	}
}

func TestIndexInvariants(t *testing.T) {
	s, _ := newLoop(t)
	rng := rand.New(rand.NewSource(7))

	for n := 1; n <= 6; n++ {
		e, err := New(s, makeSlides(n), time.Second)
		if err != nil {
			t.Fatal(err)
		}

		for i := 0; i < 500; i++ {
			switch rng.Intn(3) {
			case 0:
				_, _ = e.Advance()
			case 1:
				_, _ = e.Retreat()
			case 2:
				k := rng.Intn(100) - 50
				got, _ := e.JumpTo(k)
				if want := ((k % n) + n) % n; got != want {
					t.Fatalf("n=%d JumpTo(%d) = %d, want %d", n, k, got, want)
				}
			}
			if idx := mustIndex(t, e); idx < 0 || idx >= n {
				t.Fatalf("n=%d index %d out of range", n, idx)
			}
		}

		if n >= 2 {
			start := mustIndex(t, e)
			_, _ = e.Advance()
			if back, _ := e.Retreat(); back != start {
				t.Errorf("n=%d advance then retreat: got %d want %d", n, back, start)
			}
			_, _ = e.Retreat()
			if back, _ := e.Advance(); back != start {
				t.Errorf("n=%d retreat then advance: got %d want %d", n, back, start)
			}
		}
		e.Dispose()
	}
}

func TestAutomaticCadence(t *testing.T) {
	s, clk := newLoop(t)
	log := &eventLog{}

	e, err := New(s, makeSlides(3), 5*time.Second, WithRouter(log))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Dispose()

	if !e.Automatic() {
		t.Fatal("expected automatic cadence with 3 slides")
	}

	step(t, s, clk, 4*time.Second)
	if got := mustIndex(t, e); got != 0 {
		t.Errorf("expected index 0 before the interval, got %d", got)
	}
	step(t, s, clk, time.Second)
	if got := mustIndex(t, e); got != 1 {
		t.Errorf("expected index 1 after one interval, got %d", got)
	}
	step(t, s, clk, 5*time.Second)
	step(t, s, clk, 5*time.Second)
	if got := mustIndex(t, e); got != 0 {
		t.Errorf("expected wrap to 0 after three intervals, got %d", got)
	}

	evs := log.all()
	if len(evs) != 3 {
		t.Fatalf("expected 3 slide events, got %d", len(evs))
	}
	for _, ev := range evs {
		if ev.Cause != events.CauseAuto {
			t.Errorf("expected cause auto, got %s", ev.Cause)
		}
		if ev.Total != 3 {
			t.Errorf("expected total 3, got %d", ev.Total)
		}
	}
	if !evs[0].Timestamp().Equal(testutil.Epoch.Add(5 * time.Second)) {
		t.Errorf("expected event stamped with tick time, got %v", evs[0].Timestamp())
	}
}

func TestNoCadenceForSingleSlideOrReducedMotion(t *testing.T) {
	t.Run("single slide", func(t *testing.T) {
		s, clk := newLoop(t)
		e, err := New(s, makeSlides(1), time.Second)
		if err != nil {
			t.Fatal(err)
		}
		defer e.Dispose()

		if e.Automatic() || s.Active() != 0 {
			t.Errorf("expected no subscription for one slide (active=%d)", s.Active())
		}
		step(t, s, clk, 10*time.Second)
		if got := mustIndex(t, e); got != 0 {
			t.Errorf("expected index 0, got %d", got)
		}
		if got, _ := e.Advance(); got != 0 {
			t.Errorf("advance on one slide should stay at 0, got %d", got)
		}
	})

	t.Run("reduced motion", func(t *testing.T) {
		s, clk := newLoop(t)
		e, err := New(s, makeSlides(3), time.Second, WithReducedMotion(true))
		if err != nil {
			t.Fatal(err)
		}
		defer e.Dispose()

		if e.Automatic() || s.Active() != 0 {
			t.Errorf("expected no subscription with reduced motion (active=%d)", s.Active())
		}
		step(t, s, clk, 10*time.Second)
		if got := mustIndex(t, e); got != 0 {
			t.Errorf("expected index 0, got %d", got)
		}
		if got, _ := e.Advance(); got != 1 {
			t.Errorf("manual navigation should still work, got %d", got)
		}
	})
}

func TestManualNavigationPolicy(t *testing.T) {
	t.Run("baseline leaves cadence alone", func(t *testing.T) {
		s, clk := newLoop(t)
		e, err := New(s, makeSlides(4), 5*time.Second)
		if err != nil {
			t.Fatal(err)
		}
		defer e.Dispose()

		step(t, s, clk, 3*time.Second)
		if _, err := e.Advance(); err != nil {
			t.Fatal(err)
		}

		// The original cadence still fires at t=5s.
		step(t, s, clk, 2*time.Second)
		if got := mustIndex(t, e); got != 2 {
			t.Errorf("expected auto advance at the original deadline, got index %d", got)
		}
	})

	t.Run("reset on manual re-arms cadence", func(t *testing.T) {
		s, clk := newLoop(t)
		e, err := New(s, makeSlides(4), 5*time.Second, WithResetOnManual(true))
		if err != nil {
			t.Fatal(err)
		}
		defer e.Dispose()

		step(t, s, clk, 3*time.Second)
		if _, err := e.Advance(); err != nil {
			t.Fatal(err)
		}

		step(t, s, clk, 2*time.Second)
		if got := mustIndex(t, e); got != 1 {
			t.Errorf("expected no auto advance at t=5s, got index %d", got)
		}
		step(t, s, clk, 3*time.Second)
		if got := mustIndex(t, e); got != 2 {
			t.Errorf("expected auto advance a full interval after input, got index %d", got)
		}
	})
}

func TestManualEvents(t *testing.T) {
	s, _ := newLoop(t)
	log := &eventLog{}
	e, err := New(s, makeSlides(3), time.Minute, WithRouter(log))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Dispose()

	_, _ = e.Retreat()
	_, _ = e.JumpTo(2) // already at 2, no change
	_, _ = e.JumpTo(0)

	evs := log.all()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if evs[0].From != 0 || evs[0].To != 2 || evs[0].Cause != events.CauseManual {
		t.Errorf("unexpected first event %+v", evs[0])
	}
	if evs[1].From != 2 || evs[1].To != 0 {
		t.Errorf("unexpected second event %+v", evs[1])
	}
}

func TestReplace(t *testing.T) {
	s, clk := newLoop(t)
	log := &eventLog{}
	e, err := New(s, makeSlides(3), 5*time.Second, WithRouter(log))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Dispose()

	_, _ = e.JumpTo(2)

	t.Run("empty is rejected", func(t *testing.T) {
		if err := e.Replace(nil); !errors.Is(err, ErrEmptySlideSet) {
			t.Errorf("expected ErrEmptySlideSet, got %v", err)
		}
		if got := mustIndex(t, e); got != 2 {
			t.Errorf("failed replace must not move the index, got %d", got)
		}
	})

	t.Run("shrinking to one slide stops the cadence", func(t *testing.T) {
		if err := e.Replace(makeSlides(1)); err != nil {
			t.Fatal(err)
		}
		if got := mustIndex(t, e); got != 0 {
			t.Errorf("expected index reset to 0, got %d", got)
		}
		if e.Automatic() {
			t.Error("expected cadence to stop for a single slide")
		}
		if e.Len() != 1 {
			t.Errorf("expected 1 slide, got %d", e.Len())
		}
	})

	t.Run("growing again restarts the cadence", func(t *testing.T) {
		if err := e.Replace(makeSlides(2)); err != nil {
			t.Fatal(err)
		}
		if !e.Automatic() {
			t.Fatal("expected cadence for two slides")
		}
		step(t, s, clk, 5*time.Second)
		if got := mustIndex(t, e); got != 1 {
			t.Errorf("expected auto advance after replace, got %d", got)
		}
	})

	var replaced int
	for _, ev := range log.all() {
		if ev.Cause == events.CauseReplace {
			replaced++
			if ev.To != 0 {
				t.Errorf("replace event should land on 0, got %d", ev.To)
			}
		}
	}
	if replaced != 2 {
		t.Errorf("expected 2 replace events, got %d", replaced)
	}
}

func TestSlidesAreCopied(t *testing.T) {
	s, _ := newLoop(t)
	input := makeSlides(2)
	e, err := New(s, input, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Dispose()

	input[0].Alt = "mutated"
	slide, err := e.Slide()
	if err != nil {
		t.Fatal(err)
	}
	if slide.Alt != "A" {
		t.Errorf("engine slide changed with caller's slice: %q", slide.Alt)
	}

	out, _ := e.Slides()
	out[1].Alt = "mutated"
	again, _ := e.Slides()
	if again[1].Alt != "B" {
		t.Error("Slides must return a copy")
	}
}

func TestDispose(t *testing.T) {
	s, clk := newLoop(t)
	e, err := New(s, makeSlides(3), time.Second)
	if err != nil {
		t.Fatal(err)
	}

	e.Dispose()
	e.Dispose()

	if s.Active() != 0 {
		t.Errorf("expected subscription released, got %d", s.Active())
	}
	step(t, s, clk, 5*time.Second)

	if _, err := e.Current(); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Current: expected ErrInvalidHandle, got %v", err)
	}
	if _, err := e.Advance(); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Advance: expected ErrInvalidHandle, got %v", err)
	}
	if _, err := e.JumpTo(1); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("JumpTo: expected ErrInvalidHandle, got %v", err)
	}
	if err := e.Replace(makeSlides(2)); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Replace: expected ErrInvalidHandle, got %v", err)
	}
	if e.Len() != 0 {
		t.Errorf("expected Len 0 after Dispose, got %d", e.Len())
	}
}

func TestDefaultInterval(t *testing.T) {
	s, _ := newLoop(t)
	e, err := New(s, makeSlides(2), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Dispose()

	if e.Interval() != DefaultInterval {
		t.Errorf("expected %v, got %v", DefaultInterval, e.Interval())
	}
}

func TestConcurrentManualAndTicks(t *testing.T) {
	s, clk := newLoop(t)
	e, err := New(s, makeSlides(5), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Dispose()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if g%2 == 0 {
					_, _ = e.Advance()
				} else {
					_, _ = e.JumpTo(i - g)
				}
			}
		}(g)
	}
	for i := 0; i < 20; i++ {
		step(t, s, clk, time.Second)
	}
	wg.Wait()

	if idx := mustIndex(t, e); idx < 0 || idx >= 5 {
		t.Errorf("index out of range: %d", idx)
	}
}
