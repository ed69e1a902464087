// Package clock schedules per-frame callbacks.
//
// A FrameClock stands in for the display refresh: the render loop
// subscribes once per session and composes a frame on every callback.
// Ticker drives callbacks in real time; Manual is stepped by hand so
// that loops can be tested frame by frame.
package clock

import (
	"sync"
	"time"
)

// FrameClock delivers frame callbacks.
type FrameClock interface {
	// Subscribe registers fn to be called once per frame with the time
	// elapsed on the clock. Once cancel returns, fn is not called again
	// other than a call that was already being dispatched. cancel is
	// idempotent.
	Subscribe(fn func(now time.Duration)) (cancel func())
}

// DefaultFPS is the rate of a Ticker created with a non-positive rate.
const DefaultFPS = 60

// subscribers is the set shared by both clocks.
type subscribers struct {
	mu   sync.Mutex
	next uint64
	fns  map[uint64]func(time.Duration)
	ids  []uint64
}

func (s *subscribers) add(fn func(time.Duration)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[uint64]func(time.Duration))
	}
	s.next++
	s.fns[s.next] = fn
	s.ids = append(s.ids, s.next)
	return s.next
}

// remove reports how many subscribers remain.
func (s *subscribers) remove(id uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fns[id]; ok {
		delete(s.fns, id)
		for i, v := range s.ids {
			if v == id {
				s.ids = append(s.ids[:i], s.ids[i+1:]...)
				break
			}
		}
	}
	return len(s.fns)
}

func (s *subscribers) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}

// dispatch calls every subscriber in subscription order. Subscribers
// cancelled by an earlier callback of the same frame are skipped.
func (s *subscribers) dispatch(now time.Duration) {
	s.mu.Lock()
	ids := append([]uint64(nil), s.ids...)
	s.mu.Unlock()

	for _, id := range ids {
		s.mu.Lock()
		fn := s.fns[id]
		s.mu.Unlock()
		if fn != nil {
			fn(now)
		}
	}
}

// Manual is a FrameClock advanced explicitly by Step and Advance.
// Callbacks run synchronously on the calling goroutine.
type Manual struct {
	subs     subscribers
	interval time.Duration

	mu  sync.Mutex
	now time.Duration
}

var _ FrameClock = (*Manual)(nil)

// NewManual creates a manual clock advancing by interval per step.
// A non-positive interval uses one frame at DefaultFPS.
func NewManual(interval time.Duration) *Manual {
	if interval <= 0 {
		interval = time.Second / DefaultFPS
	}
	return &Manual{interval: interval}
}

// Subscribe implements FrameClock.
func (m *Manual) Subscribe(fn func(now time.Duration)) func() {
	id := m.subs.add(fn)
	var once sync.Once
	return func() { once.Do(func() { m.subs.remove(id) }) }
}

// Step advances the clock by one frame and runs the callbacks.
func (m *Manual) Step() {
	m.mu.Lock()
	m.now += m.interval
	now := m.now
	m.mu.Unlock()
	m.subs.dispatch(now)
}

// Advance runs n frames.
func (m *Manual) Advance(n int) {
	for i := 0; i < n; i++ {
		m.Step()
	}
}

// Now returns the time of the last frame.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Subscribers returns the number of active subscriptions.
func (m *Manual) Subscribers() int { return m.subs.len() }

// Ticker is a FrameClock running in real time on its own goroutine.
// The goroutine runs while at least one subscription is active.
type Ticker struct {
	subs     subscribers
	interval time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	started time.Time
}

var _ FrameClock = (*Ticker)(nil)

// NewTicker creates a ticker firing fps times per second.
func NewTicker(fps float64) *Ticker {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Ticker{interval: time.Duration(float64(time.Second) / fps)}
}

// Interval returns the time between frames.
func (t *Ticker) Interval() time.Duration { return t.interval }

// Subscribe implements FrameClock.
func (t *Ticker) Subscribe(fn func(now time.Duration)) func() {
	id := t.subs.add(fn)
	t.start()
	var once sync.Once
	return func() {
		once.Do(func() {
			if t.subs.remove(id) == 0 {
				t.halt()
			}
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (t *Ticker) Subscribers() int { return t.subs.len() }

func (t *Ticker) start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	if t.started.IsZero() {
		t.started = time.Now()
	}
	t.stop = make(chan struct{})
	go t.run(t.stop, t.started)
}

// halt stops the goroutine without waiting, so it may be called from a
// callback.
func (t *Ticker) halt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil || t.subs.len() > 0 {
		return
	}
	close(t.stop)
	t.stop = nil
}

func (t *Ticker) run(stop chan struct{}, started time.Time) {
	tk := time.NewTicker(t.interval)
	defer tk.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-tk.C:
			select {
			case <-stop:
				return
			default:
			}
			t.subs.dispatch(now.Sub(started))
		}
	}
}
