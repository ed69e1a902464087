package renderloop

import (
	"errors"
	"image"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/ggmedia/clock"
	"github.com/gogpu/ggmedia/extractor"
	"github.com/gogpu/ggmedia/extractor/extractortest"
	"github.com/gogpu/ggmedia/picture"
)

// scene records what the loop asks of it.
type scene struct {
	mu       sync.Mutex
	changed  bool
	composed []image.Image
	statuses []Status
	errs     []error
	progress []time.Duration
	settles  int
	onSettle func()
	order    []string
}

func (s *scene) Prepare() bool {
	s.order = append(s.order, "prepare")
	c := s.changed
	s.changed = false
	return c
}

func (s *scene) Compose(primary image.Image) *picture.Picture {
	s.order = append(s.order, "compose")
	s.composed = append(s.composed, primary)
	rec := picture.NewRecorder(2, 2)
	rec.DrawImage(primary, picture.Geometry{}, picture.Paint{})
	return rec.FinishRecording()
}

func (s *scene) PrimaryStatus(st Status, err error) {
	s.statuses = append(s.statuses, st)
	s.errs = append(s.errs, err)
}

func (s *scene) Progress(current, _ time.Duration) {
	s.progress = append(s.progress, current)
}

func (s *scene) Settle() {
	s.order = append(s.order, "settle")
	s.settles++
	if s.onSettle != nil {
		s.onSettle()
	}
}

type observer struct {
	composed, reused int
	failures         []error
}

func (o *observer) FrameComposed(time.Duration) { o.composed++ }
func (o *observer) FrameReused()                { o.reused++ }
func (o *observer) DecodeFailed(err error)      { o.failures = append(o.failures, err) }

func frame() image.Image { return image.NewRGBA(image.Rect(0, 0, 2, 2)) }

func newVideoLoop(t *testing.T, paused bool) (*Loop, *clock.Manual, *scene, *extractortest.Fake, *observer) {
	t.Helper()
	clk := clock.NewManual(0)
	sc := &scene{}
	fake := extractortest.New(3 * time.Second)
	obs := &observer{}
	l := New(Config{
		Clock:      clk,
		Scene:      sc,
		Extractor:  fake,
		Item:       "primary",
		Loop:       true,
		Paused:     paused,
		StallTicks: 3,
		Observer:   obs,
	})
	t.Cleanup(l.Dispose)
	return l, clk, sc, fake, obs
}

func TestLifecycleCallsExtractorOncePerTransition(t *testing.T) {
	l, clk, _, fake, _ := newVideoLoop(t, false)
	if l.State() != Uninitialized {
		t.Fatalf("State() = %v, want uninitialized", l.State())
	}
	l.Start()
	l.Start()
	if l.State() != Playing {
		t.Fatalf("State() = %v, want playing", l.State())
	}
	clk.Advance(3)
	l.SetPaused(true)
	l.SetPaused(true)
	clk.Advance(3)
	l.SetPaused(false)
	l.SetPaused(false)
	l.Dispose()
	l.Dispose()

	want := []string{"loop", "play", "pause", "play", "dispose"}
	got := fake.Calls()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls = %v, want %v", got, want)
		}
	}
	if l.State() != Disposed {
		t.Errorf("State() = %v, want disposed", l.State())
	}
	if clk.Subscribers() != 0 {
		t.Errorf("clock still has %d subscribers", clk.Subscribers())
	}
}

func TestStartPaused(t *testing.T) {
	l, clk, sc, fake, _ := newVideoLoop(t, true)
	l.Start()
	if l.State() != Paused {
		t.Fatalf("State() = %v, want paused", l.State())
	}
	if fake.Count("play") != 0 {
		t.Error("paused loop called play")
	}
	// Paused content still decodes and composes.
	fake.PushFrame("primary", frame(), 0)
	clk.Step()
	if len(sc.composed) != 1 {
		t.Errorf("composed %d frames while paused, want 1", len(sc.composed))
	}
}

func TestTickOrderAndStaleReuse(t *testing.T) {
	l, clk, sc, fake, obs := newVideoLoop(t, false)
	first, second := frame(), frame()
	fake.PushFrame("primary", first, 0)
	fake.Push(extractortest.Step{Err: extractor.ErrNoFrame})
	fake.PushFrame("primary", second, time.Second)
	fake.SetCurrentTime(40 * time.Millisecond)
	l.Start()

	clk.Advance(3)
	if len(sc.composed) != 3 {
		t.Fatalf("composed %d times, want 3", len(sc.composed))
	}
	if sc.composed[0] != first || sc.composed[1] != first || sc.composed[2] != second {
		t.Error("stale tick did not reuse the last decoded frame")
	}
	if obs.composed != 2 || obs.reused != 1 {
		t.Errorf("observer composed=%d reused=%d, want 2 and 1", obs.composed, obs.reused)
	}
	want := []string{"prepare", "compose", "settle"}
	for i, op := range sc.order[:3] {
		if op != want[i] {
			t.Fatalf("tick order = %v, want %v", sc.order[:3], want)
		}
	}
	if len(sc.statuses) != 1 || sc.statuses[0] != PrimaryReady {
		t.Errorf("statuses = %v, want [ready]", sc.statuses)
	}
	if len(sc.progress) != 2 || sc.progress[0] != 40*time.Millisecond {
		t.Errorf("progress = %v", sc.progress)
	}
	if l.Picture() == nil {
		t.Error("Picture() = nil after composing")
	}
}

func TestNoFrameBeforeFirstDecode(t *testing.T) {
	l, clk, sc, _, _ := newVideoLoop(t, false)
	l.Start()
	clk.Advance(10)
	if len(sc.composed) != 0 {
		t.Errorf("composed %d frames without a primary", len(sc.composed))
	}
	if len(sc.statuses) != 0 {
		t.Errorf("statuses = %v before the first frame, want none", sc.statuses)
	}
	if l.Picture() != nil {
		t.Error("Picture() should be nil before the first frame")
	}
}

func TestStallAndRecover(t *testing.T) {
	l, clk, sc, fake, _ := newVideoLoop(t, false)
	fake.PushFrame("primary", frame(), 0)
	l.Start()
	clk.Step()
	clk.Advance(3)
	if len(sc.statuses) != 2 || sc.statuses[1] != PrimaryStalled {
		t.Fatalf("statuses = %v, want [ready stalled]", sc.statuses)
	}
	clk.Advance(5)
	if len(sc.statuses) != 2 {
		t.Fatalf("stall reported more than once: %v", sc.statuses)
	}
	fake.PushFrame("primary", frame(), time.Second)
	clk.Step()
	if len(sc.statuses) != 3 || sc.statuses[2] != PrimaryReady {
		t.Errorf("statuses = %v, want ready after the stall", sc.statuses)
	}
}

func TestPausedDoesNotStall(t *testing.T) {
	l, clk, sc, fake, _ := newVideoLoop(t, false)
	fake.PushFrame("primary", frame(), 0)
	l.Start()
	clk.Step()
	l.SetPaused(true)
	clk.Advance(10)
	l.SetPaused(false)
	clk.Step()
	for _, s := range sc.statuses {
		if s == PrimaryStalled {
			t.Fatalf("statuses = %v, paused loop stalled", sc.statuses)
		}
	}
}

func TestPauseClearsStall(t *testing.T) {
	l, clk, sc, fake, _ := newVideoLoop(t, false)
	fake.PushFrame("primary", frame(), 0)
	l.Start()
	clk.Step()
	clk.Advance(3)
	l.SetPaused(true)
	want := []Status{PrimaryReady, PrimaryStalled, PrimaryReady}
	if !slices.Equal(sc.statuses, want) {
		t.Fatalf("statuses after pause = %v, want %v", sc.statuses, want)
	}
	clk.Advance(10)
	if len(sc.statuses) != 3 {
		t.Fatalf("paused loop reported %v", sc.statuses)
	}

	// Resuming starts a fresh stall count.
	l.SetPaused(false)
	clk.Advance(3)
	if got := sc.statuses[len(sc.statuses)-1]; len(sc.statuses) != 4 || got != PrimaryStalled {
		t.Errorf("statuses after resume = %v, want a second stall", sc.statuses)
	}
}

func TestDecodeErrorIsFatal(t *testing.T) {
	l, clk, sc, fake, obs := newVideoLoop(t, false)
	boom := errors.New("codec failure")
	fake.PushFrame("primary", frame(), 0)
	fake.Push(extractortest.Step{Err: boom})
	fake.PushFrame("primary", frame(), time.Second)
	l.Start()

	clk.Advance(4)
	if len(obs.failures) != 1 || !errors.Is(obs.failures[0], boom) {
		t.Fatalf("failures = %v, want [%v]", obs.failures, boom)
	}
	if fake.Decodes() != 2 {
		t.Errorf("decoded %d times, want decoding to stop after the failure", fake.Decodes())
	}
	if len(sc.composed) != 1 {
		t.Errorf("composed %d frames, want the last good one only", len(sc.composed))
	}
	if last := sc.statuses[len(sc.statuses)-1]; last != PrimaryFailed {
		t.Errorf("last status = %v, want failed", last)
	}
	if l.Picture() == nil {
		t.Error("last picture was not retained")
	}
}

func TestStaticPrimary(t *testing.T) {
	clk := clock.NewManual(0)
	sc := &scene{}
	obs := &observer{}
	l := New(Config{Clock: clk, Scene: sc, Observer: obs})
	defer l.Dispose()
	l.Start()

	clk.Step()
	if len(sc.composed) != 0 {
		t.Fatal("composed without a static primary")
	}
	img := frame()
	l.SetStatic(img)
	clk.Advance(5)
	if len(sc.composed) != 1 {
		t.Fatalf("composed %d times, want once per change", len(sc.composed))
	}
	sc.changed = true
	clk.Advance(2)
	l.Invalidate()
	clk.Step()
	if len(sc.composed) != 3 {
		t.Errorf("composed %d times, want 3", len(sc.composed))
	}
	if obs.reused != 0 || obs.composed != 3 {
		t.Errorf("observer composed=%d reused=%d", obs.composed, obs.reused)
	}
}

func TestSetExtractorLater(t *testing.T) {
	clk := clock.NewManual(0)
	sc := &scene{}
	l := New(Config{Clock: clk, Scene: sc, Item: "primary", Loop: true})
	l.Start()
	placeholder := frame()
	l.SetStatic(placeholder)
	clk.Step()

	fake := extractortest.New(time.Second)
	decoded := frame()
	fake.PushFrame("primary", decoded, 0)
	if !l.SetExtractor(fake) {
		t.Fatal("SetExtractor() = false")
	}
	if !fake.Looping() || fake.Count("play") != 1 {
		t.Errorf("attached extractor calls = %v", fake.Calls())
	}
	clk.Step()
	if sc.composed[0] != placeholder || sc.composed[len(sc.composed)-1] != decoded {
		t.Error("decoded frame did not replace the placeholder")
	}

	second := extractortest.New(time.Second)
	if l.SetExtractor(second) || !second.Disposed() {
		t.Error("second extractor should be rejected and disposed")
	}
	l.Dispose()
	late := extractortest.New(time.Second)
	if l.SetExtractor(late) || !late.Disposed() {
		t.Error("extractor attached after Dispose should be disposed")
	}
	if !fake.Disposed() {
		t.Error("Dispose did not release the extractor")
	}
}

func TestDisposeFromSettle(t *testing.T) {
	l, clk, sc, fake, _ := newVideoLoop(t, false)
	fake.PushFrame("primary", frame(), 0)
	sc.onSettle = l.Dispose
	l.Start()
	clk.Advance(3)
	if sc.settles != 1 {
		t.Errorf("settled %d times, want no ticks after dispose", sc.settles)
	}
	if !fake.Disposed() {
		t.Error("extractor not disposed")
	}
}

func TestDisposeBeforeStart(t *testing.T) {
	l, clk, sc, fake, _ := newVideoLoop(t, false)
	l.Dispose()
	l.Start()
	clk.Advance(2)
	if l.State() != Disposed || len(sc.order) != 0 || fake.Count("play") != 0 {
		t.Errorf("disposed loop ran: state=%v order=%v calls=%v", l.State(), sc.order, fake.Calls())
	}
}

func TestNewRequiresClockAndScene(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New without a clock did not panic")
		}
	}()
	New(Config{Scene: &scene{}})
}

func TestStateString(t *testing.T) {
	if Playing.String() != "playing" || State(42).String() != "State(42)" {
		t.Error("State.String mismatch")
	}
}
