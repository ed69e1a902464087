package readiness

import (
	"errors"
	"testing"
)

type recorder struct {
	events []string
	errs   []error
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnLoadingStart: func() { r.events = append(r.events, "loading") },
		OnReady:        func() { r.events = append(r.events, "ready") },
		OnError: func(err error) {
			r.events = append(r.events, "error")
			r.errs = append(r.errs, err)
		},
	}
}

func (r *recorder) count(ev string) int {
	n := 0
	for _, e := range r.events {
		if e == ev {
			n++
		}
	}
	return n
}

func TestReadyFiresOnceInAnyOrder(t *testing.T) {
	orders := [][]string{
		{"overlay", "primary"},
		{"primary", "overlay"},
	}
	for _, order := range orders {
		var rec recorder
		a := New(rec.handlers())
		a.Track("overlay", Decorative)
		a.Track("primary", Required)
		a.Begin()

		a.Ready(order[0])
		if rec.count("ready") != 0 {
			t.Fatalf("order %v: ready fired after one source", order)
		}
		a.Ready(order[1])
		a.Ready(order[1])
		if got := rec.count("ready"); got != 1 {
			t.Errorf("order %v: ready fired %d times, want 1", order, got)
		}
		if got := rec.count("loading"); got != 1 {
			t.Errorf("order %v: loading fired %d times, want 1", order, got)
		}
		if st := a.State(); st.Phase != Ready {
			t.Errorf("order %v: State() = %v, want ready", order, st.Phase)
		}
	}
}

func TestVacuousSources(t *testing.T) {
	var rec recorder
	a := New(rec.handlers())
	a.Absent("background")
	a.Absent("mask")
	a.Begin()
	if len(rec.events) != 1 || rec.events[0] != "ready" {
		t.Errorf("events = %v, want [ready]", rec.events)
	}
}

func TestNoNotificationsBeforeBegin(t *testing.T) {
	var rec recorder
	a := New(rec.handlers())
	a.Track("primary", Required)
	a.Ready("primary")
	if len(rec.events) != 0 {
		t.Fatalf("events before Begin = %v", rec.events)
	}
	a.Begin()
	a.Begin()
	if len(rec.events) != 1 || rec.events[0] != "ready" {
		t.Errorf("events = %v, want [ready]", rec.events)
	}
}

func TestRebufferRearmsGate(t *testing.T) {
	var rec recorder
	a := New(rec.handlers())
	a.Track("overlay", Decorative)
	a.Track("primary", Required)
	a.Begin()
	a.Ready("overlay")
	a.Ready("primary")

	a.Loading("primary")
	a.Loading("primary")
	a.Loading("overlay") // still ready, gate already armed
	if st := a.Source("overlay"); st.Phase != Loading {
		t.Errorf("overlay = %v, want loading", st.Phase)
	}
	a.Ready("overlay")
	a.Ready("primary")

	want := []string{"loading", "ready", "loading", "ready"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", rec.events, want)
		}
	}
}

func TestDecorativeFailureSettles(t *testing.T) {
	var rec recorder
	a := New(rec.handlers())
	a.Track("foreground", Decorative)
	a.Track("primary", Required)
	a.Begin()
	a.Fail("foreground", errors.New("404"))
	a.Ready("primary")

	if rec.count("error") != 0 {
		t.Error("decorative failure surfaced as error")
	}
	if rec.count("ready") != 1 {
		t.Errorf("ready fired %d times, want 1", rec.count("ready"))
	}
	if st := a.Source("foreground"); st.Phase != Error || st.Err == nil {
		t.Errorf("foreground = %+v, want error with cause", st)
	}
	if st := a.State(); st.Phase != Ready {
		t.Errorf("State() = %v, want ready", st.Phase)
	}
}

func TestRequiredFailureIsTerminal(t *testing.T) {
	cause := errors.New("decoder crashed")
	var rec recorder
	a := New(rec.handlers())
	a.Track("overlay", Decorative)
	a.Track("primary", Required)
	a.Begin()
	a.Fail("primary", cause)
	a.Fail("primary", errors.New("again"))
	a.Ready("overlay")
	a.Track("primary", Required)

	if got := rec.count("error"); got != 1 {
		t.Fatalf("error fired %d times, want 1", got)
	}
	if !errors.Is(rec.errs[0], cause) {
		t.Errorf("OnError(%v), want %v", rec.errs[0], cause)
	}
	if rec.count("ready") != 0 {
		t.Error("ready fired after a required failure")
	}
	if st := a.State(); st.Phase != Error || !errors.Is(st.Err, cause) {
		t.Errorf("State() = %+v, want error", st)
	}
}

func TestFailureBeforeBegin(t *testing.T) {
	var rec recorder
	a := New(rec.handlers())
	a.Track("primary", Required)
	a.Fail("primary", errors.New("bad uri"))
	if len(rec.events) != 0 {
		t.Fatalf("events before Begin = %v", rec.events)
	}
	a.Begin()
	if len(rec.events) != 1 || rec.events[0] != "error" {
		t.Errorf("events = %v, want [error]", rec.events)
	}
}

func TestDisposeSilences(t *testing.T) {
	var rec recorder
	a := New(rec.handlers())
	a.Track("overlay", Decorative)
	a.Track("primary", Required)
	a.Begin()
	a.Dispose()
	a.Ready("overlay")
	a.Ready("primary")
	a.Fail("primary", errors.New("late"))

	if len(rec.events) != 1 {
		t.Errorf("events = %v, want only the initial loading", rec.events)
	}
	if !a.Disposed() {
		t.Error("Disposed() = false")
	}
}

func TestDisposeFromHandler(t *testing.T) {
	var a *Aggregator
	ready := 0
	a = New(Handlers{
		OnLoadingStart: func() { a.Dispose() },
		OnReady:        func() { ready++ },
	})
	a.Track("primary", Required)
	a.Begin()
	a.Ready("primary")
	if ready != 0 {
		t.Errorf("OnReady fired %d times after disposal", ready)
	}
}

func TestStateAndSources(t *testing.T) {
	a := New(Handlers{})
	if st := a.State(); st.Phase != Idle {
		t.Errorf("empty State() = %v, want idle", st.Phase)
	}
	a.Track("primary", Required)
	a.Absent("mask")
	if st := a.State(); st.Phase != Loading {
		t.Errorf("State() = %v, want loading", st.Phase)
	}
	if got := a.Sources(); len(got) != 2 || got[0] != "primary" || got[1] != "mask" {
		t.Errorf("Sources() = %v", got)
	}
	if st := a.Source("unknown"); st.Phase != Idle {
		t.Errorf("Source(unknown) = %v, want idle", st.Phase)
	}
	if !a.Source("mask").Settled() || a.Source("primary").Settled() {
		t.Error("Settled() mismatch")
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		p    Phase
		want string
	}{
		{Idle, "idle"},
		{Loading, "loading"},
		{Ready, "ready"},
		{Error, "error"},
		{Phase(9), "Phase(9)"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.p, got, tt.want)
		}
	}
}
