// Package readiness folds the load state of independent sources into one
// loading, ready or error signal.
//
// A session tracks one source per overlay image, one for the colour grade
// and one for the primary media. Handlers only fire after Begin, so a
// session can register every source before the first notification.
package readiness

import (
	"fmt"

	"github.com/gogpu/ggmedia/internal/logging"
)

// Phase is the load phase of a source or of the aggregate.
type Phase uint8

const (
	// Idle is an absent source, satisfied vacuously.
	Idle Phase = iota
	Loading
	Ready
	Error
)

var phaseNames = [...]string{
	Idle:    "idle",
	Loading: "loading",
	Ready:   "ready",
	Error:   "error",
}

// String returns the phase name.
func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", p)
}

// State is a phase with the cause of an Error.
type State struct {
	Phase Phase
	Err   error
}

// Settled reports whether the state no longer blocks readiness.
func (s State) Settled() bool { return s.Phase != Loading }

// Kind controls how failures of a source propagate.
type Kind uint8

const (
	// Required sources fail the whole aggregate.
	Required Kind = iota
	// Decorative failures are logged and count as settled.
	Decorative
)

// Handlers receive aggregate transitions. Nil handlers are skipped.
type Handlers struct {
	OnLoadingStart func()
	OnReady        func()
	OnError        func(err error)
}

type source struct {
	kind  Kind
	state State
}

// Aggregator tracks the readiness of one session.
//
// OnReady fires once each time every source has settled after the gate
// was armed. The gate is armed by Begin and re-armed when a ready source
// goes back to Loading, which also fires OnLoadingStart. A Required
// failure fires OnError once and makes the aggregate terminal.
//
// Aggregator is not safe for concurrent use.
type Aggregator struct {
	handlers Handlers
	sources  map[string]*source
	order    []string

	begun    bool
	armed    bool
	err      error
	reported bool
	disposed bool
}

// New creates an aggregator with no sources.
func New(h Handlers) *Aggregator {
	return &Aggregator{handlers: h, sources: make(map[string]*source)}
}

// Track registers id as Loading. Tracking an id again resets it.
func (a *Aggregator) Track(id string, kind Kind) {
	a.set(id, kind, State{Phase: Loading})
}

// Absent registers id as Idle.
func (a *Aggregator) Absent(id string) {
	a.set(id, Decorative, State{Phase: Idle})
}

func (a *Aggregator) set(id string, kind Kind, st State) {
	if a.disposed {
		return
	}
	s, ok := a.sources[id]
	if !ok {
		s = &source{}
		a.sources[id] = s
		a.order = append(a.order, id)
	}
	s.kind = kind
	s.state = st
	if a.begun && st.Phase == Loading {
		a.rearm()
	}
}

// Begin arms the gate and starts delivering notifications.
// OnLoadingStart fires if anything is still loading, then OnReady if
// everything has already settled. Calls after the first are no-ops.
func (a *Aggregator) Begin() {
	if a.disposed || a.begun {
		return
	}
	a.begun = true
	if a.err != nil {
		a.reportError()
		return
	}
	a.armed = true
	if a.loading() {
		a.fire(a.handlers.OnLoadingStart)
	}
	a.check()
}

// Ready marks id as Ready.
func (a *Aggregator) Ready(id string) {
	s := a.lookup(id)
	if s == nil || s.state.Phase == Error {
		return
	}
	s.state = State{Phase: Ready}
	a.check()
}

// Loading moves a ready id back to Loading, for a rebuffering primary.
func (a *Aggregator) Loading(id string) {
	s := a.lookup(id)
	if s == nil || s.state.Phase != Ready {
		return
	}
	s.state = State{Phase: Loading}
	a.rearm()
}

// Fail marks id as failed with err.
func (a *Aggregator) Fail(id string, err error) {
	s := a.lookup(id)
	if s == nil || s.state.Phase == Error {
		return
	}
	s.state = State{Phase: Error, Err: err}
	if s.kind == Decorative {
		logging.Logger().Warn("readiness: decorative source failed", "source", id, "err", err)
		a.check()
		return
	}
	logging.Logger().Error("readiness: required source failed", "source", id, "err", err)
	if a.err == nil {
		a.err = err
	}
	a.armed = false
	if a.begun {
		a.reportError()
	}
}

// Dispose stops all notifications. Later calls are ignored.
func (a *Aggregator) Dispose() {
	a.disposed = true
	a.armed = false
}

// Disposed reports whether Dispose was called.
func (a *Aggregator) Disposed() bool { return a.disposed }

// Source returns the state of id, or Idle for an unknown id.
func (a *Aggregator) Source(id string) State {
	if s, ok := a.sources[id]; ok {
		return s.state
	}
	return State{}
}

// Sources returns the tracked ids in registration order.
func (a *Aggregator) Sources() []string {
	return append([]string(nil), a.order...)
}

// State returns the aggregate state.
func (a *Aggregator) State() State {
	switch {
	case a.err != nil:
		return State{Phase: Error, Err: a.err}
	case len(a.sources) == 0:
		return State{}
	case a.loading():
		return State{Phase: Loading}
	}
	return State{Phase: Ready}
}

func (a *Aggregator) lookup(id string) *source {
	if a.disposed || a.err != nil {
		return nil
	}
	return a.sources[id]
}

func (a *Aggregator) loading() bool {
	for _, s := range a.sources {
		if s.state.Phase == Loading {
			return true
		}
	}
	return false
}

func (a *Aggregator) rearm() {
	if !a.begun || a.armed || a.err != nil {
		return
	}
	a.armed = true
	a.fire(a.handlers.OnLoadingStart)
}

func (a *Aggregator) check() {
	if !a.begun || !a.armed || a.loading() {
		return
	}
	a.armed = false
	a.fire(a.handlers.OnReady)
}

func (a *Aggregator) reportError() {
	if a.reported || a.disposed {
		return
	}
	a.reported = true
	if a.handlers.OnError != nil {
		a.handlers.OnError(a.err)
	}
}

func (a *Aggregator) fire(fn func()) {
	if fn != nil && !a.disposed {
		fn()
	}
}
