package ggmedia

import (
	"errors"
	"sync"

	"github.com/gogpu/ggmedia/picture"
	"github.com/gogpu/ggmedia/readiness"
	"github.com/gogpu/ggmedia/renderloop"
)

// Preview renders one media source with its overlays. It is the
// counterpart of a mounted preview view: Mount it with props, Update it
// as they change and Unmount it when the view goes away.
//
// All methods are safe for concurrent use and may be called from the
// Props callbacks.
type Preview struct {
	opts options

	mu      sync.Mutex
	mounted bool
	props   Props
	session *session
}

// New creates an unmounted preview.
func New(opts ...Option) *Preview {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.finish()
	return &Preview{opts: o}
}

// Mount starts previewing p. A zero source mounts an empty preview.
// Setup errors leave the preview mounted without a session; Update with
// another source retries.
func (pv *Preview) Mount(p Props) error {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	if pv.mounted {
		return errors.New("ggmedia: preview already mounted")
	}
	pv.mounted = true
	pv.props = p
	return pv.replaceLocked(p)
}

// Update applies new props. A new source identity replaces the session;
// other changes are picked up by the next frame.
func (pv *Preview) Update(p Props) error {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	if !pv.mounted {
		return ErrDisposed
	}
	prev := pv.props
	pv.props = p
	if p.Source.Identity() != prev.Source.Identity() {
		return pv.replaceLocked(p)
	}
	s := pv.session
	if s == nil {
		return nil
	}
	if p.Paused != prev.Paused {
		s.loop.SetPaused(p.Paused)
	}
	s.update(p)
	return nil
}

// SetPaused pauses or resumes video playback.
func (pv *Preview) SetPaused(paused bool) {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	if !pv.mounted || pv.props.Paused == paused {
		return
	}
	pv.props.Paused = paused
	if pv.session != nil {
		pv.session.loop.SetPaused(paused)
		pv.session.update(pv.props)
	}
}

// Unmount disposes the session. Pending loads are discarded and no
// callback runs after Unmount returns, except one already running.
func (pv *Preview) Unmount() {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	if pv.session != nil {
		pv.session.dispose()
		pv.session = nil
	}
	pv.mounted = false
	pv.props = Props{}
}

func (pv *Preview) replaceLocked(p Props) error {
	if old := pv.session; old != nil {
		pv.session = nil
		old.dispose()
	}
	if p.Source.IsZero() {
		return nil
	}
	s, err := newSession(&pv.opts, p)
	if err != nil {
		Logger().Error("ggmedia: session setup failed", "uri", p.Source.URI, "err", err)
		return err
	}
	pv.session = s
	return nil
}

// Picture returns the last composed frame, or nil.
func (pv *Preview) Picture() *picture.Picture {
	if s := pv.current(); s != nil {
		return s.loop.Picture()
	}
	return nil
}

// State returns the readiness of the current session. An empty preview
// is Idle.
func (pv *Preview) State() readiness.State {
	if s := pv.current(); s != nil {
		return s.State()
	}
	return readiness.State{}
}

// Playback returns the render loop state of the current session.
func (pv *Preview) Playback() renderloop.State {
	if s := pv.current(); s != nil {
		return s.loop.State()
	}
	return renderloop.Uninitialized
}

// SessionID returns the id of the current session, or "".
func (pv *Preview) SessionID() string {
	if s := pv.current(); s != nil {
		return s.id
	}
	return ""
}

func (pv *Preview) current() *session {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.session
}
