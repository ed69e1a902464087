// Package renderloop composes one frame per clock tick.
//
// A Loop owns a session's extractor and clock subscription. Every tick,
// under the loop lock, it lets the Scene apply pending state, pulls the
// newest decoded frame and asks the Scene to compose a picture. Caller
// notifications are delivered by Scene.Settle once the lock is released,
// so callbacks may freely call back into the loop, including Dispose.
package renderloop

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/ggmedia/clock"
	"github.com/gogpu/ggmedia/extractor"
	"github.com/gogpu/ggmedia/internal/logging"
	"github.com/gogpu/ggmedia/picture"
)

// DefaultStallTicks is the number of ticks without a new frame after
// which a playing primary is reported as stalled.
const DefaultStallTicks = 30

// State is the lifecycle state of a loop.
type State uint8

const (
	Uninitialized State = iota
	Playing
	Paused
	Disposed
)

var stateNames = [...]string{
	Uninitialized: "uninitialized",
	Playing:       "playing",
	Paused:        "paused",
	Disposed:      "disposed",
}

// String returns the state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// Status is a transition of the primary media.
type Status uint8

const (
	// PrimaryReady is reported for the first decoded frame and for the
	// first frame after a stall.
	PrimaryReady Status = iota
	// PrimaryStalled is reported when decoding falls behind.
	PrimaryStalled
	// PrimaryFailed is reported once for a fatal decode error.
	PrimaryFailed
)

// Scene is the per-session state composed by the loop. Prepare, Compose,
// PrimaryStatus and Progress run under the loop lock; Settle runs after
// it is released.
type Scene interface {
	// Prepare applies pending changes and reports whether the frame must
	// be composed again.
	Prepare() (changed bool)
	// Compose records a frame around primary. A nil result keeps the
	// previous picture.
	Compose(primary image.Image) *picture.Picture
	PrimaryStatus(s Status, err error)
	Progress(current, duration time.Duration)
	// Settle delivers notifications queued during the tick.
	Settle()
}

// Observer receives per-frame statistics.
type Observer interface {
	FrameComposed(d time.Duration)
	FrameReused()
	DecodeFailed(err error)
}

// Config configures a Loop.
type Config struct {
	Clock clock.FrameClock
	Scene Scene

	// Extractor decodes a video primary. It can also be attached later
	// with SetExtractor. Nil loops compose the static primary.
	Extractor extractor.Extractor
	// Item is the ID of the primary in decoded frame sets.
	Item string

	// Loop is the looping policy applied to every attached extractor.
	Loop bool
	// Paused is the initial pause flag.
	Paused bool
	// StallTicks defaults to DefaultStallTicks.
	StallTicks int

	Observer Observer
}

// Loop is a frame-synchronized render loop. All methods are safe for
// concurrent use.
type Loop struct {
	clock    clock.FrameClock
	scene    Scene
	item     string
	loop     bool
	stall    int
	observer Observer

	disposed atomic.Bool
	picture  atomic.Pointer[picture.Picture]

	mu      sync.Mutex
	state   State
	paused  bool
	cancel  func()
	ext     extractor.Extractor
	static  image.Image
	dirty   bool
	last    image.Image
	misses  int
	stalled bool
	failed  bool
}

// New creates a loop in the Uninitialized state.
func New(cfg Config) *Loop {
	if cfg.Clock == nil || cfg.Scene == nil {
		panic("renderloop: Config needs a Clock and a Scene")
	}
	stall := cfg.StallTicks
	if stall <= 0 {
		stall = DefaultStallTicks
	}
	l := &Loop{
		clock:    cfg.Clock,
		scene:    cfg.Scene,
		item:     cfg.Item,
		loop:     cfg.Loop,
		stall:    stall,
		observer: cfg.Observer,
		paused:   cfg.Paused,
		dirty:    true,
	}
	if cfg.Extractor != nil {
		l.ext = cfg.Extractor
		l.ext.SetLooping(l.loop)
	}
	return l
}

// Start subscribes to the clock and starts playback unless paused.
// Starting a loop twice or after Dispose does nothing.
func (l *Loop) Start() {
	l.mu.Lock()
	if l.state != Uninitialized {
		l.mu.Unlock()
		return
	}
	if l.paused {
		l.state = Paused
	} else {
		l.state = Playing
		if l.ext != nil {
			l.ext.Play()
		}
	}
	l.mu.Unlock()

	cancel := l.clock.Subscribe(l.tick)
	l.mu.Lock()
	if l.state == Disposed {
		l.mu.Unlock()
		cancel()
		return
	}
	l.cancel = cancel
	l.mu.Unlock()
}

// SetExtractor attaches the decoder of a video primary. The loop takes
// ownership: after Dispose, or if one is already attached, e is disposed
// and false is returned.
func (l *Loop) SetExtractor(e extractor.Extractor) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Disposed || l.ext != nil {
		disposeExtractor(e)
		return false
	}
	l.ext = e
	e.SetLooping(l.loop)
	if l.state == Playing {
		e.Play()
	}
	return true
}

// SetPaused drives the Playing and Paused states. The extractor is told
// once per transition. Pausing a stalled primary reports it ready again:
// a paused video is not waiting for frames.
func (l *Loop) SetPaused(paused bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paused = paused
	l.misses = 0
	switch {
	case l.state == Playing && paused:
		l.state = Paused
		if l.ext != nil {
			l.ext.Pause()
		}
		if l.stalled {
			l.stalled = false
			l.scene.PrimaryStatus(PrimaryReady, nil)
		}
	case l.state == Paused && !paused:
		l.state = Playing
		if l.ext != nil {
			l.ext.Play()
		}
	}
}

// SetStatic sets the still primary composed when no video frame has been
// decoded, and schedules a redraw.
func (l *Loop) SetStatic(img image.Image) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.static = img
	l.dirty = true
}

// Invalidate schedules a redraw on the next tick.
func (l *Loop) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dirty = true
}

// State returns the lifecycle state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Picture returns the last composed picture, or nil.
func (l *Loop) Picture() *picture.Picture {
	return l.picture.Load()
}

// Dispose cancels the clock subscription and disposes the extractor
// before returning. It is idempotent and may be called from callbacks.
func (l *Loop) Dispose() {
	if !l.disposed.CompareAndSwap(false, true) {
		return
	}
	l.mu.Lock()
	l.state = Disposed
	cancel, ext := l.cancel, l.ext
	l.cancel, l.ext = nil, nil
	l.static, l.last = nil, nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ext != nil {
		disposeExtractor(ext)
	}
}

func disposeExtractor(e extractor.Extractor) {
	if err := e.Dispose(); err != nil {
		logging.Logger().Warn("renderloop: extractor dispose failed", "err", err)
	}
}

func (l *Loop) tick(time.Duration) {
	if l.disposed.Load() {
		return
	}
	l.mu.Lock()
	if l.state == Disposed {
		l.mu.Unlock()
		return
	}
	start := time.Now()
	if l.scene.Prepare() {
		l.dirty = true
	}
	primary, fresh := l.primary()
	video := l.ext != nil && !l.failed
	if primary != nil && (fresh || l.dirty || video) {
		if pic := l.scene.Compose(primary); pic != nil {
			l.picture.Store(pic)
			l.dirty = false
			if l.observer != nil {
				if video && !fresh {
					l.observer.FrameReused()
				} else {
					l.observer.FrameComposed(time.Since(start))
				}
			}
		}
	}
	l.mu.Unlock()

	if !l.disposed.Load() {
		l.scene.Settle()
	}
}

// primary returns the image to compose and whether it is a newly decoded
// frame. It must be called with l.mu held.
func (l *Loop) primary() (image.Image, bool) {
	if l.failed {
		return nil, false
	}
	if l.ext == nil {
		return l.fallback(), false
	}

	fs, err := l.ext.DecodeCompositionFrames()
	switch {
	case err == nil:
		img := fs.Image(l.item)
		if img == nil {
			return l.miss(), false
		}
		if l.last == nil || l.stalled {
			l.scene.PrimaryStatus(PrimaryReady, nil)
		}
		l.last = img
		l.misses = 0
		l.stalled = false
		l.scene.Progress(l.ext.CurrentTime(), l.ext.Duration())
		return img, true
	case errors.Is(err, extractor.ErrNoFrame):
		return l.miss(), false
	default:
		l.failed = true
		logging.Logger().Error("renderloop: decode failed", "err", err)
		if l.observer != nil {
			l.observer.DecodeFailed(err)
		}
		l.scene.PrimaryStatus(PrimaryFailed, err)
		return nil, false
	}
}

// miss counts a tick without a new frame and returns the frame to reuse.
func (l *Loop) miss() image.Image {
	if l.last == nil {
		return l.fallback()
	}
	l.misses++
	if l.state == Playing && !l.stalled && l.misses >= l.stall {
		l.stalled = true
		l.scene.PrimaryStatus(PrimaryStalled, nil)
	}
	return l.last
}

func (l *Loop) fallback() image.Image {
	if l.last != nil {
		return l.last
	}
	return l.static
}
