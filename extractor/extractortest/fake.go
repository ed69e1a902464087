// Package extractortest provides scripted extractors for tests.
package extractortest

import (
	"context"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/gogpu/ggmedia/extractor"
)

// Step is the outcome of one DecodeCompositionFrames call.
type Step struct {
	Frames extractor.FrameSet
	Err    error
}

// Fake is an Extractor that replays a script of decode results.
// Once the script is exhausted every decode returns ErrNoFrame.
// Fake records every call and is safe for concurrent use.
type Fake struct {
	mu       sync.Mutex
	script   []Step
	calls    []string
	looping  bool
	current  time.Duration
	duration time.Duration
	disposed int
	decodes  int

	// DisposeErr is returned by Dispose.
	DisposeErr error
}

var _ extractor.Extractor = (*Fake)(nil)

// New creates a fake with the given script.
func New(duration time.Duration, script ...Step) *Fake {
	return &Fake{duration: duration, script: script}
}

// Push appends steps to the script.
func (f *Fake) Push(steps ...Step) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, steps...)
}

// PushFrame appends a successful decode of img for item id at t.
func (f *Fake) PushFrame(id string, img image.Image, t time.Duration) {
	f.Push(Step{Frames: extractor.FrameSet{id: {Image: img, Time: t}}})
}

// SetCurrentTime moves the playback position.
func (f *Fake) SetCurrentTime(t time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}

func (f *Fake) record(call string) {
	f.calls = append(f.calls, call)
}

// SetLooping implements extractor.Extractor.
func (f *Fake) SetLooping(loop bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.looping = loop
	if loop {
		f.record("loop")
	} else {
		f.record("noloop")
	}
}

// Looping implements extractor.Extractor.
func (f *Fake) Looping() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.looping
}

// Play implements extractor.Extractor.
func (f *Fake) Play() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("play")
}

// Pause implements extractor.Extractor.
func (f *Fake) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("pause")
}

// CurrentTime implements extractor.Extractor.
func (f *Fake) CurrentTime() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Duration implements extractor.Extractor.
func (f *Fake) Duration() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

// DecodeCompositionFrames implements extractor.Extractor.
func (f *Fake) DecodeCompositionFrames() (extractor.FrameSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decodes++
	if f.disposed > 0 {
		return nil, extractor.ErrDisposed
	}
	if len(f.script) == 0 {
		return nil, extractor.ErrNoFrame
	}
	s := f.script[0]
	f.script = f.script[1:]
	return s.Frames, s.Err
}

// Dispose implements extractor.Extractor.
func (f *Fake) Dispose() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed++
	if f.disposed == 1 {
		f.record("dispose")
	}
	return f.DisposeErr
}

// Calls returns the recorded lifecycle calls in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Count returns how many times call was recorded.
func (f *Fake) Count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

// Decodes returns the number of decode calls.
func (f *Fake) Decodes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.decodes
}

// Disposed reports whether Dispose was called.
func (f *Fake) Disposed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disposed > 0
}

// Factory creates fakes and records the specs it was asked for.
type Factory struct {
	mu    sync.Mutex
	specs []extractor.CompositionSpec
	made  []*Fake

	// New builds the fake for a spec. Nil creates an empty fake.
	New func(spec extractor.CompositionSpec) *Fake
	// Err fails every Create.
	Err error
	// Gate, when set, blocks Create until it is closed or ctx is done.
	Gate chan struct{}
}

var _ extractor.Factory = (*Factory)(nil)

// Create implements extractor.Factory.
func (fc *Factory) Create(ctx context.Context, spec extractor.CompositionSpec) (extractor.Extractor, error) {
	if fc.Gate != nil {
		select {
		case <-fc.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.specs = append(fc.specs, spec)
	if fc.Err != nil {
		return nil, fc.Err
	}
	var f *Fake
	if fc.New != nil {
		f = fc.New(spec)
	} else {
		f = New(spec.Duration)
	}
	fc.made = append(fc.made, f)
	return f, nil
}

// Specs returns the specs passed to Create.
func (fc *Factory) Specs() []extractor.CompositionSpec {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]extractor.CompositionSpec(nil), fc.specs...)
}

// Made returns the fakes created so far.
func (fc *Factory) Made() []*Fake {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]*Fake(nil), fc.made...)
}

// Grabber is a FrameGrabber returning solid frames of the requested size.
type Grabber struct {
	mu    sync.Mutex
	paths []string

	Color color.Color
	Err   error
}

var _ extractor.FrameGrabber = (*Grabber)(nil)

// GrabFrame implements extractor.FrameGrabber.
func (g *Grabber) GrabFrame(_ context.Context, path string, _ time.Duration, size extractor.Size) (image.Image, error) {
	g.mu.Lock()
	g.paths = append(g.paths, path)
	g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	if size.IsZero() {
		size = extractor.Size{Width: 16, Height: 16}
	}
	c := g.Color
	if c == nil {
		c = color.Gray{Y: 128}
	}
	img := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	for y := 0; y < size.Height; y++ {
		for x := 0; x < size.Width; x++ {
			img.Set(x, y, c)
		}
	}
	return img, nil
}

// Paths returns the paths grabbed so far.
func (g *Grabber) Paths() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.paths...)
}
