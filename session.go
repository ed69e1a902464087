package ggmedia

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/ggmedia/compose"
	"github.com/gogpu/ggmedia/extractor"
	"github.com/gogpu/ggmedia/internal/logging"
	"github.com/gogpu/ggmedia/lut"
	"github.com/gogpu/ggmedia/picture"
	"github.com/gogpu/ggmedia/readiness"
	"github.com/gogpu/ggmedia/renderloop"
	"github.com/gogpu/ggmedia/resolution"
)

// Readiness source ids.
const (
	srcPrimary    = "primary"
	srcBackground = "background"
	srcForeground = "foreground"
	srcMask       = "mask"
	srcFilter     = "filter"
)

// videoLoadedAfter is the playback position from which the first video
// frame counts as on screen.
const videoLoadedAfter = 40 * time.Millisecond

type layer int

const (
	layerBackground layer = iota
	layerForeground
	layerMask
	numLayers
)

var layerSources = [numLayers]string{srcBackground, srcForeground, srcMask}

func (p *Props) layerURI(l layer) string {
	switch l {
	case layerBackground:
		return p.BackgroundImageURI
	case layerForeground:
		return p.ForegroundImageURI
	}
	return p.MaskURI
}

// session is the composition session of one source identity. It is the
// renderloop.Scene of its loop.
//
// Asynchronous loads never touch loop state directly: they post closures
// to the inbox, which Prepare runs under the loop lock. Caller callbacks
// are queued in the outbox and delivered by Settle.
type session struct {
	id     string
	opts   *options
	source Source
	loop   *renderloop.Loop
	ctx    context.Context
	cancel context.CancelFunc

	disposed atomic.Bool
	started  bool

	mu       sync.Mutex
	pending  *Props
	inbox    []func() bool
	outbox   []func()
	state    readiness.State
	plan     resolution.Plan
	natural  image.Point
	rotation float64
	display  image.Point

	// Confined to the render loop after start.
	props       Props
	agg         *readiness.Aggregator
	begun       bool
	images      [numLayers]image.Image
	shader      *lut.Shader
	videoLoaded bool
}

var _ renderloop.Scene = (*session)(nil)

func newSession(opts *options, props Props) (_ *session, err error) {
	src := props.Source
	switch {
	case src.Kind == KindImage && opts.assets == nil:
		return nil, newError(ErrNoSource, src.URI, errors.New("no asset loader"))
	case src.Kind == KindVideo && opts.factory == nil:
		return nil, newError(ErrNoSource, src.URI, errors.New("no extractor factory"))
	case src.Kind == KindVideoFrame && opts.grabber == nil:
		return nil, newError(ErrNoSource, src.URI, errors.New("no frame grabber"))
	case src.Kind > KindVideoFrame:
		return nil, newError(ErrNoSource, src.URI, fmt.Errorf("unknown kind %v", src.Kind))
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		opts:   opts,
		source: src,
		ctx:    ctx,
		cancel: cancel,
		props:  props,
	}
	defer func() {
		if err != nil {
			s.dispose()
		}
	}()

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("ggmedia: session id: %w", err)
	}
	s.id = id.String()
	s.display = surfaceSize(&props, opts.pixelRatio)
	s.loop = renderloop.New(renderloop.Config{
		Clock:      opts.clock,
		Scene:      s,
		Item:       s.id,
		Loop:       opts.loop,
		Paused:     props.Paused,
		StallTicks: opts.stallTicks,
		Observer:   opts.observer,
	})
	s.agg = readiness.New(readiness.Handlers{
		OnLoadingStart: func() { s.queue(s.props.OnLoadingStart) },
		OnReady:        func() { s.queue(s.props.OnLoadingEnd) },
		OnError: func(err error) {
			if fn := s.props.OnLoadingError; fn != nil {
				s.queue(func() { fn(err) })
			}
		},
	})

	s.agg.Track(srcPrimary, readiness.Required)
	for l := range numLayers {
		if uri := props.layerURI(l); uri != "" {
			s.agg.Track(layerSources[l], readiness.Decorative)
			s.startLayer(l, uri, true)
		} else {
			s.agg.Absent(layerSources[l])
		}
	}
	if props.Filter != lut.None {
		s.agg.Track(srcFilter, readiness.Decorative)
		s.startFilter(props.Filter, true)
	} else {
		s.agg.Absent(srcFilter)
	}
	s.startPrimary()
	s.snapshot()

	s.logger().Info("ggmedia: session created", "kind", src.Kind.String(), "uri", src.URI)
	if obs, ok := opts.observer.(sessionObserver); ok {
		obs.SessionStarted()
		s.started = true
	}
	s.loop.Start()
	return s, nil
}

func (s *session) logger() *slog.Logger {
	return logging.Logger().With("session", s.id)
}

// surfaceSize returns the surface size in device pixels.
func surfaceSize(p *Props, ratio float64) image.Point {
	return image.Pt(int(math.Round(p.Width*ratio)), int(math.Round(p.Height*ratio)))
}

// negotiate plans the decode of a source of the given natural size and
// records it as the session plan.
func (s *session) negotiate(width, height int, rotation float64) (resolution.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, err := resolution.Negotiate(resolution.Input{
		SourceWidth:         width,
		SourceHeight:        height,
		Rotation:            rotation,
		MaxDecodeResolution: s.opts.decodeCap(),
		DisplayWidth:        s.display.X,
		DisplayHeight:       s.display.Y,
	})
	if err != nil {
		return plan, err
	}
	s.plan = plan
	s.natural = image.Pt(width, height)
	s.rotation = rotation
	return plan, nil
}

func (s *session) startPrimary() {
	src := s.source
	if src.Kind == KindImage {
		go s.loadImage()
		return
	}
	plan, err := s.negotiate(src.Width, src.Height, src.Rotation)
	if err != nil {
		s.agg.Fail(srcPrimary, newError(ErrResolution, src.URI, err))
		return
	}
	s.logger().Debug("ggmedia: resolution plan", "plan", plan.String())
	size := extractor.Size{Width: plan.TargetWidth, Height: plan.TargetHeight}
	if src.Kind == KindVideoFrame {
		go s.grabFrame(size)
		return
	}
	go s.openVideo(size, s.props.VideoPreview)
}

// loadImage decodes an image primary and fits it to the resolution plan.
func (s *session) loadImage() {
	uri := s.source.URI
	img, err := s.opts.assets.Load(s.ctx, uri)
	if err != nil {
		s.fail(srcPrimary, ErrAssetLoad, err)
		return
	}
	b := img.Bounds()
	plan, err := s.negotiate(b.Dx(), b.Dy(), 0)
	if err != nil {
		s.fail(srcPrimary, ErrResolution, err)
		return
	}
	s.logger().Debug("ggmedia: resolution plan", "plan", plan.String())
	s.present(fit(img, plan))
}

func (s *session) grabFrame(size extractor.Size) {
	path, err := extractor.Resolve(s.ctx, s.source.URI, s.opts.resolver)
	if err != nil {
		s.fail(srcPrimary, ErrAssetLoad, err)
		return
	}
	img, err := s.opts.grabber.GrabFrame(s.ctx, path, s.source.Time, size)
	if err != nil {
		s.fail(srcPrimary, ErrDecode, err)
		return
	}
	s.present(img)
}

// present shows a still primary and marks it ready.
func (s *session) present(img image.Image) {
	if s.ctx.Err() != nil {
		return
	}
	s.loop.SetStatic(img)
	s.post(func() bool {
		s.agg.Ready(srcPrimary)
		return true
	})
}

func (s *session) openVideo(size extractor.Size, placeholder bool) {
	src := s.source
	path, err := extractor.Resolve(s.ctx, src.URI, s.opts.resolver)
	if err != nil {
		s.fail(srcPrimary, ErrAssetLoad, err)
		return
	}
	if placeholder && s.opts.grabber != nil {
		go s.grabPlaceholder(path, size)
	}
	e, err := s.opts.factory.Create(s.ctx, extractor.CompositionSpec{
		Duration: src.Duration,
		Items: []extractor.Item{{
			ID:         s.id,
			Path:       path,
			StartTime:  src.StartTime,
			Duration:   src.Duration,
			Resolution: size,
		}},
	})
	if err != nil {
		s.fail(srcPrimary, ErrDecode, err)
		return
	}
	if !s.loop.SetExtractor(e) {
		s.logger().Debug("ggmedia: extractor ready after dispose")
	}
}

// grabPlaceholder shows the first frame of a video until it decodes.
func (s *session) grabPlaceholder(path string, size extractor.Size) {
	img, err := s.opts.grabber.GrabFrame(s.ctx, path, s.source.StartTime, size)
	if err != nil {
		if s.ctx.Err() == nil {
			s.logger().Warn("ggmedia: video placeholder failed", "uri", s.source.URI, "err", err)
		}
		return
	}
	if s.ctx.Err() == nil {
		s.loop.SetStatic(img)
	}
}

// startLayer loads an overlay image. Untracked loads replace an overlay
// after a prop change and only log failures.
func (s *session) startLayer(l layer, uri string, tracked bool) {
	id := layerSources[l]
	if s.opts.assets == nil {
		err := newError(ErrAssetLoad, uri, errors.New("no asset loader"))
		if tracked {
			s.agg.Fail(id, err)
		} else {
			s.logger().Warn("ggmedia: overlay unavailable", "layer", id, "err", err)
		}
		return
	}
	go func() {
		img, err := s.opts.assets.Load(s.ctx, uri)
		if s.ctx.Err() != nil {
			return
		}
		s.post(func() bool {
			current := s.props.layerURI(l) == uri
			if err != nil {
				err := newError(ErrAssetLoad, uri, err)
				if tracked {
					s.agg.Fail(id, err)
				} else if current {
					s.logger().Warn("ggmedia: overlay unavailable", "layer", id, "err", err)
				}
				return false
			}
			if current {
				s.images[l] = img
			}
			if tracked {
				s.agg.Ready(id)
			}
			return current
		})
	}()
}

// startFilter resolves the shader of f, from the cache when possible.
func (s *session) startFilter(f lut.Filter, tracked bool) {
	if s.opts.luts == nil {
		err := newError(ErrAssetLoad, f.AssetPath(), errors.New("no lookup table loader"))
		if tracked {
			s.agg.Fail(srcFilter, err)
		} else {
			s.logger().Warn("ggmedia: filter unavailable", "filter", string(f), "err", err)
		}
		return
	}
	if sh, ok := s.opts.luts.Lookup(f); ok {
		s.shader = sh
		if tracked {
			s.agg.Ready(srcFilter)
		}
		return
	}
	go func() {
		sh, err := s.opts.luts.BuildErr(s.ctx, f)
		if s.ctx.Err() != nil {
			return
		}
		s.post(func() bool {
			current := s.props.Filter == f
			if err != nil {
				err := newError(ErrAssetLoad, f.AssetPath(), err)
				if tracked {
					s.agg.Fail(srcFilter, err)
				} else if current {
					s.logger().Warn("ggmedia: filter unavailable", "filter", string(f), "err", err)
				}
				return false
			}
			if current {
				s.shader = sh
			}
			if tracked {
				s.agg.Ready(srcFilter)
			}
			return current
		})
	}()
}

// fail reports the failure of an asynchronous load unless the session
// was disposed meanwhile.
func (s *session) fail(id string, kind error, err error) {
	if s.ctx.Err() != nil {
		return
	}
	e := newError(kind, s.source.URI, err)
	s.post(func() bool {
		s.agg.Fail(id, e)
		return false
	})
}

// post queues fn to run in the next Prepare. fn reports whether the
// frame must be composed again.
func (s *session) post(fn func() bool) {
	if s.disposed.Load() {
		return
	}
	s.mu.Lock()
	s.inbox = append(s.inbox, fn)
	s.mu.Unlock()
}

// queue schedules a caller callback for the next Settle.
func (s *session) queue(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.outbox = append(s.outbox, fn)
	s.mu.Unlock()
}

// update posts new props with the same source identity.
func (s *session) update(p Props) {
	s.mu.Lock()
	s.pending = &p
	s.mu.Unlock()
}

func (s *session) snapshot() {
	st := s.agg.State()
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// State returns the aggregate readiness of the session.
func (s *session) State() readiness.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Prepare implements renderloop.Scene.
func (s *session) Prepare() bool {
	s.mu.Lock()
	inbox, next := s.inbox, s.pending
	s.inbox, s.pending = nil, nil
	s.mu.Unlock()

	if !s.begun {
		s.begun = true
		s.agg.Begin()
	}
	changed := false
	if next != nil {
		s.apply(*next)
		changed = true
	}
	for _, fn := range inbox {
		if fn() {
			changed = true
		}
	}
	s.snapshot()
	return changed
}

// apply switches to new props of the same source.
func (s *session) apply(next Props) {
	prev := s.props
	s.props = next
	for l := range numLayers {
		uri := next.layerURI(l)
		if uri == prev.layerURI(l) {
			continue
		}
		s.images[l] = nil
		if uri != "" {
			s.startLayer(l, uri, false)
		}
	}
	if next.Filter != prev.Filter {
		s.shader = nil
		if next.Filter != lut.None {
			s.startFilter(next.Filter, false)
		}
	}
	if next.Width != prev.Width || next.Height != prev.Height {
		s.resize(surfaceSize(&next, s.opts.pixelRatio))
	}
}

// resize renegotiates the plan for a new display size. The decode size
// does not depend on it, so the extractor is kept.
func (s *session) resize(display image.Point) {
	s.mu.Lock()
	s.display = display
	natural, rotation := s.natural, s.rotation
	s.mu.Unlock()
	if natural == (image.Point{}) {
		return
	}
	if _, err := s.negotiate(natural.X, natural.Y, rotation); err != nil {
		s.logger().Debug("ggmedia: renegotiate failed", "err", err)
	}
}

// Compose implements renderloop.Scene.
func (s *session) Compose(primary image.Image) *picture.Picture {
	size := surfaceSize(&s.props, s.opts.pixelRatio)
	if size.X <= 0 || size.Y <= 0 {
		return nil
	}
	s.mu.Lock()
	scale := s.plan.VideoScale
	s.mu.Unlock()

	rec := picture.NewRecorder(size.X, size.Y)
	compose.ComposeFrame(rec, size.X, size.Y, compose.Layers{
		BackgroundColor: s.props.background(),
		Background:      s.overlay(layerBackground, s.props.BackgroundImageTintColor),
		Primary:         primary,
		Mask:            s.images[layerMask],
		Foreground:      s.overlay(layerForeground, s.props.ForegroundImageTintColor),
		Multiply:        s.props.BackgroundMultiply,
		VideoScale:      scale,
	}, s.props.EditionParameters, s.shader)
	if rec.Len() == 0 {
		return nil
	}
	return rec.FinishRecording()
}

func (s *session) overlay(l layer, tint color.Color) *compose.ImageLayer {
	if s.images[l] == nil {
		return nil
	}
	return &compose.ImageLayer{Image: s.images[l], Tint: tint}
}

// PrimaryStatus implements renderloop.Scene.
func (s *session) PrimaryStatus(st renderloop.Status, err error) {
	switch st {
	case renderloop.PrimaryReady:
		s.agg.Ready(srcPrimary)
	case renderloop.PrimaryStalled:
		s.agg.Loading(srcPrimary)
	case renderloop.PrimaryFailed:
		s.agg.Fail(srcPrimary, newError(ErrDecode, s.source.URI, err))
	}
	s.snapshot()
}

// Progress implements renderloop.Scene.
func (s *session) Progress(current, duration time.Duration) {
	if fn := s.props.OnProgress; fn != nil {
		s.queue(func() { fn(current, duration) })
	}
	if !s.videoLoaded && current > videoLoadedAfter {
		s.videoLoaded = true
		s.queue(s.props.OnVideoLoaded)
	}
}

// Settle implements renderloop.Scene.
func (s *session) Settle() {
	s.mu.Lock()
	out := s.outbox
	s.outbox = nil
	s.mu.Unlock()
	for _, fn := range out {
		if s.disposed.Load() {
			return
		}
		fn()
	}
}

// dispose releases the session. Pending loads are cancelled and their
// results discarded; no callback runs afterwards.
func (s *session) dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	s.cancel()
	if s.loop != nil {
		s.loop.Dispose()
	}
	s.mu.Lock()
	s.inbox, s.outbox, s.pending = nil, nil, nil
	s.mu.Unlock()
	if s.started {
		if obs, ok := s.opts.observer.(sessionObserver); ok {
			obs.SessionEnded()
		}
	}
	s.logger().Info("ggmedia: session disposed")
}

// fit downscales a still primary to the resolution plan.
func fit(img image.Image, plan resolution.Plan) image.Image {
	b := img.Bounds()
	if plan.TargetWidth == b.Dx() && plan.TargetHeight == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, plan.TargetWidth, plan.TargetHeight))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
