package ggmedia

import (
	"github.com/gogpu/ggmedia/asset"
	"github.com/gogpu/ggmedia/clock"
	"github.com/gogpu/ggmedia/extractor"
	"github.com/gogpu/ggmedia/lut"
	"github.com/gogpu/ggmedia/renderloop"
	"github.com/gogpu/ggmedia/resolution"
)

// Option configures a Preview during creation.
//
// Example:
//
//	pv := ggmedia.New(
//		ggmedia.WithClock(clock.NewTicker(60)),
//		ggmedia.WithAssets(asset.Cached(asset.Dir("media"), 64)),
//	)
type Option func(*options)

// options holds the collaborators and device settings of a Preview.
type options struct {
	clock        clock.FrameClock
	assets       asset.Loader
	luts         *lut.Cache
	factory      extractor.Factory
	grabber      extractor.FrameGrabber
	resolver     extractor.PathResolver
	observer     renderloop.Observer
	windowHeight float64
	pixelRatio   float64
	maxDecode    int
	loop         bool
	stallTicks   int
}

func defaultOptions() options {
	return options{
		pixelRatio: 1,
		loop:       true,
		stallTicks: renderloop.DefaultStallTicks,
	}
}

// sharedTicker drives previews created without WithClock.
var sharedTicker = clock.NewTicker(clock.DefaultFPS)

func (o *options) finish() {
	if o.clock == nil {
		o.clock = sharedTicker
	}
	if o.luts == nil && o.assets != nil {
		o.luts = lut.NewCache(lut.FromImages(o.assets))
	}
}

// decodeCap returns the maximum decode resolution: the explicit one, the
// cap derived from the display, or the export cap.
func (o *options) decodeCap() int {
	switch {
	case o.maxDecode != 0:
		return o.maxDecode
	case o.windowHeight > 0:
		return resolution.DisplayDecoderCap(o.windowHeight, o.pixelRatio)
	}
	return resolution.ExportDecoderCap
}

// WithClock sets the frame clock. The default is a process-wide 60 fps
// ticker.
func WithClock(c clock.FrameClock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithAssets sets the loader of images and lookup tables.
// Wrap it with asset.Cached to share decoded images between sessions.
func WithAssets(l asset.Loader) Option {
	return func(o *options) {
		o.assets = l
	}
}

// WithLUTCache shares a shader cache between previews. Without it each
// preview builds its own cache on top of the asset loader.
func WithLUTCache(c *lut.Cache) Option {
	return func(o *options) {
		o.luts = c
	}
}

// WithExtractorFactory sets the decoder of video sources.
func WithExtractorFactory(f extractor.Factory) Option {
	return func(o *options) {
		o.factory = f
	}
}

// WithFrameGrabber sets the decoder of video frame sources and video
// placeholders.
func WithFrameGrabber(g extractor.FrameGrabber) Option {
	return func(o *options) {
		o.grabber = g
	}
}

// WithPathResolver maps remote video URIs to local files.
func WithPathResolver(r extractor.PathResolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithDisplay sets the window height in logical pixels. Unless
// WithMaxDecodeResolution is given, the decode cap is derived from it.
func WithDisplay(windowHeight float64) Option {
	return func(o *options) {
		o.windowHeight = windowHeight
	}
}

// WithPixelRatio sets the device pixel ratio applied to the display size.
func WithPixelRatio(ratio float64) Option {
	return func(o *options) {
		if ratio > 0 {
			o.pixelRatio = ratio
		}
	}
}

// WithMaxDecodeResolution caps the larger decoded dimension. A negative
// value decodes at the native resolution.
func WithMaxDecodeResolution(px int) Option {
	return func(o *options) {
		o.maxDecode = px
	}
}

// WithLoopPolicy sets whether videos loop. Previews loop by default.
func WithLoopPolicy(loop bool) Option {
	return func(o *options) {
		o.loop = loop
	}
}

// WithStallTicks sets how many frames without a new video frame count as
// rebuffering.
func WithStallTicks(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.stallTicks = n
		}
	}
}

// WithObserver receives frame statistics of every session. An observer
// that also has SessionStarted and SessionEnded methods, like
// *metrics.Metrics, is told about session lifetimes.
func WithObserver(obs renderloop.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// sessionObserver is implemented by observers counting live sessions.
type sessionObserver interface {
	SessionStarted()
	SessionEnded()
}
