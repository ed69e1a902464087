// Package extractor defines the contract of video composition decoders.
//
// An Extractor decodes the frames of a composition of video items on its
// own goroutines and hands out the most recent ones without blocking.
// The render loop drives it through play, pause, decode and dispose only,
// so any decoder, including a scripted fake, can stand behind it.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"
)

var (
	// ErrNoFrame means nothing new was decoded since the last call.
	// Callers keep drawing the previous frame.
	ErrNoFrame = errors.New("extractor: no new frame")

	// ErrDisposed is returned by calls on a disposed extractor.
	ErrDisposed = errors.New("extractor: disposed")

	// ErrRemoteSource is returned for network URIs when no resolver maps
	// them to a local file.
	ErrRemoteSource = errors.New("extractor: remote source requires a local path")

	// ErrEmptyComposition is returned for compositions without items.
	ErrEmptyComposition = errors.New("extractor: composition has no items")
)

// Size is a decode resolution in pixels. The zero Size keeps the native
// resolution.
type Size struct {
	Width  int
	Height int
}

// IsZero reports whether s keeps the native resolution.
func (s Size) IsZero() bool { return s.Width <= 0 || s.Height <= 0 }

// Item is one video placed on the composition timeline.
type Item struct {
	// ID keys the item's frames in a FrameSet.
	ID string
	// Path is a local filesystem path.
	Path string
	// CompositionStartTime is where the item starts on the timeline.
	CompositionStartTime time.Duration
	// StartTime and Duration trim the video.
	StartTime time.Duration
	Duration  time.Duration
	// Resolution is the decode size chosen by resolution negotiation.
	Resolution Size
}

// CompositionSpec describes what an extractor decodes.
type CompositionSpec struct {
	Duration time.Duration
	Items    []Item
}

// Validate checks that the composition can be decoded.
func (s CompositionSpec) Validate() error {
	if len(s.Items) == 0 {
		return ErrEmptyComposition
	}
	for _, it := range s.Items {
		if it.ID == "" || it.Path == "" {
			return fmt.Errorf("extractor: item %q has no path", it.ID)
		}
		if it.StartTime < 0 || it.Duration < 0 {
			return fmt.Errorf("extractor: item %q has a negative time range", it.ID)
		}
	}
	return nil
}

// Frame is a decoded frame of one item.
type Frame struct {
	Image image.Image
	// Time is the position of the frame within its video.
	Time time.Duration
}

// FrameSet holds the current frame of every visible item, keyed by
// item ID.
type FrameSet map[string]Frame

// Image returns the frame of item id, or nil.
func (fs FrameSet) Image(id string) image.Image {
	return fs[id].Image
}

// Extractor decodes a composition.
type Extractor interface {
	SetLooping(loop bool)
	Looping() bool
	Play()
	Pause()
	// CurrentTime is the playback position on the composition timeline.
	CurrentTime() time.Duration
	Duration() time.Duration
	// DecodeCompositionFrames returns the frames at the current time.
	// It never blocks on decoding; ErrNoFrame means nothing new is ready.
	DecodeCompositionFrames() (FrameSet, error)
	// Dispose releases decoder resources. It is idempotent.
	Dispose() error
}

// Factory creates extractors.
type Factory interface {
	Create(ctx context.Context, spec CompositionSpec) (Extractor, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, spec CompositionSpec) (Extractor, error)

// Create calls fn(ctx, spec).
func (fn FactoryFunc) Create(ctx context.Context, spec CompositionSpec) (Extractor, error) {
	return fn(ctx, spec)
}

// FrameGrabber extracts a single still frame, for video thumbnails and
// single-frame sources.
type FrameGrabber interface {
	GrabFrame(ctx context.Context, path string, at time.Duration, size Size) (image.Image, error)
}
