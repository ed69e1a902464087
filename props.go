package ggmedia

import (
	"image/color"
	"time"

	"github.com/gogpu/ggmedia/edition"
	"github.com/gogpu/ggmedia/lut"
)

// Props are the inputs of a Preview.
type Props struct {
	Source Source

	// BackgroundColor fills the surface under every layer.
	// Nil is white; use color.Transparent for no fill.
	BackgroundColor color.Color

	BackgroundImageURI       string
	BackgroundImageTintColor color.Color
	ForegroundImageURI       string
	ForegroundImageTintColor color.Color
	MaskURI                  string

	// BackgroundMultiply blends the primary onto the background with
	// multiply instead of source-over.
	BackgroundMultiply bool

	EditionParameters *edition.Parameters
	Filter            lut.Filter

	// Width and Height are the display size in logical pixels. The
	// surface is this size times the pixel ratio.
	Width  float64
	Height float64

	// Paused pauses video playback. Paused frames still follow prop
	// changes.
	Paused bool

	// VideoPreview shows a still of the first frame of a video until
	// decoding catches up. It needs a FrameGrabber.
	VideoPreview bool

	OnLoadingStart func()
	OnLoadingEnd   func()
	OnLoadingError func(err error)
	// OnProgress receives the playback position of every decoded frame.
	OnProgress func(current, duration time.Duration)
	// OnVideoLoaded fires once the first video frame is on screen.
	OnVideoLoaded func()
}

var defaultBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

func (p *Props) background() color.Color {
	if p.BackgroundColor == nil {
		return defaultBackground
	}
	return p.BackgroundColor
}
