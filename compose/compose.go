// Package compose draws the fixed layer stack of a preview frame.
//
// The stack is, from bottom to top:
//
//  1. background image, tinted, source-over
//  2. primary media with edition effects and colour grading, source-over
//     or multiply
//  3. mask, destination-in on everything drawn so far
//  4. foreground image, tinted, source-over, unaffected by the mask
//
// An optional solid background colour is painted before layer 1.
package compose

import (
	"image"
	"image/color"

	"github.com/gogpu/ggmedia/edition"
	"github.com/gogpu/ggmedia/lut"
	"github.com/gogpu/ggmedia/picture"
)

// ImageLayer is a decorative image with an optional tint.
type ImageLayer struct {
	Image image.Image
	// Tint replaces the colour of the image through its alpha.
	// Nil leaves the image untouched.
	Tint color.Color
}

// Layers describes one frame.
type Layers struct {
	// BackgroundColor fills the surface first. Nil leaves it transparent.
	BackgroundColor color.Color

	Background *ImageLayer
	Primary    image.Image
	Mask       image.Image
	Foreground *ImageLayer

	// Multiply blends the primary layer with multiply instead of
	// source-over.
	Multiply bool

	// VideoScale maps edition crop coordinates, given in source pixels,
	// onto a primary decoded at reduced resolution. Zero means 1.
	VideoScale float64
}

// ComposeFrame records layers onto canvas.
//
// width and height are the surface size in device pixels; the caller
// applies the pixel ratio. A nil primary records nothing. Missing
// decorative layers are skipped. The blend mode of every draw is set
// explicitly, so canvas may be a reused recorder.
func ComposeFrame(canvas *picture.Recorder, width, height int, layers Layers, params *edition.Parameters, shader *lut.Shader) {
	if canvas == nil || layers.Primary == nil || width <= 0 || height <= 0 {
		return
	}

	if layers.BackgroundColor != nil {
		canvas.DrawPaint(picture.Paint{
			Color: color.NRGBAModel.Convert(layers.BackgroundColor).(color.NRGBA),
			Blend: picture.BlendSourceOver,
		})
	}

	drawDecoration(canvas, layers.Background)

	primary := picture.Paint{
		Blend:   picture.BlendSourceOver,
		Effects: edition.Effects(params),
	}
	if shader != nil {
		primary.Effects = append(primary.Effects, shader)
	}
	if layers.Multiply {
		primary.Blend = picture.BlendMultiply
	}
	canvas.DrawImage(layers.Primary, edition.Geometry(params, layers.VideoScale), primary)

	if layers.Mask != nil {
		canvas.DrawImage(layers.Mask, picture.Geometry{}, picture.Paint{Blend: picture.BlendDestinationIn})
	}

	drawDecoration(canvas, layers.Foreground)
}

func drawDecoration(canvas *picture.Recorder, l *ImageLayer) {
	if l == nil || l.Image == nil {
		return
	}
	p := picture.Paint{Blend: picture.BlendSourceOver}
	if l.Tint != nil {
		p.Effects = []picture.Effect{picture.Tint(l.Tint)}
	}
	canvas.DrawImage(l.Image, picture.Geometry{}, p)
}
