package picture

import (
	"image"
	"image/color"
)

// BlendMode selects how a draw combines with the surface below it.
type BlendMode uint8

const (
	// BlendSourceOver composites the layer over the surface.
	BlendSourceOver BlendMode = iota
	// BlendMultiply multiplies the layer into the surface.
	BlendMultiply
	// BlendDestinationIn keeps the surface where the layer is opaque.
	BlendDestinationIn
	// BlendSource replaces the surface with the layer.
	BlendSource
)

var blendModeNames = [...]string{
	BlendSourceOver:    "SourceOver",
	BlendMultiply:      "Multiply",
	BlendDestinationIn: "DestinationIn",
	BlendSource:        "Source",
}

// String returns the blend mode name.
func (m BlendMode) String() string {
	if int(m) < len(blendModeNames) {
		return blendModeNames[m]
	}
	return "Unknown"
}

// Effect transforms a laid-out layer in place before it is blended.
// The image is premultiplied RGBA at surface resolution.
type Effect interface {
	Apply(dst *image.RGBA)
}

// EffectFunc adapts a function to the Effect interface.
type EffectFunc func(dst *image.RGBA)

// Apply calls f(dst).
func (f EffectFunc) Apply(dst *image.RGBA) { f(dst) }

// Paint describes how a draw is shaded and blended.
type Paint struct {
	// Color fills the surface for DrawPaint. Ignored by DrawImage.
	Color color.NRGBA

	// Blend is set explicitly on every draw.
	Blend BlendMode

	// Effects run in order on the layer before blending.
	Effects []Effect
}

// clone returns a copy of p that does not share the Effects slice.
func (p Paint) clone() Paint {
	if len(p.Effects) > 0 {
		p.Effects = append([]Effect(nil), p.Effects...)
	}
	return p
}

// Geometry places an image on the surface.
//
// The crop is applied in source pixel coordinates, then the image is
// rotated by QuarterTurns clockwise, rolled by Roll degrees clockwise about
// its centre, and finally scaled to cover the whole surface.
type Geometry struct {
	Crop         image.Rectangle
	QuarterTurns int
	Roll         float64
}

// Turns returns QuarterTurns normalized to [0, 4).
func (g Geometry) Turns() int {
	q := g.QuarterTurns % 4
	if q < 0 {
		q += 4
	}
	return q
}

// Tint returns an effect that paints c through the layer's alpha, the
// equivalent of a source-in colour filter.
func Tint(c color.Color) Effect {
	return tint(color.NRGBAModel.Convert(c).(color.NRGBA))
}

type tint color.NRGBA

// Apply implements Effect.
func (t tint) Apply(dst *image.RGBA) {
	ta := uint32(t.A)
	for y := dst.Rect.Min.Y; y < dst.Rect.Max.Y; y++ {
		row := dst.Pix[dst.PixOffset(dst.Rect.Min.X, y):dst.PixOffset(dst.Rect.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			a := (uint32(row[i+3])*ta + 127) / 255
			row[i+0] = uint8((uint32(t.R)*a + 127) / 255)
			row[i+1] = uint8((uint32(t.G)*a + 127) / 255)
			row[i+2] = uint8((uint32(t.B)*a + 127) / 255)
			row[i+3] = uint8(a)
		}
	}
}
