package picture

import "image"

// Backend is the interface that all playback surfaces implement.
//
// Each backend must:
//  1. Register in init() using picture.Register()
//  2. Accept Begin before any draw and End after the last one
//  3. Honour the blend mode of every draw
type Backend interface {
	// Begin initializes the backend for a surface of the given size.
	Begin(width, height int) error

	// End finalizes the frame.
	End() error

	// DrawPaint fills the surface with p.Color using p.Blend.
	DrawPaint(p Paint)

	// DrawImage lays img out with g, runs p.Effects on the layer, then
	// blends it onto the surface with p.Blend.
	DrawImage(img image.Image, g Geometry, p Paint)
}

// ImageBackend is implemented by backends that produce an in-memory image.
type ImageBackend interface {
	Backend

	// Image returns the rendered surface. Valid after End.
	Image() *image.RGBA
}
