// Package raster provides the CPU backend for pictures.
//
// Layers are resampled with golang.org/x/image/draw, run through their
// effects and blended onto a premultiplied RGBA surface.
//
// # Example
//
//	// Import to register the backend
//	import _ "github.com/gogpu/ggmedia/picture/raster"
//
//	backend, _ := picture.NewBackend("raster")
//
//	// Or render directly
//	img, err := raster.Render(pic)
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/gogpu/ggmedia/internal/blend"
	"github.com/gogpu/ggmedia/picture"
)

// Name is the registry name of the backend.
const Name = "raster"

func init() {
	picture.Register(Name, func() picture.Backend {
		return NewBackend()
	})
}

// ErrNotBegun is returned by End when Begin was not called.
var ErrNotBegun = errors.New("raster: End without Begin")

// Backend renders pictures to an *image.RGBA.
type Backend struct {
	surface *image.RGBA
	width   int
	height  int
}

var _ picture.ImageBackend = (*Backend)(nil)

// NewBackend creates a raster backend. Call Begin before drawing.
func NewBackend() *Backend {
	return &Backend{}
}

// Begin allocates a transparent surface of the given size.
func (b *Backend) Begin(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("raster: invalid surface size %dx%d", width, height)
	}
	b.width, b.height = width, height
	b.surface = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// End finalizes the frame.
func (b *Backend) End() error {
	if b.surface == nil {
		return ErrNotBegun
	}
	return nil
}

// DrawPaint fills the surface with p.Color.
func (b *Backend) DrawPaint(p picture.Paint) {
	if b.surface == nil {
		return
	}
	c := p.Color
	pr := uint8((uint32(c.R)*uint32(c.A) + 127) / 255)
	pg := uint8((uint32(c.G)*uint32(c.A) + 127) / 255)
	pb := uint8((uint32(c.B)*uint32(c.A) + 127) / 255)

	row := make([]uint8, b.width*4)
	for i := 0; i < len(row); i += 4 {
		row[i], row[i+1], row[i+2], row[i+3] = pr, pg, pb, c.A
	}
	mode := blendMode(p.Blend)
	for y := 0; y < b.height; y++ {
		blend.Span(b.surface.Pix[y*b.surface.Stride:y*b.surface.Stride+b.width*4], row, mode)
	}
}

// DrawImage lays img out over the whole surface, applies the paint's
// effects and blends the layer.
func (b *Backend) DrawImage(img image.Image, g picture.Geometry, p picture.Paint) {
	if b.surface == nil || img == nil {
		return
	}
	layer := Layout(img, g, b.width, b.height)
	for _, e := range p.Effects {
		if e != nil {
			e.Apply(layer)
		}
	}
	mode := blendMode(p.Blend)
	for y := 0; y < b.height; y++ {
		off := y * b.surface.Stride
		blend.Span(b.surface.Pix[off:off+b.width*4], layer.Pix[y*layer.Stride:y*layer.Stride+b.width*4], mode)
	}
}

// Image returns the rendered surface.
func (b *Backend) Image() *image.RGBA {
	return b.surface
}

// Width returns the surface width.
func (b *Backend) Width() int { return b.width }

// Height returns the surface height.
func (b *Backend) Height() int { return b.height }

// WriteTo writes the surface as PNG to w.
func (b *Backend) WriteTo(w io.Writer) (int64, error) {
	if b.surface == nil {
		return 0, ErrNotBegun
	}
	cw := &countingWriter{w: w}
	err := png.Encode(cw, b.surface)
	return cw.n, err
}

// Render plays p back on a new raster backend and returns the surface.
func Render(p *picture.Picture) (*image.RGBA, error) {
	b := NewBackend()
	if err := p.Playback(b); err != nil {
		return nil, err
	}
	return b.Image(), nil
}

func blendMode(m picture.BlendMode) blend.BlendMode {
	switch m {
	case picture.BlendMultiply:
		return blend.BlendMultiply
	case picture.BlendDestinationIn:
		return blend.BlendDestinationIn
	case picture.BlendSource:
		return blend.BlendSource
	default:
		return blend.BlendSourceOver
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
