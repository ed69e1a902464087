package lut

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
)

const (
	// CubeSize is the number of entries per colour axis.
	CubeSize = 64
	// GridSize is the number of tiles per row and column.
	GridSize = 8
	// TextureSize is the width and height of a lookup table image.
	TextureSize = CubeSize * GridSize
)

// ErrBadTexture is returned for lookup tables of the wrong size.
var ErrBadTexture = errors.New("lut: lookup table must be 512x512")

// Texture is a validated lookup table.
// A Texture is immutable and safe for concurrent use.
type Texture struct {
	img *image.NRGBA
}

// NewTexture validates img and copies it into a Texture.
func NewTexture(img image.Image) (*Texture, error) {
	if img == nil {
		return nil, ErrBadTexture
	}
	b := img.Bounds()
	if b.Dx() != TextureSize || b.Dy() != TextureSize {
		return nil, fmt.Errorf("%w: got %dx%d", ErrBadTexture, b.Dx(), b.Dy())
	}
	dst := image.NewNRGBA(image.Rect(0, 0, TextureSize, TextureSize))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return &Texture{img: dst}, nil
}

// Image returns the lookup table as straight-alpha RGBA, the layout
// uploaded to GPU textures. Callers must not modify it.
func (t *Texture) Image() *image.NRGBA {
	return t.img
}

// entry returns the cube entry (r, g, b) normalized to [0, 1].
func (t *Texture) entry(r, g, b int) (float32, float32, float32) {
	line := g / GridSize
	col := g - line*GridSize
	x := r + col*CubeSize
	y := b*GridSize + line
	i := y*t.img.Stride + x*4
	p := t.img.Pix[i : i+3 : i+3]
	return float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255
}

// Map grades a straight-alpha colour with channels in [0, 1] using
// trilinear interpolation between the eight surrounding cube entries.
func (t *Texture) Map(r, g, b float32) (float32, float32, float32) {
	x := clamp01(r) * (CubeSize - 1)
	y := clamp01(g) * (CubeSize - 1)
	z := clamp01(b) * (CubeSize - 1)

	x0, y0, z0 := int(x), int(y), int(z)
	x1 := int(math.Ceil(float64(x)))
	y1 := int(math.Ceil(float64(y)))
	z1 := int(math.Ceil(float64(z)))
	fx, fy, fz := x-float32(x0), y-float32(y0), z-float32(z0)

	var out [3]float32
	c000 := t.vec(x0, y0, z0)
	c100 := t.vec(x1, y0, z0)
	c010 := t.vec(x0, y1, z0)
	c110 := t.vec(x1, y1, z0)
	c001 := t.vec(x0, y0, z1)
	c101 := t.vec(x1, y0, z1)
	c011 := t.vec(x0, y1, z1)
	c111 := t.vec(x1, y1, z1)
	for i := range out {
		lo := mix(mix(c000[i], c100[i], fx), mix(c010[i], c110[i], fx), fy)
		hi := mix(mix(c001[i], c101[i], fx), mix(c011[i], c111[i], fx), fy)
		out[i] = mix(lo, hi, fz)
	}
	return out[0], out[1], out[2]
}

func (t *Texture) vec(r, g, b int) [3]float32 {
	x, y, z := t.entry(r, g, b)
	return [3]float32{x, y, z}
}

// Apply grades a premultiplied RGBA image in place.
// Fully transparent pixels are left untouched.
func (t *Texture) Apply(dst *image.RGBA) {
	for y := dst.Rect.Min.Y; y < dst.Rect.Max.Y; y++ {
		row := dst.Pix[dst.PixOffset(dst.Rect.Min.X, y):dst.PixOffset(dst.Rect.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			a := row[i+3]
			if a == 0 {
				continue
			}
			fa := float32(a) / 255
			r, g, b := t.Map(
				float32(row[i])/255/fa,
				float32(row[i+1])/255/fa,
				float32(row[i+2])/255/fa,
			)
			row[i] = unit8(r * fa)
			row[i+1] = unit8(g * fa)
			row[i+2] = unit8(b * fa)
		}
	}
}

// IdentityImage returns the neutral lookup table: grading with it leaves
// colours unchanged up to quantization.
func IdentityImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, TextureSize, TextureSize))
	for y := 0; y < TextureSize; y++ {
		for x := 0; x < TextureSize; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = level(x % CubeSize)
			img.Pix[i+1] = level((y%GridSize)*GridSize + x/CubeSize)
			img.Pix[i+2] = level(y / GridSize)
			img.Pix[i+3] = 255
		}
	}
	return img
}

// level converts a cube index to an 8-bit channel value.
func level(i int) uint8 {
	return uint8(math.Round(float64(i) * 255 / (CubeSize - 1)))
}

func mix(a, b, t float32) float32 { return a + (b-a)*t }

func clamp01(v float32) float32 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func unit8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
