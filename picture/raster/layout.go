package raster

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/ggmedia/picture"
)

// Layout resamples img onto a transparent width x height layer following g.
// The cropped, turned and rolled image is scaled to cover the layer and
// centred on it.
func Layout(img image.Image, g picture.Geometry, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	sr := img.Bounds()
	if !g.Crop.Empty() {
		sr = g.Crop.Intersect(sr)
	}
	if sr.Empty() || width <= 0 || height <= 0 {
		return dst
	}

	var src image.Image = img
	if q := g.Turns(); q != 0 {
		src = rotate(img, sr, q)
		sr = src.Bounds()
	}

	if g.Roll == 0 {
		xdraw.BiLinear.Scale(dst, dst.Bounds(), src, coverRect(sr, width, height), draw.Src, nil)
		return dst
	}

	theta := g.Roll * math.Pi / 180
	sin, cos := math.Sincos(theta)
	s := coverScale(sr.Dx(), sr.Dy(), width, height, theta)
	cx := float64(sr.Min.X) + float64(sr.Dx())/2
	cy := float64(sr.Min.Y) + float64(sr.Dy())/2
	w2, h2 := float64(width)/2, float64(height)/2

	s2d := f64.Aff3{
		s * cos, -s * sin, w2 - s*(cos*cx-sin*cy),
		s * sin, s * cos, h2 - s*(sin*cx+cos*cy),
	}
	xdraw.BiLinear.Transform(dst, s2d, src, sr, draw.Src, nil)
	return dst
}

// coverRect returns the centred sub-rectangle of sr with the aspect ratio
// of a width x height surface.
func coverRect(sr image.Rectangle, width, height int) image.Rectangle {
	sw, sh := sr.Dx(), sr.Dy()
	// Compare sw/sh with width/height without dividing.
	if sw*height > sh*width {
		cw := max(1, int(math.Round(float64(sh)*float64(width)/float64(height))))
		x0 := sr.Min.X + (sw-cw)/2
		return image.Rect(x0, sr.Min.Y, x0+cw, sr.Max.Y)
	}
	ch := max(1, int(math.Round(float64(sw)*float64(height)/float64(width))))
	y0 := sr.Min.Y + (sh-ch)/2
	return image.Rect(sr.Min.X, y0, sr.Max.X, y0+ch)
}

// coverScale returns the smallest uniform scale at which a sw x sh image
// rotated by theta covers a width x height surface.
func coverScale(sw, sh, width, height int, theta float64) float64 {
	c, s := math.Abs(math.Cos(theta)), math.Abs(math.Sin(theta))
	w, h := float64(width), float64(height)
	return math.Max((w*c+h*s)/float64(sw), (w*s+h*c)/float64(sh))
}

// rotate copies the sr region of img turned clockwise by q quarter turns.
func rotate(img image.Image, sr image.Rectangle, q int) *image.RGBA {
	src := image.NewRGBA(image.Rect(0, 0, sr.Dx(), sr.Dy()))
	draw.Draw(src, src.Bounds(), img, sr.Min, draw.Src)

	w, h := sr.Dx(), sr.Dy()
	var out *image.RGBA
	if q == 2 {
		out = image.NewRGBA(image.Rect(0, 0, w, h))
	} else {
		out = image.NewRGBA(image.Rect(0, 0, h, w))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var nx, ny int
			switch q {
			case 1:
				nx, ny = h-1-y, x
			case 2:
				nx, ny = w-1-x, h-1-y
			default:
				nx, ny = y, w-1-x
			}
			si := src.PixOffset(x, y)
			di := out.PixOffset(nx, ny)
			copy(out.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return out
}
