package edition

import (
	"image"
	"math"

	"github.com/gogpu/ggmedia/picture"
)

// Effects returns the picture effects of p in application order:
// brightness and contrast, highlights, shadow, saturation, sharpness,
// temperature, vibrance, vignetting. Parameters that change nothing are
// skipped; a nil p yields no effects.
//
// Structure, tint, pitch and yaw have no portable rendition and are
// ignored.
func Effects(p *Parameters) []picture.Effect {
	if p == nil {
		return nil
	}
	var out []picture.Effect

	if active(Brightness, p.Brightness) || active(Contrast, p.Contrast) {
		m := IdentityMatrix()
		if active(Brightness, p.Brightness) {
			m = m.Then(BrightnessMatrix(float32(Value(Brightness, p.Brightness))))
		}
		if active(Contrast, p.Contrast) {
			m = m.Then(ContrastMatrix(float32(Value(Contrast, p.Contrast))))
		}
		out = append(out, m)
	}
	if active(Highlights, p.Highlights) {
		out = append(out, perPixel(highlights(float32(Value(Highlights, p.Highlights)))))
	}
	if active(Shadow, p.Shadow) {
		out = append(out, perPixel(shadow(float32(Value(Shadow, p.Shadow)))))
	}
	if active(Saturation, p.Saturation) {
		out = append(out, SaturationMatrix(float32(Value(Saturation, p.Saturation))))
	}
	if active(Sharpness, p.Sharpness) {
		out = append(out, sharpen(float32(Value(Sharpness, p.Sharpness))))
	}
	if active(Temperature, p.Temperature) {
		out = append(out, perPixel(temperature(Value(Temperature, p.Temperature))))
	}
	if active(Vibrance, p.Vibrance) {
		out = append(out, perPixel(vibrance(float32(Value(Vibrance, p.Vibrance)))))
	}
	if active(Vignetting, p.Vignetting) {
		out = append(out, vignette(float32(Value(Vignetting, p.Vignetting))))
	}
	return out
}

// pixelFunc maps a straight-alpha colour with channels in [0, 1].
type pixelFunc func(r, g, b float32) (float32, float32, float32)

// perPixel lifts fn to an effect over premultiplied pixels.
func perPixel(fn pixelFunc) picture.Effect {
	return picture.EffectFunc(func(dst *image.RGBA) {
		for y := dst.Rect.Min.Y; y < dst.Rect.Max.Y; y++ {
			row := dst.Pix[dst.PixOffset(dst.Rect.Min.X, y):dst.PixOffset(dst.Rect.Max.X, y)]
			for i := 0; i < len(row); i += 4 {
				if row[i+3] == 0 {
					continue
				}
				a := float32(row[i+3]) / 255
				r, g, b := fn(
					float32(row[i])/255/a,
					float32(row[i+1])/255/a,
					float32(row[i+2])/255/a,
				)
				row[i] = toByte(r * a)
				row[i+1] = toByte(g * a)
				row[i+2] = toByte(b * a)
			}
		}
	})
}

// Luminance curve constants shared by highlights and shadow.
const (
	curveA = 1.357697966704323e-01
	curveB = 1.006045552016985e+00
	curveC = 4.674339906510876e-01
	curveD = 8.029414702292208e-01
	curveE = 1.127806558508491e-01
)

func lumCurve(amount, x float32) float32 {
	x1 := float64(abs32(amount))
	x2 := float64(x)
	g := math.Exp(-0.5 * (sq((x1-curveB)/curveC) + sq((x2-curveD)/curveE)))
	return float32(curveA * float64(sign32(amount)) * g)
}

func highlights(h float32) pixelFunc {
	return func(r, g, b float32) (float32, float32, float32) {
		lum := 0.5 * (max(r, g, b) + min(r, g, b))
		if lum < 0.5 {
			return r, g, b
		}
		k := (lum + lumCurve(h, lum)) / lum
		return r * k, g * k, b * k
	}
}

func shadow(s float32) pixelFunc {
	return func(r, g, b float32) (float32, float32, float32) {
		lum := 0.5 * (max(r, g, b) + min(r, g, b))
		if lum > 0.5 || lum == 0 {
			return r, g, b
		}
		k := (lum + lumCurve(s, 1-lum)) / lum
		return r * k, g * k, b * k
	}
}

// temperature divides by the black-body colour of kelvin k.
func temperature(k float64) pixelFunc {
	wr, wg, wb := kelvinToRGB(k)
	return func(r, g, b float32) (float32, float32, float32) {
		return r / wr, g / wg, b / wb
	}
}

// kelvinToRGB approximates the colour of a black body at k kelvin,
// valid from 1000 K to 40000 K.
func kelvinToRGB(k float64) (float32, float32, float32) {
	var m0, m1, m2 [3]float64
	if k <= 6500 {
		m0 = [3]float64{0, -2902.1955373783176, -8257.7997278925690}
		m1 = [3]float64{0, 1669.5803561666639, 2575.2827530017594}
		m2 = [3]float64{1, 1.3302673723350029, 1.8993753891711275}
	} else {
		m0 = [3]float64{1745.0425298314172, 1216.6168361476490, -8257.7997278925690}
		m1 = [3]float64{-2666.3474220535695, -2173.1012343082230, 2575.2827530017594}
		m2 = [3]float64{0.55995389139931482, 0.70381203140554553, 1.8993753891711275}
	}
	t := math.Max(1000, math.Min(40000, k))
	var out [3]float32
	for i := range out {
		v := math.Max(0, math.Min(1, m0[i]/(t+m1[i])+m2[i]))
		// Avoid dividing by zero for very warm temperatures.
		out[i] = float32(math.Max(v, 1.0/255))
	}
	return out[0], out[1], out[2]
}

func vibrance(v float32) pixelFunc {
	return func(r, g, b float32) (float32, float32, float32) {
		lum := r*lumR + g*lumG + b*lumB
		mn, mx := min(r, g, b), max(r, g, b)
		sat := (1 - (mx - mn)) * (1 - mx) * lum * 5
		l := (mn + mx) / 2

		vib := func(c float32) float32 {
			c = mix(c, mix(c, l, -v*2), sat)
			return mix(c, l, (1-l)*(1-v)/2*abs32(v))
		}
		return vib(r), vib(g), vib(b)
	}
}

// sharpen is an unsharp mask against the mean of the four diagonal
// neighbours, clamped at the edges.
func sharpen(amount float32) picture.Effect {
	return picture.EffectFunc(func(dst *image.RGBA) {
		b := dst.Rect
		src := image.NewRGBA(b)
		copy(src.Pix, dst.Pix)

		at := func(x, y int) (float32, float32, float32) {
			x = min(max(x, b.Min.X), b.Max.X-1)
			y = min(max(y, b.Min.Y), b.Max.Y-1)
			i := src.PixOffset(x, y)
			a := float32(src.Pix[i+3]) / 255
			if a == 0 {
				return 0, 0, 0
			}
			return float32(src.Pix[i]) / 255 / a, float32(src.Pix[i+1]) / 255 / a, float32(src.Pix[i+2]) / 255 / a
		}

		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				i := dst.PixOffset(x, y)
				if dst.Pix[i+3] == 0 {
					continue
				}
				a := float32(dst.Pix[i+3]) / 255
				cr, cg, cb := at(x, y)
				ar, ag, ab := at(x-1, y-1)
				br, bg, bb := at(x+1, y-1)
				lr, lg, lb := at(x-1, y+1)
				rr, rg, rb := at(x+1, y+1)
				mr := (ar + br + lr + rr) / 4
				mg := (ag + bg + lg + rg) / 4
				mb := (ab + bb + lb + rb) / 4
				dst.Pix[i] = toByte((cr + (cr-mr)*amount) * a)
				dst.Pix[i+1] = toByte((cg + (cg-mg)*amount) * a)
				dst.Pix[i+2] = toByte((cb + (cb-mb)*amount) * a)
			}
		}
	})
}

// vignette darkens towards the corners of the layer.
func vignette(v float32) picture.Effect {
	darkness := v / 2
	offset := v / 2
	return picture.EffectFunc(func(dst *image.RGBA) {
		b := dst.Rect
		w, h := float32(b.Dx()), float32(b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				i := dst.PixOffset(x, y)
				if dst.Pix[i+3] == 0 {
					continue
				}
				u := (float32(x-b.Min.X)+0.5)/w - 0.5
				t := (float32(y-b.Min.Y)+0.5)/h - 0.5
				d := float32(math.Sqrt(float64(u*u + t*t)))
				k := smoothstep(0.8, offset*0.799, d*(darkness+offset))
				// Premultiplied channels scale linearly.
				dst.Pix[i] = toByte(float32(dst.Pix[i]) / 255 * k)
				dst.Pix[i+1] = toByte(float32(dst.Pix[i+1]) / 255 * k)
				dst.Pix[i+2] = toByte(float32(dst.Pix[i+2]) / 255 * k)
			}
		}
	})
}

func smoothstep(e0, e1, x float32) float32 {
	if e0 == e1 {
		if x < e0 {
			return 0
		}
		return 1
	}
	t := (x - e0) / (e1 - e0)
	t = min(max(t, 0), 1)
	return t * t * (3 - 2*t)
}

func mix(a, b, t float32) float32 { return a + (b-a)*t }

func sq(v float64) float64 { return v * v }

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func sign32(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
