package edition

import "image"

// ColorMatrix is a 4x5 colour transformation applied to straight-alpha
// channels in the 0-255 range:
//
//	[R']   [a00 a01 a02 a03 a04]   [R]
//	[G'] = [a10 a11 a12 a13 a14] * [G]
//	[B']   [a20 a21 a22 a23 a24]   [B]
//	[A']   [a30 a31 a32 a33 a34]   [A]
//	                               [1]
//
// The fifth column is an offset in 0-255 units.
type ColorMatrix [20]float32

// IdentityMatrix passes colours through unchanged.
func IdentityMatrix() ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// BrightnessMatrix adds b (in [0, 1] units) to every colour channel.
func BrightnessMatrix(b float32) ColorMatrix {
	o := b * 255
	return ColorMatrix{
		1, 0, 0, 0, o,
		0, 1, 0, 0, o,
		0, 0, 1, 0, o,
		0, 0, 0, 1, 0,
	}
}

// ContrastMatrix scales colours away from mid grey: (c - 0.5) * k + 0.5.
func ContrastMatrix(k float32) ColorMatrix {
	o := 127.5 * (1 - k)
	return ColorMatrix{
		k, 0, 0, 0, o,
		0, k, 0, 0, o,
		0, 0, k, 0, o,
		0, 0, 0, 1, 0,
	}
}

// Luminance weights used by saturation and vibrance.
const (
	lumR = 0.2125
	lumG = 0.7154
	lumB = 0.0721
)

// SaturationMatrix mixes each colour with its luminance:
// s = 0 is greyscale, 1 unchanged, 2 doubly saturated.
func SaturationMatrix(s float32) ColorMatrix {
	if s < 0 {
		s = 0
	}
	inv := 1 - s
	r, g, b := lumR*inv, lumG*inv, lumB*inv
	return ColorMatrix{
		r + s, g, b, 0, 0,
		r, g + s, b, 0, 0,
		r, g, b + s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// Then returns the matrix applying m first, then next.
func (m ColorMatrix) Then(next ColorMatrix) ColorMatrix {
	var r ColorMatrix
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += next[row*5+k] * m[k*5+col]
			}
			r[row*5+col] = sum
		}
		r[row*5+4] = next[row*5+0]*m[4] + next[row*5+1]*m[9] +
			next[row*5+2]*m[14] + next[row*5+3]*m[19] + next[row*5+4]
	}
	return r
}

// Apply implements picture.Effect on a premultiplied RGBA image.
func (m ColorMatrix) Apply(dst *image.RGBA) {
	for y := dst.Rect.Min.Y; y < dst.Rect.Max.Y; y++ {
		row := dst.Pix[dst.PixOffset(dst.Rect.Min.X, y):dst.PixOffset(dst.Rect.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			a := float32(row[i+3])
			if a == 0 {
				continue
			}
			// Un-premultiply to straight alpha for the transform.
			r := float32(row[i]) * 255 / a
			g := float32(row[i+1]) * 255 / a
			b := float32(row[i+2]) * 255 / a

			nr := m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4]
			ng := m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9]
			nb := m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14]
			na := clampByte(m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19])

			f := na / 255
			row[i] = uint8(clampByte(nr)*f + 0.5)
			row[i+1] = uint8(clampByte(ng)*f + 0.5)
			row[i+2] = uint8(clampByte(nb)*f + 0.5)
			row[i+3] = uint8(na + 0.5)
		}
	}
}

func clampByte(v float32) float32 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 255:
		return 255
	}
	return v
}
