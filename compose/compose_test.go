package compose

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/ggmedia/edition"
	"github.com/gogpu/ggmedia/lut"
	"github.com/gogpu/ggmedia/picture"
	"github.com/gogpu/ggmedia/picture/raster"
)

func uniform(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func render(t *testing.T, layers Layers, params *edition.Parameters, shader *lut.Shader) *image.RGBA {
	t.Helper()
	rec := picture.NewRecorder(4, 4)
	ComposeFrame(rec, 4, 4, layers, params, shader)
	img, err := raster.Render(rec.FinishRecording())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return img
}

func pixel(img *image.RGBA, x, y int) [4]uint8 {
	i := img.PixOffset(x, y)
	return [4]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
}

var (
	red   = uniform(color.NRGBA{255, 0, 0, 255})
	gray  = uniform(color.NRGBA{128, 128, 128, 255})
	white = uniform(color.NRGBA{255, 255, 255, 255})
)

func TestComposeWithoutPrimaryDrawsNothing(t *testing.T) {
	rec := picture.NewRecorder(4, 4)
	ComposeFrame(rec, 4, 4, Layers{
		BackgroundColor: color.White,
		Background:      &ImageLayer{Image: red},
		Foreground:      &ImageLayer{Image: red},
	}, nil, nil)
	if rec.Len() != 0 {
		t.Errorf("recorded %d commands without a primary, want 0", rec.Len())
	}
}

func TestComposeLayerOrder(t *testing.T) {
	rec := picture.NewRecorder(4, 4)
	ComposeFrame(rec, 4, 4, Layers{
		BackgroundColor: color.White,
		Background:      &ImageLayer{Image: red, Tint: color.Black},
		Primary:         gray,
		Mask:            white,
		Foreground:      &ImageLayer{Image: red},
		Multiply:        true,
	}, &edition.Parameters{Saturation: edition.Float(0)}, nil)

	cmds := rec.FinishRecording().Commands()
	want := []struct {
		typ   picture.CommandType
		blend picture.BlendMode
		img   image.Image
	}{
		{picture.CmdDrawPaint, picture.BlendSourceOver, nil},
		{picture.CmdDrawImage, picture.BlendSourceOver, red},
		{picture.CmdDrawImage, picture.BlendMultiply, gray},
		{picture.CmdDrawImage, picture.BlendDestinationIn, white},
		{picture.CmdDrawImage, picture.BlendSourceOver, red},
	}
	if len(cmds) != len(want) {
		t.Fatalf("recorded %d commands, want %d", len(cmds), len(want))
	}
	for i, w := range want {
		if cmds[i].Type() != w.typ {
			t.Errorf("command %d type = %v, want %v", i, cmds[i].Type(), w.typ)
			continue
		}
		switch c := cmds[i].(type) {
		case picture.DrawPaintCommand:
			if c.Paint.Blend != w.blend {
				t.Errorf("command %d blend = %v, want %v", i, c.Paint.Blend, w.blend)
			}
		case picture.DrawImageCommand:
			if c.Paint.Blend != w.blend {
				t.Errorf("command %d blend = %v, want %v", i, c.Paint.Blend, w.blend)
			}
			if c.Image != w.img {
				t.Errorf("command %d drew the wrong image", i)
			}
		}
	}
	if c := cmds[1].(picture.DrawImageCommand); len(c.Paint.Effects) != 1 {
		t.Errorf("tinted background has %d effects, want 1", len(c.Paint.Effects))
	}
	if c := cmds[2].(picture.DrawImageCommand); len(c.Paint.Effects) != 1 {
		t.Errorf("primary has %d effects, want 1 (saturation)", len(c.Paint.Effects))
	}
	if c := cmds[4].(picture.DrawImageCommand); len(c.Paint.Effects) != 0 {
		t.Errorf("untinted foreground has %d effects, want 0", len(c.Paint.Effects))
	}
}

func TestComposeBlend(t *testing.T) {
	tests := []struct {
		name     string
		multiply bool
		want     [4]uint8
	}{
		{"multiply", true, [4]uint8{128, 0, 0, 255}},
		{"source over", false, [4]uint8{128, 128, 128, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := render(t, Layers{
				Background: &ImageLayer{Image: red},
				Primary:    gray,
				Multiply:   tt.multiply,
			}, nil, nil)
			if got := pixel(img, 1, 1); got != tt.want {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComposeMaskSparesForeground(t *testing.T) {
	mask := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			mask.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	fg := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	fg.SetNRGBA(3, 3, color.NRGBA{0, 255, 0, 255})

	img := render(t, Layers{
		BackgroundColor: color.White,
		Primary:         red,
		Mask:            mask,
		Foreground:      &ImageLayer{Image: fg, Tint: color.NRGBA{0, 0, 255, 255}},
	}, nil, nil)

	tests := []struct {
		at   image.Point
		want [4]uint8
	}{
		{image.Pt(0, 0), [4]uint8{255, 0, 0, 255}},
		{image.Pt(3, 0), [4]uint8{0, 0, 0, 0}},
		{image.Pt(3, 3), [4]uint8{0, 0, 255, 255}},
	}
	for _, tt := range tests {
		if got := pixel(img, tt.at.X, tt.at.Y); got != tt.want {
			t.Errorf("pixel %v = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestComposeTintedBackground(t *testing.T) {
	img := render(t, Layers{
		Background: &ImageLayer{Image: white, Tint: color.NRGBA{0, 0, 255, 255}},
		Primary:    gray,
		Multiply:   true,
	}, nil, nil)
	if got := pixel(img, 2, 2); got != [4]uint8{0, 0, 128, 255} {
		t.Errorf("pixel = %v, want multiply of gray over blue", got)
	}
}

func TestComposeWithoutFilterIsUnfiltered(t *testing.T) {
	src := uniform(color.NRGBA{10, 200, 90, 255})
	img := render(t, Layers{BackgroundColor: color.White, Primary: src}, nil, nil)
	if got := pixel(img, 0, 3); got != [4]uint8{10, 200, 90, 255} {
		t.Errorf("pixel = %v, want the primary unchanged", got)
	}
}

func TestComposeAppliesShaderLast(t *testing.T) {
	table := image.NewNRGBA(image.Rect(0, 0, lut.TextureSize, lut.TextureSize))
	for i := 0; i < len(table.Pix); i += 4 {
		table.Pix[i], table.Pix[i+1], table.Pix[i+2], table.Pix[i+3] = 0, 0, 255, 255
	}
	tex, err := lut.NewTexture(table)
	if err != nil {
		t.Fatalf("NewTexture() error = %v", err)
	}
	shader := lut.NewShader(lut.Filter("blue"), tex)

	rec := picture.NewRecorder(4, 4)
	ComposeFrame(rec, 4, 4, Layers{Primary: gray}, &edition.Parameters{Brightness: edition.Float(0.2)}, shader)
	cmd := rec.FinishRecording().Commands()[0].(picture.DrawImageCommand)
	if n := len(cmd.Paint.Effects); n != 2 {
		t.Fatalf("primary has %d effects, want 2", n)
	}
	if cmd.Paint.Effects[1] != picture.Effect(shader) {
		t.Error("shader is not the last primary effect")
	}
}
