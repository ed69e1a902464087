// Package gpuplan provides a backend that plans the GPU passes of a
// picture while rasterizing it on the CPU.
//
// Every DrawImage graded by a lut.Shader with a compiled program becomes
// a Pass: the texture uploads and bind group entries the LUT program
// needs to grade that layer on the GPU. The rendered image is identical
// to the raster backend's, so the plan can be checked against real
// output.
//
//	backend, _ := picture.NewBackend(gpuplan.Name)
//	_ = pic.Playback(backend)
//	plan := backend.(*gpuplan.Backend).Plan()
package gpuplan

import (
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/ggmedia/lut"
	"github.com/gogpu/ggmedia/picture"
	"github.com/gogpu/ggmedia/picture/raster"
)

// Name is the registry name of the backend.
const Name = "gpuplan"

func init() {
	picture.Register(Name, func() picture.Backend {
		return NewBackend()
	})
}

// Upload is one texture written before a pass runs.
type Upload struct {
	Binding    uint32
	Descriptor lut.TextureDescriptor
}

// Pass grades one layer with a LUT program.
type Pass struct {
	Filter   lut.Filter
	Blend    picture.BlendMode
	Program  *lut.Program
	Uploads  []Upload
	Bindings []gputypes.BindGroupLayoutEntry
}

// UploadBytes returns the RGBA8 bytes the pass uploads.
func (p Pass) UploadBytes() uint64 {
	var n uint64
	for _, u := range p.Uploads {
		n += uint64(u.Descriptor.Width) * uint64(u.Descriptor.Height) * 4
	}
	return n
}

// Plan is the GPU work for one frame.
type Plan struct {
	Width  int
	Height int
	Passes []Pass

	// Fills counts DrawPaint calls, which need no program.
	Fills int

	// CPUDraws counts image draws with no GPU-graded effect.
	CPUDraws int
}

// Words returns the SPIR-V size of the distinct programs in the plan.
func (p Plan) Words() int {
	seen := make(map[*lut.Program]bool)
	n := 0
	for _, pass := range p.Passes {
		if !seen[pass.Program] {
			seen[pass.Program] = true
			n += len(pass.Program.SPIRV)
		}
	}
	return n
}

// UploadBytes returns the bytes uploaded across every pass.
func (p Plan) UploadBytes() uint64 {
	var n uint64
	for _, pass := range p.Passes {
		n += pass.UploadBytes()
	}
	return n
}

// Backend rasterizes with the CPU backend and records a Plan.
type Backend struct {
	raster *raster.Backend
	plan   Plan
}

var _ picture.ImageBackend = (*Backend)(nil)

// NewBackend creates a plan backend. Call Begin before drawing.
func NewBackend() *Backend {
	return &Backend{raster: raster.NewBackend()}
}

// Begin starts a new plan for a surface of the given size.
func (b *Backend) Begin(width, height int) error {
	if err := b.raster.Begin(width, height); err != nil {
		return err
	}
	b.plan = Plan{Width: width, Height: height}
	return nil
}

// End finalizes the frame.
func (b *Backend) End() error {
	return b.raster.End()
}

// DrawPaint fills the surface with p.Color.
func (b *Backend) DrawPaint(p picture.Paint) {
	b.plan.Fills++
	b.raster.DrawPaint(p)
}

// DrawImage records a pass per compiled LUT effect and draws the layer.
func (b *Backend) DrawImage(img image.Image, g picture.Geometry, p picture.Paint) {
	graded := false
	for _, e := range p.Effects {
		s, ok := e.(*lut.Shader)
		if !ok || s.Program() == nil {
			continue
		}
		b.plan.Passes = append(b.plan.Passes, b.pass(s, p.Blend))
		graded = true
	}
	if !graded {
		b.plan.CPUDraws++
	}
	b.raster.DrawImage(img, g, p)
}

// pass binds the layer at surface size to binding 0 and the lookup
// table to binding 1, matching the program layout.
func (b *Backend) pass(s *lut.Shader, blend picture.BlendMode) Pass {
	prog := s.Program()
	frame := lut.TextureDescriptor{
		Width:     uint32(b.plan.Width),
		Height:    uint32(b.plan.Height),
		Format:    gputypes.TextureFormatRGBA8Unorm,
		Dimension: gputypes.TextureDimension2D,
		Usage:     gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	}
	uploads := make([]Upload, 0, len(prog.Layout))
	for _, entry := range prog.Layout {
		switch entry.Binding {
		case 0:
			uploads = append(uploads, Upload{Binding: 0, Descriptor: frame})
		case 1:
			uploads = append(uploads, Upload{Binding: 1, Descriptor: prog.Texture})
		}
	}
	return Pass{
		Filter:   s.Filter(),
		Blend:    blend,
		Program:  prog,
		Uploads:  uploads,
		Bindings: append([]gputypes.BindGroupLayoutEntry(nil), prog.Layout...),
	}
}

// Plan returns the plan recorded since the last Begin.
func (b *Backend) Plan() Plan {
	p := b.plan
	p.Passes = append([]Pass(nil), p.Passes...)
	return p
}

// Image returns the rendered surface. Valid after End.
func (b *Backend) Image() *image.RGBA {
	return b.raster.Image()
}
