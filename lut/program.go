package lut

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"

	"github.com/gogpu/ggmedia/internal/logging"
)

//go:embed shaders/lut.wgsl
var lutShaderWGSL string

// Entry points of the LUT shader module.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// TextureDescriptor describes the GPU texture a lookup table is uploaded to.
type TextureDescriptor struct {
	Width     uint32
	Height    uint32
	Format    gputypes.TextureFormat
	Dimension gputypes.TextureDimension
	Usage     gputypes.TextureUsage
}

// Program is the compiled GPU form of the LUT shader. It is shared by
// every Shader in the process.
type Program struct {
	// SPIRV is the compiled shader module, little-endian 32-bit words.
	SPIRV []uint32

	// Layout matches the @group(0) bindings in the WGSL source exactly:
	// binding 0 is the frame, binding 1 the lookup table.
	Layout []gputypes.BindGroupLayoutEntry

	// Texture describes the lookup table texture.
	Texture TextureDescriptor
}

// compileOnce compiles the program the first time it is needed.
var compileOnce = sync.OnceValues(func() (*Program, error) {
	p, err := CompileProgram()
	if err != nil {
		logging.Logger().Warn("lut: GPU program unavailable, grading on CPU only", "err", err)
		return nil, err
	}
	logging.Logger().Info("lut: GPU program compiled", "words", len(p.SPIRV))
	return p, nil
})

// SharedProgram returns the process-wide program, or nil if the shader
// failed to compile.
func SharedProgram() *Program {
	p, _ := compileOnce()
	return p
}

// CompileProgram compiles the WGSL source to SPIR-V and builds the
// binding layout.
func CompileProgram() (*Program, error) {
	spirvBytes, err := naga.Compile(lutShaderWGSL)
	if err != nil {
		return nil, fmt.Errorf("lut: compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("lut: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	return &Program{
		SPIRV:  words,
		Layout: bindGroupLayoutEntries(),
		Texture: TextureDescriptor{
			Width:     TextureSize,
			Height:    TextureSize,
			Format:    gputypes.TextureFormatRGBA8Unorm,
			Dimension: gputypes.TextureDimension2D,
			Usage:     gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		},
	}, nil
}

func bindGroupLayoutEntries() []gputypes.BindGroupLayoutEntry {
	texture := func(binding uint32) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		}
	}
	return []gputypes.BindGroupLayoutEntry{
		texture(0), // source frame
		texture(1), // lookup table
	}
}
