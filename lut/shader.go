package lut

import "image"

// Shader grades frames with one filter's lookup table.
// A Shader is immutable and safe for concurrent use.
type Shader struct {
	filter  Filter
	texture *Texture
	program *Program
}

// NewShader binds a texture to the shared GPU program.
func NewShader(f Filter, tex *Texture) *Shader {
	return &Shader{filter: f, texture: tex, program: SharedProgram()}
}

// Filter returns the filter the shader was built for.
func (s *Shader) Filter() Filter { return s.filter }

// Texture returns the lookup table.
func (s *Shader) Texture() *Texture { return s.texture }

// Program returns the GPU program, or nil when it is unavailable.
func (s *Shader) Program() *Program { return s.program }

// Apply implements picture.Effect by grading dst on the CPU.
func (s *Shader) Apply(dst *image.RGBA) {
	s.texture.Apply(dst)
}
