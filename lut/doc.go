// Package lut builds colour-grading shaders from 3D lookup tables.
//
// Each Filter names a 512x512 PNG holding a 64x64x64 colour cube laid out
// as an 8x8 grid of 64x64 tiles. The texel at (x, y) stores the output
// colour for input
//
//	red   = x % 64
//	green = (y % 8) * 8 + x / 64
//	blue  = y / 8
//
// A Cache turns filters into Shaders. Shaders are built at most once per
// distinct filter and shared by every caller; concurrent first requests
// for the same filter share one load.
//
// A Shader grades pixels on the CPU (it implements picture.Effect) and
// carries the GPU Program, a WGSL fragment shader compiled to SPIR-V with
// naga, for surfaces that upload the table as a texture.
package lut
