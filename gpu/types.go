// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import "fmt"

// ShaderTypes are the types of shader stages that are linked into a Program.
type ShaderTypes int32

const (
	VertexShader ShaderTypes = iota
	FragmentShader
)

func (st ShaderTypes) String() string {
	switch st {
	case VertexShader:
		return "Vertex"
	case FragmentShader:
		return "Fragment"
	}
	return fmt.Sprintf("ShaderTypes(%d)", int32(st))
}

// Topologies are the primitive types used for drawing vertices.
type Topologies int32

const (
	Triangles Topologies = iota
	TriangleStrip
	Lines
)

func (tp Topologies) String() string {
	switch tp {
	case Triangles:
		return "Triangles"
	case TriangleStrip:
		return "TriangleStrip"
	case Lines:
		return "Lines"
	}
	return fmt.Sprintf("Topologies(%d)", int32(tp))
}

// BufferTargets are the binding points for buffer objects.
type BufferTargets int32

const (
	// ArrayBuffer holds vertex data (GL_ARRAY_BUFFER).
	ArrayBuffer BufferTargets = iota

	// ElementBuffer holds index data (GL_ELEMENT_ARRAY_BUFFER).
	ElementBuffer
)

// TextureFormats are the pixel formats of texture data.
type TextureFormats int32

const (
	UndefinedFormat TextureFormats = iota
	RGB
	RGBA
)

func (tf TextureFormats) String() string {
	switch tf {
	case RGB:
		return "RGB"
	case RGBA:
		return "RGBA"
	}
	return "Undefined"
}

// Channels returns the number of bytes per pixel for the format.
func (tf TextureFormats) Channels() int {
	switch tf {
	case RGB:
		return 3
	case RGBA:
		return 4
	}
	return 0
}

// WrapModes determine how texture coordinates outside of [0,1] are sampled.
type WrapModes int32

const (
	Repeat WrapModes = iota
	MirroredRepeat
	ClampToEdge
)

// FilterModes determine how textures are sampled when
// minified or magnified.
type FilterModes int32

const (
	Linear FilterModes = iota
	Nearest

	// LinearMipmapLinear is only valid as a minification filter.
	LinearMipmapLinear
)

// Attrib describes one vertex attribute within an interleaved
// float vertex array. Size and Offset are in float units.
type Attrib struct {
	// Index is the attribute location in the vertex shader.
	Index uint32

	// Size is the number of float components (1..4).
	Size int

	// Offset is the number of floats from the start of each vertex.
	Offset int
}

// FloatBytes is the size of a float32 in bytes.
const FloatBytes = 4
