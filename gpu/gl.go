// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpu manages the OpenGL objects of a simple renderer:
// shader programs compiled and linked from GLSL source, interleaved
// vertex geometry, and textures bound to texture units. All GL calls
// go through the [GL] interface of a [Context], which also tracks
// the bound state so that it can be inspected without a driver.
package gpu

// GL is the set of OpenGL 3.3 core entry points used by the
// Program, Geometry and Texture types. It is implemented by
// [cogentcore.org/glsandbox/gpu/glgpu.GL] on a real context and by
// [cogentcore.org/glsandbox/gpu/softgpu.GL] in memory.
// All methods must be called on the thread that owns the context.
// Handles are zero when invalid.
type GL interface {
	// CreateShader returns a new shader object of given type.
	CreateShader(typ ShaderTypes) uint32

	// ShaderSource replaces the source code of a shader object.
	ShaderSource(shader uint32, src string)

	// CompileShader compiles the current source of the shader.
	CompileShader(shader uint32)

	// ShaderCompiled returns the compile status of the shader.
	ShaderCompiled(shader uint32) bool

	// ShaderInfoLog returns up to max bytes of the shader info log.
	ShaderInfoLog(shader uint32, max int) string

	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	DetachShader(program, shader uint32)
	LinkProgram(program uint32)

	// ProgramLinked returns the link status of the program.
	ProgramLinked(program uint32) bool

	// ProgramInfoLog returns up to max bytes of the program info log.
	ProgramInfoLog(program uint32, max int) string

	DeleteProgram(program uint32)
	UseProgram(program uint32)

	// GetUniformLocation returns the location of the named uniform
	// in the program, or -1 if the program has no such active uniform.
	GetUniformLocation(program uint32, name string) int32

	// Uniform setters operate on the current program.
	// A location of -1 is silently ignored.
	Uniform1i(loc int32, v int32)
	Uniform1f(loc int32, v float32)
	Uniform2f(loc int32, x, y float32)
	Uniform3f(loc int32, x, y, z float32)
	Uniform4f(loc int32, x, y, z, w float32)
	UniformMatrix4fv(loc int32, m *[16]float32)

	GenVertexArray() uint32
	BindVertexArray(vao uint32)
	DeleteVertexArray(vao uint32)

	GenBuffer() uint32
	BindBuffer(target BufferTargets, buffer uint32)

	// BufferFloats copies vertex data into the buffer bound to target
	// with static draw usage.
	BufferFloats(target BufferTargets, data []float32)

	// BufferIndexes copies index data into the buffer bound to target
	// with static draw usage.
	BufferIndexes(target BufferTargets, data []uint32)
	DeleteBuffer(buffer uint32)

	// VertexAttribPointer describes attribute index within the
	// currently bound array buffer; stride and offset are in bytes.
	VertexAttribPointer(index uint32, size, stride, offset int)
	EnableVertexAttribArray(index uint32)

	GenTexture() uint32

	// ActiveTexture selects the texture unit (0-based) that
	// BindTexture affects.
	ActiveTexture(unit int)
	BindTexture(texture uint32)
	TexWrap(s, t WrapModes)
	TexFilter(min, mag FilterModes)

	// TexImage2D uploads level 0 of the bound texture. Rows are
	// tightly packed with no alignment padding.
	TexImage2D(width, height int, format TextureFormats, pixels []byte)

	// GenerateMipmap generates the mip chain of the bound texture
	// and returns the number of levels.
	GenerateMipmap() int

	// GetTexImage reads back level 0 of the bound texture in given format.
	GetTexImage(format TextureFormats) []byte
	DeleteTexture(texture uint32)

	// MaxTextureUnits returns the number of combined texture image units.
	MaxTextureUnits() int

	ClearColor(r, g, b, a float32)
	Clear(color, depth bool)
	Viewport(x, y, width, height int)

	// PolygonMode turns wireframe rendering on or off.
	PolygonMode(wireframe bool)

	DrawArrays(mode Topologies, first, count int)

	// DrawElements draws count indexes from the element buffer
	// bound to the current vertex array, starting at offset 0.
	DrawElements(mode Topologies, count int)

	// ReadPixels returns RGBA pixels of the default framebuffer,
	// bottom row first.
	ReadPixels(x, y, width, height int) []byte

	// Error returns any pending error, clearing it.
	Error() error
}
