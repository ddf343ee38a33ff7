// Copyright (c) 2019, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package glgpu implements [gpu.GL] on a hardware OpenGL 3.3 core
// context, via go-gl. The context must be current on the calling
// thread, which must be locked to its OS thread.
package glgpu

import (
	"fmt"
	"log/slog"
	"strings"

	"cogentcore.org/glsandbox/gpu"
	"github.com/go-gl/gl/v3.3-core/gl"
)

// GL is the hardware OpenGL driver.
type GL struct {
	units int
}

var _ gpu.GL = (*GL)(nil)

// Init loads the OpenGL function pointers for the current context
// and returns a new driver for it.
func Init() (*GL, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("glgpu: could not initialize OpenGL: %w", err)
	}
	version := gl.GoStr(gl.GetString(gl.VERSION))
	if err := gpu.CheckVersion(version); err != nil {
		return nil, err
	}
	slog.Info("glgpu: OpenGL initialized", "version", version, "renderer", gl.GoStr(gl.GetString(gl.RENDERER)))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	return &GL{}, nil
}

var glShaders = map[gpu.ShaderTypes]uint32{
	gpu.VertexShader:   gl.VERTEX_SHADER,
	gpu.FragmentShader: gl.FRAGMENT_SHADER,
}

var glTargets = map[gpu.BufferTargets]uint32{
	gpu.ArrayBuffer:   gl.ARRAY_BUFFER,
	gpu.ElementBuffer: gl.ELEMENT_ARRAY_BUFFER,
}

var glModes = map[gpu.Topologies]uint32{
	gpu.Triangles:     gl.TRIANGLES,
	gpu.TriangleStrip: gl.TRIANGLE_STRIP,
	gpu.Lines:         gl.LINES,
}

var glWraps = map[gpu.WrapModes]int32{
	gpu.Repeat:         gl.REPEAT,
	gpu.MirroredRepeat: gl.MIRRORED_REPEAT,
	gpu.ClampToEdge:    gl.CLAMP_TO_EDGE,
}

var glFilters = map[gpu.FilterModes]int32{
	gpu.Linear:             gl.LINEAR,
	gpu.Nearest:            gl.NEAREST,
	gpu.LinearMipmapLinear: gl.LINEAR_MIPMAP_LINEAR,
}

var glFormats = map[gpu.TextureFormats]uint32{
	gpu.RGB:  gl.RGB,
	gpu.RGBA: gl.RGBA,
}

// infoLog reads a bounded info log using given getter.
func infoLog(max int, get func(size int32, buf *uint8)) string {
	if max <= 0 {
		return ""
	}
	buf := make([]byte, max)
	get(int32(max), &buf[0])
	return strings.TrimRight(string(buf), "\x00")
}

func (g *GL) CreateShader(typ gpu.ShaderTypes) uint32 {
	return gl.CreateShader(glShaders[typ])
}

func (g *GL) ShaderSource(shader uint32, src string) {
	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
}

func (g *GL) CompileShader(shader uint32) {
	gl.CompileShader(shader)
}

func (g *GL) ShaderCompiled(shader uint32) bool {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	return status == gl.TRUE
}

func (g *GL) ShaderInfoLog(shader uint32, max int) string {
	return infoLog(max, func(size int32, buf *uint8) {
		gl.GetShaderInfoLog(shader, size, nil, buf)
	})
}

func (g *GL) DeleteShader(shader uint32) {
	gl.DeleteShader(shader)
}

func (g *GL) CreateProgram() uint32 {
	return gl.CreateProgram()
}

func (g *GL) AttachShader(program, shader uint32) {
	gl.AttachShader(program, shader)
}

func (g *GL) DetachShader(program, shader uint32) {
	gl.DetachShader(program, shader)
}

func (g *GL) LinkProgram(program uint32) {
	gl.LinkProgram(program)
}

func (g *GL) ProgramLinked(program uint32) bool {
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	return status == gl.TRUE
}

func (g *GL) ProgramInfoLog(program uint32, max int) string {
	return infoLog(max, func(size int32, buf *uint8) {
		gl.GetProgramInfoLog(program, size, nil, buf)
	})
}

func (g *GL) DeleteProgram(program uint32) {
	gl.DeleteProgram(program)
}

func (g *GL) UseProgram(program uint32) {
	gl.UseProgram(program)
}

func (g *GL) GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (g *GL) Uniform1i(loc int32, v int32) {
	gl.Uniform1i(loc, v)
}

func (g *GL) Uniform1f(loc int32, v float32) {
	gl.Uniform1f(loc, v)
}

func (g *GL) Uniform2f(loc int32, x, y float32) {
	gl.Uniform2f(loc, x, y)
}

func (g *GL) Uniform3f(loc int32, x, y, z float32) {
	gl.Uniform3f(loc, x, y, z)
}

func (g *GL) Uniform4f(loc int32, x, y, z, w float32) {
	gl.Uniform4f(loc, x, y, z, w)
}

func (g *GL) UniformMatrix4fv(loc int32, m *[16]float32) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func (g *GL) GenVertexArray() uint32 {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	return vao
}

func (g *GL) BindVertexArray(vao uint32) {
	gl.BindVertexArray(vao)
}

func (g *GL) DeleteVertexArray(vao uint32) {
	gl.DeleteVertexArrays(1, &vao)
}

func (g *GL) GenBuffer() uint32 {
	var buf uint32
	gl.GenBuffers(1, &buf)
	return buf
}

func (g *GL) BindBuffer(target gpu.BufferTargets, buffer uint32) {
	gl.BindBuffer(glTargets[target], buffer)
}

func (g *GL) BufferFloats(target gpu.BufferTargets, data []float32) {
	if len(data) == 0 {
		return
	}
	gl.BufferData(glTargets[target], len(data)*gpu.FloatBytes, gl.Ptr(data), gl.STATIC_DRAW)
}

func (g *GL) BufferIndexes(target gpu.BufferTargets, data []uint32) {
	if len(data) == 0 {
		return
	}
	gl.BufferData(glTargets[target], len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
}

func (g *GL) DeleteBuffer(buffer uint32) {
	gl.DeleteBuffers(1, &buffer)
}

func (g *GL) VertexAttribPointer(index uint32, size, stride, offset int) {
	gl.VertexAttribPointerWithOffset(index, int32(size), gl.FLOAT, false, int32(stride), uintptr(offset))
}

func (g *GL) EnableVertexAttribArray(index uint32) {
	gl.EnableVertexAttribArray(index)
}

func (g *GL) GenTexture() uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	return tex
}

func (g *GL) ActiveTexture(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
}

func (g *GL) BindTexture(texture uint32) {
	gl.BindTexture(gl.TEXTURE_2D, texture)
}

func (g *GL) TexWrap(s, t gpu.WrapModes) {
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glWraps[s])
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glWraps[t])
}

func (g *GL) TexFilter(min, mag gpu.FilterModes) {
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilters[min])
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilters[mag])
}

func (g *GL) TexImage2D(width, height int, format gpu.TextureFormats, pixels []byte) {
	f := glFormats[format]
	gl.TexImage2D(gl.TEXTURE_2D, 0, int32(f), int32(width), int32(height), 0, f, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
}

// levelSize returns the size of level 0 of the bound texture.
func levelSize() (int, int) {
	var w, h int32
	gl.GetTexLevelParameteriv(gl.TEXTURE_2D, 0, gl.TEXTURE_WIDTH, &w)
	gl.GetTexLevelParameteriv(gl.TEXTURE_2D, 0, gl.TEXTURE_HEIGHT, &h)
	return int(w), int(h)
}

func (g *GL) GenerateMipmap() int {
	gl.GenerateMipmap(gl.TEXTURE_2D)
	w, h := levelSize()
	if w == 0 || h == 0 {
		return 0
	}
	n := 1
	for m := max(w, h); m > 1; m /= 2 {
		n++
	}
	return n
}

func (g *GL) GetTexImage(format gpu.TextureFormats) []byte {
	w, h := levelSize()
	if w == 0 || h == 0 {
		return nil
	}
	pix := make([]byte, w*h*format.Channels())
	gl.GetTexImage(gl.TEXTURE_2D, 0, glFormats[format], gl.UNSIGNED_BYTE, gl.Ptr(pix))
	return pix
}

func (g *GL) DeleteTexture(texture uint32) {
	gl.DeleteTextures(1, &texture)
}

func (g *GL) MaxTextureUnits() int {
	if g.units == 0 {
		var n int32
		gl.GetIntegerv(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS, &n)
		g.units = int(n)
	}
	return g.units
}

func (g *GL) ClearColor(r, gr, b, a float32) {
	gl.ClearColor(r, gr, b, a)
}

func (g *GL) Clear(color, depth bool) {
	var bits uint32
	if color {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if depth {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(bits)
}

func (g *GL) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (g *GL) PolygonMode(wireframe bool) {
	if wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
}

func (g *GL) DrawArrays(mode gpu.Topologies, first, count int) {
	gl.DrawArrays(glModes[mode], int32(first), int32(count))
}

func (g *GL) DrawElements(mode gpu.Topologies, count int) {
	gl.DrawElementsWithOffset(glModes[mode], int32(count), gl.UNSIGNED_INT, 0)
}

func (g *GL) ReadPixels(x, y, width, height int) []byte {
	pix := make([]byte, width*height*4)
	if len(pix) == 0 {
		return pix
	}
	gl.ReadPixels(int32(x), int32(y), int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	return pix
}

var glErrors = map[uint32]string{
	gl.INVALID_ENUM:                  "GL_INVALID_ENUM",
	gl.INVALID_VALUE:                 "GL_INVALID_VALUE",
	gl.INVALID_OPERATION:             "GL_INVALID_OPERATION",
	gl.INVALID_FRAMEBUFFER_OPERATION: "GL_INVALID_FRAMEBUFFER_OPERATION",
	gl.OUT_OF_MEMORY:                 "GL_OUT_OF_MEMORY",
}

// Error returns the oldest pending GL error, draining the rest.
func (g *GL) Error() error {
	code := gl.GetError()
	if code == gl.NO_ERROR {
		return nil
	}
	for gl.GetError() != gl.NO_ERROR {
	}
	if nm, ok := glErrors[code]; ok {
		return fmt.Errorf("glgpu: %s", nm)
	}
	return fmt.Errorf("glgpu: GL error 0x%x", code)
}
