// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package softgpu is an in-memory implementation of [gpu.GL].
// It compiles and links a subset of GLSL 330 core, rasterizes
// triangles into an RGBA framebuffer and samples textures, so that
// shader, geometry and texture code can be exercised without a
// display or GPU driver.
//
// Simplifications relative to a hardware driver: primitives are
// not clipped against the near plane, there is no depth test or
// blending, and texture sampling always reads level 0 using the
// magnification filter.
package softgpu

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"cogentcore.org/glsandbox/gpu"
)

// maxAttribs is the number of vertex attribute locations.
const maxAttribs = 16

// Error codes, named after their GL enums.
const (
	InvalidEnum      = "GL_INVALID_ENUM"
	InvalidValue     = "GL_INVALID_VALUE"
	InvalidOperation = "GL_INVALID_OPERATION"
)

// Error is a GL error recorded by the device.
type Error struct {
	Code string
	Func string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s in %s: %s", e.Code, e.Func, e.Msg)
}

type shader struct {
	typ      gpu.ShaderTypes
	src      string
	compiled bool
	log      string
	unit     *unit
	deleted  bool
	attached int
}

type uniformSlot struct {
	name string
	typ  glslType
	val  value
}

type program struct {
	shaders  []uint32
	linked   bool
	log      string
	vert     *unit
	frag     *unit
	fragOut  string
	uniforms []*uniformSlot
	attribs  map[string]int
	deleted  bool
}

func (p *program) uniform(name string) (int, *uniformSlot) {
	for i, u := range p.uniforms {
		if u.name == name {
			return i, u
		}
	}
	return -1, nil
}

type buffer struct {
	floats  []float32
	indexes []uint32
}

type attribPointer struct {
	buffer  uint32
	size    int
	stride  int
	offset  int
	enabled bool
}

type vertexArray struct {
	attribs  map[uint32]*attribPointer
	elements uint32
}

// GL is a software [gpu.GL] rendering into an in-memory framebuffer.
// It is safe for use by one goroutine at a time, like a GL context.
type GL struct {
	// Width and Height of the framebuffer.
	Width, Height int

	// Pixels of the framebuffer, RGBA, bottom row first.
	Pixels []byte

	// Units is the number of texture image units.
	Units int

	// Calls counts calls by GL function name.
	Calls map[string]int

	mu        sync.Mutex
	next      uint32
	shaders   map[uint32]*shader
	programs  map[uint32]*program
	buffers   map[uint32]*buffer
	vaos      map[uint32]*vertexArray
	textures  map[uint32]*texture
	current   uint32
	vao       uint32
	arrayBuf  uint32
	unit      int
	units     map[int]uint32
	clear     [4]float32
	viewport  image.Rectangle
	wireframe bool
	err       *Error
}

// New returns a new software GL with a framebuffer of given size.
// The viewport initially covers the whole framebuffer.
func New(width, height int) *GL {
	return &GL{
		Width:    width,
		Height:   height,
		Pixels:   make([]byte, width*height*4),
		Units:    16,
		Calls:    make(map[string]int),
		shaders:  make(map[uint32]*shader),
		programs: make(map[uint32]*program),
		buffers:  make(map[uint32]*buffer),
		vaos:     make(map[uint32]*vertexArray),
		textures: make(map[uint32]*texture),
		units:    make(map[int]uint32),
		viewport: image.Rect(0, 0, width, height),
	}
}

var _ gpu.GL = (*GL)(nil)

// Resize reallocates the framebuffer, clearing it.
func (g *GL) Resize(width, height int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Width, g.Height = width, height
	g.Pixels = make([]byte, width*height*4)
}

func (g *GL) call(name string) {
	g.Calls[name]++
}

func (g *GL) fail(code, fn, format string, args ...any) {
	if g.err == nil {
		g.err = &Error{Code: code, Func: fn, Msg: fmt.Sprintf(format, args...)}
	}
}

func (g *GL) gen() uint32 {
	g.next++
	return g.next
}

func (g *GL) Error() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err == nil {
		return nil
	}
	err := g.err
	g.err = nil
	return err
}

///////////////////////////////////////////////////////////
// Shaders

func (g *GL) CreateShader(typ gpu.ShaderTypes) uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("CreateShader")
	if typ != gpu.VertexShader && typ != gpu.FragmentShader {
		g.fail(InvalidEnum, "CreateShader", "unsupported shader type %d", typ)
		return 0
	}
	h := g.gen()
	g.shaders[h] = &shader{typ: typ}
	return h
}

func (g *GL) shader(fn string, h uint32) *shader {
	sh, ok := g.shaders[h]
	if !ok {
		g.fail(InvalidValue, fn, "%d is not a shader", h)
		return nil
	}
	return sh
}

func (g *GL) ShaderSource(h uint32, src string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("ShaderSource")
	if sh := g.shader("ShaderSource", h); sh != nil {
		sh.src = src
	}
}

func (g *GL) CompileShader(h uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("CompileShader")
	sh := g.shader("CompileShader", h)
	if sh == nil {
		return
	}
	u, errs := parse(sh.src)
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		sh.compiled, sh.unit = false, nil
		sh.log = strings.Join(msgs, "\n") + "\n"
		return
	}
	if sh.typ == gpu.FragmentShader {
		if len(u.declsOf(out)) == 0 {
			sh.log = "0:0(0): warning: fragment shader writes no output\n"
		}
	}
	sh.compiled, sh.unit = true, u
}

func (g *GL) ShaderCompiled(h uint32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	sh := g.shader("ShaderCompiled", h)
	return sh != nil && sh.compiled
}

func truncLog(log string, max int) string {
	if max <= 1 {
		return ""
	}
	if len(log) > max-1 {
		return log[:max-1]
	}
	return log
}

func (g *GL) ShaderInfoLog(h uint32, max int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	sh := g.shader("ShaderInfoLog", h)
	if sh == nil {
		return ""
	}
	return truncLog(sh.log, max)
}

func (g *GL) DeleteShader(h uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("DeleteShader")
	if h == 0 {
		return
	}
	sh := g.shader("DeleteShader", h)
	if sh == nil {
		return
	}
	sh.deleted = true
	if sh.attached == 0 {
		delete(g.shaders, h)
	}
}

///////////////////////////////////////////////////////////
// Programs

func (g *GL) CreateProgram() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("CreateProgram")
	h := g.gen()
	g.programs[h] = &program{}
	return h
}

func (g *GL) program(fn string, h uint32) *program {
	p, ok := g.programs[h]
	if !ok {
		g.fail(InvalidValue, fn, "%d is not a program", h)
		return nil
	}
	return p
}

func (g *GL) AttachShader(ph, sh uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("AttachShader")
	p, s := g.program("AttachShader", ph), g.shader("AttachShader", sh)
	if p == nil || s == nil {
		return
	}
	for _, h := range p.shaders {
		if h == sh {
			g.fail(InvalidOperation, "AttachShader", "shader %d already attached", sh)
			return
		}
	}
	p.shaders = append(p.shaders, sh)
	s.attached++
}

func (g *GL) DetachShader(ph, sh uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("DetachShader")
	p, s := g.program("DetachShader", ph), g.shader("DetachShader", sh)
	if p == nil || s == nil {
		return
	}
	for i, h := range p.shaders {
		if h == sh {
			p.shaders = append(p.shaders[:i], p.shaders[i+1:]...)
			s.attached--
			if s.deleted && s.attached == 0 {
				delete(g.shaders, sh)
			}
			return
		}
	}
	g.fail(InvalidOperation, "DetachShader", "shader %d is not attached", sh)
}

func (g *GL) LinkProgram(ph uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("LinkProgram")
	p := g.program("LinkProgram", ph)
	if p == nil {
		return
	}
	lk := &linker{g: g, p: p}
	lk.link()
	p.linked = len(lk.errs) == 0
	p.log = ""
	if !p.linked {
		p.log = "error: " + strings.Join(lk.errs, "\nerror: ") + "\n"
		p.uniforms = nil
		p.attribs = nil
	}
}

func (g *GL) ProgramLinked(ph uint32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.program("ProgramLinked", ph)
	return p != nil && p.linked
}

func (g *GL) ProgramInfoLog(ph uint32, max int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.program("ProgramInfoLog", ph)
	if p == nil {
		return ""
	}
	return truncLog(p.log, max)
}

func (g *GL) DeleteProgram(ph uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("DeleteProgram")
	if ph == 0 {
		return
	}
	p := g.program("DeleteProgram", ph)
	if p == nil {
		return
	}
	for _, sh := range p.shaders {
		if s := g.shaders[sh]; s != nil {
			s.attached--
			if s.deleted && s.attached == 0 {
				delete(g.shaders, sh)
			}
		}
	}
	p.shaders = nil
	if g.current == ph {
		p.deleted = true
		return
	}
	delete(g.programs, ph)
}

func (g *GL) UseProgram(ph uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("UseProgram")
	if ph == 0 {
		g.releaseCurrent()
		return
	}
	p := g.program("UseProgram", ph)
	if p == nil {
		return
	}
	if !p.linked {
		g.fail(InvalidOperation, "UseProgram", "program %d is not linked", ph)
		return
	}
	g.releaseCurrent()
	g.current = ph
}

func (g *GL) releaseCurrent() {
	if p := g.programs[g.current]; p != nil && p.deleted {
		delete(g.programs, g.current)
	}
	g.current = 0
}

///////////////////////////////////////////////////////////
// Uniforms

func (g *GL) GetUniformLocation(ph uint32, name string) int32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("GetUniformLocation")
	p := g.program("GetUniformLocation", ph)
	if p == nil {
		return -1
	}
	if !p.linked {
		g.fail(InvalidOperation, "GetUniformLocation", "program %d is not linked", ph)
		return -1
	}
	i, _ := p.uniform(name)
	return int32(i)
}

// setUniform stores v in the uniform at loc of the current program,
// if its type accepts a value of given kind.
func (g *GL) setUniform(fn string, loc int32, v value, accept ...glslType) {
	g.call(fn)
	if loc == -1 {
		return
	}
	p := g.programs[g.current]
	if p == nil {
		g.fail(InvalidOperation, fn, "no current program")
		return
	}
	if loc < 0 || int(loc) >= len(p.uniforms) {
		g.fail(InvalidOperation, fn, "invalid uniform location %d", loc)
		return
	}
	u := p.uniforms[loc]
	for _, t := range accept {
		if u.typ == t {
			if t == tSampler2D && (v.v[0] < 0 || int(v.v[0]) >= g.Units) {
				g.fail(InvalidValue, fn, "sampler %q set to invalid unit %d", u.name, int(v.v[0]))
				return
			}
			u.val = v
			return
		}
	}
	g.fail(InvalidOperation, fn, "uniform %q is a %s", u.name, u.typ)
}

func (g *GL) Uniform1i(loc int32, v int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setUniform("Uniform1i", loc, scalarValue(float32(v)), tInt, tBool, tSampler2D)
}

func (g *GL) Uniform1f(loc int32, v float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setUniform("Uniform1f", loc, scalarValue(v), tFloat, tBool)
}

func (g *GL) Uniform2f(loc int32, x, y float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setUniform("Uniform2f", loc, value{n: 2, v: [16]float32{x, y}}, tVec2)
}

func (g *GL) Uniform3f(loc int32, x, y, z float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setUniform("Uniform3f", loc, value{n: 3, v: [16]float32{x, y, z}}, tVec3)
}

func (g *GL) Uniform4f(loc int32, x, y, z, w float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setUniform("Uniform4f", loc, value{n: 4, v: [16]float32{x, y, z, w}}, tVec4)
}

func (g *GL) UniformMatrix4fv(loc int32, m *[16]float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setUniform("UniformMatrix4fv", loc, value{n: 16, v: *m}, tMat4)
}

// Uniform returns the current value of the named uniform
// of the program, and whether it is an active uniform.
func (g *GL) Uniform(ph uint32, name string) ([]float32, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.programs[ph]
	if p == nil {
		return nil, false
	}
	_, u := p.uniform(name)
	if u == nil {
		return nil, false
	}
	n := max(u.val.n, u.typ.size())
	return append([]float32(nil), u.val.v[:n]...), true
}

///////////////////////////////////////////////////////////
// Buffers and vertex arrays

func (g *GL) GenVertexArray() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("GenVertexArray")
	h := g.gen()
	g.vaos[h] = &vertexArray{attribs: make(map[uint32]*attribPointer)}
	return h
}

func (g *GL) BindVertexArray(h uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("BindVertexArray")
	if h != 0 && g.vaos[h] == nil {
		g.fail(InvalidOperation, "BindVertexArray", "%d is not a vertex array", h)
		return
	}
	g.vao = h
}

func (g *GL) DeleteVertexArray(h uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("DeleteVertexArray")
	delete(g.vaos, h)
	if g.vao == h {
		g.vao = 0
	}
}

func (g *GL) GenBuffer() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("GenBuffer")
	h := g.gen()
	g.buffers[h] = &buffer{}
	return h
}

func (g *GL) BindBuffer(target gpu.BufferTargets, h uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("BindBuffer")
	if h != 0 && g.buffers[h] == nil {
		g.fail(InvalidOperation, "BindBuffer", "%d is not a buffer", h)
		return
	}
	switch target {
	case gpu.ArrayBuffer:
		g.arrayBuf = h
	case gpu.ElementBuffer:
		va := g.vaos[g.vao]
		if va == nil {
			g.fail(InvalidOperation, "BindBuffer", "element buffer bound with no vertex array")
			return
		}
		va.elements = h
	default:
		g.fail(InvalidEnum, "BindBuffer", "unknown target %d", target)
	}
}

func (g *GL) bound(fn string, target gpu.BufferTargets) *buffer {
	var h uint32
	switch target {
	case gpu.ArrayBuffer:
		h = g.arrayBuf
	case gpu.ElementBuffer:
		if va := g.vaos[g.vao]; va != nil {
			h = va.elements
		}
	}
	b := g.buffers[h]
	if b == nil {
		g.fail(InvalidOperation, fn, "no buffer bound to target %d", target)
	}
	return b
}

func (g *GL) BufferFloats(target gpu.BufferTargets, data []float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("BufferFloats")
	if b := g.bound("BufferFloats", target); b != nil {
		b.floats, b.indexes = append([]float32(nil), data...), nil
	}
}

func (g *GL) BufferIndexes(target gpu.BufferTargets, data []uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("BufferIndexes")
	if b := g.bound("BufferIndexes", target); b != nil {
		b.indexes, b.floats = append([]uint32(nil), data...), nil
	}
}

func (g *GL) DeleteBuffer(h uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("DeleteBuffer")
	delete(g.buffers, h)
	if g.arrayBuf == h {
		g.arrayBuf = 0
	}
}

func (g *GL) VertexAttribPointer(index uint32, size, stride, offset int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("VertexAttribPointer")
	va := g.vaos[g.vao]
	switch {
	case va == nil:
		g.fail(InvalidOperation, "VertexAttribPointer", "no vertex array bound")
		return
	case g.arrayBuf == 0:
		g.fail(InvalidOperation, "VertexAttribPointer", "no array buffer bound")
		return
	case index >= maxAttribs || size < 1 || size > 4 || stride < 0 || offset < 0:
		g.fail(InvalidValue, "VertexAttribPointer", "index %d size %d stride %d offset %d", index, size, stride, offset)
		return
	case offset%gpu.FloatBytes != 0 || stride%gpu.FloatBytes != 0:
		g.fail(InvalidValue, "VertexAttribPointer", "unaligned stride %d or offset %d", stride, offset)
		return
	}
	ap := va.attribs[index]
	if ap == nil {
		ap = &attribPointer{}
		va.attribs[index] = ap
	}
	ap.buffer, ap.size, ap.stride, ap.offset = g.arrayBuf, size, stride, offset
}

func (g *GL) EnableVertexAttribArray(index uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("EnableVertexAttribArray")
	va := g.vaos[g.vao]
	if va == nil {
		g.fail(InvalidOperation, "EnableVertexAttribArray", "no vertex array bound")
		return
	}
	ap := va.attribs[index]
	if ap == nil {
		ap = &attribPointer{}
		va.attribs[index] = ap
	}
	ap.enabled = true
}

///////////////////////////////////////////////////////////
// Frame

func (g *GL) ClearColor(r, gr, b, a float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("ClearColor")
	g.clear = [4]float32{r, gr, b, a}
}

func (g *GL) Clear(color, depth bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("Clear")
	if !color {
		return
	}
	c := toBytes(g.clear)
	for i := 0; i < len(g.Pixels); i += 4 {
		copy(g.Pixels[i:i+4], c[:])
	}
}

func (g *GL) Viewport(x, y, width, height int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("Viewport")
	if width < 0 || height < 0 {
		g.fail(InvalidValue, "Viewport", "negative size %dx%d", width, height)
		return
	}
	g.viewport = image.Rect(x, y, x+width, y+height)
}

func (g *GL) PolygonMode(wireframe bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("PolygonMode")
	g.wireframe = wireframe
}

func (g *GL) DrawArrays(mode gpu.Topologies, first, count int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("DrawArrays")
	if first < 0 || count < 0 {
		g.fail(InvalidValue, "DrawArrays", "first %d count %d", first, count)
		return
	}
	idx := make([]uint32, count)
	for i := range idx {
		idx[i] = uint32(first + i)
	}
	g.draw("DrawArrays", mode, idx)
}

func (g *GL) DrawElements(mode gpu.Topologies, count int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("DrawElements")
	va := g.vaos[g.vao]
	if va == nil {
		g.fail(InvalidOperation, "DrawElements", "no vertex array bound")
		return
	}
	eb := g.buffers[va.elements]
	if eb == nil {
		g.fail(InvalidOperation, "DrawElements", "no element buffer bound to vertex array %d", g.vao)
		return
	}
	if count < 0 || count > len(eb.indexes) {
		g.fail(InvalidOperation, "DrawElements", "count %d exceeds %d indexes", count, len(eb.indexes))
		return
	}
	g.draw("DrawElements", mode, eb.indexes[:count])
}

func (g *GL) ReadPixels(x, y, width, height int) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("ReadPixels")
	out := make([]byte, width*height*4)
	for row := 0; row < height; row++ {
		fy := y + row
		if fy < 0 || fy >= g.Height {
			continue
		}
		for col := 0; col < width; col++ {
			fx := x + col
			if fx < 0 || fx >= g.Width {
				continue
			}
			si := (fy*g.Width + fx) * 4
			di := (row*width + col) * 4
			copy(out[di:di+4], g.Pixels[si:si+4])
		}
	}
	return out
}

// Image returns a copy of the framebuffer as an image, top row first.
func (g *GL) Image() *image.RGBA {
	g.mu.Lock()
	defer g.mu.Unlock()
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	rb := g.Width * 4
	for y := 0; y < g.Height; y++ {
		src := g.Pixels[(g.Height-1-y)*rb : (g.Height-y)*rb]
		copy(img.Pix[y*img.Stride:y*img.Stride+rb], src)
	}
	return img
}

// NumShaders returns the number of live shader objects.
func (g *GL) NumShaders() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.shaders)
}

// NumPrograms returns the number of live program objects.
func (g *GL) NumPrograms() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.programs)
}

// NumBuffers returns the number of live buffer objects.
func (g *GL) NumBuffers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.buffers)
}

// NumTextures returns the number of live texture objects.
func (g *GL) NumTextures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.textures)
}

func toBytes(c [4]float32) [4]byte {
	var b [4]byte
	for i, v := range c {
		v = min(max(v, 0), 1)
		b[i] = byte(v*255 + 0.5)
	}
	return b
}
