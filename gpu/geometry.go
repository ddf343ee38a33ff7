// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"
	"sort"
)

// Geometry is a vertex array with one interleaved vertex buffer
// and an optional index buffer. It is uploaded once with static
// usage and is immutable thereafter.
//
// The attribute layout must match the interleaving used when the
// vertex data was authored: offsets are not checked against the
// stride, and a mismatch produces garbled geometry, not an error.
type Geometry struct {
	// Name of the geometry, for diagnostics.
	Name string

	// Layout is the attribute layout, in the order it was bound.
	Layout []Attrib

	// Stride is the number of floats per vertex.
	Stride int

	vao      uint32
	vbo      uint32
	ebo      uint32
	nverts   int
	indexes  []uint32
	ctx      *Context
	uploaded bool
}

// NewGeometry returns a new empty Geometry.
func NewGeometry(ctx *Context, name string) *Geometry {
	return &Geometry{Name: name, ctx: ctx}
}

// Upload copies the vertex data and optional indexes to the GPU,
// and binds each attribute of layout, in order, against the
// vertex buffer. stride is the number of floats per vertex.
func (gm *Geometry) Upload(vertices []float32, indexes []uint32, stride int, layout []Attrib) error {
	if gm.ctx == nil {
		return ErrNoContext
	}
	if gm.uploaded {
		return fmt.Errorf("gpu.Geometry %q: already uploaded", gm.Name)
	}
	if stride <= 0 {
		return fmt.Errorf("gpu.Geometry %q: invalid stride %d", gm.Name, stride)
	}
	if len(vertices) == 0 || len(vertices)%stride != 0 {
		return fmt.Errorf("gpu.Geometry %q: %d floats is not a whole number of %d-float vertices", gm.Name, len(vertices), stride)
	}
	nv := len(vertices) / stride
	for _, ix := range indexes {
		if int(ix) >= nv {
			return fmt.Errorf("gpu.Geometry %q: index %d out of range for %d vertices", gm.Name, ix, nv)
		}
	}
	gl := gm.ctx.GL
	gm.vao = gl.GenVertexArray()
	gm.ctx.BindVertexArray(gm.vao)

	gm.vbo = gl.GenBuffer()
	gl.BindBuffer(ArrayBuffer, gm.vbo)
	gl.BufferFloats(ArrayBuffer, vertices)

	if len(indexes) > 0 {
		gm.ebo = gl.GenBuffer()
		gl.BindBuffer(ElementBuffer, gm.ebo)
		gl.BufferIndexes(ElementBuffer, indexes)
		gm.indexes = append([]uint32(nil), indexes...)
	}

	for _, at := range layout {
		gl.VertexAttribPointer(at.Index, at.Size, stride*FloatBytes, at.Offset*FloatBytes)
		gl.EnableVertexAttribArray(at.Index)
	}
	gm.Layout = layout
	gm.Stride = stride
	gm.nverts = nv
	gm.uploaded = true
	return nil
}

// NVertices returns the number of vertices.
func (gm *Geometry) NVertices() int {
	return gm.nverts
}

// NIndexes returns the number of indexes, 0 if not indexed.
func (gm *Geometry) NIndexes() int {
	return len(gm.indexes)
}

// Indexed returns true if the geometry has an index buffer.
func (gm *Geometry) Indexed() bool {
	return gm.ebo != 0
}

// NTriangles returns the number of triangles drawn by Draw.
func (gm *Geometry) NTriangles() int {
	if gm.Indexed() {
		return len(gm.indexes) / 3
	}
	return gm.nverts / 3
}

// SharedVertices returns the sorted vertex indexes that are
// referenced more than once by the index buffer.
func (gm *Geometry) SharedVertices() []uint32 {
	counts := make(map[uint32]int)
	for _, ix := range gm.indexes {
		counts[ix]++
	}
	var shared []uint32
	for ix, n := range counts {
		if n > 1 {
			shared = append(shared, ix)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i] < shared[j] })
	return shared
}

// VertexArray returns the vertex array handle.
func (gm *Geometry) VertexArray() uint32 {
	return gm.vao
}

// Bind binds the vertex array for drawing.
func (gm *Geometry) Bind() {
	gm.ctx.BindVertexArray(gm.vao)
}

// Draw binds the vertex array and issues one draw call:
// indexed when there is an index buffer, otherwise all
// vertices in order.
func (gm *Geometry) Draw() error {
	if !gm.uploaded {
		return fmt.Errorf("gpu.Geometry %q: Draw before Upload", gm.Name)
	}
	gm.Bind()
	if gm.Indexed() {
		gm.ctx.DrawElements(Triangles, len(gm.indexes))
	} else {
		gm.ctx.DrawArrays(Triangles, 0, gm.nverts)
	}
	return nil
}

// Release deletes the GPU buffers and vertex array.
func (gm *Geometry) Release() {
	if !gm.uploaded {
		return
	}
	gl := gm.ctx.GL
	if gm.ctx.State.VertexArray == gm.vao {
		gm.ctx.BindVertexArray(0)
	}
	if gm.ebo != 0 {
		gl.DeleteBuffer(gm.ebo)
		gm.ebo = 0
	}
	gl.DeleteBuffer(gm.vbo)
	gl.DeleteVertexArray(gm.vao)
	gm.vbo, gm.vao = 0, 0
	gm.indexes = nil
	gm.uploaded = false
}
