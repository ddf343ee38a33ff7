// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"errors"
	"image"
	"log/slog"
)

// ErrNoContext is returned when a resource is used without a Context.
var ErrNoContext = errors.New("gpu: no GL context")

// BoundState mirrors the global pipeline state that the GL driver
// keeps implicitly: the current program, vertex array and texture
// bindings. It is updated by every bind call made through a Context,
// so it can be inspected without querying the driver.
type BoundState struct {
	// Program is the handle of the current program, 0 if none.
	Program uint32

	// VertexArray is the handle of the bound vertex array, 0 if none.
	VertexArray uint32

	// ActiveUnit is the currently selected texture unit.
	ActiveUnit int

	// Textures maps texture units to bound texture handles.
	Textures map[int]uint32

	// Viewport is the current viewport rectangle.
	Viewport image.Rectangle

	// Wireframe is true when polygons are drawn as lines.
	Wireframe bool

	// Draws are the draw calls issued since the last BeginFrame.
	Draws []DrawCall
}

// DrawCall records one draw call and the state it was issued with.
type DrawCall struct {
	Mode        Topologies
	Indexed     bool
	Count       int
	Program     uint32
	VertexArray uint32

	// Textures is a copy of the unit bindings at draw time.
	Textures map[int]uint32
}

// NTriangles returns the number of triangles drawn by the call.
func (dc *DrawCall) NTriangles() int {
	switch dc.Mode {
	case Triangles:
		return dc.Count / 3
	case TriangleStrip:
		return max(0, dc.Count-2)
	}
	return 0
}

// Context owns the GL driver for one rendering context
// together with the BoundState tracked for it.
type Context struct {
	// GL is the driver for this context.
	GL GL

	// State is the bound state as set through this context.
	State BoundState

	// maxUnits caches the texture unit limit.
	maxUnits int
}

// NewContext returns a new Context for given driver, which
// must be current on the calling thread.
func NewContext(gl GL) *Context {
	cx := &Context{GL: gl}
	cx.State.Textures = make(map[int]uint32)
	return cx
}

// BeginFrame resets the per-frame draw call record.
func (cx *Context) BeginFrame() {
	cx.State.Draws = cx.State.Draws[:0]
}

// MaxTextureUnits returns the number of texture units
// supported by the driver.
func (cx *Context) MaxTextureUnits() int {
	if cx.maxUnits == 0 {
		cx.maxUnits = cx.GL.MaxTextureUnits()
	}
	return cx.maxUnits
}

// UseProgram makes given program current, if not already.
func (cx *Context) UseProgram(handle uint32) {
	if cx.State.Program == handle {
		return
	}
	cx.GL.UseProgram(handle)
	cx.State.Program = handle
}

// BindVertexArray binds given vertex array, if not already.
func (cx *Context) BindVertexArray(vao uint32) {
	if cx.State.VertexArray == vao {
		return
	}
	cx.GL.BindVertexArray(vao)
	cx.State.VertexArray = vao
}

// ActiveTexture selects the texture unit for BindTexture.
func (cx *Context) ActiveTexture(unit int) {
	cx.GL.ActiveTexture(unit)
	cx.State.ActiveUnit = unit
}

// BindTexture binds given texture to the active unit.
func (cx *Context) BindTexture(tex uint32) {
	cx.GL.BindTexture(tex)
	if tex == 0 {
		delete(cx.State.Textures, cx.State.ActiveUnit)
		return
	}
	cx.State.Textures[cx.State.ActiveUnit] = tex
}

// SetViewport sets the viewport to given size, anchored at 0,0.
func (cx *Context) SetViewport(size image.Point) {
	cx.GL.Viewport(0, 0, size.X, size.Y)
	cx.State.Viewport = image.Rectangle{Max: size}
	slog.Debug("gpu.Context viewport", "size", size)
}

// SetWireframe turns wireframe polygon mode on or off.
func (cx *Context) SetWireframe(on bool) {
	cx.GL.PolygonMode(on)
	cx.State.Wireframe = on
}

// Clear clears the color buffer to given color.
func (cx *Context) Clear(r, g, b, a float32) {
	cx.GL.ClearColor(r, g, b, a)
	cx.GL.Clear(true, false)
}

// DrawArrays draws count vertices in order, starting at first.
func (cx *Context) DrawArrays(mode Topologies, first, count int) {
	cx.GL.DrawArrays(mode, first, count)
	cx.record(mode, false, count)
}

// DrawElements draws count indexes of the bound element buffer.
func (cx *Context) DrawElements(mode Topologies, count int) {
	cx.GL.DrawElements(mode, count)
	cx.record(mode, true, count)
}

func (cx *Context) record(mode Topologies, indexed bool, count int) {
	txs := make(map[int]uint32, len(cx.State.Textures))
	for u, t := range cx.State.Textures {
		txs[u] = t
	}
	cx.State.Draws = append(cx.State.Draws, DrawCall{
		Mode:        mode,
		Indexed:     indexed,
		Count:       count,
		Program:     cx.State.Program,
		VertexArray: cx.State.VertexArray,
		Textures:    txs,
	})
}

// ErrCheck returns any pending driver error, logging it
// with given context string.
func (cx *Context) ErrCheck(where string) error {
	err := cx.GL.Error()
	if err != nil {
		slog.Error("gpu error", "where", where, "err", err)
	}
	return err
}
