// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package softgpu

import (
	"cogentcore.org/core/math32"
	"cogentcore.org/glsandbox/gpu"
)

// vertex is a processed vertex: window position and varyings.
type vertex struct {
	pos      math32.Vector3 // window x, y, and clip w
	varyings map[string]value
	culled   bool
}

// draw runs the vertex stage over the given indexes, assembles
// primitives of the given mode and rasterizes them.
func (g *GL) draw(fn string, mode gpu.Topologies, idx []uint32) {
	p := g.programs[g.current]
	if p == nil || !p.linked {
		g.fail(InvalidOperation, fn, "no linked program in use")
		return
	}
	va := g.vaos[g.vao]
	if va == nil {
		g.fail(InvalidOperation, fn, "no vertex array bound")
		return
	}
	uniforms := make(map[string]value, len(p.uniforms))
	for _, u := range p.uniforms {
		uniforms[u.name] = u.val
	}
	cache := make(map[uint32]*vertex)
	verts := make([]*vertex, len(idx))
	for i, ix := range idx {
		v, ok := cache[ix]
		if !ok {
			var err bool
			v, err = g.vertexStage(fn, p, va, uniforms, ix)
			if err {
				return
			}
			cache[ix] = v
		}
		verts[i] = v
	}
	fr := &fragmenter{g: g, p: p, e: &env{vars: make(map[string]value), sample: g.sample}, uniforms: uniforms}
	switch mode {
	case gpu.Triangles:
		for i := 0; i+2 < len(verts); i += 3 {
			fr.triangle(verts[i], verts[i+1], verts[i+2])
		}
	case gpu.TriangleStrip:
		for i := 0; i+2 < len(verts); i++ {
			fr.triangle(verts[i], verts[i+1], verts[i+2])
		}
	case gpu.Lines:
		for i := 0; i+1 < len(verts); i += 2 {
			fr.line(verts[i], verts[i+1])
		}
	default:
		g.fail(InvalidEnum, fn, "unknown mode %d", mode)
	}
}

// vertexStage fetches the attributes of vertex ix and runs the vertex
// shader. It returns true on error.
func (g *GL) vertexStage(fn string, p *program, va *vertexArray, uniforms map[string]value, ix uint32) (*vertex, bool) {
	e := &env{vars: make(map[string]value, len(uniforms)+8), sample: g.sample}
	for k, v := range uniforms {
		e.vars[k] = v
	}
	for _, d := range p.vert.declsOf(in) {
		loc := uint32(p.attribs[d.name])
		val := value{n: max(d.typ.size(), 1)}
		val.v[3] = 1
		if ap := va.attribs[loc]; ap != nil && ap.enabled {
			b := g.buffers[ap.buffer]
			if b == nil {
				g.fail(InvalidOperation, fn, "attribute %d buffer deleted", loc)
				return nil, true
			}
			stride := ap.stride / gpu.FloatBytes
			if stride == 0 {
				stride = ap.size
			}
			off := int(ix)*stride + ap.offset/gpu.FloatBytes
			if off+ap.size > len(b.floats) {
				g.fail(InvalidOperation, fn, "vertex %d attribute %d reads past end of buffer", ix, loc)
				return nil, true
			}
			for k := 0; k < ap.size && k < 4; k++ {
				val.v[k] = b.floats[off+k]
			}
		}
		e.vars[d.name] = val
	}
	exec(p.vert.body, e)
	clip := e.vars["gl_Position"]
	vx := &vertex{varyings: make(map[string]value)}
	for _, d := range p.vert.declsOf(out) {
		if v, ok := e.vars[d.name]; ok {
			vx.varyings[d.name] = v
		} else {
			vx.varyings[d.name] = value{n: d.typ.size()}
		}
	}
	w := clip.v[3]
	if w <= 0 {
		vx.culled = true
		return vx, false
	}
	vp := g.viewport
	nx, ny := clip.v[0]/w, clip.v[1]/w
	vx.pos.X = float32(vp.Min.X) + (nx+1)*float32(vp.Dx())/2
	vx.pos.Y = float32(vp.Min.Y) + (ny+1)*float32(vp.Dy())/2
	vx.pos.Z = w
	return vx, false
}

// fragmenter rasterizes primitives and shades their fragments.
type fragmenter struct {
	g        *GL
	p        *program
	e        *env
	uniforms map[string]value
}

// shade runs the fragment shader at window pixel x, y with varyings
// interpolated from vertices vs using weights ws, and writes the result.
func (fr *fragmenter) shade(x, y int, vs []*vertex, ws []float32) {
	g := fr.g
	vp := g.viewport
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height || x < vp.Min.X || y < vp.Min.Y || x >= vp.Max.X || y >= vp.Max.Y {
		return
	}
	e := fr.e
	clear(e.vars)
	for k, v := range fr.uniforms {
		e.vars[k] = v
	}
	for _, d := range fr.p.frag.declsOf(in) {
		var r value
		for i, vx := range vs {
			vv := vx.varyings[d.name]
			r.n = vv.n
			for k := 0; k < vv.n; k++ {
				r.v[k] += ws[i] * vv.v[k]
			}
		}
		e.vars[d.name] = r
	}
	exec(fr.p.frag.body, e)
	if fr.p.fragOut == "" {
		return
	}
	o := e.vars[fr.p.fragOut]
	c := toBytes([4]float32{o.v[0], o.v[1], o.v[2], o.v[3]})
	pi := (y*g.Width + x) * 4
	copy(g.Pixels[pi:pi+4], c[:])
}

func edge(a, b math32.Vector3, x, y float32) float32 {
	return (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
}

// triangle rasterizes a filled triangle, or its edges in wireframe mode.
// Pixels whose centers lie inside or on an edge are shaded.
func (fr *fragmenter) triangle(a, b, c *vertex) {
	if a.culled || b.culled || c.culled {
		return
	}
	if fr.g.wireframe {
		fr.line(a, b)
		fr.line(b, c)
		fr.line(c, a)
		return
	}
	area := edge(a.pos, b.pos, c.pos.X, c.pos.Y)
	if area == 0 {
		return
	}
	g := fr.g
	minX := max(0, int(math32.Floor(min(a.pos.X, b.pos.X, c.pos.X))))
	maxX := min(g.Width-1, int(math32.Ceil(max(a.pos.X, b.pos.X, c.pos.X))))
	minY := max(0, int(math32.Floor(min(a.pos.Y, b.pos.Y, c.pos.Y))))
	maxY := min(g.Height-1, int(math32.Ceil(max(a.pos.Y, b.pos.Y, c.pos.Y))))
	vs := []*vertex{a, b, c}
	ws := make([]float32, 3)
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(b.pos, c.pos, px, py) / area
			w1 := edge(c.pos, a.pos, px, py) / area
			w2 := edge(a.pos, b.pos, px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			ws[0], ws[1], ws[2] = w0, w1, w2
			fr.shade(x, y, vs, ws)
		}
	}
}

// line rasterizes a one pixel wide line between two vertices.
func (fr *fragmenter) line(a, b *vertex) {
	if a.culled || b.culled {
		return
	}
	dx, dy := b.pos.X-a.pos.X, b.pos.Y-a.pos.Y
	steps := int(math32.Ceil(max(math32.Abs(dx), math32.Abs(dy))))
	vs := []*vertex{a, b}
	ws := make([]float32, 2)
	for i := 0; i <= steps; i++ {
		t := float32(0)
		if steps > 0 {
			t = float32(i) / float32(steps)
		}
		ws[0], ws[1] = 1-t, t
		x := int(math32.Floor(a.pos.X + t*dx))
		y := int(math32.Floor(a.pos.Y + t*dy))
		fr.shade(x, y, vs, ws)
	}
}
