// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package softgpu

import (
	"fmt"
	"strings"

	"cogentcore.org/glsandbox/gpu"
)

// linker links the attached stages of a program.
type linker struct {
	g    *GL
	p    *program
	errs []string
}

func (lk *linker) errorf(format string, args ...any) {
	lk.errs = append(lk.errs, fmt.Sprintf(format, args...))
}

func (lk *linker) link() {
	p := lk.p
	p.vert, p.frag, p.fragOut = nil, nil, ""
	for _, h := range p.shaders {
		sh := lk.g.shaders[h]
		if !sh.compiled {
			lk.errorf("linking with uncompiled %s shader", strings.ToLower(sh.typ.String()))
			continue
		}
		switch sh.typ {
		case gpu.VertexShader:
			if p.vert != nil {
				lk.errorf("more than one vertex shader attached")
			}
			p.vert = sh.unit
		case gpu.FragmentShader:
			if p.frag != nil {
				lk.errorf("more than one fragment shader attached")
			}
			p.frag = sh.unit
		}
	}
	if len(lk.errs) > 0 {
		return
	}
	if p.vert == nil {
		lk.errorf("program lacks a vertex shader")
	}
	if p.frag == nil {
		lk.errorf("program lacks a fragment shader")
	}
	if len(lk.errs) > 0 {
		return
	}
	lk.varyings()
	lk.attributes()
	lk.outputs()
	lk.uniforms()
}

// varyings matches fragment inputs to vertex outputs by name and type.
func (lk *linker) varyings() {
	for _, fi := range lk.p.frag.declsOf(in) {
		vo := lk.p.vert.decl(fi.name)
		if vo == nil || vo.storage != out {
			lk.errorf("fragment shader input '%s' has no matching vertex shader output", fi.name)
			continue
		}
		if vo.typ != fi.typ {
			lk.errorf("'%s' declared as type '%s' in vertex shader and type '%s' in fragment shader", fi.name, vo.typ, fi.typ)
		}
	}
}

// attributes assigns vertex input locations: explicit layout
// locations first, then the lowest free locations in declaration order.
func (lk *linker) attributes() {
	p := lk.p
	p.attribs = make(map[string]int)
	taken := make(map[int]string)
	ins := p.vert.declsOf(in)
	for _, d := range ins {
		if d.location < 0 {
			continue
		}
		if d.location >= maxAttribs {
			lk.errorf("vertex shader input '%s' location %d exceeds the maximum of %d", d.name, d.location, maxAttribs-1)
			continue
		}
		if other, ok := taken[d.location]; ok {
			lk.errorf("vertex shader inputs '%s' and '%s' are both assigned location %d", other, d.name, d.location)
			continue
		}
		taken[d.location] = d.name
		p.attribs[d.name] = d.location
	}
	loc := 0
	for _, d := range ins {
		if d.location >= 0 {
			continue
		}
		for taken[loc] != "" {
			loc++
		}
		if loc >= maxAttribs {
			lk.errorf("too many vertex shader inputs")
			return
		}
		taken[loc] = d.name
		p.attribs[d.name] = loc
	}
}

func (lk *linker) outputs() {
	for _, d := range lk.p.frag.declsOf(out) {
		if d.typ != tVec4 {
			lk.errorf("fragment shader output '%s' must be a vec4, not '%s'", d.name, d.typ)
			continue
		}
		if lk.p.fragOut == "" {
			lk.p.fragOut = d.name
		}
	}
}

// uniforms merges the uniforms of both stages. Only uniforms that are
// referenced by main are active and receive a location.
func (lk *linker) uniforms() {
	p := lk.p
	p.uniforms = nil
	for _, u := range []*unit{p.vert, p.frag} {
		for _, d := range u.declsOf(uniform) {
			_, ex := p.uniform(d.name)
			if ex != nil {
				if ex.typ != d.typ {
					lk.errorf("uniform '%s' declared as type '%s' and type '%s'", d.name, ex.typ, d.typ)
				}
				continue
			}
			if !p.vert.used[d.name] && !p.frag.used[d.name] {
				continue
			}
			p.uniforms = append(p.uniforms, &uniformSlot{name: d.name, typ: d.typ, val: value{n: max(d.typ.size(), 1)}})
		}
	}
}
