// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package softgpu

import (
	"cogentcore.org/core/math32"
)

// value is a GLSL value: a scalar, vector or column-major mat4,
// stored as n float components. Samplers hold their texture unit.
type value struct {
	n int
	v [16]float32
}

func scalarValue(f float32) value {
	return value{n: 1, v: [16]float32{f}}
}

func (v value) at(i int) float32 {
	if v.n == 1 {
		return v.v[0]
	}
	return v.v[i]
}

// env is the variable environment of one shader invocation.
type env struct {
	vars   map[string]value
	sample func(unit int, s, t float32) [4]float32
}

// node is a checked expression.
type node interface {
	typeOf() glslType
	eval(e *env) value
}

type numNode struct {
	v   float32
	typ glslType
}

func (n *numNode) typeOf() glslType  { return n.typ }
func (n *numNode) eval(e *env) value { return scalarValue(n.v) }

type varNode struct {
	name string
	typ  glslType
}

func (n *varNode) typeOf() glslType { return n.typ }

func (n *varNode) eval(e *env) value {
	if v, ok := e.vars[n.name]; ok {
		return v
	}
	return value{n: max(n.typ.size(), 1)}
}

type swizzleNode struct {
	x   node
	idx []int
}

func (n *swizzleNode) typeOf() glslType { return vecType(len(n.idx)) }

func (n *swizzleNode) eval(e *env) value {
	x := n.x.eval(e)
	r := value{n: len(n.idx)}
	for i, ix := range n.idx {
		r.v[i] = x.v[ix]
	}
	return r
}

type binaryNode struct {
	op   byte
	l, r node
	typ  glslType
}

func (n *binaryNode) typeOf() glslType { return n.typ }

func (n *binaryNode) eval(e *env) value {
	l, r := n.l.eval(e), n.r.eval(e)
	if n.op == '*' && l.n == 16 && r.n == 4 {
		return mulMatVec(l, r)
	}
	if n.op == '*' && l.n == 16 && r.n == 16 {
		return mulMatMat(l, r)
	}
	res := value{n: max(l.n, r.n)}
	for i := 0; i < res.n; i++ {
		a, b := l.at(i), r.at(i)
		switch n.op {
		case '+':
			res.v[i] = a + b
		case '-':
			res.v[i] = a - b
		case '*':
			res.v[i] = a * b
		case '/':
			if b != 0 {
				res.v[i] = a / b
			}
		}
	}
	return res
}

func mulMatVec(m, v value) value {
	r := value{n: 4}
	for row := 0; row < 4; row++ {
		var s float32
		for col := 0; col < 4; col++ {
			s += m.v[col*4+row] * v.v[col]
		}
		r.v[row] = s
	}
	return r
}

func mulMatMat(a, b value) value {
	r := value{n: 16}
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var s float32
			for k := 0; k < 4; k++ {
				s += a.v[k*4+row] * b.v[col*4+k]
			}
			r.v[col*4+row] = s
		}
	}
	return r
}

type callNode struct {
	fn   string
	args []node
	typ  glslType
}

func (n *callNode) typeOf() glslType { return n.typ }

func (n *callNode) eval(e *env) value {
	args := make([]value, len(n.args))
	for i, a := range n.args {
		args[i] = a.eval(e)
	}
	sz := n.typ.size()
	switch n.fn {
	case "texture":
		c := e.sample(int(args[0].v[0]), args[1].v[0], args[1].v[1])
		return value{n: 4, v: [16]float32{c[0], c[1], c[2], c[3]}}
	case "mix":
		r := value{n: sz}
		for i := 0; i < sz; i++ {
			r.v[i] = math32.Lerp(args[0].at(i), args[1].at(i), args[2].at(i))
		}
		return r
	case "clamp":
		r := value{n: sz}
		for i := 0; i < sz; i++ {
			r.v[i] = math32.Clamp(args[0].at(i), args[1].at(i), args[2].at(i))
		}
		return r
	case "sin", "cos", "abs", "fract":
		r := value{n: sz}
		for i := 0; i < sz; i++ {
			x := args[0].at(i)
			switch n.fn {
			case "sin":
				r.v[i] = math32.Sin(x)
			case "cos":
				r.v[i] = math32.Cos(x)
			case "abs":
				r.v[i] = math32.Abs(x)
			case "fract":
				r.v[i] = x - math32.Floor(x)
			}
		}
		return r
	}
	return construct(n.typ, args)
}

// construct evaluates a type constructor.
func construct(typ glslType, args []value) value {
	sz := typ.size()
	r := value{n: sz}
	if len(args) == 1 && args[0].n == 1 {
		if typ == tMat4 {
			for i := 0; i < 4; i++ {
				r.v[i*4+i] = args[0].v[0]
			}
			return r
		}
		for i := 0; i < sz; i++ {
			r.v[i] = args[0].v[0]
		}
		return r
	}
	k := 0
	for _, a := range args {
		for i := 0; i < a.n && k < sz; i++ {
			r.v[k] = a.v[i]
			k++
		}
	}
	return r
}

// exec runs the statements of main against the environment.
func exec(body []*stmt, e *env) {
	for _, st := range body {
		v := st.value.eval(e)
		if st.swizzle == nil {
			e.vars[st.target] = v
			continue
		}
		cur, ok := e.vars[st.target]
		if !ok {
			cur.n = st.typ.size()
		}
		for i, ix := range st.swizzle {
			cur.v[ix] = v.at(i)
		}
		e.vars[st.target] = cur
	}
}
