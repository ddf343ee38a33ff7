// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package softgpu

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// This file is the front end for the GLSL subset that the software
// device understands: global in / out / uniform declarations with
// optional explicit locations, and a main function consisting of
// assignments whose right hand sides are expressions over floats,
// vectors, mat4 and the texture, mix, sin, cos, abs and clamp built-ins.

// glslType is a GLSL variable type.
type glslType int

const (
	tNone glslType = iota
	tFloat
	tInt
	tBool
	tVec2
	tVec3
	tVec4
	tMat4
	tSampler2D
)

var typeNames = map[string]glslType{
	"float":     tFloat,
	"int":       tInt,
	"bool":      tBool,
	"vec2":      tVec2,
	"vec3":      tVec3,
	"vec4":      tVec4,
	"mat4":      tMat4,
	"sampler2D": tSampler2D,
}

func (t glslType) String() string {
	for nm, ty := range typeNames {
		if ty == t {
			return nm
		}
	}
	return "void"
}

// size returns the number of float components of the type.
func (t glslType) size() int {
	switch t {
	case tFloat, tInt, tBool:
		return 1
	case tVec2:
		return 2
	case tVec3:
		return 3
	case tVec4:
		return 4
	case tMat4:
		return 16
	}
	return 0
}

func (t glslType) scalar() bool { return t.size() == 1 }

func vecType(n int) glslType {
	switch n {
	case 1:
		return tFloat
	case 2:
		return tVec2
	case 3:
		return tVec3
	case 4:
		return tVec4
	}
	return tNone
}

// storage qualifiers
type storage int

const (
	local storage = iota
	in
	out
	uniform
)

// decl is a global variable declaration.
type decl struct {
	storage  storage
	typ      glslType
	name     string
	location int // explicit layout location, -1 if none
	line     int
}

// stmt is an assignment statement in main.
type stmt struct {
	declType glslType // non-zero for a local declaration
	target   string
	typ      glslType // full type of the target
	swizzle  []int
	op       string // "=", "+=", "-=", "*="
	value    node
	line     int
}

// unit is a parsed and checked shader stage.
type unit struct {
	version int
	decls   []*decl
	body    []*stmt

	// used are the global names referenced from main.
	used map[string]bool
}

func (u *unit) decl(name string) *decl {
	for _, d := range u.decls {
		if d.name == name {
			return d
		}
	}
	return nil
}

func (u *unit) declsOf(st storage) []*decl {
	var ds []*decl
	for _, d := range u.decls {
		if d.storage == st {
			ds = append(ds, d)
		}
	}
	return ds
}

///////////////////////////////////////////////////////////
// Lexer

type tokKind int

const (
	tkEOF tokKind = iota
	tkIdent
	tkNumber
	tkPunct
	tkDirective
)

type token struct {
	kind tokKind
	text string
	line int
	col  int
}

func lex(src string) ([]token, error) {
	var toks []token
	line, col := 1, 1
	i := 0
	adv := func(n int) {
		for k := 0; k < n && i < len(src); k++ {
			if src[i] == '\n' {
				line++
				col = 1
			} else {
				col++
			}
			i++
		}
	}
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n' || c == ' ' || c == '\t' || c == '\r' || c == 0:
			adv(1)
		case strings.HasPrefix(src[i:], "//"):
			for i < len(src) && src[i] != '\n' {
				adv(1)
			}
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return nil, fmt.Errorf("0:%d(%d): error: unterminated comment", line, col)
			}
			adv(end + 4)
		case c == '#':
			st, sl, sc := i, line, col
			for i < len(src) && src[i] != '\n' {
				adv(1)
			}
			toks = append(toks, token{kind: tkDirective, text: strings.TrimSpace(src[st:i]), line: sl, col: sc})
		case c == '_' || unicode.IsLetter(rune(c)):
			st, sl, sc := i, line, col
			for i < len(src) && (src[i] == '_' || unicode.IsLetter(rune(src[i])) || unicode.IsDigit(rune(src[i]))) {
				adv(1)
			}
			toks = append(toks, token{kind: tkIdent, text: src[st:i], line: sl, col: sc})
		case unicode.IsDigit(rune(c)) || (c == '.' && i+1 < len(src) && unicode.IsDigit(rune(src[i+1]))):
			st, sl, sc := i, line, col
			for i < len(src) && (unicode.IsDigit(rune(src[i])) || src[i] == '.' || src[i] == 'e' || src[i] == 'E') {
				if (src[i] == 'e' || src[i] == 'E') && i+1 < len(src) && (src[i+1] == '-' || src[i+1] == '+') {
					adv(1)
				}
				adv(1)
			}
			txt := src[st:i]
			if i < len(src) && (src[i] == 'f' || src[i] == 'F') {
				adv(1)
			}
			toks = append(toks, token{kind: tkNumber, text: txt, line: sl, col: sc})
		default:
			sl, sc := line, col
			if i+1 < len(src) && strings.ContainsRune("+-*/", rune(c)) && src[i+1] == '=' {
				toks = append(toks, token{kind: tkPunct, text: src[i : i+2], line: sl, col: sc})
				adv(2)
				continue
			}
			if !strings.ContainsRune("(){}[];,.=+-*/", rune(c)) {
				return nil, fmt.Errorf("0:%d(%d): error: unexpected character '%c'", line, col, c)
			}
			toks = append(toks, token{kind: tkPunct, text: string(c), line: sl, col: sc})
			adv(1)
		}
	}
	toks = append(toks, token{kind: tkEOF, line: line, col: col})
	return toks, nil
}

///////////////////////////////////////////////////////////
// Parser

// parseError is a positioned compile error.
type parseError struct {
	line, col int
	msg       string
}

func (e *parseError) Error() string {
	return fmt.Sprintf("0:%d(%d): error: %s", e.line, e.col, e.msg)
}

type parser struct {
	toks []token
	pos  int
	u    *unit
	errs []error
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tkEOF {
		p.pos++
	}
	return t
}

func (p *parser) fail(t token, format string, args ...any) {
	panic(&parseError{line: t.line, col: t.col, msg: fmt.Sprintf(format, args...)})
}

func (p *parser) expect(text string) token {
	t := p.next()
	if t.text != text || t.kind == tkEOF {
		found := t.text
		if t.kind == tkEOF {
			found = "end of file"
		}
		p.fail(t, "syntax error, unexpected %s, expecting '%s'", quoteTok(found), text)
	}
	return t
}

func quoteTok(s string) string {
	if s == "end of file" {
		return s
	}
	return "'" + s + "'"
}

func (p *parser) ident() token {
	t := p.next()
	if t.kind != tkIdent {
		p.fail(t, "syntax error, unexpected %s, expecting identifier", quoteTok(t.text))
	}
	return t
}

// parse parses and checks a shader stage. All errors are returned
// in the order they were found.
func parse(src string) (u *unit, errs []error) {
	toks, err := lex(src)
	if err != nil {
		return nil, []error{err}
	}
	p := &parser{toks: toks, u: &unit{used: make(map[string]bool)}}
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*parseError)
			if !ok {
				panic(r)
			}
			u, errs = nil, append(p.errs, pe)
		}
	}()
	p.unit()
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return p.u, nil
}

func (p *parser) unit() {
	hasMain := false
	for {
		t := p.peek()
		switch {
		case t.kind == tkEOF:
			if p.u.version == 0 {
				p.fail(t, "no #version directive: GLSL 1.10 does not support 'in' / 'out' / 'layout' qualifiers")
			}
			if !hasMain {
				p.fail(t, "main() function not defined")
			}
			return
		case t.kind == tkDirective:
			p.next()
			p.directive(t)
		case t.text == "precision":
			for t := p.next(); t.text != ";"; t = p.next() {
				if t.kind == tkEOF {
					p.fail(t, "syntax error, unexpected end of file, expecting ';'")
				}
			}
		case t.text == "void":
			if hasMain {
				p.fail(t, "function 'main' redefined")
			}
			if p.u.version == 0 {
				p.fail(t, "#version directive must come before any other statement")
			}
			p.mainFunc()
			hasMain = true
		default:
			if p.u.version == 0 {
				p.fail(t, "#version directive must come before any other statement")
			}
			p.global()
		}
	}
}

func (p *parser) directive(t token) {
	fs := strings.Fields(t.text)
	switch fs[0] {
	case "#version":
		if p.u.version != 0 || len(p.u.decls) > 0 {
			p.fail(t, "#version must occur only once, before anything else")
		}
		if len(fs) < 2 {
			p.fail(t, "#version requires a version number")
		}
		v, err := strconv.Atoi(fs[1])
		if err != nil || v < 330 {
			p.fail(t, "version '%s' is not supported", fs[1])
		}
		if len(fs) > 2 && fs[2] != "core" {
			p.fail(t, "profile '%s' is not supported", fs[2])
		}
		p.u.version = v
	case "#extension", "#pragma", "#line":
	default:
		p.fail(t, "unsupported preprocessor directive '%s'", fs[0])
	}
}

// global parses one global declaration.
func (p *parser) global() {
	loc := -1
	t := p.peek()
	if t.text == "layout" {
		p.next()
		p.expect("(")
		q := p.ident()
		if q.text != "location" {
			p.fail(q, "unsupported layout qualifier '%s'", q.text)
		}
		p.expect("=")
		nt := p.next()
		n, err := strconv.Atoi(nt.text)
		if nt.kind != tkNumber || err != nil || n < 0 {
			p.fail(nt, "invalid location '%s'", nt.text)
		}
		loc = n
		p.expect(")")
	}
	qt := p.ident()
	var st storage
	switch qt.text {
	case "in":
		st = in
	case "out":
		st = out
	case "uniform":
		st = uniform
	default:
		p.fail(qt, "syntax error, unexpected '%s'", qt.text)
	}
	tt := p.ident()
	typ, ok := typeNames[tt.text]
	if !ok {
		p.fail(tt, "unknown type '%s'", tt.text)
	}
	if typ == tSampler2D && st != uniform {
		p.fail(tt, "sampler arguments must be uniform")
	}
	if loc >= 0 && st == uniform {
		p.fail(qt, "explicit uniform locations are not supported")
	}
	nt := p.ident()
	if _, isType := typeNames[nt.text]; isType || nt.text == "gl_Position" {
		p.fail(nt, "syntax error, unexpected '%s'", nt.text)
	}
	if d := p.u.decl(nt.text); d != nil {
		p.fail(nt, "'%s' redeclared", nt.text)
	}
	p.expect(";")
	p.u.decls = append(p.u.decls, &decl{storage: st, typ: typ, name: nt.text, location: loc, line: nt.line})
}

func (p *parser) mainFunc() {
	p.next()
	nt := p.ident()
	if nt.text != "main" {
		p.fail(nt, "only the main function is supported, found '%s'", nt.text)
	}
	p.expect("(")
	if p.peek().text == "void" {
		p.next()
	}
	p.expect(")")
	p.expect("{")
	locals := make(map[string]glslType)
	for p.peek().text != "}" {
		if p.peek().kind == tkEOF {
			p.fail(p.peek(), "syntax error, unexpected end of file, expecting '}'")
		}
		p.statement(locals)
	}
	p.next()
}

func (p *parser) statement(locals map[string]glslType) {
	st := &stmt{op: "="}
	t := p.ident()
	st.line = t.line
	if typ, ok := typeNames[t.text]; ok {
		st.declType = typ
		t = p.ident()
		if _, dup := locals[t.text]; dup {
			p.fail(t, "'%s' redeclared", t.text)
		}
	}
	st.target = t.text
	ttyp := st.declType
	if ttyp == tNone {
		ttyp = p.lvalueType(t, locals)
	}
	st.typ = ttyp
	if p.peek().text == "." {
		if st.declType != tNone {
			p.fail(p.peek(), "syntax error, unexpected '.'")
		}
		p.next()
		sw := p.ident()
		idx, ok := swizzleIndexes(sw.text, ttyp.size())
		if !ok {
			p.fail(sw, "invalid swizzle '%s' of %s", sw.text, ttyp)
		}
		st.swizzle = idx
		ttyp = vecType(len(idx))
	}
	opt := p.next()
	switch opt.text {
	case "=", "+=", "-=", "*=":
		st.op = opt.text
	default:
		p.fail(opt, "syntax error, unexpected %s, expecting '='", quoteTok(opt.text))
	}
	if st.declType != tNone && st.op != "=" {
		p.fail(opt, "syntax error, unexpected '%s'", opt.text)
	}
	st.value = p.expr(locals)
	if st.op != "=" {
		var cur node = &varNode{name: st.target, typ: p.targetType(st.target, locals)}
		if st.swizzle != nil {
			cur = &swizzleNode{x: cur, idx: st.swizzle}
		}
		st.value = p.binary(token{text: st.op[:1], line: opt.line, col: opt.col}, cur, st.value)
		st.op = "="
	}
	vt := st.value.typeOf()
	if !assignable(ttyp, vt) {
		p.fail(opt, "cannot convert from '%s' to '%s'", vt, ttyp)
	}
	p.expect(";")
	if st.declType != tNone {
		locals[st.target] = st.declType
	}
	p.u.body = append(p.u.body, st)
}

// lvalueType returns the type of an assignable name.
func (p *parser) lvalueType(t token, locals map[string]glslType) glslType {
	if t.text == "gl_Position" {
		return tVec4
	}
	if typ, ok := locals[t.text]; ok {
		return typ
	}
	d := p.u.decl(t.text)
	if d == nil {
		p.fail(t, "'%s' undeclared", t.text)
	}
	if d.storage != out {
		p.fail(t, "assignment to read-only variable '%s'", t.text)
	}
	p.u.used[d.name] = true
	return d.typ
}

// targetType returns the full type of an already checked assignment target.
func (p *parser) targetType(name string, locals map[string]glslType) glslType {
	if name == "gl_Position" {
		return tVec4
	}
	if typ, ok := locals[name]; ok {
		return typ
	}
	return p.u.decl(name).typ
}

func assignable(to, from glslType) bool {
	if to == from {
		return true
	}
	return to.scalar() && from.scalar() && to != tBool && from != tBool
}

var swizzleSets = []string{"xyzw", "rgba", "stpq"}

func swizzleIndexes(sw string, n int) ([]int, bool) {
	if n < 2 || n > 4 || len(sw) == 0 || len(sw) > 4 {
		return nil, false
	}
	for _, set := range swizzleSets {
		idx := make([]int, 0, len(sw))
		for _, c := range sw {
			i := strings.IndexRune(set, c)
			if i < 0 || i >= n {
				idx = nil
				break
			}
			idx = append(idx, i)
		}
		if idx != nil {
			return idx, true
		}
	}
	return nil, false
}

///////////////////////////////////////////////////////////
// Expressions

func (p *parser) expr(locals map[string]glslType) node {
	return p.additive(locals)
}

func (p *parser) additive(locals map[string]glslType) node {
	n := p.multiplicative(locals)
	for p.peek().text == "+" || p.peek().text == "-" {
		op := p.next()
		r := p.multiplicative(locals)
		n = p.binary(op, n, r)
	}
	return n
}

func (p *parser) multiplicative(locals map[string]glslType) node {
	n := p.unary(locals)
	for p.peek().text == "*" || p.peek().text == "/" {
		op := p.next()
		r := p.unary(locals)
		n = p.binary(op, n, r)
	}
	return n
}

func (p *parser) binary(op token, l, r node) node {
	lt, rt := l.typeOf(), r.typeOf()
	var typ glslType
	switch {
	case lt == tSampler2D || rt == tSampler2D || lt == tBool || rt == tBool:
		typ = tNone
	case lt == rt:
		typ = lt
	case lt.scalar() && rt.scalar():
		typ = tFloat
	case lt.scalar():
		typ = rt
	case rt.scalar():
		typ = lt
	case op.text == "*" && lt == tMat4 && rt == tVec4:
		typ = tVec4
	}
	if typ == tNone {
		p.fail(op, "operands to arithmetic operators must be numeric, found '%s' %s '%s'", lt, op.text, rt)
	}
	return &binaryNode{op: op.text[0], l: l, r: r, typ: typ}
}

func (p *parser) unary(locals map[string]glslType) node {
	if p.peek().text == "-" {
		op := p.next()
		n := p.unary(locals)
		return p.binary(op, &numNode{v: 0, typ: tFloat}, n)
	}
	if p.peek().text == "+" {
		p.next()
	}
	return p.postfix(locals)
}

func (p *parser) postfix(locals map[string]glslType) node {
	n := p.primary(locals)
	for p.peek().text == "." {
		p.next()
		sw := p.ident()
		idx, ok := swizzleIndexes(sw.text, n.typeOf().size())
		if !ok {
			p.fail(sw, "invalid swizzle or field '%s' of %s", sw.text, n.typeOf())
		}
		n = &swizzleNode{x: n, idx: idx}
	}
	return n
}

func (p *parser) primary(locals map[string]glslType) node {
	t := p.next()
	switch {
	case t.kind == tkNumber:
		v, err := strconv.ParseFloat(t.text, 32)
		if err != nil {
			p.fail(t, "invalid number '%s'", t.text)
		}
		typ := tFloat
		if !strings.ContainsAny(t.text, ".eE") {
			typ = tInt
		}
		return &numNode{v: float32(v), typ: typ}
	case t.text == "true" || t.text == "false":
		v := float32(0)
		if t.text == "true" {
			v = 1
		}
		return &numNode{v: v, typ: tBool}
	case t.text == "(":
		n := p.expr(locals)
		p.expect(")")
		return n
	case t.kind == tkIdent:
		if p.peek().text == "(" {
			return p.call(t, locals)
		}
		if typ, ok := locals[t.text]; ok {
			return &varNode{name: t.text, typ: typ}
		}
		if t.text == "gl_Position" {
			return &varNode{name: t.text, typ: tVec4}
		}
		d := p.u.decl(t.text)
		if d == nil {
			p.fail(t, "'%s' undeclared", t.text)
		}
		p.u.used[d.name] = true
		return &varNode{name: d.name, typ: d.typ}
	}
	found := t.text
	if t.kind == tkEOF {
		found = "end of file"
	}
	p.fail(t, "syntax error, unexpected %s", quoteTok(found))
	return nil
}

func (p *parser) call(fn token, locals map[string]glslType) node {
	p.expect("(")
	var args []node
	if p.peek().text != ")" {
		for {
			args = append(args, p.expr(locals))
			if p.peek().text != "," {
				break
			}
			p.next()
		}
	}
	p.expect(")")
	cn := &callNode{fn: fn.text, args: args}
	if typ, ok := typeNames[fn.text]; ok {
		cn.typ = typ
		p.checkConstructor(fn, typ, args)
		return cn
	}
	nargs := func(n int) {
		if len(args) != n {
			p.fail(fn, "no matching function for call to '%s' with %d arguments", fn.text, len(args))
		}
	}
	switch fn.text {
	case "texture":
		nargs(2)
		if args[0].typeOf() != tSampler2D || args[1].typeOf() != tVec2 {
			p.fail(fn, "no matching function for call to 'texture(%s, %s)'", args[0].typeOf(), args[1].typeOf())
		}
		cn.typ = tVec4
	case "mix", "clamp":
		nargs(3)
		a, b, c := args[0].typeOf(), args[1].typeOf(), args[2].typeOf()
		if fn.text == "mix" && (a != b || (c != a && !c.scalar())) {
			p.fail(fn, "no matching function for call to 'mix(%s, %s, %s)'", a, b, c)
		}
		if fn.text == "clamp" && ((b != a && !b.scalar()) || (c != a && !c.scalar())) {
			p.fail(fn, "no matching function for call to 'clamp(%s, %s, %s)'", a, b, c)
		}
		cn.typ = a
	case "sin", "cos", "abs", "fract":
		nargs(1)
		a := args[0].typeOf()
		if a.size() < 1 || a.size() > 4 || a == tBool {
			p.fail(fn, "no matching function for call to '%s(%s)'", fn.text, a)
		}
		cn.typ = a
		if a == tInt {
			cn.typ = tFloat
		}
	default:
		p.fail(fn, "no function with name '%s'", fn.text)
	}
	return cn
}

func (p *parser) checkConstructor(fn token, typ glslType, args []node) {
	if typ == tSampler2D {
		p.fail(fn, "cannot construct opaque type 'sampler2D'")
	}
	if len(args) == 0 {
		p.fail(fn, "too few arguments to constructor of '%s'", typ)
	}
	if len(args) == 1 && args[0].typeOf().size() > 0 {
		at := args[0].typeOf()
		if at.scalar() || at.size() >= typ.size() {
			return
		}
	}
	sum := 0
	for _, a := range args {
		at := a.typeOf()
		if at == tSampler2D || at == tMat4 {
			p.fail(fn, "cannot construct '%s' from '%s'", typ, at)
		}
		sum += at.size()
	}
	if sum < typ.size() {
		p.fail(fn, "too few components to construct '%s'", typ)
	}
	if sum-args[len(args)-1].typeOf().size() >= typ.size() {
		p.fail(fn, "too many arguments to constructor of '%s'", typ)
	}
}
