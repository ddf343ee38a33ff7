// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package softgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVert = `#version 330 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec2 aTexCoord;
uniform mat4 transform;
out vec2 texCoord;
void main() {
	gl_Position = transform * vec4(aPos, 1.0);
	texCoord = aTexCoord;
}
`

func TestParseValid(t *testing.T) {
	u, errs := parse(testVert)
	require.Empty(t, errs)
	assert.Equal(t, 330, u.version)
	assert.Len(t, u.declsOf(in), 2)
	assert.Len(t, u.declsOf(out), 1)
	assert.Equal(t, 1, u.decl("aTexCoord").location)
	assert.True(t, u.used["transform"])
	assert.Len(t, u.body, 2)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"no version", "in vec3 a;\nvoid main() {}\n", "#version directive must come before"},
		{"missing semicolon", "#version 330 core\nout vec4 c;\nvoid main() {\n c = vec4(1.0)\n}\n", "syntax error"},
		{"undeclared", "#version 330 core\nin vec2 aTexCoord;\nout vec2 texCoord;\nvoid main() {\n textCoord = aTexCoord;\n}\n", "'textCoord' undeclared"},
		{"type mismatch", "#version 330 core\nin vec3 a;\nout vec2 b;\nvoid main() {\n b = a;\n}\n", "cannot convert from 'vec3' to 'vec2'"},
		{"no main", "#version 330 core\nout vec4 c;\n", "main() function not defined"},
		{"bad swizzle", "#version 330 core\nin vec2 a;\nout vec4 c;\nvoid main() {\n c = vec4(a.xyz, 1.0);\n}\n", "invalid swizzle"},
		{"assign input", "#version 330 core\nin vec4 a;\nvoid main() {\n a = vec4(1.0);\n}\n", "read-only"},
		{"unterminated precision", "#version 330 core\nprecision highp float", "unexpected end of file, expecting ';'"},
		{"unknown function", "#version 330 core\nout vec4 c;\nvoid main() {\n c = foo(1.0);\n}\n", "no function with name 'foo'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, errs := parse(tt.src)
			assert.Nil(t, u)
			require.NotEmpty(t, errs)
			assert.Contains(t, errs[0].Error(), tt.msg)
			assert.Contains(t, errs[0].Error(), "0:")
		})
	}
}

func TestParseErrorLine(t *testing.T) {
	_, errs := parse("#version 330 core\nout vec4 c;\nvoid main() {\n c = vec4(1.0, 2.0);\n}\n")
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "0:4(")
}

func TestEval(t *testing.T) {
	src := `#version 330 core
in vec2 uv;
uniform float k;
out vec4 color;
void main() {
	vec3 base = vec3(uv, 0.5);
	color = vec4(base * k, 1.0);
	color.z = mix(0.0, 1.0, 0.25);
	color *= 2.0;
}
`
	u, errs := parse(src)
	require.Empty(t, errs)
	e := &env{vars: map[string]value{
		"uv": {n: 2, v: [16]float32{0.25, 0.5}},
		"k":  scalarValue(2),
	}}
	exec(u.body, e)
	c := e.vars["color"]
	assert.Equal(t, 4, c.n)
	assert.InDeltaSlice(t, []float32{1, 2, 0.5, 2}, c.v[:4], 1e-6)
}

func TestMatVec(t *testing.T) {
	// translate by (1, 2, 3), column-major
	m := value{n: 16, v: [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 1, 2, 3, 1}}
	v := value{n: 4, v: [16]float32{1, 1, 1, 1}}
	r := mulMatVec(m, v)
	assert.Equal(t, []float32{2, 3, 4, 1}, r.v[:4])

	id := construct(tMat4, []value{scalarValue(1)})
	assert.Equal(t, m.v, mulMatMat(id, m).v)
}
