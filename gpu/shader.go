// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"log/slog"
)

// Shader is a single compiled shader stage. Stages are transient:
// they exist only until they are linked into a [Program].
type Shader struct {
	// Name is the unique name of this shader, typically its file name.
	Name string

	// Type is the stage of the shader.
	Type ShaderTypes

	// handle is the GL shader object, 0 once deleted.
	handle uint32

	// src is the source code that was compiled.
	src string

	ctx *Context
}

// CompileShader compiles given source code as a shader stage of given type.
// On failure the stage is deleted and a [*CompileError] with the
// (bounded) compiler info log is returned.
func CompileShader(ctx *Context, typ ShaderTypes, name, src string) (*Shader, error) {
	if ctx == nil {
		return nil, ErrNoContext
	}
	gl := ctx.GL
	handle := gl.CreateShader(typ)
	gl.ShaderSource(handle, src)
	gl.CompileShader(handle)
	if !gl.ShaderCompiled(handle) {
		lg := gl.ShaderInfoLog(handle, MaxInfoLog)
		gl.DeleteShader(handle)
		if lg == "" {
			lg = "(no info log)"
		}
		err := &CompileError{Stage: typ, Name: name, Log: lg}
		slog.Error("gpu.CompileShader", "stage", typ, "name", name, "log", lg)
		return nil, err
	}
	return &Shader{Name: name, Type: typ, handle: handle, src: src, ctx: ctx}, nil
}

// Handle returns the GL handle for this shader, 0 if deleted.
func (sh *Shader) Handle() uint32 {
	return sh.handle
}

// Source returns the source code that was compiled.
func (sh *Shader) Source() string {
	return sh.src
}

// Delete deletes the shader object.
func (sh *Shader) Delete() {
	if sh.handle == 0 {
		return
	}
	sh.ctx.GL.DeleteShader(sh.handle)
	sh.handle = 0
}
