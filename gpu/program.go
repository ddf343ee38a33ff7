// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
)

// Program is a linked shader program: a vertex and a fragment stage
// combined into one GL program object. A Program is only ever
// returned fully linked; construction failures return an error
// and no Program.
type Program struct {
	// Name of the program, for diagnostics.
	Name string

	// CacheLocations, if set, caches uniform locations by name
	// instead of resolving them on every set call.
	CacheLocations bool

	handle    uint32
	ctx       *Context
	locations map[string]int32

	// missing are uniform names that did not resolve.
	missing map[string]bool
}

// LinkProgram links the given compiled vertex and fragment stages
// into a new program. The stages are detached and deleted in all
// cases. On failure the program object is deleted and a
// [*LinkError] with the (bounded) linker info log is returned.
func LinkProgram(ctx *Context, name string, vert, frag *Shader) (*Program, error) {
	if ctx == nil {
		return nil, ErrNoContext
	}
	gl := ctx.GL
	handle := gl.CreateProgram()
	gl.AttachShader(handle, vert.handle)
	gl.AttachShader(handle, frag.handle)
	gl.LinkProgram(handle)
	linked := gl.ProgramLinked(handle)

	for _, sh := range []*Shader{vert, frag} {
		gl.DetachShader(handle, sh.handle)
		sh.Delete()
	}

	if !linked {
		lg := gl.ProgramInfoLog(handle, MaxInfoLog)
		gl.DeleteProgram(handle)
		if lg == "" {
			lg = "(no info log)"
		}
		slog.Error("gpu.LinkProgram", "program", name, "log", lg)
		return nil, &LinkError{Program: name, Log: lg}
	}
	return &Program{Name: name, handle: handle, ctx: ctx}, nil
}

// NewProgram compiles the given vertex and fragment sources and
// links them into a new program. Linking is never attempted when
// either stage fails to compile.
func NewProgram(ctx *Context, name, vertSrc, fragSrc string) (*Program, error) {
	return buildProgram(ctx, name, name+".vert", vertSrc, name+".frag", fragSrc)
}

// OpenProgram reads the vertex and fragment shader sources from
// given file system, expands #include lines relative to each file,
// and builds a new program with [NewProgram]. File read failures
// return a [*FileReadError].
func OpenProgram(ctx *Context, name string, fsys fs.FS, vertPath, fragPath string) (*Program, error) {
	vsrc, err := ReadSource(fsys, vertPath)
	if err != nil {
		return nil, err
	}
	fsrc, err := ReadSource(fsys, fragPath)
	if err != nil {
		return nil, err
	}
	return buildProgram(ctx, name, vertPath, vsrc, fragPath, fsrc)
}

// OpenProgramFiles is [OpenProgram] for shader files on the host
// file system, which may be in different directories. Includes
// are resolved relative to the including file.
func OpenProgramFiles(ctx *Context, name, vertPath, fragPath string) (*Program, error) {
	vsrc, err := readFile(vertPath)
	if err != nil {
		return nil, err
	}
	fsrc, err := readFile(fragPath)
	if err != nil {
		return nil, err
	}
	return buildProgram(ctx, name, vertPath, vsrc, fragPath, fsrc)
}

func readFile(fpath string) (string, error) {
	src, err := ReadSource(os.DirFS(filepath.Dir(fpath)), filepath.Base(fpath))
	if fe, ok := err.(*FileReadError); ok {
		fe.Path = fpath
	}
	return src, err
}

// buildProgram compiles both stages, named by their paths,
// and links them.
func buildProgram(ctx *Context, name, vertPath, vsrc, fragPath, fsrc string) (*Program, error) {
	vert, err := CompileShader(ctx, VertexShader, vertPath, vsrc)
	if err != nil {
		return nil, err
	}
	frag, err := CompileShader(ctx, FragmentShader, fragPath, fsrc)
	if err != nil {
		vert.Delete()
		return nil, err
	}
	return LinkProgram(ctx, name, vert, frag)
}

// ReadSource reads the shader source file at given path in fsys
// and expands any #include "file" lines.
func ReadSource(fsys fs.FS, fpath string) (string, error) {
	b, err := fs.ReadFile(fsys, fpath)
	if err != nil {
		return "", &FileReadError{Path: fpath, Err: err}
	}
	return IncludeFS(fsys, path.Dir(fpath), string(b)), nil
}

// Handle returns the GL handle for the program.
func (pr *Program) Handle() uint32 {
	return pr.handle
}

// Use makes this the current program for subsequent draw calls.
func (pr *Program) Use() {
	if pr.handle == 0 {
		slog.Error("gpu.Program Use: program has been released", "program", pr.Name)
		return
	}
	pr.ctx.UseProgram(pr.handle)
}

// IsCurrent returns true if this is the current program.
func (pr *Program) IsCurrent() bool {
	return pr.handle != 0 && pr.ctx.State.Program == pr.handle
}

// Release deletes the GL program. The Program cannot be used after this.
func (pr *Program) Release() {
	if pr.handle == 0 {
		return
	}
	if pr.ctx.State.Program == pr.handle {
		pr.ctx.UseProgram(0)
	}
	pr.ctx.GL.DeleteProgram(pr.handle)
	pr.handle = 0
	pr.locations = nil
}

// Missing returns the sorted names of uniforms that were set
// but do not exist in the program.
func (pr *Program) Missing() []string {
	nms := make([]string, 0, len(pr.missing))
	for nm := range pr.missing {
		nms = append(nms, nm)
	}
	sort.Strings(nms)
	return nms
}
