// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"log/slog"

	"cogentcore.org/core/math32"
)

// UniformLocation returns the location of the named uniform,
// or a [*UniformNotFoundError] if the program has no such
// active uniform.
func (pr *Program) UniformLocation(name string) (int32, error) {
	if pr.CacheLocations {
		if loc, ok := pr.locations[name]; ok {
			return pr.checkLocation(name, loc)
		}
	}
	loc := pr.ctx.GL.GetUniformLocation(pr.handle, name)
	if pr.CacheLocations {
		if pr.locations == nil {
			pr.locations = make(map[string]int32)
		}
		pr.locations[name] = loc
	}
	return pr.checkLocation(name, loc)
}

func (pr *Program) checkLocation(name string, loc int32) (int32, error) {
	if loc >= 0 {
		return loc, nil
	}
	return -1, &UniformNotFoundError{Program: pr.Name, Name: name}
}

// location resolves the uniform for a setter, making the program
// current first. It returns false if the uniform does not exist,
// which is recorded and logged once per name.
func (pr *Program) location(name string) (int32, bool) {
	if pr.handle == 0 {
		slog.Error("gpu.Program: set uniform on released program", "program", pr.Name, "uniform", name)
		return -1, false
	}
	loc, err := pr.UniformLocation(name)
	if err != nil {
		if !pr.missing[name] {
			if pr.missing == nil {
				pr.missing = make(map[string]bool)
			}
			pr.missing[name] = true
			slog.Debug("gpu.Program: uniform not found", "program", pr.Name, "uniform", name)
		}
		return -1, false
	}
	if !pr.IsCurrent() {
		pr.Use()
	}
	return loc, true
}

// SetBool sets the named bool uniform. Unknown names are a no-op.
func (pr *Program) SetBool(name string, value bool) {
	v := int32(0)
	if value {
		v = 1
	}
	if loc, ok := pr.location(name); ok {
		pr.ctx.GL.Uniform1i(loc, v)
	}
}

// SetInt sets the named int (or sampler) uniform. Unknown names are a no-op.
func (pr *Program) SetInt(name string, value int) {
	if loc, ok := pr.location(name); ok {
		pr.ctx.GL.Uniform1i(loc, int32(value))
	}
}

// SetFloat sets the named float uniform. Unknown names are a no-op.
func (pr *Program) SetFloat(name string, value float32) {
	if loc, ok := pr.location(name); ok {
		pr.ctx.GL.Uniform1f(loc, value)
	}
}

// SetVector2 sets the named vec2 uniform. Unknown names are a no-op.
func (pr *Program) SetVector2(name string, v math32.Vector2) {
	if loc, ok := pr.location(name); ok {
		pr.ctx.GL.Uniform2f(loc, v.X, v.Y)
	}
}

// SetVector3 sets the named vec3 uniform. Unknown names are a no-op.
func (pr *Program) SetVector3(name string, v math32.Vector3) {
	if loc, ok := pr.location(name); ok {
		pr.ctx.GL.Uniform3f(loc, v.X, v.Y, v.Z)
	}
}

// SetVector4 sets the named vec4 uniform. Unknown names are a no-op.
func (pr *Program) SetVector4(name string, v math32.Vector4) {
	if loc, ok := pr.location(name); ok {
		pr.ctx.GL.Uniform4f(loc, v.X, v.Y, v.Z, v.W)
	}
}

// SetMatrix4 sets the named mat4 uniform, in column-major order.
// Unknown names are a no-op.
func (pr *Program) SetMatrix4(name string, m *math32.Matrix4) {
	if loc, ok := pr.location(name); ok {
		pr.ctx.GL.UniformMatrix4fv(loc, (*[16]float32)(m))
	}
}
