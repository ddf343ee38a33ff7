// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"errors"
	"fmt"
)

// MaxInfoLog is the maximum number of bytes of a compile
// or link info log that is retained in an error.
const MaxInfoLog = 512

// FileReadError is returned when a shader source or asset
// file cannot be read.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("gpu: could not read %q: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// CompileError is returned when a shader stage fails to compile.
type CompileError struct {
	Stage ShaderTypes

	// Name is the name of the shader, typically its file name.
	Name string

	// Log is the compiler info log.
	Log string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("gpu: %s shader %q failed to compile:\n%s", e.Stage, e.Name, e.Log)
}

// LinkError is returned when a program fails to link.
type LinkError struct {
	Program string

	// Log is the linker info log.
	Log string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("gpu: program %q failed to link:\n%s", e.Program, e.Log)
}

// UniformNotFoundError is returned by [Program.UniformLocation]
// when the program has no active uniform of that name.
// The uniform setters treat it as a no-op.
type UniformNotFoundError struct {
	Program string
	Name    string
}

func (e *UniformNotFoundError) Error() string {
	return fmt.Sprintf("gpu: uniform %q not found in program %q", e.Name, e.Program)
}

// TextureDecodeError is returned when the pixel data for a texture
// could not be decoded. It is recoverable: the texture exists but
// has no contents.
type TextureDecodeError struct {
	Path string
	Err  error
}

func (e *TextureDecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("gpu: no pixel data: %v", e.Err)
	}
	return fmt.Sprintf("gpu: could not decode texture %q: %v", e.Path, e.Err)
}

func (e *TextureDecodeError) Unwrap() error { return e.Err }

// FormatMismatchError is returned when a texture upload format
// does not match the channel count of the pixel data.
type FormatMismatchError struct {
	Channels int
	Format   TextureFormats
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("gpu: %d-channel pixel data cannot be uploaded as %s", e.Channels, e.Format)
}

// IsFatal returns true for errors that leave the program
// unusable: file read, compile and link errors.
func IsFatal(err error) bool {
	var fe *FileReadError
	var ce *CompileError
	var le *LinkError
	return errors.As(err, &fe) || errors.As(err, &ce) || errors.As(err, &le)
}
