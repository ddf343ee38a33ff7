// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shaders provides the built-in GLSL 3.30 core sources
// used when no shader files are configured.
package shaders

import "embed"

// Content has the embedded shader sources, loadable with
// [gpu.OpenProgram]:
//
//   - texture.vert: position, color and texture coordinate inputs,
//     transformed by the "transform" uniform.
//   - texture.frag: samples "texture1".
//   - mix.frag: blends "texture1" and "texture2" by "mixValue".
//   - color.vert, color.frag: flat "ourColor" uniform, no textures.
//
//go:embed *.vert *.frag *.glsl
var Content embed.FS

// Sets maps the built-in program names to their
// vertex and fragment file names in [Content].
var Sets = map[string][2]string{
	"texture": {"texture.vert", "texture.frag"},
	"mix":     {"texture.vert", "mix.frag"},
	"color":   {"color.vert", "color.frag"},
}
