// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sandbox

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cogentcore.org/core/base/iox/imagex"
	"cogentcore.org/core/math32"
	"cogentcore.org/glsandbox/config"
	"cogentcore.org/glsandbox/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vertSrc = `#version 330 core
layout (location = 0) in vec3 aPos;
layout (location = 2) in vec2 aTexCoord;
uniform mat4 transform;
out vec2 texCoord;
void main() {
	gl_Position = transform * vec4(aPos, 1.0);
	texCoord = aTexCoord;
}
`

const fragSrc = `#version 330 core
in vec2 texCoord;
uniform sampler2D texture1;
out vec4 FragColor;
void main() {
	FragColor = texture(texture1, texCoord);
}
`

func headless(t *testing.T) *config.Config {
	cfg := config.Defaults()
	cfg.Headless = true
	cfg.Width, cfg.Height = 64, 64
	cfg.Filter = "nearest"
	return cfg
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fn, []byte(content), 0o644))
	return fn
}

func TestHeadlessOutput(t *testing.T) {
	cfg := headless(t)
	cfg.Output = filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, Run(cfg))

	img, f, err := imagex.Open(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, imagex.PNG, f)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
	at := func(x, y int) color.RGBA {
		return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	}
	assert.Equal(t, color.RGBA{60, 40, 20, 255}, at(32, 32), "checkerboard texel")
	assert.Equal(t, color.RGBA{51, 77, 77, 255}, at(0, 0), "clear color")
}

func TestTextureFile(t *testing.T) {
	dir := t.TempDir()
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{uint8(x * 60), uint8(y * 60), 100, 255})
		}
	}
	fn := filepath.Join(dir, "grid.png")
	require.NoError(t, imagex.Save(src, fn))

	cfg := headless(t)
	cfg.Textures = []config.Texture{{Path: fn}}
	app, err := New(cfg)
	require.NoError(t, err)
	defer app.Release()
	require.Len(t, app.Driver.Bindings, 1)
	assert.Equal(t, "texture1", app.Driver.Bindings[0].Sampler)
	require.NoError(t, app.Run())

	// flipped, so texture row 2 is image row 1
	assert.Equal(t, []byte{120, 60, 100, 255}, app.Soft.ReadPixels(32, 32, 1, 1))
	require.Len(t, app.Context.State.Draws, 1)
	assert.Equal(t, 2, app.Context.State.Draws[0].NTriangles())
}

func TestMissingTexture(t *testing.T) {
	cfg := headless(t)
	cfg.Textures = []config.Texture{{Path: filepath.Join(t.TempDir(), "missing.jpg")}}
	app, err := New(cfg)
	require.NoError(t, err, "decode errors are not fatal")
	defer app.Release()
	require.NoError(t, app.Run())
	assert.Equal(t, []byte{0, 0, 0, 255}, app.Soft.ReadPixels(32, 32, 1, 1), "blank texture")
	assert.Equal(t, 1, app.Driver.Frames)
}

func TestFatalErrors(t *testing.T) {
	dir := t.TempDir()
	vert := writeFile(t, dir, "quad.vert", vertSrc)
	bad := writeFile(t, dir, "bad.frag", "#version 330 core\nout vec4 c;\nvoid main() {\n c = vec4(1.0)\n}\n")

	cfg := headless(t)
	cfg.Vertex, cfg.Fragment = vert, bad
	err := Run(cfg)
	var ce *gpu.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, bad, ce.Name)
	assert.True(t, gpu.IsFatal(err))

	cfg.Fragment = filepath.Join(dir, "missing.frag")
	err = Run(cfg)
	var fe *gpu.FileReadError
	require.ErrorAs(t, err, &fe)
	assert.True(t, gpu.IsFatal(err))

	cfg = headless(t)
	cfg.Program = "phong"
	assert.Error(t, Run(cfg))

	cfg = headless(t)
	cfg.Width = -1
	assert.Error(t, Run(cfg))
}

func TestAnimate(t *testing.T) {
	cfg := headless(t)
	cfg.Animate = true
	app, err := New(cfg)
	require.NoError(t, err)
	defer app.Release()
	require.NoError(t, app.Run())
	v, ok := app.Soft.Uniform(app.Driver.Program.Handle(), "transform")
	require.True(t, ok)
	assert.Equal(t, Transform(0)[:], v)
	assert.Equal(t, []string{"mixValue", "ourColor", "texture2"}, app.Driver.Program.Missing())
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	cfg := headless(t)
	cfg.Watch = true
	cfg.Vertex = writeFile(t, dir, "quad.vert", vertSrc)
	cfg.Fragment = writeFile(t, dir, "quad.frag", fragSrc)
	app, err := New(cfg)
	require.NoError(t, err)
	defer app.Release()
	require.NotNil(t, app.Driver.Reloader)

	writeFile(t, dir, "quad.frag", "#version 330 core\nout vec4 FragColor;\nvoid main() {\n FragColor = vec4(1.0, 0.0, 1.0, 1.0);\n}\n")
	assert.Eventually(t, app.Driver.Reloader.Changed, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, app.Driver.Reload())
	require.NoError(t, app.Driver.RenderFrame())
	assert.Equal(t, []byte{255, 0, 255, 255}, app.Soft.ReadPixels(32, 32, 1, 1))
}

func TestTransform(t *testing.T) {
	m := Transform(math32.Pi / 2)
	x := m[0]*1 + m[4]*0 + m[12]
	y := m[1]*1 + m[5]*0 + m[13]
	assert.InDelta(t, 0.5, x, 1e-6)
	assert.InDelta(t, 0.5, y, 1e-6)
	assert.Equal(t, float32(0.5), Pulse(0))
}

func TestCheckerboard(t *testing.T) {
	a, b := [3]byte{1, 2, 3}, [3]byte{4, 5, 6}
	pix := Checkerboard(4, 2, a, b)
	assert.Len(t, pix, 4*4*3)
	assert.Equal(t, a[:], pix[0:3])
	assert.Equal(t, b[:], pix[2*3:3*3])
	assert.Equal(t, b[:], pix[(2*4)*3:(2*4)*3+3])
	assert.Equal(t, a[:], pix[(2*4+2)*3:(2*4+2)*3+3])
}
