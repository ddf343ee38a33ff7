// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame_test

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cogentcore.org/core/math32"
	"cogentcore.org/glsandbox/frame"
	"cogentcore.org/glsandbox/gpu"
	"cogentcore.org/glsandbox/gpu/softgpu"
	"cogentcore.org/glsandbox/shaders"
	"cogentcore.org/glsandbox/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quad = []float32{
	0.5, 0.5, 0, 1, 0, 0, 1, 1,
	0.5, -0.5, 0, 0, 1, 0, 1, 0,
	-0.5, -0.5, 0, 0, 0, 1, 0, 0,
	-0.5, 0.5, 0, 1, 1, 0, 0, 1,
}

var quadIndexes = []uint32{0, 1, 3, 1, 2, 3}

var quadLayout = []gpu.Attrib{
	{Index: 0, Size: 3, Offset: 0},
	{Index: 1, Size: 3, Offset: 3},
	{Index: 2, Size: 2, Offset: 6},
}

type fixture struct {
	sg  *softgpu.GL
	ctx *gpu.Context
	win *window.Offscreen
	drv *frame.Driver
}

func program(t *testing.T, ctx *gpu.Context, name string) *gpu.Program {
	t.Helper()
	set := shaders.Sets[name]
	pr, err := gpu.OpenProgram(ctx, name, shaders.Content, set[0], set[1])
	require.NoError(t, err)
	return pr
}

// pixels returns a w x h RGB image with distinct texels,
// offset by seed.
func pixels(w, h int, seed byte) []byte {
	pix := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		pix[i*3] = seed + byte(i*20)
		pix[i*3+1] = 255 - seed - byte(i*20)
		pix[i*3+2] = seed + byte(i*10)
	}
	return pix
}

func texture(t *testing.T, ctx *gpu.Context, pix []byte) *gpu.Texture {
	t.Helper()
	opts := gpu.DefaultTextureOptions()
	opts.MinFilter, opts.MagFilter = gpu.Nearest, gpu.Nearest
	tx := gpu.NewTexture(ctx, "3x3", opts)
	require.NoError(t, tx.Create(pix, 3, 3, 3))
	return tx
}

func newFixture(t *testing.T, size, frames int, prog string) *fixture {
	t.Helper()
	fx := &fixture{sg: softgpu.New(size, size)}
	fx.ctx = gpu.NewContext(fx.sg)
	fx.win = window.NewOffscreen(image.Point{size, size}, frames)
	gm := gpu.NewGeometry(fx.ctx, "quad")
	require.NoError(t, gm.Upload(quad, quadIndexes, 8, quadLayout))
	fx.drv = &frame.Driver{
		Context:    fx.ctx,
		Window:     fx.win,
		Program:    program(t, fx.ctx, prog),
		Geometry:   gm,
		ClearColor: math32.Vec4(0.2, 0.3, 0.3, 1),
		Uniforms: func(d *frame.Driver) {
			d.Program.SetMatrix4("transform", math32.Identity4())
		},
	}
	return fx
}

func TestRenderFrame(t *testing.T) {
	fx := newFixture(t, 64, 0, "texture")
	pix := pixels(3, 3, 0)
	tx := texture(t, fx.ctx, pix)
	fx.drv.Bindings = []frame.Binding{{Texture: tx, Unit: 0, Sampler: "texture1"}}
	require.NoError(t, fx.drv.Init())
	assert.Equal(t, frame.Ready, fx.drv.State)
	assert.Equal(t, image.Rect(0, 0, 64, 64), fx.ctx.State.Viewport)

	require.NoError(t, fx.drv.RenderFrame())
	assert.Equal(t, 1, fx.drv.Frames)
	assert.Equal(t, 1, fx.win.Frames())

	require.Len(t, fx.ctx.State.Draws, 1)
	dc := fx.ctx.State.Draws[0]
	assert.True(t, dc.Indexed)
	assert.Equal(t, 2, dc.NTriangles())
	assert.Equal(t, fx.drv.Program.Handle(), dc.Program)
	assert.Equal(t, map[int]uint32{0: tx.Handle()}, dc.Textures)

	center := fx.sg.ReadPixels(32, 32, 1, 1)
	assert.Equal(t, []byte{pix[12], pix[13], pix[14], 255}, center)
	corner := fx.sg.ReadPixels(0, 63, 1, 1)
	assert.Equal(t, []byte{51, 77, 77, 255}, corner)
}

func TestTwoTextures(t *testing.T) {
	fx := newFixture(t, 64, 0, "mix")
	a := pixels(3, 3, 0)
	b := pixels(3, 3, 7)
	fx.drv.Bindings = []frame.Binding{
		{Texture: texture(t, fx.ctx, a), Unit: 0, Sampler: "texture1"},
		{Texture: texture(t, fx.ctx, b), Unit: 1, Sampler: "texture2"},
	}
	fx.drv.Uniforms = func(d *frame.Driver) {
		d.Program.SetMatrix4("transform", math32.Identity4())
		d.Program.SetFloat("mixValue", 1)
	}
	require.NoError(t, fx.drv.Init())
	require.NoError(t, fx.drv.RenderFrame())
	assert.Len(t, fx.ctx.State.Draws[0].Textures, 2)
	center := fx.sg.ReadPixels(32, 32, 1, 1)
	assert.Equal(t, []byte{b[12], b[13], b[14], 255}, center)
}

func TestRun(t *testing.T) {
	fx := newFixture(t, 16, 3, "color")
	calls := 0
	fx.drv.Uniforms = func(d *frame.Driver) {
		calls++
		d.Program.SetVector4("ourColor", math32.Vec4(0, 1, 0, 1))
		d.Program.SetMatrix4("transform", math32.Identity4())
	}
	assert.Error(t, fx.drv.Run(), "Run before Init")
	assert.Error(t, fx.drv.RenderFrame(), "RenderFrame before Init")

	require.NoError(t, fx.drv.Init())
	require.NoError(t, fx.drv.Run())
	assert.Equal(t, frame.Terminated, fx.drv.State)
	assert.Equal(t, 3, fx.drv.Frames)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{"transform"}, fx.drv.Program.Missing())
	assert.Equal(t, []byte{0, 255, 0, 255}, fx.sg.ReadPixels(8, 8, 1, 1))

	assert.Error(t, fx.drv.Run(), "Run after Terminated")
	assert.Error(t, fx.drv.RenderFrame())
}

func TestEscape(t *testing.T) {
	fx := newFixture(t, 16, 0, "texture")
	require.NoError(t, fx.drv.Init())
	fx.win.Press(window.KeyEscape, true)
	require.NoError(t, fx.drv.Run())
	assert.Equal(t, 1, fx.drv.Frames, "frame in progress completes")
	assert.True(t, fx.win.ShouldClose())
	assert.Equal(t, frame.Terminated, fx.drv.State)
}

func TestWireframeKey(t *testing.T) {
	fx := newFixture(t, 16, 0, "texture")
	require.NoError(t, fx.drv.Init())
	assert.False(t, fx.ctx.State.Wireframe)

	fx.win.Press(window.KeyW, true)
	require.NoError(t, fx.drv.RenderFrame())
	assert.True(t, fx.ctx.State.Wireframe)
	require.NoError(t, fx.drv.RenderFrame())
	assert.True(t, fx.ctx.State.Wireframe, "held key toggles once")

	fx.win.Press(window.KeyW, false)
	require.NoError(t, fx.drv.RenderFrame())
	fx.win.Press(window.KeyW, true)
	require.NoError(t, fx.drv.RenderFrame())
	assert.False(t, fx.ctx.State.Wireframe)
}

func TestResize(t *testing.T) {
	fx := newFixture(t, 16, 0, "texture")
	var got image.Point
	fx.drv.OnResize = func(size image.Point) { got = size }
	require.NoError(t, fx.drv.Init())
	fx.win.Resize(image.Point{32, 8})
	require.NoError(t, fx.drv.RenderFrame())
	assert.Equal(t, image.Rect(0, 0, 32, 8), fx.ctx.State.Viewport)
	assert.Equal(t, image.Point{32, 8}, got)
}

func TestInitErrors(t *testing.T) {
	fx := newFixture(t, 16, 0, "texture")
	geom := fx.drv.Geometry
	fx.drv.Geometry = nil
	assert.Error(t, fx.drv.Init())
	fx.drv.Geometry = geom

	fx.drv.Bindings = []frame.Binding{{Unit: 0}}
	assert.Error(t, fx.drv.Init(), "nil texture")
	tx := texture(t, fx.ctx, pixels(3, 3, 0))
	fx.drv.Bindings = []frame.Binding{{Texture: tx, Unit: 0}, {Texture: tx, Unit: 0}}
	assert.Error(t, fx.drv.Init(), "unit bound twice")
	assert.Equal(t, frame.Uninitialized, fx.drv.State)

	fx.drv.Bindings = []frame.Binding{{Texture: tx, Unit: fx.sg.Units}}
	require.NoError(t, fx.drv.Init())
	assert.Error(t, fx.drv.RenderFrame(), "unit out of range")
	assert.Error(t, fx.drv.Init(), "second Init")
}

func TestReload(t *testing.T) {
	fx := newFixture(t, 16, 0, "texture")
	tx := texture(t, fx.ctx, pixels(3, 3, 0))
	fx.drv.Bindings = []frame.Binding{{Texture: tx, Unit: 3, Sampler: "texture1"}}
	require.NoError(t, fx.drv.Init())
	old := fx.drv.Program

	fail := errors.New("compile failed")
	fx.drv.Reloader = &frame.Reloader{Build: func() (*gpu.Program, error) { return nil, fail }}
	assert.ErrorIs(t, fx.drv.Reload(), fail)
	assert.Same(t, old, fx.drv.Program)
	assert.NotZero(t, old.Handle())

	fx.drv.Reloader.Build = func() (*gpu.Program, error) {
		return program(t, fx.ctx, "texture"), nil
	}
	require.NoError(t, fx.drv.Reload())
	assert.NotSame(t, old, fx.drv.Program)
	assert.Zero(t, old.Handle(), "old program released")
	assert.Equal(t, 1, fx.sg.NumPrograms())
	v, ok := fx.sg.Uniform(fx.drv.Program.Handle(), "texture1")
	require.True(t, ok)
	assert.Equal(t, []float32{3}, v)
	require.NoError(t, fx.drv.RenderFrame())
}

func TestReloaderChanged(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "texture.frag")
	require.NoError(t, os.WriteFile(fn, []byte("// v1\n"), 0o644))
	rl, err := frame.NewReloader(nil, fn)
	require.NoError(t, err)
	defer rl.Close()
	assert.False(t, rl.Changed())

	require.NoError(t, os.WriteFile(fn, []byte("// v2\n"), 0o644))
	assert.Eventually(t, rl.Changed, 2*time.Second, 10*time.Millisecond)
}

func TestReloaderIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "texture.frag")
	require.NoError(t, os.WriteFile(fn, []byte("// v1\n"), 0o644))
	rl, err := frame.NewReloader(nil, fn)
	require.NoError(t, err)
	defer rl.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".texture.frag.swp"), []byte("swap"), 0o644))
	assert.Never(t, rl.Changed, 300*time.Millisecond, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(fn, []byte("// v2\n"), 0o644))
	assert.Eventually(t, rl.Changed, 2*time.Second, 10*time.Millisecond)
}

func TestMaxFrames(t *testing.T) {
	fx := newFixture(t, 16, 0, "texture")
	fx.drv.MaxFrames = 2
	require.NoError(t, fx.drv.Init())
	require.NoError(t, fx.drv.Run())
	assert.Equal(t, 2, fx.drv.Frames)
	assert.Equal(t, 2, fx.win.Frames())
}
