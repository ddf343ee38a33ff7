// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu_test

import (
	"io/fs"
	"os"
	"testing"
	"testing/fstest"

	"cogentcore.org/core/math32"
	"cogentcore.org/glsandbox/gpu"
	"cogentcore.org/glsandbox/gpu/softgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quad is a unit quad centered on the origin: position, color
// and texture coordinates, 8 floats per vertex.
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

func newContext(w, h int) (*gpu.Context, *softgpu.GL) {
	sg := softgpu.New(w, h)
	return gpu.NewContext(sg), sg
}

func openTexture(t *testing.T, ctx *gpu.Context) *gpu.Program {
	t.Helper()
	pr, err := gpu.OpenProgram(ctx, "texture", os.DirFS("testdata"), "texture.vert", "texture.frag")
	require.NoError(t, err)
	return pr
}

func TestProgramLinks(t *testing.T) {
	ctx, sg := newContext(8, 8)
	pr := openTexture(t, ctx)
	assert.NotZero(t, pr.Handle())
	assert.Equal(t, 0, sg.NumShaders(), "stages are deleted after linking")
	assert.Equal(t, 1, sg.Calls["LinkProgram"])

	pr.Use()
	assert.True(t, pr.IsCurrent())
	pr.Release()
	assert.False(t, pr.IsCurrent())
	assert.Equal(t, 0, sg.NumPrograms())
}

func TestCompileErrorSkipsLink(t *testing.T) {
	ctx, sg := newContext(8, 8)
	pr, err := gpu.OpenProgram(ctx, "bad", os.DirFS("testdata"), "texture.vert", "bad.frag")
	assert.Nil(t, pr)
	var ce *gpu.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, gpu.FragmentShader, ce.Stage)
	assert.Equal(t, "bad.frag", ce.Name)
	assert.Contains(t, ce.Log, "syntax error")
	assert.Contains(t, ce.Log, "0:10(")
	assert.True(t, gpu.IsFatal(err))

	assert.Equal(t, 0, sg.Calls["LinkProgram"], "link must not be attempted")
	assert.Equal(t, 0, sg.NumShaders(), "vertex stage deleted")
}

func TestLinkError(t *testing.T) {
	ctx, sg := newContext(8, 8)
	pr, err := gpu.OpenProgram(ctx, "mismatch", os.DirFS("testdata"), "texture.vert", "mismatch.frag")
	assert.Nil(t, pr)
	var le *gpu.LinkError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "mismatch", le.Program)
	assert.Contains(t, le.Log, "texCoord")
	assert.True(t, gpu.IsFatal(err))
	assert.Equal(t, 0, sg.NumPrograms())
	assert.Equal(t, 0, sg.NumShaders())
}

func TestFileReadError(t *testing.T) {
	ctx, sg := newContext(8, 8)
	_, err := gpu.OpenProgram(ctx, "missing", os.DirFS("testdata"), "missing.vert", "texture.frag")
	var fe *gpu.FileReadError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "missing.vert", fe.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.True(t, gpu.IsFatal(err))
	assert.Equal(t, 0, sg.Calls["CreateShader"])
}

func TestInclude(t *testing.T) {
	src, err := gpu.ReadSource(os.DirFS("testdata"), "texture.vert")
	require.NoError(t, err)
	assert.Contains(t, src, `// #include "transform.glsl"`)
	assert.Contains(t, src, "uniform mat4 transform;")
}

func TestNestedInclude(t *testing.T) {
	fsys := fstest.MapFS{
		"shaders/main.vert":       {Data: []byte("#version 330 core\n#include \"lib/common.glsl\"\nvoid main() {}\n")},
		"shaders/lib/common.glsl": {Data: []byte("#include \"math.glsl\"\nuniform float scale;\n")},
		"shaders/lib/math.glsl":   {Data: []byte("uniform mat4 transform;\n")},
		"shaders/math.glsl":       {Data: []byte("uniform mat3 wrong;\n")},
	}
	src := gpu.IncludeFS(fsys, "shaders", string(fsys["shaders/main.vert"].Data))
	assert.Contains(t, src, "uniform mat4 transform;")
	assert.Contains(t, src, "uniform float scale;")
	assert.NotContains(t, src, "wrong")
}

func TestMissingUniform(t *testing.T) {
	ctx, sg := newContext(8, 8)
	pr := openTexture(t, ctx)
	pr.SetInt("texture1", 2)
	before, ok := sg.Uniform(pr.Handle(), "texture1")
	require.True(t, ok)

	pr.SetInt("missing_uniform", 5)
	pr.SetInt("missing_uniform", 6)
	assert.NoError(t, sg.Error())
	assert.Equal(t, []string{"missing_uniform"}, pr.Missing())
	assert.Equal(t, 1, sg.Calls["Uniform1i"])
	after, _ := sg.Uniform(pr.Handle(), "texture1")
	assert.Equal(t, before, after)

	_, err := pr.UniformLocation("missing_uniform")
	var ue *gpu.UniformNotFoundError
	assert.ErrorAs(t, err, &ue)
	assert.False(t, gpu.IsFatal(err))
}

func TestSetUniforms(t *testing.T) {
	ctx, sg := newContext(8, 8)
	pr := openTexture(t, ctx)
	pr.CacheLocations = true
	pr.SetInt("texture1", 1)
	v, _ := sg.Uniform(pr.Handle(), "texture1")
	assert.Equal(t, []float32{1}, v)

	// translation by (1, 2, 3), column-major
	m := math32.Matrix4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 1, 2, 3, 1}
	pr.SetMatrix4("transform", &m)
	v, _ = sg.Uniform(pr.Handle(), "transform")
	assert.Equal(t, m[:], v)
	assert.NoError(t, sg.Error())

	pr.SetFloat("texture1", 1)
	assert.Error(t, sg.Error(), "type mismatch is a GL error")
	assert.Equal(t, 2, sg.Calls["GetUniformLocation"])
}

func TestQuadGeometry(t *testing.T) {
	ctx, _ := newContext(8, 8)
	gm := gpu.NewGeometry(ctx, "quad")
	require.NoError(t, gm.Upload(quad, quadIndexes, 8, quadLayout))
	assert.Equal(t, 4, gm.NVertices())
	assert.Equal(t, 6, gm.NIndexes())
	assert.Equal(t, 2, gm.NTriangles())
	assert.Equal(t, []uint32{1, 3}, gm.SharedVertices())

	openTexture(t, ctx).Use()
	ctx.BeginFrame()
	require.NoError(t, gm.Draw())
	require.NoError(t, ctx.ErrCheck("draw quad"))
	require.Len(t, ctx.State.Draws, 1)
	dc := ctx.State.Draws[0]
	assert.True(t, dc.Indexed)
	assert.Equal(t, 6, dc.Count)
	assert.Equal(t, 2, dc.NTriangles())

	assert.Error(t, gm.Upload(quad, quadIndexes, 8, quadLayout), "second upload")
}

func TestGeometryErrors(t *testing.T) {
	ctx, sg := newContext(8, 8)
	assert.Error(t, gpu.NewGeometry(ctx, "stride").Upload(quad, nil, 0, quadLayout))
	assert.Error(t, gpu.NewGeometry(ctx, "ragged").Upload(quad[:30], nil, 8, quadLayout))
	assert.Error(t, gpu.NewGeometry(ctx, "range").Upload(quad, []uint32{0, 1, 4}, 8, quadLayout))
	assert.Error(t, gpu.NewGeometry(ctx, "empty").Draw())
	assert.Equal(t, 0, sg.NumBuffers())

	gm := gpu.NewGeometry(ctx, "arrays")
	require.NoError(t, gm.Upload(quad[:24], nil, 8, quadLayout))
	assert.Equal(t, 1, gm.NTriangles())
	assert.False(t, gm.Indexed())
	gm.Release()
	assert.Equal(t, 0, sg.NumBuffers())
}

func rgbPixels(w, h int) []byte {
	pix := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		pix[i*3] = byte(i * 20)
		pix[i*3+1] = byte(255 - i*20)
		pix[i*3+2] = byte(i * 10)
	}
	return pix
}

func TestTextureRoundTrip(t *testing.T) {
	ctx, _ := newContext(8, 8)
	tx := gpu.NewTexture(ctx, "rgb", gpu.DefaultTextureOptions())
	pix := rgbPixels(4, 3)
	require.NoError(t, tx.Create(pix, 4, 3, 3))
	assert.Equal(t, gpu.RGB, tx.Format)
	assert.Equal(t, 3, tx.Levels)
	back, err := tx.ReadBack()
	require.NoError(t, err)
	assert.Equal(t, pix, back)
}

func TestTextureFormatMismatch(t *testing.T) {
	ctx, sg := newContext(8, 8)
	opts := gpu.DefaultTextureOptions()
	opts.Format = gpu.RGB
	tx := gpu.NewTexture(ctx, "rgba", opts)
	err := tx.Create(make([]byte, 2*2*4), 2, 2, 4)
	var fm *gpu.FormatMismatchError
	require.ErrorAs(t, err, &fm)
	assert.Equal(t, 4, fm.Channels)
	assert.Equal(t, gpu.RGB, fm.Format)
	assert.Equal(t, 0, sg.Calls["TexImage2D"])

	assert.NoError(t, gpu.ValidateFormat(4, gpu.RGBA))
	assert.Error(t, gpu.ValidateFormat(3, gpu.RGBA))
	_, err = gpu.ChannelsFormat(2)
	assert.Error(t, err)
}

func TestTextureNoPixels(t *testing.T) {
	ctx, _ := newContext(8, 8)
	tx := gpu.NewTexture(ctx, "missing.jpg", gpu.DefaultTextureOptions())
	err := tx.Create(nil, 0, 0, 0)
	var de *gpu.TextureDecodeError
	require.ErrorAs(t, err, &de)
	assert.False(t, gpu.IsFatal(err))
	assert.NotZero(t, tx.Handle(), "texture object stays allocated")
	assert.NoError(t, tx.Activate(0))
	_, err = tx.ReadBack()
	assert.Error(t, err)
}

func TestActivateUnits(t *testing.T) {
	ctx, sg := newContext(8, 8)
	a := gpu.NewTexture(ctx, "a", gpu.DefaultTextureOptions())
	b := gpu.NewTexture(ctx, "b", gpu.DefaultTextureOptions())
	require.NoError(t, a.Create(rgbPixels(2, 2), 2, 2, 3))
	require.NoError(t, b.Create(rgbPixels(2, 2), 2, 2, 3))
	require.NoError(t, a.Activate(0))
	require.NoError(t, b.Activate(1))
	assert.Equal(t, map[int]uint32{0: a.Handle(), 1: b.Handle()}, ctx.State.Textures)
	assert.Error(t, a.Activate(sg.Units))
	assert.Error(t, a.Activate(-1))

	a.Release()
	assert.Equal(t, map[int]uint32{1: b.Handle()}, ctx.State.Textures)
	assert.Equal(t, 1, sg.NumTextures())
}

func TestRenderTexturedQuad(t *testing.T) {
	ctx, sg := newContext(64, 64)
	pr := openTexture(t, ctx)
	gm := gpu.NewGeometry(ctx, "quad")
	require.NoError(t, gm.Upload(quad, quadIndexes, 8, quadLayout))

	opts := gpu.DefaultTextureOptions()
	opts.MinFilter, opts.MagFilter = gpu.Nearest, gpu.Nearest
	tx := gpu.NewTexture(ctx, "3x3", opts)
	pix := rgbPixels(3, 3)
	require.NoError(t, tx.Create(pix, 3, 3, 3))

	ctx.BeginFrame()
	ctx.Clear(0.2, 0.3, 0.3, 1)
	require.NoError(t, tx.Activate(0))
	pr.Use()
	pr.SetInt("texture1", 0)
	id := math32.Identity4()
	pr.SetMatrix4("transform", id)
	require.NoError(t, gm.Draw())
	require.NoError(t, ctx.ErrCheck("render"))
	assert.Len(t, ctx.State.Draws, 1)

	center := sg.ReadPixels(32, 32, 1, 1)
	assert.Equal(t, []byte{pix[12], pix[13], pix[14], 255}, center)
	corner := sg.ReadPixels(0, 0, 1, 1)
	assert.Equal(t, []byte{51, 77, 77, 255}, corner, "clear color outside the quad")
}

func TestOpenProgramFiles(t *testing.T) {
	ctx, _ := newContext(8, 8)
	pr, err := gpu.OpenProgramFiles(ctx, "files", "testdata/texture.vert", "testdata/texture.frag")
	require.NoError(t, err)
	assert.NotZero(t, pr.Handle())

	_, err = gpu.OpenProgramFiles(ctx, "files", "testdata/texture.vert", "testdata/nope.frag")
	var fe *gpu.FileReadError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "testdata/nope.frag", fe.Path)

	_, err = gpu.NewProgram(ctx, "inline", "#version 330 core\nvoid main() {\n gl_Position = vec4(0.0);\n}\n", "#version 330 core\nout vec4 c;\nvoid main() {\n c = vec4(1.0)\n}\n")
	var ce *gpu.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "inline.frag", ce.Name)
}
