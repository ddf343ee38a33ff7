// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decode

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"cogentcore.org/core/base/iox/imagex"
	"cogentcore.org/glsandbox/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testImage is 2x2: red, green on top; blue, white below.
func testImage(alpha uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, alpha})
	img.SetNRGBA(1, 0, color.NRGBA{0, 255, 0, 255})
	img.SetNRGBA(0, 1, color.NRGBA{0, 0, 255, 255})
	img.SetNRGBA(1, 1, color.NRGBA{255, 255, 255, 255})
	return img
}

func savePNG(t *testing.T, img image.Image) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "test.png")
	require.NoError(t, imagex.Save(img, fn))
	return fn
}

func TestDecodeRGB(t *testing.T) {
	im, err := Decode(savePNG(t, testImage(255)))
	require.NoError(t, err)
	assert.Equal(t, 2, im.Width)
	assert.Equal(t, 2, im.Height)
	assert.Equal(t, 3, im.Channels)
	assert.Equal(t, imagex.PNG, im.Format)
	assert.Equal(t, []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 255, 255, 255}, im.Pixels)
}

func TestDecodeRGBA(t *testing.T) {
	im, err := Decode(savePNG(t, testImage(128)))
	require.NoError(t, err)
	assert.Equal(t, 4, im.Channels)
	assert.Len(t, im.Pixels, 16)
	assert.Equal(t, []byte{255, 0, 0, 128}, im.Pixels[:4])

	// a 4 channel image must not be uploaded as RGB
	assert.Error(t, gpu.ValidateFormat(im.Channels, gpu.RGB))
}

func TestDecodeFlipY(t *testing.T) {
	im, err := Options{FlipY: true}.Decode(savePNG(t, testImage(255)))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 255, 255, 255, 255, 255, 0, 0, 0, 255, 0}, im.Pixels)
}

func TestDecodeChannels(t *testing.T) {
	im, err := Options{Channels: 4}.Decode(savePNG(t, testImage(255)))
	require.NoError(t, err)
	assert.Equal(t, 4, im.Channels)
	assert.Equal(t, []byte{255, 0, 0, 255}, im.Pixels[:4])

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.SetGray(0, 0, color.Gray{100})
	im = Options{}.FromImage(gray)
	assert.Equal(t, 3, im.Channels)
	assert.Equal(t, []byte{100, 100, 100}, im.Pixels)

	_, err = Options{Channels: 2}.Decode(savePNG(t, gray))
	assert.Error(t, err)
}

func TestDecodeErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Decode(filepath.Join(dir, "missing.jpg"))
	var de *gpu.TextureDecodeError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, os.ErrNotExist)

	txt := filepath.Join(dir, "notes.png")
	require.NoError(t, os.WriteFile(txt, []byte("not really a png"), 0o644))
	_, err = Decode(txt)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, txt, de.Path)
	assert.Contains(t, err.Error(), "not an image")
	assert.False(t, gpu.IsFatal(err))
}

func TestDecodeFS(t *testing.T) {
	fn := savePNG(t, testImage(255))
	im, err := Options{}.DecodeFS(os.DirFS(filepath.Dir(fn)), filepath.Base(fn))
	require.NoError(t, err)
	assert.Equal(t, 3, im.Channels)
}
