// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package decode loads image files into tightly packed 8-bit
// RGB or RGBA pixel buffers for texture upload.
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"

	"cogentcore.org/core/base/iox/imagex"
	"cogentcore.org/glsandbox/gpu"
	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
)

// Image is a decoded image: Width * Height pixels of Channels
// bytes each, rows top to bottom unless flipped on load.
type Image struct {
	Pixels   []byte
	Width    int
	Height   int
	Channels int

	// Format is the encoding the image was decoded from.
	Format imagex.Formats
}

// Options control decoding.
type Options struct {
	// FlipY stores rows bottom to top, matching the GL texture
	// coordinate origin at the bottom left.
	FlipY bool

	// Channels forces 3 (RGB) or 4 (RGBA) channels.
	// If 0, images with any translucent pixel are RGBA
	// and all others RGB.
	Channels int
}

// Decode decodes the image file at path with default options.
func Decode(path string) (*Image, error) {
	return Options{}.Decode(path)
}

// Decode decodes the image file at path. All failures are
// returned as a [*gpu.TextureDecodeError].
func (o Options) Decode(path string) (*Image, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &gpu.TextureDecodeError{Path: path, Err: err}
	}
	return o.decode(path, b)
}

// DecodeFS decodes the image file at path in fsys.
func (o Options) DecodeFS(fsys fs.FS, path string) (*Image, error) {
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, &gpu.TextureDecodeError{Path: path, Err: err}
	}
	return o.decode(path, b)
}

func (o Options) decode(path string, b []byte) (*Image, error) {
	if o.Channels != 0 && o.Channels != 3 && o.Channels != 4 {
		return nil, &gpu.TextureDecodeError{Path: path, Err: fmt.Errorf("unsupported channel count %d", o.Channels)}
	}
	if !filetype.IsImage(b) {
		kind, _ := filetype.Match(b)
		what := "unknown content"
		if kind != filetype.Unknown {
			what = kind.MIME.Value
		}
		return nil, &gpu.TextureDecodeError{Path: path, Err: fmt.Errorf("not an image: %s", what)}
	}
	img, format, err := imagex.Read(bytes.NewReader(b))
	if err != nil {
		return nil, &gpu.TextureDecodeError{Path: path, Err: err}
	}
	if img.Bounds().Empty() {
		return nil, &gpu.TextureDecodeError{Path: path, Err: errors.New("image is empty")}
	}
	im := o.FromImage(img)
	im.Format = format
	return im, nil
}

// FromImage packs an image into a pixel buffer.
func (o Options) FromImage(img image.Image) *Image {
	nrgba := imaging.Clone(img)
	if o.FlipY {
		nrgba = imaging.FlipV(nrgba)
	}
	ch := o.Channels
	if ch == 0 {
		ch = 3
		if !nrgba.Opaque() {
			ch = 4
		}
	}
	sz := nrgba.Bounds().Size()
	im := &Image{Width: sz.X, Height: sz.Y, Channels: ch, Pixels: make([]byte, sz.X*sz.Y*ch)}
	if ch == 4 {
		for y := 0; y < sz.Y; y++ {
			copy(im.Pixels[y*sz.X*4:(y+1)*sz.X*4], nrgba.Pix[y*nrgba.Stride:])
		}
		return im
	}
	for y := 0; y < sz.Y; y++ {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := 0; x < sz.X; x++ {
			copy(im.Pixels[(y*sz.X+x)*3:], row[x*4:x*4+3])
		}
	}
	return im
}
