// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"errors"
	"fmt"
	"log/slog"
)

// TextureOptions are the sampling parameters and optional
// explicit format of a Texture.
type TextureOptions struct {
	// Wrap is the wrap mode for both S and T coordinates.
	Wrap WrapModes

	// MinFilter is the minification filter.
	MinFilter FilterModes

	// MagFilter is the magnification filter.
	MagFilter FilterModes

	// Format, if set, is the upload format; it must agree
	// with the channel count of the pixel data.
	// If unset, it is derived from the channel count.
	Format TextureFormats
}

// DefaultTextureOptions returns repeat wrapping with linear filtering.
func DefaultTextureOptions() TextureOptions {
	return TextureOptions{Wrap: Repeat, MinFilter: Linear, MagFilter: Linear}
}

// Texture is a 2D texture object with a full mipmap chain.
type Texture struct {
	// Name of the texture, typically the image file name.
	Name string

	TextureOptions

	// Width and Height of level 0, in pixels.
	Width, Height int

	// Channels is the number of bytes per pixel of the source data.
	Channels int

	// Levels is the number of mip levels, 0 if nothing has been uploaded.
	Levels int

	handle uint32
	ctx    *Context
}

// NewTexture returns a new Texture with given options.
// The GL texture object is allocated by Create.
func NewTexture(ctx *Context, name string, opts TextureOptions) *Texture {
	return &Texture{Name: name, TextureOptions: opts, ctx: ctx}
}

// ChannelsFormat returns the texture format for given channel count:
// 3 is RGB and 4 is RGBA.
func ChannelsFormat(channels int) (TextureFormats, error) {
	switch channels {
	case 3:
		return RGB, nil
	case 4:
		return RGBA, nil
	}
	return UndefinedFormat, fmt.Errorf("gpu: unsupported channel count %d", channels)
}

// ValidateFormat returns a [*FormatMismatchError] if format does
// not match the given channel count.
func ValidateFormat(channels int, format TextureFormats) error {
	if format.Channels() != channels {
		return &FormatMismatchError{Channels: channels, Format: format}
	}
	return nil
}

// Create allocates the texture object, sets its wrap and filter
// parameters, uploads the pixels as level 0 and generates the
// mipmap chain. The pixel buffer is not retained.
//
// If pixels is nil (decoding failed upstream), the texture object
// stays allocated but empty and a [*TextureDecodeError] is returned;
// the texture can still be bound, and samples as black.
func (tx *Texture) Create(pixels []byte, width, height, channels int) error {
	if tx.ctx == nil {
		return ErrNoContext
	}
	if tx.handle != 0 {
		return fmt.Errorf("gpu.Texture %q: already created", tx.Name)
	}
	gl := tx.ctx.GL
	tx.handle = gl.GenTexture()
	tx.ctx.BindTexture(tx.handle)
	gl.TexWrap(tx.Wrap, tx.Wrap)
	gl.TexFilter(tx.MinFilter, tx.MagFilter)

	if pixels == nil {
		err := &TextureDecodeError{Path: tx.Name, Err: errors.New("pixel buffer is nil")}
		slog.Warn("gpu.Texture: no pixel data, texture left empty", "texture", tx.Name)
		return err
	}
	format := tx.Format
	if format == UndefinedFormat {
		f, err := ChannelsFormat(channels)
		if err != nil {
			return err
		}
		format = f
	}
	if err := ValidateFormat(channels, format); err != nil {
		slog.Error("gpu.Texture: format mismatch", "texture", tx.Name, "err", err)
		return err
	}
	if want := width * height * channels; len(pixels) != want {
		return fmt.Errorf("gpu.Texture %q: %d bytes of pixel data, expected %d", tx.Name, len(pixels), want)
	}
	gl.TexImage2D(width, height, format, pixels)
	tx.Levels = gl.GenerateMipmap()
	tx.Format = format
	tx.Width, tx.Height, tx.Channels = width, height, channels
	return nil
}

// Handle returns the GL texture handle, 0 if not created.
func (tx *Texture) Handle() uint32 {
	return tx.handle
}

// Activate binds the texture to given texture unit, so that a sampler
// uniform set to the same unit reads from it. Multiple textures can be
// active on distinct units for one draw call.
func (tx *Texture) Activate(unit int) error {
	if tx.handle == 0 {
		return fmt.Errorf("gpu.Texture %q: Activate before Create", tx.Name)
	}
	if mx := tx.ctx.MaxTextureUnits(); unit < 0 || unit >= mx {
		return fmt.Errorf("gpu.Texture %q: texture unit %d out of range [0, %d)", tx.Name, unit, mx)
	}
	tx.ctx.ActiveTexture(unit)
	tx.ctx.BindTexture(tx.handle)
	return nil
}

// ReadBack returns the level 0 pixels of the texture in its format.
func (tx *Texture) ReadBack() ([]byte, error) {
	if tx.handle == 0 || tx.Levels == 0 {
		return nil, fmt.Errorf("gpu.Texture %q: no texture data to read back", tx.Name)
	}
	tx.ctx.BindTexture(tx.handle)
	return tx.ctx.GL.GetTexImage(tx.Format), nil
}

// Release deletes the texture object.
func (tx *Texture) Release() {
	if tx.handle == 0 {
		return
	}
	for u, h := range tx.ctx.State.Textures {
		if h == tx.handle {
			delete(tx.ctx.State.Textures, u)
		}
	}
	tx.ctx.GL.DeleteTexture(tx.handle)
	tx.handle = 0
	tx.Levels = 0
}
