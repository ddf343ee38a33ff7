// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package softgpu

import (
	"image"

	"cogentcore.org/core/math32"
	"cogentcore.org/glsandbox/gpu"
	"github.com/disintegration/imaging"
)

type level struct {
	width, height int
	pix           []byte
}

type texture struct {
	format       gpu.TextureFormats
	levels       []level
	wrapS, wrapT gpu.WrapModes
	min, mag     gpu.FilterModes
}

func (t *texture) channels() int {
	return t.format.Channels()
}

func (g *GL) GenTexture() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("GenTexture")
	h := g.gen()
	g.textures[h] = &texture{wrapS: gpu.Repeat, wrapT: gpu.Repeat, min: gpu.LinearMipmapLinear, mag: gpu.Linear}
	return h
}

func (g *GL) ActiveTexture(unit int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("ActiveTexture")
	if unit < 0 || unit >= g.Units {
		g.fail(InvalidEnum, "ActiveTexture", "texture unit %d out of range", unit)
		return
	}
	g.unit = unit
}

func (g *GL) BindTexture(h uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("BindTexture")
	if h == 0 {
		delete(g.units, g.unit)
		return
	}
	if g.textures[h] == nil {
		g.fail(InvalidOperation, "BindTexture", "%d is not a texture", h)
		return
	}
	g.units[g.unit] = h
}

// boundTexture returns the texture bound to the active unit.
func (g *GL) boundTexture(fn string) *texture {
	t := g.textures[g.units[g.unit]]
	if t == nil {
		g.fail(InvalidOperation, fn, "no texture bound to unit %d", g.unit)
	}
	return t
}

func (g *GL) TexWrap(s, t gpu.WrapModes) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("TexWrap")
	if tx := g.boundTexture("TexWrap"); tx != nil {
		tx.wrapS, tx.wrapT = s, t
	}
}

func (g *GL) TexFilter(min, mag gpu.FilterModes) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("TexFilter")
	if mag == gpu.LinearMipmapLinear {
		g.fail(InvalidEnum, "TexFilter", "mipmap filter used for magnification")
		return
	}
	if tx := g.boundTexture("TexFilter"); tx != nil {
		tx.min, tx.mag = min, mag
	}
}

func (g *GL) TexImage2D(width, height int, format gpu.TextureFormats, pixels []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("TexImage2D")
	tx := g.boundTexture("TexImage2D")
	if tx == nil {
		return
	}
	if width <= 0 || height <= 0 || format.Channels() == 0 {
		g.fail(InvalidValue, "TexImage2D", "invalid size %dx%d or format %s", width, height, format)
		return
	}
	if len(pixels) < width*height*format.Channels() {
		g.fail(InvalidOperation, "TexImage2D", "%d bytes for %dx%d %s", len(pixels), width, height, format)
		return
	}
	tx.format = format
	tx.levels = []level{{width: width, height: height, pix: append([]byte(nil), pixels[:width*height*format.Channels()]...)}}
}

// GenerateMipmap builds each successive level by box filtering
// the level 0 image down to half the size of the previous level.
func (g *GL) GenerateMipmap() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("GenerateMipmap")
	tx := g.boundTexture("GenerateMipmap")
	if tx == nil {
		return 0
	}
	if len(tx.levels) == 0 {
		g.fail(InvalidOperation, "GenerateMipmap", "texture has no level 0")
		return 0
	}
	base := tx.levels[0]
	src := toNRGBA(base, tx.channels())
	n := MipLevels(base.width, base.height)
	tx.levels = tx.levels[:1]
	w, h := base.width, base.height
	for l := 1; l < n; l++ {
		w, h = max(1, w/2), max(1, h/2)
		dst := imaging.Resize(src, w, h, imaging.Box)
		tx.levels = append(tx.levels, fromNRGBA(dst, tx.channels()))
	}
	return n
}

// MipLevels returns the length of the full mipmap chain
// for a texture of given size.
func MipLevels(width, height int) int {
	return int(math32.Floor(math32.Log2(float32(max(width, height))))) + 1
}

func toNRGBA(lv level, ch int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, lv.width, lv.height))
	for i, j := 0, 0; i < len(lv.pix); i, j = i+ch, j+4 {
		copy(img.Pix[j:j+3], lv.pix[i:i+3])
		if ch == 4 {
			img.Pix[j+3] = lv.pix[i+3]
		} else {
			img.Pix[j+3] = 255
		}
	}
	return img
}

func fromNRGBA(img *image.NRGBA, ch int) level {
	b := img.Bounds()
	lv := level{width: b.Dx(), height: b.Dy(), pix: make([]byte, b.Dx()*b.Dy()*ch)}
	for y := 0; y < lv.height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < lv.width; x++ {
			copy(lv.pix[(y*lv.width+x)*ch:], row[x*4:x*4+ch])
		}
	}
	return lv
}

func (g *GL) GetTexImage(format gpu.TextureFormats) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("GetTexImage")
	tx := g.boundTexture("GetTexImage")
	if tx == nil || len(tx.levels) == 0 {
		return nil
	}
	lv := tx.levels[0]
	sc, dc := tx.channels(), format.Channels()
	if dc == 0 {
		g.fail(InvalidEnum, "GetTexImage", "invalid format %s", format)
		return nil
	}
	if sc == dc {
		return append([]byte(nil), lv.pix...)
	}
	n := lv.width * lv.height
	out := make([]byte, n*dc)
	for i := 0; i < n; i++ {
		copy(out[i*dc:i*dc+3], lv.pix[i*sc:i*sc+3])
		if dc == 4 {
			out[i*dc+3] = 255
		}
	}
	return out
}

// TextureLevel returns the size and pixels of the given mip level
// of a texture, in the texture's own format.
func (g *GL) TextureLevel(h uint32, lev int) (width, height int, pix []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	tx := g.textures[h]
	if tx == nil || lev < 0 || lev >= len(tx.levels) {
		return 0, 0, nil
	}
	lv := tx.levels[lev]
	return lv.width, lv.height, append([]byte(nil), lv.pix...)
}

func (g *GL) DeleteTexture(h uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.call("DeleteTexture")
	delete(g.textures, h)
	for u, b := range g.units {
		if b == h {
			delete(g.units, u)
		}
	}
}

func (g *GL) MaxTextureUnits() int {
	return g.Units
}

// sample returns the filtered color of the texture bound to unit
// at texture coordinates s, t. Incomplete textures sample as opaque black.
func (g *GL) sample(unit int, s, t float32) [4]float32 {
	tx := g.textures[g.units[unit]]
	if tx == nil || len(tx.levels) == 0 {
		return [4]float32{0, 0, 0, 1}
	}
	lv := tx.levels[0]
	if tx.mag == gpu.Nearest {
		i := wrapIndex(int(math32.Floor(s*float32(lv.width))), lv.width, tx.wrapS)
		j := wrapIndex(int(math32.Floor(t*float32(lv.height))), lv.height, tx.wrapT)
		return tx.texel(lv, i, j)
	}
	u := s*float32(lv.width) - 0.5
	v := t*float32(lv.height) - 0.5
	i0, j0 := int(math32.Floor(u)), int(math32.Floor(v))
	fu, fv := u-float32(i0), v-float32(j0)
	i1, j1 := wrapIndex(i0+1, lv.width, tx.wrapS), wrapIndex(j0+1, lv.height, tx.wrapT)
	i0, j0 = wrapIndex(i0, lv.width, tx.wrapS), wrapIndex(j0, lv.height, tx.wrapT)
	c00, c10 := tx.texel(lv, i0, j0), tx.texel(lv, i1, j0)
	c01, c11 := tx.texel(lv, i0, j1), tx.texel(lv, i1, j1)
	var c [4]float32
	for k := range c {
		c[k] = math32.Lerp(math32.Lerp(c00[k], c10[k], fu), math32.Lerp(c01[k], c11[k], fu), fv)
	}
	return c
}

func (t *texture) texel(lv level, i, j int) [4]float32 {
	ch := t.channels()
	o := (j*lv.width + i) * ch
	c := [4]float32{0, 0, 0, 1}
	for k := 0; k < ch; k++ {
		c[k] = float32(lv.pix[o+k]) / 255
	}
	return c
}

func wrapIndex(i, n int, mode gpu.WrapModes) int {
	switch mode {
	case gpu.ClampToEdge:
		return min(max(i, 0), n-1)
	case gpu.MirroredRepeat:
		m := ((i % (2 * n)) + 2*n) % (2 * n)
		if m >= n {
			m = 2*n - 1 - m
		}
		return m
	}
	return ((i % n) + n) % n
}
