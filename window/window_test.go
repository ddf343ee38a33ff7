// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package window

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffscreenFrames(t *testing.T) {
	w := NewOffscreen(image.Point{80, 60}, 2)
	assert.False(t, w.ShouldClose())
	w.Present()
	assert.InDelta(t, FrameTime, w.Time(), 1e-9)
	w.Present()
	assert.True(t, w.ShouldClose())
	assert.Equal(t, 2, w.Frames())

	w = NewOffscreen(image.Point{80, 60}, 0)
	w.Present()
	assert.False(t, w.ShouldClose())
	w.SetShouldClose(true)
	assert.True(t, w.ShouldClose())
}

func TestOffscreenResize(t *testing.T) {
	w := NewOffscreen(image.Point{80, 60}, 0)
	var got image.Point
	w.OnResize(func(size image.Point) { got = size })
	w.Resize(image.Point{40, 30})
	assert.Equal(t, image.Point{80, 60}, w.Size(), "delivered on poll")
	w.PollEvents()
	assert.Equal(t, image.Point{40, 30}, got)
	assert.Equal(t, image.Point{40, 30}, w.Size())
}

func TestOffscreenKeys(t *testing.T) {
	w := NewOffscreen(image.Point{8, 8}, 0)
	assert.False(t, w.KeyPressed(KeyEscape))
	w.Press(KeyEscape, true)
	assert.True(t, w.KeyPressed(KeyEscape))
	assert.Equal(t, "Escape", KeyEscape.String())
	w.Destroy()
	w.Destroy()
}
