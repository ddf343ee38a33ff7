// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package window defines the window and GL context provider used
// by the frame driver, and an offscreen implementation of it.
package window

import (
	"image"
)

// Keys are the keyboard keys the frame driver responds to.
type Keys int32

const (
	// KeyEscape requests that the window close.
	KeyEscape Keys = iota

	// KeyW toggles wireframe rendering.
	KeyW
)

func (k Keys) String() string {
	switch k {
	case KeyEscape:
		return "Escape"
	case KeyW:
		return "W"
	}
	return "Unknown"
}

// Window is a window with a current GL context.
// All methods must be called on the thread that created it.
type Window interface {
	// Size returns the framebuffer size in pixels.
	Size() image.Point

	// ShouldClose returns true once the window has been asked to close.
	ShouldClose() bool

	// SetShouldClose sets the close flag.
	SetShouldClose(close bool)

	// PollEvents processes pending window system events,
	// invoking any registered callbacks.
	PollEvents()

	// Present shows the frame that was just rendered.
	Present()

	// OnResize registers a function called with the new
	// framebuffer size whenever it changes.
	OnResize(fun func(size image.Point))

	// KeyPressed returns true if the key is currently held down.
	KeyPressed(key Keys) bool

	// Time returns the seconds elapsed since the window was created.
	Time() float64

	// Destroy closes the window and releases the context.
	Destroy()
}
