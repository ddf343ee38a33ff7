// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build offscreen || !((darwin && !ios) || windows || (linux && !android) || dragonfly || openbsd)

package desktop

import (
	"errors"
	"image"

	"cogentcore.org/glsandbox/window"
)

// ErrNoDisplay is returned by NewWindow on builds without a display.
var ErrNoDisplay = errors.New("desktop: no display support in this build; use headless mode")

// Options are the window creation options.
type Options struct {
	Title        string
	Size         image.Point
	SwapInterval int
}

// Window is unavailable on this platform.
type Window struct {
	window.Offscreen
}

// NewWindow always returns [ErrNoDisplay].
func NewWindow(opts Options) (*Window, error) {
	return nil, ErrNoDisplay
}
