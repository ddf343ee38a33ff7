// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !offscreen && ((darwin && !ios) || windows || (linux && !android) || dragonfly || openbsd)

// Package desktop provides a glfw window with an OpenGL 3.3
// core profile context. It must be used from the main thread,
// locked to its OS thread.
package desktop

import (
	"image"
	"log/slog"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/glsandbox/window"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Options are the window creation options.
type Options struct {
	// Title of the window.
	Title string

	// Size of the window in screen coordinates.
	Size image.Point

	// SwapInterval is the number of screen refreshes between
	// buffer swaps: 1 is vsync, 0 is unthrottled.
	SwapInterval int
}

var glfwKeys = map[window.Keys]glfw.Key{
	window.KeyEscape: glfw.KeyEscape,
	window.KeyW:      glfw.KeyW,
}

// Window is a glfw window with a current GL context.
type Window struct {
	glw    *glfw.Window
	resize func(size image.Point)
}

var _ window.Window = (*Window)(nil)

// NewWindow initializes glfw, opens a window with an OpenGL 3.3
// core forward-compatible context and makes the context current.
func NewWindow(opts Options) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Log(err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glw, err := glfw.CreateWindow(opts.Size.X, opts.Size.Y, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Log(err)
	}
	glw.MakeContextCurrent()
	glfw.SwapInterval(opts.SwapInterval)
	w := &Window{glw: glw}
	glw.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		slog.Debug("desktop.Window framebuffer resized", "width", width, "height", height)
		if w.resize != nil {
			w.resize(image.Point{width, height})
		}
	})
	return w, nil
}

func (w *Window) Size() image.Point {
	width, height := w.glw.GetFramebufferSize()
	return image.Point{width, height}
}

func (w *Window) ShouldClose() bool {
	return w.glw.ShouldClose()
}

func (w *Window) SetShouldClose(close bool) {
	w.glw.SetShouldClose(close)
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) Present() {
	w.glw.SwapBuffers()
}

func (w *Window) OnResize(fun func(size image.Point)) {
	w.resize = fun
}

func (w *Window) KeyPressed(key window.Keys) bool {
	k, ok := glfwKeys[key]
	return ok && w.glw.GetKey(k) == glfw.Press
}

func (w *Window) Time() float64 {
	return glfw.GetTime()
}

// Destroy destroys the window and terminates glfw.
func (w *Window) Destroy() {
	if w.glw == nil {
		return
	}
	w.glw.Destroy()
	w.glw = nil
	glfw.Terminate()
}
