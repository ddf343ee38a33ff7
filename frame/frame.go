// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package frame drives the per-frame render loop: one program,
// one geometry and any number of textures, drawn with exactly one
// draw call per frame until the window asks to close.
package frame

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"cogentcore.org/core/math32"
	"cogentcore.org/glsandbox/gpu"
	"cogentcore.org/glsandbox/window"
)

// States are the lifecycle states of a [Driver].
type States int32

const (
	// Uninitialized is the state before Init.
	Uninitialized States = iota

	// Ready means all resources are bound and the loop can start.
	Ready

	// Running is the state while the loop is running.
	Running

	// Terminated is the final state, after the window closed.
	Terminated
)

func (s States) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Terminated:
		return "Terminated"
	}
	return fmt.Sprintf("States(%d)", int32(s))
}

// Binding binds a texture to a texture unit, and the
// named sampler uniform of the program to that unit.
type Binding struct {
	Texture *gpu.Texture

	// Unit is the texture unit.
	Unit int

	// Sampler is the sampler uniform name, e.g. "texture1".
	// Empty leaves the sampler at its default of unit 0.
	Sampler string
}

// Driver renders frames into a window.
// All fields must be set before Init, except those noted.
type Driver struct {
	Context  *gpu.Context
	Window   window.Window
	Program  *gpu.Program
	Geometry *gpu.Geometry

	// Bindings are the textures activated for each frame.
	Bindings []Binding

	// ClearColor is the background color.
	ClearColor math32.Vector4

	// Wireframe draws polygon outlines; toggled with the W key.
	Wireframe bool

	// Uniforms, if set, is called every frame after the program
	// is made current, to set per-frame uniforms.
	Uniforms func(d *Driver)

	// OnResize, if set, is called after the viewport follows
	// a framebuffer resize.
	OnResize func(size image.Point)

	// Reloader, if set, rebuilds the program when its source
	// files change. Optional.
	Reloader *Reloader

	// MaxFrames, if > 0, asks the window to close once
	// that many frames have been rendered.
	MaxFrames int

	// Frames is the number of frames rendered.
	Frames int

	// State is the current lifecycle state.
	State States

	wireKey bool
}

// Init binds the sampler uniforms, tracks the window size with
// the viewport and moves the driver to [Ready].
func (d *Driver) Init() error {
	if d.State != Uninitialized {
		return fmt.Errorf("frame.Driver Init: state is %s, not Uninitialized", d.State)
	}
	switch {
	case d.Context == nil:
		return gpu.ErrNoContext
	case d.Window == nil:
		return errors.New("frame.Driver Init: no window")
	case d.Program == nil:
		return errors.New("frame.Driver Init: no program")
	case d.Geometry == nil:
		return errors.New("frame.Driver Init: no geometry")
	}
	units := make(map[int]bool, len(d.Bindings))
	for _, b := range d.Bindings {
		if b.Texture == nil {
			return fmt.Errorf("frame.Driver Init: no texture for unit %d", b.Unit)
		}
		if units[b.Unit] {
			return fmt.Errorf("frame.Driver Init: texture unit %d bound twice", b.Unit)
		}
		units[b.Unit] = true
	}
	d.bindSamplers()
	d.Window.OnResize(func(size image.Point) {
		d.Context.SetViewport(size)
		if d.OnResize != nil {
			d.OnResize(size)
		}
	})
	d.Context.SetViewport(d.Window.Size())
	d.Context.SetWireframe(d.Wireframe)
	d.State = Ready
	slog.Debug("frame.Driver ready", "program", d.Program.Name, "geometry", d.Geometry.Name, "textures", len(d.Bindings))
	return nil
}

// bindSamplers points each sampler uniform at its texture unit.
func (d *Driver) bindSamplers() {
	d.Program.Use()
	for _, b := range d.Bindings {
		if b.Sampler != "" {
			d.Program.SetInt(b.Sampler, b.Unit)
		}
	}
}

// processInput handles the escape and wireframe keys.
func (d *Driver) processInput() {
	if d.Window.KeyPressed(window.KeyEscape) {
		d.Window.SetShouldClose(true)
	}
	w := d.Window.KeyPressed(window.KeyW)
	if w && !d.wireKey {
		d.Wireframe = !d.Wireframe
		d.Context.SetWireframe(d.Wireframe)
	}
	d.wireKey = w
}

// RenderFrame renders and presents one frame: input, clear,
// textures, program, uniforms and a single draw call.
func (d *Driver) RenderFrame() error {
	if d.State != Ready && d.State != Running {
		return fmt.Errorf("frame.Driver RenderFrame: state is %s", d.State)
	}
	d.processInput()
	d.Context.BeginFrame()
	cc := d.ClearColor
	d.Context.Clear(cc.X, cc.Y, cc.Z, cc.W)
	for _, b := range d.Bindings {
		if err := b.Texture.Activate(b.Unit); err != nil {
			return err
		}
	}
	d.Program.Use()
	if d.Uniforms != nil {
		d.Uniforms(d)
	}
	if err := d.Geometry.Draw(); err != nil {
		return err
	}
	if err := d.Context.ErrCheck("frame.Driver RenderFrame"); err != nil {
		return err
	}
	d.Window.Present()
	d.Window.PollEvents()
	d.Frames++
	if d.MaxFrames > 0 && d.Frames >= d.MaxFrames {
		d.Window.SetShouldClose(true)
	}
	return nil
}

// Run renders frames until the window asks to close,
// moving from [Ready] through [Running] to [Terminated].
// A frame error also terminates the loop and is returned.
func (d *Driver) Run() error {
	if d.State != Ready {
		return fmt.Errorf("frame.Driver Run: state is %s, not Ready", d.State)
	}
	d.State = Running
	defer func() { d.State = Terminated }()
	for !d.Window.ShouldClose() {
		if d.Reloader != nil && d.Reloader.Changed() {
			d.Reload()
		}
		if err := d.RenderFrame(); err != nil {
			return err
		}
	}
	slog.Info("frame.Driver terminated", "frames", d.Frames)
	return nil
}

// Reload rebuilds the program with the Reloader and swaps it in.
// On failure the current program is kept and the error is logged
// and returned.
func (d *Driver) Reload() error {
	if d.Reloader == nil || d.Reloader.Build == nil {
		return errors.New("frame.Driver Reload: no reloader")
	}
	pr, err := d.Reloader.Build()
	if err != nil {
		slog.Error("frame.Driver Reload: keeping current program", "program", d.Program.Name, "err", err)
		return err
	}
	old := d.Program
	d.Program = pr
	d.bindSamplers()
	old.Release()
	slog.Info("frame.Driver reloaded program", "program", pr.Name)
	return nil
}
