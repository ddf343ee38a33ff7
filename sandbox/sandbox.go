// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sandbox sets up and runs the textured quad: it opens
// the window and GL context, builds the program, geometry and
// textures, and hands them to a [frame.Driver].
package sandbox

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"cogentcore.org/core/base/iox/imagex"
	"cogentcore.org/core/math32"
	"cogentcore.org/glsandbox/config"
	"cogentcore.org/glsandbox/decode"
	"cogentcore.org/glsandbox/frame"
	"cogentcore.org/glsandbox/gpu"
	"cogentcore.org/glsandbox/gpu/glgpu"
	"cogentcore.org/glsandbox/gpu/softgpu"
	"cogentcore.org/glsandbox/shaders"
	"cogentcore.org/glsandbox/window"
	"cogentcore.org/glsandbox/window/desktop"
)

// App is a configured sandbox, ready to run.
type App struct {
	Config *config.Config

	Context *gpu.Context
	Window  window.Window
	Driver  *frame.Driver

	// Soft is the software renderer in headless mode, nil otherwise.
	Soft *softgpu.GL

	textures []*gpu.Texture
}

// Run sets up a sandbox for given configuration, runs it until the
// window closes and releases it. Shader file, compile and link errors
// are returned before the first frame is rendered.
func Run(cfg *config.Config) error {
	app, err := New(cfg)
	if err != nil {
		return err
	}
	defer app.Release()
	return app.Run()
}

// New opens the window and context and builds all resources.
// On error, everything built so far is released.
func New(cfg *config.Config) (app *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app = &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Release()
			app = nil
		}
	}()
	if err = app.openWindow(); err != nil {
		return
	}
	d := &frame.Driver{
		Context:    app.Context,
		Window:     app.Window,
		ClearColor: math32.Vec4(cfg.ClearColor[0], cfg.ClearColor[1], cfg.ClearColor[2], cfg.ClearColor[3]),
		Wireframe:  cfg.Wireframe,
		Uniforms:   app.uniforms,
	}
	app.Driver = d
	if app.Soft != nil {
		d.OnResize = func(size image.Point) { app.Soft.Resize(size.X, size.Y) }
	} else {
		d.MaxFrames = cfg.Frames
	}
	if d.Program, err = app.BuildProgram(); err != nil {
		return
	}
	d.Geometry = gpu.NewGeometry(app.Context, "quad")
	if err = d.Geometry.Upload(QuadVertices, QuadIndexes, QuadStride, QuadLayout); err != nil {
		return
	}
	if d.Bindings, err = app.loadTextures(); err != nil {
		return
	}
	if cfg.Watch && cfg.Vertex != "" {
		if d.Reloader, err = frame.NewReloader(app.BuildProgram, cfg.Vertex, cfg.Fragment); err != nil {
			return
		}
	}
	err = d.Init()
	return
}

// openWindow opens an offscreen window with the software renderer
// in headless mode, and a desktop window with OpenGL otherwise.
func (app *App) openWindow() error {
	cfg := app.Config
	size := image.Point{cfg.Width, cfg.Height}
	if cfg.Headless {
		frames := cfg.Frames
		if frames == 0 {
			frames = 1
		}
		app.Soft = softgpu.New(size.X, size.Y)
		win := window.NewOffscreen(size, frames)
		app.Window = win
		app.Context = gpu.NewContext(app.Soft)
		slog.Info("sandbox: headless", "size", size, "frames", frames)
		return nil
	}
	win, err := desktop.NewWindow(desktop.Options{Title: cfg.Title, Size: size, SwapInterval: cfg.SwapInterval})
	if err != nil {
		return err
	}
	app.Window = win
	gl, err := glgpu.Init()
	if err != nil {
		return err
	}
	app.Context = gpu.NewContext(gl)
	return nil
}

// BuildProgram builds the program from the configured shader
// files, or from the built-in shader set.
func (app *App) BuildProgram() (*gpu.Program, error) {
	cfg := app.Config
	if cfg.Vertex != "" {
		name := filepath.Base(cfg.Fragment)
		return gpu.OpenProgramFiles(app.Context, name, cfg.Vertex, cfg.Fragment)
	}
	set, ok := shaders.Sets[cfg.Program]
	if !ok {
		return nil, fmt.Errorf("sandbox: unknown built-in program %q", cfg.Program)
	}
	return gpu.OpenProgram(app.Context, cfg.Program, shaders.Content, set[0], set[1])
}

// loadTextures creates the configured textures on units 0, 1, ...
// A texture that cannot be decoded is logged and left blank.
// With no textures configured, built-in patterns are bound
// to texture1 and texture2.
func (app *App) loadTextures() ([]frame.Binding, error) {
	cfg := app.Config
	opts := cfg.TextureOptions()
	if len(cfg.Textures) == 0 {
		a := gpu.NewTexture(app.Context, "checkerboard", opts)
		b := gpu.NewTexture(app.Context, "stripes", opts)
		app.textures = append(app.textures, a, b)
		if err := a.Create(Checkerboard(8, 1, [3]byte{230, 160, 60}, [3]byte{60, 40, 20}), 8, 8, 3); err != nil {
			return nil, err
		}
		if err := b.Create(Checkerboard(8, 8, [3]byte{240, 240, 240}, [3]byte{0, 0, 0}), 8, 8, 3); err != nil {
			return nil, err
		}
		return []frame.Binding{
			{Texture: a, Unit: 0, Sampler: "texture1"},
			{Texture: b, Unit: 1, Sampler: "texture2"},
		}, nil
	}
	if mx := app.Context.MaxTextureUnits(); len(cfg.Textures) > mx {
		return nil, fmt.Errorf("sandbox: %d textures configured, only %d texture units available", len(cfg.Textures), mx)
	}
	dopts := decode.Options{FlipY: cfg.FlipY}
	var binds []frame.Binding
	for i, tc := range cfg.Textures {
		tx := gpu.NewTexture(app.Context, tc.Path, opts)
		app.textures = append(app.textures, tx)
		img, err := dopts.Decode(tc.Path)
		if err == nil {
			err = tx.Create(img.Pixels, img.Width, img.Height, img.Channels)
		} else {
			tx.Create(nil, 0, 0, 0)
		}
		var de *gpu.TextureDecodeError
		if errors.As(err, &de) {
			slog.Error("sandbox: failed to load texture, using a blank one", "texture", tc.Path, "err", err)
		} else if err != nil {
			return nil, err
		}
		binds = append(binds, frame.Binding{Texture: tx, Unit: i, Sampler: cfg.Sampler(i)})
	}
	return binds, nil
}

// uniforms sets the per-frame uniforms. Programs that do not
// declare one of them ignore it.
func (app *App) uniforms(d *frame.Driver) {
	t := float32(d.Window.Time())
	d.Program.SetVector4("ourColor", math32.Vec4(0, Pulse(t), 0, 1))
	d.Program.SetFloat("mixValue", app.Config.MixValue)
	if app.Config.Animate {
		d.Program.SetMatrix4("transform", Transform(t))
	} else {
		d.Program.SetMatrix4("transform", math32.Identity4())
	}
}

// Run renders until the window closes. In headless mode the
// last frame is then saved to the configured output file.
func (app *App) Run() error {
	if err := app.Driver.Run(); err != nil {
		return err
	}
	if app.Soft != nil && app.Config.Output != "" {
		if err := imagex.Save(app.Soft.Image(), app.Config.Output); err != nil {
			return err
		}
		slog.Info("sandbox: saved frame", "file", app.Config.Output)
	}
	return nil
}

// Release releases all GL resources and destroys the window.
func (app *App) Release() {
	if d := app.Driver; d != nil {
		if d.Reloader != nil {
			d.Reloader.Close()
		}
		if d.Program != nil {
			d.Program.Release()
		}
		if d.Geometry != nil {
			d.Geometry.Release()
		}
	}
	for _, tx := range app.textures {
		tx.Release()
	}
	app.textures = nil
	if app.Window != nil {
		app.Window.Destroy()
	}
}
