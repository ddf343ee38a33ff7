// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config contains the configuration of the sandbox:
// window, shader sources, textures and render options.
// It can be loaded from a TOML or YAML file, and is then
// overridden by command line flags.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cogentcore.org/glsandbox/gpu"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Texture is a texture image and the sampler uniform it is bound to.
type Texture struct {

	// the image file to load
	Path string `toml:"path" yaml:"path"`

	// the sampler uniform name; defaults to texture1, texture2, ...
	Sampler string `toml:"sampler,omitempty" yaml:"sampler,omitempty"`
}

// Config is the sandbox configuration.
type Config struct {

	// the window title
	Title string `toml:"title" yaml:"title"`

	// the window width in screen coordinates
	Width int `toml:"width" yaml:"width"`

	// the window height in screen coordinates
	Height int `toml:"height" yaml:"height"`

	// the built-in shader set to use when Vertex and Fragment are not set
	Program string `toml:"program" yaml:"program"`

	// the vertex shader file; overrides Program
	Vertex string `toml:"vertex,omitempty" yaml:"vertex,omitempty"`

	// the fragment shader file; overrides Program
	Fragment string `toml:"fragment,omitempty" yaml:"fragment,omitempty"`

	// the textures, bound to units in order
	Textures []Texture `toml:"textures,omitempty" yaml:"textures,omitempty"`

	// the background color (RGBA)
	ClearColor [4]float32 `toml:"clear_color" yaml:"clear_color"`

	// the texture filter: linear or nearest
	Filter string `toml:"filter" yaml:"filter"`

	// the texture wrap mode: repeat, mirrored or clamp
	Wrap string `toml:"wrap" yaml:"wrap"`

	// the mix factor between the first two textures, for the mix program
	MixValue float32 `toml:"mix_value" yaml:"mix_value"`

	// flip images vertically on load, so that the first row is the bottom
	FlipY bool `toml:"flip_y" yaml:"flip_y"`

	// draw polygon outlines only
	Wireframe bool `toml:"wireframe" yaml:"wireframe"`

	// translate the quad and rotate it over time
	Animate bool `toml:"animate" yaml:"animate"`

	// rebuild the program when shader files change
	Watch bool `toml:"watch" yaml:"watch"`

	// render offscreen with the software renderer
	Headless bool `toml:"headless" yaml:"headless"`

	// the number of frames to render, 0 for until the window closes
	Frames int `toml:"frames" yaml:"frames"`

	// the PNG file to save the last headless frame to
	Output string `toml:"output,omitempty" yaml:"output,omitempty"`

	// the number of screen refreshes per buffer swap
	SwapInterval int `toml:"swap_interval" yaml:"swap_interval"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Title:        "LearnOpenGL",
		Width:        800,
		Height:       600,
		Program:      "texture",
		ClearColor:   [4]float32{0.2, 0.3, 0.3, 1},
		Filter:       "linear",
		Wrap:         "repeat",
		MixValue:     0.2,
		FlipY:        true,
		SwapInterval: 1,
	}
}

var filters = map[string]gpu.FilterModes{
	"linear":  gpu.Linear,
	"nearest": gpu.Nearest,
}

var wraps = map[string]gpu.WrapModes{
	"repeat":   gpu.Repeat,
	"mirrored": gpu.MirroredRepeat,
	"clamp":    gpu.ClampToEdge,
}

// Open loads the configuration file at given path onto c,
// keeping the current value of any field the file does not set.
// The format follows the extension: .toml, .yaml or .yml.
// Relative file paths in the configuration are resolved
// against the directory of the configuration file.
func (c *Config) Open(path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return &gpu.FileReadError{Path: path, Err: err}
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(b)).DisallowUnknownFields().Decode(c)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		err = dec.Decode(c)
	default:
		return fmt.Errorf("config: unsupported file type %q for %q", ext, path)
	}
	if err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	c.resolve(filepath.Dir(path))
	return nil
}

// resolve expands ~ in file paths and makes relative
// paths relative to dir.
func (c *Config) resolve(dir string) {
	abs := func(p string) string {
		if p == "" {
			return p
		}
		if ep, err := homedir.Expand(p); err == nil {
			p = ep
		}
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Vertex = abs(c.Vertex)
	c.Fragment = abs(c.Fragment)
	c.Output = abs(c.Output)
	for i := range c.Textures {
		c.Textures[i].Path = abs(c.Textures[i].Path)
	}
}

// Save saves the configuration to given file,
// in the format given by its extension.
func (c *Config) Save(path string) error {
	var b []byte
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		b, err = toml.Marshal(c)
	case ".yaml", ".yml":
		b, err = yaml.Marshal(c)
	default:
		return fmt.Errorf("config: unsupported file type %q for %q", ext, path)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config: invalid window size %dx%d", c.Width, c.Height)
	}
	if c.Frames < 0 {
		return fmt.Errorf("config: invalid frame count %d", c.Frames)
	}
	if (c.Vertex == "") != (c.Fragment == "") {
		return fmt.Errorf("config: vertex and fragment shader files must be set together")
	}
	if _, ok := filters[c.Filter]; !ok {
		return fmt.Errorf("config: unknown texture filter %q", c.Filter)
	}
	if _, ok := wraps[c.Wrap]; !ok {
		return fmt.Errorf("config: unknown texture wrap mode %q", c.Wrap)
	}
	for i, tx := range c.Textures {
		if tx.Path == "" {
			return fmt.Errorf("config: texture %d has no path", i+1)
		}
	}
	return nil
}

// TextureOptions returns the texture sampling options.
// The configuration must be valid.
func (c *Config) TextureOptions() gpu.TextureOptions {
	f := filters[c.Filter]
	opts := gpu.TextureOptions{Wrap: wraps[c.Wrap], MagFilter: f, MinFilter: f}
	if f == gpu.Linear {
		opts.MinFilter = gpu.LinearMipmapLinear
	}
	return opts
}

// Sampler returns the sampler uniform name for texture i:
// its configured name, or texture1, texture2, ...
func (c *Config) Sampler(i int) string {
	if s := c.Textures[i].Sampler; s != "" {
		return s
	}
	return fmt.Sprintf("texture%d", i+1)
}
