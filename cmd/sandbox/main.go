// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command sandbox draws a textured quad with OpenGL 3.3,
// or offscreen with the software renderer.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"cogentcore.org/core/base/logx"
	"cogentcore.org/glsandbox/config"
	"cogentcore.org/glsandbox/sandbox"
	"github.com/urfave/cli/v2"
)

func init() {
	// must be called before any window or GL calls
	runtime.LockOSThread()
}

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "TOML or YAML configuration file",
	}
	programFlag = &cli.StringFlag{
		Name:  "program",
		Usage: "built-in shader program: texture, mix or color",
	}
	vertexFlag = &cli.StringFlag{
		Name:  "vertex",
		Usage: "vertex shader file",
	}
	fragmentFlag = &cli.StringFlag{
		Name:  "fragment",
		Usage: "fragment shader file",
	}
	textureFlag = &cli.StringSliceFlag{
		Name:    "texture",
		Aliases: []string{"t"},
		Usage:   "texture image file, bound to texture1, texture2, ... in order",
	}
	titleFlag = &cli.StringFlag{
		Name:  "title",
		Usage: "window title",
	}
	widthFlag = &cli.IntFlag{
		Name:  "width",
		Usage: "window width",
	}
	heightFlag = &cli.IntFlag{
		Name:  "height",
		Usage: "window height",
	}
	filterFlag = &cli.StringFlag{
		Name:  "filter",
		Usage: "texture filter: linear or nearest",
	}
	flipFlag = &cli.BoolFlag{
		Name:  "flip",
		Usage: "flip images vertically on load",
		Value: true,
	}
	wireframeFlag = &cli.BoolFlag{
		Name:  "wireframe",
		Usage: "draw polygon outlines only (toggle with W)",
	}
	animateFlag = &cli.BoolFlag{
		Name:  "animate",
		Usage: "translate the quad and rotate it over time",
	}
	watchFlag = &cli.BoolFlag{
		Name:  "watch",
		Usage: "rebuild the program when the shader files change",
	}
	headlessFlag = &cli.BoolFlag{
		Name:  "headless",
		Usage: "render offscreen with the software renderer",
	}
	framesFlag = &cli.IntFlag{
		Name:  "frames",
		Usage: "number of frames to render, 0 for until the window closes",
	}
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "PNG file to save the last headless frame to",
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "log debug messages",
	}
	quietFlag = &cli.BoolFlag{
		Name:    "quiet",
		Aliases: []string{"q"},
		Usage:   "only log errors",
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "sandbox",
		Usage: "draw a textured quad with OpenGL",
		Flags: []cli.Flag{
			configFlag, programFlag, vertexFlag, fragmentFlag, textureFlag,
			titleFlag, widthFlag, heightFlag, filterFlag, flipFlag,
			wireframeFlag, animateFlag, watchFlag, headlessFlag, framesFlag,
			outputFlag, verboseFlag, quietFlag,
		},
		Before: func(ctx *cli.Context) error {
			setLogger(ctx, ctx.App.ErrWriter)
			return nil
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			return sandbox.Run(cfg)
		},
		Commands: []*cli.Command{
			{
				Name:      "config",
				Usage:     "write the configuration, with flags applied, to a TOML or YAML file",
				ArgsUsage: "<file>",
				Action: func(ctx *cli.Context) error {
					if ctx.NArg() != 1 {
						return fmt.Errorf("config: expected one file name, got %d arguments", ctx.NArg())
					}
					cfg, err := loadConfig(ctx)
					if err != nil {
						return err
					}
					return cfg.Save(ctx.Args().First())
				},
			},
		},
	}
}

// setLogger sets the default logger at the level given
// by the verbose and quiet flags.
func setLogger(ctx *cli.Context, w io.Writer) {
	switch {
	case ctx.Bool(verboseFlag.Name):
		logx.UserLevel = slog.LevelDebug
	case ctx.Bool(quietFlag.Name):
		logx.UserLevel = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logx.UserLevel})))
}

// loadConfig returns the default configuration, overridden by
// the configuration file if any, then by the flags that are set.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Defaults()
	if fn := ctx.String(configFlag.Name); fn != "" {
		if err := cfg.Open(fn); err != nil {
			return nil, err
		}
	}
	if ctx.IsSet(programFlag.Name) {
		cfg.Program = ctx.String(programFlag.Name)
	}
	if ctx.IsSet(vertexFlag.Name) {
		cfg.Vertex = ctx.String(vertexFlag.Name)
	}
	if ctx.IsSet(fragmentFlag.Name) {
		cfg.Fragment = ctx.String(fragmentFlag.Name)
	}
	if ctx.IsSet(textureFlag.Name) {
		cfg.Textures = nil
		for _, p := range ctx.StringSlice(textureFlag.Name) {
			cfg.Textures = append(cfg.Textures, config.Texture{Path: p})
		}
	}
	if ctx.IsSet(titleFlag.Name) {
		cfg.Title = ctx.String(titleFlag.Name)
	}
	if ctx.IsSet(widthFlag.Name) {
		cfg.Width = ctx.Int(widthFlag.Name)
	}
	if ctx.IsSet(heightFlag.Name) {
		cfg.Height = ctx.Int(heightFlag.Name)
	}
	if ctx.IsSet(filterFlag.Name) {
		cfg.Filter = ctx.String(filterFlag.Name)
	}
	if ctx.IsSet(flipFlag.Name) {
		cfg.FlipY = ctx.Bool(flipFlag.Name)
	}
	if ctx.IsSet(wireframeFlag.Name) {
		cfg.Wireframe = ctx.Bool(wireframeFlag.Name)
	}
	if ctx.IsSet(animateFlag.Name) {
		cfg.Animate = ctx.Bool(animateFlag.Name)
	}
	if ctx.IsSet(watchFlag.Name) {
		cfg.Watch = ctx.Bool(watchFlag.Name)
	}
	if ctx.IsSet(headlessFlag.Name) {
		cfg.Headless = ctx.Bool(headlessFlag.Name)
	}
	if ctx.IsSet(framesFlag.Name) {
		cfg.Frames = ctx.Int(framesFlag.Name)
	}
	if ctx.IsSet(outputFlag.Name) {
		cfg.Output = ctx.String(outputFlag.Name)
	}
	return cfg, nil
}

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}
