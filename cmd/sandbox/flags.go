// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"flag"
	"fmt"
)

type flags struct {
	config    *string
	mesh      *string
	shaders   *string
	texture   *string
	width     *int
	height    *int
	offscreen *bool
	vsync     *bool
	frames    *int
	output    *string
	verbose   *bool
}

func registerFlags(fs *flag.FlagSet) *flags {
	return &flags{
		config:    fs.String("config", "", "scene file (YAML)."),
		mesh:      fs.String("mesh", "", "scene mesh (cube, sphere, quad, triangle)."),
		shaders:   fs.String("shaders", "", "directory with basic.{vert,frag} and sky.{vert,frag}."),
		texture:   fs.String("texture", "", "diffuse map of the scene mesh material."),
		width:     fs.Int("width", 0, "window width in pixels."),
		height:    fs.Int("height", 0, "window height in pixels."),
		offscreen: fs.Bool("offscreen", false, "render through an offscreen target."),
		vsync:     fs.Bool("vsync", true, "synchronize buffer swaps with the display."),
		frames:    fs.Int("frames", 0, "render this many frames headlessly and exit."),
		output:    fs.String("o", "", "PNG file for the last headless frame."),
		verbose:   fs.Bool("v", false, "log debug messages."),
	}
}

// apply overrides the settings of cfg with the flags set on the command
// line.
func (f *flags) apply(cfg *Config, fs *flag.FlagSet) error {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "mesh":
			cfg.Mesh = *f.mesh
		case "shaders":
			cfg.Shaders = *f.shaders
		case "texture":
			cfg.Material.DiffuseMap = *f.texture
		case "width":
			cfg.Window.Width = *f.width
		case "height":
			cfg.Window.Height = *f.height
		case "offscreen":
			cfg.Offscreen = *f.offscreen
		case "vsync":
			cfg.Window.VSync = *f.vsync
		}
	})
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	return nil
}
