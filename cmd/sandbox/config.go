// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"kosmic.dev/lighting"
	"kosmic.dev/material"
)

//go:embed scene.yaml
var defaultScene []byte

// Config describes the window and the scene.
type Config struct {
	Window       WindowConfig   `yaml:"window"`
	ClearColor   [4]float32     `yaml:"clear_color"`
	Shaders      string         `yaml:"shaders"`
	TimerQueries int            `yaml:"timer_queries"`
	Offscreen    bool           `yaml:"offscreen"`
	Camera       CameraConfig   `yaml:"camera"`
	Mesh         string         `yaml:"mesh"`
	ObjectColor  [3]float32     `yaml:"object_color"`
	Material     MaterialConfig `yaml:"material"`
	Spin         float32        `yaml:"spin"`
	Sky          SkyConfig      `yaml:"sky"`
	Lighting     LightingConfig `yaml:"lighting"`
	Extras       []ExtraConfig  `yaml:"extras"`
}

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	VSync  bool   `yaml:"vsync"`
}

type CameraConfig struct {
	Position     [3]float32 `yaml:"position"`
	Pitch        float32    `yaml:"pitch"`
	Yaw          float32    `yaml:"yaw"`
	FOV          float32    `yaml:"fov"`
	Near         float32    `yaml:"near"`
	Far          float32    `yaml:"far"`
	Orthographic bool       `yaml:"orthographic"`
	HalfHeight   float32    `yaml:"half_height"`
	// Speed is in units per second, Sensitivity in degrees per pixel.
	Speed       float32 `yaml:"speed"`
	Sensitivity float32 `yaml:"sensitivity"`
}

type SkyConfig struct {
	Horizon [3]float32 `yaml:"horizon"`
	Zenith  [3]float32 `yaml:"zenith"`
}

type LightingConfig struct {
	Ambient struct {
		Color     [3]float32 `yaml:"color"`
		Intensity float32    `yaml:"intensity"`
	} `yaml:"ambient"`
	Directional struct {
		Direction [3]float32 `yaml:"direction"`
		Color     [3]float32 `yaml:"color"`
		Intensity float32    `yaml:"intensity"`
	} `yaml:"directional"`
	Points []struct {
		Position  [3]float32 `yaml:"position"`
		Color     [3]float32 `yaml:"color"`
		Intensity float32    `yaml:"intensity"`
		Range     float32    `yaml:"range"`
	} `yaml:"points"`
	// Cutoff angles are in degrees from the light direction.
	Spots []struct {
		Position    [3]float32 `yaml:"position"`
		Direction   [3]float32 `yaml:"direction"`
		Color       [3]float32 `yaml:"color"`
		Intensity   float32    `yaml:"intensity"`
		Cutoff      float32    `yaml:"cutoff"`
		OuterCutoff float32    `yaml:"outer_cutoff"`
	} `yaml:"spots"`
}

// MaterialConfig describes the surface of a mesh. Maps are image file
// paths. Fields left out of a material keep the values of
// material.Default.
type MaterialConfig struct {
	Ambient     [3]float32 `yaml:"ambient"`
	Diffuse     [3]float32 `yaml:"diffuse"`
	Specular    [3]float32 `yaml:"specular"`
	Shininess   float32    `yaml:"shininess"`
	DiffuseMap  string     `yaml:"diffuse_map"`
	SpecularMap string     `yaml:"specular_map"`
}

func (m *MaterialConfig) UnmarshalYAML(n *yaml.Node) error {
	if *m == (MaterialConfig{}) {
		def := material.Default()
		*m = MaterialConfig{
			Ambient:   def.Ambient,
			Diffuse:   def.Diffuse,
			Specular:  def.Specular,
			Shininess: def.Shininess,
		}
	}
	type plain MaterialConfig
	return n.Decode((*plain)(m))
}

// ExtraConfig is an additional mesh drawn by a user pass.
type ExtraConfig struct {
	Mesh     string     `yaml:"mesh"`
	Position [3]float32 `yaml:"position"`
	Scale    float32    `yaml:"scale"`
	// Material is the default material if nil.
	Material *MaterialConfig `yaml:"material"`
}

var meshNames = map[string]bool{
	"cube":     true,
	"sphere":   true,
	"quad":     true,
	"triangle": true,
}

// loadConfig parses the built-in scene and then, if path is not empty,
// the file at path on top of it.
func loadConfig(path string) (*Config, error) {
	cfg := new(Config)
	if err := decodeConfig(defaultScene, cfg); err != nil {
		return nil, fmt.Errorf("built-in scene: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := decodeConfig(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeConfig(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if !meshNames[c.Mesh] {
		return fmt.Errorf("unknown mesh %q", c.Mesh)
	}
	for i, e := range c.Extras {
		if !meshNames[e.Mesh] {
			return fmt.Errorf("extra %d: unknown mesh %q", i, e.Mesh)
		}
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("invalid clip planes %v, %v", c.Camera.Near, c.Camera.Far)
	}
	if n := len(c.Lighting.Points); n > lighting.MaxPointLights {
		return fmt.Errorf("%d point lights, at most %d are supported", n, lighting.MaxPointLights)
	}
	if n := len(c.Lighting.Spots); n > lighting.MaxSpotLights {
		return fmt.Errorf("%d spot lights, at most %d are supported", n, lighting.MaxSpotLights)
	}
	for i, s := range c.Lighting.Spots {
		if s.Cutoff <= 0 || s.Cutoff >= 90 || s.OuterCutoff >= 90 {
			return fmt.Errorf("spot light %d: invalid cutoff %v, %v", i, s.Cutoff, s.OuterCutoff)
		}
	}
	if c.Material.Shininess < 0 {
		return fmt.Errorf("negative shininess %v", c.Material.Shininess)
	}
	return nil
}

// Environment returns the lights of the scene.
func (c *Config) Environment() lighting.Environment {
	l := c.Lighting
	env := lighting.Environment{
		Ambient: lighting.Ambient{Color: l.Ambient.Color, Intensity: l.Ambient.Intensity},
		Directional: lighting.Directional{
			Direction: l.Directional.Direction,
			Color:     l.Directional.Color,
			Intensity: l.Directional.Intensity,
		},
	}
	for _, p := range l.Points {
		env.Points = append(env.Points, lighting.PointLight{
			Position:  p.Position,
			Color:     p.Color,
			Intensity: p.Intensity,
			Range:     p.Range,
		})
	}
	for _, s := range l.Spots {
		env.Spots = append(env.Spots, lighting.SpotLight{
			Position:    s.Position,
			Direction:   s.Direction,
			Color:       s.Color,
			Intensity:   s.Intensity,
			Cutoff:      s.Cutoff,
			OuterCutoff: s.OuterCutoff,
		})
	}
	return env
}

// Transform returns the model matrix of an extra mesh.
func (e ExtraConfig) Transform() mgl32.Mat4 {
	s := e.Scale
	if s == 0 {
		s = 1
	}
	p := e.Position
	return mgl32.Translate3D(p[0], p[1], p[2]).Mul4(mgl32.Scale3D(s, s, s))
}
