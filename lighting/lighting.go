// SPDX-License-Identifier: Unlicense OR MIT

// Package lighting describes the lights of a scene and writes them to
// the uniforms of the built-in scene program.
package lighting

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Number of point and spot lights the scene program evaluates.
const (
	MaxPointLights = 4
	MaxSpotLights  = 4
)

type Ambient struct {
	Color     mgl32.Vec3
	Intensity float32
}

// Directional is a light infinitely far away. Direction points from the
// light towards the scene.
type Directional struct {
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

// PointLight falls off to zero at Range.
type PointLight struct {
	Position  mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
	Range     float32
}

// SpotLight is a cone of light. Inside Cutoff degrees of the direction
// the light is at full intensity; it fades to zero at OuterCutoff.
type SpotLight struct {
	Position    mgl32.Vec3
	Direction   mgl32.Vec3
	Color       mgl32.Vec3
	Intensity   float32
	Cutoff      float32
	OuterCutoff float32
}

// Environment is the complete light setup of a frame.
type Environment struct {
	Ambient     Ambient
	Directional Directional
	// Points beyond MaxPointLights and Spots beyond MaxSpotLights are
	// ignored.
	Points []PointLight
	Spots  []SpotLight
}

// Uniforms is the subset of a program that Apply writes to.
type Uniforms interface {
	SetVec3(name string, v mgl32.Vec3)
	SetFloat(name string, v float32)
	SetInt(name string, v int32)
}

// Default returns a dim white ambient light and a white sun shining
// down and slightly forward.
func Default() Environment {
	return Environment{
		Ambient: Ambient{Color: mgl32.Vec3{1, 1, 1}, Intensity: 0.3},
		Directional: Directional{
			Direction: mgl32.Vec3{-0.2, -1, -0.3},
			Color:     mgl32.Vec3{1, 1, 1},
			Intensity: 0.7,
		},
	}
}

// Apply writes the environment to u.
func (e Environment) Apply(u Uniforms) {
	u.SetVec3("u_AmbientLightColor", e.Ambient.Color)
	u.SetFloat("u_AmbientLightIntensity", e.Ambient.Intensity)
	u.SetVec3("u_DirLightDirection", e.Directional.Direction)
	u.SetVec3("u_DirLightColor", e.Directional.Color)
	u.SetFloat("u_DirLightIntensity", e.Directional.Intensity)

	n := len(e.Points)
	if n > MaxPointLights {
		n = MaxPointLights
	}
	u.SetInt("u_PointLightCount", int32(n))
	for i, l := range e.Points[:n] {
		names := &pointNames[i]
		u.SetVec3(names.position, l.Position)
		u.SetVec3(names.color, l.Color)
		u.SetFloat(names.intensity, l.Intensity)
		u.SetFloat(names.rng, l.Range)
	}

	n = min(len(e.Spots), MaxSpotLights)
	u.SetInt("u_SpotLightCount", int32(n))
	for i, l := range e.Spots[:n] {
		names := &spotNames[i]
		outer := max(l.OuterCutoff, l.Cutoff)
		u.SetVec3(names.position, l.Position)
		u.SetVec3(names.direction, l.Direction)
		u.SetVec3(names.color, l.Color)
		u.SetFloat(names.intensity, l.Intensity)
		u.SetFloat(names.cutoff, cosDeg(l.Cutoff))
		u.SetFloat(names.outerCutoff, cosDeg(outer))
	}
}

// cosDeg returns the cosine of an angle in degrees, the form the shader
// compares against.
func cosDeg(deg float32) float32 {
	return float32(math.Cos(float64(mgl32.DegToRad(deg))))
}

// Point light uniform names, indexed by light.
var pointNames [MaxPointLights]struct {
	position, color, intensity, rng string
}

var spotNames [MaxSpotLights]struct {
	position, direction, color, intensity, cutoff, outerCutoff string
}

func init() {
	for i := range pointNames {
		n := &pointNames[i]
		n.position = fmt.Sprintf("u_PointLightPosition[%d]", i)
		n.color = fmt.Sprintf("u_PointLightColor[%d]", i)
		n.intensity = fmt.Sprintf("u_PointLightIntensity[%d]", i)
		n.rng = fmt.Sprintf("u_PointLightRange[%d]", i)
	}
	for i := range spotNames {
		n := &spotNames[i]
		n.position = fmt.Sprintf("u_SpotLightPosition[%d]", i)
		n.direction = fmt.Sprintf("u_SpotLightDirection[%d]", i)
		n.color = fmt.Sprintf("u_SpotLightColor[%d]", i)
		n.intensity = fmt.Sprintf("u_SpotLightIntensity[%d]", i)
		n.cutoff = fmt.Sprintf("u_SpotLightCutoff[%d]", i)
		n.outerCutoff = fmt.Sprintf("u_SpotLightOuterCutoff[%d]", i)
	}
}
