// SPDX-License-Identifier: Unlicense OR MIT

// Package material describes how the surface of a mesh reflects light.
package material

import (
	"github.com/go-gl/mathgl/mgl32"

	"kosmic.dev/texture"
)

// Texture units the maps are bound to. They match the sampler bindings
// of the built-in scene program.
const (
	DiffuseUnit  = 0
	SpecularUnit = 1
)

// Material holds the Phong reflection terms of a surface. The maps are
// optional and owned by the caller.
type Material struct {
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Shininess float32

	// DiffuseMap, if set, is multiplied into the diffuse and ambient
	// terms.
	DiffuseMap *texture.Texture
	// SpecularMap, if set, scales the specular term.
	SpecularMap *texture.Texture
}

// Uniforms is the subset of a program that Apply writes to.
type Uniforms interface {
	SetVec3(name string, v mgl32.Vec3)
	SetFloat(name string, v float32)
	SetInt(name string, v int32)
}

// Default returns a white material with a shininess of 32 and no maps.
func Default() Material {
	return Material{
		Ambient:   mgl32.Vec3{1, 1, 1},
		Diffuse:   mgl32.Vec3{1, 1, 1},
		Specular:  mgl32.Vec3{1, 1, 1},
		Shininess: 32,
	}
}

// Apply writes the material terms and sampler units to u.
func (m *Material) Apply(u Uniforms) {
	u.SetVec3("u_MaterialAmbient", m.Ambient)
	u.SetVec3("u_MaterialDiffuse", m.Diffuse)
	u.SetVec3("u_MaterialSpecular", m.Specular)
	u.SetFloat("u_MaterialShininess", m.Shininess)
	u.SetInt("u_Texture", DiffuseUnit)
	u.SetInt("u_UseTexture", flag(m.DiffuseMap != nil))
	u.SetInt("u_SpecularMap", SpecularUnit)
	u.SetInt("u_UseSpecularMap", flag(m.SpecularMap != nil))
}

// Bind binds the maps to their units.
func (m *Material) Bind() {
	if m.DiffuseMap != nil {
		m.DiffuseMap.Bind(DiffuseUnit)
	}
	if m.SpecularMap != nil {
		m.SpecularMap.Bind(SpecularUnit)
	}
}

// Unbind clears the units bound by Bind.
func (m *Material) Unbind() {
	if m.DiffuseMap != nil {
		m.DiffuseMap.Unbind()
	}
	if m.SpecularMap != nil {
		m.SpecularMap.Unbind()
	}
}

func flag(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
