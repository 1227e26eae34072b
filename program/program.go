// SPDX-License-Identifier: Unlicense OR MIT

// Package program wraps linked GPU programs with name keyed uniform
// setters.
package program

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"

	"gioui.org/shader"
	"github.com/go-gl/mathgl/mgl32"

	"kosmic.dev"
	"kosmic.dev/gpu/driver"
	"kosmic.dev/material"
)

//go:embed shaders/*.vert shaders/*.frag
var shaders embed.FS

// Program is a linked vertex and fragment program. Uniform locations
// are looked up once per name and cached, including names the program
// does not declare.
type Program struct {
	dev  driver.Device
	prog driver.Program
	name string
	locs map[string]int
}

// New compiles and links vertex and fragment. Failures are returned as
// *driver.CompileError.
func New(d driver.Device, vertex, fragment shader.Sources) (*Program, error) {
	p, err := d.NewProgram(vertex, fragment)
	if err != nil {
		kosmic.Logger().Error("program: build failed", "name", vertex.Name, "err", err)
		return nil, err
	}
	kosmic.Logger().Debug("program: linked", "name", vertex.Name)
	return &Program{
		dev:  d,
		prog: p,
		name: vertex.Name,
		locs: make(map[string]int),
	}, nil
}

// FromFS builds the program from name.vert and name.frag in fsys.
func FromFS(d driver.Device, fsys fs.FS, name string) (*Program, error) {
	vsrc, err := fs.ReadFile(fsys, name+".vert")
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	fsrc, err := fs.ReadFile(fsys, name+".frag")
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	return New(d, sources(name, vsrc), sources(name, fsrc))
}

// Load builds the program from an explicit pair of source files.
func Load(d driver.Device, vertPath, fragPath string) (*Program, error) {
	vsrc, err := os.ReadFile(vertPath)
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	fsrc, err := os.ReadFile(fragPath)
	if err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	name := path.Base(vertPath)
	return New(d, sources(name, vsrc), sources(name, fsrc))
}

// sources wraps one stage for the device. The GLSL150 field carries the
// desktop core profile source (#version 410 core) this backend compiles
// as is; no cross-compilation happens.
func sources(name string, src []byte) shader.Sources {
	return shader.Sources{
		Name:    name,
		GLSL150: string(src),
		// Samplers a program does not declare are skipped.
		Textures: []shader.TextureBinding{
			{Name: "u_Texture", Binding: material.DiffuseUnit},
			{Name: "u_SpecularMap", Binding: material.SpecularUnit},
		},
	}
}

// Shaders returns the built-in shader sources.
func Shaders() fs.FS {
	sub, err := fs.Sub(shaders, "shaders")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewBasic builds the lit scene program.
func NewBasic(d driver.Device) (*Program, error) {
	return FromFS(d, Shaders(), "basic")
}

// NewSky builds the sky dome program.
func NewSky(d driver.Device) (*Program, error) {
	return FromFS(d, Shaders(), "sky")
}

func (p *Program) Name() string {
	return p.name
}

func (p *Program) Bind() {
	p.dev.BindProgram(p.prog)
}

func (p *Program) Unbind() {
	p.dev.BindProgram(nil)
}

func (p *Program) location(name string) int {
	if loc, ok := p.locs[name]; ok {
		return loc
	}
	loc := p.prog.UniformLocation(name)
	p.locs[name] = loc
	return loc
}

func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	p.prog.SetMat4(p.location(name), m)
}

func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	p.prog.SetVec3(p.location(name), v)
}

func (p *Program) SetVec4(name string, v mgl32.Vec4) {
	p.prog.SetVec4(p.location(name), v)
}

func (p *Program) SetFloat(name string, v float32) {
	p.prog.SetFloat(p.location(name), v)
}

func (p *Program) SetInt(name string, v int32) {
	p.prog.SetInt(p.location(name), v)
}

// Release deletes the GPU program.
func (p *Program) Release() {
	if p.prog == nil {
		return
	}
	p.prog.Release()
	p.prog = nil
	p.locs = nil
}
