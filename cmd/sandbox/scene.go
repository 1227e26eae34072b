// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"kosmic.dev/camera"
	"kosmic.dev/gpu/driver"
	"kosmic.dev/material"
	"kosmic.dev/mesh"
	"kosmic.dev/program"
	"kosmic.dev/renderer"
	"kosmic.dev/target"
	"kosmic.dev/texture"
)

// scene owns everything the sandbox draws.
type scene struct {
	r      *renderer.Renderer
	cam    *camera.Camera
	mesh   *mesh.Mesh
	mat    material.Material
	maps   textures
	extras *extrasPass
	target *target.Target
	size   image.Point
	spin   float32
	angle  float32
}

// newScene builds the scene of cfg on d. If tg is not nil, frames are
// drawn into it.
func newScene(d driver.Device, cfg *Config, size image.Point, tg *target.Target) (_ *scene, err error) {
	opts := []renderer.Option{
		renderer.WithClearColor(cfg.ClearColor),
		renderer.WithTimerQueries(cfg.TimerQueries),
		renderer.WithObjectColor(cfg.ObjectColor),
		renderer.WithSkyColors(cfg.Sky.Horizon, cfg.Sky.Zenith),
	}
	if cfg.Shaders != "" {
		opts = append(opts, renderer.WithShaderFS(os.DirFS(cfg.Shaders)))
	}
	s := &scene{
		r:      renderer.New(d, opts...),
		target: tg,
		spin:   cfg.Spin,
	}
	defer func() {
		if err != nil {
			s.Release()
		}
	}()
	if err := s.r.Init(); err != nil {
		return nil, err
	}

	c := cfg.Camera
	s.cam = camera.New(c.FOV, 1, c.Near, c.Far)
	s.cam.SetPosition(c.Position)
	s.cam.SetRotation(c.Pitch, c.Yaw)
	s.cam.SetOrthographic(c.Orthographic, c.HalfHeight)
	s.r.SetCamera(s.cam)

	if s.mesh, err = newMesh(d, cfg.Mesh); err != nil {
		return nil, err
	}
	s.r.SetMesh(s.mesh)
	if s.mat, err = s.maps.material(d, cfg.Material); err != nil {
		return nil, err
	}
	s.r.SetMaterial(&s.mat)
	s.r.SetLighting(cfg.Environment())
	if s.extras, err = newExtrasPass(d, s.r.Program(), cfg.Extras); err != nil {
		return nil, err
	}
	s.r.AddPass(s.extras)
	s.r.SetFramebuffer(tg)
	s.resize(size)
	return s, nil
}

func (s *scene) resize(size image.Point) {
	s.size = size
	s.cam.SetAspectRatio(float32(size.X) / float32(size.Y))
	s.r.SetViewport(image.Rectangle{Max: size})
}

// update advances the scene animation by dt seconds.
func (s *scene) update(dt float32) {
	if s.spin == 0 {
		return
	}
	s.angle += s.spin * dt
	s.mesh.SetTransform(mgl32.HomogRotate3DY(mgl32.DegToRad(s.angle)))
}

func (s *scene) render() error {
	if err := s.r.Render(); err != nil {
		return err
	}
	if s.target != nil {
		s.target.Blit(image.Rectangle{Max: s.size})
	}
	return nil
}

func (s *scene) Release() {
	if s.extras != nil {
		s.extras.Release()
	}
	s.maps.Release()
	if s.mesh != nil {
		s.mesh.Release()
	}
	s.r.Release()
}

func newMesh(d driver.Device, name string) (*mesh.Mesh, error) {
	switch name {
	case "cube":
		return mesh.NewCube(d)
	case "sphere":
		return mesh.NewSphere(d)
	case "quad":
		return mesh.NewQuad(d)
	case "triangle":
		return mesh.NewTriangle(d)
	}
	return nil, fmt.Errorf("unknown mesh %q", name)
}

func loadTexture(d driver.Device, path string) (*texture.Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return texture.New(d, img)
}

// textures loads image files once per path and releases them together.
type textures map[string]*texture.Texture

func (t *textures) load(d driver.Device, path string) (*texture.Texture, error) {
	if tex, ok := (*t)[path]; ok {
		return tex, nil
	}
	tex, err := loadTexture(d, path)
	if err != nil {
		return nil, err
	}
	if *t == nil {
		*t = make(textures)
	}
	(*t)[path] = tex
	return tex, nil
}

// material builds the material described by c, loading its maps.
func (t *textures) material(d driver.Device, c MaterialConfig) (material.Material, error) {
	m := material.Material{
		Ambient:   c.Ambient,
		Diffuse:   c.Diffuse,
		Specular:  c.Specular,
		Shininess: c.Shininess,
	}
	var err error
	if c.DiffuseMap != "" {
		if m.DiffuseMap, err = t.load(d, c.DiffuseMap); err != nil {
			return m, err
		}
	}
	if c.SpecularMap != "" {
		if m.SpecularMap, err = t.load(d, c.SpecularMap); err != nil {
			return m, err
		}
	}
	return m, nil
}

func (t *textures) Release() {
	for _, tex := range *t {
		tex.Release()
	}
	*t = nil
}

// extrasPass draws additional meshes with the scene program, reusing
// the camera and light uniforms of the scene pass. Each mesh has its
// own material.
type extrasPass struct {
	prog      *program.Program
	meshes    []*mesh.Mesh
	materials []material.Material
	maps      textures
}

func newExtrasPass(d driver.Device, prog *program.Program, extras []ExtraConfig) (*extrasPass, error) {
	p := &extrasPass{prog: prog}
	for i, e := range extras {
		mat := material.Default()
		if e.Material != nil {
			var err error
			if mat, err = p.maps.material(d, *e.Material); err != nil {
				p.Release()
				return nil, fmt.Errorf("extra %d: %w", i, err)
			}
		}
		m, err := newMesh(d, e.Mesh)
		if err != nil {
			p.Release()
			return nil, err
		}
		m.SetTransform(e.Transform())
		p.meshes = append(p.meshes, m)
		p.materials = append(p.materials, mat)
	}
	return p, nil
}

func (p *extrasPass) Execute() error {
	p.prog.Bind()
	for i, m := range p.meshes {
		mat := &p.materials[i]
		mat.Apply(p.prog)
		mat.Bind()
		p.prog.SetMat4("model", m.Transform())
		m.Draw()
		mat.Unbind()
	}
	p.prog.Unbind()
	return nil
}

func (p *extrasPass) Release() {
	for _, m := range p.meshes {
		m.Release()
	}
	p.meshes = nil
	p.materials = nil
	p.maps.Release()
}
