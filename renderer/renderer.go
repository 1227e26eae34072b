// SPDX-License-Identifier: Unlicense OR MIT

/*
Package renderer drives the per-frame pipeline: clear, sky dome, scene
mesh and user passes, with GPU timing.

A Renderer is created on a driver.Device and must be used from the
goroutine that owns the device context:

	r := renderer.New(dev)
	if err := r.Init(); err != nil {
		...
	}
	r.SetCamera(camera.Default())
	r.SetMesh(cube)
	for running {
		if err := r.Render(); err != nil {
			...
		}
	}
*/
package renderer

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"kosmic.dev"
	"kosmic.dev/camera"
	"kosmic.dev/gpu/driver"
	"kosmic.dev/lighting"
	"kosmic.dev/material"
	"kosmic.dev/mesh"
	"kosmic.dev/pass"
	"kosmic.dev/program"
	"kosmic.dev/target"
	"kosmic.dev/texture"
)

var (
	// ErrNotInitialized is returned by Render before a successful Init.
	ErrNotInitialized = errors.New("renderer: not initialized")
	// ErrNoCamera is returned by Render when no camera is set.
	ErrNoCamera = errors.New("renderer: no camera")
)

// Renderer composes the frame. The camera, scene mesh, texture and
// target are owned by the caller and may be swapped between frames.
type Renderer struct {
	dev    driver.Device
	config config

	initialized bool
	program     *program.Program
	sky         *program.Program
	skyMesh     *mesh.Mesh
	timers      *frameTimers

	camera   *camera.Camera
	mesh     *mesh.Mesh
	target   *target.Target
	texture  *texture.Texture
	material *material.Material
	fallback material.Material
	lights   lighting.Environment
	passes   pass.Graph
	viewport image.Rectangle
}

type config struct {
	clearColor  mgl32.Vec4
	timers      int
	shaders     fs.FS
	objectColor mgl32.Vec3
	skyHorizon  mgl32.Vec3
	skyZenith   mgl32.Vec3
}

// Option configures a Renderer.
type Option func(c *config)

// WithClearColor sets the color the frame is cleared to.
func WithClearColor(c mgl32.Vec4) Option {
	return func(cfg *config) {
		cfg.clearColor = c
	}
}

// WithTimerQueries sets the number of GPU timers used round-robin for
// frame timing. Zero disables timing. The default is 3.
func WithTimerQueries(n int) Option {
	return func(cfg *config) {
		cfg.timers = n
	}
}

// WithShaderFS loads the scene and sky programs from basic.vert,
// basic.frag, sky.vert and sky.frag in fsys instead of the built-in
// sources.
func WithShaderFS(fsys fs.FS) Option {
	return func(cfg *config) {
		cfg.shaders = fsys
	}
}

// WithObjectColor sets the flat color multiplied into every scene
// fragment. The default is white.
func WithObjectColor(c mgl32.Vec3) Option {
	return func(cfg *config) {
		cfg.objectColor = c
	}
}

// WithSkyColors sets the sky gradient.
func WithSkyColors(horizon, zenith mgl32.Vec3) Option {
	return func(cfg *config) {
		cfg.skyHorizon = horizon
		cfg.skyZenith = zenith
	}
}

// New returns a Renderer drawing with d. No GPU resources are created
// until Init.
func New(d driver.Device, opts ...Option) *Renderer {
	r := &Renderer{
		dev: d,
		config: config{
			clearColor:  mgl32.Vec4{0.1, 0.1, 0.1, 1},
			timers:      3,
			shaders:     program.Shaders(),
			objectColor: mgl32.Vec3{1, 1, 1},
			skyHorizon:  mgl32.Vec3{0.85, 0.9, 1},
			skyZenith:   mgl32.Vec3{0.25, 0.45, 0.85},
		},
		lights:   lighting.Default(),
		fallback: material.Default(),
	}
	for _, o := range opts {
		o(&r.config)
	}
	return r
}

// Init sets the device baseline state and creates the scene program,
// the sky program and sky dome, and the frame timers. Calling Init
// again has no effect.
func (r *Renderer) Init() (err error) {
	if r.initialized {
		return nil
	}
	defer func() {
		if err != nil {
			r.Release()
		}
	}()
	if err := r.dev.Init(); err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	c := r.config.clearColor
	r.dev.ClearColor(c[0], c[1], c[2], c[3])
	if r.program, err = program.FromFS(r.dev, r.config.shaders, "basic"); err != nil {
		return fmt.Errorf("renderer: scene program: %w", err)
	}
	if r.sky, err = program.FromFS(r.dev, r.config.shaders, "sky"); err != nil {
		return fmt.Errorf("renderer: sky program: %w", err)
	}
	if r.skyMesh, err = mesh.NewSphere(r.dev); err != nil {
		return fmt.Errorf("renderer: sky dome: %w", err)
	}
	if r.timers, err = newFrameTimers(r.dev, r.config.timers); err != nil {
		return fmt.Errorf("renderer: timers: %w", err)
	}
	r.initialized = true
	kosmic.Logger().Info("renderer initialized", "timers", r.timers != nil)
	return nil
}

func (r *Renderer) SetCamera(c *camera.Camera) {
	r.camera = c
}

// SetMesh replaces the scene mesh. A nil mesh skips the scene draw.
func (r *Renderer) SetMesh(m *mesh.Mesh) {
	r.mesh = m
}

// SetFramebuffer redirects frames to t, or to the default framebuffer
// if t is nil.
func (r *Renderer) SetFramebuffer(t *target.Target) {
	r.target = t
}

// SetTexture sets the diffuse map used while no material is set, or
// disables texturing if t is nil.
func (r *Renderer) SetTexture(t *texture.Texture) {
	r.texture = t
}

// SetMaterial sets the material of the scene mesh. A nil material
// selects the default white material with the texture of SetTexture.
func (r *Renderer) SetMaterial(m *material.Material) {
	r.material = m
}

func (r *Renderer) SetLighting(env lighting.Environment) {
	r.lights = env
}

// SetViewport sets the viewport used for frames drawn to the default
// framebuffer. An empty rectangle leaves the viewport alone.
func (r *Renderer) SetViewport(vp image.Rectangle) {
	r.viewport = vp
}

// AddPass appends a pass run after the scene on every frame.
func (r *Renderer) AddPass(p pass.Pass) {
	r.passes.Add(p)
}

// Program returns the scene program, for setting extra uniforms. It is
// nil before Init.
func (r *Renderer) Program() *program.Program {
	return r.program
}

// LastGPUTime returns the GPU time of the most recent frame whose timing
// is available, or 0 if none is.
func (r *Renderer) LastGPUTime() time.Duration {
	return r.timers.lastDuration()
}

// Render draws one frame. A failing user pass aborts the remaining
// passes but the frame is still ended.
func (r *Renderer) Render() error {
	if !r.initialized {
		return ErrNotInitialized
	}
	if r.camera == nil {
		return ErrNoCamera
	}
	r.beginFrame()
	r.dev.Clear()
	r.drawSky()
	r.drawScene()
	err := r.passes.Execute()
	r.endFrame()
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	return nil
}

func (r *Renderer) beginFrame() {
	if r.target != nil {
		r.target.Bind()
	} else {
		r.setViewport()
	}
	r.timers.begin()
}

func (r *Renderer) endFrame() {
	r.timers.end()
	if r.target != nil {
		r.target.Unbind()
		r.setViewport()
	}
}

func (r *Renderer) setViewport() {
	if vp := r.viewport; !vp.Empty() {
		r.dev.Viewport(vp.Min.X, vp.Min.Y, vp.Dx(), vp.Dy())
	}
}

// drawSky draws the inside of the sky dome without writing depth. The
// dome follows the camera rotation only and always uses a perspective
// projection.
func (r *Renderer) drawSky() {
	r.dev.DepthMask(false)
	r.dev.CullFace(driver.FaceFront)

	r.sky.Bind()
	r.sky.SetMat4("view", r.camera.DirectionView())
	r.sky.SetMat4("projection", r.camera.SkyProjection())
	r.sky.SetVec3("u_SkyHorizonColor", r.config.skyHorizon)
	r.sky.SetVec3("u_SkyZenithColor", r.config.skyZenith)
	r.skyMesh.Draw()
	r.sky.Unbind()

	r.dev.CullFace(driver.FaceBack)
	r.dev.DepthMask(true)
}

func (r *Renderer) drawScene() {
	p := r.program
	p.Bind()
	p.SetMat4("view", r.camera.View())
	p.SetMat4("projection", r.camera.Projection())
	p.SetVec3("u_ViewPos", r.camera.Position())
	r.lights.Apply(p)
	p.SetVec3("u_Color", r.config.objectColor)
	mat := r.material
	if mat == nil {
		r.fallback.DiffuseMap = r.texture
		mat = &r.fallback
	}
	mat.Apply(p)
	mat.Bind()
	if m := r.mesh; m != nil {
		p.SetMat4("model", m.Transform())
		m.Draw()
	}
	mat.Unbind()
	p.Unbind()
}

// Release frees the resources created by Init. Caller supplied
// resources are left alone.
func (r *Renderer) Release() {
	if r.program != nil {
		r.program.Release()
		r.program = nil
	}
	if r.sky != nil {
		r.sky.Release()
		r.sky = nil
	}
	if r.skyMesh != nil {
		r.skyMesh.Release()
		r.skyMesh = nil
	}
	r.timers.release()
	r.timers = nil
	r.initialized = false
}
