// SPDX-License-Identifier: Unlicense OR MIT

package renderer

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"kosmic.dev/camera"
	"kosmic.dev/gpu/driver"
	"kosmic.dev/internal/gputest"
	"kosmic.dev/lighting"
	"kosmic.dev/material"
	"kosmic.dev/mesh"
	"kosmic.dev/pass"
	"kosmic.dev/target"
	"kosmic.dev/texture"
)

// Init creates the scene program first and the sky program second.
const (
	sceneProgram = 0
	skyProgram   = 1
)

var skyIndices = 6 * mesh.DefaultSectors * (mesh.DefaultStacks - 1)

func newRenderer(t *testing.T, d *gputest.Device, opts ...Option) *Renderer {
	t.Helper()
	r := New(d, opts...)
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.Release)
	return r
}

func TestRenderPreconditions(t *testing.T) {
	d := new(gputest.Device)
	r := New(d)
	r.SetCamera(camera.Default())
	if err := r.Render(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want %v", err, ErrNotInitialized)
	}
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}
	r.SetCamera(nil)
	d.Reset()
	if err := r.Render(); !errors.Is(err, ErrNoCamera) {
		t.Errorf("err = %v, want %v", err, ErrNoCamera)
	}
	if len(d.Calls) != 0 {
		t.Errorf("Render without camera issued %v", d.Calls)
	}
}

func TestFrameOrder(t *testing.T) {
	d := &gputest.Device{Features: driver.FeatureTimers}
	r := newRenderer(t, d)
	cube, err := mesh.NewCube(d)
	if err != nil {
		t.Fatal(err)
	}
	tg, err := target.New(d, 320, 240)
	if err != nil {
		t.Fatal(err)
	}
	r.SetCamera(camera.Default())
	r.SetMesh(cube)
	r.SetFramebuffer(tg)
	r.AddPass(pass.Func(func() error {
		d.Calls = append(d.Calls, "UserPass")
		return nil
	}))
	d.Reset()
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	fbo := tg.Framebuffer().(*gputest.Framebuffer).ID
	sky := d.Programs[skyProgram].ID
	scene := d.Programs[sceneProgram].ID
	steps := []string{
		fmt.Sprintf("BindFramebuffer(%d)", fbo),
		"Viewport(0, 0, 320, 240)",
		"Timer(6).Begin",
		"Clear",
		"DepthMask(false)",
		"CullFace(front)",
		fmt.Sprintf("BindProgram(%d)", sky),
		fmt.Sprintf("SetMat4(%d, view)", sky),
		fmt.Sprintf("DrawIndexed(%d)", skyIndices),
		"CullFace(back)",
		"DepthMask(true)",
		fmt.Sprintf("BindProgram(%d)", scene),
		fmt.Sprintf("SetMat4(%d, model)", scene),
		"DrawIndexed(36)",
		"BindProgram(nil)",
		"UserPass",
		"Timer(6).End",
		"BindFramebuffer(nil)",
	}
	pos := 0
	for _, s := range steps {
		i := d.Index(s, pos)
		if i == -1 {
			t.Fatalf("%q missing or out of order in %v", s, d.Calls)
		}
		pos = i + 1
	}
	if n := d.Count("Clear"); n != 1 {
		t.Errorf("%d clears per frame", n)
	}
	if !d.State.DepthMask || d.State.CullMode != driver.FaceBack {
		t.Error("sky pass state not restored")
	}
}

func TestSkyUsesPerspective(t *testing.T) {
	d := new(gputest.Device)
	r := newRenderer(t, d)
	cam := camera.Default()
	cam.SetPosition(mgl32.Vec3{4, 5, 6})
	cam.SetOrthographic(true, 3)
	r.SetCamera(cam)
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	sky := d.Programs[skyProgram].Values
	if got := sky["projection"]; got != cam.SkyProjection() {
		t.Errorf("sky projection = %v, want %v", got, cam.SkyProjection())
	}
	if sky["projection"] == cam.Projection() {
		t.Error("sky used the orthographic projection")
	}
	if got := sky["view"]; got != cam.DirectionView() {
		t.Errorf("sky view = %v, want %v", got, cam.DirectionView())
	}
	scene := d.Programs[sceneProgram].Values
	if got := scene["projection"]; got != cam.Projection() {
		t.Errorf("scene projection = %v, want %v", got, cam.Projection())
	}
	if got := scene["view"]; got != cam.View() {
		t.Errorf("scene view = %v, want %v", got, cam.View())
	}
}

func TestNoMesh(t *testing.T) {
	d := new(gputest.Device)
	r := newRenderer(t, d)
	r.SetCamera(camera.Default())
	d.Reset()
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if n := d.Count(fmt.Sprintf("DrawIndexed(%d)", skyIndices)); n != 1 {
		t.Errorf("sky drawn %d times", n)
	}
	draws := 0
	for _, c := range d.Calls {
		if len(c) > 11 && c[:11] == "DrawIndexed" {
			draws++
		}
	}
	if draws != 1 {
		t.Errorf("%d draws without a scene mesh, want 1", draws)
	}
	if _, ok := d.Programs[sceneProgram].Values["model"]; ok {
		t.Error("model matrix set without a mesh")
	}
}

func TestSceneUniforms(t *testing.T) {
	d := new(gputest.Device)
	r := newRenderer(t, d, WithObjectColor(mgl32.Vec3{1, 0.5, 0.25}))
	cube, err := mesh.NewCube(d)
	if err != nil {
		t.Fatal(err)
	}
	model := mgl32.Translate3D(1, 2, 3)
	cube.SetTransform(model)
	env := lighting.Default()
	env.Ambient.Intensity = 0.9
	env.Points = []lighting.PointLight{{Position: mgl32.Vec3{0, 2, 0}, Color: mgl32.Vec3{1, 1, 1}, Intensity: 2, Range: 5}}
	r.SetLighting(env)
	r.SetCamera(camera.Default())
	r.SetMesh(cube)
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	v := d.Programs[sceneProgram].Values
	want := map[string]interface{}{
		"model":                   model,
		"u_Color":                 mgl32.Vec3{1, 0.5, 0.25},
		"u_Texture":               int32(0),
		"u_UseTexture":            int32(0),
		"u_AmbientLightIntensity": float32(0.9),
		"u_DirLightIntensity":     float32(0.7),
		"u_PointLightCount":       int32(1),
		"u_PointLightRange[0]":    float32(5),
	}
	for name, w := range want {
		if v[name] != w {
			t.Errorf("%s = %v, want %v", name, v[name], w)
		}
	}
}

func TestTexture(t *testing.T) {
	d := new(gputest.Device)
	r := newRenderer(t, d)
	tex, err := texture.New(d, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	if err != nil {
		t.Fatal(err)
	}
	r.SetCamera(camera.Default())
	r.SetTexture(tex)
	d.Reset()
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if got := d.Programs[sceneProgram].Values["u_UseTexture"]; got != int32(1) {
		t.Errorf("u_UseTexture = %v", got)
	}
	bind := d.Index("BindTexture(0, 6)", 0)
	unbind := d.Index("BindTexture(0, nil)", bind)
	if bind == -1 || unbind == -1 {
		t.Errorf("texture not bound and unbound: %v", d.Calls)
	}
	if d.State.Textures[0] != nil {
		t.Error("texture left bound")
	}
}

func TestMaterial(t *testing.T) {
	d := new(gputest.Device)
	r := newRenderer(t, d)
	cube, err := mesh.NewCube(d)
	if err != nil {
		t.Fatal(err)
	}
	spec, err := texture.New(d, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	if err != nil {
		t.Fatal(err)
	}
	fallbackTex, err := texture.New(d, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	if err != nil {
		t.Fatal(err)
	}
	mat := material.Default()
	mat.Diffuse = mgl32.Vec3{0, 1, 0}
	mat.Shininess = 8
	mat.SpecularMap = spec
	cam := camera.Default()
	cam.SetPosition(mgl32.Vec3{1, 2, 3})
	r.SetCamera(cam)
	r.SetMesh(cube)
	// The material wins over the texture set for the fallback.
	r.SetTexture(fallbackTex)
	r.SetMaterial(&mat)
	d.Reset()
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	v := d.Programs[sceneProgram].Values
	want := map[string]interface{}{
		"u_MaterialDiffuse":   mgl32.Vec3{0, 1, 0},
		"u_MaterialShininess": float32(8),
		"u_UseTexture":        int32(0),
		"u_UseSpecularMap":    int32(1),
		"u_SpecularMap":       int32(material.SpecularUnit),
		"u_ViewPos":           mgl32.Vec3{1, 2, 3},
	}
	for name, w := range want {
		if v[name] != w {
			t.Errorf("%s = %v, want %v", name, v[name], w)
		}
	}
	draw := d.Index("DrawIndexed(36)", 0)
	if draw == -1 {
		t.Fatalf("scene mesh not drawn: %v", d.Calls)
	}
	bound := -1
	for i, c := range d.Calls[:draw] {
		if strings.HasPrefix(c, "BindTexture(1, ") && c != "BindTexture(1, nil)" {
			bound = i
		}
		if strings.HasPrefix(c, "BindTexture(0, ") && c != "BindTexture(0, nil)" {
			t.Errorf("fallback texture bound with a material set: %s", c)
		}
	}
	if bound == -1 {
		t.Errorf("specular map not bound before the draw: %v", d.Calls)
	}
	if d.Index("BindTexture(1, nil)", draw) == -1 {
		t.Error("specular map left bound")
	}

	// Without a material the fallback uses the texture.
	r.SetMaterial(nil)
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if got := d.Programs[sceneProgram].Values["u_UseTexture"]; got != int32(1) {
		t.Errorf("u_UseTexture = %v without a material", got)
	}
	if got := d.Programs[sceneProgram].Values["u_MaterialDiffuse"]; got != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("u_MaterialDiffuse = %v without a material", got)
	}
}

func TestGPUTime(t *testing.T) {
	d := &gputest.Device{
		Features:     driver.FeatureTimers,
		GPUTime:      5 * time.Millisecond,
		TimerLatency: 1,
	}
	r := newRenderer(t, d)
	r.SetCamera(camera.Default())
	if got := r.LastGPUTime(); got != 0 {
		t.Fatalf("LastGPUTime before any frame = %v", got)
	}
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if got := r.LastGPUTime(); got != 0 {
		t.Errorf("timing available without lag: %v", got)
	}
	for i := 0; i < 5; i++ {
		if err := r.Render(); err != nil {
			t.Fatal(err)
		}
		if got := r.LastGPUTime(); got != 5*time.Millisecond {
			t.Errorf("frame %d: LastGPUTime = %v", i+2, got)
		}
	}
	if n := d.Count("NewTimer(6)") + d.Count("NewTimer(7)") + d.Count("NewTimer(8)"); n != 3 {
		t.Errorf("created %d timers, want 3", n)
	}
}

func TestGPUTimeSlowResults(t *testing.T) {
	d := &gputest.Device{
		Features:     driver.FeatureTimers,
		GPUTime:      time.Millisecond,
		TimerLatency: 10,
	}
	r := newRenderer(t, d, WithTimerQueries(2))
	r.SetCamera(camera.Default())
	for i := 0; i < 4; i++ {
		if err := r.Render(); err != nil {
			t.Fatal(err)
		}
	}
	// Both timers stay pending, so only the first two frames are timed.
	if n := d.Count("Timer(6).Begin") + d.Count("Timer(7).Begin"); n != 2 {
		t.Errorf("%d timed frames, want 2", n)
	}
	if got := r.LastGPUTime(); got != 0 {
		t.Errorf("LastGPUTime = %v", got)
	}
}

func TestGPUTimeDisjoint(t *testing.T) {
	d := &gputest.Device{
		Features: driver.FeatureTimers,
		GPUTime:  time.Millisecond,
		Disjoint: true,
	}
	r := newRenderer(t, d)
	r.SetCamera(camera.Default())
	for i := 0; i < 3; i++ {
		if err := r.Render(); err != nil {
			t.Fatal(err)
		}
	}
	if got := r.LastGPUTime(); got != 0 {
		t.Errorf("LastGPUTime = %v, want disjoint results discarded", got)
	}
}

func TestNoTimerSupport(t *testing.T) {
	d := new(gputest.Device)
	r := newRenderer(t, d)
	r.SetCamera(camera.Default())
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	for _, c := range d.Calls {
		if len(c) >= 5 && (c[:5] == "Timer" || c[:5] == "NewTi") {
			t.Fatalf("timer call %q without FeatureTimers", c)
		}
	}
	if r.LastGPUTime() != 0 {
		t.Error("non-zero GPU time without timers")
	}
}

func TestPassError(t *testing.T) {
	d := &gputest.Device{Features: driver.FeatureTimers}
	r := newRenderer(t, d)
	tg, err := target.New(d, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	r.SetCamera(camera.Default())
	r.SetFramebuffer(tg)
	errPass := errors.New("pass failed")
	ran := false
	r.AddPass(pass.Func(func() error { return errPass }))
	r.AddPass(pass.Func(func() error {
		ran = true
		return nil
	}))
	d.Reset()
	if err := r.Render(); !errors.Is(err, errPass) {
		t.Fatalf("err = %v, want %v", err, errPass)
	}
	if ran {
		t.Error("pass after the failing one ran")
	}
	if d.Index("Timer(6).End", 0) == -1 {
		t.Error("frame timer not ended")
	}
	if d.State.Framebuffer != nil {
		t.Error("target left bound")
	}
}

func TestViewport(t *testing.T) {
	d := new(gputest.Device)
	r := newRenderer(t, d)
	tg, err := target.New(d, 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	r.SetCamera(camera.Default())
	r.SetViewport(image.Rect(0, 0, 800, 600))
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if d.State.Viewport != image.Rect(0, 0, 800, 600) {
		t.Errorf("viewport = %v", d.State.Viewport)
	}
	r.SetFramebuffer(tg)
	d.Reset()
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if d.Index("Viewport(0, 0, 64, 64)", 0) == -1 {
		t.Errorf("target viewport not set: %v", d.Calls)
	}
	if d.State.Viewport != image.Rect(0, 0, 800, 600) {
		t.Errorf("viewport not restored: %v", d.State.Viewport)
	}
}

func TestInitFailure(t *testing.T) {
	d := &gputest.Device{
		CompileErr: &driver.CompileError{Name: "basic", Stage: "link", Log: "error"},
	}
	r := New(d)
	err := r.Init()
	var cerr *driver.CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want a *driver.CompileError", err)
	}
	r.SetCamera(camera.Default())
	if err := r.Render(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want %v", err, ErrNotInitialized)
	}

	d = &gputest.Device{InitErr: errors.New("no context")}
	if err := New(d).Init(); !errors.Is(err, d.InitErr) {
		t.Errorf("err = %v, want %v", err, d.InitErr)
	}
}

func TestShaderFS(t *testing.T) {
	fsys := fstest.MapFS{
		"basic.vert": {Data: []byte("uniform mat4 view;\n")},
		"basic.frag": {Data: []byte("uniform vec3 u_Color;\n")},
		"sky.vert":   {Data: []byte("uniform mat4 projection;\n")},
		"sky.frag":   {Data: []byte("")},
	}
	d := new(gputest.Device)
	r := newRenderer(t, d, WithShaderFS(fsys))
	if got := d.Programs[sceneProgram].Uniforms(); len(got) != 2 {
		t.Errorf("scene uniforms = %v", got)
	}
	if r.Program() == nil || r.Program().Name() != "basic" {
		t.Error("Program() is not the scene program")
	}
}

func TestRelease(t *testing.T) {
	d := &gputest.Device{Features: driver.FeatureTimers}
	r := New(d)
	if err := r.Init(); err != nil {
		t.Fatal(err)
	}
	r.Release()
	for _, p := range d.Programs {
		if !p.Released {
			t.Errorf("program %d not released", p.ID)
		}
	}
	if r.Program() != nil {
		t.Error("Program() after Release")
	}
	if err := r.Render(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v", err)
	}
}
