// SPDX-License-Identifier: Unlicense OR MIT

package program

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/go-gl/mathgl/mgl32"

	"kosmic.dev/gpu/driver"
	"kosmic.dev/internal/gputest"
)

func TestUniformCache(t *testing.T) {
	d := new(gputest.Device)
	p, err := New(d, gputest.Sources("test", "view", "u_Intensity"), gputest.Sources("test"))
	if err != nil {
		t.Fatal(err)
	}
	fake := d.State.Program
	if fake != nil {
		t.Fatal("New bound the program")
	}
	gp := p.prog.(*gputest.Program)
	for i := 0; i < 3; i++ {
		p.SetMat4("view", mgl32.Ident4())
		p.SetFloat("u_Intensity", 0.5)
		p.SetVec3("missing", mgl32.Vec3{1, 2, 3})
	}
	for _, name := range []string{"view", "u_Intensity", "missing"} {
		if n := gp.Lookups[name]; n != 1 {
			t.Errorf("%s looked up %d times, want 1", name, n)
		}
	}
	if got := gp.Values["u_Intensity"]; got != float32(0.5) {
		t.Errorf("u_Intensity = %v", got)
	}
	if _, ok := gp.Values["missing"]; ok {
		t.Error("missing uniform was written")
	}
	if n := d.Count("SetVec3(1, missing)"); n != 0 {
		t.Errorf("missing uniform reached the device %d times", n)
	}
}

func TestBindUnbind(t *testing.T) {
	d := new(gputest.Device)
	p, err := New(d, gputest.Sources("test"), gputest.Sources("test"))
	if err != nil {
		t.Fatal(err)
	}
	p.Bind()
	if d.State.Program != p.prog {
		t.Error("program not bound")
	}
	p.Unbind()
	if d.State.Program != nil {
		t.Error("program still bound")
	}
	p.Release()
	p.Release()
	if d.Count("ReleaseProgram(1)") != 1 {
		t.Errorf("calls = %v", d.Calls)
	}
}

func TestCompileError(t *testing.T) {
	d := &gputest.Device{
		CompileErr: &driver.CompileError{Name: "basic", Stage: "fragment", Log: "0:1: syntax error"},
	}
	_, err := NewBasic(d)
	var cerr *driver.CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want a *driver.CompileError", err)
	}
	if cerr.Stage != "fragment" || cerr.Log == "" {
		t.Errorf("err = %+v", cerr)
	}
}

func TestFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"flat.vert": {Data: []byte("uniform mat4 model;\n")},
		"flat.frag": {Data: []byte("uniform vec3 u_Color;\n")},
	}
	d := new(gputest.Device)
	p, err := FromFS(d, fsys, "flat")
	if err != nil {
		t.Fatal(err)
	}
	gp := p.prog.(*gputest.Program)
	if !gp.Has("model") || !gp.Has("u_Color") {
		t.Errorf("uniforms = %v", gp.Uniforms())
	}
	if p.Name() != "flat" {
		t.Errorf("name = %q", p.Name())
	}
	if _, err := FromFS(d, fsys, "nothere"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	vert := filepath.Join(dir, "custom.vert")
	frag := filepath.Join(dir, "custom.frag")
	if err := os.WriteFile(vert, []byte("uniform mat4 view;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d := new(gputest.Device)
	if _, err := Load(d, vert, frag); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
	if err := os.WriteFile(frag, []byte("uniform vec3 u_Color;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(d, vert, frag)
	if err != nil {
		t.Fatal(err)
	}
	if gp := p.prog.(*gputest.Program); !gp.Has("view") || !gp.Has("u_Color") {
		t.Errorf("uniforms = %v", gp.Uniforms())
	}
}

func TestPresets(t *testing.T) {
	d := new(gputest.Device)
	basic, err := NewBasic(d)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"model", "view", "projection",
		"u_Color", "u_Texture", "u_UseTexture",
		"u_AmbientLightColor", "u_AmbientLightIntensity",
		"u_DirLightDirection", "u_DirLightColor", "u_DirLightIntensity",
		"u_PointLightCount", "u_PointLightPosition[0]", "u_PointLightRange[3]",
		"u_ViewPos", "u_MaterialAmbient", "u_MaterialDiffuse", "u_MaterialSpecular",
		"u_MaterialShininess", "u_SpecularMap", "u_UseSpecularMap",
		"u_SpotLightCount", "u_SpotLightPosition[0]", "u_SpotLightDirection[3]",
		"u_SpotLightCutoff[1]", "u_SpotLightOuterCutoff[2]",
	} {
		if !basic.prog.(*gputest.Program).Has(name) {
			t.Errorf("basic program lacks %s", name)
		}
	}
	sky, err := NewSky(d)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"view", "projection", "u_SkyHorizonColor", "u_SkyZenithColor"} {
		if !sky.prog.(*gputest.Program).Has(name) {
			t.Errorf("sky program lacks %s", name)
		}
	}
	if sky.prog.(*gputest.Program).Has("model") {
		t.Error("sky program has a model matrix")
	}
}

func TestShadersFS(t *testing.T) {
	want := []string{"basic.frag", "basic.vert", "sky.frag", "sky.vert"}
	entries, err := fs.ReadDir(Shaders(), ".")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(want) {
		t.Fatalf("entries = %v", entries)
	}
	for i, e := range entries {
		if e.Name() != want[i] {
			t.Errorf("entry %d = %s, want %s", i, e.Name(), want[i])
		}
	}
}
