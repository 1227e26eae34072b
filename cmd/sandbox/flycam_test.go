// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"kosmic.dev/camera"
)

func newFlycam() *flycam {
	return &flycam{cam: camera.Default(), speed: 2, sensitivity: 0.5}
}

func TestFlycamMove(t *testing.T) {
	f := newFlycam()
	start := f.cam.Position()
	f.move(movement{forward: 1}, 0.5)
	// The default camera looks down -z.
	want := start.Add(mgl32.Vec3{0, 0, -1})
	if got := f.cam.Position(); got.Sub(want).Len() > 1e-5 {
		t.Errorf("position %v, want %v", got, want)
	}
	f.move(movement{}, 1)
	if got := f.cam.Position(); got.Sub(want).Len() > 1e-5 {
		t.Errorf("idle movement moved the camera to %v", got)
	}
}

func TestFlycamDiagonal(t *testing.T) {
	f := newFlycam()
	start := f.cam.Position()
	f.move(movement{forward: 1, right: 1}, 1)
	if d := f.cam.Position().Sub(start).Len(); mgl32.Abs(d-f.speed) > 1e-5 {
		t.Errorf("diagonal step %v, want %v", d, f.speed)
	}
}

func TestFlycamTurn(t *testing.T) {
	f := newFlycam()
	f.turn(10, 0)
	if got, want := f.cam.Yaw(), float32(-85); got != want {
		t.Errorf("yaw %v, want %v", got, want)
	}
	f.turn(0, -20)
	if got, want := f.cam.Pitch(), float32(10); got != want {
		t.Errorf("pitch %v, want %v", got, want)
	}
	f.turn(0, -1000)
	if got, want := f.cam.Pitch(), float32(89); got != want {
		t.Errorf("pitch %v, want clamp at %v", got, want)
	}
	f.turn(0, 1000)
	if got, want := f.cam.Pitch(), float32(-89); got != want {
		t.Errorf("pitch %v, want clamp at %v", got, want)
	}
}

func TestFlycamZoom(t *testing.T) {
	f := newFlycam()
	f.zoom(5)
	if got, want := f.cam.FOV(), float32(40); got != want {
		t.Errorf("fov %v, want %v", got, want)
	}
	f.zoom(100)
	if got := f.cam.FOV(); got != 1 {
		t.Errorf("fov %v, want 1", got)
	}
	f.zoom(-200)
	if got := f.cam.FOV(); got != 90 {
		t.Errorf("fov %v, want 90", got)
	}
}

func TestFlycamToggleOrthographic(t *testing.T) {
	f := newFlycam()
	f.cam.SetOrthographic(false, 3)
	f.toggleOrthographic()
	if ortho, h := f.cam.Orthographic(); !ortho || h != 3 {
		t.Errorf("Orthographic() = %v, %v, want true, 3", ortho, h)
	}
	f.toggleOrthographic()
	if ortho, _ := f.cam.Orthographic(); ortho {
		t.Error("second toggle left the camera orthographic")
	}
}
