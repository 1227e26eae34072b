// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"github.com/go-gl/mathgl/mgl32"

	"kosmic.dev/camera"
)

// flycam moves a camera freely in response to input.
type flycam struct {
	cam         *camera.Camera
	speed       float32
	sensitivity float32
}

// movement holds the requested direction along each camera axis, each
// in [-1, 1].
type movement struct {
	forward, right, up float32
}

func (f *flycam) move(m movement, dt float32) {
	if m == (movement{}) {
		return
	}
	d := f.cam.Front().Mul(m.forward).
		Add(f.cam.Right().Mul(m.right)).
		Add(camera.WorldUp.Mul(m.up))
	if d.Len() == 0 {
		return
	}
	step := d.Normalize().Mul(f.speed * dt)
	f.cam.SetPosition(f.cam.Position().Add(step))
}

// turn rotates the camera by a cursor movement in pixels. Moving the
// cursor up looks up.
func (f *flycam) turn(dx, dy float32) {
	if dx == 0 && dy == 0 {
		return
	}
	yaw := f.cam.Yaw() + dx*f.sensitivity
	pitch := mgl32.Clamp(f.cam.Pitch()-dy*f.sensitivity, -89, 89)
	f.cam.SetRotation(pitch, yaw)
}

func (f *flycam) zoom(offset float32) {
	f.cam.SetFOV(mgl32.Clamp(f.cam.FOV()-offset, 1, 90))
}

func (f *flycam) toggleOrthographic() {
	ortho, h := f.cam.Orthographic()
	f.cam.SetOrthographic(!ortho, h)
}
