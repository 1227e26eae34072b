// SPDX-License-Identifier: Unlicense OR MIT

/*
Package camera derives view and projection matrices from a position, a
pitch/yaw orientation and a projection mode.

Every mutator recomputes the matrices it affects before returning, so View
and Projection always reflect the last call.
*/
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// WorldUp is the fixed up vector of every camera.
var WorldUp = mgl32.Vec3{0, 1, 0}

// Camera is a first person camera. Angles are in degrees.
type Camera struct {
	position mgl32.Vec3
	front    mgl32.Vec3
	pitch    float32
	yaw      float32

	fov        float32
	aspect     float32
	near, far  float32
	ortho      bool
	halfHeight float32

	view       mgl32.Mat4
	projection mgl32.Mat4
	skyProj    mgl32.Mat4
}

// New returns a camera at (0, 0, 3) looking down the negative z axis.
func New(fov, aspect, near, far float32) *Camera {
	c := &Camera{
		position:   mgl32.Vec3{0, 0, 3},
		yaw:        -90,
		fov:        fov,
		aspect:     aspect,
		near:       near,
		far:        far,
		halfHeight: 1,
	}
	c.updateFront()
	c.updateView()
	c.updateProjection()
	return c
}

// Default returns New(45, 16/9, 0.1, 100).
func Default() *Camera {
	return New(45, 16.0/9.0, 0.1, 100)
}

func (c *Camera) SetPosition(p mgl32.Vec3) {
	c.position = p
	c.updateView()
}

// SetRotation sets the orientation and recomputes the front vector.
func (c *Camera) SetRotation(pitch, yaw float32) {
	c.pitch, c.yaw = pitch, yaw
	c.updateFront()
	c.updateView()
}

func (c *Camera) SetFOV(fov float32) {
	c.fov = fov
	c.updateProjection()
}

func (c *Camera) SetAspectRatio(aspect float32) {
	c.aspect = aspect
	c.updateProjection()
}

// SetClipPlanes sets the near and far clip distances.
func (c *Camera) SetClipPlanes(near, far float32) {
	c.near, c.far = near, far
	c.updateProjection()
}

// SetOrthographic switches between perspective and orthographic
// projection. In orthographic mode the visible volume spans
// [-halfHeight·aspect, halfHeight·aspect] horizontally and
// [-halfHeight, halfHeight] vertically.
func (c *Camera) SetOrthographic(enable bool, halfHeight float32) {
	c.ortho = enable
	c.halfHeight = halfHeight
	c.updateProjection()
}

func (c *Camera) Position() mgl32.Vec3 { return c.position }
func (c *Camera) Front() mgl32.Vec3    { return c.front }
func (c *Camera) Up() mgl32.Vec3       { return WorldUp }
func (c *Camera) Pitch() float32       { return c.pitch }
func (c *Camera) Yaw() float32         { return c.yaw }
func (c *Camera) FOV() float32         { return c.fov }
func (c *Camera) AspectRatio() float32 { return c.aspect }

// Orthographic reports the projection mode and the orthographic half
// height.
func (c *Camera) Orthographic() (bool, float32) {
	return c.ortho, c.halfHeight
}

// Right returns the unit vector pointing to the right of the view
// direction.
func (c *Camera) Right() mgl32.Vec3 {
	r := c.front.Cross(WorldUp)
	if r.Len() == 0 {
		// Looking straight up or down.
		return mgl32.Vec3{1, 0, 0}
	}
	return r.Normalize()
}

func (c *Camera) View() mgl32.Mat4       { return c.view }
func (c *Camera) Projection() mgl32.Mat4 { return c.projection }

// DirectionView returns the view matrix of a camera at the origin with
// the same orientation, for geometry that must follow the camera
// rotation only. It does not depend on the position.
func (c *Camera) DirectionView() mgl32.Mat4 {
	return mgl32.LookAtV(mgl32.Vec3{}, c.front, WorldUp)
}

// SkyProjection returns the perspective projection regardless of the
// orthographic setting.
func (c *Camera) SkyProjection() mgl32.Mat4 {
	return c.skyProj
}

func (c *Camera) updateFront() {
	pitch := float64(mgl32.DegToRad(c.pitch))
	yaw := float64(mgl32.DegToRad(c.yaw))
	f := mgl32.Vec3{
		float32(math.Cos(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(math.Sin(yaw) * math.Cos(pitch)),
	}
	c.front = f.Normalize()
}

func (c *Camera) updateView() {
	c.view = mgl32.LookAtV(c.position, c.position.Add(c.front), WorldUp)
}

func (c *Camera) updateProjection() {
	c.skyProj = mgl32.Perspective(mgl32.DegToRad(c.fov), c.aspect, c.near, c.far)
	if !c.ortho {
		c.projection = c.skyProj
		return
	}
	hw := c.halfHeight * c.aspect
	c.projection = mgl32.Ortho(-hw, hw, -c.halfHeight, c.halfHeight, c.near, c.far)
}
