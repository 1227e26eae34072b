// SPDX-License-Identifier: Unlicense OR MIT

package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"kosmic.dev/gpu/driver"
)

var white = mgl32.Vec3{1, 1, 1}

// Cube returns a unit cube centered at the origin with 8 shared
// vertices and 36 indices.
func Cube() ([]Vertex, []uint32) {
	front := mgl32.Vec3{0, 0, 1}
	back := mgl32.Vec3{0, 0, -1}
	vertices := []Vertex{
		{Position: mgl32.Vec3{-0.5, -0.5, 0.5}, Normal: front, TexCoords: mgl32.Vec2{0, 0}, Color: white},
		{Position: mgl32.Vec3{0.5, -0.5, 0.5}, Normal: front, TexCoords: mgl32.Vec2{1, 0}, Color: white},
		{Position: mgl32.Vec3{0.5, 0.5, 0.5}, Normal: front, TexCoords: mgl32.Vec2{1, 1}, Color: white},
		{Position: mgl32.Vec3{-0.5, 0.5, 0.5}, Normal: front, TexCoords: mgl32.Vec2{0, 1}, Color: white},
		{Position: mgl32.Vec3{-0.5, -0.5, -0.5}, Normal: back, TexCoords: mgl32.Vec2{1, 0}, Color: white},
		{Position: mgl32.Vec3{-0.5, 0.5, -0.5}, Normal: back, TexCoords: mgl32.Vec2{1, 1}, Color: white},
		{Position: mgl32.Vec3{0.5, 0.5, -0.5}, Normal: back, TexCoords: mgl32.Vec2{0, 1}, Color: white},
		{Position: mgl32.Vec3{0.5, -0.5, -0.5}, Normal: back, TexCoords: mgl32.Vec2{0, 0}, Color: white},
	}
	indices := []uint32{
		0, 1, 2, 2, 3, 0, // front
		4, 5, 6, 6, 7, 4, // back
		3, 2, 6, 6, 5, 3, // top
		0, 4, 7, 7, 1, 0, // bottom
		1, 7, 6, 6, 2, 1, // right
		4, 0, 3, 3, 5, 4, // left
	}
	return vertices, indices
}

// Triangle returns a single counter-clockwise triangle in the z = 0
// plane.
func Triangle() ([]Vertex, []uint32) {
	n := mgl32.Vec3{0, 0, 1}
	vertices := []Vertex{
		{Position: mgl32.Vec3{-0.5, -0.5, 0}, Normal: n, TexCoords: mgl32.Vec2{0, 0}, Color: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec3{0.5, -0.5, 0}, Normal: n, TexCoords: mgl32.Vec2{1, 0}, Color: mgl32.Vec3{0, 1, 0}},
		{Position: mgl32.Vec3{0, 0.5, 0}, Normal: n, TexCoords: mgl32.Vec2{0.5, 1}, Color: mgl32.Vec3{0, 0, 1}},
	}
	return vertices, []uint32{0, 1, 2}
}

// Quad returns a unit square in the z = 0 plane facing +z.
func Quad() ([]Vertex, []uint32) {
	n := mgl32.Vec3{0, 0, 1}
	vertices := []Vertex{
		{Position: mgl32.Vec3{-0.5, -0.5, 0}, Normal: n, TexCoords: mgl32.Vec2{0, 0}, Color: white},
		{Position: mgl32.Vec3{0.5, -0.5, 0}, Normal: n, TexCoords: mgl32.Vec2{1, 0}, Color: white},
		{Position: mgl32.Vec3{0.5, 0.5, 0}, Normal: n, TexCoords: mgl32.Vec2{1, 1}, Color: white},
		{Position: mgl32.Vec3{-0.5, 0.5, 0}, Normal: n, TexCoords: mgl32.Vec2{0, 1}, Color: white},
	}
	return vertices, []uint32{0, 1, 2, 2, 3, 0}
}

// Default UV sphere resolution.
const (
	DefaultStacks  = 18
	DefaultSectors = 36
)

// Sphere returns a unit UV sphere with the poles on the z axis. It has
// (stacks+1)·(sectors+1) vertices and 6·sectors·(stacks-1) indices.
// stacks is raised to at least 2 and sectors to at least 3.
func Sphere(stacks, sectors int) ([]Vertex, []uint32) {
	if stacks < 2 {
		stacks = 2
	}
	if sectors < 3 {
		sectors = 3
	}
	vertices := make([]Vertex, 0, (stacks+1)*(sectors+1))
	for i := 0; i <= stacks; i++ {
		stackAngle := math.Pi/2 - float64(i)*math.Pi/float64(stacks)
		xy := float32(math.Cos(stackAngle))
		z := float32(math.Sin(stackAngle))
		for j := 0; j <= sectors; j++ {
			sectorAngle := float64(j) * 2 * math.Pi / float64(sectors)
			p := mgl32.Vec3{
				xy * float32(math.Cos(sectorAngle)),
				xy * float32(math.Sin(sectorAngle)),
				z,
			}
			vertices = append(vertices, Vertex{
				Position:  p,
				Normal:    p,
				TexCoords: mgl32.Vec2{float32(j) / float32(sectors), float32(i) / float32(stacks)},
				Color:     white,
			})
		}
	}
	indices := make([]uint32, 0, 6*sectors*(stacks-1))
	for i := 0; i < stacks; i++ {
		k1 := uint32(i * (sectors + 1))
		k2 := k1 + uint32(sectors) + 1
		for j := 0; j < sectors; j, k1, k2 = j+1, k1+1, k2+1 {
			if i != 0 {
				indices = append(indices, k1, k2, k1+1)
			}
			if i != stacks-1 {
				indices = append(indices, k1+1, k2, k2+1)
			}
		}
	}
	return vertices, indices
}

// DefaultSphere returns Sphere(DefaultStacks, DefaultSectors).
func DefaultSphere() ([]Vertex, []uint32) {
	return Sphere(DefaultStacks, DefaultSectors)
}

func NewCube(d driver.Device) (*Mesh, error) {
	v, i := Cube()
	return New(d, v, i)
}

func NewTriangle(d driver.Device) (*Mesh, error) {
	v, i := Triangle()
	return New(d, v, i)
}

func NewQuad(d driver.Device) (*Mesh, error) {
	v, i := Quad()
	return New(d, v, i)
}

func NewSphere(d driver.Device) (*Mesh, error) {
	v, i := DefaultSphere()
	return New(d, v, i)
}
