// SPDX-License-Identifier: Unlicense OR MIT

// Package mesh implements indexed triangle meshes on a driver.Device and
// a library of procedural shapes.
package mesh

import (
	"errors"
	"fmt"
	"unsafe"

	"gioui.org/shader"
	"github.com/go-gl/mathgl/mgl32"

	"kosmic.dev"
	"kosmic.dev/gpu/driver"
	"kosmic.dev/internal/byteslice"
)

// Vertex is the fixed vertex format shared by every mesh and the
// built-in shaders.
type Vertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	TexCoords mgl32.Vec2
	Color     mgl32.Vec3
}

// Attribute locations of the Vertex fields.
const (
	LocationPosition = 0
	LocationColor    = 1
	LocationTexCoord = 2
	LocationNormal   = 3
)

// Layout is the vertex layout of Vertex.
var Layout = driver.VertexLayout{
	Inputs: []driver.InputDesc{
		{Location: LocationPosition, Type: shader.DataTypeFloat, Size: 3, Offset: int(unsafe.Offsetof(Vertex{}.Position))},
		{Location: LocationColor, Type: shader.DataTypeFloat, Size: 3, Offset: int(unsafe.Offsetof(Vertex{}.Color))},
		{Location: LocationTexCoord, Type: shader.DataTypeFloat, Size: 2, Offset: int(unsafe.Offsetof(Vertex{}.TexCoords))},
		{Location: LocationNormal, Type: shader.DataTypeFloat, Size: 3, Offset: int(unsafe.Offsetof(Vertex{}.Normal))},
	},
	Stride: int(unsafe.Sizeof(Vertex{})),
}

var errEmpty = errors.New("mesh: no vertices or indices")

// Mesh owns the GPU buffers of an immutable indexed triangle list and a
// model transform.
type Mesh struct {
	dev       driver.Device
	vertices  driver.Buffer
	indices   driver.Buffer
	array     driver.VertexArray
	nvertices int
	nindices  int
	transform mgl32.Mat4
}

// New uploads vertices and indices to d. Every index must refer to an
// element of vertices.
func New(d driver.Device, vertices []Vertex, indices []uint32) (*Mesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, errEmpty
	}
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return nil, fmt.Errorf("mesh: index %d out of range: %d >= %d", i, idx, len(vertices))
		}
	}
	m := &Mesh{
		dev:       d,
		nvertices: len(vertices),
		nindices:  len(indices),
		transform: mgl32.Ident4(),
	}
	var err error
	m.vertices, err = d.NewBuffer(driver.BufferBindingVertices, byteslice.Slice(vertices))
	if err != nil {
		return nil, fmt.Errorf("mesh: vertex buffer: %w", err)
	}
	m.indices, err = d.NewBuffer(driver.BufferBindingIndices, byteslice.Slice(indices))
	if err != nil {
		m.vertices.Release()
		return nil, fmt.Errorf("mesh: index buffer: %w", err)
	}
	m.array, err = d.NewVertexArray(Layout, m.vertices, m.indices)
	if err != nil {
		m.vertices.Release()
		m.indices.Release()
		return nil, fmt.Errorf("mesh: vertex array: %w", err)
	}
	kosmic.Logger().Debug("mesh: created", "vertices", m.nvertices, "indices", m.nindices)
	return m, nil
}

// Bind makes the mesh the source of subsequent draws.
func (m *Mesh) Bind() {
	m.dev.BindVertexArray(m.array)
}

func (m *Mesh) Unbind() {
	m.dev.BindVertexArray(nil)
}

// Draw binds the mesh, draws all its indices and unbinds it.
func (m *Mesh) Draw() {
	m.Bind()
	m.dev.DrawIndexed(m.nindices)
	m.Unbind()
}

// SetTransform sets the model matrix read by the renderer at draw time.
func (m *Mesh) SetTransform(t mgl32.Mat4) {
	m.transform = t
}

func (m *Mesh) Transform() mgl32.Mat4 {
	return m.transform
}

func (m *Mesh) VertexCount() int { return m.nvertices }
func (m *Mesh) IndexCount() int  { return m.nindices }

// Release frees the GPU objects. The mesh must not be used afterwards.
func (m *Mesh) Release() {
	if m.array == nil {
		return
	}
	m.array.Release()
	m.vertices.Release()
	m.indices.Release()
	*m = Mesh{}
}
