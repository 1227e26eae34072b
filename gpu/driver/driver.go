// SPDX-License-Identifier: Unlicense OR MIT

package driver

import (
	"errors"
	"fmt"
	"image"
	"time"

	"gioui.org/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// Device represents the abstraction of an underlying GPU API such
// as OpenGL. A Device is bound to the API context that was current
// when it was created and must only be used from the goroutine (and
// locked OS thread) owning that context.
type Device interface {
	// Init establishes the baseline state: depth testing with a less-than
	// comparison, back-face culling of counter-clockwise front faces and the
	// current clear color. It must be called once before any draw.
	Init() error
	Caps() Caps
	NewTimer() (Timer, error)
	// IsTimeContinuous reports whether all timer measurements
	// are valid at the point of call.
	IsTimeContinuous() bool
	NewBuffer(typ BufferBinding, data []byte) (Buffer, error)
	NewVertexArray(layout VertexLayout, vertices, indices Buffer) (VertexArray, error)
	NewProgram(vertex, fragment shader.Sources) (Program, error)
	NewTexture(format TextureFormat, width, height int, minFilter, magFilter TextureFilter, wrap TextureWrap) (Texture, error)
	// NewFramebuffer creates a framebuffer rendering into color. If
	// depthStencil is set, a combined depth-stencil attachment of the same
	// size is created and owned by the framebuffer.
	NewFramebuffer(color Texture, depthStencil bool) (Framebuffer, error)

	Viewport(x, y, width, height int)
	ClearColor(r, g, b, a float32)
	// Clear clears the color and depth buffers of the bound framebuffer.
	Clear()
	// DrawIndexed draws count indices as triangles from the bound
	// vertex array.
	DrawIndexed(count int)

	SetCullFace(enable bool)
	CullFace(face Face)
	SetDepthTest(enable bool)
	DepthMask(mask bool)

	BindProgram(p Program)
	// BindVertexArray binds a, or unbinds the current vertex array if a is nil.
	BindVertexArray(a VertexArray)
	// BindFramebuffer redirects draws to f, or to the default framebuffer
	// if f is nil.
	BindFramebuffer(f Framebuffer)
	BindTexture(unit int, t Texture)
	// BlitFramebuffer copies srcRect of src to dstRect of dst. A nil dst
	// denotes the default framebuffer.
	BlitFramebuffer(dst, src Framebuffer, srcRect, dstRect image.Rectangle)

	Release()
}

// VertexLayout describes the attributes of one interleaved vertex buffer.
type VertexLayout struct {
	Inputs []InputDesc
	Stride int
}

// InputDesc describes a vertex attribute as laid out in a Buffer.
type InputDesc struct {
	Location int
	Type     shader.DataType
	Size     int

	Offset int
}

type Face uint8

type TextureFilter uint8
type TextureFormat uint8
type TextureWrap uint8

type BufferBinding uint8

type Features uint

type Caps struct {
	// BottomLeftOrigin is true if the driver has the origin in the lower left
	// corner. The OpenGL driver returns true.
	BottomLeftOrigin bool
	Features         Features
	MaxTextureSize   int
}

// Program is a linked GPU program. Uniform locations are resolved with
// UniformLocation; setting location -1 is a no-op.
type Program interface {
	// UniformLocation returns the location of the named uniform, or -1
	// if the program has no active uniform of that name.
	UniformLocation(name string) int
	SetMat4(loc int, m mgl32.Mat4)
	SetVec3(loc int, v mgl32.Vec3)
	SetVec4(loc int, v mgl32.Vec4)
	SetFloat(loc int, v float32)
	SetInt(loc int, v int32)
	Release()
}

type Buffer interface {
	Upload(data []byte)
	Release()
}

type VertexArray interface {
	Release()
}

type Framebuffer interface {
	Release()
	ReadPixels(src image.Rectangle, pixels []byte, stride int) error
}

type Timer interface {
	Begin()
	End()
	// Duration returns the measured GPU time once the result is available.
	// It never blocks.
	Duration() (time.Duration, bool)
	Release()
}

type Texture interface {
	Upload(offset, size image.Point, pixels []byte, stride int)
	Size() image.Point
	Release()
}

// CompileError is returned when a program fails to compile or link.
// Log holds the backend diagnostic text.
type CompileError struct {
	Name  string
	Stage string
	Log   string
}

const (
	BufferBindingIndices BufferBinding = 1 << iota
	BufferBindingVertices
)

const (
	TextureFormatRGBA8 TextureFormat = iota
	TextureFormatSRGBA
)

const (
	FilterNearest TextureFilter = iota
	FilterLinear
	// FilterLinearMipmapLinear generates mipmaps after every upload.
	FilterLinearMipmapLinear
)

const (
	WrapClampToEdge TextureWrap = iota
	WrapRepeat
)

const (
	FaceBack Face = iota
	FaceFront
)

const (
	FeatureTimers Features = 1 << iota
	FeatureSRGB
)

var (
	ErrNoDriver              = errors.New("no driver available")
	ErrIncompleteFramebuffer = errors.New("incomplete framebuffer")
)

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Name, e.Stage, e.Log)
}

func (f Features) Has(feats Features) bool {
	return f&feats == feats
}

// DownloadImage reads r from f and returns it with the origin in the
// upper left corner.
func DownloadImage(d Device, f Framebuffer, r image.Rectangle) (*image.RGBA, error) {
	img := image.NewRGBA(r)
	if err := f.ReadPixels(r, img.Pix, img.Stride); err != nil {
		return nil, err
	}
	if d.Caps().BottomLeftOrigin {
		// OpenGL origin is in the lower-left corner. Flip the image to
		// match.
		flipImageY(r.Dx()*4, r.Dy(), img.Pix)
	}
	return img, nil
}

func flipImageY(stride, height int, pixels []byte) {
	row := make([]uint8, stride)
	for y := 0; y < height/2; y++ {
		y1 := height - y - 1
		dest := y1 * stride
		src := y * stride
		copy(row, pixels[dest:])
		copy(pixels[dest:], pixels[src:src+len(row)])
		copy(pixels[src:], row)
	}
}

// UploadImage uploads img to t at offset.
func UploadImage(t Texture, offset image.Point, img *image.RGBA) {
	size := img.Bounds().Size()
	if size.X == 0 || size.Y == 0 {
		return
	}
	start := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y)
	end := img.PixOffset(img.Rect.Min.X, img.Rect.Max.Y-1) + size.X*4
	t.Upload(offset, size, img.Pix[start:end], img.Stride)
}
