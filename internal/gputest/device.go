// SPDX-License-Identifier: Unlicense OR MIT

// Package gputest implements a recording driver.Device for tests that
// need to observe the order of device calls without a GPU.
package gputest

import (
	"fmt"
	"image"
	"image/color"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gioui.org/shader"
	"github.com/go-gl/mathgl/mgl32"

	"kosmic.dev/gpu/driver"
)

// Device records every state changing call in Calls.
type Device struct {
	// Calls is the ordered log of device calls, formatted like
	// "DrawIndexed(36)" or "BindFramebuffer(3)".
	Calls []string

	// Features reported by Caps. Defaults to none.
	Features driver.Features
	// MaxTextureSize reported by Caps. Defaults to 4096.
	MaxTextureSize int
	// GPUTime is the duration reported by finished timers.
	GPUTime time.Duration
	// TimerLatency is the number of timer Begin calls that must follow
	// a timer's End before its result becomes available.
	TimerLatency int
	// Disjoint makes IsTimeContinuous report false.
	Disjoint bool

	// InitErr is returned from Init.
	InitErr error
	// CompileErr, if set, fails every NewProgram.
	CompileErr *driver.CompileError
	// IncompleteFramebuffers makes NewFramebuffer fail.
	IncompleteFramebuffers bool

	State State
	// Programs lists every program created, in order.
	Programs []*Program

	nextID      int
	timerBegins int
	released    bool
}

// State mirrors the pipeline state a real backend would track.
type State struct {
	DepthTest   bool
	DepthMask   bool
	CullFace    bool
	CullMode    driver.Face
	ClearColor  [4]float32
	Viewport    image.Rectangle
	Program     *Program
	VertexArray *VertexArray
	Framebuffer *Framebuffer
	Textures    [8]*Texture
}

type Buffer struct {
	ID       int
	Binding  driver.BufferBinding
	Data     []byte
	Released bool
}

type VertexArray struct {
	ID       int
	Layout   driver.VertexLayout
	Vertices *Buffer
	Indices  *Buffer
	Released bool
}

type Texture struct {
	ID        int
	Format    driver.TextureFormat
	Width     int
	Height    int
	MinFilter driver.TextureFilter
	MagFilter driver.TextureFilter
	Wrap      driver.TextureWrap
	Pixels    []byte
	Uploads   int
	Released  bool
}

type Framebuffer struct {
	ID           int
	Color        *Texture
	DepthStencil bool
	Released     bool

	dev   *Device
	clear color.RGBA
}

type Timer struct {
	ID       int
	Released bool

	dev     *Device
	running bool
	endedAt int
	ended   bool
}

// Program records uniform writes. Uniform names are taken from the
// "uniform" declarations in the vertex and fragment sources.
type Program struct {
	ID       int
	Name     string
	Released bool
	// Values holds the last value written to each uniform.
	Values map[string]interface{}
	// Lookups counts UniformLocation calls per name.
	Lookups map[string]int

	dev   *Device
	names []string
	locs  map[string]int
}

var _ driver.Device = (*Device)(nil)

var uniformDecl = regexp.MustCompile(`uniform\s+\w+\s+(\w+)\s*(?:\[(\d+)\])?\s*;`)

func (d *Device) record(format string, args ...interface{}) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

func (d *Device) id() int {
	d.nextID++
	return d.nextID
}

// Reset clears the call log.
func (d *Device) Reset() {
	d.Calls = nil
}

// Released reports whether Release was called.
func (d *Device) Released() bool {
	return d.released
}

// Count returns the number of logged calls equal to call.
func (d *Device) Count(call string) int {
	n := 0
	for _, c := range d.Calls {
		if c == call {
			n++
		}
	}
	return n
}

// Index returns the position of the first logged call equal to call
// at or after from, or -1.
func (d *Device) Index(call string, from int) int {
	for i := from; i < len(d.Calls); i++ {
		if d.Calls[i] == call {
			return i
		}
	}
	return -1
}

func (d *Device) Init() error {
	d.record("Init")
	if d.InitErr != nil {
		return d.InitErr
	}
	d.State.DepthTest = true
	d.State.DepthMask = true
	d.State.CullFace = true
	d.State.CullMode = driver.FaceBack
	return nil
}

func (d *Device) Caps() driver.Caps {
	limit := d.MaxTextureSize
	if limit == 0 {
		limit = 4096
	}
	return driver.Caps{BottomLeftOrigin: true, Features: d.Features, MaxTextureSize: limit}
}

func (d *Device) NewTimer() (driver.Timer, error) {
	t := &Timer{ID: d.id(), dev: d}
	d.record("NewTimer(%d)", t.ID)
	return t, nil
}

func (d *Device) IsTimeContinuous() bool {
	return !d.Disjoint
}

func (d *Device) NewBuffer(typ driver.BufferBinding, data []byte) (driver.Buffer, error) {
	b := &Buffer{ID: d.id(), Binding: typ, Data: append([]byte(nil), data...)}
	d.record("NewBuffer(%d)", b.ID)
	return b, nil
}

func (d *Device) NewVertexArray(layout driver.VertexLayout, vertices, indices driver.Buffer) (driver.VertexArray, error) {
	a := &VertexArray{ID: d.id(), Layout: layout, Vertices: vertices.(*Buffer), Indices: indices.(*Buffer)}
	d.record("NewVertexArray(%d)", a.ID)
	return a, nil
}

func (d *Device) NewProgram(vertex, fragment shader.Sources) (driver.Program, error) {
	if d.CompileErr != nil {
		d.record("NewProgram(error)")
		err := *d.CompileErr
		return nil, &err
	}
	p := &Program{
		ID:      d.id(),
		Name:    vertex.Name,
		Values:  make(map[string]interface{}),
		Lookups: make(map[string]int),
		dev:     d,
		locs:    make(map[string]int),
	}
	for _, src := range []string{vertex.GLSL150, fragment.GLSL150} {
		for _, m := range uniformDecl.FindAllStringSubmatch(src, -1) {
			p.declare(m[1])
			if m[2] != "" {
				n, _ := strconv.Atoi(m[2])
				for i := 0; i < n; i++ {
					p.declare(fmt.Sprintf("%s[%d]", m[1], i))
				}
			}
		}
	}
	d.Programs = append(d.Programs, p)
	d.record("NewProgram(%d)", p.ID)
	return p, nil
}

func (p *Program) declare(name string) {
	if _, exists := p.locs[name]; exists {
		return
	}
	p.locs[name] = len(p.names)
	p.names = append(p.names, name)
}

func (d *Device) NewTexture(format driver.TextureFormat, width, height int, minFilter, magFilter driver.TextureFilter, wrap driver.TextureWrap) (driver.Texture, error) {
	t := &Texture{ID: d.id(), Format: format, Width: width, Height: height, MinFilter: minFilter, MagFilter: magFilter, Wrap: wrap}
	d.record("NewTexture(%d, %dx%d)", t.ID, width, height)
	return t, nil
}

func (d *Device) NewFramebuffer(tex driver.Texture, depthStencil bool) (driver.Framebuffer, error) {
	if d.IncompleteFramebuffers {
		d.record("NewFramebuffer(incomplete)")
		return nil, fmt.Errorf("gputest: %w, status = 0x8cd6", driver.ErrIncompleteFramebuffer)
	}
	f := &Framebuffer{ID: d.id(), Color: tex.(*Texture), DepthStencil: depthStencil, dev: d}
	d.record("NewFramebuffer(%d)", f.ID)
	return f, nil
}

func (d *Device) Viewport(x, y, width, height int) {
	d.State.Viewport = image.Rect(x, y, x+width, y+height)
	d.record("Viewport(%d, %d, %d, %d)", x, y, width, height)
}

func (d *Device) ClearColor(r, g, b, a float32) {
	d.State.ClearColor = [4]float32{r, g, b, a}
	d.record("ClearColor(%g, %g, %g, %g)", r, g, b, a)
}

func (d *Device) Clear() {
	if f := d.State.Framebuffer; f != nil {
		c := d.State.ClearColor
		f.clear = color.RGBA{R: to8(c[0]), G: to8(c[1]), B: to8(c[2]), A: to8(c[3])}
	}
	d.record("Clear")
}

func to8(v float32) uint8 {
	return uint8(mgl32.Clamp(v, 0, 1)*255 + .5)
}

func (d *Device) DrawIndexed(count int) {
	d.record("DrawIndexed(%d)", count)
}

func (d *Device) SetCullFace(enable bool) {
	d.State.CullFace = enable
	d.record("SetCullFace(%v)", enable)
}

func (d *Device) CullFace(face driver.Face) {
	d.State.CullMode = face
	name := "back"
	if face == driver.FaceFront {
		name = "front"
	}
	d.record("CullFace(%s)", name)
}

func (d *Device) SetDepthTest(enable bool) {
	d.State.DepthTest = enable
	d.record("SetDepthTest(%v)", enable)
}

func (d *Device) DepthMask(mask bool) {
	d.State.DepthMask = mask
	d.record("DepthMask(%v)", mask)
}

func (d *Device) BindProgram(p driver.Program) {
	if p == nil {
		d.State.Program = nil
		d.record("BindProgram(nil)")
		return
	}
	d.State.Program = p.(*Program)
	d.record("BindProgram(%d)", d.State.Program.ID)
}

func (d *Device) BindVertexArray(a driver.VertexArray) {
	if a == nil {
		d.State.VertexArray = nil
		d.record("BindVertexArray(nil)")
		return
	}
	d.State.VertexArray = a.(*VertexArray)
	d.record("BindVertexArray(%d)", d.State.VertexArray.ID)
}

func (d *Device) BindFramebuffer(f driver.Framebuffer) {
	if f == nil {
		d.State.Framebuffer = nil
		d.record("BindFramebuffer(nil)")
		return
	}
	d.State.Framebuffer = f.(*Framebuffer)
	d.record("BindFramebuffer(%d)", d.State.Framebuffer.ID)
}

func (d *Device) BindTexture(unit int, t driver.Texture) {
	if t == nil {
		d.State.Textures[unit] = nil
		d.record("BindTexture(%d, nil)", unit)
		return
	}
	d.State.Textures[unit] = t.(*Texture)
	d.record("BindTexture(%d, %d)", unit, d.State.Textures[unit].ID)
}

func (d *Device) BlitFramebuffer(dst, src driver.Framebuffer, srect, drect image.Rectangle) {
	dstName := "nil"
	if dst != nil {
		dstName = strconv.Itoa(dst.(*Framebuffer).ID)
	}
	d.record("BlitFramebuffer(%s, %d, %v, %v)", dstName, src.(*Framebuffer).ID, srect, drect)
}

func (d *Device) Release() {
	d.released = true
	d.record("Release")
}

func (b *Buffer) Upload(data []byte) {
	copy(b.Data, data)
}

func (b *Buffer) Release() {
	b.Released = true
}

func (a *VertexArray) Release() {
	a.Released = true
}

func (t *Texture) Upload(offset, size image.Point, pixels []byte, stride int) {
	t.Uploads++
	t.Pixels = append(t.Pixels[:0], pixels...)
}

func (t *Texture) Size() image.Point {
	return image.Point{X: t.Width, Y: t.Height}
}

func (t *Texture) Release() {
	t.Released = true
}

func (f *Framebuffer) Release() {
	f.Released = true
	f.dev.record("ReleaseFramebuffer(%d)", f.ID)
}

// ReadPixels fills pixels with the color of the last Clear issued while
// f was bound.
func (f *Framebuffer) ReadPixels(src image.Rectangle, pixels []byte, stride int) error {
	for y := 0; y < src.Dy(); y++ {
		row := pixels[y*stride:]
		for x := 0; x < src.Dx(); x++ {
			copy(row[x*4:], []byte{f.clear.R, f.clear.G, f.clear.B, f.clear.A})
		}
	}
	return nil
}

func (t *Timer) Begin() {
	t.dev.timerBegins++
	t.running, t.ended = true, false
	t.dev.record("Timer(%d).Begin", t.ID)
}

func (t *Timer) End() {
	t.running, t.ended = false, true
	t.endedAt = t.dev.timerBegins
	t.dev.record("Timer(%d).End", t.ID)
}

func (t *Timer) Duration() (time.Duration, bool) {
	if !t.ended || t.dev.timerBegins-t.endedAt < t.dev.TimerLatency {
		return 0, false
	}
	return t.dev.GPUTime, true
}

func (t *Timer) Release() {
	t.Released = true
}

func (p *Program) UniformLocation(name string) int {
	p.Lookups[name]++
	if loc, ok := p.locs[name]; ok {
		return loc
	}
	return -1
}

func (p *Program) set(loc int, kind string, v interface{}) {
	if loc == -1 {
		return
	}
	name := p.names[loc]
	p.Values[name] = v
	p.dev.record("%s(%d, %s)", kind, p.ID, name)
}

func (p *Program) SetMat4(loc int, m mgl32.Mat4) { p.set(loc, "SetMat4", m) }
func (p *Program) SetVec3(loc int, v mgl32.Vec3) { p.set(loc, "SetVec3", v) }
func (p *Program) SetVec4(loc int, v mgl32.Vec4) { p.set(loc, "SetVec4", v) }
func (p *Program) SetFloat(loc int, v float32)   { p.set(loc, "SetFloat", v) }
func (p *Program) SetInt(loc int, v int32)       { p.set(loc, "SetInt", v) }

func (p *Program) Release() {
	p.Released = true
	p.dev.record("ReleaseProgram(%d)", p.ID)
}

// Has reports whether the program declares the named uniform.
func (p *Program) Has(name string) bool {
	_, ok := p.locs[name]
	return ok
}

// Uniforms returns the declared uniform names in declaration order.
func (p *Program) Uniforms() []string {
	return append([]string(nil), p.names...)
}

// Sources returns shader sources whose only content is the given
// uniform declarations, for tests that do not care about GLSL.
func Sources(name string, uniforms ...string) shader.Sources {
	var b strings.Builder
	for _, u := range uniforms {
		fmt.Fprintf(&b, "uniform float %s;\n", u)
	}
	return shader.Sources{Name: name, GLSL150: b.String()}
}
