// SPDX-License-Identifier: Unlicense OR MIT

// Package opengl implements driver.Device on top of OpenGL 4.1 core.
// Importing it registers the backend with driver.NewDevice.
package opengl

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"time"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"gioui.org/shader"

	"kosmic.dev"
	"kosmic.dev/gpu/driver"
	"kosmic.dev/internal/byteslice"
)

// Backend implements driver.Device.
type Backend struct {
	glstate glState

	glver [2]int
	feats driver.Caps

	srgbaTriple textureTriple
}

// State tracking.
type glState struct {
	drawFBO   uint32
	readFBO   uint32
	renderBuf uint32
	prog      uint32
	vertArray uint32
	arrayBuf  uint32
	texUnits  struct {
		active uint32
		binds  [maxTextureUnits]uint32
	}
	depthMask  bool
	depthTest  bool
	cullFace   bool
	cullMode   uint32
	clearColor [4]float32
	viewport   [4]int
}

type gpuTimer struct {
	obj    uint32
	ended  bool
	done   bool
	result time.Duration
}

type gpuTexture struct {
	backend *Backend
	obj     uint32
	triple  textureTriple
	mipmap  bool
	width   int
	height  int
}

type gpuFramebuffer struct {
	backend  *Backend
	obj      uint32
	hasDepth bool
	depthBuf uint32
	width    int
	height   int
}

type gpuBuffer struct {
	backend *Backend
	obj     uint32
	typ     driver.BufferBinding
	size    int
}

type gpuVertexArray struct {
	backend *Backend
	obj     uint32
}

type gpuProgram struct {
	backend *Backend
	obj     uint32
}

// textureTriple holds the type settings for
// a TexImage2D call.
type textureTriple struct {
	internalFormat int32
	format         uint32
	typ            uint32
}

const maxTextureUnits = 8

func init() {
	driver.NewOpenGLDevice = newOpenGLDevice
}

func newOpenGLDevice(api driver.OpenGL) (driver.Device, error) {
	var err error
	if api.GetProcAddress != nil {
		err = gl.InitWithProcAddrFunc(api.GetProcAddress)
	} else {
		err = gl.Init()
	}
	if err != nil {
		return nil, fmt.Errorf("opengl: loading functions: %w", err)
	}
	glVer := gl.GoStr(gl.GetString(gl.VERSION))
	ver, err := parseGLVersion(glVer)
	if err != nil {
		return nil, err
	}
	if ver[0] < 4 || (ver[0] == 4 && ver[1] < 1) {
		return nil, fmt.Errorf("opengl: version %d.%d is too old, 4.1 core is required", ver[0], ver[1])
	}
	b := &Backend{
		glver:       ver,
		srgbaTriple: textureTriple{gl.SRGB8_ALPHA8, gl.RGBA, gl.UNSIGNED_BYTE},
	}
	b.feats.BottomLeftOrigin = true
	// Timer queries and sRGB framebuffers are core in 3.3 and later.
	b.feats.Features |= driver.FeatureTimers | driver.FeatureSRGB
	var maxTex int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxTex)
	b.feats.MaxTextureSize = int(maxTex)
	b.glstate = queryState()
	kosmic.Logger().Info("opengl device created",
		"version", glVer,
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
		"max_texture_size", maxTex)
	return b, nil
}

// parseGLVersion extracts the major and minor version from a
// GL_VERSION string such as "4.1 Metal - 83.1" or "4.6.0 NVIDIA 535.54".
func parseGLVersion(glVer string) ([2]int, error) {
	var major, minor int
	if _, err := fmt.Sscanf(glVer, "%d.%d", &major, &minor); err != nil {
		return [2]int{}, fmt.Errorf("opengl: failed to parse OpenGL version %q: %w", glVer, err)
	}
	return [2]int{major, minor}, nil
}

func queryState() glState {
	s := glState{
		prog:      uint32(getInteger(gl.CURRENT_PROGRAM)),
		arrayBuf:  uint32(getInteger(gl.ARRAY_BUFFER_BINDING)),
		drawFBO:   uint32(getInteger(gl.DRAW_FRAMEBUFFER_BINDING)),
		readFBO:   uint32(getInteger(gl.READ_FRAMEBUFFER_BINDING)),
		renderBuf: uint32(getInteger(gl.RENDERBUFFER_BINDING)),
		vertArray: uint32(getInteger(gl.VERTEX_ARRAY_BINDING)),
		depthMask: getInteger(gl.DEPTH_WRITEMASK) != gl.FALSE,
		depthTest: gl.IsEnabled(gl.DEPTH_TEST),
		cullFace:  gl.IsEnabled(gl.CULL_FACE),
		cullMode:  uint32(getInteger(gl.CULL_FACE_MODE)),
	}
	s.texUnits.active = uint32(getInteger(gl.ACTIVE_TEXTURE))
	gl.GetFloatv(gl.COLOR_CLEAR_VALUE, &s.clearColor[0])
	var vp [4]int32
	gl.GetIntegerv(gl.VIEWPORT, &vp[0])
	s.viewport = [4]int{int(vp[0]), int(vp[1]), int(vp[2]), int(vp[3])}
	for i := range s.texUnits.binds {
		s.activeTexture(gl.TEXTURE0 + uint32(i))
		s.texUnits.binds[i] = uint32(getInteger(gl.TEXTURE_BINDING_2D))
	}
	return s
}

func getInteger(pname uint32) int32 {
	var v int32
	gl.GetIntegerv(pname, &v)
	return v
}

func (s *glState) activeTexture(unit uint32) {
	if unit != s.texUnits.active {
		gl.ActiveTexture(unit)
		s.texUnits.active = unit
	}
}

func (s *glState) bindTexture(unit int, t uint32) {
	s.activeTexture(gl.TEXTURE0 + uint32(unit))
	if t != s.texUnits.binds[unit] {
		gl.BindTexture(gl.TEXTURE_2D, t)
		s.texUnits.binds[unit] = t
	}
}

func (s *glState) bindVertexArray(a uint32) {
	if a != s.vertArray {
		gl.BindVertexArray(a)
		s.vertArray = a
	}
}

func (s *glState) bindRenderbuffer(r uint32) {
	if r != s.renderBuf {
		gl.BindRenderbuffer(gl.RENDERBUFFER, r)
		s.renderBuf = r
	}
}

func (s *glState) bindBuffer(target uint32, buf uint32) {
	switch target {
	case gl.ARRAY_BUFFER:
		if buf == s.arrayBuf {
			return
		}
		s.arrayBuf = buf
	case gl.ELEMENT_ARRAY_BUFFER, gl.COPY_WRITE_BUFFER:
		// Element bindings are vertex array state and copy bindings are
		// never read back, so neither is tracked.
	default:
		panic("unknown buffer target")
	}
	gl.BindBuffer(target, buf)
}

func (s *glState) bindFramebuffer(target uint32, fbo uint32) {
	switch target {
	case gl.FRAMEBUFFER:
		if fbo == s.drawFBO && fbo == s.readFBO {
			return
		}
		s.drawFBO = fbo
		s.readFBO = fbo
	case gl.READ_FRAMEBUFFER:
		if fbo == s.readFBO {
			return
		}
		s.readFBO = fbo
	case gl.DRAW_FRAMEBUFFER:
		if fbo == s.drawFBO {
			return
		}
		s.drawFBO = fbo
	default:
		panic("unknown target")
	}
	gl.BindFramebuffer(target, fbo)
}

func (s *glState) useProgram(p uint32) {
	if p != s.prog {
		gl.UseProgram(p)
		s.prog = p
	}
}

func (s *glState) deleteRenderbuffer(r uint32) {
	gl.DeleteRenderbuffers(1, &r)
	if r == s.renderBuf {
		s.renderBuf = 0
	}
}

func (s *glState) deleteFramebuffer(fbo uint32) {
	gl.DeleteFramebuffers(1, &fbo)
	if fbo == s.drawFBO {
		s.drawFBO = 0
	}
	if fbo == s.readFBO {
		s.readFBO = 0
	}
}

func (s *glState) deleteBuffer(b uint32) {
	gl.DeleteBuffers(1, &b)
	if b == s.arrayBuf {
		s.arrayBuf = 0
	}
}

func (s *glState) deleteProgram(p uint32) {
	gl.DeleteProgram(p)
	if p == s.prog {
		s.prog = 0
	}
}

func (s *glState) deleteVertexArray(a uint32) {
	gl.DeleteVertexArrays(1, &a)
	if a == s.vertArray {
		s.vertArray = 0
	}
}

func (s *glState) deleteTexture(t uint32) {
	gl.DeleteTextures(1, &t)
	binds := &s.texUnits.binds
	for i, obj := range binds {
		if t == obj {
			binds[i] = 0
		}
	}
}

func (s *glState) setClearColor(r, g, b, a float32) {
	col := [4]float32{r, g, b, a}
	if col != s.clearColor {
		gl.ClearColor(r, g, b, a)
		s.clearColor = col
	}
}

func (s *glState) setViewport(x, y, width, height int) {
	view := [4]int{x, y, width, height}
	if view != s.viewport {
		gl.Viewport(int32(x), int32(y), int32(width), int32(height))
		s.viewport = view
	}
}

func (s *glState) setDepthMask(enable bool) {
	if enable != s.depthMask {
		gl.DepthMask(enable)
		s.depthMask = enable
	}
}

func (s *glState) setCullMode(mode uint32) {
	if mode != s.cullMode {
		gl.CullFace(mode)
		s.cullMode = mode
	}
}

func (s *glState) set(target uint32, enable bool) {
	switch target {
	case gl.DEPTH_TEST:
		if s.depthTest == enable {
			return
		}
		s.depthTest = enable
	case gl.CULL_FACE:
		if s.cullFace == enable {
			return
		}
		s.cullFace = enable
	default:
		panic("unknown enable")
	}
	if enable {
		gl.Enable(target)
	} else {
		gl.Disable(target)
	}
}

func (b *Backend) Init() error {
	glErr()
	b.glstate.set(gl.DEPTH_TEST, true)
	gl.DepthFunc(gl.LESS)
	b.glstate.set(gl.CULL_FACE, true)
	b.glstate.setCullMode(gl.BACK)
	gl.FrontFace(gl.CCW)
	b.glstate.setDepthMask(true)
	c := b.glstate.clearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])
	if err := glErr(); err != nil {
		return fmt.Errorf("opengl: init: %w", err)
	}
	return nil
}

func (b *Backend) Caps() driver.Caps {
	return b.feats
}

func (b *Backend) NewTimer() (driver.Timer, error) {
	t := new(gpuTimer)
	gl.GenQueries(1, &t.obj)
	if err := glErr(); err != nil {
		return nil, fmt.Errorf("opengl: timer: %w", err)
	}
	return t, nil
}

// IsTimeContinuous is always true on desktop core profiles, which have
// no disjoint timer events.
func (b *Backend) IsTimeContinuous() bool {
	return true
}

func (b *Backend) NewBuffer(typ driver.BufferBinding, data []byte) (driver.Buffer, error) {
	glErr()
	buf := &gpuBuffer{backend: b, typ: typ, size: len(data)}
	gl.GenBuffers(1, &buf.obj)
	// Upload through the copy target so the array and element
	// bindings are left alone.
	b.glstate.bindBuffer(gl.COPY_WRITE_BUFFER, buf.obj)
	gl.BufferData(gl.COPY_WRITE_BUFFER, len(data), ptr(data), gl.STATIC_DRAW)
	b.glstate.bindBuffer(gl.COPY_WRITE_BUFFER, 0)
	if err := glErr(); err != nil {
		buf.Release()
		return nil, err
	}
	return buf, nil
}

func (b *Backend) NewVertexArray(layout driver.VertexLayout, vertices, indices driver.Buffer) (driver.VertexArray, error) {
	vbuf, ok := vertices.(*gpuBuffer)
	if !ok || vbuf.typ&driver.BufferBindingVertices == 0 {
		return nil, errors.New("opengl: vertex array needs a vertex buffer")
	}
	ibuf, ok := indices.(*gpuBuffer)
	if !ok || ibuf.typ&driver.BufferBindingIndices == 0 {
		return nil, errors.New("opengl: vertex array needs an index buffer")
	}
	glErr()
	va := &gpuVertexArray{backend: b}
	gl.GenVertexArrays(1, &va.obj)
	prev := b.glstate.vertArray
	b.glstate.bindVertexArray(va.obj)
	b.glstate.bindBuffer(gl.ELEMENT_ARRAY_BUFFER, ibuf.obj)
	b.glstate.bindBuffer(gl.ARRAY_BUFFER, vbuf.obj)
	for _, inp := range layout.Inputs {
		gl.EnableVertexAttribArray(uint32(inp.Location))
		gl.VertexAttribPointerWithOffset(uint32(inp.Location), int32(inp.Size), toGLDataType(inp.Type), false, int32(layout.Stride), uintptr(inp.Offset))
	}
	b.glstate.bindVertexArray(prev)
	b.glstate.bindBuffer(gl.ARRAY_BUFFER, 0)
	if err := glErr(); err != nil {
		va.Release()
		return nil, err
	}
	return va, nil
}

func toGLDataType(t shader.DataType) uint32 {
	switch t {
	case shader.DataTypeFloat:
		return gl.FLOAT
	case shader.DataTypeShort:
		return gl.SHORT
	default:
		panic("unsupported data type")
	}
}

func (b *Backend) NewTexture(format driver.TextureFormat, width, height int, minFilter, magFilter driver.TextureFilter, wrap driver.TextureWrap) (driver.Texture, error) {
	glErr()
	tex := &gpuTexture{backend: b, width: width, height: height}
	switch format {
	case driver.TextureFormatSRGBA:
		tex.triple = b.srgbaTriple
	case driver.TextureFormatRGBA8:
		tex.triple = textureTriple{gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE}
	default:
		return nil, errors.New("opengl: unsupported texture format")
	}
	if magFilter == driver.FilterLinearMipmapLinear {
		return nil, errors.New("opengl: mipmap filtering is only valid for minification")
	}
	tex.mipmap = minFilter == driver.FilterLinearMipmapLinear
	gl.GenTextures(1, &tex.obj)
	b.BindTexture(0, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, toTexFilter(magFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, toTexFilter(minFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, toTexWrap(wrap))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, toTexWrap(wrap))
	gl.TexImage2D(gl.TEXTURE_2D, 0, tex.triple.internalFormat, int32(width), int32(height), 0, tex.triple.format, tex.triple.typ, nil)
	if err := glErr(); err != nil {
		tex.Release()
		return nil, err
	}
	return tex, nil
}

func (b *Backend) NewFramebuffer(color driver.Texture, depthStencil bool) (driver.Framebuffer, error) {
	glErr()
	gltex := color.(*gpuTexture)
	fbo := &gpuFramebuffer{backend: b, width: gltex.width, height: gltex.height}
	gl.GenFramebuffers(1, &fbo.obj)
	prev := b.glstate.drawFBO
	b.glstate.bindFramebuffer(gl.FRAMEBUFFER, fbo.obj)
	defer b.glstate.bindFramebuffer(gl.FRAMEBUFFER, prev)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, gltex.obj, 0)
	if depthStencil {
		gl.GenRenderbuffers(1, &fbo.depthBuf)
		b.glstate.bindRenderbuffer(fbo.depthBuf)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH24_STENCIL8, int32(gltex.width), int32(gltex.height))
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.RENDERBUFFER, fbo.depthBuf)
		fbo.hasDepth = true
		if err := glErr(); err != nil {
			fbo.Release()
			return nil, err
		}
	}
	if st := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); st != gl.FRAMEBUFFER_COMPLETE {
		fbo.Release()
		return nil, fmt.Errorf("opengl: %w, status = 0x%x, err = %d", driver.ErrIncompleteFramebuffer, st, gl.GetError())
	}
	return fbo, nil
}

func glErr() error {
	if st := gl.GetError(); st != gl.NO_ERROR {
		return fmt.Errorf("glGetError: %#x", st)
	}
	return nil
}

func (b *Backend) Release() {
	*b = Backend{}
}

func (b *Backend) Viewport(x, y, width, height int) {
	b.glstate.setViewport(x, y, width, height)
}

func (b *Backend) ClearColor(r, g, bl, a float32) {
	b.glstate.setClearColor(r, g, bl, a)
}

func (b *Backend) Clear() {
	// Depth writes must be enabled for the depth clear to take effect.
	mask := b.glstate.depthMask
	b.glstate.setDepthMask(true)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	b.glstate.setDepthMask(mask)
}

func (b *Backend) DrawIndexed(count int) {
	gl.DrawElements(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, nil)
}

func (b *Backend) SetCullFace(enable bool) {
	b.glstate.set(gl.CULL_FACE, enable)
}

func (b *Backend) CullFace(face driver.Face) {
	switch face {
	case driver.FaceBack:
		b.glstate.setCullMode(gl.BACK)
	case driver.FaceFront:
		b.glstate.setCullMode(gl.FRONT)
	default:
		panic("unsupported cull face")
	}
}

func (b *Backend) SetDepthTest(enable bool) {
	b.glstate.set(gl.DEPTH_TEST, enable)
}

func (b *Backend) DepthMask(mask bool) {
	b.glstate.setDepthMask(mask)
}

func (b *Backend) NewProgram(vertShader, fragShader shader.Sources) (driver.Program, error) {
	p, err := createProgram(vertShader, fragShader)
	if err != nil {
		return nil, err
	}
	gpuProg := &gpuProgram{
		backend: b,
		obj:     p,
	}
	// Bind texture uniforms.
	for _, src := range []shader.Sources{vertShader, fragShader} {
		for _, tex := range src.Textures {
			if loc := gpuProg.UniformLocation(tex.Name); loc != -1 {
				gl.ProgramUniform1i(p, int32(loc), int32(tex.Binding))
			}
		}
	}
	return gpuProg, nil
}

func createProgram(vsrc, fsrc shader.Sources) (uint32, error) {
	vs, err := compileShader(vsrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vs)
	fs, err := compileShader(fsrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fs)
	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	for _, inp := range vsrc.Inputs {
		gl.BindAttribLocation(prog, uint32(inp.Location), gl.Str(inp.Name+"\x00"))
	}
	gl.LinkProgram(prog)
	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(prog, logLen, nil, &log[0])
		gl.DeleteProgram(prog)
		return 0, &driver.CompileError{Name: vsrc.Name, Stage: "link", Log: strings.TrimSpace(byteslice.GoString(log))}
	}
	return prog, nil
}

func compileShader(src shader.Sources, typ uint32, stage string) (uint32, error) {
	s := gl.CreateShader(typ)
	// GLSL150 holds the #version 410 core source as written.
	csrc, free := gl.Strs(src.GLSL150 + "\x00")
	gl.ShaderSource(s, 1, csrc, nil)
	free()
	gl.CompileShader(s)
	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(s, logLen, nil, &log[0])
		gl.DeleteShader(s)
		return 0, &driver.CompileError{Name: src.Name, Stage: stage, Log: strings.TrimSpace(byteslice.GoString(log))}
	}
	return s, nil
}

func (b *Backend) BindProgram(prog driver.Program) {
	if prog == nil {
		b.glstate.useProgram(0)
		return
	}
	b.glstate.useProgram(prog.(*gpuProgram).obj)
}

func (p *gpuProgram) UniformLocation(name string) int {
	return int(gl.GetUniformLocation(p.obj, gl.Str(name+"\x00")))
}

func (p *gpuProgram) SetMat4(loc int, m mgl32.Mat4) {
	if loc == -1 {
		return
	}
	gl.ProgramUniformMatrix4fv(p.obj, int32(loc), 1, false, &m[0])
}

func (p *gpuProgram) SetVec3(loc int, v mgl32.Vec3) {
	if loc == -1 {
		return
	}
	gl.ProgramUniform3f(p.obj, int32(loc), v[0], v[1], v[2])
}

func (p *gpuProgram) SetVec4(loc int, v mgl32.Vec4) {
	if loc == -1 {
		return
	}
	gl.ProgramUniform4f(p.obj, int32(loc), v[0], v[1], v[2], v[3])
}

func (p *gpuProgram) SetFloat(loc int, v float32) {
	if loc == -1 {
		return
	}
	gl.ProgramUniform1f(p.obj, int32(loc), v)
}

func (p *gpuProgram) SetInt(loc int, v int32) {
	if loc == -1 {
		return
	}
	gl.ProgramUniform1i(p.obj, int32(loc), v)
}

func (p *gpuProgram) Release() {
	p.backend.glstate.deleteProgram(p.obj)
	*p = gpuProgram{}
}

func (b *Backend) BindVertexArray(a driver.VertexArray) {
	if a == nil {
		b.glstate.bindVertexArray(0)
		return
	}
	b.glstate.bindVertexArray(a.(*gpuVertexArray).obj)
}

func (a *gpuVertexArray) Release() {
	a.backend.glstate.deleteVertexArray(a.obj)
	*a = gpuVertexArray{}
}

func (b *gpuBuffer) Upload(data []byte) {
	if len(data) > b.size {
		panic(fmt.Errorf("len(data) (%d) larger than %d", len(data), b.size))
	}
	b.backend.glstate.bindBuffer(gl.COPY_WRITE_BUFFER, b.obj)
	gl.BufferSubData(gl.COPY_WRITE_BUFFER, 0, len(data), ptr(data))
	b.backend.glstate.bindBuffer(gl.COPY_WRITE_BUFFER, 0)
}

func (b *gpuBuffer) Release() {
	if b.obj != 0 {
		b.backend.glstate.deleteBuffer(b.obj)
	}
	*b = gpuBuffer{}
}

func (b *Backend) BindFramebuffer(fbo driver.Framebuffer) {
	if fbo == nil {
		b.glstate.bindFramebuffer(gl.FRAMEBUFFER, 0)
		return
	}
	b.glstate.bindFramebuffer(gl.FRAMEBUFFER, fbo.(*gpuFramebuffer).obj)
}

func (b *Backend) BlitFramebuffer(dst, src driver.Framebuffer, srect, drect image.Rectangle) {
	var dstObj uint32
	if dst != nil {
		dstObj = dst.(*gpuFramebuffer).obj
	}
	prevDraw, prevRead := b.glstate.drawFBO, b.glstate.readFBO
	b.glstate.bindFramebuffer(gl.DRAW_FRAMEBUFFER, dstObj)
	b.glstate.bindFramebuffer(gl.READ_FRAMEBUFFER, src.(*gpuFramebuffer).obj)
	gl.BlitFramebuffer(
		int32(srect.Min.X), int32(srect.Min.Y), int32(srect.Max.X), int32(srect.Max.Y),
		int32(drect.Min.X), int32(drect.Min.Y), int32(drect.Max.X), int32(drect.Max.Y),
		gl.COLOR_BUFFER_BIT, gl.LINEAR)
	b.glstate.bindFramebuffer(gl.DRAW_FRAMEBUFFER, prevDraw)
	b.glstate.bindFramebuffer(gl.READ_FRAMEBUFFER, prevRead)
}

func (f *gpuFramebuffer) ReadPixels(src image.Rectangle, pixels []byte, stride int) error {
	glErr()
	b := f.backend
	prev := b.glstate.readFBO
	b.glstate.bindFramebuffer(gl.READ_FRAMEBUFFER, f.obj)
	defer b.glstate.bindFramebuffer(gl.READ_FRAMEBUFFER, prev)
	if len(pixels) < src.Dy()*stride {
		return errors.New("opengl: pixel buffer too small")
	}
	gl.PixelStorei(gl.PACK_ROW_LENGTH, int32(stride/4))
	gl.ReadPixels(int32(src.Min.X), int32(src.Min.Y), int32(src.Dx()), int32(src.Dy()), gl.RGBA, gl.UNSIGNED_BYTE, ptr(pixels))
	gl.PixelStorei(gl.PACK_ROW_LENGTH, 0)
	return glErr()
}

// Object returns the GL framebuffer name, 0 after Release.
func (f *gpuFramebuffer) Object() uint32 {
	return f.obj
}

func (f *gpuFramebuffer) Release() {
	if f.obj != 0 {
		f.backend.glstate.deleteFramebuffer(f.obj)
	}
	if f.hasDepth {
		f.backend.glstate.deleteRenderbuffer(f.depthBuf)
	}
	*f = gpuFramebuffer{}
}

func toTexFilter(f driver.TextureFilter) int32 {
	switch f {
	case driver.FilterNearest:
		return gl.NEAREST
	case driver.FilterLinear:
		return gl.LINEAR
	case driver.FilterLinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	default:
		panic("unsupported texture filter")
	}
}

func toTexWrap(w driver.TextureWrap) int32 {
	switch w {
	case driver.WrapClampToEdge:
		return gl.CLAMP_TO_EDGE
	case driver.WrapRepeat:
		return gl.REPEAT
	default:
		panic("unsupported texture wrap")
	}
}

func (b *Backend) BindTexture(unit int, t driver.Texture) {
	if t == nil {
		b.glstate.bindTexture(unit, 0)
		return
	}
	b.glstate.bindTexture(unit, t.(*gpuTexture).obj)
}

func (t *gpuTexture) Release() {
	if t.obj != 0 {
		t.backend.glstate.deleteTexture(t.obj)
	}
	*t = gpuTexture{}
}

func (t *gpuTexture) Size() image.Point {
	return image.Point{X: t.width, Y: t.height}
}

// Object returns the GL texture name, 0 after Release.
func (t *gpuTexture) Object() uint32 {
	return t.obj
}

func (t *gpuTexture) Upload(offset, size image.Point, pixels []byte, stride int) {
	if n := size.X * size.Y * 4; n > len(pixels) && stride == 0 {
		panic(fmt.Errorf("size %d larger than data %d", n, len(pixels)))
	}
	t.backend.BindTexture(0, t)
	if stride > 0 {
		gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(stride/4))
		defer gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	}
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, int32(offset.X), int32(offset.Y), int32(size.X), int32(size.Y), t.triple.format, t.triple.typ, ptr(pixels))
	if t.mipmap {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
}

func (t *gpuTimer) Begin() {
	t.ended, t.done = false, false
	gl.BeginQuery(gl.TIME_ELAPSED, t.obj)
}

func (t *gpuTimer) End() {
	gl.EndQuery(gl.TIME_ELAPSED)
	t.ended = true
}

func (t *gpuTimer) ready() bool {
	var avail uint32
	gl.GetQueryObjectuiv(t.obj, gl.QUERY_RESULT_AVAILABLE, &avail)
	return avail == gl.TRUE
}

func (t *gpuTimer) Release() {
	gl.DeleteQueries(1, &t.obj)
	*t = gpuTimer{}
}

func (t *gpuTimer) Duration() (time.Duration, bool) {
	if t.done {
		return t.result, true
	}
	if !t.ended || !t.ready() {
		return 0, false
	}
	var nanos uint64
	gl.GetQueryObjectui64v(t.obj, gl.QUERY_RESULT, &nanos)
	t.result, t.done = time.Duration(nanos), true
	return t.result, true
}

func ptr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}
