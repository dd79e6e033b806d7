// Package opengl implements gpu.Device on an OpenGL 4.3 core context.
//
// Vertex and pixel shaders are separable programs attached to one program
// pipeline; compute shaders are used directly. Render targets are attached to
// a private framebuffer when a draw or clear needs them, so a host that draws
// its own UI after Present finds the default framebuffer bound.
package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/logger"
)

// Texture unit and binding ranges per stage.
const (
	vertexTextureBase = 0
	pixelTextureBase  = 16
	maxTextureUnits   = 32
	maxImageUnits     = 8

	vertexBlockBase  = 0
	pixelBlockBase   = 12
	computeBlockBase = 24

	vertexStorageBase  = 0
	pixelStorageBase   = 2
	computeStorageBase = 4
)

// Options configures a Device.
type Options struct {
	Width  int
	Height int
	// Swap presents the default framebuffer. When nil, Present leaves the back
	// buffer offscreen for a host that draws it itself.
	Swap func()
}

// Device is the OpenGL gpu.Device. It must be used from the thread that owns the context.
type Device struct {
	log  *zap.Logger
	swap func()

	pipeline   uint32
	renderFBO  uint32
	scratchFBO uint32
	emptyVAO   uint32
	vaos       map[uint32]uint32 // vertex buffer -> VAO

	backBuffer  *Texture
	depthBuffer *Texture

	boundDepth   gpu.Texture
	boundColors  []gpu.RenderTarget
	attached     int
	targetsDirty bool
	viewport     gpu.Viewport

	depth gpu.DepthState

	vao         uint32
	indexBuffer *Buffer
	compute     *Shader
}

var _ gpu.Device = (*Device)(nil)

// New initializes OpenGL on the current context and creates the back buffer.
// Must be called after the context is made current.
func New(opts Options) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}

	d := &Device{
		log:  logger.Named("gl"),
		swap: opts.Swap,
		vaos: make(map[uint32]uint32),
	}
	d.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.GenProgramPipelines(1, &d.pipeline)
	gl.GenFramebuffers(1, &d.renderFBO)
	gl.GenFramebuffers(1, &d.scratchFBO)
	gl.GenVertexArrays(1, &d.emptyVAO)
	d.vao = d.emptyVAO

	// Left-handed scenes wind front faces clockwise.
	gl.FrontFace(gl.CW)
	gl.Enable(gl.TEXTURE_CUBE_MAP_SEAMLESS)
	d.SetRasterizerState(gpu.DefaultRasterizer)
	d.SetDepthState(gpu.DefaultDepth)
	d.SetBlendState(gpu.DefaultBlend)

	if err := d.ResizeBackBuffer(opts.Width, opts.Height); err != nil {
		return nil, err
	}
	d.SetRenderTargets(d.depthBuffer, gpu.RenderTarget{Texture: d.backBuffer})
	d.SetViewport(gpu.FullViewport(d.backBuffer, 0))

	return d, nil
}

// Close releases device-owned objects.
func (d *Device) Close() {
	d.ReleaseBackBuffer()
	for _, vao := range d.vaos {
		gl.DeleteVertexArrays(1, &vao)
	}
	d.vaos = nil
	gl.DeleteVertexArrays(1, &d.emptyVAO)
	gl.DeleteFramebuffers(1, &d.renderFBO)
	gl.DeleteFramebuffers(1, &d.scratchFBO)
	gl.DeleteProgramPipelines(1, &d.pipeline)
}

// glError drains the GL error queue and reports the first error.
func glError(op string) error {
	var first uint32
	for {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			break
		}
		if first == 0 {
			first = code
		}
	}
	if first != 0 {
		return fmt.Errorf("%s: GL error 0x%x", op, first)
	}
	return nil
}

func objectLabel(kind, id uint32, label string) {
	if label == "" {
		return
	}
	gl.ObjectLabel(kind, id, int32(len(label)), gl.Str(label+"\x00"))
}

func (d *Device) BackBuffer() gpu.Texture {
	if d.backBuffer == nil {
		return nil
	}
	return d.backBuffer
}

func (d *Device) DepthBuffer() gpu.Texture {
	if d.depthBuffer == nil {
		return nil
	}
	return d.depthBuffer
}

// ReleaseBackBuffer deletes the back buffer and depth buffer and unbinds them.
func (d *Device) ReleaseBackBuffer() {
	if d.backBuffer != nil {
		d.backBuffer.Release()
		d.backBuffer = nil
	}
	if d.depthBuffer != nil {
		d.depthBuffer.Release()
		d.depthBuffer = nil
	}
	d.SetRenderTargets(nil)
}

// ResizeBackBuffer recreates the back buffer and depth buffer at the given size.
func (d *Device) ResizeBackBuffer(width, height int) error {
	width, height = max(width, 1), max(height, 1)
	if d.backBuffer != nil {
		d.ReleaseBackBuffer()
	}

	color, err := d.createTexture(gpu.TextureDescriptor{
		Label:  "BackBuffer",
		Format: gpu.FormatRGBA8,
		Width:  width,
		Height: height,
		Usage:  gpu.UsageRenderTarget | gpu.UsageSampled,
	}, nil)
	if err != nil {
		return fmt.Errorf("creating back buffer: %w", err)
	}
	depth, err := d.createTexture(gpu.TextureDescriptor{
		Label:  "DepthBuffer",
		Format: gpu.FormatDepth24Stencil8,
		Width:  width,
		Height: height,
		Usage:  gpu.UsageDepthStencil,
	}, nil)
	if err != nil {
		color.Release()
		return fmt.Errorf("creating depth buffer: %w", err)
	}

	d.backBuffer, d.depthBuffer = color, depth
	d.log.Debug("back buffer resized", zap.Int("width", width), zap.Int("height", height))
	return nil
}

func (d *Device) SetViewport(vp gpu.Viewport) {
	d.viewport = vp
	gl.Viewport(int32(vp.X), int32(vp.Y), int32(vp.Width), int32(vp.Height))
}

func (d *Device) Viewport() gpu.Viewport {
	return d.viewport
}

func (d *Device) SetRasterizerState(s gpu.RasterizerState) {
	switch s.Cull {
	case gpu.CullNone:
		gl.Disable(gl.CULL_FACE)
	case gpu.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
}

func (d *Device) SetDepthState(s gpu.DepthState) {
	d.depth = s
	if s.Test {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(s.Write)
	switch s.Func {
	case gpu.CompareLessEqual:
		gl.DepthFunc(gl.LEQUAL)
	case gpu.CompareAlways:
		gl.DepthFunc(gl.ALWAYS)
	default:
		gl.DepthFunc(gl.LESS)
	}
}

func (d *Device) SetBlendState(s gpu.BlendState) {
	if !s.Enabled {
		gl.Disable(gl.BLEND)
		return
	}
	gl.Enable(gl.BLEND)
	gl.BlendEquation(gl.FUNC_ADD)
	gl.BlendFunc(blendFactor(s.Src), blendFactor(s.Dst))
}

func blendFactor(f gpu.BlendFactor) uint32 {
	switch f {
	case gpu.BlendOne:
		return gl.ONE
	case gpu.BlendSrcAlpha:
		return gl.SRC_ALPHA
	case gpu.BlendOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA
	default:
		return gl.ZERO
	}
}

func (d *Device) SetVertexBuffer(b gpu.Buffer, layout gpu.VertexLayout) {
	if b == nil {
		d.vao = d.emptyVAO
		return
	}
	buf := b.(*Buffer)
	if vao, ok := d.vaos[buf.id]; ok {
		d.vao = vao
		return
	}

	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.id)
	for _, a := range layout.Attributes {
		gl.EnableVertexAttribArray(uint32(a.Location))
		gl.VertexAttribPointerWithOffset(uint32(a.Location), int32(a.Components), gl.FLOAT, false, int32(layout.Stride), uintptr(a.Offset))
	}
	gl.BindVertexArray(0)

	d.vaos[buf.id] = vao
	d.vao = vao
}

func (d *Device) SetIndexBuffer(b gpu.Buffer) {
	if b == nil {
		d.indexBuffer = nil
		return
	}
	d.indexBuffer = b.(*Buffer)
}

func (d *Device) Draw(vertexCount int) {
	if vertexCount <= 0 {
		return
	}
	d.flushTargets()
	gl.BindVertexArray(d.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(vertexCount))
}

func (d *Device) DrawIndexed(indexCount int) {
	if indexCount <= 0 || d.indexBuffer == nil {
		return
	}
	d.flushTargets()
	gl.BindVertexArray(d.vao)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, d.indexBuffer.id)
	gl.DrawElements(gl.TRIANGLES, int32(indexCount), gl.UNSIGNED_INT, nil)
}

func (d *Device) Dispatch(x, y, z int) {
	if d.compute == nil {
		d.log.Warn("dispatch without a bound compute shader")
		return
	}
	gl.DispatchCompute(uint32(x), uint32(y), uint32(z))
	gl.MemoryBarrier(gl.ALL_BARRIER_BITS)
	gl.UseProgram(0)
	d.compute = nil
}

// UnbindShaderResources clears every texture, sampler and image unit.
func (d *Device) UnbindShaderResources() {
	for unit := uint32(0); unit < maxTextureUnits; unit++ {
		gl.ActiveTexture(gl.TEXTURE0 + unit)
		gl.BindTexture(gl.TEXTURE_2D, 0)
		gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
		gl.BindSampler(unit, 0)
	}
	gl.ActiveTexture(gl.TEXTURE0)
	for unit := uint32(0); unit < maxImageUnits; unit++ {
		gl.BindImageTexture(unit, 0, 0, false, 0, gl.READ_ONLY, gl.R32F)
	}
}

// Present shows the back buffer. Without a Swap function the default
// framebuffer is bound and left to the host.
func (d *Device) Present() error {
	if d.swap != nil && d.backBuffer != nil {
		w, h := int32(d.backBuffer.Width()), int32(d.backBuffer.Height())
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, d.scratchFBO)
		gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, d.backBuffer.id, 0)
		gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
		gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
		gl.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, gl.COLOR_BUFFER_BIT, gl.NEAREST)
		d.swap()
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	d.targetsDirty = true
	return glError("present")
}
