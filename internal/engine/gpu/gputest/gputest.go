// Package gputest provides a recording gpu.Device for tests.
//
// Every command and every shader parameter change is appended to Device.Calls
// in submission order, so tests can assert on pass ordering, bound targets,
// viewports and uploaded bytes without a graphics context.
package gputest

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// ErrInjected is returned by creation calls after FailCreate is set.
var ErrInjected = errors.New("gputest: injected failure")

// Call is one recorded command.
type Call struct {
	Op       string
	Shader   string // shader name for shader parameter ops
	Name     string // parameter or resource label
	Value    any
	Depth    string
	Colors   []string
	Viewport gpu.Viewport
	Count    int
	Groups   [3]int
}

func (c Call) String() string {
	switch {
	case c.Shader != "" && c.Name != "":
		return fmt.Sprintf("%s %s.%s=%v", c.Op, c.Shader, c.Name, c.Value)
	case c.Shader != "":
		return fmt.Sprintf("%s %s", c.Op, c.Shader)
	case c.Op == "SetRenderTargets":
		return fmt.Sprintf("%s depth=%s colors=%v", c.Op, c.Depth, c.Colors)
	case c.Op == "SetViewport":
		return fmt.Sprintf("%s %dx%d", c.Op, c.Viewport.Width, c.Viewport.Height)
	default:
		return c.Op
	}
}

// Device is a recording gpu.Device.
type Device struct {
	Calls []Call

	// FailCreate makes every Create* call return ErrInjected.
	FailCreate bool
	// FailTexture makes CreateTexture return ErrInjected for this label.
	FailTexture string
	// InvalidShaders lists shader names that compile as invalid.
	InvalidShaders map[string]bool

	Rasterizer gpu.RasterizerState
	Depth      gpu.DepthState
	Blend      gpu.BlendState

	backBuffer  *Texture
	depthBuffer *Texture

	boundDepth  gpu.Texture
	boundColors []gpu.RenderTarget
	viewport    gpu.Viewport

	vertexBuffer gpu.Buffer
	indexBuffer  gpu.Buffer

	presents int
}

var _ gpu.Device = (*Device)(nil)

// NewDevice returns a device with a width x height back buffer bound as the render target.
func NewDevice(width, height int) *Device {
	d := &Device{
		Rasterizer: gpu.DefaultRasterizer,
		Depth:      gpu.DefaultDepth,
		Blend:      gpu.DefaultBlend,
	}
	d.createBackBuffer(width, height)
	d.boundDepth = d.depthBuffer
	d.boundColors = []gpu.RenderTarget{{Texture: d.backBuffer}}
	d.viewport = gpu.Viewport{Width: width, Height: height}
	return d
}

func (d *Device) createBackBuffer(width, height int) {
	d.backBuffer = &Texture{desc: gpu.TextureDescriptor{
		Label: "BackBuffer", Format: gpu.FormatRGBA8, Width: width, Height: height,
		Usage: gpu.UsageRenderTarget | gpu.UsageSampled,
	}}
	d.depthBuffer = &Texture{desc: gpu.TextureDescriptor{
		Label: "DepthBuffer", Format: gpu.FormatDepth24Stencil8, Width: width, Height: height,
		Usage: gpu.UsageDepthStencil,
	}}
}

func (d *Device) record(c Call) {
	d.Calls = append(d.Calls, c)
}

// Reset forgets all recorded calls.
func (d *Device) Reset() {
	d.Calls = nil
}

// Ops returns the recorded op names in order.
func (d *Device) Ops() []string {
	ops := make([]string, len(d.Calls))
	for i, c := range d.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Filter returns the recorded calls with the given op.
func (d *Device) Filter(op string) []Call {
	var out []Call
	for _, c := range d.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Index returns the position of the first call matching fn at or after from, or -1.
func (d *Device) Index(from int, fn func(Call) bool) int {
	for i := from; i < len(d.Calls); i++ {
		if fn(d.Calls[i]) {
			return i
		}
	}
	return -1
}

// Presents returns how many times Present was called.
func (d *Device) Presents() int {
	return d.presents
}

func (d *Device) CreateBuffer(desc gpu.BufferDescriptor, data []byte) (gpu.Buffer, error) {
	if d.FailCreate {
		return nil, ErrInjected
	}
	if desc.Size <= 0 {
		desc.Size = len(data)
	}
	b := &Buffer{desc: desc, Data: make([]byte, desc.Size)}
	copy(b.Data, data)
	d.record(Call{Op: "CreateBuffer", Name: desc.Label, Count: desc.Size})
	return b, nil
}

func (d *Device) CreateTexture(desc gpu.TextureDescriptor, slices ...[]byte) (gpu.Texture, error) {
	if d.FailCreate || (d.FailTexture != "" && d.FailTexture == desc.Label) {
		return nil, ErrInjected
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("gputest: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	t := &Texture{desc: desc, Slices: make([][]byte, desc.Faces())}
	for i := 0; i < len(slices) && i < len(t.Slices); i++ {
		t.Slices[i] = append([]byte(nil), slices[i]...)
	}
	d.record(Call{Op: "CreateTexture", Name: desc.Label, Value: desc})
	return t, nil
}

func (d *Device) CreateSampler(desc gpu.SamplerDescriptor) (gpu.Sampler, error) {
	if d.FailCreate {
		return nil, ErrInjected
	}
	d.record(Call{Op: "CreateSampler", Name: desc.Label})
	return &Sampler{desc: desc}, nil
}

func (d *Device) CreateShader(stage gpu.Stage, name, source string) (gpu.Shader, error) {
	if d.FailCreate {
		return nil, ErrInjected
	}
	s := NewShader(d, stage, name)
	if d.InvalidShaders[name] {
		s.Invalid = true
	}
	return s, nil
}

func (d *Device) WriteBuffer(b gpu.Buffer, data []byte) {
	fb := b.(*Buffer)
	fb.Data = append(fb.Data[:0], data...)
	fb.Writes++
	d.record(Call{Op: "WriteBuffer", Name: b.Label(), Count: len(data)})
}

func (d *Device) CopyBuffer(dst, src gpu.Buffer) {
	fd, fs := dst.(*Buffer), src.(*Buffer)
	fd.Data = append(fd.Data[:0], fs.Data...)
	d.record(Call{Op: "CopyBuffer", Name: dst.Label(), Value: src.Label()})
}

func (d *Device) CopyTextureSlice(dst gpu.Texture, face int, src gpu.Texture) {
	d.record(Call{Op: "CopyTextureSlice", Name: dst.Label(), Value: src.Label(), Count: face})
}

func (d *Device) ReadPixels(t gpu.Texture) ([]byte, error) {
	d.record(Call{Op: "ReadPixels", Name: t.Label()})
	return make([]byte, t.Width()*t.Height()*4), nil
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

func (d *Device) ReleaseBackBuffer() {
	if d.backBuffer != nil {
		d.backBuffer.Release()
		d.depthBuffer.Release()
	}
	d.backBuffer, d.depthBuffer = nil, nil
	d.boundDepth, d.boundColors = nil, nil
	d.record(Call{Op: "ReleaseBackBuffer"})
}

func (d *Device) ResizeBackBuffer(width, height int) error {
	if d.FailCreate {
		return ErrInjected
	}
	d.createBackBuffer(width, height)
	d.record(Call{Op: "ResizeBackBuffer", Viewport: gpu.Viewport{Width: width, Height: height}})
	return nil
}

func (d *Device) SetRenderTargets(depth gpu.Texture, colors ...gpu.RenderTarget) {
	d.boundDepth = depth
	d.boundColors = append([]gpu.RenderTarget(nil), colors...)
	c := Call{Op: "SetRenderTargets", Depth: label(depth)}
	for _, rt := range colors {
		c.Colors = append(c.Colors, TargetName(rt))
	}
	d.record(c)
}

func (d *Device) RenderTargets() (gpu.Texture, []gpu.RenderTarget) {
	return d.boundDepth, slices.Clone(d.boundColors)
}

func (d *Device) SetViewport(vp gpu.Viewport) {
	d.viewport = vp
	d.record(Call{Op: "SetViewport", Viewport: vp})
}

func (d *Device) Viewport() gpu.Viewport {
	return d.viewport
}

func (d *Device) ClearRenderTarget(rt gpu.RenderTarget, color [4]float32) {
	d.record(Call{Op: "ClearRenderTarget", Name: TargetName(rt), Value: color})
}

func (d *Device) ClearDepth(t gpu.Texture, depth float32) {
	d.record(Call{Op: "ClearDepth", Name: label(t), Value: depth})
}

func (d *Device) SetRasterizerState(s gpu.RasterizerState) {
	d.Rasterizer = s
	d.record(Call{Op: "SetRasterizerState", Value: s})
}

func (d *Device) SetDepthState(s gpu.DepthState) {
	d.Depth = s
	d.record(Call{Op: "SetDepthState", Value: s})
}

func (d *Device) SetBlendState(s gpu.BlendState) {
	d.Blend = s
	d.record(Call{Op: "SetBlendState", Value: s})
}

func (d *Device) SetVertexBuffer(b gpu.Buffer, layout gpu.VertexLayout) {
	d.vertexBuffer = b
	d.record(Call{Op: "SetVertexBuffer", Name: label(b), Count: layout.Stride})
}

func (d *Device) SetIndexBuffer(b gpu.Buffer) {
	d.indexBuffer = b
	d.record(Call{Op: "SetIndexBuffer", Name: label(b)})
}

func (d *Device) Draw(vertexCount int) {
	d.record(Call{Op: "Draw", Count: vertexCount})
}

func (d *Device) DrawIndexed(indexCount int) {
	d.record(Call{Op: "DrawIndexed", Name: label(d.indexBuffer), Count: indexCount})
}

func (d *Device) Dispatch(x, y, z int) {
	d.record(Call{Op: "Dispatch", Groups: [3]int{x, y, z}})
}

func (d *Device) UnbindShaderResources() {
	d.record(Call{Op: "UnbindShaderResources"})
}

func (d *Device) Present() error {
	d.presents++
	d.record(Call{Op: "Present"})
	return nil
}

// TargetName formats a render target the way SetRenderTargets records it.
func TargetName(rt gpu.RenderTarget) string {
	name := label(rt.Texture)
	if rt.Texture != nil && rt.Texture.Descriptor().Kind == gpu.TextureCube {
		return fmt.Sprintf("%s[%d]@%d", name, rt.Face, rt.Mip)
	}
	if rt.Mip != 0 {
		return fmt.Sprintf("%s@%d", name, rt.Mip)
	}
	return name
}

func label(r interface{ Label() string }) string {
	switch v := r.(type) {
	case nil:
		return ""
	case *Texture:
		if v == nil {
			return ""
		}
	case *Buffer:
		if v == nil {
			return ""
		}
	case *Sampler:
		if v == nil {
			return ""
		}
	}
	return r.Label()
}

// Texture is a fake texture that keeps its initial data.
type Texture struct {
	desc     gpu.TextureDescriptor
	Slices   [][]byte
	Released bool
}

func (t *Texture) Label() string                     { return t.desc.Label }
func (t *Texture) Descriptor() gpu.TextureDescriptor { return t.desc }
func (t *Texture) Width() int                        { return t.desc.Width }
func (t *Texture) Height() int                       { return t.desc.Height }
func (t *Texture) Release()                          { t.Released = true }

// Buffer is a fake buffer that keeps its contents.
type Buffer struct {
	desc     gpu.BufferDescriptor
	Data     []byte
	Writes   int
	Released bool
}

func (b *Buffer) Label() string                    { return b.desc.Label }
func (b *Buffer) Descriptor() gpu.BufferDescriptor { return b.desc }
func (b *Buffer) Size() int                        { return b.desc.Size }
func (b *Buffer) Release()                         { b.Released = true }

// Sampler is a fake sampler.
type Sampler struct {
	desc     gpu.SamplerDescriptor
	Released bool
}

func (s *Sampler) Label() string                     { return s.desc.Label }
func (s *Sampler) Descriptor() gpu.SamplerDescriptor { return s.desc }
func (s *Sampler) Release()                          { s.Released = true }

// Shader is a fake shader that records parameter changes on its device.
type Shader struct {
	dev     *Device
	stage   gpu.Stage
	name    string
	Invalid bool
	Groups  [3]int
	// Values holds the latest value set for each parameter name.
	Values map[string]any
}

var _ gpu.Shader = (*Shader)(nil)

// NewShader returns a valid fake shader recording on dev. Compute shaders
// default to 8x8x1 thread groups.
func NewShader(dev *Device, stage gpu.Stage, name string) *Shader {
	s := &Shader{dev: dev, stage: stage, name: name, Values: map[string]any{}}
	if stage == gpu.StageCompute {
		s.Groups = [3]int{8, 8, 1}
	}
	return s
}

func (s *Shader) set(op, name string, v any) {
	s.Values[name] = v
	s.dev.record(Call{Op: op, Shader: s.name, Name: name, Value: v})
}

func (s *Shader) Stage() gpu.Stage { return s.stage }
func (s *Shader) Name() string     { return s.name }
func (s *Shader) IsValid() bool    { return !s.Invalid }

func (s *Shader) Bind() {
	s.dev.record(Call{Op: "Bind", Shader: s.name, Value: s.stage})
}

func (s *Shader) SetInt(name string, v int32)            { s.set("SetInt", name, v) }
func (s *Shader) SetFloat(name string, v float32)        { s.set("SetFloat", name, v) }
func (s *Shader) SetFloat2(name string, v mgl32.Vec2)    { s.set("SetFloat2", name, v) }
func (s *Shader) SetFloat3(name string, v mgl32.Vec3)    { s.set("SetFloat3", name, v) }
func (s *Shader) SetFloat4(name string, v mgl32.Vec4)    { s.set("SetFloat4", name, v) }
func (s *Shader) SetMatrix4x4(name string, m mgl32.Mat4) { s.set("SetMatrix4x4", name, m) }

func (s *Shader) SetData(name string, data []byte) {
	s.set("SetData", name, append([]byte(nil), data...))
}

func (s *Shader) SetTexture(name string, t gpu.Texture)        { s.set("SetTexture", name, label(t)) }
func (s *Shader) SetStorageTexture(name string, t gpu.Texture) { s.set("SetStorageTexture", name, label(t)) }
func (s *Shader) SetSampler(name string, smp gpu.Sampler)      { s.set("SetSampler", name, label(smp)) }
func (s *Shader) SetBuffer(name string, b gpu.Buffer)          { s.set("SetBuffer", name, label(b)) }
func (s *Shader) SetStorageBuffer(name string, b gpu.Buffer)   { s.set("SetStorageBuffer", name, label(b)) }

func (s *Shader) CopyAllBufferData() {
	s.dev.record(Call{Op: "CopyAllBufferData", Shader: s.name})
}

func (s *Shader) ThreadGroupSize() [3]int { return s.Groups }
