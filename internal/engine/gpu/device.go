package gpu

import "github.com/go-gl/mathgl/mgl32"

// Stage is a programmable pipeline stage.
type Stage int

const (
	StageVertex Stage = iota
	StagePixel
	StageCompute
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// Shader is a compiled program for one stage with name-addressed parameters.
//
// Scalar and matrix setters take effect immediately. Resource setters bind
// immediately as well, so a resource set on a shader stays bound until
// another shader of the same stage binds over its slot or
// Device.UnbindShaderResources is called. Setting a name the program does
// not declare is a no-op.
type Shader interface {
	Stage() Stage
	Name() string
	IsValid() bool

	// Bind makes the shader current for its stage.
	Bind()

	SetInt(name string, v int32)
	SetFloat(name string, v float32)
	SetFloat2(name string, v mgl32.Vec2)
	SetFloat3(name string, v mgl32.Vec3)
	SetFloat4(name string, v mgl32.Vec4)
	SetMatrix4x4(name string, m mgl32.Mat4)

	// SetData stages raw bytes for a named uniform block.
	SetData(name string, data []byte)

	SetTexture(name string, t Texture)
	SetStorageTexture(name string, t Texture)
	SetSampler(name string, s Sampler)
	SetBuffer(name string, b Buffer)
	SetStorageBuffer(name string, b Buffer)

	// CopyAllBufferData uploads staged uniform block data.
	CopyAllBufferData()

	// ThreadGroupSize is the local work group size of a compute shader.
	ThreadGroupSize() [3]int
}

// Device allocates GPU resources and records commands on a single thread.
type Device interface {
	CreateBuffer(desc BufferDescriptor, data []byte) (Buffer, error)
	// CreateTexture allocates a texture. Optional slices fill mip 0 of each face.
	CreateTexture(desc TextureDescriptor, slices ...[]byte) (Texture, error)
	CreateSampler(desc SamplerDescriptor) (Sampler, error)
	CreateShader(stage Stage, name, source string) (Shader, error)

	// WriteBuffer replaces the buffer contents, discarding what the GPU held.
	WriteBuffer(b Buffer, data []byte)
	CopyBuffer(dst, src Buffer)
	// CopyTextureSlice copies mip 0 of a 2D texture into one face of a cubemap.
	CopyTextureSlice(dst Texture, face int, src Texture)
	// ReadPixels reads mip 0 of a color texture as tightly packed RGBA8, bottom row first.
	ReadPixels(t Texture) ([]byte, error)

	BackBuffer() Texture
	DepthBuffer() Texture
	ReleaseBackBuffer()
	ResizeBackBuffer(width, height int) error

	SetRenderTargets(depth Texture, colors ...RenderTarget)
	RenderTargets() (depth Texture, colors []RenderTarget)
	SetViewport(vp Viewport)
	Viewport() Viewport
	// ClearRenderTarget clears one face and mip of a color texture.
	ClearRenderTarget(rt RenderTarget, color [4]float32)
	ClearDepth(t Texture, depth float32)

	SetRasterizerState(s RasterizerState)
	SetDepthState(s DepthState)
	SetBlendState(s BlendState)

	// SetVertexBuffer binds a vertex buffer. A nil buffer means vertices are pulled in the shader.
	SetVertexBuffer(b Buffer, layout VertexLayout)
	SetIndexBuffer(b Buffer)
	Draw(vertexCount int)
	DrawIndexed(indexCount int)
	// Dispatch runs the bound compute shader and makes its writes visible to later commands.
	Dispatch(x, y, z int)

	UnbindShaderResources()
	Present() error
}
