// Package gpu defines the device and shader abstractions the engine renders through.
//
// The engine never talks to a graphics API directly. Components receive a
// Device and look up Shaders by name, so the same frame code runs against the
// OpenGL backend and against the recording fake in gputest.
package gpu

// Format is a texel format.
type Format int

const (
	FormatRGBA8 Format = iota
	FormatRG16F
	FormatRG16 // unsigned normalized
	FormatR32F
	FormatDepth24Stencil8
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatRG16F:
		return "RG16F"
	case FormatRG16:
		return "RG16"
	case FormatR32F:
		return "R32F"
	case FormatDepth24Stencil8:
		return "D24S8"
	default:
		return "unknown"
	}
}

// BytesPerTexel returns the size of one texel in client memory.
func (f Format) BytesPerTexel() int {
	switch f {
	case FormatRGBA8, FormatRG16F, FormatRG16, FormatR32F, FormatDepth24Stencil8:
		return 4
	default:
		return 0
	}
}

// TextureKind selects between plain 2D textures and cubemaps.
type TextureKind int

const (
	Texture2D TextureKind = iota
	TextureCube
)

// TextureUsage is a bit set of the ways a texture is bound.
type TextureUsage uint32

const (
	UsageSampled TextureUsage = 1 << iota
	UsageRenderTarget
	UsageStorage
	UsageDepthStencil
)

// TextureDescriptor describes a texture to create.
type TextureDescriptor struct {
	Label     string
	Kind      TextureKind
	Format    Format
	Width     int
	Height    int
	MipLevels int // 0 means 1
	Usage     TextureUsage
}

// Faces returns the number of array slices the texture has.
func (d TextureDescriptor) Faces() int {
	if d.Kind == TextureCube {
		return 6
	}
	return 1
}

// Mips returns the mip level count, treating 0 as 1.
func (d TextureDescriptor) Mips() int {
	return max(d.MipLevels, 1)
}

// Texture is a device texture. Every shader-visible view of it is implied by its usage.
type Texture interface {
	Label() string
	Descriptor() TextureDescriptor
	Width() int
	Height() int
	Release()
}

// BufferKind is how a buffer is bound.
type BufferKind int

const (
	VertexBuffer BufferKind = iota
	IndexBuffer
	StructuredBuffer // read-only from shaders
	StorageBuffer    // read-write from compute
)

func (k BufferKind) String() string {
	switch k {
	case VertexBuffer:
		return "vertex"
	case IndexBuffer:
		return "index"
	case StructuredBuffer:
		return "structured"
	case StorageBuffer:
		return "storage"
	default:
		return "unknown"
	}
}

// BufferUsage hints how often the CPU writes a buffer.
type BufferUsage int

const (
	UsageImmutable BufferUsage = iota
	UsageDefault
	UsageDynamic
)

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	Label  string
	Kind   BufferKind
	Usage  BufferUsage
	Size   int // bytes
	Stride int // element size for structured and storage buffers
}

// Buffer is a device buffer.
type Buffer interface {
	Label() string
	Descriptor() BufferDescriptor
	Size() int
	Release()
}

// Filter is a texture filtering mode.
type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
	FilterAnisotropic
)

// AddressMode is a texture coordinate wrapping mode.
type AddressMode int

const (
	AddressWrap AddressMode = iota
	AddressClamp
)

// SamplerDescriptor describes a sampler to create.
type SamplerDescriptor struct {
	Label         string
	Filter        Filter
	Address       AddressMode
	MaxAnisotropy float32
}

// Sampler is a device sampler.
type Sampler interface {
	Label() string
	Descriptor() SamplerDescriptor
	Release()
}

// VertexAttribute is one float attribute inside an interleaved vertex.
type VertexAttribute struct {
	Location   int
	Components int
	Offset     int
}

// VertexLayout describes an interleaved float vertex buffer.
type VertexLayout struct {
	Stride     int
	Attributes []VertexAttribute
}

// RenderTarget is one color attachment: a texture, and for cubemaps a face, at a mip.
type RenderTarget struct {
	Texture Texture
	Face    int
	Mip     int
}

// Viewport is a pixel rectangle.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullBack CullMode = iota
	CullFront
	CullNone
)

// RasterizerState is the fixed-function rasterizer configuration.
type RasterizerState struct {
	Cull CullMode
}

// CompareFunc is a depth comparison.
type CompareFunc int

const (
	CompareLess CompareFunc = iota
	CompareLessEqual
	CompareAlways
)

// DepthState is the depth test configuration.
type DepthState struct {
	Test  bool
	Write bool
	Func  CompareFunc
}

// BlendFactor is a blend equation factor.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
)

// BlendState is the color blend configuration. The equation is always add.
type BlendState struct {
	Enabled bool
	Src     BlendFactor
	Dst     BlendFactor
}

// Default pipeline states. Passes that change state restore these.
var (
	DefaultRasterizer = RasterizerState{Cull: CullBack}
	DefaultDepth      = DepthState{Test: true, Write: true, Func: CompareLess}
	DefaultBlend      = BlendState{}
)

// AdditiveBlend adds source color weighted by source alpha.
var AdditiveBlend = BlendState{Enabled: true, Src: BlendSrcAlpha, Dst: BlendOne}
