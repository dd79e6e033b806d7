// Package material binds a shader pair with the parameters and resources of a surface.
package material

import (
	"maps"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/gpu"
)

// Transform is the part of a scene transform a material reads.
type Transform interface {
	World() mgl32.Mat4
	WorldInverseTranspose() mgl32.Mat4
}

// Material is a vertex/pixel shader pair with a tint, uv scale, optional
// refraction and named textures and samplers.
type Material struct {
	name string
	vs   gpu.Shader
	ps   gpu.Shader

	tint    mgl32.Vec4
	uvScale mgl32.Vec2

	refractive      bool
	refractionIndex float32

	textures map[string]gpu.Texture
	samplers map[string]gpu.Sampler
}

// New creates an opaque material with a white tint and unit uv scale.
func New(name string, vs, ps gpu.Shader) *Material {
	return &Material{
		name:     name,
		vs:       vs,
		ps:       ps,
		tint:     mgl32.Vec4{1, 1, 1, 1},
		uvScale:  mgl32.Vec2{1, 1},
		textures: map[string]gpu.Texture{},
		samplers: map[string]gpu.Sampler{},
	}
}

func (m *Material) Name() string                 { return m.name }
func (m *Material) VertexShader() gpu.Shader     { return m.vs }
func (m *Material) PixelShader() gpu.Shader      { return m.ps }
func (m *Material) Tint() mgl32.Vec4             { return m.tint }
func (m *Material) UVScale() mgl32.Vec2          { return m.uvScale }
func (m *Material) Refractive() bool             { return m.refractive }
func (m *Material) RefractionIndex() float32     { return m.refractionIndex }
func (m *Material) SetVertexShader(s gpu.Shader) { m.vs = s }
func (m *Material) SetPixelShader(s gpu.Shader)  { m.ps = s }
func (m *Material) SetTint(c mgl32.Vec4)         { m.tint = c }
func (m *Material) SetUVScale(s mgl32.Vec2)      { m.uvScale = s }

// SetRefraction marks the material as refractive with the given index of refraction.
// Refractive materials are drawn after motion blur.
func (m *Material) SetRefraction(refractive bool, index float32) {
	m.refractive = refractive
	m.refractionIndex = index
}

// AddTexture binds t to the pixel shader parameter name on every Prepare.
func (m *Material) AddTexture(name string, t gpu.Texture) {
	m.textures[name] = t
}

// AddSampler binds s to the pixel shader sampler name on every Prepare.
func (m *Material) AddSampler(name string, s gpu.Sampler) {
	m.samplers[name] = s
}

func (m *Material) Texture(name string) gpu.Texture { return m.textures[name] }

// TextureNames returns the bound texture names in sorted order.
func (m *Material) TextureNames() []string {
	return slices.Sorted(maps.Keys(m.textures))
}

// Prepare binds both shaders and uploads the per-object parameters.
func (m *Material) Prepare(t Transform, cam *camera.Camera) {
	m.vs.Bind()
	m.ps.Bind()

	m.vs.SetMatrix4x4("world", t.World())
	m.vs.SetMatrix4x4("worldInverseTranspose", t.WorldInverseTranspose())
	m.vs.SetMatrix4x4("view", cam.View())
	m.vs.SetMatrix4x4("projection", cam.Projection())
	m.vs.CopyAllBufferData()

	m.ps.SetFloat4("colorTint", m.tint)
	m.ps.SetFloat2("uvScale", m.uvScale)
	if m.refractive {
		m.ps.SetFloat("refractionIndex", m.refractionIndex)
	}
	for _, name := range slices.Sorted(maps.Keys(m.samplers)) {
		m.ps.SetSampler(name, m.samplers[name])
	}
	for _, name := range slices.Sorted(maps.Keys(m.textures)) {
		m.ps.SetTexture(name, m.textures[name])
	}
	m.ps.CopyAllBufferData()
}
