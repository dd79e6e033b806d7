// Package assets looks up shaders, meshes, textures and samplers by name.
//
// A Manager is built once at startup and passed to every component that
// needs assets. Lookups of names that were never added return nil.
package assets

import (
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/mesh"
	"github.com/Faultbox/prism/internal/logger"
)

// Provider is the read side of the asset registry.
type Provider interface {
	VertexShader(name string) gpu.Shader
	PixelShader(name string) gpu.Shader
	ComputeShader(name string) gpu.Shader
	Mesh(name string) *mesh.Mesh
	Texture(name string) gpu.Texture
	Sampler(name string) gpu.Sampler
}

// Manager owns every loaded asset and releases them on Close.
type Manager struct {
	dev   gpu.Device
	cache *Cache
	log   *zap.Logger

	mu       sync.RWMutex
	shaders  map[gpu.Stage]map[string]gpu.Shader
	meshes   map[string]*mesh.Mesh
	textures map[string]gpu.Texture
	samplers map[string]gpu.Sampler
}

var _ Provider = (*Manager)(nil)

// NewManager creates an empty manager allocating on dev.
func NewManager(dev gpu.Device) *Manager {
	return &Manager{
		dev:   dev,
		cache: NewCache(),
		log:   logger.Named("assets"),
		shaders: map[gpu.Stage]map[string]gpu.Shader{
			gpu.StageVertex:  {},
			gpu.StagePixel:   {},
			gpu.StageCompute: {},
		},
		meshes:   map[string]*mesh.Mesh{},
		textures: map[string]gpu.Texture{},
		samplers: map[string]gpu.Sampler{},
	}
}

// Device returns the device assets are allocated on.
func (m *Manager) Device() gpu.Device { return m.dev }

// Cache returns the raw file cache.
func (m *Manager) Cache() *Cache { return m.cache }

func (m *Manager) shader(stage gpu.Stage, name string) gpu.Shader {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.shaders[stage][name]; ok {
		return s
	}
	return nil
}

func (m *Manager) VertexShader(name string) gpu.Shader  { return m.shader(gpu.StageVertex, name) }
func (m *Manager) PixelShader(name string) gpu.Shader   { return m.shader(gpu.StagePixel, name) }
func (m *Manager) ComputeShader(name string) gpu.Shader { return m.shader(gpu.StageCompute, name) }

func (m *Manager) Mesh(name string) *mesh.Mesh {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meshes[name]
}

func (m *Manager) Texture(name string) gpu.Texture {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.textures[name]; ok {
		return t
	}
	return nil
}

func (m *Manager) Sampler(name string) gpu.Sampler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.samplers[name]; ok {
		return s
	}
	return nil
}

// AddShader registers s under its name for its stage, replacing and
// releasing any shader already registered there.
func (m *Manager) AddShader(s gpu.Shader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.shaders[s.Stage()][s.Name()]; ok && old != s {
		if r, ok := old.(interface{ Release() }); ok {
			r.Release()
		}
	}
	m.shaders[s.Stage()][s.Name()] = s
}

func (m *Manager) AddMesh(name string, mm *mesh.Mesh) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.meshes[name]; ok && old != mm {
		old.Release()
	}
	m.meshes[name] = mm
}

func (m *Manager) AddTexture(name string, t gpu.Texture) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.textures[name]; ok && old != t {
		old.Release()
	}
	m.textures[name] = t
}

func (m *Manager) AddSampler(name string, s gpu.Sampler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.samplers[name]; ok && old != s {
		old.Release()
	}
	m.samplers[name] = s
}

// MeshNames returns the registered mesh names, sorted.
func (m *Manager) MeshNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.meshes))
}

// TextureNames returns the registered texture names, sorted.
func (m *Manager) TextureNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.textures))
}

// ShaderNames returns the registered shader names of one stage, sorted.
func (m *Manager) ShaderNames(stage gpu.Stage) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.shaders[stage]))
}

// Close releases every asset.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, byName := range m.shaders {
		for name, s := range byName {
			if r, ok := s.(interface{ Release() }); ok {
				r.Release()
			}
			delete(byName, name)
		}
	}
	for name, mm := range m.meshes {
		mm.Release()
		delete(m.meshes, name)
	}
	for name, t := range m.textures {
		t.Release()
		delete(m.textures, name)
	}
	for name, s := range m.samplers {
		s.Release()
		delete(m.samplers, name)
	}
	m.cache.Clear()
}
