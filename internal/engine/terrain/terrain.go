// Package terrain renders a grid displaced by a heightmap generated on the GPU.
package terrain

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/mesh"
	"github.com/Faultbox/prism/internal/engine/scene"
	"github.com/Faultbox/prism/internal/logger"
)

// Heightmap sizes the terrain can be generated at.
var Dimensions = []int{64, 128, 256, 512, 1024}

// Noise frequencies offered for generation.
var Frequencies = []float32{1, 3, 7}

const (
	DefaultDimension = 256
	DefaultFrequency = 3

	// GenerationShader is the compute shader that writes the heightmap.
	GenerationShader = "TerrainGeneration"
)

// ErrNoGenerator is returned when the generation compute shader is missing or invalid.
var ErrNoGenerator = errors.New("terrain generation shader unavailable")

// ShaderSource provides the generation compute shader.
type ShaderSource interface {
	ComputeShader(name string) gpu.Shader
}

// Terrain is an entity whose vertex shader samples a GPU generated heightmap.
type Terrain struct {
	*scene.Entity

	shaders   ShaderSource
	height    gpu.Texture
	dimension int
	frequency float32
	log       *zap.Logger
}

var _ scene.Renderable = (*Terrain)(nil)

// New generates the heightmap and places the terrain below the origin.
func New(dev gpu.Device, shaders ShaderSource, m *mesh.Mesh, mat *material.Material, dimension int, frequency float32) (*Terrain, error) {
	t := &Terrain{
		Entity:    scene.NewEntity("Terrain", m, mat),
		shaders:   shaders,
		frequency: frequency,
		log:       logger.Named("terrain"),
	}
	if err := t.CreateTerrain(dimension, dev); err != nil {
		return nil, err
	}

	t.Transform().MoveAbsolute(mgl32.Vec3{0, -5, 0})
	t.Transform().SetScale(mgl32.Vec3{10, 1, 10})
	return t, nil
}

// ValidDimension reports whether d is one of Dimensions.
func ValidDimension(d int) bool {
	return slices.Contains(Dimensions, d)
}

// CreateTerrain generates a new heightmap of dimension x dimension texels and
// then releases the current one. On failure the current heightmap is kept.
func (t *Terrain) CreateTerrain(dimension int, dev gpu.Device) error {
	if !ValidDimension(dimension) {
		return fmt.Errorf("terrain dimension %d not in %v", dimension, Dimensions)
	}
	cs := t.shaders.ComputeShader(GenerationShader)
	if cs == nil || !cs.IsValid() {
		return ErrNoGenerator
	}

	height, err := dev.CreateTexture(gpu.TextureDescriptor{
		Label:  "Terrain height",
		Format: gpu.FormatR32F,
		Width:  dimension,
		Height: dimension,
		Usage:  gpu.UsageStorage | gpu.UsageSampled,
	})
	if err != nil {
		return fmt.Errorf("terrain height map: %w", err)
	}
	if t.height != nil {
		t.height.Release()
	}
	t.height = height
	t.dimension = dimension

	t.generate(dev, cs)
	t.log.Debug("terrain generated", zap.Int("dimension", dimension), zap.Float32("frequency", t.frequency))
	return nil
}

func (t *Terrain) generate(dev gpu.Device, cs gpu.Shader) {
	cs.Bind()
	cs.SetStorageTexture("heightMap", t.height)
	cs.SetFloat("frequency", t.frequency)
	cs.CopyAllBufferData()
	gpu.DispatchByThreads(dev, cs, t.dimension, t.dimension, 1)
	cs.SetStorageTexture("heightMap", nil)
}

// HeightView returns the heightmap for previews.
func (t *Terrain) HeightView() gpu.Texture { return t.height }
func (t *Terrain) Dimension() int          { return t.dimension }
func (t *Terrain) Frequency() float32      { return t.frequency }

// SetFrequency takes effect on the next CreateTerrain.
func (t *Terrain) SetFrequency(f float32) { t.frequency = f }

// Draw binds the heightmap to the material's vertex shader and draws the grid.
func (t *Terrain) Draw(dev gpu.Device, cam *camera.Camera) {
	vs := t.Material().VertexShader()
	vs.Bind()
	vs.SetTexture("HeightMap", t.height)
	t.Entity.Draw(dev, cam)
}

func (t *Terrain) Release() {
	if t.height != nil {
		t.height.Release()
		t.height = nil
	}
}
