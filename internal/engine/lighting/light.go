// Package lighting holds the scene lights and their GPU layout.
package lighting

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// MaxLights is the size of the light array in the shaders.
const MaxLights = 64

// Kind tags a Light.
type Kind int32

const (
	Directional Kind = iota
	Point
)

func (k Kind) String() string {
	switch k {
	case Directional:
		return "directional"
	case Point:
		return "point"
	default:
		return "unknown"
	}
}

// Light is a directional or point light. Directional lights use Direction;
// point lights use Position and Range.
type Light struct {
	Kind      Kind
	Direction mgl32.Vec3
	Position  mgl32.Vec3
	Range     float32
	Color     mgl32.Vec3
	Intensity float32
}

// NewDirectional returns a directional light shining along direction.
func NewDirectional(direction, color mgl32.Vec3, intensity float32) Light {
	return Light{Kind: Directional, Direction: direction, Color: color, Intensity: intensity}
}

// NewPoint returns a point light.
func NewPoint(position, color mgl32.Vec3, rng, intensity float32) Light {
	return Light{Kind: Point, Position: position, Range: rng, Color: color, Intensity: intensity}
}

// GPULight is the std140 layout of one light: three vec4s.
type GPULight struct {
	Direction mgl32.Vec3
	Kind      float32
	Position  mgl32.Vec3
	Range     float32
	Color     mgl32.Vec3
	Intensity float32
}

// GPULightSize is the byte size of GPULight.
const GPULightSize = 48

// Pack converts lights to their GPU layout, keeping at most MaxLights.
func Pack(lights []Light) []GPULight {
	n := min(len(lights), MaxLights)
	out := make([]GPULight, n)
	for i, l := range lights[:n] {
		out[i] = GPULight{
			Direction: l.Direction,
			Kind:      float32(l.Kind),
			Position:  l.Position,
			Range:     l.Range,
			Color:     l.Color,
			Intensity: l.Intensity,
		}
	}
	return out
}

// Bytes packs lights and returns them as upload bytes with the packed count.
func Bytes(lights []Light) ([]byte, int) {
	packed := Pack(lights)
	return gpu.Bytes(packed), len(packed)
}

// RandomPointLights scatters n point lights through the box
// [-10,10] x [-5,5] x [-10,10] with random color, range in [5,10] and
// intensity in [0.1,3].
func RandomPointLights(rng *rand.Rand, n int) []Light {
	lights := make([]Light, 0, n)
	for i := 0; i < n; i++ {
		lights = append(lights, NewPoint(
			mgl32.Vec3{randRange(rng, -10, 10), randRange(rng, -5, 5), randRange(rng, -10, 10)},
			mgl32.Vec3{rng.Float32(), rng.Float32(), rng.Float32()},
			randRange(rng, 5, 10),
			randRange(rng, 0.1, 3),
		))
	}
	return lights
}

func randRange(rng *rand.Rand, lo, hi float32) float32 {
	return lo + rng.Float32()*(hi-lo)
}
