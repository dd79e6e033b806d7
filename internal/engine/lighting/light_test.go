package lighting

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

func TestGPULightLayout(t *testing.T) {
	assert.Equal(t, GPULightSize, gpu.SizeOf[GPULight]())
}

func TestPack(t *testing.T) {
	lights := []Light{
		NewDirectional(mgl32.Vec3{1, -1, 1}, mgl32.Vec3{0.8, 0.8, 0.8}, 1),
		NewPoint(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{1, 0, 0}, 7, 2),
	}

	packed := Pack(lights)
	require.Len(t, packed, 2)
	assert.Equal(t, float32(Directional), packed[0].Kind)
	assert.Equal(t, mgl32.Vec3{1, -1, 1}, packed[0].Direction)
	assert.Equal(t, float32(Point), packed[1].Kind)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, packed[1].Position)
	assert.Equal(t, float32(7), packed[1].Range)
	assert.Equal(t, float32(2), packed[1].Intensity)

	data, n := Bytes(lights)
	assert.Equal(t, 2, n)
	assert.Len(t, data, 2*GPULightSize)
}

func TestPackTruncates(t *testing.T) {
	lights := make([]Light, MaxLights+10)
	assert.Len(t, Pack(lights), MaxLights)
}

func TestRandomPointLights(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	lights := RandomPointLights(rng, 50)
	require.Len(t, lights, 50)

	for _, l := range lights {
		assert.Equal(t, Point, l.Kind)
		assert.True(t, l.Position[0] >= -10 && l.Position[0] <= 10)
		assert.True(t, l.Position[1] >= -5 && l.Position[1] <= 5)
		assert.True(t, l.Position[2] >= -10 && l.Position[2] <= 10)
		assert.True(t, l.Range >= 5 && l.Range <= 10)
		assert.True(t, l.Intensity >= 0.1 && l.Intensity <= 3)
	}

	again := RandomPointLights(rand.New(rand.NewPCG(1, 2)), 50)
	assert.Equal(t, lights, again, "same seed, same lights")
}

func TestDirectionFromAngles(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float32
		want     mgl32.Vec3
	}{
		{"overhead", 0, 90, mgl32.Vec3{0, -1, 0}},
		{"horizon north", 0, 0, mgl32.Vec3{0, 0, -1}},
		{"horizon east", 90, 0, mgl32.Vec3{-1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DirectionFromAngles(tt.lon, tt.lat)
			assert.True(t, got.ApproxEqualThreshold(tt.want, 1e-5), "got %v", got)
		})
	}
}

func TestAnglesRoundTrip(t *testing.T) {
	lon, lat := Angles(DirectionFromAngles(45, 30))
	assert.InDelta(t, 45, lon, 1e-3)
	assert.InDelta(t, 30, lat, 1e-3)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "directional", Directional.String())
	assert.Equal(t, "point", Point.String())
	assert.Equal(t, "unknown", Kind(9).String())
}
