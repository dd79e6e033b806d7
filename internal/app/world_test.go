package app

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/assets"
	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
	"github.com/Faultbox/prism/internal/engine/lighting"
	"github.com/Faultbox/prism/internal/engine/scene"
)

func newAssets(t *testing.T) (*gputest.Device, *assets.Manager) {
	t.Helper()
	dev := gputest.NewDevice(64, 48)
	m := assets.NewManager(dev)
	require.NoError(t, m.LoadBuiltins())
	t.Cleanup(m.Close)
	return dev, m
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestAnimationSweepTurnsAround(t *testing.T) {
	tr := scene.NewTransform()
	tr.SetPosition(mgl32.Vec3{4.5, 0, 0})
	a := &Animation{Transform: tr, Sweep: 10, Limit: 5}

	a.Step(0.1)
	assert.InDelta(t, 5.5, tr.Position().X(), 1e-5)
	a.Step(0.1)
	assert.InDelta(t, 4.5, tr.Position().X(), 1e-5)

	tr.SetPosition(mgl32.Vec3{-4.5, 0, 0})
	a.Step(0.1)
	assert.InDelta(t, -5.5, tr.Position().X(), 1e-5)
	a.Step(0.1)
	assert.InDelta(t, -4.5, tr.Position().X(), 1e-5)
}

func TestAnimationSpin(t *testing.T) {
	tr := scene.NewTransform()
	a := &Animation{Transform: tr, Spin: 2}
	a.Step(0.25)
	assert.InDelta(t, 0.5, tr.Rotation().Y(), 1e-6)
	assert.Equal(t, mgl32.Vec3{}, tr.Position())
}

func TestBuildDefaultScene(t *testing.T) {
	dev, m := newAssets(t)
	sc, err := DefaultScene()
	require.NoError(t, err)

	w, err := Build(dev, m, sc, seeded(1))
	require.NoError(t, err)
	defer w.Release()

	assert.Len(t, w.Materials, 15)
	assert.Len(t, w.Entities, 14)
	assert.Len(t, w.Emitters, 3)
	assert.Len(t, w.Lights, 3+16)
	assert.Len(t, w.Animations, 5)

	floor := w.Material("Floor")
	require.NotNil(t, floor)
	assert.Same(t, m.Texture("White"), floor.Texture("Albedo"))
	assert.Same(t, m.Texture("FlatNormal"), floor.Texture("NormalMap"))
	assert.Same(t, m.Texture("Black"), floor.Texture("MetalMap"))

	cobble := w.Material("Cobble4x")
	assert.True(t, cobble.Refractive())
	assert.Equal(t, float32(0.3), cobble.RefractionIndex())
	assert.Equal(t, mgl32.Vec2{4, 4}, cobble.UVScale())

	var furry scene.Renderable
	for _, e := range w.Entities {
		if e.Name() == "Hair sphere" {
			furry = e
		}
	}
	require.NotNil(t, furry)
	assert.True(t, furry.Mesh().HasHair())
	assert.NotSame(t, m.Mesh("Sphere"), furry.Mesh())
	assert.False(t, m.Mesh("Sphere").HasHair())

	small := w.Entities[8]
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, small.Transform().Scale())
}

func TestBuildLightsAreSeeded(t *testing.T) {
	dev, m := newAssets(t)
	sc, err := DefaultScene()
	require.NoError(t, err)

	a, err := Build(dev, m, sc, seeded(9))
	require.NoError(t, err)
	defer a.Release()
	b, err := Build(dev, m, sc, seeded(9))
	require.NoError(t, err)
	defer b.Release()
	assert.Equal(t, a.Lights, b.Lights)

	fixed := a.Lights[:3]
	assert.Equal(t, lighting.Directional, fixed[0].Kind)
	assert.Equal(t, mgl32.Vec3{0.8, 0.8, 0.8}, fixed[0].Color)

	before := append([]lighting.Light(nil), a.Lights...)
	a.RegenerateLights(seeded(10))
	assert.Equal(t, before[:3], a.Lights[:3])
	assert.NotEqual(t, before[3:], a.Lights[3:])
	for _, l := range a.Lights[3:] {
		assert.Equal(t, lighting.Point, l.Kind)
	}
}

func TestBuildEmitterSettings(t *testing.T) {
	dev, m := newAssets(t)
	sc, err := ParseScene([]byte(`
emitters:
  - name: plain
    capacity: 4
    rate: 2
    lifetime: 1
  - name: stars
    texture: missing
    capacity: 8
    rate: 4
    lifetime: 2
    position: [1, 2, 3]
    start_color: [1, 0, 0, 1]
    start_scale: 0.2
    acceleration: [0, -3, 0]
`))
	require.NoError(t, err)

	w, err := Build(dev, m, sc, seeded(1))
	require.NoError(t, err)
	defer w.Release()

	plainStart, plainEnd := w.Emitters[0].Colors()
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, plainStart)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, plainEnd)

	stars := w.Emitters[1]
	start, end := stars.Colors()
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, start)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, end)
	startScale, endScale := stars.Scales()
	assert.Equal(t, mgl32.Vec2{0.2, 0.2}, startScale)
	assert.Equal(t, mgl32.Vec2{0.5, 0.5}, endScale)
	assert.Equal(t, mgl32.Vec3{0, -3, 0}, stars.Acceleration())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, stars.Transform().Position())
}

func TestBuildErrors(t *testing.T) {
	dev, m := newAssets(t)

	sc, err := ParseScene([]byte("materials:\n  - name: a\n    pixel_shader: Nope\n"))
	require.NoError(t, err)
	_, err = Build(dev, m, sc, seeded(1))
	assert.ErrorContains(t, err, `unknown pixel shader "Nope"`)

	sc, err = ParseScene([]byte("materials:\n  - name: a\nentities:\n  - name: e\n    mesh: Teapot\n    material: a\n"))
	require.NoError(t, err)
	_, err = Build(dev, m, sc, seeded(1))
	assert.ErrorContains(t, err, `unknown mesh "Teapot"`)
}

func TestWorldUpdate(t *testing.T) {
	dev, m := newAssets(t)
	sc, err := DefaultScene()
	require.NoError(t, err)
	w, err := Build(dev, m, sc, seeded(1))
	require.NoError(t, err)
	defer w.Release()

	spinning := w.Entities[0].Transform()
	w.Update(1)
	assert.InDelta(t, 1, spinning.Rotation().Y(), 1e-6)
	for _, e := range w.Emitters {
		assert.Positive(t, e.LiveCount(), e.Name())
	}
}
