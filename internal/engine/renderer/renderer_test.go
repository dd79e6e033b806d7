package renderer

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/assets"
	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
	"github.com/Faultbox/prism/internal/engine/lighting"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/mesh"
	"github.com/Faultbox/prism/internal/engine/particles"
	"github.com/Faultbox/prism/internal/engine/scene"
	"github.com/Faultbox/prism/internal/engine/sky"
)

type fixture struct {
	dev      *gputest.Device
	assets   *assets.Manager
	r        *Renderer
	cam      *camera.Camera
	box      *scene.Entity
	glass    *scene.Entity
	emitter  *particles.Emitter
	overlay  *recordingOverlay
	material *material.Material
}

type recordingOverlay struct {
	dev    *gputest.Device
	frames []FrameInfo
	at     []int
}

func (o *recordingOverlay) Draw(frame FrameInfo) {
	o.frames = append(o.frames, frame)
	o.at = append(o.at, len(o.dev.Calls))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev := gputest.NewDevice(64, 48)
	m := assets.NewManager(dev)
	require.NoError(t, m.LoadBuiltins())

	env, err := sky.NewGradientCubemap(dev, 8, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{})
	require.NoError(t, err)
	sk, err := sky.New(dev, m, m.Mesh("Cube"), env, sky.Options{CubeSize: 8, LookUpSize: 8, SkipMips: 0})
	require.NoError(t, err)

	pbr := material.New("pbr", m.VertexShader("VertexShader"), m.PixelShader("PixelShaderPBR"))
	pbr.AddTexture("Albedo", m.Texture("White"))
	glassMat := material.New("glass", m.VertexShader("VertexShader"), m.PixelShader("RefractionPS"))
	glassMat.SetRefraction(true, 1.5)

	box := scene.NewEntity("box", m.Mesh("Cube"), pbr)
	glass := scene.NewEntity("glass", m.Mesh("Sphere"), glassMat)

	emitter, err := particles.New(dev, particles.Config{
		Name:     "sparks",
		Capacity: 8,
		Rate:     4,
		Lifetime: 1,
		VS:       m.VertexShader("ParticleVS"),
		PS:       m.PixelShader("ParticlePS"),
	})
	require.NoError(t, err)

	overlay := &recordingOverlay{dev: dev}
	r, err := New(dev, m, Options{
		Width:    64,
		Height:   48,
		Sky:      sk,
		Entities: []scene.Renderable{glass, box},
		Emitters: []*particles.Emitter{emitter},
		Lights: []lighting.Light{
			lighting.NewDirectional(mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 1, 1}, 1),
			lighting.NewPoint(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{1, 0.5, 0}, 10, 2),
		},
		Overlay: overlay,
	})
	require.NoError(t, err)

	dev.Reset()
	return &fixture{
		dev:      dev,
		assets:   m,
		r:        r,
		cam:      camera.New(mgl32.Vec3{0, 0, -5}, 64.0/48.0),
		box:      box,
		glass:    glass,
		emitter:  emitter,
		overlay:  overlay,
		material: pbr,
	}
}

func TestNewCreatesTargets(t *testing.T) {
	f := newFixture(t)

	targets := f.r.Targets()
	require.Len(t, targets, int(TargetCount))
	for i, tex := range targets {
		assert.Equal(t, Target(i).String(), tex.Label())
		assert.Equal(t, 64, tex.Width())
		assert.Equal(t, 48, tex.Height())
	}
	assert.Equal(t, gpu.FormatRGBA8, targets[Albedo].Descriptor().Format)
	assert.Equal(t, gpu.FormatRG16F, targets[Velocity].Descriptor().Format)
	assert.Equal(t, gpu.FormatRG16F, targets[NeighborhoodMax].Descriptor().Format)
	assert.Equal(t, DefaultMotionBlurSamples, f.r.MotionBlurSamples())
	assert.Equal(t, DefaultMotionBlurMax, f.r.MotionBlurMax())
}

func TestNewErrors(t *testing.T) {
	dev := gputest.NewDevice(8, 8)
	m := assets.NewManager(dev)

	_, err := New(dev, m, Options{Width: 8, Height: 8})
	assert.Error(t, err, "sky is required")

	require.NoError(t, m.LoadBuiltins())
	env, err := sky.NewGradientCubemap(dev, 4, mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{})
	require.NoError(t, err)
	sk, err := sky.New(dev, m, m.Mesh("Cube"), env, sky.Options{CubeSize: 4, LookUpSize: 4})
	require.NoError(t, err)

	_, err = New(dev, m, Options{Width: 0, Height: 8, Sky: sk})
	assert.Error(t, err)

	dev.InvalidShaders = map[string]bool{"MotionBlurPS": true}
	broken := assets.NewManager(dev)
	require.NoError(t, broken.LoadBuiltins())
	_, err = New(dev, broken, Options{Width: 8, Height: 8, Sky: sk})
	assert.True(t, errors.Is(err, ErrMissingShader))
	assert.Contains(t, err.Error(), "MotionBlurPS")
}

func TestRenderClearsEverything(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.r.Render(f.cam, nil, 0.016))

	require.GreaterOrEqual(t, len(f.dev.Calls), 7)
	assert.Equal(t, "ClearRenderTarget", f.dev.Calls[0].Op)
	assert.Equal(t, "BackBuffer", f.dev.Calls[0].Name)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, f.dev.Calls[0].Value)
	assert.Equal(t, "ClearDepth", f.dev.Calls[1].Op)
	assert.Equal(t, float32(1), f.dev.Calls[1].Value)
	for i := 0; i < int(TargetCount); i++ {
		c := f.dev.Calls[2+i]
		assert.Equal(t, "ClearRenderTarget", c.Op)
		assert.Equal(t, Target(i).String(), c.Name)
	}
}

func TestRenderPassOrder(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.r.Render(f.cam, nil, 0.016))

	bind := func(shader string) func(gputest.Call) bool {
		return func(c gputest.Call) bool { return c.Op == "Bind" && c.Shader == shader }
	}
	targets := func(colors ...string) func(gputest.Call) bool {
		return func(c gputest.Call) bool {
			return c.Op == "SetRenderTargets" && assert.ObjectsAreEqual(colors, c.Colors)
		}
	}

	steps := []struct {
		name string
		fn   func(gputest.Call) bool
	}{
		{"mrt", targets("Albedo", "Normals", "Depths", "Velocity", "NeighborhoodMax")},
		{"opaque", bind("PixelShaderPBR")},
		{"gizmos", bind("SolidColorPS")},
		{"sky", bind("SkyPS")},
		{"neighborhood target", targets("NeighborhoodMax")},
		{"neighborhood", bind("MotionBlurNeighborhoodPS")},
		{"blur target", targets("BackBuffer")},
		{"blur", bind("MotionBlurPS")},
		{"refraction", bind("RefractionPS")},
		{"particles", bind("ParticlePS")},
		{"unbind", func(c gputest.Call) bool { return c.Op == "UnbindShaderResources" }},
		{"present", func(c gputest.Call) bool { return c.Op == "Present" }},
	}
	at := 0
	for _, s := range steps {
		i := f.dev.Index(at, s.fn)
		require.NotEqual(t, -1, i, "%s missing after call %d", s.name, at)
		at = i + 1
	}

	require.Len(t, f.overlay.at, 1)
	present := f.dev.Index(0, func(c gputest.Call) bool { return c.Op == "Present" })
	assert.Less(t, f.overlay.at[0], present)
	assert.Equal(t, 1, f.dev.Presents())

	depth, colors := f.dev.RenderTargets()
	assert.Equal(t, "DepthBuffer", depth.Label())
	require.Len(t, colors, 1)
	assert.Equal(t, "BackBuffer", colors[0].Texture.Label())
}

func TestRefractiveDrawnOnlyAfterBlur(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.r.Render(f.cam, nil, 0.016))

	blur := f.dev.Index(0, func(c gputest.Call) bool { return c.Op == "Bind" && c.Shader == "MotionBlurPS" })
	for i, c := range f.dev.Calls {
		if c.Op == "Bind" && c.Shader == "RefractionPS" {
			assert.Greater(t, i, blur)
		}
	}
	assert.Equal(t, "Albedo", f.dev.Calls[f.dev.Index(blur+1, func(c gputest.Call) bool {
		return c.Shader == "RefractionPS" && c.Name == "OriginalColors"
	})].Value)
}

func TestFullscreenPasses(t *testing.T) {
	f := newFixture(t)
	f.r.SetMotionBlur(12, 20)
	require.NoError(t, f.r.Render(f.cam, nil, 0.016))

	shaderValue := func(shader, name string) any {
		i := f.dev.Index(0, func(c gputest.Call) bool { return c.Shader == shader && c.Name == name })
		require.NotEqual(t, -1, i, "%s.%s", shader, name)
		return f.dev.Calls[i].Value
	}
	assert.Equal(t, int32(12), shaderValue("MotionBlurNeighborhoodPS", "numOfSamples"))
	assert.Equal(t, "Velocity", shaderValue("MotionBlurNeighborhoodPS", "Velocities"))
	assert.Equal(t, int32(blurTaps), shaderValue("MotionBlurPS", "numOfSamples"))
	assert.Equal(t, "Albedo", shaderValue("MotionBlurPS", "OriginalColors"))
	assert.Equal(t, "NeighborhoodMax", shaderValue("MotionBlurPS", "Velocities"))
	assert.Equal(t, mgl32.Vec2{64, 48}, shaderValue("MotionBlurPS", "screenSize"))
	assert.Equal(t, float32(20), shaderValue("PixelShaderPBR", "MotionBlurMax"))

	var fullscreen int
	for _, c := range f.dev.Filter("Draw") {
		if c.Count == 3 {
			fullscreen++
		}
	}
	assert.Equal(t, 2, fullscreen)
}

func TestOpaqueFrameData(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.r.Render(f.cam, nil, 0.016))

	ps := f.material.PixelShader().(*gputest.Shader)
	assert.Equal(t, int32(2), ps.Values["lightCount"])
	assert.Len(t, ps.Values["lights"], 2*lighting.GPULightSize)
	assert.Equal(t, f.cam.Position(), ps.Values["cameraPosition"])
	assert.Equal(t, int32(f.r.Sky().SpecularMipLevels()), ps.Values["specIBLTotalMipLevels"])
	assert.Equal(t, "BrdfLookUpMap", ps.Values["BrdfLookUpMap"])
	assert.Equal(t, "IrradianceIBLMap", ps.Values["IrradianceIBLMap"])
	assert.Equal(t, "SpecularIBLMap", ps.Values["SpecularIBLMap"])
}

func TestPointLightGizmos(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.r.Render(f.cam, nil, 0.016))

	var colors []any
	for _, c := range f.dev.Calls {
		if c.Shader == "SolidColorPS" && c.Name == "Color" {
			colors = append(colors, c.Value)
		}
	}
	require.Len(t, colors, 1, "directional lights get no gizmo")
	assert.Equal(t, mgl32.Vec4{2, 1, 0, 1}, colors[0])

	gizmo := f.dev.Index(0, func(c gputest.Call) bool { return c.Op == "Bind" && c.Shader == "SolidColorPS" })
	world := f.dev.Index(gizmo, func(c gputest.Call) bool { return c.Shader == "VertexShader" && c.Name == "world" })
	require.NotEqual(t, -1, world)
	m := f.dev.Calls[world].Value.(mgl32.Mat4)
	assert.InDelta(t, 0.5, m.At(0, 0), 1e-6)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, m.Col(3).Vec3())
}

func TestParticleState(t *testing.T) {
	f := newFixture(t)
	f.emitter.Update(1)
	require.NoError(t, f.r.Render(f.cam, nil, 0.016))

	draw := f.dev.Index(0, func(c gputest.Call) bool { return c.Op == "DrawIndexed" && c.Name == "sparks indices" })
	require.NotEqual(t, -1, draw)

	var depth gpu.DepthState
	var blend gpu.BlendState
	for _, c := range f.dev.Calls[:draw] {
		switch c.Op {
		case "SetDepthState":
			depth = c.Value.(gpu.DepthState)
		case "SetBlendState":
			blend = c.Value.(gpu.BlendState)
		}
	}
	assert.Equal(t, gpu.DepthState{Test: true, Write: false, Func: gpu.CompareLess}, depth)
	assert.Equal(t, gpu.AdditiveBlend, blend)

	assert.Equal(t, gpu.DefaultDepth, f.dev.Depth)
	assert.Equal(t, gpu.DefaultBlend, f.dev.Blend)
	assert.Equal(t, gpu.DefaultRasterizer, f.dev.Rasterizer)
}

func TestPreviousMatrices(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.r.Render(f.cam, nil, 0.016))
	firstView := f.cam.View()
	firstWorld := f.box.Transform().World()

	f.cam.SetPosition(mgl32.Vec3{1, 0, -5})
	f.box.Transform().MoveAbsolute(mgl32.Vec3{0, 1, 0})
	f.dev.Reset()
	require.NoError(t, f.r.Render(f.cam, nil, 0.016))

	vs := f.material.VertexShader().(*gputest.Shader)
	opaque := f.dev.Index(0, func(c gputest.Call) bool { return c.Op == "Bind" && c.Shader == "PixelShaderPBR" })
	var prevView, prevWorld any
	for _, c := range f.dev.Calls[:opaque] {
		if c.Shader == vs.Name() && c.Name == "prevView" {
			prevView = c.Value
		}
		if c.Shader == vs.Name() && c.Name == "prevWorld" {
			prevWorld = c.Value
		}
	}
	assert.Equal(t, firstView, prevView)
	assert.Equal(t, firstWorld, prevWorld)
	assert.Equal(t, f.box.Transform().World(), f.box.Transform().PrevWorld())
}

func TestHairPass(t *testing.T) {
	f := newFixture(t)
	g := mesh.Cube()
	fur, err := mesh.New(f.dev, "Fur", g.Vertices, g.Indices)
	require.NoError(t, err)
	require.NoError(t, fur.CreateHair(f.dev, f.assets.ComputeShader("CreateHair"), mesh.DefaultHairParams))
	f.r.AddEntity(scene.NewEntity("furry", fur, f.material))
	f.dev.Reset()

	require.NoError(t, f.r.Render(f.cam, nil, 0.016))

	hair := f.dev.Index(0, func(c gputest.Call) bool { return c.Op == "DrawIndexed" && c.Name == "Fur hair indices" })
	require.NotEqual(t, -1, hair)
	assert.Equal(t, fur.VertexCount()*3, f.dev.Calls[hair].Count)

	var cull gpu.RasterizerState
	for _, c := range f.dev.Calls[:hair] {
		if c.Op == "SetRasterizerState" {
			cull = c.Value.(gpu.RasterizerState)
		}
	}
	assert.Equal(t, gpu.CullNone, cull.Cull)
	assert.Equal(t, gpu.RasterizerState{Cull: gpu.CullBack}, f.dev.Calls[hair+1].Value)

	ps := f.assets.PixelShader("HairPS").(*gputest.Shader)
	assert.Equal(t, float32(0), ps.Values["metalVal"])
	assert.Equal(t, float32(0), ps.Values["roughnessVal"])
	assert.Equal(t, "White", ps.Values["Albedo"])
}

func TestResize(t *testing.T) {
	f := newFixture(t)
	old := f.r.Targets()

	require.NoError(t, f.r.Resize(128, 96, f.cam))

	for i, tex := range f.r.Targets() {
		assert.Equal(t, 128, tex.Width(), Target(i).String())
		assert.Equal(t, 96, tex.Height(), Target(i).String())
		assert.True(t, old[i].(*gputest.Texture).Released)
	}
	assert.Equal(t, 128, f.dev.BackBuffer().Width())
	assert.InDelta(t, 128.0/96.0, f.cam.Aspect(), 1e-6)
	assert.Equal(t, gpu.Viewport{Width: 128, Height: 96}, f.dev.Viewport())

	ops := f.dev.Ops()
	assert.Equal(t, "ReleaseBackBuffer", ops[0])
	assert.Equal(t, "ResizeBackBuffer", ops[1])

	require.NoError(t, f.r.Render(f.cam, nil, 0.016))
	assert.Equal(t, mgl32.Vec2{128, 96}, f.material.PixelShader().(*gputest.Shader).Values["screenSize"])
}

func TestResizeErrors(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.r.PostResize(0, 10))

	f.r.PreResize()
	assert.Error(t, f.r.Render(f.cam, nil, 0), "no back buffer between resize calls")

	f.dev.FailCreate = true
	assert.ErrorIs(t, f.r.PostResize(10, 10), gputest.ErrInjected)
}

func TestRenderFailsWithoutTargets(t *testing.T) {
	f := newFixture(t)
	f.dev.FailTexture = Velocity.String()
	assert.ErrorIs(t, f.r.Resize(32, 16, f.cam), gputest.ErrInjected)
	for _, tex := range f.r.Targets() {
		assert.Nil(t, tex)
	}

	f.dev.Reset()
	assert.Error(t, f.r.Render(f.cam, nil, 0.016))
	assert.Empty(t, f.dev.Filter("ClearRenderTarget"))
	assert.Empty(t, f.dev.Filter("Present"))

	f.dev.FailTexture = ""
	require.NoError(t, f.r.Resize(32, 16, f.cam))
	require.NoError(t, f.r.Render(f.cam, nil, 0.016))
}

func TestSetMotionBlurClamps(t *testing.T) {
	f := newFixture(t)
	f.r.SetMotionBlur(-3, 100)
	assert.Equal(t, 0, f.r.MotionBlurSamples())
	assert.Equal(t, MaxMotionBlur, f.r.MotionBlurMax())
}

func TestOverlayFrameInfo(t *testing.T) {
	f := newFixture(t)
	mats := []*material.Material{f.material}
	require.NoError(t, f.r.Render(f.cam, mats, 0.25))

	require.Len(t, f.overlay.frames, 1)
	frame := f.overlay.frames[0]
	assert.Same(t, f.cam, frame.Camera)
	assert.Equal(t, mats, frame.Materials)
	assert.Equal(t, float32(0.25), frame.DeltaTime)
	assert.Equal(t, 64, frame.Width)

	f.r.SetOverlay(nil)
	assert.NoError(t, f.r.Render(f.cam, mats, 0.25))
}

func TestClose(t *testing.T) {
	f := newFixture(t)
	targets := f.r.Targets()
	f.r.Close()
	for _, tex := range targets {
		assert.True(t, tex.(*gputest.Texture).Released)
	}
}
