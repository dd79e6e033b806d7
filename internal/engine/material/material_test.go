package material

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
)

type fixedTransform struct{ world mgl32.Mat4 }

func (f fixedTransform) World() mgl32.Mat4                 { return f.world }
func (f fixedTransform) WorldInverseTranspose() mgl32.Mat4 { return f.world.Inv().Transpose() }

func TestPrepare(t *testing.T) {
	dev := gputest.NewDevice(64, 64)
	vs := gputest.NewShader(dev, gpu.StageVertex, "VertexShader")
	ps := gputest.NewShader(dev, gpu.StagePixel, "PixelShaderPBR")

	albedo, err := dev.CreateTexture(gpu.TextureDescriptor{Label: "bronze_albedo", Width: 4, Height: 4})
	require.NoError(t, err)
	sampler, err := dev.CreateSampler(gpu.SamplerDescriptor{Label: "BasicSampler"})
	require.NoError(t, err)

	mat := New("bronze", vs, ps)
	mat.SetTint(mgl32.Vec4{1, 0.5, 0.25, 1})
	mat.SetUVScale(mgl32.Vec2{2, 2})
	mat.AddTexture("Albedo", albedo)
	mat.AddSampler("BasicSampler", sampler)

	cam := camera.New(mgl32.Vec3{0, 0, -10}, 1)
	world := mgl32.Translate3D(1, 2, 3)
	dev.Reset()
	mat.Prepare(fixedTransform{world}, cam)

	assert.Equal(t, world, vs.Values["world"])
	assert.Equal(t, cam.View(), vs.Values["view"])
	assert.Equal(t, cam.Projection(), vs.Values["projection"])
	assert.Equal(t, mgl32.Vec4{1, 0.5, 0.25, 1}, ps.Values["colorTint"])
	assert.Equal(t, mgl32.Vec2{2, 2}, ps.Values["uvScale"])
	assert.Equal(t, "bronze_albedo", ps.Values["Albedo"])
	assert.Equal(t, "BasicSampler", ps.Values["BasicSampler"])
	assert.NotContains(t, ps.Values, "refractionIndex")

	bindVS := dev.Index(0, func(c gputest.Call) bool { return c.Op == "Bind" && c.Shader == "VertexShader" })
	bindPS := dev.Index(0, func(c gputest.Call) bool { return c.Op == "Bind" && c.Shader == "PixelShaderPBR" })
	copyPS := dev.Index(0, func(c gputest.Call) bool { return c.Op == "CopyAllBufferData" && c.Shader == "PixelShaderPBR" })
	assert.True(t, bindVS >= 0 && bindPS > bindVS && copyPS > bindPS)
}

func TestPrepareRefractive(t *testing.T) {
	dev := gputest.NewDevice(64, 64)
	vs := gputest.NewShader(dev, gpu.StageVertex, "VertexShader")
	ps := gputest.NewShader(dev, gpu.StagePixel, "RefractionPS")

	mat := New("glass", vs, ps)
	mat.SetRefraction(true, 1.5)
	require.True(t, mat.Refractive())

	mat.Prepare(fixedTransform{mgl32.Ident4()}, camera.New(mgl32.Vec3{}, 1))
	assert.Equal(t, float32(1.5), ps.Values["refractionIndex"])
}

func TestTextureNamesSorted(t *testing.T) {
	mat := New("m", nil, nil)
	mat.AddTexture("RoughnessMap", nil)
	mat.AddTexture("Albedo", nil)
	mat.AddTexture("NormalMap", nil)
	assert.Equal(t, []string{"Albedo", "NormalMap", "RoughnessMap"}, mat.TextureNames())
}
