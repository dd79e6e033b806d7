// Package sky draws the environment cubemap and precomputes the image based
// lighting maps derived from it.
package sky

import (
	"fmt"
	"math/bits"

	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/assets"
	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/mesh"
	"github.com/Faultbox/prism/internal/logger"
)

// Options sizes the precomputed maps.
type Options struct {
	// CubeSize is the face size of the irradiance and specular cubemaps.
	CubeSize int
	// LookUpSize is the size of the BRDF lookup table.
	LookUpSize int
	// SkipMips drops the smallest mips of the specular chain.
	SkipMips int
}

// DefaultOptions returns 256 texel maps with the three smallest specular mips skipped.
func DefaultOptions() Options {
	return Options{CubeSize: 256, LookUpSize: 256, SkipMips: 3}
}

// MipLevels returns the specular mip count for a cube of size texels with
// skip levels dropped, never less than one.
func MipLevels(size, skip int) int {
	if size < 1 {
		return 1
	}
	log2 := bits.Len(uint(size)) - 1
	return max(log2+1-skip, 1)
}

// Sky owns the environment cubemap and the maps convolved from it.
type Sky struct {
	mesh        *mesh.Mesh
	environment gpu.Texture
	vs, ps      gpu.Shader
	sampler     gpu.Sampler

	irradiance gpu.Texture
	specular   gpu.Texture
	brdf       gpu.Texture
	mipLevels  int

	opts Options
	log  *zap.Logger
}

// New runs the irradiance, specular and BRDF precompute passes for
// environment and returns a sky drawing it with m. The bound render
// targets and viewport are unchanged on return.
func New(dev gpu.Device, provider assets.Provider, m *mesh.Mesh, environment gpu.Texture, opts Options) (*Sky, error) {
	if environment == nil || environment.Descriptor().Kind != gpu.TextureCube {
		return nil, fmt.Errorf("sky: environment must be a cubemap")
	}
	if opts.CubeSize <= 0 || opts.LookUpSize <= 0 {
		return nil, fmt.Errorf("sky: invalid map sizes %d and %d", opts.CubeSize, opts.LookUpSize)
	}

	s := &Sky{
		mesh:        m,
		environment: environment,
		vs:          provider.VertexShader("SkyVS"),
		ps:          provider.PixelShader("SkyPS"),
		sampler:     provider.Sampler("BasicSampler"),
		opts:        opts,
		log:         logger.Named("sky"),
	}
	if s.vs == nil || s.ps == nil {
		return nil, fmt.Errorf("sky: SkyVS or SkyPS unavailable")
	}

	fullscreen := provider.VertexShader("FullscreenVS")
	if fullscreen == nil {
		return nil, fmt.Errorf("sky: FullscreenVS unavailable")
	}

	passes := []struct {
		name string
		run  func(gpu.Device, gpu.Shader, gpu.Shader) error
	}{
		{"IBLIrradianceMapPS", s.createIrradianceMap},
		{"IBLSpecularConvolutionPS", s.createSpecularMap},
		{"IBLBrdfLookUpTablePS", s.createBRDFLookUp},
	}
	for _, p := range passes {
		ps := provider.PixelShader(p.name)
		if ps == nil {
			s.Release()
			return nil, fmt.Errorf("sky: %s unavailable", p.name)
		}
		if err := p.run(dev, fullscreen, ps); err != nil {
			s.Release()
			return nil, err
		}
	}

	s.log.Info("image based lighting ready",
		zap.Int("cubeSize", opts.CubeSize),
		zap.Int("specularMips", s.mipLevels),
		zap.Int("lookUpSize", opts.LookUpSize),
	)
	return s, nil
}

var black = [4]float32{0, 0, 0, 0}

func (s *Sky) createIrradianceMap(dev gpu.Device, vs, ps gpu.Shader) error {
	restore := gpu.SaveTargets(dev)
	defer restore()

	tex, err := dev.CreateTexture(gpu.TextureDescriptor{
		Label:  "IrradianceIBLMap",
		Kind:   gpu.TextureCube,
		Format: gpu.FormatRGBA8,
		Width:  s.opts.CubeSize,
		Height: s.opts.CubeSize,
		Usage:  gpu.UsageRenderTarget | gpu.UsageSampled,
	})
	if err != nil {
		return fmt.Errorf("irradiance map: %w", err)
	}
	s.irradiance = tex

	dev.SetViewport(gpu.FullViewport(tex, 0))
	dev.SetVertexBuffer(nil, gpu.VertexLayout{})

	vs.Bind()
	ps.Bind()
	ps.SetTexture("EnvironmentMap", s.environment)
	ps.SetSampler("BasicSampler", s.sampler)

	for face := 0; face < 6; face++ {
		rt := gpu.RenderTarget{Texture: tex, Face: face}
		dev.ClearRenderTarget(rt, black)
		dev.SetRenderTargets(nil, rt)

		ps.SetInt("faceIndex", int32(face))
		ps.CopyAllBufferData()
		dev.Draw(3)
	}
	return nil
}

func (s *Sky) createSpecularMap(dev gpu.Device, vs, ps gpu.Shader) error {
	restore := gpu.SaveTargets(dev)
	defer restore()

	s.mipLevels = MipLevels(s.opts.CubeSize, s.opts.SkipMips)
	tex, err := dev.CreateTexture(gpu.TextureDescriptor{
		Label:     "SpecularIBLMap",
		Kind:      gpu.TextureCube,
		Format:    gpu.FormatRGBA8,
		Width:     s.opts.CubeSize,
		Height:    s.opts.CubeSize,
		MipLevels: s.mipLevels,
		Usage:     gpu.UsageRenderTarget | gpu.UsageSampled,
	})
	if err != nil {
		return fmt.Errorf("specular map: %w", err)
	}
	s.specular = tex

	dev.SetVertexBuffer(nil, gpu.VertexLayout{})
	vs.Bind()
	ps.Bind()
	ps.SetTexture("EnvironmentMap", s.environment)
	ps.SetSampler("BasicSampler", s.sampler)

	for mip := 0; mip < s.mipLevels; mip++ {
		var roughness float32
		if s.mipLevels > 1 {
			roughness = float32(mip) / float32(s.mipLevels-1)
		}
		for face := 0; face < 6; face++ {
			rt := gpu.RenderTarget{Texture: tex, Face: face, Mip: mip}
			dev.ClearRenderTarget(rt, black)
			dev.SetRenderTargets(nil, rt)
			dev.SetViewport(gpu.FullViewport(tex, mip))

			ps.SetFloat("roughness", roughness)
			ps.SetInt("faceIndex", int32(face))
			ps.SetInt("mipLevel", int32(mip))
			ps.CopyAllBufferData()
			dev.Draw(3)
		}
	}
	return nil
}

func (s *Sky) createBRDFLookUp(dev gpu.Device, vs, ps gpu.Shader) error {
	restore := gpu.SaveTargets(dev)
	defer restore()

	tex, err := dev.CreateTexture(gpu.TextureDescriptor{
		Label:  "BrdfLookUpMap",
		Format: gpu.FormatRG16,
		Width:  s.opts.LookUpSize,
		Height: s.opts.LookUpSize,
		Usage:  gpu.UsageRenderTarget | gpu.UsageSampled,
	})
	if err != nil {
		return fmt.Errorf("brdf look up table: %w", err)
	}
	s.brdf = tex

	dev.SetViewport(gpu.FullViewport(tex, 0))
	dev.SetVertexBuffer(nil, gpu.VertexLayout{})
	vs.Bind()
	ps.Bind()

	rt := gpu.RenderTarget{Texture: tex}
	dev.ClearRenderTarget(rt, black)
	dev.SetRenderTargets(nil, rt)
	dev.Draw(3)
	return nil
}

// Draw renders the sky box from the inside at the far plane and restores
// the default rasterizer and depth states.
func (s *Sky) Draw(dev gpu.Device, cam *camera.Camera) {
	dev.SetRasterizerState(gpu.RasterizerState{Cull: gpu.CullFront})
	dev.SetDepthState(gpu.DepthState{Test: true, Write: true, Func: gpu.CompareLessEqual})

	s.vs.Bind()
	s.ps.Bind()

	s.vs.SetMatrix4x4("view", cam.View())
	s.vs.SetMatrix4x4("projection", cam.Projection())
	s.vs.CopyAllBufferData()

	s.ps.SetTexture("skyTexture", s.environment)
	s.ps.SetSampler("samplerOptions", s.sampler)

	s.mesh.Draw(dev)

	dev.SetRasterizerState(gpu.DefaultRasterizer)
	dev.SetDepthState(gpu.DefaultDepth)
}

func (s *Sky) Environment() gpu.Texture   { return s.environment }
func (s *Sky) IrradianceMap() gpu.Texture { return s.irradiance }
func (s *Sky) SpecularMap() gpu.Texture   { return s.specular }
func (s *Sky) BRDFLookUp() gpu.Texture    { return s.brdf }
func (s *Sky) SpecularMipLevels() int     { return s.mipLevels }

// Release frees the precomputed maps. The environment cubemap belongs to the caller.
func (s *Sky) Release() {
	for _, t := range []gpu.Texture{s.irradiance, s.specular, s.brdf} {
		if t != nil {
			t.Release()
		}
	}
	s.irradiance, s.specular, s.brdf = nil, nil, nil
}
