// Package renderer sequences the passes of a frame.
//
// A frame clears every target, draws opaque entities and their hair into
// the offscreen targets, draws light gizmos and the sky, resolves motion
// blur into the back buffer, draws refractive entities and particles on
// top, lets the overlay add its widgets and presents.
package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/assets"
	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/lighting"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/mesh"
	"github.com/Faultbox/prism/internal/engine/particles"
	"github.com/Faultbox/prism/internal/engine/scene"
	"github.com/Faultbox/prism/internal/engine/sky"
	"github.com/Faultbox/prism/internal/logger"
)

const (
	DefaultMotionBlurSamples = 16
	DefaultMotionBlurMax     = 16
	MaxMotionBlur            = 64

	// blurTaps is how many albedo samples the blur takes along the velocity.
	blurTaps = 16
)

// DefaultClearColor is opaque black.
var DefaultClearColor = [4]float32{0, 0, 0, 1}

// ErrMissingShader is wrapped by New when a pass shader is not available.
var ErrMissingShader = errors.New("renderer shader unavailable")

// FrameInfo is handed to the overlay once per frame.
type FrameInfo struct {
	Camera    *camera.Camera
	Materials []*material.Material
	DeltaTime float32
	Width     int
	Height    int
}

// Overlay draws debug UI after the scene and before present.
type Overlay interface {
	Draw(frame FrameInfo)
}

// Options configures a Renderer.
type Options struct {
	Width    int
	Height   int
	Sky      *sky.Sky
	Entities []scene.Renderable
	Emitters []*particles.Emitter
	Lights   []lighting.Light
	Overlay  Overlay

	// Zero means the default.
	MotionBlurSamples int
	MotionBlurMax     int
}

// Renderer owns the offscreen targets and draws frames on a device.
type Renderer struct {
	dev gpu.Device
	log *zap.Logger

	width, height int
	targets       [TargetCount]gpu.Texture

	sky      *sky.Sky
	entities []scene.Renderable
	emitters []*particles.Emitter
	lights   []lighting.Light
	overlay  Overlay

	motionBlurSamples int
	motionBlurMax     int
	clearColor        [4]float32

	fullscreenVS   gpu.Shader
	neighborhoodPS gpu.Shader
	motionBlurPS   gpu.Shader
	hairVS         gpu.Shader
	hairPS         gpu.Shader
	gizmoVS        gpu.Shader
	gizmoPS        gpu.Shader
	gizmoMesh      *mesh.Mesh
	clampSampler   gpu.Sampler

	prevView       mgl32.Mat4
	prevProjection mgl32.Mat4
	havePrev       bool
}

// New looks up the pass shaders and allocates the offscreen targets.
func New(dev gpu.Device, provider assets.Provider, opts Options) (*Renderer, error) {
	if opts.Sky == nil {
		return nil, fmt.Errorf("renderer: sky is required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("renderer: invalid size %dx%d", opts.Width, opts.Height)
	}

	r := &Renderer{
		dev:               dev,
		log:               logger.Named("renderer"),
		width:             opts.Width,
		height:            opts.Height,
		sky:               opts.Sky,
		entities:          opts.Entities,
		emitters:          opts.Emitters,
		lights:            opts.Lights,
		overlay:           opts.Overlay,
		motionBlurSamples: DefaultMotionBlurSamples,
		motionBlurMax:     DefaultMotionBlurMax,
		clearColor:        DefaultClearColor,
		gizmoMesh:         provider.Mesh("Sphere"),
	}
	if opts.MotionBlurSamples != 0 || opts.MotionBlurMax != 0 {
		r.SetMotionBlur(opts.MotionBlurSamples, opts.MotionBlurMax)
	}

	shaders := []struct {
		dst  *gpu.Shader
		name string
		get  func(string) gpu.Shader
	}{
		{&r.fullscreenVS, "FullscreenVS", provider.VertexShader},
		{&r.neighborhoodPS, "MotionBlurNeighborhoodPS", provider.PixelShader},
		{&r.motionBlurPS, "MotionBlurPS", provider.PixelShader},
		{&r.hairVS, "HairVS", provider.VertexShader},
		{&r.hairPS, "HairPS", provider.PixelShader},
		{&r.gizmoVS, "VertexShader", provider.VertexShader},
		{&r.gizmoPS, "SolidColorPS", provider.PixelShader},
	}
	for _, s := range shaders {
		*s.dst = s.get(s.name)
		if *s.dst == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingShader, s.name)
		}
	}

	var err error
	r.clampSampler, err = dev.CreateSampler(gpu.SamplerDescriptor{
		Label:   "ClampSampler",
		Filter:  gpu.FilterLinear,
		Address: gpu.AddressClamp,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}

	if err := r.createTargets(); err != nil {
		r.clampSampler.Release()
		return nil, err
	}
	return r, nil
}

// Close releases the offscreen targets.
func (r *Renderer) Close() {
	r.releaseTargets()
	if r.clampSampler != nil {
		r.clampSampler.Release()
		r.clampSampler = nil
	}
}

func (r *Renderer) Size() (width, height int)         { return r.width, r.height }
func (r *Renderer) Sky() *sky.Sky                     { return r.sky }
func (r *Renderer) Entities() []scene.Renderable      { return r.entities }
func (r *Renderer) Emitters() []*particles.Emitter    { return r.emitters }
func (r *Renderer) SetOverlay(o Overlay)              { r.overlay = o }
func (r *Renderer) AddEntity(e scene.Renderable)      { r.entities = append(r.entities, e) }
func (r *Renderer) AddEmitter(e *particles.Emitter)   { r.emitters = append(r.emitters, e) }
func (r *Renderer) SetLights(lights []lighting.Light) { r.lights = lights }

// Lights returns the live light slice; edits to its elements show next frame.
func (r *Renderer) Lights() []lighting.Light { return r.lights }

// SetClearColor sets the color every target is cleared to each frame.
func (r *Renderer) SetClearColor(c [4]float32) { r.clearColor = c }

func (r *Renderer) MotionBlurSamples() int { return r.motionBlurSamples }
func (r *Renderer) MotionBlurMax() int     { return r.motionBlurMax }

// SetMotionBlur sets the neighborhood sample count and the maximum blur in
// pixels, each clamped to [0, MaxMotionBlur].
func (r *Renderer) SetMotionBlur(samples, maxBlur int) {
	r.motionBlurSamples = min(max(samples, 0), MaxMotionBlur)
	r.motionBlurMax = min(max(maxBlur, 0), MaxMotionBlur)
}

func (r *Renderer) screenSize() mgl32.Vec2 {
	return mgl32.Vec2{float32(r.width), float32(r.height)}
}

// Render draws and presents one frame seen from cam.
func (r *Renderer) Render(cam *camera.Camera, materials []*material.Material, dt float32) error {
	if !r.havePrev {
		r.prevView, r.prevProjection = cam.View(), cam.Projection()
		r.havePrev = true
	}
	back, depth := r.dev.BackBuffer(), r.dev.DepthBuffer()
	if back == nil || depth == nil {
		return fmt.Errorf("renderer: back buffer released")
	}
	if r.targets[Albedo] == nil {
		return fmt.Errorf("renderer: render targets released")
	}

	r.dev.ClearRenderTarget(gpu.RenderTarget{Texture: back}, r.clearColor)
	r.dev.ClearDepth(depth, 1)
	for _, t := range r.targets {
		r.dev.ClearRenderTarget(gpu.RenderTarget{Texture: t}, r.clearColor)
	}

	r.dev.SetRenderTargets(depth, r.renderTargets()...)
	r.dev.SetViewport(gpu.Viewport{Width: r.width, Height: r.height})
	r.drawOpaque(cam)
	r.drawPointLights(cam)
	r.sky.Draw(r.dev, cam)

	r.drawMotionBlur(back)

	r.dev.SetRenderTargets(depth, gpu.RenderTarget{Texture: back})
	r.drawRefractive(cam)
	r.drawParticles(cam)

	r.dev.SetBlendState(gpu.DefaultBlend)
	r.dev.SetDepthState(gpu.DefaultDepth)
	r.dev.SetRasterizerState(gpu.DefaultRasterizer)
	if r.overlay != nil {
		r.overlay.Draw(FrameInfo{
			Camera:    cam,
			Materials: materials,
			DeltaTime: dt,
			Width:     r.width,
			Height:    r.height,
		})
	}

	r.dev.UnbindShaderResources()
	err := r.dev.Present()
	r.dev.SetRenderTargets(r.dev.DepthBuffer(), gpu.RenderTarget{Texture: r.dev.BackBuffer()})

	r.prevView = cam.View()
	r.prevProjection = cam.Projection()
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// setFrameData uploads the lights, camera and image based lighting maps.
func (r *Renderer) setFrameData(ps gpu.Shader, cam *camera.Camera, lights []byte, lightCount int) {
	ps.SetData("lights", lights)
	ps.SetInt("lightCount", int32(lightCount))
	ps.SetFloat3("cameraPosition", cam.Position())
	ps.SetInt("specIBLTotalMipLevels", int32(r.sky.SpecularMipLevels()))
	ps.SetSampler("ClampSampler", r.clampSampler)
	ps.SetTexture("BrdfLookUpMap", r.sky.BRDFLookUp())
	ps.SetTexture("IrradianceIBLMap", r.sky.IrradianceMap())
	ps.SetTexture("SpecularIBLMap", r.sky.SpecularMap())
}

func (r *Renderer) drawOpaque(cam *camera.Camera) {
	lights, lightCount := lighting.Bytes(r.lights)

	for _, e := range r.entities {
		if scene.IsRefractive(e) {
			continue
		}
		mat := e.Material()

		vs := mat.VertexShader()
		vs.Bind()
		vs.SetMatrix4x4("prevProjection", r.prevProjection)
		vs.SetMatrix4x4("prevView", r.prevView)
		vs.SetMatrix4x4("prevWorld", e.Transform().PrevWorld())
		vs.CopyAllBufferData()

		ps := mat.PixelShader()
		ps.Bind()
		r.setFrameData(ps, cam, lights, lightCount)
		ps.SetFloat2("screenSize", r.screenSize())
		ps.SetFloat("MotionBlurMax", float32(r.motionBlurMax))
		ps.CopyAllBufferData()

		e.Draw(r.dev, cam)

		if m := e.Mesh(); m != nil && m.HasHair() {
			r.drawHair(e, cam, lights, lightCount)
		}
	}
}

func (r *Renderer) drawHair(e scene.Renderable, cam *camera.Camera, lights []byte, lightCount int) {
	t := e.Transform()
	mat := e.Material()

	r.hairVS.Bind()
	r.hairVS.SetMatrix4x4("world", t.World())
	r.hairVS.SetMatrix4x4("worldInverseTranspose", t.WorldInverseTranspose())
	r.hairVS.SetMatrix4x4("view", cam.View())
	r.hairVS.SetMatrix4x4("projection", cam.Projection())
	r.hairVS.CopyAllBufferData()

	r.hairPS.Bind()
	r.hairPS.SetFloat("metalVal", 0)
	r.hairPS.SetFloat("roughnessVal", 0)
	r.hairPS.SetFloat4("colorTint", mat.Tint())
	r.setFrameData(r.hairPS, cam, lights, lightCount)
	r.hairPS.SetTexture("Albedo", mat.Texture("Albedo"))
	r.hairPS.CopyAllBufferData()

	r.dev.SetRasterizerState(gpu.RasterizerState{Cull: gpu.CullNone})
	e.Mesh().DrawHair(r.dev, r.hairVS)
	r.dev.SetRasterizerState(gpu.DefaultRasterizer)
}

// drawPointLights draws a sphere per point light, scaled by its range and
// colored by color times intensity.
func (r *Renderer) drawPointLights(cam *camera.Camera) {
	if r.gizmoMesh == nil {
		return
	}
	vs, ps := r.gizmoVS, r.gizmoPS
	vs.Bind()
	ps.Bind()

	vs.SetMatrix4x4("view", cam.View())
	vs.SetMatrix4x4("projection", cam.Projection())
	vs.SetMatrix4x4("prevView", r.prevView)
	vs.SetMatrix4x4("prevProjection", r.prevProjection)

	for _, l := range r.lights {
		if l.Kind != lighting.Point {
			continue
		}
		s := l.Range / 20
		world := mgl32.Translate3D(l.Position[0], l.Position[1], l.Position[2]).Mul4(mgl32.Scale3D(s, s, s))

		vs.SetMatrix4x4("world", world)
		vs.SetMatrix4x4("worldInverseTranspose", world.Inv().Transpose())
		vs.SetMatrix4x4("prevWorld", world)

		c := l.Color.Mul(l.Intensity)
		ps.SetFloat4("Color", c.Vec4(1))

		vs.CopyAllBufferData()
		ps.CopyAllBufferData()
		r.gizmoMesh.Draw(r.dev)
	}
}

func (r *Renderer) drawMotionBlur(back gpu.Texture) {
	r.dev.SetIndexBuffer(nil)
	r.dev.SetVertexBuffer(nil, gpu.VertexLayout{})
	r.fullscreenVS.Bind()

	r.dev.SetRenderTargets(nil, gpu.RenderTarget{Texture: r.targets[NeighborhoodMax]})
	ps := r.neighborhoodPS
	ps.Bind()
	ps.SetInt("numOfSamples", int32(r.motionBlurSamples))
	ps.SetTexture("Velocities", r.targets[Velocity])
	ps.CopyAllBufferData()
	r.dev.Draw(3)

	r.dev.SetRenderTargets(nil, gpu.RenderTarget{Texture: back})
	ps = r.motionBlurPS
	ps.Bind()
	ps.SetInt("numOfSamples", blurTaps)
	ps.SetTexture("OriginalColors", r.targets[Albedo])
	ps.SetTexture("Velocities", r.targets[NeighborhoodMax])
	ps.SetSampler("ClampSampler", r.clampSampler)
	ps.SetFloat2("screenSize", r.screenSize())
	ps.CopyAllBufferData()
	r.dev.Draw(3)
}

// drawRefractive draws refractive entities over the blurred image and
// records every entity's world matrix for next frame's velocities.
func (r *Renderer) drawRefractive(cam *camera.Camera) {
	for _, e := range r.entities {
		e.Transform().StorePrevWorld()
		if !scene.IsRefractive(e) {
			continue
		}
		ps := e.Material().PixelShader()
		ps.Bind()
		ps.SetSampler("ClampSampler", r.clampSampler)
		ps.SetTexture("OriginalColors", r.targets[Albedo])
		ps.SetFloat2("screenSize", r.screenSize())
		ps.SetFloat3("cameraPosition", cam.Position())

		e.Draw(r.dev, cam)
	}
}

func (r *Renderer) drawParticles(cam *camera.Camera) {
	r.dev.SetDepthState(gpu.DepthState{Test: true, Write: false, Func: gpu.CompareLess})
	for _, e := range r.emitters {
		r.dev.SetBlendState(gpu.AdditiveBlend)
		e.Draw(cam)
	}
}

// PreResize releases the back buffer before the surface changes size.
func (r *Renderer) PreResize() {
	r.dev.ReleaseBackBuffer()
}

// PostResize recreates the back buffer and the offscreen targets at the new size.
func (r *Renderer) PostResize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("renderer: invalid size %dx%d", width, height)
	}
	if err := r.dev.ResizeBackBuffer(width, height); err != nil {
		return fmt.Errorf("resize back buffer: %w", err)
	}
	r.width, r.height = width, height

	r.releaseTargets()
	if err := r.createTargets(); err != nil {
		return err
	}

	r.dev.SetRenderTargets(r.dev.DepthBuffer(), gpu.RenderTarget{Texture: r.dev.BackBuffer()})
	r.dev.SetViewport(gpu.Viewport{Width: width, Height: height})
	r.log.Info("resized", zap.Int("width", width), zap.Int("height", height))
	return nil
}

// Resize runs PreResize and PostResize and refreshes the camera projection.
func (r *Renderer) Resize(width, height int, cam *camera.Camera) error {
	r.PreResize()
	if err := r.PostResize(width, height); err != nil {
		return err
	}
	if cam != nil {
		cam.UpdateProjection(float32(width) / float32(height))
	}
	return nil
}
