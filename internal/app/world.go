package app

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/assets"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/lighting"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/mesh"
	"github.com/Faultbox/prism/internal/engine/particles"
	"github.com/Faultbox/prism/internal/engine/scene"
	"github.com/Faultbox/prism/internal/logger"
)

// Textures bound when a material slot names a texture that is not loaded.
var fallbackTextures = map[string]string{
	"Albedo":       "White",
	"NormalMap":    "FlatNormal",
	"RoughnessMap": "White",
	"MetalMap":     "Black",
}

// Animation moves one transform every update.
type Animation struct {
	Transform *scene.Transform
	Spin      float32
	Sweep     float32
	Limit     float32
	dir       float32
}

// Step advances the animation by dt seconds. A sweeping transform turns
// around once it passes ±Limit on X.
func (a *Animation) Step(dt float32) {
	if a.Spin != 0 {
		a.Transform.Rotate(mgl32.Vec3{0, a.Spin * dt, 0})
	}
	if a.Sweep == 0 {
		return
	}
	if a.dir == 0 {
		a.dir = 1
	}
	x := a.Transform.Position().X()
	switch {
	case x > a.Limit && a.dir > 0:
		a.dir = -1
	case x < -a.Limit && a.dir < 0:
		a.dir = 1
	}
	a.Transform.MoveAbsolute(mgl32.Vec3{a.Sweep * a.dir * dt, 0, 0})
}

// World is everything a scene description builds.
type World struct {
	Materials  []*material.Material
	Entities   []scene.Renderable
	Emitters   []*particles.Emitter
	Lights     []lighting.Light
	Animations []*Animation

	fixedLights  []lighting.Light
	randomLights int
	hairMeshes   []*mesh.Mesh
}

// Build creates the materials, entities, lights and emitters of sc.
// rng scatters the random point lights and jitters particles.
func Build(dev gpu.Device, provider assets.Provider, sc *Scene, rng *rand.Rand) (*World, error) {
	log := logger.Named("app")
	w := &World{randomLights: sc.Lights.RandomPoints}

	for _, d := range sc.Materials {
		mat, missing, err := buildMaterial(provider, d)
		if err != nil {
			return nil, err
		}
		for _, slot := range missing {
			log.Debug("texture not loaded, using fallback",
				zap.String("material", d.Name), zap.String("slot", slot), zap.String("texture", d.Textures[slot]))
		}
		w.Materials = append(w.Materials, mat)
	}

	hairCS := provider.ComputeShader("CreateHair")
	for _, d := range sc.Entities {
		m := provider.Mesh(d.Mesh)
		if m == nil {
			w.Release()
			return nil, fmt.Errorf("entity %s: unknown mesh %q", d.Name, d.Mesh)
		}
		if d.Hair {
			hm, err := growHair(dev, hairCS, d.Name, m)
			if err != nil {
				w.Release()
				return nil, err
			}
			w.hairMeshes = append(w.hairMeshes, hm)
			m = hm
		}

		e := scene.NewEntity(d.Name, m, w.Material(d.Material))
		e.Transform().SetPosition(mgl32.Vec3(d.Position))
		e.Transform().SetRotation(mgl32.Vec3(d.Rotation))
		e.Transform().SetScale(mgl32.Vec3(d.Scale))
		e.Transform().StorePrevWorld()
		w.Entities = append(w.Entities, e)

		if d.Spin != 0 || d.Sweep != 0 {
			w.Animations = append(w.Animations, &Animation{
				Transform: e.Transform(),
				Spin:      d.Spin,
				Sweep:     d.Sweep,
				Limit:     d.SweepLimit,
			})
		}
	}

	for _, d := range sc.Lights.Fixed {
		w.fixedLights = append(w.fixedLights, buildLight(d))
	}
	w.RegenerateLights(rng)

	for _, d := range sc.Emitters {
		e, err := buildEmitter(dev, provider, d, rng)
		if err != nil {
			w.Release()
			return nil, err
		}
		w.Emitters = append(w.Emitters, e)
	}

	log.Info("world built",
		zap.Int("materials", len(w.Materials)),
		zap.Int("entities", len(w.Entities)),
		zap.Int("lights", len(w.Lights)),
		zap.Int("emitters", len(w.Emitters)))
	return w, nil
}

// buildMaterial binds a texture to every standard slot, substituting a
// solid fallback for textures that are not loaded. It returns the slots
// that fell back.
func buildMaterial(provider assets.Provider, d MaterialDesc) (*material.Material, []string, error) {
	vs := provider.VertexShader(d.VertexShader)
	if vs == nil {
		return nil, nil, fmt.Errorf("material %s: unknown vertex shader %q", d.Name, d.VertexShader)
	}
	ps := provider.PixelShader(d.PixelShader)
	if ps == nil {
		return nil, nil, fmt.Errorf("material %s: unknown pixel shader %q", d.Name, d.PixelShader)
	}

	mat := material.New(d.Name, vs, ps)
	mat.SetTint(mgl32.Vec4(d.Tint))
	mat.SetUVScale(mgl32.Vec2(d.UVScale))
	mat.SetRefraction(d.Refractive, d.RefractionIndex)
	for _, name := range []string{"BasicSampler", "ClampSampler"} {
		if s := provider.Sampler(name); s != nil {
			mat.AddSampler(name, s)
		}
	}
	var missing []string
	bind := func(slot, name, fallback string) {
		tex := provider.Texture(name)
		if tex == nil {
			if name != "" {
				missing = append(missing, slot)
			}
			tex = provider.Texture(fallback)
		}
		mat.AddTexture(slot, tex)
	}
	for slot, fallback := range fallbackTextures {
		bind(slot, d.Textures[slot], fallback)
	}
	for slot, name := range d.Textures {
		if _, ok := fallbackTextures[slot]; !ok {
			bind(slot, name, "White")
		}
	}
	sort.Strings(missing)
	return mat, missing, nil
}

// growHair copies m so the strands belong to this entity alone.
func growHair(dev gpu.Device, cs gpu.Shader, name string, m *mesh.Mesh) (*mesh.Mesh, error) {
	if cs == nil {
		return nil, fmt.Errorf("entity %s: hair shader unavailable", name)
	}
	hm, err := mesh.New(dev, name+" hair", m.Vertices(), m.Indices())
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", name, err)
	}
	if err := hm.CreateHair(dev, cs, mesh.DefaultHairParams); err != nil {
		hm.Release()
		return nil, fmt.Errorf("entity %s: %w", name, err)
	}
	return hm, nil
}

func buildLight(d LightDesc) lighting.Light {
	if d.Type == "point" {
		return lighting.NewPoint(mgl32.Vec3(d.Position), mgl32.Vec3(d.Color), d.Range, d.Intensity)
	}
	return lighting.NewDirectional(mgl32.Vec3(d.Direction), mgl32.Vec3(d.Color), d.Intensity)
}

func buildEmitter(dev gpu.Device, provider assets.Provider, d EmitterDesc, rng *rand.Rand) (*particles.Emitter, error) {
	tex := provider.Texture(d.Texture)
	if tex == nil {
		tex = provider.Texture("White")
	}
	e, err := particles.New(dev, particles.Config{
		Name:     d.Name,
		Capacity: d.Capacity,
		Rate:     d.Rate,
		Lifetime: d.Lifetime,
		Texture:  tex,
		VS:       provider.VertexShader("ParticleVS"),
		PS:       provider.PixelShader("ParticlePS"),
		Rand:     rng,
	})
	if err != nil {
		return nil, err
	}

	e.Transform().SetPosition(mgl32.Vec3(d.Position))
	start, end := e.Colors()
	if d.StartColor != ([4]float32{}) {
		start = mgl32.Vec4(d.StartColor)
	}
	if d.EndColor != ([4]float32{}) {
		end = mgl32.Vec4(d.EndColor)
	}
	e.SetColor(start, end)
	startScale, endScale := e.Scales()
	if d.StartScale != 0 {
		startScale = mgl32.Vec2{d.StartScale, d.StartScale}
	}
	if d.EndScale != 0 {
		endScale = mgl32.Vec2{d.EndScale, d.EndScale}
	}
	e.SetScale(startScale, endScale)
	e.SetStartingVelocity(mgl32.Vec3(d.Velocity))
	e.SetVelocityRange(mgl32.Vec3(d.VelocityRange))
	e.SetAcceleration(mgl32.Vec3(d.Acceleration))
	return e, nil
}

// Material returns the material called name, or nil.
func (w *World) Material(name string) *material.Material {
	for _, m := range w.Materials {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// RegenerateLights keeps the fixed lights and scatters a new set of random point lights.
func (w *World) RegenerateLights(rng *rand.Rand) {
	lights := make([]lighting.Light, 0, len(w.fixedLights)+w.randomLights)
	lights = append(lights, w.fixedLights...)
	w.Lights = append(lights, lighting.RandomPointLights(rng, w.randomLights)...)
}

// Update steps the animations and emitters.
func (w *World) Update(dt float32) {
	for _, a := range w.Animations {
		a.Step(dt)
	}
	for _, e := range w.Emitters {
		e.Update(dt)
	}
}

// Release frees the emitters and the hair meshes. Shared meshes and
// textures belong to the asset manager.
func (w *World) Release() {
	for _, e := range w.Emitters {
		e.Release()
	}
	for _, m := range w.hairMeshes {
		m.Release()
	}
	w.Emitters = nil
	w.hairMeshes = nil
}
