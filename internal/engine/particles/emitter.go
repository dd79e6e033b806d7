// Package particles implements a CPU simulated particle emitter drawn as GPU billboards.
//
// Particles live in a fixed capacity ring buffer. The live range starts at
// firstLive and ends before firstDead, wrapping at the end of the buffer.
// Because equal indices mean either full or empty, the live count is tracked
// separately and is the authority on how many particles are alive.
package particles

import (
	"fmt"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/scene"
)

// Particle is one ring buffer slot, laid out as two vec4s for the vertex shader.
type Particle struct {
	Age      float32 // Time / lifetime, 0..1
	Position mgl32.Vec3
	Time     float32 // seconds since emission
	Velocity mgl32.Vec3
}

// ParticleSize is the byte size of Particle.
const ParticleSize = 32

// Config configures a new Emitter.
type Config struct {
	Name     string
	Capacity int
	// Rate is particles emitted per second.
	Rate float32
	// Lifetime is how long a particle lives in seconds.
	Lifetime float32
	Texture  gpu.Texture
	VS       gpu.Shader
	PS       gpu.Shader
	// Rand drives velocity jitter. Nil uses a randomly seeded source.
	Rand *rand.Rand
}

// Emitter spawns particles at its transform position and uploads the live ones every update.
type Emitter struct {
	name     string
	capacity int
	period   float32
	lifetime float32

	particles []Particle
	upload    []Particle
	firstLive int
	firstDead int
	live      int
	sinceEmit float32

	startScale, endScale mgl32.Vec2
	startColor, endColor mgl32.Vec4
	startVelocity        mgl32.Vec3
	velocityRange        mgl32.Vec3
	acceleration         mgl32.Vec3

	transform *scene.Transform
	rng       *rand.Rand

	dev         gpu.Device
	texture     gpu.Texture
	vs, ps      gpu.Shader
	particleBuf gpu.Buffer
	indexBuf    gpu.Buffer
}

// New allocates the particle and index buffers for cfg.Capacity particles.
func New(dev gpu.Device, cfg Config) (*Emitter, error) {
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("emitter %q: capacity must be positive, got %d", cfg.Name, cfg.Capacity)
	}
	if cfg.Rate <= 0 {
		return nil, fmt.Errorf("emitter %q: rate must be positive, got %v", cfg.Name, cfg.Rate)
	}
	if cfg.Lifetime <= 0 {
		return nil, fmt.Errorf("emitter %q: lifetime must be positive, got %v", cfg.Name, cfg.Lifetime)
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	e := &Emitter{
		name:       cfg.Name,
		capacity:   cfg.Capacity,
		period:     1 / cfg.Rate,
		lifetime:   cfg.Lifetime,
		particles:  make([]Particle, cfg.Capacity),
		upload:     make([]Particle, 0, cfg.Capacity),
		startScale: mgl32.Vec2{0.5, 0.5},
		endScale:   mgl32.Vec2{0.5, 0.5},
		startColor: mgl32.Vec4{1, 1, 1, 1},
		endColor:   mgl32.Vec4{1, 1, 1, 1},
		transform:  scene.NewTransform(),
		rng:        rng,
		dev:        dev,
		texture:    cfg.Texture,
		vs:         cfg.VS,
		ps:         cfg.PS,
	}

	var err error
	e.particleBuf, err = dev.CreateBuffer(gpu.BufferDescriptor{
		Label:  cfg.Name + " particles",
		Kind:   gpu.StructuredBuffer,
		Usage:  gpu.UsageDynamic,
		Size:   cfg.Capacity * ParticleSize,
		Stride: ParticleSize,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("emitter %q: %w", cfg.Name, err)
	}

	indices := quadIndices(cfg.Capacity)
	e.indexBuf, err = dev.CreateBuffer(gpu.BufferDescriptor{
		Label: cfg.Name + " indices",
		Kind:  gpu.IndexBuffer,
		Usage: gpu.UsageImmutable,
		Size:  len(indices) * 4,
	}, gpu.Bytes(indices))
	if err != nil {
		e.particleBuf.Release()
		return nil, fmt.Errorf("emitter %q: %w", cfg.Name, err)
	}
	return e, nil
}

// quadIndices returns two triangles per particle over four pulled vertices.
func quadIndices(n int) []uint32 {
	indices := make([]uint32, 0, n*6)
	for i := uint32(0); i < uint32(n*4); i += 4 {
		indices = append(indices, i, i+1, i+2, i, i+2, i+3)
	}
	return indices
}

func (e *Emitter) Name() string                { return e.name }
func (e *Emitter) Capacity() int               { return e.capacity }
func (e *Emitter) LiveCount() int              { return e.live }
func (e *Emitter) Transform() *scene.Transform { return e.transform }

// Update ages live particles, emits new ones and uploads the live range.
func (e *Emitter) Update(dt float32) {
	if e.live > 0 {
		switch {
		case e.firstDead > e.firstLive:
			e.ageRange(e.firstLive, e.firstDead, dt)
		case e.firstDead < e.firstLive:
			e.ageRange(e.firstLive, e.capacity, dt)
			e.ageRange(0, e.firstDead, dt)
		default:
			e.ageRange(0, e.capacity, dt)
		}
	}

	e.sinceEmit += dt
	for e.sinceEmit > e.period {
		e.emit()
		e.sinceEmit -= e.period
	}

	e.dev.WriteBuffer(e.particleBuf, gpu.Bytes(e.liveParticles()))
}

func (e *Emitter) ageRange(from, to int, dt float32) {
	for i := from; i < to; i++ {
		p := &e.particles[i]
		p.Time += dt
		p.Age = p.Time / e.lifetime
		if p.Time >= e.lifetime && e.live > 0 {
			e.firstLive = (e.firstLive + 1) % e.capacity
			e.live--
		}
	}
}

func (e *Emitter) emit() {
	if e.live >= e.capacity {
		return
	}

	e.particles[e.firstDead] = Particle{
		Position: e.transform.Position(),
		Velocity: mgl32.Vec3{
			e.startVelocity[0] + e.velocityRange[0]*e.jitter(),
			e.startVelocity[1] + e.velocityRange[1]*e.jitter(),
			e.startVelocity[2] + e.velocityRange[2]*e.jitter(),
		},
	}
	e.firstDead = (e.firstDead + 1) % e.capacity
	e.live++
}

// jitter returns a uniform value in [-1, 1).
func (e *Emitter) jitter() float32 {
	return e.rng.Float32()*2 - 1
}

// liveParticles packs the live range contiguously, tail of the buffer first
// when it wraps.
func (e *Emitter) liveParticles() []Particle {
	e.upload = e.upload[:0]
	if e.live == 0 {
		return e.upload
	}
	if e.firstLive < e.firstDead {
		return append(e.upload, e.particles[e.firstLive:e.firstDead]...)
	}
	e.upload = append(e.upload, e.particles[e.firstLive:]...)
	return append(e.upload, e.particles[:e.firstDead]...)
}

// Draw issues one indexed draw for the live particles. Vertices are pulled
// from the particle buffer, so no vertex buffer is bound.
func (e *Emitter) Draw(cam *camera.Camera) {
	e.dev.SetVertexBuffer(nil, gpu.VertexLayout{})
	e.dev.SetIndexBuffer(e.indexBuf)

	e.vs.Bind()
	e.ps.Bind()

	e.ps.SetTexture("Texture", e.texture)

	e.vs.SetBuffer("ParticleData", e.particleBuf)
	e.vs.SetMatrix4x4("view", cam.View())
	e.vs.SetMatrix4x4("projection", cam.Projection())
	e.vs.SetFloat2("startScale", e.startScale)
	e.vs.SetFloat2("endScale", e.endScale)
	e.vs.SetFloat4("startColor", e.startColor)
	e.vs.SetFloat4("endColor", e.endColor)
	e.vs.SetFloat3("acceleration", e.acceleration)
	e.vs.CopyAllBufferData()

	e.dev.DrawIndexed(e.live * 6)
}

func (e *Emitter) SetColor(start, end mgl32.Vec4) {
	e.startColor, e.endColor = start, end
}

func (e *Emitter) SetScale(start, end mgl32.Vec2) {
	e.startScale, e.endScale = start, end
}

func (e *Emitter) SetStartingVelocity(v mgl32.Vec3) { e.startVelocity = v }
func (e *Emitter) SetVelocityRange(r mgl32.Vec3)    { e.velocityRange = r }
func (e *Emitter) SetAcceleration(a mgl32.Vec3)     { e.acceleration = a }

func (e *Emitter) Colors() (start, end mgl32.Vec4) { return e.startColor, e.endColor }
func (e *Emitter) Scales() (start, end mgl32.Vec2) { return e.startScale, e.endScale }
func (e *Emitter) StartingVelocity() mgl32.Vec3    { return e.startVelocity }
func (e *Emitter) VelocityRange() mgl32.Vec3       { return e.velocityRange }
func (e *Emitter) Acceleration() mgl32.Vec3        { return e.acceleration }

func (e *Emitter) Release() {
	e.particleBuf.Release()
	e.indexBuf.Release()
}
