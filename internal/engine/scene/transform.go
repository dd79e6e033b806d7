package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/pkg/math"
)

// Transform is a position, pitch/yaw/roll rotation and scale with cached
// matrices. It also remembers the world matrix of the previous frame for
// velocity output.
type Transform struct {
	position mgl32.Vec3
	rotation mgl32.Vec3 // pitch, yaw, roll in radians
	scale    mgl32.Vec3

	world     mgl32.Mat4
	worldIT   mgl32.Mat4
	prevWorld mgl32.Mat4
	dirty     bool
}

// NewTransform returns an identity transform.
func NewTransform() *Transform {
	return &Transform{
		scale:     mgl32.Vec3{1, 1, 1},
		world:     mgl32.Ident4(),
		worldIT:   mgl32.Ident4(),
		prevWorld: mgl32.Ident4(),
	}
}

func (t *Transform) Position() mgl32.Vec3 { return t.position }

// Rotation returns pitch, yaw and roll in radians.
func (t *Transform) Rotation() mgl32.Vec3 { return t.rotation }

func (t *Transform) Scale() mgl32.Vec3 { return t.scale }

func (t *Transform) SetPosition(p mgl32.Vec3) {
	t.position = p
	t.dirty = true
}

func (t *Transform) SetRotation(pitchYawRoll mgl32.Vec3) {
	t.rotation = pitchYawRoll
	t.dirty = true
}

func (t *Transform) SetScale(s mgl32.Vec3) {
	t.scale = s
	t.dirty = true
}

// MoveAbsolute offsets the position in world space.
func (t *Transform) MoveAbsolute(d mgl32.Vec3) {
	t.SetPosition(t.position.Add(d))
}

// Rotate adds to pitch, yaw and roll.
func (t *Transform) Rotate(d mgl32.Vec3) {
	t.SetRotation(t.rotation.Add(d))
}

// World returns the scale, then rotate, then translate matrix.
func (t *Transform) World() mgl32.Mat4 {
	t.update()
	return t.world
}

// WorldInverseTranspose is the normal matrix of World.
func (t *Transform) WorldInverseTranspose() mgl32.Mat4 {
	t.update()
	return t.worldIT
}

// PrevWorld is the world matrix recorded by the last StorePrevWorld.
func (t *Transform) PrevWorld() mgl32.Mat4 { return t.prevWorld }

// StorePrevWorld records the current world matrix as the previous one.
func (t *Transform) StorePrevWorld() {
	t.prevWorld = t.World()
}

func (t *Transform) update() {
	if !t.dirty {
		return
	}
	t.world = math.World(t.position, t.rotation, t.scale)
	t.worldIT = math.InverseTranspose(t.world)
	t.dirty = false
}
